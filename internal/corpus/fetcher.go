// Package corpus downloads full-text documents from the Europe PMC REST API
// into the per-job corpus layout (one PMC<id> directory per document, each
// holding a fulltext.xml).
package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Sentinel errors for corpus client failures.
var (
	ErrCorpusUnreachable = errors.New("corpus service unreachable")
	ErrCorpusRequest     = errors.New("corpus request failed")
	ErrCorpusTimeout     = errors.New("corpus request timeout")
)

// Fetcher is the interface for acquiring documents for a query.
type Fetcher interface {
	// Fetch downloads up to hits full-text documents matching query into
	// destDir and returns the number of documents written.
	Fetch(ctx context.Context, query string, hits int, destDir string) (int, error)
}

// HTTPClient implements Fetcher against the Europe PMC REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new Europe PMC client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	ResultList struct {
		Result []struct {
			PMCID string `json:"pmcid"`
			Title string `json:"title"`
		} `json:"result"`
	} `json:"resultList"`
}

func (c *HTTPClient) Fetch(ctx context.Context, query string, hits int, destDir string) (int, error) {
	if hits <= 0 {
		hits = 10
	}

	params := url.Values{
		"query":      {query + " AND OPEN_ACCESS:Y"},
		"format":     {"json"},
		"pageSize":   {strconv.Itoa(hits)},
		"resultType": {"core"},
	}
	u := fmt.Sprintf("%s/webservices/rest/search?%s", c.baseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return 0, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrCorpusRequest, resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return 0, fmt.Errorf("decoding search response: %w", err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("create corpus dir: %w", err)
	}

	written := 0
	for _, result := range searchResp.ResultList.Result {
		if result.PMCID == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := c.fetchFullText(ctx, result.PMCID, destDir); err != nil {
			// One missing full text should not sink the whole download.
			slog.Warn("skipping document", "pmcid", result.PMCID, "error", err)
			continue
		}
		written++
	}
	return written, nil
}

func (c *HTTPClient) fetchFullText(ctx context.Context, pmcid, destDir string) error {
	u := fmt.Sprintf("%s/webservices/rest/%s/fullTextXML", c.baseURL, url.PathEscape(pmcid))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrCorpusRequest, resp.StatusCode)
	}

	docDir := filepath.Join(destDir, pmcid)
	if err := os.MkdirAll(docDir, 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}

	f, err := os.Create(filepath.Join(docDir, "fulltext.xml"))
	if err != nil {
		return fmt.Errorf("create fulltext file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write fulltext: %w", err)
	}
	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrCorpusTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrCorpusTimeout, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrCorpusUnreachable, err)
}
