package corpus_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docminer/docminer/internal/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakePMC(t *testing.T, fulltexts map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/webservices/rest/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("query"), "OPEN_ACCESS:Y")
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		var results []string
		for id := range fulltexts {
			results = append(results, fmt.Sprintf(`{"pmcid":%q,"title":"t"}`, id))
		}
		// One record with no pmcid, which must be skipped without error.
		results = append(results, `{"title":"preprint without pmcid"}`)
		fmt.Fprintf(w, `{"resultList":{"result":[%s]}}`, strings.Join(results, ","))
	})
	mux.HandleFunc("/webservices/rest/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		pmcid := parts[len(parts)-2]
		body, ok := fulltexts[pmcid]
		if !ok || body == "" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_WritesCorpusLayout(t *testing.T) {
	srv := newFakePMC(t, map[string]string{
		"PMC100": "<article>first</article>",
		"PMC200": "<article>second</article>",
	})
	dest := t.TempDir()

	client := corpus.NewHTTPClient(srv.URL, 5*time.Second)
	n, err := client.Fetch(context.Background(), "machine learning", 10, dest)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	raw, err := os.ReadFile(filepath.Join(dest, "PMC100", "fulltext.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<article>first</article>", string(raw))
}

func TestFetch_SkipsDocumentsWithoutFullText(t *testing.T) {
	srv := newFakePMC(t, map[string]string{
		"PMC100": "<article>ok</article>",
		"PMC404": "",
	})
	dest := t.TempDir()

	client := corpus.NewHTTPClient(srv.URL, 5*time.Second)
	n, err := client.Fetch(context.Background(), "anything", 10, dest)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(filepath.Join(dest, "PMC404"))
	assert.True(t, os.IsNotExist(err))
}

func TestFetch_SearchErrorIsRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := corpus.NewHTTPClient(srv.URL, 5*time.Second)
	_, err := client.Fetch(context.Background(), "anything", 10, t.TempDir())
	assert.ErrorIs(t, err, corpus.ErrCorpusRequest)
}

func TestFetch_UnreachableHost(t *testing.T) {
	client := corpus.NewHTTPClient("http://127.0.0.1:1", time.Second)
	_, err := client.Fetch(context.Background(), "anything", 10, t.TempDir())
	assert.ErrorIs(t, err, corpus.ErrCorpusUnreachable)
}

func TestFetch_DefaultsHits(t *testing.T) {
	var gotPageSize string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPageSize = r.URL.Query().Get("pageSize")
		fmt.Fprint(w, `{"resultList":{"result":[]}}`)
	}))
	t.Cleanup(srv.Close)

	client := corpus.NewHTTPClient(srv.URL, 5*time.Second)
	n, err := client.Fetch(context.Background(), "anything", 0, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, "10", gotPageSize)
}
