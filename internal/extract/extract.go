// Package extract turns files of various formats into plain text.
//
// Extraction is best effort: Text never returns an error. A format-specific
// failure degrades to a raw read for text formats, and to a diagnostic
// sentinel for binary formats, so the pipeline always has a defined input for
// every document.
package extract

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Diagnostic sentinels returned when no text can be produced.
const (
	SentinelNotAvailable = "[text extraction not available for this format]"
	SentinelNoContent    = "[content could not be extracted]"
)

// FormatExtractor is one format-specific extraction strategy.
type FormatExtractor interface {
	// Extensions lists the lower-cased file extensions handled, with dot.
	Extensions() []string
	// Available reports whether the extractor can run in this build.
	Available() bool
	// Binary reports whether the underlying format is binary; binary
	// formats degrade to a sentinel instead of a raw byte dump.
	Binary() bool
	// Extract reads the file and returns its text.
	Extract(path string) (string, error)
}

// Registry dispatches extraction by file extension.
type Registry struct {
	byExt map[string]FormatExtractor
}

// NewRegistry returns a registry with all built-in format extractors.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]FormatExtractor)}
	r.Register(&plainExtractor{})
	r.Register(&xmlExtractor{})
	r.Register(&htmlExtractor{})
	r.Register(&pdfExtractor{})
	r.Register(&docxExtractor{})
	return r
}

// Register adds an extractor, taking over its extensions.
func (r *Registry) Register(e FormatExtractor) {
	for _, ext := range e.Extensions() {
		r.byExt[ext] = e
	}
}

// Text extracts the file's text content. It never fails: on any error the
// result degrades to the raw file contents or a diagnostic sentinel.
func (r *Registry) Text(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return rawOrSentinel(path)
	}

	if !e.Available() {
		return SentinelNotAvailable
	}

	text, err := e.Extract(path)
	if err == nil && strings.TrimSpace(text) != "" {
		return text
	}
	if err != nil {
		slog.Debug("extraction degraded", "path", path, "format", ext, "error", err)
	}
	if e.Binary() {
		return SentinelNotAvailable
	}
	return rawOrSentinel(path)
}

// rawOrSentinel is the last-resort raw read.
func rawOrSentinel(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil || strings.TrimSpace(string(raw)) == "" {
		return SentinelNoContent
	}
	return string(raw)
}

// collapseWhitespace normalizes runs of whitespace to single spaces while
// keeping paragraph breaks (blank lines).
func collapseWhitespace(s string) string {
	paragraphs := strings.Split(s, "\n\n")
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		fields := strings.Fields(p)
		if len(fields) == 0 {
			continue
		}
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, "\n\n")
}
