// Package section splits corpus documents into sections for extraction.
package section

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docminer/docminer/internal/extract"
	"github.com/docminer/docminer/pkg/models"
)

// DocPrefix is the naming convention for document directories inside a
// corpus; everything else at the corpus top level is ignored.
const DocPrefix = "PMC"

// Sectioner splits every document in a corpus directory into sections.
type Sectioner interface {
	Split(ctx context.Context, corpusDir string) ([]models.Section, error)
}

// ParagraphSectioner is the default splitter: it extracts each document's
// text (format-aware) and treats paragraph blocks as sections. It also
// leaves the normalized text behind as the document's fulltext.txt artifact.
type ParagraphSectioner struct {
	extractor *extract.Registry
}

// NewParagraphSectioner creates a sectioner using the given extractor registry.
func NewParagraphSectioner(r *extract.Registry) *ParagraphSectioner {
	return &ParagraphSectioner{extractor: r}
}

func (s *ParagraphSectioner) Split(ctx context.Context, corpusDir string) ([]models.Section, error) {
	entries, err := os.ReadDir(corpusDir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}

	var sections []models.Section
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), DocPrefix) {
			continue
		}

		docDir := filepath.Join(corpusDir, entry.Name())
		src, err := sourceFile(docDir)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", entry.Name(), err)
		}

		text := s.extractor.Text(src)
		if err := writeNormalized(docDir, src, text); err != nil {
			return nil, fmt.Errorf("document %s: %w", entry.Name(), err)
		}

		for _, para := range strings.Split(text, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			sections = append(sections, models.Section{
				DocID: entry.Name(),
				Label: "body",
				Text:  para,
			})
		}
	}
	return sections, nil
}

// sourceFile picks the document's source: fulltext.xml from a download,
// fulltext.txt from a previous normalization, or whatever single file an
// upload left behind.
func sourceFile(docDir string) (string, error) {
	for _, name := range []string{"fulltext.xml", "fulltext.txt"} {
		path := filepath.Join(docDir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	entries, err := os.ReadDir(docDir)
	if err != nil {
		return "", fmt.Errorf("read document dir: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			return filepath.Join(docDir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no source file in %s", docDir)
}

func writeNormalized(docDir, src, text string) error {
	dest := filepath.Join(docDir, "fulltext.txt")
	if filepath.Base(src) == "fulltext.txt" {
		return nil
	}
	return os.WriteFile(dest, []byte(text), 0o644)
}
