// Package entity holds the primary entity-extraction engine behind an
// interface so the built-in dictionary matcher can be swapped for an external
// NER engine.
package entity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docminer/docminer/internal/dict"
	"github.com/docminer/docminer/internal/match"
	"github.com/docminer/docminer/pkg/models"
)

// Sentinel errors for extraction failures.
var (
	ErrBadDictionary = errors.New("dictionary unusable")
)

// Extractor is the primary extraction engine run over sectioned text.
// Implementations distinguish "ran fine, found nothing" (empty slice, nil
// error) from a malfunction (non-nil error); only the former triggers the
// fallback matcher downstream.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, sections []models.Section, opts models.ExtractOptions) ([]models.Match, error)
}

// DictExtractor is the built-in engine: sentence-level dictionary matching
// with section and entity-label filters.
type DictExtractor struct {
	dictDir string
}

// NewDictExtractor creates a DictExtractor resolving dictionary references
// against dictDir.
func NewDictExtractor(dictDir string) *DictExtractor {
	return &DictExtractor{dictDir: dictDir}
}

func (e *DictExtractor) Name() string { return "dictionary" }

func (e *DictExtractor) Extract(ctx context.Context, sections []models.Section, opts models.ExtractOptions) ([]models.Match, error) {
	path, err := dict.Resolve(opts.Dictionary, e.dictDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDictionary, err)
	}
	d, err := dict.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDictionary, err)
	}

	labels := make(map[string]string, len(d.Entries))
	for _, entry := range d.Entries {
		labels[strings.ToLower(entry.Term)] = entry.Label
	}
	terms := d.Terms()

	var matches []models.Match
	for _, sec := range sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !sectionWanted(sec.Label, opts.SectionFilter) {
			continue
		}
		for _, sentence := range SplitSentences(sec.Text) {
			for _, hit := range match.FindTerms(sentence, terms) {
				label := labels[strings.ToLower(hit.Term)]
				if !labelWanted(label, opts.EntityFilter) {
					continue
				}
				matches = append(matches, models.Match{
					DocID:    sec.DocID,
					Section:  sec.Label,
					Sentence: sentence,
					Term:     hit.Term,
					Label:    label,
					Source:   models.MatchSourcePrimary,
				})
			}
		}
	}
	return matches, nil
}

// sectionWanted applies the submission's section filter; an empty filter or
// the ALL marker keeps everything.
func sectionWanted(label string, filter []string) bool {
	return filterAllows(label, filter)
}

func labelWanted(label string, filter []string) bool {
	return filterAllows(label, filter)
}

func filterAllows(value string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if strings.EqualFold(f, "ALL") || strings.EqualFold(f, value) {
			return true
		}
	}
	return false
}

// SplitSentences breaks text into sentences on terminal punctuation. It is
// deliberately simple; abbreviation handling is not worth the trouble for
// positioning a match in its surrounding sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var sb strings.Builder
	flush := func() {
		s := strings.TrimSpace(sb.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		sb.Reset()
	}
	runes := []rune(text)
	for i, r := range runes {
		sb.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				flush()
			}
		}
		if r == '\n' {
			flush()
		}
	}
	flush()
	return sentences
}
