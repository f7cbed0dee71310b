// Package match implements deterministic word-boundary term matching, the
// fallback strategy used when primary entity extraction finds nothing.
package match

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Occurrence is one term hit in a text.
type Occurrence struct {
	Term   string
	Offset int
}

// FindTerms scans text for each term, case-insensitively, recording a hit for
// every occurrence that sits on word boundaries: "SVM" matches inside
// "used an SVM classifier" but not inside "SVMware". Multi-word terms are
// matched as literal phrases. Offsets are byte offsets into the original
// text, so they stay valid for Snippet even when lowercasing changes a
// rune's byte length.
func FindTerms(text string, terms []string) []Occurrence {
	folded, toOrig := foldOffsets(text)

	var hits []Occurrence
	for _, term := range terms {
		lowerTerm := strings.ToLower(strings.TrimSpace(term))
		if lowerTerm == "" {
			continue
		}
		for start := 0; ; {
			i := strings.Index(folded[start:], lowerTerm)
			if i < 0 {
				break
			}
			offset := start + i
			end := offset + len(lowerTerm)
			if boundaryBefore(folded, offset) && boundaryAfter(folded, end) {
				hits = append(hits, Occurrence{Term: term, Offset: toOrig[offset]})
			}
			start = offset + 1
		}
	}
	return hits
}

// foldOffsets lowercases text rune by rune, recording for every byte of the
// folded string the byte offset of the source rune in the original text.
// The two diverge once a rune like U+0130 folds to a different byte length.
func foldOffsets(text string) (string, []int) {
	var b strings.Builder
	b.Grow(len(text))
	toOrig := make([]int, 0, len(text))
	for i, r := range text {
		lr := unicode.ToLower(r)
		for n := utf8.RuneLen(lr); n > 0; n-- {
			toOrig = append(toOrig, i)
		}
		b.WriteRune(lr)
	}
	return b.String(), toOrig
}

// Contains reports whether any term occurs in text at a word boundary.
func Contains(text string, terms []string) bool {
	return len(FindTerms(text, terms)) > 0
}

// Snippet returns the text surrounding offset, clipped to whole runes and at
// most radius bytes on each side, for use as match context.
func Snippet(text string, offset, radius int) string {
	start := offset - radius
	if start < 0 {
		start = 0
	}
	end := offset + radius
	if end > len(text) {
		end = len(text)
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return strings.TrimSpace(strings.Join(strings.Fields(text[start:end]), " "))
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
