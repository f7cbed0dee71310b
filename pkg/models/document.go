package models

// Section is one sectioned slice of a document's text, produced by the
// section splitter and consumed by entity extraction.
type Section struct {
	DocID string `json:"doc_id"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Match sources distinguish rows produced by the primary extractor from rows
// produced by the fallback matcher.
const (
	MatchSourcePrimary  = "primary"
	MatchSourceFallback = "fallback"
)

// Match is one recorded term or entity occurrence. Matches are the rows of
// the results.csv / results.html / results.json artifacts.
type Match struct {
	DocID    string `json:"doc_id"`
	Section  string `json:"section"`
	Sentence string `json:"sentence"`
	Term     string `json:"term"`
	Label    string `json:"label"`
	Source   string `json:"source"`
}

// ExtractOptions carries the submission filters down to the entity extractor.
type ExtractOptions struct {
	Dictionary    string
	SectionFilter []string
	EntityFilter  []string
}
