package extract

import "os"

// plainExtractor reads plain-text files verbatim.
type plainExtractor struct{}

func (e *plainExtractor) Extensions() []string { return []string{".txt"} }
func (e *plainExtractor) Available() bool      { return true }
func (e *plainExtractor) Binary() bool         { return false }

func (e *plainExtractor) Extract(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
