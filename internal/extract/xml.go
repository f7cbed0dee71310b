package extract

import (
	"encoding/xml"
	"io"
	"os"
	"strings"
)

// xmlExtractor collects the character data of an XML tree. A parse failure
// returns an error so the registry degrades to the raw file contents;
// malformed XML must not lose the document.
type xmlExtractor struct{}

func (e *xmlExtractor) Extensions() []string { return []string{".xml"} }
func (e *xmlExtractor) Available() bool      { return true }
func (e *xmlExtractor) Binary() bool         { return false }

func (e *xmlExtractor) Extract(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			chunk := strings.TrimSpace(string(t))
			if chunk != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(chunk)
			}
		case xml.EndElement:
			// Paragraph-ish elements become line breaks so sectioning
			// has something to split on.
			switch t.Name.Local {
			case "p", "sec", "title", "abstract":
				sb.WriteString("\n\n")
			}
		}
	}
	return collapseWhitespace(sb.String()), nil
}
