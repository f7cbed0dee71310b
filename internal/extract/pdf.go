package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfExtractor pulls text page by page. The pdf library panics on some
// malformed inputs, so extraction runs behind a recover.
type pdfExtractor struct{}

func (e *pdfExtractor) Extensions() []string { return []string{".pdf"} }
func (e *pdfExtractor) Available() bool      { return true }
func (e *pdfExtractor) Binary() bool         { return true }

func (e *pdfExtractor) Extract(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf extraction panicked: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// A bad page should not lose the rest of the document.
			continue
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n"), nil
}
