package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// docxExtractor concatenates paragraph text from the word/document.xml inside
// a word-processor package (which is a zip of XML parts).
type docxExtractor struct{}

func (e *docxExtractor) Extensions() []string { return []string{".docx"} }
func (e *docxExtractor) Available() bool      { return true }
func (e *docxExtractor) Binary() bool         { return true }

func (e *docxExtractor) Extract(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	var doc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return "", err
			}
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("no word/document.xml in %s", path)
	}
	defer doc.Close()

	dec := xml.NewDecoder(doc)
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return collapseWhitespace(sb.String()), nil
}
