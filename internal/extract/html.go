package extract

import (
	"os"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var tagRe = regexp.MustCompile(`(?s)<[^>]*>`)
var scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)

// htmlExtractor strips markup, dropping script and style content entirely.
// If the markup parser fails, a regexp tag stripper takes over.
type htmlExtractor struct{}

func (e *htmlExtractor) Extensions() []string { return []string{".html", ".htm"} }
func (e *htmlExtractor) Available() bool      { return true }
func (e *htmlExtractor) Binary() bool         { return false }

func (e *htmlExtractor) Extract(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(string(raw)))
	if err != nil {
		return collapseWhitespace(stripTags(string(raw))), nil
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr":
				sb.WriteString("\n\n")
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return collapseWhitespace(sb.String()), nil
}

// stripTags is the regexp fallback when the markup parser is unusable.
func stripTags(s string) string {
	s = scriptRe.ReplaceAllString(s, " ")
	return tagRe.ReplaceAllString(s, " ")
}
