package extract_test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/docminer/docminer/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestText_PlainVerbatim(t *testing.T) {
	r := extract.NewRegistry()
	path := writeFile(t, t.TempDir(), "doc.txt", "We used XGBoost for classification.\n")

	assert.Equal(t, "We used XGBoost for classification.\n", r.Text(path))
}

func TestText_WellFormedXML(t *testing.T) {
	r := extract.NewRegistry()
	path := writeFile(t, t.TempDir(), "fulltext.xml",
		`<article><title>Methods survey</title><sec><p>We used an SVM classifier.</p></sec></article>`)

	text := r.Text(path)
	assert.Contains(t, text, "Methods survey")
	assert.Contains(t, text, "We used an SVM classifier.")
	assert.NotContains(t, text, "<p>")
}

func TestText_MalformedXMLReturnsRaw(t *testing.T) {
	r := extract.NewRegistry()
	raw := `<article><p>unclosed paragraph`
	path := writeFile(t, t.TempDir(), "broken.xml", raw)

	assert.Equal(t, raw, r.Text(path))
}

func TestText_HTMLStripsMarkupAndScripts(t *testing.T) {
	r := extract.NewRegistry()
	path := writeFile(t, t.TempDir(), "page.html",
		`<html><head><style>body { color: red }</style></head>
		<body><script>var hidden = 1;</script><p>Random   forest models</p></body></html>`)

	text := r.Text(path)
	assert.Contains(t, text, "Random forest models")
	assert.NotContains(t, text, "hidden")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "<p>")
}

func TestText_DocxParagraphs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.docx")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
		<w:body><w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
		<w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	r := extract.NewRegistry()
	text := r.Text(path)
	assert.Contains(t, text, "First paragraph.")
	assert.Contains(t, text, "Second paragraph.")
}

func TestText_CorruptBinaryFormatsReturnSentinel(t *testing.T) {
	r := extract.NewRegistry()
	dir := t.TempDir()

	pdfPath := writeFile(t, dir, "junk.pdf", "this is not a pdf")
	assert.Equal(t, extract.SentinelNotAvailable, r.Text(pdfPath))

	docxPath := writeFile(t, dir, "junk.docx", "this is not a zip")
	assert.Equal(t, extract.SentinelNotAvailable, r.Text(docxPath))
}

func TestText_UnknownExtensionFallsBackToRaw(t *testing.T) {
	r := extract.NewRegistry()
	path := writeFile(t, t.TempDir(), "notes.md", "# SVM notes")

	assert.Equal(t, "# SVM notes", r.Text(path))
}

func TestText_MissingOrEmptyFileReturnsDiagnostic(t *testing.T) {
	r := extract.NewRegistry()
	dir := t.TempDir()

	assert.Equal(t, extract.SentinelNoContent, r.Text(filepath.Join(dir, "nope.txt")))

	empty := writeFile(t, dir, "empty.dat", "   \n")
	assert.Equal(t, extract.SentinelNoContent, r.Text(empty))
}
