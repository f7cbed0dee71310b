// Package report writes the result artifacts of a completed analysis.
// results.csv is always produced; results.html and results.json only when
// the submission asked for them.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/docminer/docminer/pkg/models"
)

// Artifact names, the only values a download request may name.
const (
	ArtifactCSV  = "results.csv"
	ArtifactHTML = "results.html"
	ArtifactJSON = "results.json"
)

var htmlTmpl = template.Must(template.New("results").Parse(`<!DOCTYPE html>
<html>
<head><title>DocMiner results</title></head>
<body>
<table border="1">
<tr><th>Document</th><th>Section</th><th>Sentence</th><th>Term</th><th>Label</th><th>Source</th></tr>
{{range .}}<tr><td>{{.DocID}}</td><td>{{.Section}}</td><td>{{.Sentence}}</td><td>{{.Term}}</td><td>{{.Label}}</td><td>{{.Source}}</td></tr>
{{end}}</table>
</body>
</html>
`))

// WriteAll writes the artifacts for the given matches into dir and returns a
// map of artifact name to path for everything written.
func WriteAll(dir string, matches []models.Match, format string) (map[string]string, error) {
	artifacts := make(map[string]string)

	csvPath := filepath.Join(dir, ArtifactCSV)
	if err := writeCSV(csvPath, matches); err != nil {
		return nil, err
	}
	artifacts[ArtifactCSV] = csvPath

	switch format {
	case "html":
		htmlPath := filepath.Join(dir, ArtifactHTML)
		if err := writeHTML(htmlPath, matches); err != nil {
			return nil, err
		}
		artifacts[ArtifactHTML] = htmlPath
	case "json":
		jsonPath := filepath.Join(dir, ArtifactJSON)
		if err := writeJSON(jsonPath, matches); err != nil {
			return nil, err
		}
		artifacts[ArtifactJSON] = jsonPath
	}

	return artifacts, nil
}

func writeCSV(path string, matches []models.Match) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"file_path", "section", "sentence", "term", "label", "source"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, m := range matches {
		if err := w.Write([]string{m.DocID, m.Section, m.Sentence, m.Term, m.Label, m.Source}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, matches []models.Match) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if matches == nil {
		matches = []models.Match{}
	}
	return enc.Encode(matches)
}

func writeHTML(path string, matches []models.Match) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	return htmlTmpl.Execute(f, matches)
}
