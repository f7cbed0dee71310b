package pipeline

import (
	"os"
	"strings"
	"time"

	"github.com/docminer/docminer/internal/section"
	"github.com/docminer/docminer/pkg/models"
)

// Summarize builds the result record for a finished run: documents that made
// it through acquisition, match rows recorded, wall-clock time, and which
// artifacts actually exist on disk.
func Summarize(corpusDir string, matchesFound int, artifacts map[string]string, started time.Time) models.ResultSummary {
	summary := models.ResultSummary{
		MatchesFound:    matchesFound,
		Elapsed:         models.Duration(time.Since(started)),
		OutputArtifacts: make(map[string]string),
	}

	if entries, err := os.ReadDir(corpusDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() && strings.HasPrefix(entry.Name(), section.DocPrefix) {
				summary.ItemsProcessed++
			}
		}
	}

	for name, path := range artifacts {
		if _, err := os.Stat(path); err == nil {
			summary.OutputArtifacts[name] = path
		}
	}

	return summary
}
