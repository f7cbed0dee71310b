package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/docminer/docminer/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultSummary_ElapsedMarshalsAsString(t *testing.T) {
	summary := models.ResultSummary{
		ItemsProcessed: 2,
		MatchesFound:   7,
		Elapsed:        models.Duration(2500 * time.Millisecond),
	}

	raw, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"elapsed":"2.5s"`)

	var got models.ResultSummary
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, summary.Elapsed, got.Elapsed)
}

func TestDuration_UnmarshalAcceptsNanoseconds(t *testing.T) {
	// Rows persisted before the string form carry raw nanoseconds.
	var d models.Duration
	require.NoError(t, json.Unmarshal([]byte(`3000000000`), &d))
	assert.Equal(t, models.Duration(3*time.Second), d)
}

func TestDuration_UnmarshalRejectsGarbage(t *testing.T) {
	var d models.Duration
	assert.Error(t, json.Unmarshal([]byte(`"not a duration"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))
}
