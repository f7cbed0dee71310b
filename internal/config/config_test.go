package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 32, cfg.Pipeline.QueueSize)
	assert.Equal(t, 10*time.Minute, cfg.Pipeline.StageTimeout)
	assert.Equal(t, "https://www.ebi.ac.uk/europepmc", cfg.Corpus.BaseURL)
	assert.Equal(t, int64(16<<20), cfg.Storage.MaxUploadBytes)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DOCMINER_PORT", "9090")
	t.Setenv("DOCMINER_WORKERS", "2")
	t.Setenv("DOCMINER_QUEUE_SIZE", "8")
	t.Setenv("DOCMINER_STAGE_TIMEOUT", "30s")
	t.Setenv("DOCMINER_DATA_DIR", "/tmp/docminer")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, 8, cfg.Pipeline.QueueSize)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.StageTimeout)
	assert.Equal(t, "/tmp/docminer", cfg.Storage.DataDir)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("DOCMINER_WORKERS", "not-a-number")
	t.Setenv("DOCMINER_STAGE_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 10*time.Minute, cfg.Pipeline.StageTimeout)
}

func TestLoad_RejectsBadBaseURL(t *testing.T) {
	t.Setenv("EUPMC_BASE_URL", "ftp://example.org")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EUPMC_BASE_URL")
}

func TestLoad_RejectsNonPositiveWorkers(t *testing.T) {
	t.Setenv("DOCMINER_WORKERS", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCMINER_WORKERS")
}
