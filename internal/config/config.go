package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the DocMiner server.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Pipeline PipelineConfig
	Corpus   CorpusConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type StorageConfig struct {
	// DataDir is where per-job corpus directories are created.
	DataDir string
	// UploadDir is where the upload endpoint stages incoming files.
	UploadDir string
	// DictDir holds the selectable dictionaries (*.xml).
	DictDir string
	// MaxUploadBytes caps a single multipart upload request.
	MaxUploadBytes int64
}

type PipelineConfig struct {
	// Workers is the size of the worker pool running jobs.
	Workers int
	// QueueSize bounds the submission queue; submissions beyond it are
	// rejected with a queue-full error rather than spawning goroutines.
	QueueSize int
	// StageTimeout bounds each individual pipeline stage.
	StageTimeout time.Duration
}

type CorpusConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DatabaseConfig is only used when URL is set; the default job store is
// in-memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is only used when URL is set.
type RedisConfig struct {
	URL string
}

// Load reads configuration from environment variables and returns a validated
// Config. Returns an error with a descriptive message if any value is invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("DOCMINER_PORT", 8080),
			Env:  envString("DOCMINER_ENV", "development"),
		},
		Storage: StorageConfig{
			DataDir:        envString("DOCMINER_DATA_DIR", "data"),
			UploadDir:      envString("DOCMINER_UPLOAD_DIR", "uploads"),
			DictDir:        envString("DOCMINER_DICT_DIR", "dictionary"),
			MaxUploadBytes: envInt64("DOCMINER_MAX_UPLOAD_BYTES", 16<<20),
		},
		Pipeline: PipelineConfig{
			Workers:      envInt("DOCMINER_WORKERS", 4),
			QueueSize:    envInt("DOCMINER_QUEUE_SIZE", 32),
			StageTimeout: envDuration("DOCMINER_STAGE_TIMEOUT", 10*time.Minute),
		},
		Corpus: CorpusConfig{
			BaseURL: envString("EUPMC_BASE_URL", "https://www.ebi.ac.uk/europepmc"),
			Timeout: envDuration("EUPMC_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("DOCMINER_PORT must be in (0, 65535], got %d", c.Server.Port)
	}

	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("DOCMINER_WORKERS must be positive, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.QueueSize <= 0 {
		return fmt.Errorf("DOCMINER_QUEUE_SIZE must be positive, got %d", c.Pipeline.QueueSize)
	}
	if c.Pipeline.StageTimeout <= 0 {
		return fmt.Errorf("DOCMINER_STAGE_TIMEOUT must be positive, got %s", c.Pipeline.StageTimeout)
	}

	if !strings.HasPrefix(c.Corpus.BaseURL, "http://") && !strings.HasPrefix(c.Corpus.BaseURL, "https://") {
		return fmt.Errorf("EUPMC_BASE_URL must start with http:// or https://, got %q", c.Corpus.BaseURL)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
