// Package config loads runtime settings for the ledger binaries.
//
// Sources are applied in order: built-in defaults, an optional YAML file,
// a .env file (if one is found), and finally environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all settings used by cmd/api, cmd/cli and cmd/sync-notion.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Queue      QueueConfig      `yaml:"queue"`
	BigQuery   BigQueryConfig   `yaml:"bigquery"`
	Notion     NotionConfig     `yaml:"notion"`
	Classifier ClassifierConfig `yaml:"classifier"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigin   string        `yaml:"allowed_origin"`
	// APIToken enables bearer auth on /api when set.
	APIToken string `yaml:"api_token"`
}

// StorageConfig selects snapshot backends. Every non-empty backend is
// mirrored; loads come from the first one that has a snapshot.
type StorageConfig struct {
	File       string `yaml:"file"`
	GCSURI     string `yaml:"gcs_uri"`
	SQLitePath string `yaml:"sqlite_path"`
	SQLiteKeep int    `yaml:"sqlite_keep"`
}

type QueueConfig struct {
	BufferSize   int           `yaml:"buffer_size"`
	Workers      int           `yaml:"workers"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	JobRetention int           `yaml:"job_retention"`
}

type BigQueryConfig struct {
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
}

type NotionConfig struct {
	Token                string `yaml:"token"`
	TransactionsDatabase string `yaml:"transactions_database"`
	CategoriesDatabase   string `yaml:"categories_database"`
	AccountsDatabase     string `yaml:"accounts_database"`
}

type ClassifierConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

// DefaultConfig returns the settings used when nothing else is configured.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigin:   "*",
		},
		Storage: StorageConfig{
			File:       "data/ledger.json",
			SQLiteKeep: 50,
		},
		Queue: QueueConfig{
			BufferSize:   100,
			Workers:      1,
			MaxRetries:   3,
			RetryBackoff: time.Second,
			JobRetention: 200,
		},
		BigQuery: BigQueryConfig{Dataset: "finance"},
		Classifier: ClassifierConfig{
			Model: "gemini-2.5-flash",
		},
	}
}

var envFiles = []string{".env", "../.env", "../../.env"}

// Load reads configuration. An empty path or a missing file yields defaults
// plus environment overrides.
func Load(path string) (*Config, error) {
	loadDotEnv()

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("Load: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("Load: parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads the first .env found. Existing variables win.
func loadDotEnv() {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err == nil {
			return
		}
	}
}

func (c *Config) applyEnvOverrides() error {
	c.Log.Level = getEnv("LEDGER_LOG_LEVEL", c.Log.Level)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.Port = getEnv("LEDGER_PORT", c.Server.Port)
	c.Server.AllowedOrigin = getEnv("LEDGER_ALLOWED_ORIGIN", c.Server.AllowedOrigin)
	c.Server.APIToken = getEnv("LEDGER_API_TOKEN", c.Server.APIToken)

	c.Storage.File = getEnv("LEDGER_SNAPSHOT_FILE", c.Storage.File)
	c.Storage.SQLitePath = getEnv("LEDGER_SQLITE_PATH", c.Storage.SQLitePath)
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" && c.Storage.GCSURI == "" {
		c.Storage.GCSURI = "gs://" + bucket + "/ledger.json"
	}
	c.Storage.GCSURI = getEnv("LEDGER_GCS_URI", c.Storage.GCSURI)

	c.BigQuery.ProjectID = getEnv("GOOGLE_CLOUD_PROJECT", c.BigQuery.ProjectID)
	c.BigQuery.Dataset = getEnv("BIGQUERY_DATASET", c.BigQuery.Dataset)

	c.Notion.Token = getEnv("NOTION_TOKEN", c.Notion.Token)
	c.Notion.TransactionsDatabase = getEnv("NOTION_DATABASE_ID", c.Notion.TransactionsDatabase)
	c.Notion.CategoriesDatabase = getEnv("NOTION_CATEGORIES_DATABASE_ID", c.Notion.CategoriesDatabase)
	c.Notion.AccountsDatabase = getEnv("NOTION_ACCOUNTS_DATABASE_ID", c.Notion.AccountsDatabase)

	c.Classifier.Model = getEnv("GEMINI_MODEL", c.Classifier.Model)

	ints := []struct {
		key string
		dst *int
	}{
		{"LEDGER_SQLITE_KEEP", &c.Storage.SQLiteKeep},
		{"LEDGER_QUEUE_BUFFER", &c.Queue.BufferSize},
		{"LEDGER_QUEUE_WORKERS", &c.Queue.Workers},
		{"LEDGER_QUEUE_MAX_RETRIES", &c.Queue.MaxRetries},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("applyEnvOverrides: %s: %w", e.key, err)
		}
		*e.dst = n
	}

	if v := os.Getenv("LEDGER_CLASSIFIER"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("applyEnvOverrides: LEDGER_CLASSIFIER: %w", err)
		}
		c.Classifier.Enabled = enabled
	}
	return nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, errors.New("server.port is empty"))
	}
	if c.Storage.File == "" && c.Storage.GCSURI == "" && c.Storage.SQLitePath == "" {
		errs = append(errs, errors.New("no snapshot storage configured"))
	}
	if c.Storage.GCSURI != "" && !strings.HasPrefix(c.Storage.GCSURI, "gs://") {
		errs = append(errs, fmt.Errorf("storage.gcs_uri %q must start with gs://", c.Storage.GCSURI))
	}
	if c.Storage.SQLiteKeep < 1 {
		errs = append(errs, errors.New("storage.sqlite_keep must be at least 1"))
	}
	if c.Queue.BufferSize < 1 || c.Queue.Workers < 1 {
		errs = append(errs, errors.New("queue.buffer_size and queue.workers must be positive"))
	}
	if c.Queue.MaxRetries < 0 {
		errs = append(errs, errors.New("queue.max_retries must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
