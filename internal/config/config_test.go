package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LEDGER_LOG_LEVEL", "PORT", "LEDGER_PORT", "LEDGER_ALLOWED_ORIGIN", "LEDGER_API_TOKEN",
		"LEDGER_SNAPSHOT_FILE", "LEDGER_SQLITE_PATH", "GCS_BUCKET", "LEDGER_GCS_URI",
		"GOOGLE_CLOUD_PROJECT", "BIGQUERY_DATASET", "NOTION_TOKEN", "NOTION_DATABASE_ID",
		"NOTION_CATEGORIES_DATABASE_ID", "NOTION_ACCOUNTS_DATABASE_ID",
		"GEMINI_MODEL", "LEDGER_SQLITE_KEEP", "LEDGER_QUEUE_BUFFER", "LEDGER_QUEUE_WORKERS",
		"LEDGER_QUEUE_MAX_RETRIES", "LEDGER_CLASSIFIER",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	yamlData := `
log:
  level: debug
server:
  port: "9090"
  read_timeout: 5s
storage:
  file: /tmp/ledger.json
  sqlite_path: /tmp/ledger.db
  sqlite_keep: 10
queue:
  workers: 3
  retry_backoff: 250ms
bigquery:
  project_id: my-project
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "/tmp/ledger.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 10, cfg.Storage.SQLiteKeep)
	assert.Equal(t, 3, cfg.Queue.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Queue.RetryBackoff)
	assert.Equal(t, "my-project", cfg.BigQuery.ProjectID)
	assert.Equal(t, "finance", cfg.BigQuery.Dataset)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o644))

	t.Setenv("LEDGER_PORT", "7070")
	t.Setenv("GCS_BUCKET", "my-bucket")
	t.Setenv("NOTION_TOKEN", "secret")
	t.Setenv("LEDGER_QUEUE_WORKERS", "4")
	t.Setenv("LEDGER_CLASSIFIER", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "gs://my-bucket/ledger.json", cfg.Storage.GCSURI)
	assert.Equal(t, "secret", cfg.Notion.Token)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.True(t, cfg.Classifier.Enabled)
}

func TestLoad_ExplicitGCSURIWinsOverBucket(t *testing.T) {
	clearEnv(t)
	t.Setenv("GCS_BUCKET", "my-bucket")
	t.Setenv("LEDGER_GCS_URI", "gs://other/path/state.json")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gs://other/path/state.json", cfg.Storage.GCSURI)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		yaml string
	}{
		{name: "bad int", env: map[string]string{"LEDGER_QUEUE_BUFFER": "lots"}},
		{name: "bad bool", env: map[string]string{"LEDGER_CLASSIFIER": "maybe"}},
		{name: "bad yaml", yaml: "server: [unclosed"},
		{name: "bad gcs uri", env: map[string]string{"LEDGER_GCS_URI": "s3://bucket/x"}},
		{name: "no storage", yaml: "storage:\n  file: \"\"\n"},
		{name: "zero workers", yaml: "queue:\n  workers: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = filepath.Join(t.TempDir(), "ledger.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			}

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
