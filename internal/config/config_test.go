package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "ticket-classifier", cfg.Service.Name)
	assert.Equal(t, 8080, cfg.Service.Port)
	assert.Equal(t, 10, cfg.Service.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Service.ShutdownTimeout)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "ticket_classifier", cfg.Database.Database)
	assert.Equal(t, "ticket_classifier.db", cfg.Database.Path)
	assert.Equal(t, 25, cfg.Database.MaxConnections)

	assert.Equal(t, "rule_based", cfg.Classification.DefaultEngine)
	assert.False(t, cfg.Classification.ML.Enabled)
	assert.Equal(t, "http://localhost:8090", cfg.Classification.ML.ServiceURL)
	assert.Equal(t, 10*time.Second, cfg.Classification.ML.Timeout)

	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Insights.Model)
	assert.Equal(t, 1024, cfg.Insights.MaxTokens)
	assert.Equal(t, 10, cfg.Insights.RatePerMinute)

	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_YAMLValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
service:
  name: cs-analytics
  port: 9000
  concurrency: 4
database:
  driver: sqlite3
  path: /tmp/test.db
classification:
  default_engine: ml
  ml:
    enabled: true
    service_url: http://ml:8090
insights:
  enabled: true
  model: claude-sonnet-4-20250514
logging:
  level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "cs-analytics", cfg.Service.Name)
	assert.Equal(t, 9000, cfg.Service.Port)
	assert.Equal(t, 4, cfg.Service.Concurrency)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, "ml", cfg.Classification.DefaultEngine)
	assert.True(t, cfg.Classification.ML.Enabled)
	assert.Equal(t, "http://ml:8090", cfg.Classification.ML.ServiceURL)
	assert.True(t, cfg.Insights.Enabled)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Insights.Model)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverridesWin(t *testing.T) {
	t.Setenv("CLASSIFIER_PORT", "9999")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("CLASSIFIER_ENGINE", "ml")
	t.Setenv("APP_DEBUG", "yes")

	cfg, err := Load(writeConfig(t, `
service:
  port: 9000
database:
  driver: postgres
`))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Service.Port)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "ml", cfg.Classification.DefaultEngine)
	assert.True(t, cfg.Service.Debug)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "service: ["))
	assert.Error(t, err)
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("true"))
	assert.True(t, parseBool("TRUE"))
	assert.True(t, parseBool("1"))
	assert.True(t, parseBool("yes"))
	assert.False(t, parseBool("0"))
	assert.False(t, parseBool("false"))
	assert.False(t, parseBool(""))
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.yml", GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/classifier/config.yml")
	assert.Equal(t, "/etc/classifier/config.yml", GetConfigPath("config.yml"))
}
