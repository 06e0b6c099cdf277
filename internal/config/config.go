// Package config loads service configuration from a YAML file with
// environment variable overrides. A .env file, when present, is loaded
// before overrides are applied.
package config

import (
	"time"

	"github.com/csinsight/ticket-classifier/internal/logger"
)

// Default configuration values.
const (
	defaultServiceName     = "ticket-classifier"
	defaultServiceVersion  = "1.0.0"
	defaultServicePort     = 8080
	defaultConcurrency     = 10
	defaultDBDriver        = "postgres"
	defaultDBHost          = "localhost"
	defaultDBPort          = 5432
	defaultDBUser          = "postgres"
	defaultDBName          = "ticket_classifier"
	defaultDBSSLMode       = "disable"
	defaultDBMaxConns      = 25
	defaultDBMaxIdleConns  = 5
	defaultSQLitePath      = "ticket_classifier.db"
	defaultEngine          = "rule_based"
	defaultMLServiceURL    = "http://localhost:8090"
	defaultMLTimeoutSec    = 10
	defaultInsightsModel   = "claude-3-5-haiku-latest"
	defaultInsightsTokens  = 1024
	defaultInsightsPerMin  = 10
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds all configuration for the ticket classifier service.
type Config struct {
	Service        ServiceConfig        `yaml:"service"`
	Database       DatabaseConfig       `yaml:"database"`
	Logging        logger.Config        `yaml:"logging"`
	Classification ClassificationConfig `yaml:"classification"`
	Insights       InsightsConfig       `yaml:"insights"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Port            int           `env:"CLASSIFIER_PORT"        yaml:"port"`
	Debug           bool          `env:"APP_DEBUG"              yaml:"debug"`
	Concurrency     int           `env:"CLASSIFIER_CONCURRENCY" yaml:"concurrency"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration. Driver selects between
// postgres and sqlite3; Path is sqlite-only.
type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER"         yaml:"driver"`
	Host            string        `env:"POSTGRES_HOST"     yaml:"host"`
	Port            int           `env:"POSTGRES_PORT"     yaml:"port"`
	User            string        `env:"POSTGRES_USER"     yaml:"user"`
	Password        string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database        string        `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode         string        `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	Path            string        `env:"SQLITE_PATH"       yaml:"path"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// ClassificationConfig holds engine selection and ML sidecar settings.
type ClassificationConfig struct {
	DefaultEngine string   `env:"CLASSIFIER_ENGINE" yaml:"default_engine"`
	ML            MLConfig `yaml:"ml"`
}

// MLConfig holds ML sidecar settings. The sidecar is optional; when
// disabled, requests for the ml engine are rejected up front.
type MLConfig struct {
	Enabled    bool          `env:"ML_ENABLED"     yaml:"enabled"`
	ServiceURL string        `env:"ML_SERVICE_URL" yaml:"service_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// InsightsConfig holds the narrative report generator settings. Without an
// API key the generator falls back to deterministic templates.
type InsightsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	APIKey        string `env:"ANTHROPIC_API_KEY" yaml:"api_key"`
	Model         string `yaml:"model"`
	MaxTokens     int    `yaml:"max_tokens"`
	RatePerMinute int    `yaml:"rate_per_minute"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return loadWithDefaults(path, setDefaults)
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	cfg.Logging.SetDefaults()
	setClassificationDefaults(&cfg.Classification)
	setInsightsDefaults(&cfg.Insights)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.Concurrency == 0 {
		s.Concurrency = defaultConcurrency
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = defaultShutdownTimeout
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Driver == "" {
		d.Driver = defaultDBDriver
	}
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.Path == "" {
		d.Path = defaultSQLitePath
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = time.Hour
	}
}

func setClassificationDefaults(c *ClassificationConfig) {
	if c.DefaultEngine == "" {
		c.DefaultEngine = defaultEngine
	}
	if c.ML.ServiceURL == "" {
		c.ML.ServiceURL = defaultMLServiceURL
	}
	if c.ML.Timeout == 0 {
		c.ML.Timeout = defaultMLTimeoutSec * time.Second
	}
}

func setInsightsDefaults(i *InsightsConfig) {
	if i.Model == "" {
		i.Model = defaultInsightsModel
	}
	if i.MaxTokens == 0 {
		i.MaxTokens = defaultInsightsTokens
	}
	if i.RatePerMinute == 0 {
		i.RatePerMinute = defaultInsightsPerMin
	}
}
