// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig              `mapstructure:"app"`
	Backends BackendsConfig         `mapstructure:"backends"`
	Stages   map[string]StageConfig `mapstructure:"stages"`
	Database DatabaseConfig         `mapstructure:"database"`
	Report   ReportConfig           `mapstructure:"report"`
	Metrics  MetricsConfig          `mapstructure:"metrics"`
	Logging  LoggingConfig          `mapstructure:"logging"`
}

// --- Core App Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// BackendsConfig holds the endpoints of the external analysis services
// the stage adapters call.
type BackendsConfig struct {
	AgentsBaseURL string `mapstructure:"agents_base_url"`
	APIKey        string `mapstructure:"api_key"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// StageConfig holds the core settings applicable to every stage adapter.
type StageConfig struct {
	BaseURL    string `mapstructure:"base_url"` // overrides backends.agents_base_url
	Timeout    int    `mapstructure:"timeout"`  // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds, stage-output cache expiry
}

// ReportConfig controls stage 7. When RendererURL is empty the report
// adapter synthesizes a local placeholder report instead of calling out.
type ReportConfig struct {
	RendererURL string `mapstructure:"renderer_url"`
	Author      string `mapstructure:"author"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetStageConfig retrieves stage-specific configuration with fallback to
// defaults derived from the shared backend settings.
func GetStageConfig(cfg *Config, stageName string) StageConfig {
	sc := cfg.Stages[stageName]
	if sc.BaseURL == "" {
		sc.BaseURL = cfg.Backends.AgentsBaseURL
	}
	if sc.Timeout == 0 {
		sc.Timeout = cfg.Backends.Timeout
	}
	if sc.MaxRetries == 0 {
		sc.MaxRetries = 1
	}
	return sc
}
