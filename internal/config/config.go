package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Supported database drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	DB        DBConfig
	Server    ServerConfig
	Webhook   WebhookConfig
	Dashboard DashboardConfig
	Metrics   MetricsConfig
	Log       LogConfig
}

// DBConfig holds database configuration
type DBConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"sqlite"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASSWORD"`
	Database string `envconfig:"DB_NAME" default:"summary_dashboard"`
	Path     string `envconfig:"DB_PATH" default:"data/dashboard.db"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"10"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int      `envconfig:"SERVER_PORT" default:"8080"`
	CORSOrigins []string `envconfig:"SERVER_CORS_ORIGINS" default:"*"`
}

// WebhookConfig holds outbound webhook configuration.
// The URL fields are optional overrides; when set they win over the
// settings table and the bucket becomes read-only.
type WebhookConfig struct {
	Source          string  `envconfig:"WEBHOOK_SOURCE" default:"youtube-summary-dashboard"`
	RateLimit       float64 `envconfig:"WEBHOOK_RATE_LIMIT" default:"5"`
	DefaultURL      string  `envconfig:"WEBHOOK_URL"`
	VideoSummaryURL string  `envconfig:"WEBHOOK_URL_VIDEO_SUMMARY"`
	ChannelMetaURL  string  `envconfig:"WEBHOOK_URL_CHANNEL_META"`
}

// DashboardConfig holds presentation settings
type DashboardConfig struct {
	Title           string        `envconfig:"DASHBOARD_TITLE" default:"YouTube Summary Dashboard"`
	RefreshInterval time.Duration `envconfig:"DASHBOARD_REFRESH_INTERVAL" default:"30s"`
}

// MetricsConfig holds metrics refresh configuration
type MetricsConfig struct {
	Enabled         bool          `envconfig:"METRICS_ENABLED" default:"true"`
	RefreshInterval time.Duration `envconfig:"METRICS_REFRESH_INTERVAL" default:"1m"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// EffectivePort returns DB_PORT, or the driver's standard port when unset
func (c *DBConfig) EffectivePort() int {
	if c.Port > 0 {
		return c.Port
	}
	if c.Driver == DriverPostgres {
		return 5432
	}
	return 3306
}

// DSN returns the data source name for the configured driver
func (c *DBConfig) DSN() string {
	switch c.Driver {
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.EffectivePort(), c.User, c.Password, c.Database, c.SSLMode)
	case DriverSQLite:
		return c.Path
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.EffectivePort(), c.Database)
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to load db config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Webhook); err != nil {
		return nil, fmt.Errorf("failed to load webhook config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Dashboard); err != nil {
		return nil, fmt.Errorf("failed to load dashboard config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Metrics); err != nil {
		return nil, fmt.Errorf("failed to load metrics config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverMySQL, DriverPostgres:
		if c.DB.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required for driver %s", c.DB.Driver)
		}
	case DriverSQLite:
		if c.DB.Path == "" {
			return fmt.Errorf("DB_PATH is required for driver sqlite")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be one of mysql, postgres, sqlite")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if c.Webhook.RateLimit <= 0 {
		return fmt.Errorf("WEBHOOK_RATE_LIMIT must be positive")
	}
	for name, raw := range map[string]string{
		"WEBHOOK_URL":               c.Webhook.DefaultURL,
		"WEBHOOK_URL_VIDEO_SUMMARY": c.Webhook.VideoSummaryURL,
		"WEBHOOK_URL_CHANNEL_META":  c.Webhook.ChannelMetaURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%s must be an absolute http(s) URL", name)
		}
	}
	if c.Dashboard.RefreshInterval < time.Second {
		return fmt.Errorf("DASHBOARD_REFRESH_INTERVAL must be at least 1s")
	}
	if c.Metrics.Enabled && c.Metrics.RefreshInterval <= 0 {
		return fmt.Errorf("METRICS_REFRESH_INTERVAL must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}
