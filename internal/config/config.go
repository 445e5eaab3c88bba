// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Source    SourceConfig
	Dashboard DashboardConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// SourceConfig describes the export statistics workbook.
type SourceConfig struct {
	// Path is the workbook file
	Path string `env:"SOURCE_PATH" envAlt:"EXPORTS_XLSX" default:"ES/Countries_Translated_Full_Reviewed.xlsx"`

	// Sheet is the worksheet holding the data (default: Sheet1)
	Sheet string `env:"SOURCE_SHEET" default:"Sheet1"`

	// FirstRow is the 1-based first data row (default: 4)
	FirstRow int `env:"SOURCE_FIRST_ROW" default:"4"`

	// LastRow is the 1-based last data row, inclusive; 0 reads to the end (default: 197)
	LastRow int `env:"SOURCE_LAST_ROW" default:"197"`

	// NormalizeKeys folds case and whitespace of country and region names (default: false)
	NormalizeKeys bool `env:"SOURCE_NORMALIZE_KEYS" default:"false"`

	// CacheSize is the number of parsed workbook versions kept in memory (default: 4)
	CacheSize int `env:"SOURCE_CACHE_SIZE" default:"4"`
}

// DashboardConfig holds defaults for the dashboard controls.
type DashboardConfig struct {
	// TopN is the default number of markets in top-N charts (default: 12)
	TopN int `env:"DASHBOARD_TOP_N" default:"12"`

	// TopNMin is the smallest accepted top-N (default: 5)
	TopNMin int `env:"DASHBOARD_TOP_N_MIN" default:"5"`

	// TopNMax is the largest accepted top-N (default: 25)
	TopNMax int `env:"DASHBOARD_TOP_N_MAX" default:"25"`

	// RawRowLimit caps the rows of the raw records table on the page (default: 500)
	RawRowLimit int `env:"DASHBOARD_RAW_ROW_LIMIT" default:"500"`

	// MaxConcurrentRenders bounds parallel page and chart renders (default: 4)
	MaxConcurrentRenders int `env:"DASHBOARD_MAX_CONCURRENT_RENDERS" default:"4"`

	// RenderWait is how long a render waits for a free slot (default: 10s)
	RenderWait time.Duration `env:"DASHBOARD_RENDER_WAIT" default:"10s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ExportLimit is requests per minute for CSV export endpoints (default: 20)
	ExportLimit int `env:"RATE_LIMIT_EXPORT" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey guards the admin endpoints with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// AllowedOrigins is a comma-separated list of CORS origins for /api (default: *)
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// ClampTopN limits n to the configured bounds. n <= 0 gives the default.
func (c *DashboardConfig) ClampTopN(n int) int {
	switch {
	case n <= 0:
		return c.TopN
	case n < c.TopNMin:
		return c.TopNMin
	case n > c.TopNMax:
		return c.TopNMax
	default:
		return n
	}
}
