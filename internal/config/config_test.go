package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Source:    SourceConfig{Path: "exports.xlsx", Sheet: "Sheet1", FirstRow: 4, LastRow: 197, CacheSize: 4},
		Dashboard: DashboardConfig{TopN: 12, TopNMin: 5, TopNMax: 25, RawRowLimit: 500, MaxConcurrentRenders: 4},
		Rate:      RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ExportLimit: 20},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Source.Sheet != "Sheet1" {
		t.Errorf("Source.Sheet = %q, want Sheet1", cfg.Source.Sheet)
	}
	if cfg.Source.FirstRow != 4 || cfg.Source.LastRow != 197 {
		t.Errorf("Source rows = %d-%d, want 4-197", cfg.Source.FirstRow, cfg.Source.LastRow)
	}
	if cfg.Source.NormalizeKeys {
		t.Error("Source.NormalizeKeys should default to false")
	}
	if cfg.Dashboard.TopN != 12 || cfg.Dashboard.TopNMin != 5 || cfg.Dashboard.TopNMax != 25 {
		t.Errorf("Dashboard = %+v", cfg.Dashboard)
	}
	if cfg.Dashboard.MaxConcurrentRenders != 4 || cfg.Dashboard.RenderWait != 10*time.Second {
		t.Errorf("Dashboard renders = %d / %v, want 4 / 10s", cfg.Dashboard.MaxConcurrentRenders, cfg.Dashboard.RenderWait)
	}
	if cfg.Rate.RequestsPerMinute != 100 {
		t.Errorf("Rate.RequestsPerMinute = %d, want %d", cfg.Rate.RequestsPerMinute, 100)
	}
	if len(cfg.Security.AllowedOrigins) != 1 || cfg.Security.AllowedOrigins[0] != "*" {
		t.Errorf("Security.AllowedOrigins = %v", cfg.Security.AllowedOrigins)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SOURCE_PATH", "/data/exports.xlsx")
	t.Setenv("SOURCE_LAST_ROW", "0")
	t.Setenv("SOURCE_NORMALIZE_KEYS", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Source.Path != "/data/exports.xlsx" {
		t.Errorf("Source.Path = %q", cfg.Source.Path)
	}
	if cfg.Source.LastRow != 0 {
		t.Errorf("Source.LastRow = %d, want 0", cfg.Source.LastRow)
	}
	if !cfg.Source.NormalizeKeys {
		t.Error("Source.NormalizeKeys = false, want true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	t.Setenv("EXPORTS_XLSX", "alt.xlsx")
	t.Setenv("PORT", "3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Source.Path != "alt.xlsx" {
		t.Errorf("Source.Path = %q, want %q", cfg.Source.Path, "alt.xlsx")
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("SOURCE_FIRST_ROW", "four")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for non-integer SOURCE_FIRST_ROW")
	}
	if !strings.Contains(err.Error(), "SOURCE_FIRST_ROW") {
		t.Errorf("error should mention SOURCE_FIRST_ROW: %v", err)
	}
}

func TestLoad_Duration(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "45s")
	t.Setenv("SERVER_REQUEST_TIMEOUT", "1m30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Server.RequestTimeout != 90*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want %v", cfg.Server.RequestTimeout, 90*time.Second)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"empty source", func(c *Config) { c.Source.Path = " " }, "SOURCE_PATH"},
		{"first row zero", func(c *Config) { c.Source.FirstRow = 0 }, "SOURCE_FIRST_ROW"},
		{"last before first", func(c *Config) { c.Source.LastRow = 2 }, "SOURCE_LAST_ROW"},
		{"no cache", func(c *Config) { c.Source.CacheSize = 0 }, "SOURCE_CACHE_SIZE"},
		{"top n bounds", func(c *Config) { c.Dashboard.TopNMax = 3 }, "DASHBOARD_TOP_N_MAX"},
		{"top n outside bounds", func(c *Config) { c.Dashboard.TopN = 30 }, "DASHBOARD_TOP_N"},
		{"no render slots", func(c *Config) { c.Dashboard.MaxConcurrentRenders = 0 }, "DASHBOARD_MAX_CONCURRENT_RENDERS"},
		{"api key missing", func(c *Config) { c.Security.RequireAPIKey = true }, "API_KEYS"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error should mention %s: %v", tt.want, err)
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestValidate_ListsEveryFailure(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"SERVER_PORT", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"localhost", 443, "localhost:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		got := cfg.Addr()
		if got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestDashboardClampTopN(t *testing.T) {
	d := &DashboardConfig{TopN: 12, TopNMin: 5, TopNMax: 25}
	tests := []struct{ in, want int }{
		{0, 12}, {-3, 12}, {1, 5}, {5, 5}, {17, 17}, {25, 25}, {100, 25},
	}
	for _, tt := range tests {
		if got := d.ClampTopN(tt.in); got != tt.want {
			t.Errorf("ClampTopN(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestConfigString_MasksAPIKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Security.APIKeys = []string{"super-secret-key"}

	str := cfg.String()
	if strings.Contains(str, "super-secret-key") {
		t.Error("String() should mask API keys")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
	if !strings.Contains(str, "exports.xlsx") {
		t.Error("String() should include the source path")
	}
}
