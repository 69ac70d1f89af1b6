package config

import "time"

// Config is the root configuration structure for the relay. It contains all
// configuration sections for the HTTP server, admission control, window
// persistence, audit logging, the upstream provider, and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and CORS settings.
	Server ServerConfig `yaml:"server"`

	// Admission contains the rate limiting configuration: window size,
	// request quota, and scoping mode.
	Admission AdmissionConfig `yaml:"admission"`

	// Store contains window state persistence configuration.
	Store StoreConfig `yaml:"store"`

	// Audit contains decision logging and retention configuration.
	Audit AuditConfig `yaml:"audit"`

	// Provider contains upstream completion provider configuration.
	Provider ProviderConfig `yaml:"provider"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port". Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes. Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout. Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown. Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout is the per-request processing deadline, including the
	// upstream call. Default: 60s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxHeaderBytes limits request header size. Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`

	// Security contains response security header configuration.
	Security SecurityConfig `yaml:"security"`
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins. Use ["*"] to allow all.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed request headers.
	// Default: ["Authorization", "Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// MaxAge is the preflight cache lifetime in seconds. Default: 3600
	MaxAge int `yaml:"max_age"`
}

// SecurityConfig contains security header configuration.
type SecurityConfig struct {
	// EnableHSTS adds Strict-Transport-Security to responses. Only enable
	// when the relay terminates TLS or sits behind a TLS-terminating proxy.
	// Default: false
	EnableHSTS bool `yaml:"enable_hsts"`

	// HSTSMaxAgeSeconds is the HSTS max-age. Default: 31536000 (1 year)
	HSTSMaxAgeSeconds int `yaml:"hsts_max_age_seconds"`
}

// AdmissionConfig contains rate limiting configuration.
type AdmissionConfig struct {
	// Enabled controls whether admission control gates requests. When
	// false the gate admits everything.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// MaxRequests is the maximum admitted requests per window.
	// Default: 100
	MaxRequests int `yaml:"max_requests"`

	// WindowDuration is the rolling window length. Default: 15m
	WindowDuration time.Duration `yaml:"window_duration"`

	// Scope selects "key" (per-client windows) or "global" (one shared
	// window). Default: "key"
	Scope string `yaml:"scope"`

	// SweepInterval is how often idle per-key windows are evicted.
	// Zero disables eviction. Default: 5m
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// StoreConfig contains window state persistence configuration.
type StoreConfig struct {
	// Backend selects the persistence backend: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/admission.db"
	SQLitePath string `yaml:"sqlite_path"`

	// FlushInterval is how often dirty windows are flushed to the backend.
	// Default: 5s
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// AuditConfig contains decision logging configuration.
type AuditConfig struct {
	// Enabled controls whether decisions are recorded. Default: true
	Enabled *bool `yaml:"enabled"`

	// Backend selects the audit backend: "memory" or "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/audit.db"
	SQLitePath string `yaml:"sqlite_path"`

	// AsyncBuffer is the recorder's channel buffer size. Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// RetentionDays is how long to keep decision records. Use -1 to keep
	// them forever. Default: 30
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for retention pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// ProviderConfig contains upstream completion provider configuration.
type ProviderConfig struct {
	// BaseURL is the upstream chat completion endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates the relay to the upstream. Can also be set via
	// RELAY_PROVIDER_API_KEY, which is preferred over writing secrets to
	// the config file.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier sent upstream.
	// Default: "gpt-4o-mini"
	Model string `yaml:"model"`

	// MaxTokens caps upstream completion length. Default: 1024
	MaxTokens int `yaml:"max_tokens"`

	// Timeout is the upstream request timeout. Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries for transient upstream failures.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "json" or "text". Default: "json"
	LogFormat string `yaml:"log_format"`

	// MetricsEnabled exposes Prometheus metrics on /metrics.
	// Default: true
	MetricsEnabled *bool `yaml:"metrics_enabled"`
}
