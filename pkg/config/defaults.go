package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 60 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// CORS defaults
	DefaultCORSMaxAge = 3600 // 1 hour

	// Security defaults
	DefaultHSTSMaxAgeSeconds = 31536000 // 1 year

	// Admission defaults
	DefaultAdmissionMaxRequests    = 100
	DefaultAdmissionWindowDuration = 15 * time.Minute
	DefaultAdmissionScope          = "key"
	DefaultAdmissionSweepInterval  = 5 * time.Minute

	// Store defaults
	DefaultStoreBackend       = "memory"
	DefaultStoreSQLitePath    = "data/admission.db"
	DefaultStoreFlushInterval = 5 * time.Second

	// Audit defaults
	DefaultAuditBackend       = "sqlite"
	DefaultAuditSQLitePath    = "data/audit.db"
	DefaultAuditAsyncBuffer   = 1000
	DefaultAuditRetentionDays = 30
	DefaultAuditPruneSchedule = "0 3 * * *"

	// Provider defaults
	DefaultProviderModel      = "gpt-4o-mini"
	DefaultProviderMaxTokens  = 1024
	DefaultProviderTimeout    = 60 * time.Second
	DefaultProviderMaxRetries = 2

	// Telemetry defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

func boolPtr(b bool) *bool { return &b }

// ApplyDefaults fills in default values for unset configuration fields.
// It is idempotent: fields already set (including explicit false booleans)
// are left alone.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.MaxHeaderBytes <= 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// CORS
	if cfg.Server.CORS.Enabled == nil {
		cfg.Server.CORS.Enabled = boolPtr(true)
	}
	if len(cfg.Server.CORS.AllowedOrigins) == 0 {
		cfg.Server.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.Server.CORS.AllowedMethods) == 0 {
		cfg.Server.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.Server.CORS.AllowedHeaders) == 0 {
		cfg.Server.CORS.AllowedHeaders = []string{"Authorization", "Content-Type", "X-Request-ID"}
	}
	if cfg.Server.CORS.MaxAge <= 0 {
		cfg.Server.CORS.MaxAge = DefaultCORSMaxAge
	}

	// Security
	if cfg.Server.Security.HSTSMaxAgeSeconds <= 0 {
		cfg.Server.Security.HSTSMaxAgeSeconds = DefaultHSTSMaxAgeSeconds
	}

	// Admission
	if cfg.Admission.Enabled == nil {
		cfg.Admission.Enabled = boolPtr(true)
	}
	if cfg.Admission.MaxRequests <= 0 {
		cfg.Admission.MaxRequests = DefaultAdmissionMaxRequests
	}
	if cfg.Admission.WindowDuration <= 0 {
		cfg.Admission.WindowDuration = DefaultAdmissionWindowDuration
	}
	if cfg.Admission.Scope == "" {
		cfg.Admission.Scope = DefaultAdmissionScope
	}
	if cfg.Admission.SweepInterval <= 0 {
		cfg.Admission.SweepInterval = DefaultAdmissionSweepInterval
	}

	// Store
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = DefaultStoreSQLitePath
	}
	if cfg.Store.FlushInterval <= 0 {
		cfg.Store.FlushInterval = DefaultStoreFlushInterval
	}

	// Audit
	if cfg.Audit.Enabled == nil {
		cfg.Audit.Enabled = boolPtr(true)
	}
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.SQLitePath == "" {
		cfg.Audit.SQLitePath = DefaultAuditSQLitePath
	}
	if cfg.Audit.AsyncBuffer <= 0 {
		cfg.Audit.AsyncBuffer = DefaultAuditAsyncBuffer
	}
	// -1 disables pruning; 0 means unset.
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = DefaultAuditRetentionDays
	}
	if cfg.Audit.PruneSchedule == "" {
		cfg.Audit.PruneSchedule = DefaultAuditPruneSchedule
	}

	// Provider
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultProviderModel
	}
	if cfg.Provider.MaxTokens <= 0 {
		cfg.Provider.MaxTokens = DefaultProviderMaxTokens
	}
	if cfg.Provider.Timeout <= 0 {
		cfg.Provider.Timeout = DefaultProviderTimeout
	}
	if cfg.Provider.MaxRetries == 0 {
		cfg.Provider.MaxRetries = DefaultProviderMaxRetries
	}

	// Telemetry
	if cfg.Telemetry.LogLevel == "" {
		cfg.Telemetry.LogLevel = DefaultLogLevel
	}
	if cfg.Telemetry.LogFormat == "" {
		cfg.Telemetry.LogFormat = DefaultLogFormat
	}
	if cfg.Telemetry.MetricsEnabled == nil {
		cfg.Telemetry.MetricsEnabled = boolPtr(true)
	}
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
