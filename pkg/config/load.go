package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path. It
// applies default values and validates the result. Environment variables are
// not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// RELAY_SECTION_FIELD (e.g., RELAY_SERVER_LISTEN_ADDRESS) and always take
// precedence over file values.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("RELAY_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("RELAY_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("RELAY_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("RELAY_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("RELAY_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envDuration("RELAY_SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	envInt("RELAY_SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)

	// Admission overrides
	envBoolPtr("RELAY_ADMISSION_ENABLED", &cfg.Admission.Enabled)
	envInt("RELAY_ADMISSION_MAX_REQUESTS", &cfg.Admission.MaxRequests)
	envDuration("RELAY_ADMISSION_WINDOW_DURATION", &cfg.Admission.WindowDuration)
	envString("RELAY_ADMISSION_SCOPE", &cfg.Admission.Scope)
	envDuration("RELAY_ADMISSION_SWEEP_INTERVAL", &cfg.Admission.SweepInterval)

	// Store overrides
	envString("RELAY_STORE_BACKEND", &cfg.Store.Backend)
	envString("RELAY_STORE_SQLITE_PATH", &cfg.Store.SQLitePath)
	envDuration("RELAY_STORE_FLUSH_INTERVAL", &cfg.Store.FlushInterval)

	// Audit overrides
	envBoolPtr("RELAY_AUDIT_ENABLED", &cfg.Audit.Enabled)
	envString("RELAY_AUDIT_BACKEND", &cfg.Audit.Backend)
	envString("RELAY_AUDIT_SQLITE_PATH", &cfg.Audit.SQLitePath)
	envInt("RELAY_AUDIT_RETENTION_DAYS", &cfg.Audit.RetentionDays)
	envString("RELAY_AUDIT_PRUNE_SCHEDULE", &cfg.Audit.PruneSchedule)

	// Provider overrides
	envString("RELAY_PROVIDER_BASE_URL", &cfg.Provider.BaseURL)
	envString("RELAY_PROVIDER_API_KEY", &cfg.Provider.APIKey)
	envString("RELAY_PROVIDER_MODEL", &cfg.Provider.Model)
	envInt("RELAY_PROVIDER_MAX_TOKENS", &cfg.Provider.MaxTokens)
	envDuration("RELAY_PROVIDER_TIMEOUT", &cfg.Provider.Timeout)
	envInt("RELAY_PROVIDER_MAX_RETRIES", &cfg.Provider.MaxRetries)

	// Telemetry overrides
	envString("RELAY_TELEMETRY_LOG_LEVEL", &cfg.Telemetry.LogLevel)
	envString("RELAY_TELEMETRY_LOG_FORMAT", &cfg.Telemetry.LogFormat)
	envBoolPtr("RELAY_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.MetricsEnabled)
}

func envString(name string, dst *string) {
	if val := os.Getenv(name); val != "" {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envBoolPtr(name string, dst **bool) {
	if val := os.Getenv(name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = &b
		}
	}
}
