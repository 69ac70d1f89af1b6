package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. All field errors are collected and reported together.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the configuration and returns a ValidationError if any
// rules fail. Defaults should be applied before validation.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateAdmission(&cfg.Admission)...)
	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateProvider(&cfg.Provider)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid address %q: must be host:port", cfg.ListenAddress),
		})
	}
	return errs
}

func validateAdmission(cfg *AdmissionConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxRequests <= 0 {
		errs = append(errs, FieldError{
			Field:   "admission.max_requests",
			Message: "must be positive",
		})
	}
	if cfg.WindowDuration <= 0 {
		errs = append(errs, FieldError{
			Field:   "admission.window_duration",
			Message: "must be positive",
		})
	}
	if cfg.Scope != "key" && cfg.Scope != "global" {
		errs = append(errs, FieldError{
			Field:   "admission.scope",
			Message: fmt.Sprintf("unknown scope %q: must be \"key\" or \"global\"", cfg.Scope),
		})
	}
	return errs
}

func validateStore(cfg *StoreConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "store.backend",
			Message: fmt.Sprintf("unknown backend %q: must be \"memory\" or \"sqlite\"", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "store.sqlite_path",
			Message: "required when backend is sqlite",
		})
	}
	return errs
}

func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("unknown backend %q: must be \"memory\" or \"sqlite\"", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite_path",
			Message: "required when backend is sqlite",
		})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "audit.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression %q", cfg.PruneSchedule),
			})
		}
	}
	return errs
}

func validateProvider(cfg *ProviderConfig) []FieldError {
	var errs []FieldError

	// BaseURL is optional: without it the relay starts but the chat
	// endpoint reports the upstream as unavailable.
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "provider.base_url",
				Message: fmt.Sprintf("invalid URL %q: must be http or https", cfg.BaseURL),
			})
		}
	}
	if cfg.MaxTokens <= 0 {
		errs = append(errs, FieldError{
			Field:   "provider.max_tokens",
			Message: "must be positive",
		})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.log_level",
			Message: fmt.Sprintf("unknown level %q: must be debug, info, warn, or error", cfg.LogLevel),
		})
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.log_format",
			Message: fmt.Sprintf("unknown format %q: must be json or text", cfg.LogFormat),
		})
	}
	return errs
}
