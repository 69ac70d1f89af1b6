package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, "server:\n  listen_address: \"0.0.0.0:9090\"\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("listen address = %q, want %q", cfg.Server.ListenAddress, "0.0.0.0:9090")
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("read timeout = %v, want default %v", cfg.Server.ReadTimeout, DefaultReadTimeout)
	}
	if cfg.Admission.MaxRequests != DefaultAdmissionMaxRequests {
		t.Errorf("max requests = %d, want default %d", cfg.Admission.MaxRequests, DefaultAdmissionMaxRequests)
	}
	if cfg.Admission.WindowDuration != DefaultAdmissionWindowDuration {
		t.Errorf("window duration = %v, want default %v", cfg.Admission.WindowDuration, DefaultAdmissionWindowDuration)
	}
	if cfg.Admission.Scope != "key" {
		t.Errorf("scope = %q, want %q", cfg.Admission.Scope, "key")
	}
}

func TestLoadConfig_ParsesFullFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "127.0.0.1:8088"
  request_timeout: 90s
admission:
  max_requests: 42
  window_duration: 5m
  scope: global
store:
  backend: sqlite
  sqlite_path: /tmp/admission.db
audit:
  backend: memory
  retention_days: 7
provider:
  base_url: "https://api.example.com/v1/chat/completions"
  model: test-model
telemetry:
  log_level: debug
  log_format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Admission.MaxRequests != 42 {
		t.Errorf("max requests = %d, want 42", cfg.Admission.MaxRequests)
	}
	if cfg.Admission.WindowDuration != 5*time.Minute {
		t.Errorf("window duration = %v, want 5m", cfg.Admission.WindowDuration)
	}
	if cfg.Admission.Scope != "global" {
		t.Errorf("scope = %q, want global", cfg.Admission.Scope)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("store backend = %q, want sqlite", cfg.Store.Backend)
	}
	if cfg.Audit.RetentionDays != 7 {
		t.Errorf("retention days = %d, want 7", cfg.Audit.RetentionDays)
	}
	if cfg.Provider.Model != "test-model" {
		t.Errorf("model = %q, want test-model", cfg.Provider.Model)
	}
	if cfg.Telemetry.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Telemetry.LogLevel)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, "admission:\n  max_requests: 10\n")

	t.Setenv("RELAY_ADMISSION_MAX_REQUESTS", "250")
	t.Setenv("RELAY_ADMISSION_WINDOW_DURATION", "30m")
	t.Setenv("RELAY_ADMISSION_ENABLED", "false")
	t.Setenv("RELAY_PROVIDER_API_KEY", "sk-from-env")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides: %v", err)
	}

	if cfg.Admission.MaxRequests != 250 {
		t.Errorf("max requests = %d, want env override 250", cfg.Admission.MaxRequests)
	}
	if cfg.Admission.WindowDuration != 30*time.Minute {
		t.Errorf("window duration = %v, want 30m", cfg.Admission.WindowDuration)
	}
	if cfg.Admission.Enabled == nil || *cfg.Admission.Enabled {
		t.Error("admission enabled should be false via env override")
	}
	if cfg.Provider.APIKey != "sk-from-env" {
		t.Errorf("api key = %q, want sk-from-env", cfg.Provider.APIKey)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverrideFailsValidation(t *testing.T) {
	path := writeConfigFile(t, "")

	t.Setenv("RELAY_ADMISSION_SCOPE", "per-galaxy")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Error("expected validation error for invalid scope override")
	}
}
