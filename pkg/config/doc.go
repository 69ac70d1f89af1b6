// Package config defines the relay configuration model and its loading
// pipeline.
//
// # Overview
//
// Configuration is read from a YAML file, filled in with defaults, overridden
// by RELAY_* environment variables, and validated before use:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("relay.yaml")
//
// A process-wide singleton (Initialize / GetConfig) serves components that
// cannot take a Config by injection. A file watcher supports hot reload of
// the configuration file.
//
// # Thread Safety
//
// The singleton accessors are safe for concurrent use. Config values are
// treated as immutable after loading; reload replaces the whole instance.
package config
