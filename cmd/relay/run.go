package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"patternlab/relay/pkg/admission"
	"patternlab/relay/pkg/admission/store"
	"patternlab/relay/pkg/audit"
	"patternlab/relay/pkg/cli"
	"patternlab/relay/pkg/config"
	"patternlab/relay/pkg/providers"
	"patternlab/relay/pkg/server"
	"patternlab/relay/pkg/telemetry/logging"
	"patternlab/relay/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watchConfig   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relay server",
	Long: `Start the relay server with the specified configuration.

The server listens on the configured address and relays chat requests to
the upstream provider, gated by the admission controller.

Examples:
  # Start with default config
  relay run

  # Start with custom config
  relay run --config /etc/relay/relay.yaml

  # Override listen address
  relay run --listen 0.0.0.0:8080

  # Validate config without starting server
  relay run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	runCmd.Flags().BoolVar(&runFlags.watchConfig, "watch-config", false, "reload logging settings when the config file changes")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.LogLevel = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.LogLevel = "debug"
	}

	logger, err := logging.Setup(logging.Config{
		Level:  cfg.Telemetry.LogLevel,
		Format: cfg.Telemetry.LogFormat,
	})
	if err != nil {
		return cli.NewConfigError("telemetry", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx := cli.SetupSignalHandler()

	// Admission controller and window persistence
	controller := admission.NewController(admission.Config{
		MaxRequests:    cfg.Admission.MaxRequests,
		WindowDuration: cfg.Admission.WindowDuration,
		Scope:          admission.Scope(cfg.Admission.Scope),
		SweepInterval:  cfg.Admission.SweepInterval,
	})
	defer controller.Close()

	backend, err := buildStoreBackend(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer backend.Close()

	persister := store.NewPersister(controller, backend, store.PersisterConfig{
		FlushInterval: cfg.Store.FlushInterval,
	})
	defer persister.Close()

	if err := persister.RestoreAll(ctx); err != nil {
		logger.Warn("failed to restore window state, starting fresh", "error", err)
	}

	// Audit recorder
	var recorder *audit.Recorder
	if cfg.Audit.Enabled == nil || *cfg.Audit.Enabled {
		auditStorage, err := buildAuditStorage(cfg)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer auditStorage.Close()

		recorder = audit.NewRecorder(auditStorage, &audit.RecorderConfig{
			Enabled:     true,
			AsyncBuffer: cfg.Audit.AsyncBuffer,
		})
		defer recorder.Close()

		pruner := audit.NewPruner(auditStorage, &audit.RetentionConfig{
			RetentionDays: cfg.Audit.RetentionDays,
			PruneSchedule: cfg.Audit.PruneSchedule,
		})
		if err := pruner.Start(ctx); err != nil {
			return cli.NewCommandError("run", err)
		}
		defer pruner.Stop()
	}

	// Metrics
	var collector *metrics.Collector
	if cfg.Telemetry.MetricsEnabled == nil || *cfg.Telemetry.MetricsEnabled {
		collector = metrics.NewCollector(nil)
	}

	// Upstream provider
	var provider providers.Provider
	if cfg.Provider.BaseURL != "" {
		p, err := providers.NewHTTPProvider(providers.Config{
			BaseURL:    cfg.Provider.BaseURL,
			APIKey:     cfg.Provider.APIKey,
			Model:      cfg.Provider.Model,
			MaxTokens:  cfg.Provider.MaxTokens,
			Timeout:    cfg.Provider.Timeout,
			MaxRetries: cfg.Provider.MaxRetries,
		})
		if err != nil {
			return cli.NewConfigError("provider", err.Error())
		}
		provider = p
	} else {
		logger.Warn("no provider base_url configured, chat endpoint will report unavailable")
	}

	// Gate selection: a disabled limiter still runs the pipeline through a
	// pass-through gate so decisions remain observable.
	var gate admission.Gate = controller
	if cfg.Admission.Enabled != nil && !*cfg.Admission.Enabled {
		gate = admission.NewPassGate()
		logger.Warn("admission control disabled, all requests pass through")
	}

	onDecision := func(r *http.Request, key string, decision admission.Decision) {
		if decision == admission.Admitted {
			persister.MarkDirty(key)
		}
		if recorder != nil {
			recorder.RecordDecision(r, key, decision)
		}
	}

	if runFlags.watchConfig {
		if err := startConfigWatcher(ctx, logger); err != nil {
			return cli.NewCommandError("run", err)
		}
	}

	logger.Info("relay configured",
		"listen_address", cfg.Server.ListenAddress,
		"max_requests", cfg.Admission.MaxRequests,
		"window", cfg.Admission.WindowDuration.String(),
		"scope", cfg.Admission.Scope,
		"store_backend", cfg.Store.Backend,
	)

	srv := server.NewServer(server.Deps{
		Config:     cfg,
		Gate:       gate,
		Controller: controller,
		Provider:   provider,
		Metrics:    collector,
		OnDecision: onDecision,
	})

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

func buildStoreBackend(cfg *config.Config) (store.Backend, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		if err := ensureDir(cfg.Store.SQLitePath); err != nil {
			return nil, err
		}
		return store.NewSQLiteBackend(cfg.Store.SQLitePath)
	default:
		return store.NewMemoryBackend(), nil
	}
}

func buildAuditStorage(cfg *config.Config) (audit.Storage, error) {
	switch cfg.Audit.Backend {
	case "sqlite":
		if err := ensureDir(cfg.Audit.SQLitePath); err != nil {
			return nil, err
		}
		sqliteCfg := audit.DefaultSQLiteConfig()
		sqliteCfg.Path = cfg.Audit.SQLitePath
		return audit.NewSQLiteStorage(sqliteCfg)
	default:
		return audit.NewMemoryStorage(), nil
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// startConfigWatcher applies logging changes from the config file while the
// server runs. Settings that require rebuilding components (window size,
// backends, provider) still need a restart.
func startConfigWatcher(ctx context.Context, logger *slog.Logger) error {
	watcher, err := config.NewWatcher(config.WatcherConfig{Path: cfgFile})
	if err != nil {
		return err
	}

	go func() {
		defer watcher.Stop()
		err := watcher.Watch(ctx, func() error {
			if err := config.ReloadConfig(cfgFile); err != nil {
				return err
			}
			cfg := config.GetConfig()
			if _, err := logging.Setup(logging.Config{
				Level:  cfg.Telemetry.LogLevel,
				Format: cfg.Telemetry.LogFormat,
			}); err != nil {
				return err
			}
			slog.Info("logging settings reloaded",
				"level", cfg.Telemetry.LogLevel,
				"format", cfg.Telemetry.LogFormat,
			)
			return nil
		})
		if err != nil {
			logger.Warn("config watcher exited", "error", err)
		}
	}()

	return nil
}
