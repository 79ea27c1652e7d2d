package cmd

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meganame/megacheck/internal/appid"
	"github.com/meganame/megacheck/internal/config"
	"github.com/meganame/megacheck/internal/core/engine"
	errwrap "github.com/meganame/megacheck/internal/errors"
	"github.com/meganame/megacheck/internal/metrics"
	"github.com/meganame/megacheck/internal/observability"
	"github.com/meganame/megacheck/internal/server"
	"github.com/meganame/megacheck/internal/server/handlers"
)

// signalHealthChecker implements HealthChecker for signal system
type signalHealthChecker struct{}

func (signalHealthChecker) CheckHealth(ctx context.Context) error {
	return nil
}

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct {
	enabled bool
}

func (t telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if !t.enabled {
		return nil
	}
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// identityHealthChecker validates app identity metadata
type identityHealthChecker struct {
	identity appid.Identity
}

func (i identityHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case i.identity.BinaryName == "":
		return errwrap.NewConfigInvalidError("app identity missing binary name")
	case i.identity.EnvPrefix == "":
		return errwrap.NewConfigInvalidError("app identity missing env prefix")
	case i.identity.ConfigName == "":
		return errwrap.NewConfigInvalidError("app identity missing config name")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the availability API and web page with graceful shutdown support.

Endpoints:
  POST /api/check    batch availability ({"names": [...]} or form field "names")
  GET  /api/price    price quote for one name
  GET  /api/random   random candidate names
  GET  /api/health   registry connectivity and latest block
  GET  /             web page

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (logging level; restart for registry changes)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")

	_ = settings.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = settings.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	identity := appid.Get()
	namespace := identity.BinaryName

	logOpts := observability.ServerLogOptions{
		Service:     identity.BinaryName,
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		Namespace:   namespace,
	}
	if err := observability.InitServerLogger(logOpts); err != nil {
		return errwrap.WrapConfigInvalid(ctx, err, "server logger initialization failed")
	}
	logger := observability.ServerLogger

	if cfg.Metrics.Enabled {
		if err := observability.InitMetrics(observability.MetricsOptions{Namespace: namespace, Port: cfg.Metrics.Port}); err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
		}
	}

	logger.Info("Initializing server",
		zap.String("service", identity.BinaryName),
		zap.String("namespace", namespace),
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Int("metrics_port", cfg.Metrics.Port),
		zap.String("rpc_url", cfg.Registry.RPCURL),
		zap.Int("max_names", cfg.Batch.MaxNames))

	reg, err := openRegistry(ctx, cfg)
	if err != nil {
		logger.Error("Failed to create registry client", zap.Error(err))
		return errwrap.WrapExternalService(ctx, err, "registry client initialization failed")
	}

	// Health manager must exist before routes register the registry checker.
	handlers.InitHealthManager(versionInfo.Version)
	hm := handlers.GetHealthManager()
	hm.RegisterChecker("signal_handlers", signalHealthChecker{})
	hm.RegisterChecker("telemetry", telemetryHealthChecker{enabled: cfg.Metrics.Enabled})
	hm.RegisterChecker("app_identity", identityHealthChecker{identity: identity})

	handlers.SetAppIdentity(identity)
	handlers.SetRegistryInfo(cfg.Registry.NamesAddress, cfg.Registry.MulticallAddress, cfg.Registry.Multicall)

	srv := server.New(server.Options{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Checker:         engine.NewChecker(reg, cfg.CheckerConfig()),
		Status:          reg,
		Rules:           cfg.LabelRules(),
		MaxNames:        cfg.Batch.MaxNames,
		AdminToken:      os.Getenv(appid.Env("ADMIN_TOKEN")),
	})
	metrics.SetServerStartTime(time.Now().Unix())

	// Register graceful shutdown handlers (LIFO order - last registered, first executed)
	// Handler 1: Flush logger (executed last)
	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Flushing logger...")
		if err := logger.Sync(); err != nil {
			// Sync errors are often benign (stdout/stderr already closed)
			logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})

	// Handler 2: Close registry connection
	signals.OnShutdown(func(ctx context.Context) error {
		reg.Close()
		logger.Info("Registry client closed")
		return nil
	})

	// Handler 3: Shutdown HTTP server (executed first)
	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, srv.ShutdownTimeout())
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.WrapInternal(ctx, err, "server shutdown failed")
		}

		logger.Info("HTTP server stopped gracefully")
		return nil
	})

	// SIGHUP re-reads config. Only the log level applies without a restart.
	signals.OnReload(func(ctx context.Context) error {
		logger.Info("Received SIGHUP: attempting config reload")

		if err := config.Prepare(settings, cfgFile); err != nil {
			logger.Error("Failed to reload config file", zap.Error(err))
			return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
		}
		reloaded, err := config.Load(settings)
		if err != nil {
			logger.Error("Reloaded config is invalid", zap.Error(err))
			return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
		}

		if reloaded.Logging.Level != logOpts.Level {
			logOpts.Level = reloaded.Logging.Level
			if err := observability.InitServerLogger(logOpts); err != nil {
				return errwrap.WrapConfigInvalid(ctx, err, "logger reload failed")
			}
			logger = observability.ServerLogger
		}

		logger.Info("Configuration reloaded",
			zap.String("file", settings.ConfigFileUsed()),
			zap.String("log_level", reloaded.Logging.Level))
		return nil
	})

	// Enable double-tap force quit (Ctrl+C within 2 seconds)
	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	// Start server in background goroutine
	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server...",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port))
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Start signal listener in background
	go func() {
		if err := signals.Listen(ctx); err != nil {
			logger.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	// Wait for error or shutdown completion
	if err := <-errChan; err != nil {
		return errwrap.WrapInternal(ctx, err, "server error")
	}

	return nil
}
