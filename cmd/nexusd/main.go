// Command nexusd loads a declarative backend fleet, registers an Agent per
// backend, and runs the health checker until terminated.
//
// Usage:
//
//	nexusd serve --config nexus.yaml
//	nexusd version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nexusrouter/nexus/config"
	"github.com/nexusrouter/nexus/health"
	"github.com/nexusrouter/nexus/internal/telemetry"
	"github.com/nexusrouter/nexus/registry"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting nexusd",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	reg := registry.New()
	if err := registerBackends(reg, cfg.Backends, logger); err != nil {
		logger.Fatal("failed to register backends", zap.Error(err))
	}

	checker := health.NewChecker(reg, cfg.Health.ToHealthConfig(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	checker.Start(ctx)

	logger.Info("nexusd ready", zap.Int("backends", reg.Len()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	checker.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := otelProviders.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown error", zap.Error(err))
	}

	logger.Info("nexusd stopped")
}

// registerBackends resolves each declared backend record and registers its
// Backend/Agent pair atomically. A single misconfigured record aborts
// startup rather than running with a partially registered fleet.
func registerBackends(reg *registry.Registry, backends []config.BackendConfig, logger *zap.Logger) error {
	for _, bc := range backends {
		backend, apiKey, err := bc.Resolve()
		if err != nil {
			return err
		}

		a, err := config.BuildAgent(backend, bc, apiKey, logger)
		if err != nil {
			return err
		}

		if err := reg.Register(backend, a); err != nil {
			return err
		}

		logger.Info("registered backend",
			zap.String("id", backend.ID),
			zap.String("type", string(backend.Type)),
			zap.String("zone", string(backend.Zone)),
			zap.Int("tier", backend.Tier),
		)
	}
	return nil
}

func printVersion() {
	fmt.Printf("nexusd %s\n", Version)
	fmt.Printf("  build time: %s\n", BuildTime)
	fmt.Printf("  git commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`nexusd - Nexus LLM backend lifecycle core

Usage:
  nexusd <command> [options]

Commands:
  serve     Start the registry and health checker
  version   Show version information
  help      Show this help message

Options for 'serve':
  --config <path>   Path to configuration file (YAML)

Examples:
  nexusd serve
  nexusd serve --config /etc/nexus/nexus.yaml
  nexusd version`)
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         cfg.Format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    !cfg.EnableCaller,
	}

	logger, err := zapConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}
