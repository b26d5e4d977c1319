// Command smsd runs the school-administration job engine.
//
// Subcommands:
//
//	serve  start the engine and block until SIGINT or SIGTERM
//	demo   run a short scripted workload against an in-process engine and exit
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Santosh-B-Vitana/smsv2-sub000/engine"
	"github.com/Santosh-B-Vitana/smsv2-sub000/internal/config"
	"github.com/Santosh-B-Vitana/smsv2-sub000/internal/telemetry"
)

func main() {
	root := &cobra.Command{
		Use:           "smsd",
		Short:         "Background jobs, rate limiting and cached pagination for school services",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(serveCmd(), demoCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, installs logging and tracing, and builds
// an engine with the demo handlers registered.
func bootstrap() (*config.Config, *engine.Engine, telemetry.Shutdown, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config: %w", err)
	}

	logger := cfg.Logger()
	slog.SetDefault(logger)

	tp, shutdown, err := telemetry.InitTracer(cfg.ServiceName, cfg.TraceExporter, os.Stdout)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("telemetry: %w", err)
	}

	eng, err := engine.New(
		engine.WithConfig(cfg.Engine()),
		engine.WithLogger(logger),
		engine.WithTracerProvider(tp),
	)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, nil, nil, fmt.Errorf("engine: %w", err)
	}
	registerHandlers(eng)

	return cfg, eng, shutdown, nil
}

// ── serve ─────────────────────────────────────────────────────────────────────

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the engine and run until interrupted",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, eng, shutdownTracer, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	slog.Info("smsd running",
		slog.Int("concurrency", cfg.Concurrency),
		slog.Duration("rate_limit_window", cfg.RateLimitWindow),
	)

	<-ctx.Done()
	slog.Info("shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return eng.Stop(stopCtx)
}
