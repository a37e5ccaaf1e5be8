package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orion-udf/core/manager"

	_ "github.com/orion-udf/core/udf/foreign"
	_ "github.com/orion-udf/core/udf/native"
)

const defaultConfigPath = "config/udfmanager.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to udf manager configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("starting udf manager", "config", *configPath, "debug", *debug)

	cfg, err := manager.Load(*configPath)
	if err != nil {
		slog.Error("failed to load udf manager config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m, err := manager.New(ctx, *cfg)
	if err != nil {
		slog.Error("failed to construct udf manager", "error", err)
		os.Exit(1)
	}

	if err := m.Start(ctx); err != nil {
		slog.Error("failed to start udf manager", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go logStats(ctx, m)
	go drainOutput(ctx, m)

	sig := <-sigChan
	slog.Info("received shutdown signal", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := m.Stop(shutdownCtx); err != nil {
		slog.Error("udf manager stop failed", "error", err)
		os.Exit(1)
	}

	slog.Info("udf manager stopped successfully")
}

// drainOutput consumes finished frames so the output queue never fills up
// and backpressures the pool; a real deployment replaces this with
// whatever external sink spec.md §1 treats as an out-of-scope
// collaborator (object storage, a message bus, a downstream service).
func drainOutput(ctx context.Context, m *manager.Manager) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		fr, ok := m.NextWait(250 * time.Millisecond)
		if !ok {
			continue
		}
		if _, err := fr.Serialize(); err != nil {
			slog.Error("failed to serialize finished frame", "error", err)
		}
	}
}

func logStats(ctx context.Context, m *manager.Manager) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := m.Stats()
			slog.Info("udf manager stats",
				"processed", stats.Processed,
				"dropped", stats.Dropped,
				"errors", stats.Errors,
				"dispatch_dropped", stats.DispatchDropped,
				"in_flight", stats.InFlight,
				"queue_depth_in", stats.QueueDepthIn,
				"queue_depth_out", stats.QueueDepthOut,
				"idle", stats.Idle,
			)
		}
	}
}
