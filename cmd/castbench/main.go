package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/castfx/internal/config"
	"github.com/udisondev/castfx/internal/gameserver"
	"github.com/udisondev/castfx/internal/metrics"
	"github.com/udisondev/castfx/internal/workpool"
	"github.com/udisondev/castfx/internal/world"
)

const DefaultConfigPath = "config/castfx.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := DefaultConfigPath
	if p := os.Getenv("CASTFX_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// уровень уже провалидирован в LoadServer
	logLevel, _ := config.ParseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sink, err := metrics.NewPromSink(reg)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	pool := workpool.New(workpool.WithName(cfg.Pool.Name), workpool.WithRecorder(sink))
	pool.AddWorkers(cfg.Pool.Workers)
	defer pool.Complete()

	w := world.New(world.WithVisibilityRange(cfg.World.VisibilityRange))
	clients := gameserver.NewClientManager()
	defer clients.CloseAll()

	slog.Info("castfx starting",
		"log_level", cfg.LogLevel,
		"pool", pool.Name(),
		"workers", pool.Workers(),
		"result_delay", cfg.Effect.ResultDelay,
		"visibility_range", cfg.World.VisibilityRange,
		"metrics", cfg.Metrics.Serving(),
		"metrics_addr", cfg.Metrics.Addr)

	b, err := newBench(ctx, cfg, w, clients, pool, sink)
	if err != nil {
		return fmt.Errorf("populating world: %w", err)
	}

	// бенч с лимитом кастов завершает и metrics server
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.Metrics.Serving() {
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.Metrics.Addr, reg)
		})
	}

	g.Go(func() error {
		defer stop()
		return b.run(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("castfx stopped",
		"casts", b.casts.Load(),
		"kills", b.kills.Load(),
		"clients", clients.Count())
	return nil
}
