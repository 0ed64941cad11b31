package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/radixkv-go/internal/infra/buildinfo"
	"github.com/yndnr/radixkv-go/internal/infra/confloader"
	"github.com/yndnr/radixkv-go/internal/infra/shutdown"
	"github.com/yndnr/radixkv-go/internal/server/config"
	"github.com/yndnr/radixkv-go/internal/server/redisserver"
	"github.com/yndnr/radixkv-go/internal/storage"
	"github.com/yndnr/radixkv-go/internal/storage/art"
	"github.com/yndnr/radixkv-go/internal/telemetry/logger"
	"github.com/yndnr/radixkv-go/internal/telemetry/metric"
)

func main() {
	app := &cli.App{
		Name:    "radixkv-server",
		Usage:   "Redis-compatible in-memory key-value server on an adaptive radix tree",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "RESP listen address (overrides config)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level: debug, info, warn, error (overrides config)",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger.SetDefault(log)

	log.Info("starting radixkv-server",
		"version", buildinfo.Get().Version,
		"addr", cfg.Server.Redis.Addr)

	var store *storage.Store
	metrics := metric.NewRegistry(func() float64 {
		if store == nil {
			return 0
		}
		return float64(store.Len())
	})

	store = storage.New(storage.Config{
		TickInterval: cfg.Engine.TickInterval,
		Sweep: art.SweepConfig{
			SampleSize: cfg.Engine.SweepSampleSize,
			Threshold:  cfg.Engine.SweepThreshold,
			MaxRounds:  cfg.Engine.SweepMaxRounds,
		},
		PressureSweepsPerSec: cfg.Engine.PressureSweepsPerSec,
		OnEvict: func(n int) {
			metrics.ExpiredTotal.Add(float64(n))
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go store.Run(ctx)

	srv := redisserver.New(&redisserver.Config{
		Addr:            cfg.Server.Redis.Addr,
		ReadTimeout:     cfg.Server.Redis.ReadTimeout,
		WriteTimeout:    cfg.Server.Redis.WriteTimeout,
		IdleTimeout:     cfg.Server.Redis.IdleTimeout,
		SubscriberQueue: cfg.Server.Redis.SubscriberQueue,
	}, store, log, metrics)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start resp server: %w", err)
	}

	var metricsSrv *http.Server
	if cfg.Server.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{Addr: cfg.Server.Metrics.Addr, Handler: mux}
		go func() {
			log.Info("metrics listening", "addr", cfg.Server.Metrics.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	watcher := watchConfig(c.String("config"), log)

	handler := shutdown.NewHandler(30 * time.Second)
	handler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down resp server")
		return srv.Shutdown(ctx)
	})
	if metricsSrv != nil {
		handler.OnShutdown(func(ctx context.Context) error {
			return metricsSrv.Shutdown(ctx)
		})
	}
	if watcher != nil {
		handler.OnShutdown(func(context.Context) error {
			return watcher.Stop()
		})
	}
	handler.OnShutdown(func(context.Context) error {
		cancel()
		return nil
	})

	log.Info("server started")
	if err := handler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

func loadConfig(c *cli.Context) (*config.ServerConfig, error) {
	cfg := config.Default()
	opts := []confloader.Option{}
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if c.IsSet("addr") {
		cfg.Server.Redis.Addr = c.String("addr")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchConfig reloads the log level when the config file changes.
// Everything else requires a restart.
func watchConfig(path string, log logger.Logger) *confloader.Watcher {
	if path == "" {
		return nil
	}
	w, err := confloader.NewWatcher(log)
	if err != nil {
		log.Warn("config watcher unavailable", "error", err)
		return nil
	}
	if err := w.Watch(path); err != nil {
		log.Warn("config watch failed", "path", path, "error", err)
		return nil
	}
	w.OnChange(func(changed string) {
		cfg := config.Default()
		if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if err := config.Verify(cfg); err != nil {
			log.Warn("config reload invalid", "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		log.Info("log level reloaded", "level", cfg.Log.Level)
	})
	go w.Start()
	return w
}
