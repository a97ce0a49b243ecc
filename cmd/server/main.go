// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/pitwall/internal/api"
	"github.com/tomtom215/pitwall/internal/artifacts"
	"github.com/tomtom215/pitwall/internal/cache"
	"github.com/tomtom215/pitwall/internal/config"
	"github.com/tomtom215/pitwall/internal/dataset"
	"github.com/tomtom215/pitwall/internal/history"
	"github.com/tomtom215/pitwall/internal/inference"
	"github.com/tomtom215/pitwall/internal/logging"
	"github.com/tomtom215/pitwall/internal/models"
	"github.com/tomtom215/pitwall/internal/strategy"
	"github.com/tomtom215/pitwall/internal/supervisor"
	"github.com/tomtom215/pitwall/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // sequential startup
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("inference_backend", cfg.Inference.Backend).
		Str("history_backend", cfg.History.Backend).
		Msg("Starting Pitwall")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := dataset.Open(ctx, &cfg.Dataset)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Dataset.Path).Msg("Failed to load dataset")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing dataset")
		}
	}()
	stats := db.Stats()
	logging.Info().
		Str("path", stats.Path).
		Int64("rows", stats.Rows).
		Int("columns", stats.Columns).
		Msg("Dataset loaded")

	store, err := artifacts.Open(cfg.Artifacts, cfg.Inference.Backend == config.BackendLocal)
	if err != nil {
		// Fatal skips deferred calls.
		_ = db.Close()
		logging.Fatal().Err(err).Str("dir", cfg.Artifacts.Dir).Msg("Failed to load model artifacts")
	}
	logging.Info().Str("fingerprint", store.Current().Fingerprint).Msg("Model artifacts loaded")

	backend := newBackend(cfg, store)

	var predCache *cache.Cache[*models.StrategyPrediction]
	if cfg.Cache.Enabled {
		predCache = cache.New[*models.StrategyPrediction](cfg.Cache.TTL, cfg.Cache.MaxEntries)
		defer predCache.Close()
	}

	hist, err := history.New(cfg.History)
	if err != nil {
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to open prediction history")
	}
	defer func() {
		if err := hist.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing prediction history")
		}
	}()

	svc := strategy.NewService(db, store, backend, strategy.Options{
		Cache:   predCache,
		History: hist,
	})
	store.OnReload(func(b *artifacts.Bundle) {
		svc.InvalidateCache()
		logging.Info().Str("fingerprint", b.Fingerprint).Msg("Prediction cache cleared after artifact reload")
	})

	handler := api.NewHandler(api.HandlerDeps{
		Predictor: svc,
		Catalog:   db,
		Artifacts: store,
		History:   hist,
		Config:    cfg,
		Version:   version,
	})
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	if path := config.FilePath(); path != "" {
		err := config.WatchLogLevel(path,
			func(level string) {
				logging.SetLevelString(level)
				logging.Info().Str("level", level).Str("path", path).Msg("Log level reloaded")
			},
			func(err error) {
				logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid config file change")
			},
		)
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Config file watch disabled")
		}
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Artifacts.Watch {
		tree.AddDataService(artifacts.NewWatcher(store, cfg.Artifacts.WatchInterval))
		logging.Info().Dur("interval", cfg.Artifacts.WatchInterval).Msg("Artifact watcher added to supervisor tree")
	}
	if bs, ok := hist.(*history.BadgerStore); ok {
		tree.AddDataService(history.NewGCService(bs, cfg.History.GCInterval))
		logging.Info().Dur("interval", cfg.History.GCInterval).Msg("History GC added to supervisor tree")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	if err := awaitShutdown(ctx, errCh); err != nil {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, s := range unstopped {
			logging.Warn().Str("service", s.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// newBackend returns the inference backend selected by INFERENCE_BACKEND.
func newBackend(cfg *config.Config, store *artifacts.Store) inference.Backend {
	if cfg.Inference.Backend == config.BackendRemote {
		logging.Info().
			Str("url", cfg.Inference.RemoteURL).
			Dur("timeout", cfg.Inference.Timeout).
			Float64("rate_limit", cfg.Inference.RateLimit).
			Msg("Using remote model server")
		return inference.NewRemoteBackend(&cfg.Inference, nil)
	}
	return inference.NewLocalBackend(store)
}

// awaitShutdown blocks until the tree has stopped. suture sends exactly one
// value on errCh and never closes it, so it is received once: either while
// the tree is still running, or after ctx is canceled. context.Canceled is
// the normal shutdown result and is not reported.
func awaitShutdown(ctx context.Context, errCh <-chan error) error {
	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		err = <-errCh
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
