// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package artifacts

import (
	"context"
	"time"

	"github.com/tomtom215/pitwall/internal/logging"
)

// Watcher polls the artifact files and reloads the store when they change.
// It implements suture.Service.
type Watcher struct {
	store    *Store
	interval time.Duration
}

// NewWatcher returns a watcher polling every interval.
func NewWatcher(store *Store, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{store: store, interval: interval}
}

// Serve polls until ctx is cancelled. Reload failures are logged and retried
// only after the files change again.
func (w *Watcher) Serve(ctx context.Context) error {
	logger := logging.WithComponent("artifact-watcher")
	logger.Info().Dur("interval", w.interval).Msg("Artifact watcher started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Artifact watcher stopped")
			return ctx.Err()
		case <-ticker.C:
			if !w.store.Changed() {
				continue
			}
			logger.Info().Msg("Artifact change detected, reloading")
			if _, err := w.store.Reload(); err != nil {
				logger.Warn().Err(err).Msg("Artifact reload failed")
			}
		}
	}
}

// String names the service in supervisor logs.
func (w *Watcher) String() string {
	return "artifact-watcher"
}
