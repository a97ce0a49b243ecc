// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/pitwall/internal/logging"
)

// GCService runs value log garbage collection on a BadgerStore. It
// implements suture.Service.
type GCService struct {
	store    *BadgerStore
	interval time.Duration
}

// NewGCService creates the service. A non-positive interval uses 10 minutes.
func NewGCService(store *BadgerStore, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{store: store, interval: interval}
}

// Serve runs until ctx is canceled. Once the store is closed the service
// stops for good and asks the supervisor not to restart it.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := g.store.RunGC(); err != nil {
				if errors.Is(err, ErrClosed) {
					logging.Info().Msg("History store closed, stopping value log GC")
					return fmt.Errorf("%w: %w", suture.ErrDoNotRestart, err)
				}
				logging.Warn().Err(err).Msg("History value log GC failed")
			}
		}
	}
}

func (g *GCService) String() string {
	return "history-gc"
}
