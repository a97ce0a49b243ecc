// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

var errInjected = errors.New("injected failure")

// countingService fails its first `fails` runs, then blocks until canceled.
type countingService struct {
	name   string
	fails  int32
	starts atomic.Int32
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.fails {
		return errInjected
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }
