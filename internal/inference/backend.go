// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package inference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/pitwall/internal/estimator"
	"github.com/tomtom215/pitwall/internal/metrics"
)

// Name identifies one of the strategy models.
type Name string

const (
	PitStops Name = "pitstops"
	PitLap   Name = "pitlap"
	Tire     Name = "tire"
)

// Names lists the models in pipeline order.
var Names = []Name{PitStops, PitLap, Tire}

var (
	// ErrModelNotLoaded is returned when a model has no loaded artifact.
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrEmptyPrediction is returned when a model produces no outputs.
	ErrEmptyPrediction = errors.New("model returned no outputs")

	// ErrUnavailable is returned when the remote backend rejects the call
	// because its circuit breaker is open.
	ErrUnavailable = errors.New("model server unavailable")
)

// Backend evaluates a model on a single feature vector.
type Backend interface {
	Predict(ctx context.Context, model Name, x []float64) ([]float64, error)
	Name() string
}

// ModelSource returns the currently loaded model for a name.
type ModelSource interface {
	Model(name Name) (estimator.Model, bool)
}

// LocalBackend evaluates models in-process.
type LocalBackend struct {
	source ModelSource
}

// NewLocalBackend returns a backend reading models from source.
func NewLocalBackend(source ModelSource) *LocalBackend {
	return &LocalBackend{source: source}
}

// Name returns "local".
func (b *LocalBackend) Name() string { return "local" }

// Predict evaluates model on x.
func (b *LocalBackend) Predict(ctx context.Context, model Name, x []float64) ([]float64, error) {
	start := time.Now()
	out, err := b.predict(ctx, model, x)
	metrics.RecordModelInvocation(b.Name(), string(model), time.Since(start), err)
	return out, err
}

func (b *LocalBackend) predict(ctx context.Context, model Name, x []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, ok := b.source.Model(model)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotLoaded, model)
	}
	out, err := m.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("%s model: %w", model, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPrediction, model)
	}
	return out, nil
}
