// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/pitwall/internal/artifacts"
	"github.com/tomtom215/pitwall/internal/cache"
	"github.com/tomtom215/pitwall/internal/dataset"
	"github.com/tomtom215/pitwall/internal/history"
	"github.com/tomtom215/pitwall/internal/inference"
	"github.com/tomtom215/pitwall/internal/logging"
	"github.com/tomtom215/pitwall/internal/metrics"
	"github.com/tomtom215/pitwall/internal/models"
	"github.com/tomtom215/pitwall/internal/preprocess"
)

// Columns overwritten from the request.
const (
	ColumnMeanAirTemp = "meanAirTemp"
	ColumnRainfall    = "Rainfall"
)

var (
	// ErrNoMatch is returned when the dataset has no row for the input.
	ErrNoMatch = errors.New("no matching race found in the dataset")

	// ErrInvalidOutput is returned when a model emits a non-finite value.
	ErrInvalidOutput = errors.New("model returned an invalid value")
)

// Lookuper finds the historical row for a race key.
type Lookuper interface {
	Lookup(ctx context.Context, key dataset.Key) (*preprocess.Record, error)
}

// BundleSource returns the artifact bundle in service.
type BundleSource interface {
	Current() *artifacts.Bundle
}

// Options holds the optional collaborators of a Service.
type Options struct {
	// Cache stores predictions per input; nil disables caching.
	Cache *cache.Cache[*models.StrategyPrediction]
	// History receives every served prediction; nil uses history.Noop.
	History history.Store
}

// modelIdentity is implemented by backends whose models live outside the
// artifact bundle, so the bundle fingerprint does not cover them.
type modelIdentity interface {
	ModelIdentity() string
}

// Service runs predictions.
type Service struct {
	lookup  Lookuper
	bundles BundleSource
	backend inference.Backend
	modelID string
	cache   *cache.Cache[*models.StrategyPrediction]
	history history.Store
}

// NewService creates a Service.
func NewService(lookup Lookuper, bundles BundleSource, backend inference.Backend, opts Options) *Service {
	h := opts.History
	if h == nil {
		h = history.Noop{}
	}
	svc := &Service{
		lookup:  lookup,
		bundles: bundles,
		backend: backend,
		cache:   opts.Cache,
		history: h,
	}
	if mi, ok := backend.(modelIdentity); ok {
		svc.modelID = mi.ModelIdentity()
	}
	return svc
}

// Backend returns the name of the inference backend.
func (s *Service) Backend() string {
	return s.backend.Name()
}

// History returns the history store.
func (s *Service) History() history.Store {
	return s.history
}

// InvalidateCache drops every cached prediction. It is registered as an
// artifact reload callback.
func (s *Service) InvalidateCache() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

// Predict runs the pipeline for in and records the result in history.
func (s *Service) Predict(ctx context.Context, in models.PredictionInput) (*models.PredictionRecord, error) {
	start := time.Now()

	bundle := s.bundles.Current()
	if bundle == nil {
		metrics.RecordPrediction("error", time.Since(start))
		return nil, artifacts.ErrNotLoaded
	}

	key := cacheKey(in, bundle.Fingerprint, s.modelID)
	pred, cached := s.cached(key)
	if !cached {
		var err error
		pred, err = s.run(ctx, bundle, in)
		if err != nil {
			metrics.RecordPrediction(outcome(err), time.Since(start))
			logging.Ctx(ctx).Debug().Err(err).
				Int("event_year", *in.EventYear).
				Str("event", in.EventName).
				Str("team", in.Team).
				Str("driver", in.Driver).
				Msg("Prediction failed")
			return nil, err
		}
		if s.cache != nil {
			s.cache.Set(key, pred)
		}
	}

	elapsed := time.Since(start)
	metrics.RecordPrediction("success", elapsed)

	rec := &models.PredictionRecord{
		Input:       in,
		Prediction:  clonePrediction(pred),
		Backend:     s.backend.Name(),
		Fingerprint: bundle.Fingerprint,
		DurationMS:  float64(elapsed.Microseconds()) / 1000,
		Cached:      cached,
		RequestID:   logging.RequestIDFromContext(ctx),
	}
	err := s.history.Append(ctx, rec)
	metrics.RecordHistoryWrite(s.history.Name(), err)
	if err != nil {
		// The prediction is still served.
		logging.Ctx(ctx).Warn().Err(err).Str("backend", s.history.Name()).Msg("Failed to record prediction history")
	}

	logging.Ctx(ctx).Debug().
		Str("prediction_id", rec.ID).
		Int("pit_stops", pred.TotalPitStops).
		Bool("cached", cached).
		Dur("duration", elapsed).
		Msg("Prediction served")

	return rec, nil
}

func (s *Service) cached(key string) (*models.StrategyPrediction, bool) {
	if s.cache == nil {
		return nil, false
	}
	pred, ok := s.cache.Get(key)
	metrics.RecordCacheAccess(ok)
	return pred, ok
}

// cacheKey covers the artifact fingerprint and, for remote backends, the
// model server, so a reload or a backend switch never serves a result
// computed from other models. A model server redeployed behind the same URL
// is not detected; POST /api/v1/models/reload clears the cache for that case.
func cacheKey(in models.PredictionInput, fingerprint, modelID string) string {
	return cache.GenerateKey("predict", struct {
		Input       models.PredictionInput `json:"input"`
		Fingerprint string                 `json:"fingerprint"`
		Model       string                 `json:"model,omitempty"`
	}{in, fingerprint, modelID})
}

// outcome maps an error to the predictions_total outcome label.
func outcome(err error) string {
	switch {
	case errors.Is(err, ErrNoMatch):
		return "no_match"
	case errors.Is(err, preprocess.ErrUnknownLabel),
		errors.Is(err, preprocess.ErrMissingFeature),
		errors.Is(err, preprocess.ErrNonNumeric):
		return "encode_error"
	case errors.Is(err, ErrInvalidOutput),
		errors.Is(err, preprocess.ErrUnknownCode),
		errors.Is(err, inference.ErrModelNotLoaded),
		errors.Is(err, inference.ErrEmptyPrediction),
		errors.Is(err, inference.ErrUnavailable):
		return "model_error"
	default:
		return "error"
	}
}

func clonePrediction(p *models.StrategyPrediction) models.StrategyPrediction {
	out := models.StrategyPrediction{
		TotalPitStops: p.TotalPitStops,
		PitStopLaps:   make([]int, len(p.PitStopLaps)),
		TireStrategy:  make([]models.TireStint, len(p.TireStrategy)),
	}
	copy(out.PitStopLaps, p.PitStopLaps)
	copy(out.TireStrategy, p.TireStrategy)
	return out
}

// stage times fn and records it under name.
func stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ObserveStage(name, time.Since(start))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
