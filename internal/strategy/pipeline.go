// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package strategy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/pitwall/internal/artifacts"
	"github.com/tomtom215/pitwall/internal/dataset"
	"github.com/tomtom215/pitwall/internal/inference"
	"github.com/tomtom215/pitwall/internal/metrics"
	"github.com/tomtom215/pitwall/internal/models"
	"github.com/tomtom215/pitwall/internal/preprocess"
)

// run executes the pipeline against one bundle.
func (s *Service) run(ctx context.Context, bundle *artifacts.Bundle, in models.PredictionInput) (*models.StrategyPrediction, error) {
	var row *preprocess.Record
	err := stage("lookup", func() error {
		var err error
		row, err = s.lookup.Lookup(ctx, dataset.Key{
			Year:   *in.EventYear,
			Event:  in.EventName,
			Team:   in.Team,
			Driver: in.Driver,
		})
		if errors.Is(err, dataset.ErrNoMatch) {
			return ErrNoMatch
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			return nil, ErrNoMatch
		}
		return nil, err
	}

	overlay(row, in)

	var encoded *preprocess.Record
	if err := stage("encode", func() error {
		var err error
		encoded, err = bundle.Encoders.Encode(row)
		return err
	}); err != nil {
		return nil, err
	}

	var x []float64
	if err := stage("scale", func() error {
		var err error
		x, err = bundle.Scaler.Transform(encoded)
		return err
	}); err != nil {
		return nil, err
	}

	var count int
	if err := stage("pitstops", func() error {
		var err error
		count, err = s.pitStops(ctx, x)
		return err
	}); err != nil {
		return nil, err
	}

	var laps []float64
	if err := stage("pitlap", func() error {
		var err error
		laps, err = s.pitLaps(ctx, x, count)
		return err
	}); err != nil {
		return nil, err
	}
	count = len(laps)
	metrics.PredictedPitStops.Observe(float64(count))

	var stints []models.TireStint
	if err := stage("tire", func() error {
		var err error
		stints, err = s.tires(ctx, bundle.Compound(), x, laps)
		return err
	}); err != nil {
		return nil, err
	}

	pitLaps := make([]int, len(laps))
	for i, lap := range laps {
		pitLaps[i] = int(math.Trunc(lap))
	}

	return &models.StrategyPrediction{
		TotalPitStops: count,
		PitStopLaps:   pitLaps,
		TireStrategy:  stints,
	}, nil
}

// overlay writes the request's weather conditions onto the row.
func overlay(row *preprocess.Record, in models.PredictionInput) {
	if in.MeanAirTemp != nil {
		row.Set(ColumnMeanAirTemp, *in.MeanAirTemp)
	}
	if in.Rainfall != nil {
		row.Set(ColumnRainfall, *in.Rainfall)
	}
}

// pitStops returns the first output of the count model truncated toward
// zero. Negative counts become 0.
func (s *Service) pitStops(ctx context.Context, x []float64) (int, error) {
	out, err := s.backend.Predict(ctx, inference.PitStops, x)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, inference.ErrEmptyPrediction
	}
	if !finite(out[0]) {
		return 0, fmt.Errorf("%w: pit stop count %v", ErrInvalidOutput, out[0])
	}
	n := int(math.Trunc(out[0]))
	if n < 0 {
		n = 0
	}
	return n, nil
}

// pitLaps returns the lowest count lap outputs in ascending order. The lap
// model is skipped when no stop is predicted.
func (s *Service) pitLaps(ctx context.Context, x []float64, count int) ([]float64, error) {
	if count == 0 {
		return []float64{}, nil
	}
	out, err := s.backend.Predict(ctx, inference.PitLap, x)
	if err != nil {
		return nil, err
	}
	laps := make([]float64, len(out))
	for i, v := range out {
		if !finite(v) {
			return nil, fmt.Errorf("%w: pit lap %v", ErrInvalidOutput, v)
		}
		laps[i] = v
	}
	sort.Float64s(laps)
	if count < len(laps) {
		laps = laps[:count]
	}
	return laps, nil
}

// tires predicts one compound per lap. The tire model sees the scaled
// vector with the unscaled lap appended.
func (s *Service) tires(ctx context.Context, compound *preprocess.LabelEncoder, x, laps []float64) ([]models.TireStint, error) {
	stints := make([]models.TireStint, 0, len(laps))
	if len(laps) == 0 {
		return stints, nil
	}
	if compound == nil {
		return nil, fmt.Errorf("%w: no %s encoder", artifacts.ErrInconsistent, artifacts.CompoundColumn)
	}

	input := make([]float64, len(x)+1)
	copy(input, x)
	for _, lap := range laps {
		input[len(x)] = lap
		out, err := s.backend.Predict(ctx, inference.Tire, input)
		if err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return nil, inference.ErrEmptyPrediction
		}
		label, err := compound.InverseTransform(out[0])
		if err != nil {
			return nil, err
		}
		stints = append(stints, models.TireStint{
			Lap:      int(math.Trunc(lap)),
			Compound: label,
		})
	}
	return stints, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
