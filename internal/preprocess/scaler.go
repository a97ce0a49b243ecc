// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package preprocess

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// StandardScaler standardizes features with a fitted mean and scale.
type StandardScaler struct {
	FeatureNames []string  `json:"feature_names"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// LoadScaler reads scaler.json.
func LoadScaler(path string) (*StandardScaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler: %w", err)
	}
	return ParseScaler(data)
}

// ParseScaler decodes and validates a scaler document.
func ParseScaler(data []byte) (*StandardScaler, error) {
	var s StandardScaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *StandardScaler) validate() error {
	n := len(s.FeatureNames)
	if n == 0 {
		return fmt.Errorf("%w: scaler has no features", ErrInvalidArtifact)
	}
	if len(s.Mean) != n || len(s.Scale) != n {
		return fmt.Errorf("%w: scaler has %d features, %d means, %d scales",
			ErrInvalidArtifact, n, len(s.Mean), len(s.Scale))
	}
	seen := make(map[string]struct{}, n)
	for _, name := range s.FeatureNames {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate feature %q", ErrInvalidArtifact, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// NumFeatures returns the width of the scaled vector.
func (s *StandardScaler) NumFeatures() int {
	return len(s.FeatureNames)
}

// Transform builds the scaled vector from rec in FeatureNames order.
// A zero scale (constant feature at fit time) divides by one.
func (s *StandardScaler) Transform(rec *Record) ([]float64, error) {
	out := make([]float64, len(s.FeatureNames))
	for i, name := range s.FeatureNames {
		x, err := rec.Float(name)
		if err != nil {
			return nil, err
		}
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x - s.Mean[i]) / scale
	}
	return out, nil
}
