// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package estimator

import (
	"fmt"

	"github.com/goccy/go-json"
)

// KindLinear identifies linear models.
const KindLinear = "linear"

// Linear is a fitted linear regression or linear classifier.
// Coef has one row per output (or per class).
type Linear struct {
	Task      Task        `json:"task"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
	Classes   []float64   `json:"classes,omitempty"`
}

func decodeLinear(data []byte) (Model, error) {
	var m Linear
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if err := m.init(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Linear) init() error {
	task, err := parseTask(m.Task)
	if err != nil {
		return err
	}
	m.Task = task

	if len(m.Coef) == 0 || len(m.Coef[0]) == 0 {
		return fmt.Errorf("%w: empty coefficient matrix", ErrInvalidModel)
	}
	width := len(m.Coef[0])
	for i, row := range m.Coef {
		if len(row) != width {
			return fmt.Errorf("%w: coef row %d has %d values, want %d", ErrInvalidModel, i, len(row), width)
		}
	}
	switch {
	case m.Intercept == nil:
		m.Intercept = make([]float64, len(m.Coef))
	case len(m.Intercept) != len(m.Coef):
		return fmt.Errorf("%w: %d intercepts for %d coef rows", ErrInvalidModel, len(m.Intercept), len(m.Coef))
	}

	if m.Task == TaskClassification {
		switch {
		case len(m.Classes) < 2:
			return fmt.Errorf("%w: classification needs at least two classes", ErrInvalidModel)
		case len(m.Coef) == 1 && len(m.Classes) != 2:
			return fmt.Errorf("%w: one coef row requires exactly two classes", ErrInvalidModel)
		case len(m.Coef) > 1 && len(m.Coef) != len(m.Classes):
			return fmt.Errorf("%w: %d coef rows for %d classes", ErrInvalidModel, len(m.Coef), len(m.Classes))
		}
	}
	return nil
}

func (m *Linear) Kind() string { return KindLinear }
func (m *Linear) NumFeatures() int { return len(m.Coef[0]) }

func (m *Linear) NumOutputs() int {
	if m.Task == TaskClassification {
		return 1
	}
	return len(m.Coef)
}

// Predict evaluates the model on x.
func (m *Linear) Predict(x []float64) ([]float64, error) {
	if err := checkInput(x, m.NumFeatures()); err != nil {
		return nil, err
	}

	scores := make([]float64, len(m.Coef))
	for i, row := range m.Coef {
		s := m.Intercept[i]
		for j, c := range row {
			s += c * x[j]
		}
		scores[i] = s
	}

	if m.Task != TaskClassification {
		return scores, nil
	}
	if len(scores) == 1 {
		if scores[0] > 0 {
			return []float64{m.Classes[1]}, nil
		}
		return []float64{m.Classes[0]}, nil
	}
	return []float64{m.Classes[argmax(scores)]}, nil
}
