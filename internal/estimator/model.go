// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package estimator

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/goccy/go-json"
)

var (
	// ErrFeatureMismatch is returned when the input width differs from the
	// width the model was fitted on.
	ErrFeatureMismatch = errors.New("feature count mismatch")

	// ErrInvalidInput is returned for NaN or infinite inputs.
	ErrInvalidInput = errors.New("invalid model input")

	// ErrUnknownKind is returned when no decoder is registered for a kind.
	ErrUnknownKind = errors.New("unknown model kind")

	// ErrInvalidModel is returned for structurally invalid artifacts.
	ErrInvalidModel = errors.New("invalid model artifact")
)

// Task is what the model predicts.
type Task string

const (
	TaskRegression     Task = "regression"
	TaskClassification Task = "classification"
)

// Model is a fitted estimator.
type Model interface {
	Kind() string
	NumFeatures() int
	NumOutputs() int
	Predict(x []float64) ([]float64, error)
}

// Decoder builds a Model from its JSON document.
type Decoder func(data []byte) (Model, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Decoder{}
)

// Register adds a decoder for kind, replacing any existing one.
func Register(kind string, dec Decoder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = dec
}

// Kinds returns the registered kinds, sorted.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func init() {
	Register(KindTreeEnsemble, decodeTreeEnsemble)
	Register(KindLinear, decodeLinear)
}

// Decode parses a model document.
func Decode(data []byte) (Model, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	registryMu.RLock()
	dec, ok := registry[head.Kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, head.Kind)
	}
	return dec(data)
}

// Load reads and decodes a model file.
func Load(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func checkInput(x []float64, want int) error {
	if len(x) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(x), want)
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: feature %d is %v", ErrInvalidInput, i, v)
		}
	}
	return nil
}

// argmax returns the index of the largest value; ties go to the lowest index.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func parseTask(t Task) (Task, error) {
	switch t {
	case TaskRegression, TaskClassification:
		return t, nil
	case "":
		return TaskRegression, nil
	default:
		return "", fmt.Errorf("%w: unknown task %q", ErrInvalidModel, t)
	}
}
