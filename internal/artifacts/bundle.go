// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package artifacts

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"os"
	"time"

	"github.com/tomtom215/pitwall/internal/config"
	"github.com/tomtom215/pitwall/internal/estimator"
	"github.com/tomtom215/pitwall/internal/inference"
	"github.com/tomtom215/pitwall/internal/preprocess"
)

// CompoundColumn is the encoder used to decode tire model output.
const CompoundColumn = "Compound"

// ErrInconsistent is returned when artifacts disagree with each other.
var ErrInconsistent = errors.New("inconsistent artifacts")

// FileInfo describes one loaded artifact file.
type FileInfo struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// ModelInfo describes one loaded model.
type ModelInfo struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	NumFeatures int    `json:"num_features"`
	NumOutputs  int    `json:"num_outputs"`
}

// Bundle is one consistent set of artifacts.
type Bundle struct {
	Encoders    *preprocess.Encoders
	Scaler      *preprocess.StandardScaler
	Models      map[inference.Name]estimator.Model
	Files       map[string]FileInfo
	LoadedAt    time.Time
	Fingerprint string
}

// Compound returns the tire compound encoder.
func (b *Bundle) Compound() *preprocess.LabelEncoder {
	le, _ := b.Encoders.Get(CompoundColumn)
	return le
}

// ModelInfo lists loaded models in pipeline order.
func (b *Bundle) ModelInfo() []ModelInfo {
	out := make([]ModelInfo, 0, len(b.Models))
	for _, name := range inference.Names {
		m, ok := b.Models[name]
		if !ok {
			continue
		}
		out = append(out, ModelInfo{
			Name:        string(name),
			Kind:        m.Kind(),
			NumFeatures: m.NumFeatures(),
			NumOutputs:  m.NumOutputs(),
		})
	}
	return out
}

// files returns the artifact paths keyed by role.
func files(cfg *config.ArtifactsConfig, withModels bool) map[string]string {
	f := map[string]string{
		"encoders": cfg.Path(cfg.EncodersFile),
		"scaler":   cfg.Path(cfg.ScalerFile),
	}
	if withModels {
		f[string(inference.PitStops)] = cfg.Path(cfg.PitStopsFile)
		f[string(inference.PitLap)] = cfg.Path(cfg.PitLapFile)
		f[string(inference.Tire)] = cfg.Path(cfg.TireFile)
	}
	return f
}

// loadBundle reads every artifact. withModels is false when models are served
// remotely and only the preprocessing files are local.
func loadBundle(cfg *config.ArtifactsConfig, withModels bool) (*Bundle, error) {
	paths := files(cfg, withModels)
	b := &Bundle{
		Models:   make(map[inference.Name]estimator.Model, 3),
		Files:    make(map[string]FileInfo, len(paths)),
		LoadedAt: time.Now(),
	}

	h := sha256.New()
	read := func(role string) ([]byte, error) {
		path := paths[role]
		data, err := readFile(path, h)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", role, err)
		}
		st, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", role, err)
		}
		b.Files[role] = FileInfo{Path: path, Size: st.Size(), ModTime: st.ModTime()}
		return data, nil
	}

	data, err := read("encoders")
	if err != nil {
		return nil, err
	}
	if b.Encoders, err = preprocess.ParseEncoders(data); err != nil {
		return nil, fmt.Errorf("encoders: %w", err)
	}

	if data, err = read("scaler"); err != nil {
		return nil, err
	}
	if b.Scaler, err = preprocess.ParseScaler(data); err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}

	if withModels {
		for _, name := range inference.Names {
			if data, err = read(string(name)); err != nil {
				return nil, err
			}
			m, err := estimator.Decode(data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			b.Models[name] = m
		}
	}

	if err := b.validate(); err != nil {
		return nil, err
	}
	b.Fingerprint = hex.EncodeToString(h.Sum(nil))[:16]
	return b, nil
}

func readFile(path string, h hash.Hash) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	_, _ = h.Write(data)
	return data, nil
}

// validate checks that the files fit together: the tire model decodes with
// the Compound encoder and every model accepts the scaler's output width
// (plus the lap for the tire model).
func (b *Bundle) validate() error {
	if b.Compound() == nil {
		return fmt.Errorf("%w: encoders have no %s column", ErrInconsistent, CompoundColumn)
	}
	width := b.Scaler.NumFeatures()
	want := map[inference.Name]int{
		inference.PitStops: width,
		inference.PitLap:   width,
		inference.Tire:     width + 1,
	}
	for name, m := range b.Models {
		if m.NumFeatures() != want[name] {
			return fmt.Errorf("%w: %s model expects %d features, scaler produces %d",
				ErrInconsistent, name, m.NumFeatures(), want[name])
		}
	}
	return nil
}
