// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package artifacts

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/pitwall/internal/config"
	"github.com/tomtom215/pitwall/internal/estimator"
	"github.com/tomtom215/pitwall/internal/inference"
	"github.com/tomtom215/pitwall/internal/logging"
	"github.com/tomtom215/pitwall/internal/metrics"
)

// ErrNotLoaded is returned before the first successful load.
var ErrNotLoaded = errors.New("artifacts not loaded")

// Store holds the current Bundle.
type Store struct {
	cfg        config.ArtifactsConfig
	withModels bool
	current    atomic.Pointer[Bundle]

	// reloadMu serializes reloads and guards seen; readers never take it.
	reloadMu sync.Mutex
	seen     map[string]FileInfo

	callbacksMu sync.RWMutex
	callbacks   []func(*Bundle)
}

// NewStore creates an empty store. withModels loads the three model files;
// leave it false when models are served remotely.
func NewStore(cfg config.ArtifactsConfig, withModels bool) *Store {
	return &Store{cfg: cfg, withModels: withModels}
}

// Open creates a store and performs the initial load.
func Open(cfg config.ArtifactsConfig, withModels bool) (*Store, error) {
	s := NewStore(cfg, withModels)
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the bundle in service, or nil before the first load.
func (s *Store) Current() *Bundle {
	return s.current.Load()
}

// Model returns the named model from the current bundle.
func (s *Store) Model(name inference.Name) (estimator.Model, bool) {
	b := s.current.Load()
	if b == nil {
		return nil, false
	}
	m, ok := b.Models[name]
	return m, ok
}

// OnReload registers fn to run after every successful reload.
func (s *Store) OnReload(fn func(*Bundle)) {
	s.callbacksMu.Lock()
	defer s.callbacksMu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// Reload reads all artifacts and publishes them if every file is valid. On
// failure the previous bundle stays current.
func (s *Store) Reload() (*Bundle, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	s.seen = s.snapshot()
	b, err := loadBundle(&s.cfg, s.withModels)
	if err != nil {
		metrics.RecordArtifactReload(err, time.Time{})
		logging.Error().Err(err).Str("dir", s.cfg.Dir).Msg("Artifact load failed, keeping previous bundle")
		return nil, err
	}

	prev := s.current.Swap(b)
	metrics.RecordArtifactReload(nil, b.LoadedAt)

	ev := logging.Info().
		Str("dir", s.cfg.Dir).
		Str("fingerprint", b.Fingerprint).
		Int("models", len(b.Models))
	if prev != nil {
		ev = ev.Str("previous_fingerprint", prev.Fingerprint)
	}
	ev.Msg("Artifacts loaded")

	s.callbacksMu.RLock()
	cbs := make([]func(*Bundle), len(s.callbacks))
	copy(cbs, s.callbacks)
	s.callbacksMu.RUnlock()
	for _, fn := range cbs {
		fn(b)
	}
	return b, nil
}

// Changed reports whether any artifact file differs in size, modification
// time or presence from what the last reload attempt saw. Comparing against
// the last attempt rather than the current bundle keeps a broken file from
// being retried on every poll.
func (s *Store) Changed() bool {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if s.seen == nil {
		return true
	}
	now := s.snapshot()
	if len(now) != len(s.seen) {
		return true
	}
	for role, cur := range now {
		prev, ok := s.seen[role]
		if !ok || prev.Path != cur.Path || prev.Size != cur.Size || !prev.ModTime.Equal(cur.ModTime) {
			return true
		}
	}
	return false
}

// snapshot stats every artifact file. Missing files are left out.
func (s *Store) snapshot() map[string]FileInfo {
	paths := files(&s.cfg, s.withModels)
	out := make(map[string]FileInfo, len(paths))
	for role, path := range paths {
		st, err := os.Stat(path)
		if err != nil {
			continue
		}
		out[role] = FileInfo{Path: path, Size: st.Size(), ModTime: st.ModTime()}
	}
	return out
}
