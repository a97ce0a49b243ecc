// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package history

import (
	"context"
	"sync"

	"github.com/tomtom215/pitwall/internal/config"
	"github.com/tomtom215/pitwall/internal/models"
)

// MemoryStore keeps the most recent records in a ring buffer.
type MemoryStore struct {
	mu    sync.RWMutex
	ring  []*models.PredictionRecord
	next  int // slot for the next write
	count int
	byID  map[string]*models.PredictionRecord
}

// NewMemoryStore creates a ring of the given capacity (minimum 1).
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryStore{
		ring: make([]*models.PredictionRecord, capacity),
		byID: make(map[string]*models.PredictionRecord, capacity),
	}
}

func (m *MemoryStore) Append(ctx context.Context, rec *models.PredictionRecord) error {
	prepare(rec)
	stored := *rec

	m.mu.Lock()
	defer m.mu.Unlock()

	if old := m.ring[m.next]; old != nil {
		delete(m.byID, old.ID)
	}
	m.ring[m.next] = &stored
	m.byID[stored.ID] = &stored
	m.next = (m.next + 1) % len(m.ring)
	if m.count < len(m.ring) {
		m.count++
	}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.PredictionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (m *MemoryStore) List(ctx context.Context, limit int) ([]*models.PredictionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > m.count {
		limit = m.count
	}
	out := make([]*models.PredictionRecord, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.ring)) % len(m.ring)
		rec := *m.ring[idx]
		out = append(out, &rec)
	}
	return out, nil
}

// Len returns the number of records held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

func (m *MemoryStore) Name() string { return config.HistoryMemory }

func (m *MemoryStore) Close() error { return nil }
