// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/pitwall/internal/config"
	"github.com/tomtom215/pitwall/internal/models"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("prediction record not found")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history store closed")

// Store persists prediction records.
type Store interface {
	// Append stores rec. An empty ID is filled with a new UUID and a zero
	// CreatedAt with the current time.
	Append(ctx context.Context, rec *models.PredictionRecord) error
	Get(ctx context.Context, id string) (*models.PredictionRecord, error)
	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]*models.PredictionRecord, error)
	Name() string
	Close() error
}

// New builds the store selected by cfg.Backend.
func New(cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case config.HistoryNone, "":
		return Noop{}, nil
	case config.HistoryMemory:
		return NewMemoryStore(cfg.MemoryCapacity), nil
	case config.HistoryBadger:
		return OpenBadgerStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

// prepare fills in the ID and timestamp of a new record.
func prepare(rec *models.PredictionRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

// Noop discards records.
type Noop struct{}

func (Noop) Append(ctx context.Context, rec *models.PredictionRecord) error {
	prepare(rec)
	return nil
}

func (Noop) Get(ctx context.Context, id string) (*models.PredictionRecord, error) {
	return nil, ErrNotFound
}

func (Noop) List(ctx context.Context, limit int) ([]*models.PredictionRecord, error) {
	return []*models.PredictionRecord{}, nil
}

func (Noop) Name() string { return config.HistoryNone }

func (Noop) Close() error { return nil }
