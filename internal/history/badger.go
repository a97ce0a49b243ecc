// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/pitwall/internal/config"
	"github.com/tomtom215/pitwall/internal/logging"
	"github.com/tomtom215/pitwall/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	recordKeyPrefix = "prediction:id:"
	timeKeyPrefix   = "prediction:ts:"
)

// gcDiscardRatio is passed to RunValueLogGC.
const gcDiscardRatio = 0.5

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	closed atomic.Bool
}

// NewBadgerStore wraps an open database. The store owns db and closes it.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadgerStore opens (or creates) a database under path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	logging.Info().Str("path", path).Msg("Prediction history opened")
	return NewBadgerStore(db), nil
}

func recordKey(id string) []byte {
	return []byte(recordKeyPrefix + id)
}

func timeKey(rec *models.PredictionRecord) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", timeKeyPrefix, rec.CreatedAt.UnixNano(), rec.ID))
}

// Append stores a record and its time index entry in one transaction.
func (s *BadgerStore) Append(ctx context.Context, rec *models.PredictionRecord) error {
	if s.closed.Load() {
		return ErrClosed
	}
	prepare(rec)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal prediction record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(rec.ID), data); err != nil {
			return fmt.Errorf("set prediction record: %w", err)
		}
		if err := txn.Set(timeKey(rec), []byte(rec.ID)); err != nil {
			return fmt.Errorf("set time index: %w", err)
		}
		return nil
	})
}

// Get retrieves a record by ID.
func (s *BadgerStore) Get(ctx context.Context, id string) (*models.PredictionRecord, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var rec models.PredictionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return getRecord(txn, id, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func getRecord(txn *badger.Txn, id string, rec *models.PredictionRecord) error {
	item, err := txn.Get(recordKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get prediction record: %w", err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, rec)
	})
}

// List walks the time index backwards.
func (s *BadgerStore) List(ctx context.Context, limit int) ([]*models.PredictionRecord, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	out := make([]*models.PredictionRecord, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(timeKeyPrefix)
		// Reverse iteration starts at the largest key <= seek, so seek
		// past every timestamp under the prefix.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read time index: %w", err)
			}

			var rec models.PredictionRecord
			if err := getRecord(txn, string(id), &rec); err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}
			out = append(out, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list prediction records: %w", err)
	}
	return out, nil
}

// RunGC reclaims value log space until badger reports nothing to rewrite.
func (s *BadgerStore) RunGC() error {
	if s.closed.Load() {
		return ErrClosed
	}
	for {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

func (s *BadgerStore) Name() string { return config.HistoryBadger }

// Close closes the database. Later calls are no-ops.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}
