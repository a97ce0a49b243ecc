// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/pitwall/internal/config"
	"github.com/tomtom215/pitwall/internal/models"
)

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	s := NewBadgerStore(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRecord(i int) *models.PredictionRecord {
	year := 2023
	return &models.PredictionRecord{
		CreatedAt: time.Date(2026, 3, 1, 12, 0, i, 0, time.UTC),
		Input: models.PredictionInput{
			EventYear: &year,
			EventName: "Bahrain Grand Prix",
			Team:      "Ferrari",
			Driver:    fmt.Sprintf("D%02d", i),
		},
		Prediction: models.StrategyPrediction{
			TotalPitStops: 1,
			PitStopLaps:   []int{20 + i},
			TireStrategy:  []models.TireStint{{Lap: 20 + i, Compound: "HARD"}},
		},
		Backend: "local",
	}
}

// storeContract runs the behavior every backend must share.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Append(ctx, testRecord(i)); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}

	list, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List len = %d, want 3", len(list))
	}
	for i, want := range []string{"D02", "D01", "D00"} {
		if list[i].Input.Driver != want {
			t.Errorf("List[%d].Driver = %q, want %q", i, list[i].Input.Driver, want)
		}
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List(2): %v", err)
	}
	if len(limited) != 2 || limited[0].Input.Driver != "D02" {
		t.Errorf("List(2) = %d records, first %q", len(limited), limited[0].Input.Driver)
	}

	got, err := s.Get(ctx, list[1].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Input.Driver != "D01" || got.Prediction.PitStopLaps[0] != 21 {
		t.Errorf("Get returned %+v", got)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	storeContract(t, NewMemoryStore(10))
}

func TestBadgerStore(t *testing.T) {
	t.Parallel()
	storeContract(t, newTestBadgerStore(t))
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore(2)
	first := testRecord(0)
	for i, rec := range []*models.PredictionRecord{first, testRecord(1), testRecord(2)} {
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}

	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
	if _, err := s.Get(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("evicted record still present, err = %v", err)
	}
	list, _ := s.List(ctx, 10)
	if len(list) != 2 || list[0].Input.Driver != "D02" || list[1].Input.Driver != "D01" {
		t.Errorf("unexpected list after eviction: %+v", list)
	}
}

func TestAppend_AssignsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	stores := map[string]Store{
		"none":   Noop{},
		"memory": NewMemoryStore(1),
		"badger": newTestBadgerStore(t),
	}
	for name, s := range stores {
		rec := &models.PredictionRecord{}
		if err := s.Append(context.Background(), rec); err != nil {
			t.Fatalf("%s Append: %v", name, err)
		}
		if rec.ID == "" {
			t.Errorf("%s: ID not assigned", name)
		}
		if rec.CreatedAt.IsZero() {
			t.Errorf("%s: CreatedAt not assigned", name)
		}
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore(4)
	rec := testRecord(0)
	if err := s.Append(ctx, rec); err != nil {
		t.Fatalf("Append: %v", err)
	}
	rec.Backend = "changed"

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Backend != "local" {
		t.Errorf("stored record was mutated through caller pointer: %q", got.Backend)
	}
}

func TestBadgerStore_Closed(t *testing.T) {
	t.Parallel()

	s := newTestBadgerStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := s.Append(context.Background(), testRecord(0)); !errors.Is(err, ErrClosed) {
		t.Errorf("Append after Close = %v, want ErrClosed", err)
	}
	if err := s.RunGC(); !errors.Is(err, ErrClosed) {
		t.Errorf("RunGC after Close = %v, want ErrClosed", err)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.HistoryConfig
		want    string
		wantErr bool
	}{
		{"none", config.HistoryConfig{Backend: "none"}, "none", false},
		{"empty means none", config.HistoryConfig{}, "none", false},
		{"memory", config.HistoryConfig{Backend: "memory", MemoryCapacity: 5}, "memory", false},
		{"badger", config.HistoryConfig{Backend: "badger", Path: t.TempDir()}, "badger", false},
		{"unknown", config.HistoryConfig{Backend: "redis"}, "", true},
	}

	for _, tt := range tests {
		s, err := New(tt.cfg)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if s.Name() != tt.want {
			t.Errorf("%s: Name = %q, want %q", tt.name, s.Name(), tt.want)
		}
		_ = s.Close()
	}
}

func TestGCService_StopsOnCancel(t *testing.T) {
	t.Parallel()

	svc := NewGCService(newTestBadgerStore(t), time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop")
	}
	if svc.String() != "history-gc" {
		t.Errorf("String = %q", svc.String())
	}
}

func TestGCService_ClosedStoreIsNotRestarted(t *testing.T) {
	t.Parallel()

	store := newTestBadgerStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	svc := NewGCService(store, time.Millisecond)
	done := make(chan error, 1)
	go func() { done <- svc.Serve(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, suture.ErrDoNotRestart) {
			t.Errorf("Serve returned %v, want suture.ErrDoNotRestart", err)
		}
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Serve returned %v, want it to wrap ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve kept running on a closed store")
	}
}
