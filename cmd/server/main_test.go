// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tomtom215/pitwall/internal/artifacts"
	"github.com/tomtom215/pitwall/internal/config"
	"github.com/tomtom215/pitwall/internal/supervisor"
)

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		backend string
		want    string
	}{
		{config.BackendLocal, "local"},
		{config.BackendRemote, "remote"},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			t.Parallel()
			cfg := &config.Config{Inference: config.InferenceConfig{
				Backend:             tt.backend,
				RemoteURL:           "http://models.internal:8501",
				Timeout:             time.Second,
				BreakerFailureRatio: 0.5,
				BreakerTimeout:      time.Second,
			}}
			store := artifacts.NewStore(config.ArtifactsConfig{Dir: t.TempDir()}, true)
			if got := newBackend(cfg, store).Name(); got != tt.want {
				t.Errorf("newBackend(%q).Name() = %q, want %q", tt.backend, got, tt.want)
			}
		})
	}
}

// blockingService runs until its context is canceled.
type blockingService struct{}

func (blockingService) Serve(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingService) String() string { return "blocking" }

func TestAwaitShutdown_ReturnsAfterCancel(t *testing.T) {
	t.Parallel()

	tree, err := supervisor.NewSupervisorTree(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		supervisor.TreeConfig{ShutdownTimeout: time.Second},
	)
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	tree.AddAPIService(blockingService{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	done := make(chan error, 1)
	go func() { done <- awaitShutdown(ctx, errCh) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("awaitShutdown() = %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("awaitShutdown still blocked after cancel")
	}
}

func TestAwaitShutdown_TreeStoppedOnItsOwn(t *testing.T) {
	t.Parallel()

	treeErr := errors.New("root supervisor terminated")
	errCh := make(chan error, 1)
	errCh <- treeErr

	done := make(chan error, 1)
	go func() { done <- awaitShutdown(context.Background(), errCh) }()

	select {
	case err := <-done:
		if !errors.Is(err, treeErr) {
			t.Errorf("awaitShutdown() = %v, want %v", err, treeErr)
		}
	case <-time.After(time.Second):
		t.Fatal("awaitShutdown did not return")
	}
}
