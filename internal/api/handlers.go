// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package api

import (
	"context"
	"time"

	"github.com/tomtom215/pitwall/internal/artifacts"
	"github.com/tomtom215/pitwall/internal/config"
	"github.com/tomtom215/pitwall/internal/dataset"
	"github.com/tomtom215/pitwall/internal/history"
	"github.com/tomtom215/pitwall/internal/models"
)

// Predictor runs the strategy pipeline.
type Predictor interface {
	Predict(ctx context.Context, in models.PredictionInput) (*models.PredictionRecord, error)
	Backend() string
}

// Catalog answers the historical dataset queries.
type Catalog interface {
	Years(ctx context.Context) ([]int, error)
	Events(ctx context.Context, year int) ([]string, error)
	Teams(ctx context.Context, year int, event string) ([]string, error)
	Drivers(ctx context.Context, year int, event, team string) ([]string, error)
	Ping(ctx context.Context) error
	Stats() dataset.Stats
}

// ArtifactStore exposes the loaded artifact bundle.
type ArtifactStore interface {
	Current() *artifacts.Bundle
	Reload() (*artifacts.Bundle, error)
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_predict.go: legacy and v1 predictions, history
//   - handlers_catalog.go: dataset catalog
//   - handlers_models.go: artifact info and reload
//   - handlers_health.go: health and probes
type Handler struct {
	predictor Predictor
	catalog   Catalog
	artifacts ArtifactStore
	history   history.Store
	config    *config.Config
	version   string
	startTime time.Time
}

// HandlerDeps groups the collaborators of a Handler.
type HandlerDeps struct {
	Predictor Predictor
	Catalog   Catalog
	Artifacts ArtifactStore
	History   history.Store
	Config    *config.Config
	Version   string
}

// NewHandler creates a Handler. A nil History uses history.Noop.
func NewHandler(deps HandlerDeps) *Handler {
	h := deps.History
	if h == nil {
		h = history.Noop{}
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		predictor: deps.Predictor,
		catalog:   deps.Catalog,
		artifacts: deps.Artifacts,
		history:   h,
		config:    deps.Config,
		version:   version,
		startTime: time.Now(),
	}
}
