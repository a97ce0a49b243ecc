// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/pitwall/internal/artifacts"
	"github.com/tomtom215/pitwall/internal/logging"
)

// ArtifactsInfo describes the artifact bundle in service.
type ArtifactsInfo struct {
	Fingerprint string                        `json:"fingerprint"`
	LoadedAt    time.Time                     `json:"loaded_at"`
	Backend     string                        `json:"inference_backend"`
	Models      []artifacts.ModelInfo         `json:"models"`
	Encoders    []string                      `json:"encoders"`
	Features    []string                      `json:"features"`
	Files       map[string]artifacts.FileInfo `json:"files"`
}

func (h *Handler) artifactsInfo(b *artifacts.Bundle) ArtifactsInfo {
	info := ArtifactsInfo{
		Fingerprint: b.Fingerprint,
		LoadedAt:    b.LoadedAt,
		Backend:     h.predictor.Backend(),
		Models:      b.ModelInfo(),
		Files:       b.Files,
	}
	if b.Encoders != nil {
		info.Encoders = b.Encoders.Columns()
	}
	if b.Scaler != nil {
		info.Features = append([]string(nil), b.Scaler.FeatureNames...)
	}
	return info
}

// Models handles GET /api/v1/models.
func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	b := h.artifacts.Current()
	if b == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, "Artifacts not loaded", nil)
		return
	}
	respondSuccess(w, r, h.artifactsInfo(b), start, false)
}

// ReloadModels handles POST /api/v1/models/reload. On failure the previous
// bundle stays in service.
func (h *Handler) ReloadModels(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	b, err := h.artifacts.Reload()
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeArtifacts, err.Error(), err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Str("fingerprint", b.Fingerprint).
		Msg("Artifacts reloaded on request")
	respondSuccess(w, r, h.artifactsInfo(b), start, false)
}
