// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/pitwall/internal/models"
)

const (
	checkOK   = "ok"
	checkFail = "unavailable"
)

// checks pings the dataset and inspects the artifact bundle.
func (h *Handler) checks(r *http.Request) (map[string]string, bool) {
	result := map[string]string{"dataset": checkOK, "artifacts": checkOK}
	healthy := true

	if h.catalog == nil || h.catalog.Ping(r.Context()) != nil {
		result["dataset"] = checkFail
		healthy = false
	}
	if h.artifacts == nil || h.artifacts.Current() == nil {
		result["artifacts"] = checkFail
		healthy = false
	}
	return result, healthy
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks, healthy := h.checks(r)

	status := "healthy"
	if !healthy {
		status = "degraded"
	}

	health := models.HealthStatus{
		Status:  status,
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
		Checks:  checks,
	}
	if h.predictor != nil {
		health.Backend = h.predictor.Backend()
	}
	if h.catalog != nil {
		health.DatasetRows = h.catalog.Stats().Rows
	}
	if h.artifacts != nil {
		if b := h.artifacts.Current(); b != nil {
			health.Fingerprint = b.Fingerprint
		}
	}

	respondSuccess(w, r, health, start, false)
}

// HealthLive handles liveness probe requests.
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	})
}

// HealthReady handles readiness probe requests.
// Returns 200 OK only once the dataset answers and artifacts are loaded.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	checks, ready := h.checks(r)

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status": status,
			"checks": checks,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	})
}
