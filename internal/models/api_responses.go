// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package models

import (
	"time"
)

// APIResponse is the envelope used by every /api/v1 endpoint.
//
// Status is "success" or "error". Data holds the payload on success and
// Error the details on failure.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"id": "6f1c...", "prediction": {...}},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 12}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "NOT_FOUND", "message": "No matching race found in the dataset."},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries timing and cache information for a response.
//
// Cached responses report QueryTimeMS as 0 and Cached as true.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// APIError is the error body of an APIResponse.
//
// Common codes:
//   - VALIDATION_ERROR: invalid request body or parameters
//   - NOT_FOUND: no dataset row or history record
//   - PREDICTION_ERROR: encoding, scaling or model failure
//   - SERVICE_UNAVAILABLE: artifacts not loaded or model server down
//   - RATE_LIMIT_EXCEEDED: too many requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// LegacyError is the {"detail": "..."} body returned by POST /predict.
type LegacyError struct {
	Detail string `json:"detail"`
}

// HealthStatus reports the state of the service and its dependencies.
type HealthStatus struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	Uptime      float64           `json:"uptime_seconds"`
	Checks      map[string]string `json:"checks,omitempty"`
	DatasetRows int64             `json:"dataset_rows"`
	Fingerprint string            `json:"artifact_fingerprint,omitempty"`
	Backend     string            `json:"inference_backend"`
}
