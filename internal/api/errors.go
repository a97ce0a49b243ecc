// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/pitwall/internal/artifacts"
	"github.com/tomtom215/pitwall/internal/history"
	"github.com/tomtom215/pitwall/internal/inference"
	"github.com/tomtom215/pitwall/internal/strategy"
	"github.com/tomtom215/pitwall/internal/validation"
)

// Error codes used in APIError.Code.
const (
	ErrCodeValidation       = validation.ErrorCode
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodePrediction       = "PREDICTION_ERROR"
	ErrCodeUnavailable      = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimit        = "RATE_LIMIT_EXCEEDED"
	ErrCodeBodyTooLarge     = "REQUEST_TOO_LARGE"
	ErrCodeDataset          = "DATASET_ERROR"
	ErrCodeArtifacts        = "ARTIFACT_ERROR"
	ErrCodeHistory          = "HISTORY_ERROR"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// NoMatchDetail is the message returned when no historical race matches.
const NoMatchDetail = "No matching race found in the dataset."

// predictionStatus maps a pipeline error to a status and error code.
func predictionStatus(err error) (int, string) {
	switch {
	case errors.Is(err, strategy.ErrNoMatch), errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, artifacts.ErrNotLoaded),
		errors.Is(err, inference.ErrUnavailable),
		errors.Is(err, inference.ErrModelNotLoaded):
		return http.StatusServiceUnavailable, ErrCodeUnavailable
	default:
		return http.StatusInternalServerError, ErrCodePrediction
	}
}
