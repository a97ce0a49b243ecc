// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/pitwall/internal/history"
	"github.com/tomtom215/pitwall/internal/logging"
	"github.com/tomtom215/pitwall/internal/models"
	"github.com/tomtom215/pitwall/internal/strategy"
	"github.com/tomtom215/pitwall/internal/validation"
)

// defaultListLimit is used when GET /api/v1/predictions has no limit.
const defaultListLimit = 50

// LegacyPredict handles POST /predict.
//
// The body and response match the contract of the original web UI:
// success returns the bare StrategyPrediction and failures {"detail": ...}.
func (h *Handler) LegacyPredict(w http.ResponseWriter, r *http.Request) {
	var in models.PredictionInput
	if err := decodeJSON(r, &in); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			respondDetail(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if apiErr := validateRequest(&in); apiErr != nil {
		respondDetail(w, http.StatusUnprocessableEntity, apiErr.Message)
		return
	}

	rec, err := h.predictor.Predict(r.Context(), in)
	if err != nil {
		if errors.Is(err, strategy.ErrNoMatch) {
			respondDetail(w, http.StatusNotFound, NoMatchDetail)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("Legacy prediction failed")
		respondDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec.Prediction)
}

// CreatePrediction handles POST /api/v1/predictions.
func (h *Handler) CreatePrediction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in models.PredictionInput
	if err := decodeJSON(r, &in); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodeBodyTooLarge, err.Error(), nil)
			return
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidJSON, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&in); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	rec, err := h.predictor.Predict(r.Context(), in)
	if err != nil {
		status, code := predictionStatus(err)
		message := err.Error()
		if errors.Is(err, strategy.ErrNoMatch) {
			message = NoMatchDetail
		}
		respondError(w, r, status, code, message, err)
		return
	}

	respondSuccess(w, r, models.PredictionResult{
		ID:         rec.ID,
		Prediction: rec.Prediction,
		Cached:     rec.Cached,
	}, start, rec.Cached)
}

// listPredictionsRequest is validated against the configured maximum.
type listPredictionsRequest struct {
	Limit int `json:"limit" validate:"min=1"`
}

// ListPredictions handles GET /api/v1/predictions.
func (h *Handler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, ok := getIntParam(r, "limit", defaultListLimit)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "limit must be an integer", nil)
		return
	}
	req := listPredictionsRequest{Limit: limit}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	if max := h.maxListLimit(); req.Limit > max {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation,
			fmt.Sprintf("limit must be at most %d", max), nil)
		return
	}

	records, err := h.history.List(r.Context(), req.Limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeHistory, "Failed to list predictions", err)
		return
	}

	respondSuccess(w, r, map[string]interface{}{
		"backend":     h.history.Name(),
		"count":       len(records),
		"predictions": records,
	}, start, false)
}

// GetPrediction handles GET /api/v1/predictions/{id}.
func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id := chi.URLParam(r, "id")
	if err := validation.GetValidator().Var(id, "required,uuid"); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "id must be a UUID", nil)
		return
	}

	rec, err := h.history.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Prediction not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeHistory, "Failed to load prediction", err)
		return
	}

	respondSuccess(w, r, rec, start, false)
}

func (h *Handler) maxListLimit() int {
	if h.config != nil && h.config.History.MaxListLimit > 0 {
		return h.config.History.MaxListLimit
	}
	return 500
}
