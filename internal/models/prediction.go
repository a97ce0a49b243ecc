// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package models

import "time"

// PredictionInput is the race context a client supplies. The four key
// fields select a historical row; the two conditions overwrite it.
//
// EventYear, MeanAirTemp and Rainfall are pointers so that an absent value
// fails validation while 0 stays a legal value. The year is not range
// checked: a year outside the dataset is simply not found.
type PredictionInput struct {
	EventYear   *int     `json:"eventYear" validate:"required"`
	EventName   string   `json:"EventName" validate:"required,notblank,max=200"`
	Team        string   `json:"Team" validate:"required,notblank,max=200"`
	Driver      string   `json:"Driver" validate:"required,notblank,max=200"`
	MeanAirTemp *float64 `json:"meanAirTemp" validate:"required"`
	Rainfall    *float64 `json:"Rainfall" validate:"required"`
}

// TireStint is the compound fitted at one pit stop.
type TireStint struct {
	Lap      int    `json:"Lap"`
	Compound string `json:"Compound"`
}

// StrategyPrediction is the pipeline result. The JSON keys match the
// response body consumed by the existing web UI.
type StrategyPrediction struct {
	TotalPitStops int         `json:"Total Pit Stops"`
	PitStopLaps   []int       `json:"Pit Stop Laps"`
	TireStrategy  []TireStint `json:"Tire Strategy"`
}

// PredictionRecord is one stored prediction.
type PredictionRecord struct {
	ID          string             `json:"id"`
	CreatedAt   time.Time          `json:"created_at"`
	Input       PredictionInput    `json:"input"`
	Prediction  StrategyPrediction `json:"prediction"`
	Backend     string             `json:"backend"`
	Fingerprint string             `json:"artifact_fingerprint"`
	DurationMS  float64            `json:"duration_ms"`
	Cached      bool               `json:"cached,omitempty"`
	RequestID   string             `json:"request_id,omitempty"`
}

// PredictionResult is returned by POST /api/v1/predictions.
type PredictionResult struct {
	ID         string             `json:"id,omitempty"`
	Prediction StrategyPrediction `json:"prediction"`
	Cached     bool               `json:"cached"`
}
