// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

/*
Package models defines the data structures shared by the strategy
pipeline, the prediction history and the HTTP API.

Key types:

  - PredictionInput: race context supplied by a client
  - StrategyPrediction: pit-stop count, pit laps and tire strategy
  - PredictionRecord: a stored prediction with its provenance
  - APIResponse, APIError, Metadata: the /api/v1 envelope
  - LegacyError: the {"detail": ...} body of POST /predict

StrategyPrediction uses the key names "Total Pit Stops", "Pit Stop Laps"
and "Tire Strategy" so existing clients can decode it unchanged.
*/
package models
