// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

/*
Package strategy runs the race-strategy prediction pipeline.

A prediction is built in stages:

 1. lookup: the first historical row matching eventYear, EventName, Team
    and Driver
 2. overlay: meanAirTemp and Rainfall from the request replace the row's
    values
 3. encode: categorical columns become label codes
 4. scale: the scaler's feature columns become the model input vector
 5. pitstops: the count model's first output, truncated and clamped at 0
 6. pitlap: the lap model's outputs sorted ascending, cut to the count
 7. tire: for every lap, the compound model on the vector plus the lap,
    decoded with the Compound encoder

The count reported always equals the number of laps reported; when the lap
model returns fewer values than the count, the count is lowered. Each
stage's duration is exported as prediction_stage_duration_seconds.

Results are cached per input and artifact fingerprint, and every served
prediction is appended to the history store.
*/
package strategy
