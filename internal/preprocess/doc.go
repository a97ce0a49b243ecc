// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

// Package preprocess turns a historical race record into a model input vector.
//
// Two fitted transforms are loaded from JSON exported at training time:
//
//	label_encoders.json  {"Team": ["Alpine", "Ferrari", ...], "Compound": [...]}
//	scaler.json          {"feature_names": [...], "mean": [...], "scale": [...]}
//
// Encoders.Encode replaces categorical columns with their class index, then
// StandardScaler.Transform emits (x - mean) / scale in feature_names order.
// The scaler's order is the only order that matters; the record's own column
// order and the encoder map's iteration order never reach the vector.
package preprocess
