// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

// Package inference runs the three strategy models.
//
// A Backend evaluates a named model on one feature vector:
//
//   - LocalBackend evaluates exported estimator artifacts in-process, always
//     using the bundle that is current when the call starts.
//   - RemoteBackend calls a model server speaking the predict protocol
//     (POST {base}/v1/models/{name}:predict, {"instances": [[...]]}). It is
//     guarded by a gobreaker circuit breaker, an optional client-side rate
//     limiter and a per-call timeout.
package inference
