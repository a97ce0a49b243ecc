// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

// Package metrics declares the Prometheus collectors exported on /metrics.
//
// All collectors are registered on the default registry through promauto at
// package init. Callers use the Record* helpers rather than touching the
// collectors directly so label sets stay consistent.
//
// Metric families:
//
//   - api_*: request count, latency and in-flight requests per route pattern
//   - prediction_*: pipeline outcomes and per-stage latency
//   - model_*: model invocations per backend, model and outcome
//   - dataset_*: historical lookups and dataset size
//   - prediction_cache_*: response cache hits and misses
//   - artifact_*: bundle reloads and load timestamp
//   - circuit_breaker_*: remote model server breaker state
//   - history_*: prediction history writes
package metrics
