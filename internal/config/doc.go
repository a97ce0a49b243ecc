// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

// Package config loads and validates Pitwall configuration.
//
// Configuration is layered with Koanf v2, highest priority last:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file: CONFIG_PATH, ./config.yaml, /etc/pitwall/config.yaml
//  3. Environment variables, mapped through an explicit allow-list
//
// Unknown environment variables are ignored so that the host environment
// cannot leak into the configuration tree.
//
// # Environment Variables
//
// Server:
//   - HTTP_HOST, HTTP_PORT (default 8000), HTTP_TIMEOUT, ENVIRONMENT
//   - MAX_REQUEST_BYTES: request body limit for prediction endpoints
//
// Dataset:
//   - DATASET_PATH: historical race CSV (default final_data_clean.csv)
//   - DATASET_DB_PATH: DuckDB file, empty for in-memory (default)
//   - DATASET_MAX_MEMORY, DATASET_THREADS
//
// Artifacts:
//   - ARTIFACTS_DIR and the *_FILE overrides for each artifact
//   - ARTIFACTS_WATCH, ARTIFACTS_WATCH_INTERVAL
//
// Inference:
//   - INFERENCE_BACKEND: local or remote
//   - INFERENCE_REMOTE_URL, INFERENCE_TIMEOUT, INFERENCE_RATE_LIMIT, INFERENCE_RATE_BURST
//
// Cache and history:
//   - PREDICTION_CACHE_ENABLED, PREDICTION_CACHE_TTL, PREDICTION_CACHE_MAX
//   - HISTORY_BACKEND: none, memory, badger
//   - HISTORY_PATH, HISTORY_MEMORY_CAPACITY, HISTORY_MAX_LIST_LIMIT, HISTORY_GC_INTERVAL
//
// Security and logging:
//   - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT, CORS_ORIGINS
//   - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
package config
