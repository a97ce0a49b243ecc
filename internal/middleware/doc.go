// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

// Package middleware provides net/http middleware shared by the API router.
//
// Middleware here uses the func(http.HandlerFunc) http.HandlerFunc shape; the
// api package adapts it to chi with chiMiddleware.
//
//   - RequestID: X-Request-ID propagation plus request and correlation IDs in
//     the logging context
//   - PrometheusMetrics: request count, latency and in-flight gauge, labelled
//     by chi route pattern so path parameters do not explode cardinality
//   - MaxBody: request body size limit
//   - AccessLog: one structured zerolog line per request
package middleware
