// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

// Package logging provides the process-wide zerolog logger for Pitwall.
//
// Every package logs through this one: the global helpers (Info, Warn, Error,
// ...) for lifecycle messages, and Ctx for anything tied to a request so the
// request_id and correlation_id fields travel with each line.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("addr", addr).Msg("HTTP server listening")
//	logging.Ctx(r.Context()).Warn().Err(err).Msg("Prediction failed")
//
// Libraries that only speak log/slog (sutureslog for the supervisor tree) are
// bridged with NewSlogLogger, which writes through the same zerolog logger.
//
// # Configuration
//
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include file:line in every entry (default: false)
package logging
