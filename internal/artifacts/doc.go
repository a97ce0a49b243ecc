// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

// Package artifacts loads the fitted preprocessing and model files as one
// consistent Bundle and swaps it atomically on reload.
//
// A reload reads and validates every file before publishing. If any file is
// missing or malformed, or the files disagree on feature width, the previous
// bundle stays in service and the error is returned. In-flight predictions
// keep the bundle they started with.
//
// Watcher polls file modification times and triggers reloads; it implements
// suture.Service so it runs under the supervisor tree.
package artifacts
