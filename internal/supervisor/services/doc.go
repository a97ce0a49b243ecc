// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

/*
Package services adapts Pitwall components to suture.Service.

HTTPServerService turns the blocking ListenAndServe of an *http.Server into
a context-aware Serve with graceful shutdown. The artifact watcher and the
history GC loop implement Serve themselves and are added to the tree
directly.
*/
package services
