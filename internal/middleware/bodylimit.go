// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package middleware

import "net/http"

// MaxBody limits request bodies to limit bytes. Reads past the limit fail with
// *http.MaxBytesError, which handlers report as 413 in their own response
// format. A declared Content-Length over the limit is not rejected up front.
func MaxBody(limit int64) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next(w, r)
		}
	}
}
