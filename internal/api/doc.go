// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

/*
Package api exposes the prediction pipeline over HTTP using the chi router.

Endpoints:

	POST /predict                      legacy contract used by the web UI
	POST /api/v1/predictions           prediction in the standard envelope
	GET  /api/v1/predictions           recent predictions (?limit=)
	GET  /api/v1/predictions/{id}      one stored prediction
	GET  /api/v1/catalog/years         distinct event years
	GET  /api/v1/catalog/events        ?year=
	GET  /api/v1/catalog/teams         ?year=&event=
	GET  /api/v1/catalog/drivers       ?year=&event=&team=
	GET  /api/v1/models                loaded artifacts
	POST /api/v1/models/reload         reload artifacts from disk
	GET  /api/v1/health                service health
	GET  /api/v1/health/live           liveness probe
	GET  /api/v1/health/ready          readiness probe
	GET  /metrics                      Prometheus metrics

POST /predict keeps the response body {"Total Pit Stops", "Pit Stop Laps",
"Tire Strategy"} and reports errors as {"detail": "..."} with 404 when no
race matches, 422 for invalid input and 500 for anything else.

Every /api/v1 endpoint answers with models.APIResponse.

Middleware, outermost first: request ID with logging context, real IP,
access log, panic recovery, CORS (go-chi/cors), Prometheus request metrics,
then per-group rate limiting (go-chi/httprate), compression and a request
body limit.
*/
package api
