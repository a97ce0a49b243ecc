// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/pitwall/internal/config"
	"github.com/tomtom215/pitwall/internal/middleware"
)

// defaultMaxBodyBytes applies when the server config sets no limit.
const defaultMaxBodyBytes = 64 << 10

// compressionLevel is the gzip level for API responses.
const compressionLevel = 5

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	maxBodyBytes  int64
}

// NewRouter creates a Router. cfg may be nil in tests.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	maxBody := int64(defaultMaxBodyBytes)
	if cfg != nil {
		mwConfig = ChiMiddlewareConfigFromSecurity(cfg.Security)
		if cfg.Server.MaxRequestBytes > 0 {
			maxBody = cfg.Server.MaxRequestBytes
		}
	}
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
		maxBodyBytes:  maxBody,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chiMiddleware(middleware.AccessLog))
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	// Legacy contract
	r.With(
		router.chiMiddleware.RateLimitLegacy(),
		chiMiddleware(middleware.MaxBody(router.maxBodyBytes)),
	).Post("/predict", router.handler.LegacyPredict)

	// Health endpoints: permissive rate limiting for monitoring
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chimiddleware.Compress(compressionLevel))

		r.Route("/predictions", func(r chi.Router) {
			r.With(chiMiddleware(middleware.MaxBody(router.maxBodyBytes))).Post("/", router.handler.CreatePrediction)
			r.Get("/", router.handler.ListPredictions)
			r.Get("/{id}", router.handler.GetPrediction)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/years", router.handler.CatalogYears)
			r.Get("/events", router.handler.CatalogEvents)
			r.Get("/teams", router.handler.CatalogTeams)
			r.Get("/drivers", router.handler.CatalogDrivers)
		})

		r.Get("/models", router.handler.Models)
		r.Post("/models/reload", router.handler.ReloadModels)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
