// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package api

import (
	"net/http"
	"strings"
	"time"
)

// catalogRequest carries the catalog filters. Each endpoint validates only
// the fields it needs.
type catalogRequest struct {
	Year  int    `json:"year" validate:"required,gte=1950,lte=2100"`
	Event string `json:"event" validate:"required,notblank,max=200"`
	Team  string `json:"team" validate:"required,notblank,max=200"`
}

// parseCatalogRequest reads the catalog filters from the query string.
func parseCatalogRequest(r *http.Request) (*catalogRequest, bool, string) {
	year, ok := getIntParam(r, "year", 0)
	if !ok {
		return nil, false, "year must be an integer"
	}
	q := r.URL.Query()
	req := &catalogRequest{
		Year:  year,
		Event: strings.TrimSpace(q.Get("event")),
		Team:  strings.TrimSpace(q.Get("team")),
	}
	return req, true, ""
}

// CatalogYears handles GET /api/v1/catalog/years.
func (h *Handler) CatalogYears(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	years, err := h.catalog.Years(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDataset, "Failed to list years", err)
		return
	}
	respondSuccess(w, r, years, start, false)
}

// CatalogEvents handles GET /api/v1/catalog/events?year=.
func (h *Handler) CatalogEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := h.catalogRequest(w, r, "Year")
	if !ok {
		return
	}
	events, err := h.catalog.Events(r.Context(), req.Year)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDataset, "Failed to list events", err)
		return
	}
	respondSuccess(w, r, events, start, false)
}

// CatalogTeams handles GET /api/v1/catalog/teams?year=&event=.
func (h *Handler) CatalogTeams(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := h.catalogRequest(w, r, "Year", "Event")
	if !ok {
		return
	}
	teams, err := h.catalog.Teams(r.Context(), req.Year, req.Event)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDataset, "Failed to list teams", err)
		return
	}
	respondSuccess(w, r, teams, start, false)
}

// CatalogDrivers handles GET /api/v1/catalog/drivers?year=&event=&team=.
func (h *Handler) CatalogDrivers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := h.catalogRequest(w, r, "Year", "Event", "Team")
	if !ok {
		return
	}
	drivers, err := h.catalog.Drivers(r.Context(), req.Year, req.Event, req.Team)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDataset, "Failed to list drivers", err)
		return
	}
	respondSuccess(w, r, drivers, start, false)
}

// catalogRequest parses and validates the listed struct fields, writing a
// 400 response on failure.
func (h *Handler) catalogRequest(w http.ResponseWriter, r *http.Request, fields ...string) (*catalogRequest, bool) {
	req, ok, msg := parseCatalogRequest(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, msg, nil)
		return nil, false
	}
	if apiErr := validatePartial(req, fields...); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return nil, false
	}
	return req, true
}
