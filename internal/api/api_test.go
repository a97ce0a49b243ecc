// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tomtom215/pitwall/internal/artifacts"
	"github.com/tomtom215/pitwall/internal/config"
	"github.com/tomtom215/pitwall/internal/dataset"
	"github.com/tomtom215/pitwall/internal/history"
	"github.com/tomtom215/pitwall/internal/models"
	"github.com/tomtom215/pitwall/internal/strategy"
)

const validBody = `{"eventYear":2023,"EventName":"Bahrain Grand Prix","Team":"Ferrari","Driver":"LEC","meanAirTemp":28.4,"Rainfall":0}`

type fakePredictor struct {
	mu    sync.Mutex
	err   error
	pred  models.StrategyPrediction
	store history.Store
	seen  []models.PredictionInput
}

func (f *fakePredictor) Predict(ctx context.Context, in models.PredictionInput) (*models.PredictionRecord, error) {
	f.mu.Lock()
	f.seen = append(f.seen, in)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	rec := &models.PredictionRecord{Input: in, Prediction: f.pred, Backend: "local"}
	if f.store != nil {
		if err := f.store.Append(ctx, rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (f *fakePredictor) Backend() string { return "local" }

type fakeCatalog struct {
	pingErr error
	args    []interface{}
}

func (f *fakeCatalog) Years(ctx context.Context) ([]int, error) { return []int{2022, 2023}, nil }

func (f *fakeCatalog) Events(ctx context.Context, year int) ([]string, error) {
	f.args = []interface{}{year}
	return []string{"Bahrain Grand Prix"}, nil
}

func (f *fakeCatalog) Teams(ctx context.Context, year int, event string) ([]string, error) {
	f.args = []interface{}{year, event}
	return []string{"Ferrari"}, nil
}

func (f *fakeCatalog) Drivers(ctx context.Context, year int, event, team string) ([]string, error) {
	f.args = []interface{}{year, event, team}
	return []string{"LEC", "SAI"}, nil
}

func (f *fakeCatalog) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeCatalog) Stats() dataset.Stats { return dataset.Stats{Rows: 42} }

type fakeArtifacts struct {
	bundle    *artifacts.Bundle
	reloadErr error
	reloads   int
}

func (f *fakeArtifacts) Current() *artifacts.Bundle { return f.bundle }

func (f *fakeArtifacts) Reload() (*artifacts.Bundle, error) {
	f.reloads++
	if f.reloadErr != nil {
		return nil, f.reloadErr
	}
	return f.bundle, nil
}

type testServer struct {
	handler   http.Handler
	predictor *fakePredictor
	catalog   *fakeCatalog
	artifacts *fakeArtifacts
	history   *history.MemoryStore
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server:  config.ServerConfig{MaxRequestBytes: 1024},
		History: config.HistoryConfig{MaxListLimit: 20},
		Security: config.SecurityConfig{
			RateLimitReqs:     1000,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: true,
			CORSOrigins:       []string{"https://ui.example.com"},
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	store := history.NewMemoryStore(50)
	ts := &testServer{
		predictor: &fakePredictor{
			store: store,
			pred: models.StrategyPrediction{
				TotalPitStops: 2,
				PitStopLaps:   []int{15, 38},
				TireStrategy: []models.TireStint{
					{Lap: 15, Compound: "HARD"},
					{Lap: 38, Compound: "MEDIUM"},
				},
			},
		},
		catalog:   &fakeCatalog{},
		artifacts: &fakeArtifacts{bundle: &artifacts.Bundle{Fingerprint: "f00d", LoadedAt: time.Now()}},
		history:   store,
	}
	h := NewHandler(HandlerDeps{
		Predictor: ts.predictor,
		Catalog:   ts.catalog,
		Artifacts: ts.artifacts,
		History:   store,
		Config:    cfg,
		Version:   "test",
	})
	ts.handler = NewRouter(h, cfg).SetupChi()
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return resp
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.LegacyError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode detail: %v (body %s)", err, rec.Body.String())
	}
	return body.Detail
}

func TestLegacyPredict_Success(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/predict", validBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"Total Pit Stops", "Pit Stop Laps", "Tire Strategy"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q: %s", key, rec.Body.String())
		}
	}
	if _, ok := body["status"]; ok {
		t.Error("legacy response must not be enveloped")
	}

	in := ts.predictor.seen[0]
	if *in.EventYear != 2023 || in.Driver != "LEC" || *in.MeanAirTemp != 28.4 || *in.Rainfall != 0 {
		t.Errorf("predictor received %+v", in)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID response header")
	}
}

func TestLegacyPredict_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		predictErr error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "no match",
			body:       validBody,
			predictErr: strategy.ErrNoMatch,
			wantStatus: http.StatusNotFound,
			wantDetail: NoMatchDetail,
		},
		{
			name:       "year outside the dataset is looked up",
			body:       `{"eventYear":1900,"EventName":"Bahrain Grand Prix","Team":"Ferrari","Driver":"LEC","meanAirTemp":28.4,"Rainfall":0}`,
			predictErr: strategy.ErrNoMatch,
			wantStatus: http.StatusNotFound,
			wantDetail: NoMatchDetail,
		},
		{
			name:       "year zero is looked up",
			body:       `{"eventYear":0,"EventName":"Bahrain Grand Prix","Team":"Ferrari","Driver":"LEC","meanAirTemp":28.4,"Rainfall":0}`,
			predictErr: strategy.ErrNoMatch,
			wantStatus: http.StatusNotFound,
			wantDetail: NoMatchDetail,
		},
		{
			name:       "missing year",
			body:       `{"EventName":"Bahrain Grand Prix","Team":"Ferrari","Driver":"LEC","meanAirTemp":28.4,"Rainfall":0}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "eventYear",
		},
		{
			name:       "missing rainfall",
			body:       `{"eventYear":2023,"EventName":"Bahrain Grand Prix","Team":"Ferrari","Driver":"LEC","meanAirTemp":28.4}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "Rainfall",
		},
		{
			name:       "malformed JSON",
			body:       `{"eventYear":`,
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "invalid JSON",
		},
		{
			name:       "wrong type",
			body:       `{"eventYear":"next year","EventName":"x","Team":"y","Driver":"z","meanAirTemp":1,"Rainfall":0}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "invalid JSON",
		},
		{
			name:       "pipeline failure carries error text",
			body:       validBody,
			predictErr: errors.New("encode Team: unknown label: \"Williams\""),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "unknown label",
		},
		{
			name:       "body too large",
			body:       `{"EventName":"` + strings.Repeat("x", 2048) + `"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantDetail: "request body too large",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts := newTestServer(t, nil)
			ts.predictor.err = tt.predictErr

			rec := ts.do(http.MethodPost, "/predict", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantDetail != "" {
				if detail := decodeDetail(t, rec); !strings.Contains(detail, tt.wantDetail) {
					t.Errorf("detail = %q, want it to contain %q", detail, tt.wantDetail)
				}
			}
		})
	}
}

func TestCreatePrediction(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/v1/predictions", validBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if resp.Status != "success" {
		t.Fatalf("status = %q", resp.Status)
	}
	data, _ := resp.Data.(map[string]interface{})
	id, _ := data["id"].(string)
	if id == "" {
		t.Fatalf("missing id in %s", rec.Body.String())
	}
	if resp.Metadata.RequestID == "" {
		t.Error("metadata missing request_id")
	}

	// The stored record is reachable by ID.
	get := ts.do(http.MethodGet, "/api/v1/predictions/"+id, "")
	if get.Code != http.StatusOK {
		t.Fatalf("GET status = %d, body %s", get.Code, get.Body.String())
	}
}

func TestCreatePrediction_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		predictErr error
		wantStatus int
		wantCode   string
	}{
		{"no match", validBody, strategy.ErrNoMatch, http.StatusNotFound, ErrCodeNotFound},
		{"artifacts not loaded", validBody, artifacts.ErrNotLoaded, http.StatusServiceUnavailable, ErrCodeUnavailable},
		{"pipeline failure", validBody, errors.New("boom"), http.StatusInternalServerError, ErrCodePrediction},
		{"validation", `{"eventYear":1800,"EventName":" ","Team":"t","Driver":"d","meanAirTemp":1,"Rainfall":0}`, nil, http.StatusBadRequest, ErrCodeValidation},
		{"bad json", `[1,2`, nil, http.StatusBadRequest, ErrCodeInvalidJSON},
		{"body too large", `{"EventName":"` + strings.Repeat("x", 2048) + `"}`, nil, http.StatusRequestEntityTooLarge, ErrCodeBodyTooLarge},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts := newTestServer(t, nil)
			ts.predictor.err = tt.predictErr

			rec := ts.do(http.MethodPost, "/api/v1/predictions", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp := decodeEnvelope(t, rec)
			if resp.Status != "error" || resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestListPredictions(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	for i := 0; i < 3; i++ {
		if rec := ts.do(http.MethodPost, "/predict", validBody); rec.Code != http.StatusOK {
			t.Fatalf("seed prediction status = %d", rec.Code)
		}
	}

	rec := ts.do(http.MethodGet, "/api/v1/predictions?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	data, _ := decodeEnvelope(t, rec).Data.(map[string]interface{})
	if count, _ := data["count"].(float64); count != 2 {
		t.Errorf("count = %v, want 2", data["count"])
	}

	for _, q := range []string{"limit=0", "limit=abc", "limit=21"} {
		if rec := ts.do(http.MethodGet, "/api/v1/predictions?"+q, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestGetPrediction_Errors(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	if rec := ts.do(http.MethodGet, "/api/v1/predictions/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
	rec := ts.do(http.MethodGet, "/api/v1/predictions/6f1c8a52-3b8e-4d37-9a55-2d4f4b7c9e10", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
}

func TestCatalog(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/catalog/years", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("years status = %d", rec.Code)
	}
	years, _ := decodeEnvelope(t, rec).Data.([]interface{})
	if len(years) != 2 {
		t.Errorf("years = %v", years)
	}

	rec = ts.do(http.MethodGet, "/api/v1/catalog/drivers?year=2023&event=Bahrain+Grand+Prix&team=Ferrari", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("drivers status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(ts.catalog.args) != 3 || ts.catalog.args[1] != "Bahrain Grand Prix" || ts.catalog.args[2] != "Ferrari" {
		t.Errorf("catalog args = %v", ts.catalog.args)
	}

	bad := []string{
		"/api/v1/catalog/events",
		"/api/v1/catalog/events?year=abc",
		"/api/v1/catalog/teams?year=2023",
		"/api/v1/catalog/drivers?year=2023&event=Bahrain",
	}
	for _, path := range bad {
		if rec := ts.do(http.MethodGet, path, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestModels(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/models", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data, _ := decodeEnvelope(t, rec).Data.(map[string]interface{})
	if data["fingerprint"] != "f00d" || data["inference_backend"] != "local" {
		t.Errorf("models data = %v", data)
	}

	if rec := ts.do(http.MethodPost, "/api/v1/models/reload", ""); rec.Code != http.StatusOK {
		t.Errorf("reload status = %d", rec.Code)
	}
	ts.artifacts.reloadErr = errors.New("scaler.json: bad")
	if rec := ts.do(http.MethodPost, "/api/v1/models/reload", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("failed reload status = %d, want 500", rec.Code)
	}
	if ts.artifacts.reloads != 2 {
		t.Errorf("reloads = %d, want 2", ts.artifacts.reloads)
	}

	ts.artifacts.bundle = nil
	if rec := ts.do(http.MethodGet, "/api/v1/models", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unloaded status = %d, want 503", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	data, _ := decodeEnvelope(t, rec).Data.(map[string]interface{})
	if data["status"] != "healthy" || data["dataset_rows"] != float64(42) {
		t.Errorf("health = %v", data)
	}

	if rec := ts.do(http.MethodGet, "/api/v1/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/api/v1/health/ready", ""); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d", rec.Code)
	}

	ts.catalog.pingErr = errors.New("closed")
	if rec := ts.do(http.MethodGet, "/api/v1/health/ready", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status with dead dataset = %d, want 503", rec.Code)
	}
	data, _ = decodeEnvelope(t, ts.do(http.MethodGet, "/api/v1/health", "")).Data.(map[string]interface{})
	if data["status"] != "degraded" {
		t.Errorf("health status = %v, want degraded", data["status"])
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, func(cfg *config.Config) {
		cfg.Security.RateLimitDisabled = false
		cfg.Security.RateLimitReqs = 2
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = ts.do(http.MethodGet, "/api/v1/catalog/years", "")
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.Code)
	}
	if resp := decodeEnvelope(t, last); resp.Error == nil || resp.Error.Code != ErrCodeRateLimit {
		t.Errorf("error = %+v", resp.Error)
	}

	for i := 0; i < 3; i++ {
		last = ts.do(http.MethodPost, "/predict", validBody)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("legacy third request status = %d, want 429", last.Code)
	}
	if detail := decodeDetail(t, last); detail == "" {
		t.Error("legacy rate limit response has no detail")
	}
}

func TestRateLimit_MetricUsesRoutePattern(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, func(cfg *config.Config) {
		cfg.Security.RateLimitDisabled = false
		cfg.Security.RateLimitReqs = 1
	})

	ids := []string{
		"0b6f7c1e-8a4d-4e55-9d1c-6a2f3e4b5c60",
		"1c7a8d2f-9b5e-4f66-8e2d-7b3a4f5c6d71",
		"2d8b9e3a-ac6f-4a77-9f3e-8c4b5a6d7e82",
	}
	for _, id := range ids {
		ts.do(http.MethodGet, "/api/v1/predictions/"+id, "")
	}

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	hits := 0.0
	for _, mf := range families {
		if mf.GetName() != "api_rate_limit_hits_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				for _, id := range ids {
					if strings.Contains(lp.GetValue(), id) {
						t.Errorf("endpoint label %q contains a request ID", lp.GetValue())
					}
				}
			}
			hits += m.GetCounter().GetValue()
		}
	}
	if hits < 2 {
		t.Errorf("rate limit hits = %v, want at least 2", hits)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "https://ui.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://ui.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestMetricsAndNotFound(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	if rec := ts.do(http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d", rec.Code)
	}
	rec := ts.do(http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("unknown route error = %+v", resp.Error)
	}
}
