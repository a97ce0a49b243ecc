// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/pitwall/internal/config"
	"github.com/tomtom215/pitwall/internal/logging"
	"github.com/tomtom215/pitwall/internal/metrics"
)

// maxErrorBodySize limits how much of an error response is read.
const maxErrorBodySize = 64 * 1024

const breakerName = "model-server"

type predictRequest struct {
	Instances [][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
	Error       string            `json:"error,omitempty"`
}

// RemoteBackend calls an HTTP model server.
type RemoteBackend struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]float64]
}

// NewRemoteBackend builds a remote backend from cfg. client may be nil.
func NewRemoteBackend(cfg *config.InferenceConfig, client *http.Client) *RemoteBackend {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        32,
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	return &RemoteBackend{
		baseURL: strings.TrimRight(cfg.RemoteURL, "/"),
		client:  client,
		timeout: cfg.Timeout,
		limiter: limiter,
		cb:      newBreaker(cfg),
	}
}

// newBreaker opens after BreakerFailureRatio failures over at least
// BreakerMinRequests calls.
func newBreaker(cfg *config.InferenceConfig) *gobreaker.CircuitBreaker[[]float64] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(0)

	minRequests := cfg.BreakerMinRequests
	ratio := cfg.BreakerFailureRatio

	return gobreaker.NewCircuitBreaker[[]float64](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= ratio
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("Opening model server circuit")
			}
			return shouldTrip
		},
		IsSuccessful: func(err error) bool {
			// caller mistakes and cancellations say nothing about server health
			return err == nil || errors.Is(err, errClient) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})
}

// errClient marks 4xx responses.
var errClient = errors.New("model server rejected request")

// Name returns "remote".
func (b *RemoteBackend) Name() string { return "remote" }

// ModelIdentity returns the model server base URL. Predictions cached for
// one server are never served for another.
func (b *RemoteBackend) ModelIdentity() string { return b.baseURL }

// State returns the circuit breaker state as a string.
func (b *RemoteBackend) State() string {
	return stateToString(b.cb.State())
}

// Predict calls the model server for model on x.
func (b *RemoteBackend) Predict(ctx context.Context, model Name, x []float64) ([]float64, error) {
	start := time.Now()
	out, err := b.execute(ctx, model, x)
	metrics.RecordModelInvocation(b.Name(), string(model), time.Since(start), err)
	return out, err
}

func (b *RemoteBackend) execute(ctx context.Context, model Name, x []float64) ([]float64, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	out, err := b.cb.Execute(func() ([]float64, error) {
		return b.call(ctx, model, x)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(float64(b.cb.Counts().ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(0)
	return out, nil
}

func (b *RemoteBackend) call(ctx context.Context, model Name, x []float64) ([]float64, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	body, err := json.Marshal(predictRequest{Instances: [][]float64{x}})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/models/%s:predict", b.baseURL, url.PathEscape(string(model)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s model request failed: %w", model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := readBodyForError(resp.Body)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %s model status %d: %s", errClient, model, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("%s model request failed with status %d: %s", model, resp.StatusCode, msg)
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", model, err)
	}
	if pr.Error != "" {
		return nil, fmt.Errorf("%s model error: %s", model, pr.Error)
	}
	if len(pr.Predictions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPrediction, model)
	}
	out, err := decodePrediction(pr.Predictions[0])
	if err != nil {
		return nil, fmt.Errorf("%s prediction: %w", model, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPrediction, model)
	}
	return out, nil
}

// decodePrediction accepts either a scalar or a list of numbers, since model
// servers return single-output models as bare values.
func decodePrediction(raw json.RawMessage) ([]float64, error) {
	var list []float64
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var scalar float64
	if err := json.Unmarshal(raw, &scalar); err != nil {
		return nil, fmt.Errorf("unexpected prediction %s", string(raw))
	}
	return []float64{scalar}, nil
}

func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	return strings.TrimSpace(string(body))
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
