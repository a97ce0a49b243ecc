// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package config

import (
	"fmt"
	"strings"
	"time"
)

// Rate limit bounds.
const (
	MinRateLimitReqs   = 1
	MaxRateLimitReqs   = 100000
	MinRateLimitWindow = time.Second
	MaxRateLimitWindow = time.Hour
)

// Inference backends.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// History backends.
const (
	HistoryNone   = "none"
	HistoryMemory = "memory"
	HistoryBadger = "badger"
)

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateArtifacts(); err != nil {
		return err
	}
	if err := c.validateInference(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.MaxRequestBytes <= 0 {
		return fmt.Errorf("MAX_REQUEST_BYTES must be positive")
	}
	return nil
}

func (c *Config) validateDataset() error {
	if strings.TrimSpace(c.Dataset.Path) == "" {
		return fmt.Errorf("DATASET_PATH is required")
	}
	if c.Dataset.Threads < 0 {
		return fmt.Errorf("DATASET_THREADS must be non-negative")
	}
	if !isIdentifier(c.Dataset.Table) {
		return fmt.Errorf("DATASET_TABLE must be a plain identifier, got %q", c.Dataset.Table)
	}
	return nil
}

func (c *Config) validateArtifacts() error {
	if strings.TrimSpace(c.Artifacts.Dir) == "" {
		return fmt.Errorf("ARTIFACTS_DIR is required")
	}
	if c.Artifacts.ScalerFile == "" || c.Artifacts.EncodersFile == "" {
		return fmt.Errorf("SCALER_FILE and LABEL_ENCODERS_FILE are required")
	}
	if c.Inference.Backend == BackendLocal &&
		(c.Artifacts.PitStopsFile == "" || c.Artifacts.PitLapFile == "" || c.Artifacts.TireFile == "") {
		return fmt.Errorf("model files are required when INFERENCE_BACKEND is local")
	}
	if c.Artifacts.Watch && c.Artifacts.WatchInterval <= 0 {
		return fmt.Errorf("ARTIFACTS_WATCH_INTERVAL must be positive when ARTIFACTS_WATCH is enabled")
	}
	return nil
}

func (c *Config) validateInference() error {
	switch c.Inference.Backend {
	case BackendLocal:
	case BackendRemote:
		if c.Inference.RemoteURL == "" {
			return fmt.Errorf("INFERENCE_REMOTE_URL is required when INFERENCE_BACKEND is remote")
		}
		if err := validateHTTPURL(c.Inference.RemoteURL, "INFERENCE_REMOTE_URL"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("INFERENCE_BACKEND must be local or remote, got %q", c.Inference.Backend)
	}
	if c.Inference.Timeout <= 0 {
		return fmt.Errorf("INFERENCE_TIMEOUT must be positive")
	}
	if c.Inference.RateLimit < 0 {
		return fmt.Errorf("INFERENCE_RATE_LIMIT must be non-negative")
	}
	if c.Inference.RateLimit > 0 && c.Inference.RateBurst < 1 {
		return fmt.Errorf("INFERENCE_RATE_BURST must be at least 1")
	}
	if c.Inference.BreakerFailureRatio <= 0 || c.Inference.BreakerFailureRatio > 1 {
		return fmt.Errorf("INFERENCE_BREAKER_FAILURE_RATIO must be in (0, 1]")
	}
	if c.Inference.BreakerTimeout <= 0 {
		return fmt.Errorf("INFERENCE_BREAKER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("PREDICTION_CACHE_TTL must be positive when the cache is enabled")
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("PREDICTION_CACHE_MAX must be non-negative")
	}
	return nil
}

func (c *Config) validateHistory() error {
	switch c.History.Backend {
	case HistoryNone:
	case HistoryMemory:
		if c.History.MemoryCapacity < 1 {
			return fmt.Errorf("HISTORY_MEMORY_CAPACITY must be at least 1")
		}
	case HistoryBadger:
		if strings.TrimSpace(c.History.Path) == "" {
			return fmt.Errorf("HISTORY_PATH is required when HISTORY_BACKEND is badger")
		}
		if c.History.GCInterval <= 0 {
			return fmt.Errorf("HISTORY_GC_INTERVAL must be positive")
		}
	default:
		return fmt.Errorf("HISTORY_BACKEND must be none, memory or badger, got %q", c.History.Backend)
	}
	if c.History.MaxListLimit < 1 {
		return fmt.Errorf("HISTORY_MAX_LIST_LIMIT must be at least 1")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < MinRateLimitReqs || c.Security.RateLimitReqs > MaxRateLimitReqs {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d, got %d",
			MinRateLimitReqs, MaxRateLimitReqs, c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow < MinRateLimitWindow || c.Security.RateLimitWindow > MaxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %s and %s, got %s",
			MinRateLimitWindow, MaxRateLimitWindow, c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error (got %q)", c.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("LOG_FORMAT must be json or console (got %q)", c.Logging.Format)
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
