// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package config

import (
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Dataset   DatasetConfig   `koanf:"dataset"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Inference InferenceConfig `koanf:"inference"`
	Cache     CacheConfig     `koanf:"cache"`
	History   HistoryConfig   `koanf:"history"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxRequestBytes int64         `koanf:"max_request_bytes"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// DatasetConfig describes the historical race dataset used for feature lookup.
type DatasetConfig struct {
	// Path is the CSV file the models were trained from.
	Path string `koanf:"path"`

	// DBPath is the DuckDB database file. Empty keeps the table in memory,
	// which is the normal mode since the CSV is re-read at startup anyway.
	DBPath string `koanf:"db_path"`

	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
	Table     string `koanf:"table"`
}

// ArtifactsConfig locates the exported model artifacts.
type ArtifactsConfig struct {
	Dir          string `koanf:"dir"`
	PitStopsFile string `koanf:"pitstops_file"`
	PitLapFile   string `koanf:"pitlap_file"`
	TireFile     string `koanf:"tire_file"`
	ScalerFile   string `koanf:"scaler_file"`
	EncodersFile string `koanf:"encoders_file"`

	// Watch enables the supervised artifact watcher, which reloads the bundle
	// when any artifact file changes on disk.
	Watch         bool          `koanf:"watch"`
	WatchInterval time.Duration `koanf:"watch_interval"`
}

// Path resolves an artifact file name against Dir. Absolute names are kept.
func (a ArtifactsConfig) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.Dir, name)
}

// InferenceConfig selects where the three models are evaluated.
type InferenceConfig struct {
	// Backend is "local" (evaluate exported artifacts in-process) or
	// "remote" (call a model server over HTTP).
	Backend string `koanf:"backend"`

	RemoteURL string        `koanf:"remote_url"`
	Timeout   time.Duration `koanf:"timeout"`

	// RateLimit caps outgoing model-server calls per second; 0 disables.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// Circuit breaker settings for the remote backend.
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
	BreakerInterval     time.Duration `koanf:"breaker_interval"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
}

// CacheConfig controls the prediction response cache.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries"`
}

// HistoryConfig controls where prediction records are kept.
type HistoryConfig struct {
	Backend        string        `koanf:"backend"` // none, memory, badger
	Path           string        `koanf:"path"`
	MemoryCapacity int           `koanf:"memory_capacity"`
	MaxListLimit   int           `koanf:"max_list_limit"`
	GCInterval     time.Duration `koanf:"gc_interval"` // badger value log GC
}

// SecurityConfig holds HTTP hardening settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json (production) or console (development).
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Load loads configuration from defaults, optional config file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
