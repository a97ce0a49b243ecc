// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pitwall/config.yaml",
	"/etc/pitwall/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. The artifact file names match
// what the training notebooks export.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxRequestBytes: 64 << 10,
			Environment:     "development",
		},
		Dataset: DatasetConfig{
			Path:      "final_data_clean.csv",
			DBPath:    "",
			MaxMemory: "512MB",
			Threads:   0,
			Table:     "races",
		},
		Artifacts: ArtifactsConfig{
			Dir:           "artifacts",
			PitStopsFile:  "pitstops_model.json",
			PitLapFile:    "pitlap_model.json",
			TireFile:      "tire_model.json",
			ScalerFile:    "scaler.json",
			EncodersFile:  "label_encoders.json",
			Watch:         false,
			WatchInterval: 30 * time.Second,
		},
		Inference: InferenceConfig{
			Backend:             "local",
			RemoteURL:           "",
			Timeout:             5 * time.Second,
			RateLimit:           0,
			RateBurst:           10,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
			BreakerInterval:     time.Minute,
			BreakerTimeout:      30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        10 * time.Minute,
			MaxEntries: 10000,
		},
		History: HistoryConfig{
			Backend:        "memory",
			Path:           "data/history",
			MemoryCapacity: 1000,
			MaxListLimit:   500,
			GCInterval:     10 * time.Minute,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration with the precedence ENV > file > defaults
// and validates the result.
func LoadWithKoanf() (*Config, error) {
	return loadFrom(findConfigFile())
}

// FilePath returns the config file Load would read, or "" when none exists.
func FilePath() string {
	return findConfigFile()
}

// loadFrom layers defaults, the file at configPath (skipped when empty) and
// the environment.
func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields turns comma-separated strings into slices. Values that
// are already slices (from YAML) are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings is the allow-list of environment variables (lower-cased) and
// the koanf path each one sets.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"max_request_bytes":     "server.max_request_bytes",
	"environment":           "server.environment",

	// Dataset
	"dataset_path":       "dataset.path",
	"dataset_db_path":    "dataset.db_path",
	"dataset_max_memory": "dataset.max_memory",
	"dataset_threads":    "dataset.threads",
	"dataset_table":      "dataset.table",

	// Artifacts
	"artifacts_dir":            "artifacts.dir",
	"pitstops_model_file":      "artifacts.pitstops_file",
	"pitlap_model_file":        "artifacts.pitlap_file",
	"tire_model_file":          "artifacts.tire_file",
	"scaler_file":              "artifacts.scaler_file",
	"label_encoders_file":      "artifacts.encoders_file",
	"artifacts_watch":          "artifacts.watch",
	"artifacts_watch_interval": "artifacts.watch_interval",

	// Inference
	"inference_backend":               "inference.backend",
	"inference_remote_url":            "inference.remote_url",
	"inference_timeout":               "inference.timeout",
	"inference_rate_limit":            "inference.rate_limit",
	"inference_rate_burst":            "inference.rate_burst",
	"inference_breaker_min_requests":  "inference.breaker_min_requests",
	"inference_breaker_failure_ratio": "inference.breaker_failure_ratio",
	"inference_breaker_interval":      "inference.breaker_interval",
	"inference_breaker_timeout":       "inference.breaker_timeout",

	// Cache
	"prediction_cache_enabled": "cache.enabled",
	"prediction_cache_ttl":     "cache.ttl",
	"prediction_cache_max":     "cache.max_entries",

	// History
	"history_backend":         "history.backend",
	"history_path":            "history.path",
	"history_memory_capacity": "history.memory_capacity",
	"history_max_list_limit":  "history.max_list_limit",
	"history_gc_interval":     "history.gc_interval",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped names return "" so koanf skips them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile calls callback whenever the config file at path changes.
// Callers are responsible for synchronizing access to the reloaded config.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}

// WatchLogLevel re-reads the config file at path on every change and passes
// the resulting log level to apply. Only logging.level is hot-reloaded; the
// rest of the configuration needs a restart. A file that no longer validates
// is reported through onError and the current level is kept.
func WatchLogLevel(path string, apply func(level string), onError func(error)) error {
	return WatchConfigFile(path, func() {
		cfg, err := loadFrom(path)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		apply(cfg.Logging.Level)
	})
}
