// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

/*
Package main is the entry point for the Pitwall server.

Pitwall serves race-strategy predictions: given a season, event, team and
driver plus the expected air temperature and rainfall, it returns the
predicted number of pit stops, the laps they happen on and the tire compound
fitted at each stop.

# Startup

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Dataset: historical race CSV loaded into DuckDB
 4. Artifacts: label encoders, scaler and, for the local backend, the
    three exported models
 5. Inference backend: local (in-process) or remote (model server behind a
    circuit breaker)
 6. Prediction cache and history store
 7. Supervisor tree and HTTP server

# Supervisor Tree

	RootSupervisor ("pitwall")
	├── DataSupervisor ("data-layer")
	│   ├── artifact-watcher (ARTIFACTS_WATCH=true)
	│   └── history-gc (HISTORY_BACKEND=badger)
	└── APISupervisor ("api-layer")
	    └── http-server

# Example

	export DATASET_PATH=/data/final_data_clean.csv
	export ARTIFACTS_DIR=/data/artifacts
	export HISTORY_BACKEND=badger HISTORY_PATH=/data/history
	./pitwall

	curl -s localhost:8000/predict -d '{"eventYear":2023,"EventName":"Bahrain Grand Prix",
	  "Team":"Ferrari","Driver":"LEC","meanAirTemp":27.5,"Rainfall":0}'

# Signals

SIGINT and SIGTERM cancel the root context. The HTTP server drains for up
to HTTP_SHUTDOWN_TIMEOUT, then the history store and dataset are closed.
*/
package main
