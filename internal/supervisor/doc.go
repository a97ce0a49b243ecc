// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

/*
Package supervisor runs the long-lived Pitwall services under a suture v4
supervisor tree.

	RootSupervisor ("pitwall")
	├── DataSupervisor ("data-layer")
	│   ├── artifact-watcher (if ARTIFACTS_WATCH)
	│   └── history-gc (if HISTORY_BACKEND=badger)
	└── APISupervisor ("api-layer")
	    └── http-server

A failing watcher is restarted with backoff without touching the HTTP
server, and the other way around. Supervisor events are logged through
sutureslog using the zerolog slog adapter from the logging package.

Shutdown is driven by canceling the context passed to Serve or
ServeBackground; services get TreeConfig.ShutdownTimeout to return, and
UnstoppedServiceReport lists any that did not.
*/
package supervisor
