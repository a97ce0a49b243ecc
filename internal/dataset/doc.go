// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

// Package dataset serves lookups against the historical race CSV.
//
// The CSV is loaded once into DuckDB with read_csv_auto. A _row_id column
// records each row's position in the file so that "first matching row" means
// the same thing it did when the models were trained on the file.
//
// Key columns (eventYear, EventName, Team, Driver) must exist in the file;
// every other column is carried through to the returned record untouched.
package dataset
