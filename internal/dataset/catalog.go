// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/pitwall/internal/metrics"
)

// Years returns the distinct event years, ascending.
func (db *DB) Years(ctx context.Context) ([]int, error) {
	start := time.Now()
	defer func() { metrics.RecordDatasetQuery("catalog_years", time.Since(start)) }()

	query := fmt.Sprintf("SELECT DISTINCT CAST(%[1]s AS BIGINT) AS y FROM %[2]s WHERE %[1]s IS NOT NULL ORDER BY y",
		quoteIdent(ColumnYear), quoteIdent(db.table))
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog years: %w", err)
	}
	defer closeQuietly(rows)

	years := []int{}
	for rows.Next() {
		var y int64
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("catalog years scan: %w", err)
		}
		years = append(years, int(y))
	}
	return years, rows.Err()
}

// Events returns the events held in year, sorted by name.
func (db *DB) Events(ctx context.Context, year int) ([]string, error) {
	return db.distinct(ctx, "catalog_events", ColumnEvent,
		[]string{ColumnYear}, int64(year))
}

// Teams returns the teams entered in an event.
func (db *DB) Teams(ctx context.Context, year int, event string) ([]string, error) {
	return db.distinct(ctx, "catalog_teams", ColumnTeam,
		[]string{ColumnYear, ColumnEvent}, int64(year), event)
}

// Drivers returns the drivers a team entered in an event.
func (db *DB) Drivers(ctx context.Context, year int, event, team string) ([]string, error) {
	return db.distinct(ctx, "catalog_drivers", ColumnDriver,
		[]string{ColumnYear, ColumnEvent, ColumnTeam}, int64(year), event, team)
}

// distinct returns sorted distinct non-null values of column filtered by
// equality on each of where.
func (db *DB) distinct(ctx context.Context, op, column string, where []string, args ...interface{}) ([]string, error) {
	start := time.Now()
	defer func() { metrics.RecordDatasetQuery(op, time.Since(start)) }()

	query := fmt.Sprintf("SELECT DISTINCT CAST(%[1]s AS VARCHAR) AS v FROM %[2]s WHERE %[1]s IS NOT NULL",
		quoteIdent(column), quoteIdent(db.table))
	for _, w := range where {
		query += fmt.Sprintf(" AND %s = ?", quoteIdent(w))
	}
	query += " ORDER BY v"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer closeQuietly(rows)

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
