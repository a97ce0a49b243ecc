// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/pitwall/internal/config"
	"github.com/tomtom215/pitwall/internal/logging"
	"github.com/tomtom215/pitwall/internal/metrics"
)

// Key column names in the historical CSV.
const (
	ColumnYear   = "eventYear"
	ColumnEvent  = "EventName"
	ColumnTeam   = "Team"
	ColumnDriver = "Driver"

	rowIDColumn = "_row_id"
)

var (
	// ErrNoMatch is returned when no row matches a lookup key.
	ErrNoMatch = errors.New("no matching race found")

	// ErrMissingColumn is returned when the CSV lacks a key column.
	ErrMissingColumn = errors.New("dataset is missing a required column")
)

// Key identifies a driver's race.
type Key struct {
	Year   int
	Event  string
	Team   string
	Driver string
}

// Stats describes the loaded dataset.
type Stats struct {
	Path     string    `json:"path"`
	Rows     int64     `json:"rows"`
	Columns  int       `json:"columns"`
	LoadedAt time.Time `json:"loaded_at"`
}

// DB is the DuckDB-backed historical dataset.
type DB struct {
	conn    *sql.DB
	table   string
	columns []string
	stats   Stats
}

// Open loads the CSV at cfg.Path into DuckDB.
func Open(ctx context.Context, cfg *config.DatasetConfig) (*DB, error) {
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("dataset file: %w", err)
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	if cfg.DBPath != "" {
		if dir := filepath.Dir(cfg.DBPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = ":memory:"
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "512MB"
	}

	// insertion order must be preserved for _row_id to follow the file
	connStr := fmt.Sprintf("%s?threads=%d&max_memory=%s&preserve_insertion_order=true&autoinstall_known_extensions=false&autoload_known_extensions=false",
		dbPath, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, table: cfg.Table}
	if err := db.load(ctx, cfg.Path); err != nil {
		closeQuietly(conn)
		return nil, err
	}

	logging.Info().
		Str("path", cfg.Path).
		Int64("rows", db.stats.Rows).
		Int("columns", db.stats.Columns).
		Msg("Historical dataset loaded")

	return db, nil
}

func (db *DB) load(ctx context.Context, path string) error {
	start := time.Now()
	defer func() { metrics.RecordDatasetQuery("load", time.Since(start)) }()

	create := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT row_number() OVER () - 1 AS %s, * FROM read_csv_auto(%s, header = true)",
		quoteIdent(db.table), rowIDColumn, quoteLiteral(path))
	if _, err := db.conn.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to load dataset %s: %w", path, err)
	}

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf("SELECT * EXCLUDE (%s) FROM %s LIMIT 0", rowIDColumn, quoteIdent(db.table)))
	if err != nil {
		return fmt.Errorf("failed to describe dataset: %w", err)
	}
	cols, err := rows.Columns()
	closeQuietly(rows)
	if err != nil {
		return fmt.Errorf("failed to read dataset columns: %w", err)
	}

	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	for _, required := range []string{ColumnYear, ColumnEvent, ColumnTeam, ColumnDriver} {
		if !have[required] {
			return fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var count int64
	if err := db.conn.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM %s", quoteIdent(db.table))).Scan(&count); err != nil {
		return fmt.Errorf("failed to count dataset rows: %w", err)
	}

	db.columns = cols
	db.stats = Stats{Path: path, Rows: count, Columns: len(cols), LoadedAt: time.Now()}
	metrics.DatasetRows.Set(float64(count))
	return nil
}

// Columns returns the dataset columns in file order.
func (db *DB) Columns() []string {
	out := make([]string, len(db.columns))
	copy(out, db.columns)
	return out
}

// Stats returns row and column counts of the loaded dataset.
func (db *DB) Stats() Stats {
	return db.stats
}

// Ping checks the DuckDB connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close releases the DuckDB connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func closeQuietly(c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		logging.Debug().Err(err).Msg("close failed")
	}
}

// quoteIdent double-quotes a SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral single-quotes a SQL string. Table functions like read_csv_auto
// do not accept bound parameters for the file name.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
