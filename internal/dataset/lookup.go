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
	"math/big"
	"time"

	"github.com/tomtom215/pitwall/internal/metrics"
	"github.com/tomtom215/pitwall/internal/preprocess"
)

// Lookup returns the first row, in file order, matching key.
func (db *DB) Lookup(ctx context.Context, key Key) (*preprocess.Record, error) {
	start := time.Now()
	defer func() { metrics.RecordDatasetQuery("lookup", time.Since(start)) }()

	query := fmt.Sprintf(
		"SELECT * EXCLUDE (%s) FROM %s WHERE %s = ? AND %s = ? AND %s = ? AND %s = ? ORDER BY %s LIMIT 1",
		rowIDColumn, quoteIdent(db.table),
		quoteIdent(ColumnYear), quoteIdent(ColumnEvent), quoteIdent(ColumnTeam), quoteIdent(ColumnDriver),
		rowIDColumn)

	rows, err := db.conn.QueryContext(ctx, query, int64(key.Year), key.Event, key.Team, key.Driver)
	if err != nil {
		metrics.RecordDatasetLookup("error")
		return nil, fmt.Errorf("lookup query: %w", err)
	}
	defer closeQuietly(rows)

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			metrics.RecordDatasetLookup("error")
			return nil, fmt.Errorf("lookup rows: %w", err)
		}
		metrics.RecordDatasetLookup("miss")
		return nil, ErrNoMatch
	}

	rec, err := scanRecord(rows)
	if err != nil {
		metrics.RecordDatasetLookup("error")
		return nil, err
	}
	metrics.RecordDatasetLookup("hit")
	return rec, nil
}

func scanRecord(rows *sql.Rows) (*preprocess.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("lookup columns: %w", err)
	}
	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("lookup scan: %w", err)
	}

	rec := preprocess.NewRecord()
	for i, col := range cols {
		rec.Set(col, normalize(vals[i]))
	}
	return rec, nil
}

// normalize converts driver values to the small set of types Record carries.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case int:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	case bool:
		return x
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case *big.Int:
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	case interface{ Float64() float64 }:
		return x.Float64()
	default:
		return fmt.Sprint(x)
	}
}

// IsNoMatch reports whether err is a lookup miss.
func IsNoMatch(err error) bool {
	return errors.Is(err, ErrNoMatch)
}
