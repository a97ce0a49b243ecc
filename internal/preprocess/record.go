// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package preprocess

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Record is one dataset row: column names in source order and a value per
// column. Values are float64, int64, string, bool or nil.
type Record struct {
	columns []string
	values  map[string]interface{}
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]interface{})}
}

// Set assigns a column, appending it if new.
func (r *Record) Set(column string, value interface{}) {
	if _, ok := r.values[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
}

// Get returns the value of a column.
func (r *Record) Get(column string) (interface{}, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Has reports whether the column exists.
func (r *Record) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// Columns returns the column names in source order.
func (r *Record) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Len returns the number of columns.
func (r *Record) Len() int {
	return len(r.columns)
}

// Clone returns a copy that can be modified independently.
func (r *Record) Clone() *Record {
	c := &Record{
		columns: make([]string, len(r.columns)),
		values:  make(map[string]interface{}, len(r.values)),
	}
	copy(c.columns, r.columns)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// Float returns the column as a float64. Numeric strings are parsed.
func (r *Record) Float(column string) (float64, error) {
	v, ok := r.values[column]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingFeature, column)
	}
	return toFloat(column, v)
}

// MarshalJSON emits the record as an object in column order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(jsonSafe(r.values[col]))
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// jsonSafe maps NaN and Inf to null since JSON cannot carry them.
func jsonSafe(v interface{}) interface{} {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

func toFloat(column string, v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q", ErrNonNumeric, column, x)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("%w: %s is null", ErrNonNumeric, column)
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrNonNumeric, column, v)
	}
}
