// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package preprocess

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
)

var (
	// ErrUnknownLabel is returned when a label was not seen at fit time.
	ErrUnknownLabel = errors.New("unknown label")

	// ErrUnknownCode is returned when a code does not map to a class.
	ErrUnknownCode = errors.New("unknown class code")

	// ErrMissingFeature is returned when a scaler feature is absent from the record.
	ErrMissingFeature = errors.New("missing feature")

	// ErrNonNumeric is returned when a feature value cannot be read as a number.
	ErrNonNumeric = errors.New("non-numeric feature")

	// ErrInvalidArtifact is returned for malformed encoder or scaler files.
	ErrInvalidArtifact = errors.New("invalid preprocessing artifact")
)

// LabelEncoder maps categorical labels to their index in a sorted class list.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// NewLabelEncoder builds an encoder from the fitted class list. Classes must be
// unique; they are kept in the given order, which for exported encoders is
// already sorted.
func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := idx[c]; dup {
			return nil, fmt.Errorf("%w: duplicate class %q", ErrInvalidArtifact, c)
		}
		idx[c] = i
	}
	cp := make([]string, len(classes))
	copy(cp, classes)
	return &LabelEncoder{classes: cp, index: idx}, nil
}

// Classes returns the fitted classes.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// Transform returns the code for label.
func (e *LabelEncoder) Transform(label string) (int, error) {
	code, ok := e.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return code, nil
}

// InverseTransform returns the label for a code. Model outputs arrive as
// floats, so the code must be integral.
func (e *LabelEncoder) InverseTransform(code float64) (string, error) {
	if math.IsNaN(code) || code != math.Trunc(code) || code < 0 || int(code) >= len(e.classes) {
		return "", fmt.Errorf("%w: %v", ErrUnknownCode, code)
	}
	return e.classes[int(code)], nil
}

// Encoders holds one LabelEncoder per categorical column.
type Encoders struct {
	byColumn map[string]*LabelEncoder
}

// NewEncoders builds Encoders from column -> classes.
func NewEncoders(classes map[string][]string) (*Encoders, error) {
	enc := &Encoders{byColumn: make(map[string]*LabelEncoder, len(classes))}
	for col, cls := range classes {
		le, err := NewLabelEncoder(cls)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		enc.byColumn[col] = le
	}
	return enc, nil
}

// LoadEncoders reads label_encoders.json.
func LoadEncoders(path string) (*Encoders, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read encoders: %w", err)
	}
	return ParseEncoders(data)
}

// ParseEncoders decodes the label_encoders.json document.
func ParseEncoders(data []byte) (*Encoders, error) {
	var classes map[string][]string
	if err := json.Unmarshal(data, &classes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("%w: no encoders", ErrInvalidArtifact)
	}
	return NewEncoders(classes)
}

// Get returns the encoder for column.
func (e *Encoders) Get(column string) (*LabelEncoder, bool) {
	le, ok := e.byColumn[column]
	return le, ok
}

// Columns returns the encoded column names, sorted.
func (e *Encoders) Columns() []string {
	cols := make([]string, 0, len(e.byColumn))
	for c := range e.byColumn {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Encode returns a copy of rec with every encoded column present in rec
// replaced by its class code. Columns the record does not carry (the target
// "Compound" for instance) are skipped.
func (e *Encoders) Encode(rec *Record) (*Record, error) {
	out := rec.Clone()
	for _, col := range e.Columns() {
		v, ok := out.Get(col)
		if !ok {
			continue
		}
		code, err := e.byColumn[col].Transform(labelString(v))
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", col, err)
		}
		out.Set(col, float64(code))
	}
	return out, nil
}

// labelString renders a raw value the way the encoder saw it at fit time.
// Integral floats lose the ".0" so a year column read as 2023.0 matches "2023".
func labelString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
