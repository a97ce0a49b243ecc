// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package preprocess

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func sampleRecord() *Record {
	r := NewRecord()
	r.Set("eventYear", int64(2023))
	r.Set("EventName", "Bahrain Grand Prix")
	r.Set("Team", "Ferrari")
	r.Set("Driver", "LEC")
	r.Set("meanAirTemp", 27.5)
	r.Set("Rainfall", false)
	return r
}

func TestLabelEncoder(t *testing.T) {
	t.Parallel()

	le, err := NewLabelEncoder([]string{"HARD", "INTERMEDIATE", "MEDIUM", "SOFT", "WET"})
	if err != nil {
		t.Fatal(err)
	}

	code, err := le.Transform("MEDIUM")
	if err != nil || code != 2 {
		t.Errorf("Transform(MEDIUM) = %d, %v", code, err)
	}
	if _, err := le.Transform("ULTRASOFT"); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("unknown label err = %v", err)
	}

	tests := []struct {
		code    float64
		want    string
		wantErr bool
	}{
		{0, "HARD", false},
		{4, "WET", false},
		{5, "", true},
		{-1, "", true},
		{1.5, "", true},
		{math.NaN(), "", true},
	}
	for _, tt := range tests {
		got, err := le.InverseTransform(tt.code)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownCode) {
				t.Errorf("InverseTransform(%v) err = %v, want ErrUnknownCode", tt.code, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("InverseTransform(%v) = %q, %v", tt.code, got, err)
		}
	}

	if _, err := NewLabelEncoder([]string{"A", "A"}); !errors.Is(err, ErrInvalidArtifact) {
		t.Errorf("duplicate classes err = %v", err)
	}
}

func TestEncodersEncode(t *testing.T) {
	t.Parallel()

	enc, err := ParseEncoders([]byte(`{
		"Team": ["Ferrari", "McLaren", "Red Bull Racing"],
		"Driver": ["HAM", "LEC", "VER"],
		"EventName": ["Bahrain Grand Prix", "Monaco Grand Prix"],
		"Compound": ["HARD", "MEDIUM", "SOFT"]
	}`))
	if err != nil {
		t.Fatal(err)
	}

	in := sampleRecord()
	out, err := enc.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	for col, want := range map[string]float64{"Team": 0, "Driver": 1, "EventName": 0} {
		got, _ := out.Get(col)
		if got != want {
			t.Errorf("%s = %v, want %v", col, got, want)
		}
	}
	if out.Has("Compound") {
		t.Error("Encode must not add columns the record lacks")
	}
	if v, _ := in.Get("Team"); v != "Ferrari" {
		t.Errorf("Encode mutated the input record: Team = %v", v)
	}
	if got := out.Columns(); len(got) != in.Len() || got[0] != "eventYear" {
		t.Errorf("column order changed: %v", got)
	}

	unknown := sampleRecord()
	unknown.Set("Team", "Brawn GP")
	if _, err := enc.Encode(unknown); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("unknown team err = %v", err)
	}
}

func TestEncodersNumericLabels(t *testing.T) {
	t.Parallel()
	enc, err := NewEncoders(map[string][]string{"eventYear": {"2022", "2023"}})
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecord()
	rec.Set("eventYear", 2023.0)
	out, err := enc.Encode(rec)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := out.Get("eventYear"); v != 1.0 {
		t.Errorf("eventYear = %v, want 1", v)
	}
}

func TestParseEncodersErrors(t *testing.T) {
	t.Parallel()
	for _, doc := range []string{`[`, `{}`, `{"Team":["A","A"]}`} {
		if _, err := ParseEncoders([]byte(doc)); !errors.Is(err, ErrInvalidArtifact) {
			t.Errorf("ParseEncoders(%s) err = %v", doc, err)
		}
	}
}

func TestStandardScaler(t *testing.T) {
	t.Parallel()

	s, err := ParseScaler([]byte(`{
		"feature_names": ["Rainfall", "meanAirTemp", "eventYear"],
		"mean": [0.5, 25, 2020],
		"scale": [0.5, 5, 0]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.NumFeatures() != 3 {
		t.Errorf("NumFeatures = %d", s.NumFeatures())
	}

	got, err := s.Transform(sampleRecord())
	if err != nil {
		t.Fatal(err)
	}
	// Rainfall false -> 0; zero scale divides by one
	want := []float64{-1, 0.5, 3}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("x[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	missing := NewRecord()
	missing.Set("Rainfall", 0.0)
	if _, err := s.Transform(missing); !errors.Is(err, ErrMissingFeature) {
		t.Errorf("missing feature err = %v", err)
	}

	text := sampleRecord()
	text.Set("meanAirTemp", "warm")
	if _, err := s.Transform(text); !errors.Is(err, ErrNonNumeric) {
		t.Errorf("non-numeric err = %v", err)
	}
}

func TestParseScalerErrors(t *testing.T) {
	t.Parallel()
	tests := []string{
		`{`,
		`{"feature_names": [], "mean": [], "scale": []}`,
		`{"feature_names": ["a", "b"], "mean": [1], "scale": [1, 1]}`,
		`{"feature_names": ["a", "a"], "mean": [1, 1], "scale": [1, 1]}`,
	}
	for _, doc := range tests {
		if _, err := ParseScaler([]byte(doc)); !errors.Is(err, ErrInvalidArtifact) {
			t.Errorf("ParseScaler(%s) err = %v", doc, err)
		}
	}
}

func TestLoadFromFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	encPath := filepath.Join(dir, "label_encoders.json")
	scalerPath := filepath.Join(dir, "scaler.json")
	if err := os.WriteFile(encPath, []byte(`{"Team":["Ferrari"]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(scalerPath, []byte(`{"feature_names":["Team"],"mean":[0],"scale":[1]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadEncoders(encPath); err != nil {
		t.Errorf("LoadEncoders: %v", err)
	}
	if _, err := LoadScaler(scalerPath); err != nil {
		t.Errorf("LoadScaler: %v", err)
	}
	if _, err := LoadScaler(filepath.Join(dir, "nope.json")); err == nil {
		t.Error("expected error for missing scaler")
	}
}

func TestRecordMarshalJSON(t *testing.T) {
	t.Parallel()
	r := NewRecord()
	r.Set("b", 1.5)
	r.Set("a", "x")
	r.Set("nan", math.NaN())
	data, err := r.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"b":1.5,"a":"x","nan":null}` {
		t.Errorf("MarshalJSON = %s", data)
	}
}
