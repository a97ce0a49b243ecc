// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package models

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestStrategyPrediction_JSONKeys(t *testing.T) {
	t.Parallel()

	p := StrategyPrediction{
		TotalPitStops: 2,
		PitStopLaps:   []int{18, 41},
		TireStrategy: []TireStint{
			{Lap: 18, Compound: "HARD"},
			{Lap: 41, Compound: "MEDIUM"},
		},
	}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got := string(data)
	want := `{"Total Pit Stops":2,"Pit Stop Laps":[18,41],"Tire Strategy":[{"Lap":18,"Compound":"HARD"},{"Lap":41,"Compound":"MEDIUM"}]}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestPredictionInput_Decode(t *testing.T) {
	t.Parallel()

	body := `{"eventYear":2023,"EventName":"Monaco Grand Prix","Team":"Ferrari","Driver":"LEC","meanAirTemp":0,"Rainfall":1}`
	var in PredictionInput
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if in.EventYear == nil || *in.EventYear != 2023 || in.Driver != "LEC" {
		t.Errorf("unexpected input %+v", in)
	}
	if in.MeanAirTemp == nil || *in.MeanAirTemp != 0 {
		t.Errorf("MeanAirTemp = %v, want pointer to 0", in.MeanAirTemp)
	}
	if in.Rainfall == nil || *in.Rainfall != 1 {
		t.Errorf("Rainfall = %v, want pointer to 1", in.Rainfall)
	}
}

func TestAPIResponse_OmitsEmptyError(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(APIResponse{Status: "success", Data: 1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Errorf("success response contains error key: %s", data)
	}
}
