// Package forecasttest provides payload fixtures shared by package tests.
package forecasttest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kartoza/recession-dashboard/internal/forecast"
)

// Observations is the number of historical records in Payload
const Observations = 14

// Lagged is the number of trailing records without model predictions
const Lagged = 2

// Payload returns a small valid payload with three models. Observations run
// monthly from 2024-01-31 to 2025-02-28; June and July 2024 are flagged as
// recession months. The 1M forecast has a tie between rf and lstm.
func Payload() *forecast.Payload {
	p := &forecast.Payload{
		LastUpdated: forecast.NewDate(2025, time.February, 28),
		Models: []forecast.Model{
			{ID: "rf", Name: "Random Forest", Color: "#8884d8"},
			{ID: "xgb", Name: "XGBoost", Color: "#82ca9d"},
			{ID: "lstm", Name: "LSTM", Color: "#ffc658"},
		},
		Predictions: map[forecast.Horizon]forecast.HorizonForecast{
			forecast.Horizon1M: {
				TargetDate: forecast.NewDate(2025, time.March, 31),
				Models:     map[string]float64{"rf": 0.12, "xgb": 0.08, "lstm": 0.12},
			},
			forecast.Horizon3M: {
				TargetDate: forecast.NewDate(2025, time.May, 31),
				Models:     map[string]float64{"rf": 0.25, "xgb": 0.18, "lstm": 0.31},
			},
			forecast.Horizon6M: {
				TargetDate: forecast.NewDate(2025, time.August, 31),
				Models:     map[string]float64{"rf": 0.45, "xgb": 0.38, "lstm": 0.52},
			},
			forecast.Horizon12M: {
				TargetDate: forecast.NewDate(2026, time.February, 28),
				Models:     map[string]float64{"rf": 0.72, "xgb": 0.55, "lstm": 0.61},
			},
		},
	}

	for i := 0; i < Observations; i++ {
		obs := forecast.Observation{
			Date: forecast.MonthEnd(2024, time.January+time.Month(i)),
		}
		if i == 5 || i == 6 {
			obs.Actual = 1
		}
		if i < Observations-Lagged {
			obs.Predictions = map[string]float64{
				"rf":   0.10 + 0.01*float64(i),
				"xgb":  0.05 + 0.01*float64(i),
				"lstm": 0.20,
			}
		}
		p.HistoricalData = append(p.HistoricalData, obs)
	}
	return p
}

// WriteJSON writes p as a JSON payload file in dir and returns its path
func WriteJSON(t testing.TB, dir, name string, p *forecast.Payload) string {
	t.Helper()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write payload: %v", err)
	}
	return path
}
