// Package synth generates synthetic forecast payloads for demos and tests.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/kartoza/recession-dashboard/internal/forecast"
)

// Options controls payload generation
type Options struct {
	Seed   uint64
	Start  forecast.Date
	AsOf   forecast.Date
	Lag    int // trailing months without model predictions
	Models []forecast.Model
}

// DefaultModels returns the demo model set
func DefaultModels() []forecast.Model {
	return []forecast.Model{
		{ID: "rf", Name: "Random Forest", Color: "#8884d8"},
		{ID: "xgb", Name: "XGBoost", Color: "#82ca9d"},
		{ID: "lstm", Name: "LSTM", Color: "#ffc658"},
		{ID: "logit", Name: "Logistic Regression", Color: "#ff7300"},
		{ID: "svm", Name: "Support Vector Machine", Color: "#0088fe"},
	}
}

// DefaultOptions covers January 2000 through February 2025
func DefaultOptions() Options {
	return Options{
		Seed:   42,
		Start:  forecast.MonthEnd(2000, time.January),
		AsOf:   forecast.MonthEnd(2025, time.February),
		Lag:    3,
		Models: DefaultModels(),
	}
}

// recession is an inclusive range of months flagged as recession
type recession struct {
	fromYear  int
	fromMonth time.Month
	toYear    int
	toMonth   time.Month
}

// NBER-dated US recessions since 2000
var recessions = []recession{
	{2001, time.March, 2001, time.November},
	{2007, time.December, 2009, time.June},
	{2020, time.February, 2020, time.April},
}

func monthIndex(year int, month time.Month) int {
	return year*12 + int(month) - 1
}

func inRecession(d forecast.Date) bool {
	t := d.Time()
	idx := monthIndex(t.Year(), t.Month())
	for _, r := range recessions {
		if idx >= monthIndex(r.fromYear, r.fromMonth) && idx <= monthIndex(r.toYear, r.toMonth) {
			return true
		}
	}
	return false
}

// leadSignal is the share of the next `months` months that fall in a recession
func leadSignal(d forecast.Date, months int) float64 {
	hits := 0
	for i := 0; i <= months; i++ {
		if inRecession(d.AddMonths(i)) {
			hits++
		}
	}
	return float64(hits) / float64(months+1)
}

// profile gives each model its own skill, bias and noise
type profile struct {
	skill float64
	bias  float64
	noise float64
}

func newProfile(rng *rand.Rand) profile {
	return profile{
		skill: 0.55 + 0.3*rng.Float64(),
		bias:  0.02 + 0.08*rng.Float64(),
		noise: 0.02 + 0.05*rng.Float64(),
	}
}

// horizonBaseline is the unconditional probability per horizon
var horizonBaseline = map[forecast.Horizon]float64{
	forecast.Horizon1M:  0.08,
	forecast.Horizon3M:  0.16,
	forecast.Horizon6M:  0.27,
	forecast.Horizon12M: 0.38,
}

// Generate builds a payload with monthly observations from Start to AsOf.
// The output is deterministic for a given seed and always valid.
func Generate(opts Options) (*forecast.Payload, error) {
	if len(opts.Models) == 0 {
		return nil, fmt.Errorf("at least one model is required")
	}
	if opts.Start.IsZero() || opts.AsOf.IsZero() {
		return nil, fmt.Errorf("start and as-of dates are required")
	}
	if opts.AsOf.Before(opts.Start) {
		return nil, fmt.Errorf("as-of %s is before start %s", opts.AsOf, opts.Start)
	}
	if opts.Lag < 0 {
		return nil, fmt.Errorf("lag must not be negative, got %d", opts.Lag)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	profiles := make([]profile, len(opts.Models))
	for i := range opts.Models {
		profiles[i] = newProfile(rng)
	}

	models := make([]forecast.Model, len(opts.Models))
	copy(models, opts.Models)

	p := &forecast.Payload{
		LastUpdated: opts.AsOf,
		Models:      models,
		Predictions: make(map[forecast.Horizon]forecast.HorizonForecast, len(horizonBaseline)),
	}

	// Historical series
	start := opts.Start.Time()
	var dates []forecast.Date
	for d := forecast.MonthEnd(start.Year(), start.Month()); !d.After(opts.AsOf); d = d.AddMonths(1) {
		dates = append(dates, d)
	}
	cutoff := len(dates) - opts.Lag
	for i, d := range dates {
		obs := forecast.Observation{Date: d}
		if inRecession(d) {
			obs.Actual = 1
		}
		if i < cutoff {
			signal := leadSignal(d, 6)
			obs.Predictions = make(map[string]float64, len(models))
			for j, m := range models {
				pr := profiles[j]
				obs.Predictions[m.ID] = probability(pr.bias + pr.skill*signal + pr.noise*rng.NormFloat64())
			}
		}
		p.HistoricalData = append(p.HistoricalData, obs)
	}

	// Forward-looking forecasts
	for _, h := range forecast.AllHorizons() {
		fc := forecast.HorizonForecast{
			TargetDate: opts.AsOf.AddMonths(h.Months()),
			Models:     make(map[string]float64, len(models)),
		}
		for j, m := range models {
			pr := profiles[j]
			fc.Models[m.ID] = probability(horizonBaseline[h] + (pr.bias-0.06) + pr.noise*rng.NormFloat64())
		}
		p.Predictions[h] = fc
	}

	if err := forecast.Validate(p); err != nil {
		return nil, fmt.Errorf("generated payload is invalid: %w", err)
	}
	return p, nil
}

// probability clamps to [0, 1] and rounds to three decimals
func probability(v float64) float64 {
	v = math.Round(v*1000) / 1000
	return math.Max(0, math.Min(1, v))
}
