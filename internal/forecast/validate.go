package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// reservedModelIDs collide with fixed keys in projected rows
var reservedModelIDs = map[string]bool{
	"horizon": true,
	"date":    true,
}

// Validate checks every payload invariant and reports all violations at once
func Validate(p *Payload) error {
	if p == nil {
		return fmt.Errorf("%w: payload is nil", ErrInvalidPayload)
	}

	var errs []error
	addf := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if p.LastUpdated.IsZero() {
		addf("lastUpdated is required")
	}

	// Models
	if len(p.Models) == 0 {
		addf("at least one model is required")
	}
	known := make(map[string]bool, len(p.Models))
	for i, m := range p.Models {
		switch {
		case m.ID == "":
			addf("models[%d]: id is required", i)
			continue
		case reservedModelIDs[m.ID]:
			addf("models[%d]: id %q is reserved", i, m.ID)
		case known[m.ID]:
			addf("models[%d]: duplicate id %q", i, m.ID)
		}
		if m.Name == "" {
			addf("models[%d]: name is required for %q", i, m.ID)
		}
		known[m.ID] = true
	}

	// Predictions: closed horizon set, every model covered
	extra := make([]string, 0)
	for h := range p.Predictions {
		if _, ok := horizonMonths[h]; !ok {
			extra = append(extra, string(h))
		}
	}
	sort.Strings(extra)
	for _, h := range extra {
		errs = append(errs, fmt.Errorf("%w: predictions[%q]", ErrUnknownHorizon, h))
	}

	for _, h := range AllHorizons() {
		fc, ok := p.Predictions[h]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingHorizon, h))
			continue
		}
		if fc.TargetDate.IsZero() {
			addf("predictions[%s]: targetDate is required", h)
		}
		for _, m := range p.Models {
			if m.ID == "" {
				continue
			}
			v, ok := fc.Models[m.ID]
			if !ok {
				addf("predictions[%s]: no probability for model %q", h, m.ID)
				continue
			}
			if !validProbability(v) {
				addf("predictions[%s]: probability %v for model %q is outside [0, 1]", h, v, m.ID)
			}
		}
		for _, id := range sortedKeys(fc.Models) {
			if !known[id] {
				errs = append(errs, fmt.Errorf("%w: predictions[%s] references %q", ErrUnknownModel, h, id))
			}
		}
	}

	// Historical data: strictly ascending dates, binary actuals
	for i, obs := range p.HistoricalData {
		if obs.Date.IsZero() {
			addf("historicalData[%d]: date is required", i)
			continue
		}
		if i > 0 {
			prev := p.HistoricalData[i-1].Date
			if !prev.IsZero() && !prev.Before(obs.Date) {
				addf("historicalData[%d]: date %s is not after %s", i, obs.Date, prev)
			}
		}
		if obs.Actual != 0 && obs.Actual != 1 {
			addf("historicalData[%d]: actual must be 0 or 1, got %d", i, obs.Actual)
		}
		for _, id := range sortedKeys(obs.Predictions) {
			if !known[id] {
				errs = append(errs, fmt.Errorf("%w: historicalData[%d] references %q", ErrUnknownModel, i, id))
				continue
			}
			if v := obs.Predictions[id]; !validProbability(v) {
				addf("historicalData[%d]: probability %v for model %q is outside [0, 1]", i, v, id)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, errors.Join(errs...))
	}
	return nil
}

func validProbability(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
