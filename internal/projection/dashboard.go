package projection

import (
	"github.com/kartoza/recession-dashboard/internal/forecast"
)

// Dashboard is every projection for one selection, recomputed in full
type Dashboard struct {
	LastUpdated forecast.Date          `json:"lastUpdated"`
	Selection   Selection              `json:"selection"`
	TargetDate  forecast.Date          `json:"targetDate"`
	Current     []Bar                  `json:"current"`
	Risk        Risk                   `json:"risk"`
	Period      Period                 `json:"period"`
	Historical  []forecast.Observation `json:"historical"`
	Comparison  []ComparisonRow        `json:"comparison"`
}

// Build validates the selection and derives all projections from it
func Build(p *forecast.Payload, sel Selection) (*Dashboard, error) {
	if err := sel.Validate(p); err != nil {
		return nil, err
	}

	models := make([]string, len(sel.Models))
	copy(models, sel.Models)
	sel.Models = models

	fc, err := p.Forecast(sel.Horizon)
	if err != nil {
		return nil, err
	}
	bars, err := CurrentHorizon(p, sel.Horizon, sel.Models)
	if err != nil {
		return nil, err
	}
	rows, err := CrossHorizon(p, sel.Models)
	if err != nil {
		return nil, err
	}
	period, err := LookupPeriod(sel.Period)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		LastUpdated: p.LastUpdated,
		Selection:   sel,
		TargetDate:  fc.TargetDate,
		Current:     bars,
		Risk:        RiskNarrative(bars),
		Period:      period,
		Historical:  HistoricalWindow(p.HistoricalData, period),
		Comparison:  rows,
	}, nil
}
