package projection

import (
	"sort"

	"github.com/kartoza/recession-dashboard/internal/forecast"
)

// Bar is one row of the current-horizon chart
type Bar struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
	ID    string  `json:"id"`
}

// CurrentHorizon returns the chosen models' probabilities for a horizon,
// sorted ascending. Ties keep payload model order.
func CurrentHorizon(p *forecast.Payload, h forecast.Horizon, models []string) ([]Bar, error) {
	fc, err := p.Forecast(h)
	if err != nil {
		return nil, err
	}
	chosen, err := chosenSet(p, models)
	if err != nil {
		return nil, err
	}

	bars := make([]Bar, 0, len(chosen))
	for _, m := range p.Models {
		if !chosen[m.ID] {
			continue
		}
		bars = append(bars, Bar{
			Name:  m.Name,
			Value: fc.Models[m.ID],
			Color: m.Color,
			ID:    m.ID,
		})
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Value < bars[j].Value
	})
	return bars, nil
}
