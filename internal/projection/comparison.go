package projection

import (
	"encoding/json"

	"github.com/kartoza/recession-dashboard/internal/forecast"
)

// ComparisonRow holds every chosen model's probability at one horizon
type ComparisonRow struct {
	Horizon forecast.Horizon
	Values  map[string]float64
}

// MarshalJSON flattens the row into {"horizon": "1M", "<model>": p, ...}
func (r ComparisonRow) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Values)+1)
	for id, v := range r.Values {
		m[id] = v
	}
	m["horizon"] = r.Horizon
	return json.Marshal(m)
}

// CrossHorizon builds one row per horizon present in the payload, in
// canonical horizon order
func CrossHorizon(p *forecast.Payload, models []string) ([]ComparisonRow, error) {
	chosen, err := chosenSet(p, models)
	if err != nil {
		return nil, err
	}

	present := p.HorizonsPresent()
	rows := make([]ComparisonRow, 0, len(present))
	for _, h := range present {
		fc := p.Predictions[h]
		values := make(map[string]float64, len(chosen))
		for _, m := range p.Models {
			if chosen[m.ID] {
				values[m.ID] = fc.Models[m.ID]
			}
		}
		rows = append(rows, ComparisonRow{Horizon: h, Values: values})
	}
	return rows, nil
}
