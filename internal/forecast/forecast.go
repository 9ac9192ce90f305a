package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// DateLayout is the textual form of every calendar date in a payload
const DateLayout = "2006-01-02"

// predictionSuffix marks per-model prediction keys in historical observations
const predictionSuffix = "_pred"

// Horizon is a forecast lead time
type Horizon string

const (
	Horizon1M  Horizon = "1M"
	Horizon3M  Horizon = "3M"
	Horizon6M  Horizon = "6M"
	Horizon12M Horizon = "12M"
)

var horizonMonths = map[Horizon]int{
	Horizon1M:  1,
	Horizon3M:  3,
	Horizon6M:  6,
	Horizon12M: 12,
}

// AllHorizons returns every supported horizon in canonical order
func AllHorizons() []Horizon {
	return []Horizon{Horizon1M, Horizon3M, Horizon6M, Horizon12M}
}

// ParseHorizon validates a horizon code
func ParseHorizon(s string) (Horizon, error) {
	h := Horizon(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := horizonMonths[h]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownHorizon, s)
	}
	return h, nil
}

// Months returns the lead time in months
func (h Horizon) Months() int {
	return horizonMonths[h]
}

// Label returns a human readable name such as "6 Months"
func (h Horizon) Label() string {
	n := h.Months()
	if n == 1 {
		return "1 Month"
	}
	return fmt.Sprintf("%d Months", n)
}

// Date is a calendar date without a time component
type Date struct {
	t time.Time
}

// NewDate builds a Date in UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// MonthEnd returns the last day of the given month. Month overflow is normalized.
func MonthEnd(year int, month time.Month) Date {
	return Date{t: time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO 8601 calendar date. An RFC 3339 timestamp is
// accepted only when it falls exactly on midnight UTC.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t: t}, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	ts = ts.UTC()
	if ts.Hour() != 0 || ts.Minute() != 0 || ts.Second() != 0 || ts.Nanosecond() != 0 {
		return Date{}, fmt.Errorf("invalid date %q: time component not allowed", s)
	}
	return NewDate(ts.Date()), nil
}

// Time returns the date as midnight UTC
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether the date is unset
func (d Date) IsZero() bool { return d.t.IsZero() }

// Before reports whether d is strictly earlier than o
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// After reports whether d is strictly later than o
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// Equal reports whether both dates are the same day
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// AddMonths moves n months forward and snaps to the end of that month
func (d Date) AddMonths(n int) Date {
	return MonthEnd(d.t.Year(), d.t.Month()+time.Month(n))
}

func (d Date) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Model is a named probability source
type Model struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// HorizonForecast holds every model's probability for one horizon
type HorizonForecast struct {
	TargetDate Date               `json:"targetDate"`
	Models     map[string]float64 `json:"models"`
}

// Observation is one historical data point. Predictions may be missing for
// recent dates that have not accumulated enough lead time.
type Observation struct {
	Date        Date
	Actual      int
	Predictions map[string]float64
}

// Prediction returns the model's predicted probability, if present
func (o Observation) Prediction(modelID string) (float64, bool) {
	v, ok := o.Predictions[modelID]
	return v, ok
}

// MarshalJSON flattens predictions into "<id>_pred" keys
func (o Observation) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(o.Predictions)+2)
	m["date"] = o.Date.String()
	m["actual"] = o.Actual
	for id, p := range o.Predictions {
		m[id+predictionSuffix] = p
	}
	return json.Marshal(m)
}

func (o *Observation) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	dateRaw, ok := raw["date"]
	if !ok {
		return fmt.Errorf("observation is missing date")
	}
	var obs Observation
	if err := json.Unmarshal(dateRaw, &obs.Date); err != nil {
		return err
	}

	if actualRaw, ok := raw["actual"]; ok {
		var actual float64
		if err := json.Unmarshal(actualRaw, &actual); err != nil {
			return fmt.Errorf("observation %s: actual must be a number: %w", obs.Date, err)
		}
		if actual != math.Trunc(actual) {
			return fmt.Errorf("observation %s: actual must be 0 or 1, got %v", obs.Date, actual)
		}
		obs.Actual = int(actual)
	} else {
		return fmt.Errorf("observation %s is missing actual", obs.Date)
	}

	for key, value := range raw {
		if !strings.HasSuffix(key, predictionSuffix) {
			continue
		}
		if string(value) == "null" {
			continue
		}
		var p float64
		if err := json.Unmarshal(value, &p); err != nil {
			return fmt.Errorf("observation %s: %s must be a number: %w", obs.Date, key, err)
		}
		if obs.Predictions == nil {
			obs.Predictions = make(map[string]float64)
		}
		obs.Predictions[strings.TrimSuffix(key, predictionSuffix)] = p
	}

	*o = obs
	return nil
}

// Payload is the full set of forecasts served by the dashboard
type Payload struct {
	LastUpdated    Date                        `json:"lastUpdated"`
	Models         []Model                     `json:"models"`
	Predictions    map[Horizon]HorizonForecast `json:"predictions"`
	HistoricalData []Observation               `json:"historicalData"`
}

// Model looks up a model by its code
func (p *Payload) Model(id string) (Model, bool) {
	for _, m := range p.Models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// ModelIDs returns all model codes in display order
func (p *Payload) ModelIDs() []string {
	ids := make([]string, len(p.Models))
	for i, m := range p.Models {
		ids[i] = m.ID
	}
	return ids
}

// Forecast returns the forecast for a horizon
func (p *Payload) Forecast(h Horizon) (HorizonForecast, error) {
	if _, ok := horizonMonths[h]; !ok {
		return HorizonForecast{}, fmt.Errorf("%w: %q", ErrUnknownHorizon, h)
	}
	fc, ok := p.Predictions[h]
	if !ok {
		return HorizonForecast{}, fmt.Errorf("%w: %s", ErrMissingHorizon, h)
	}
	return fc, nil
}

// HorizonsPresent returns the horizons with a forecast, in canonical order
func (p *Payload) HorizonsPresent() []Horizon {
	present := make([]Horizon, 0, len(p.Predictions))
	for _, h := range AllHorizons() {
		if _, ok := p.Predictions[h]; ok {
			present = append(present, h)
		}
	}
	return present
}

// sortedKeys returns map keys in lexical order for stable error reporting
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
