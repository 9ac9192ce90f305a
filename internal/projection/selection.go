// Package projection derives chart-ready rows from a forecast payload and a
// selection. Every function here is pure: the same payload and selection
// always produce the same output, and inputs are never modified.
package projection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kartoza/recession-dashboard/internal/forecast"
)

var (
	ErrUnknownView   = errors.New("unknown view")
	ErrUnknownPeriod = errors.New("unknown historical period")
	ErrInvalidPeriod = errors.New("invalid historical period")
)

// View is the active dashboard panel
type View string

const (
	ViewCurrent    View = "current"
	ViewHistorical View = "historical"
	ViewComparison View = "comparison"
)

// DefaultHorizon and DefaultPeriod seed a fresh selection
const (
	DefaultHorizon = forecast.Horizon6M
	DefaultPeriod  = "last12"
)

// ParseView validates a view name
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewCurrent, ViewHistorical, ViewComparison:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
}

// Selection is the set of user choices driving the projections
type Selection struct {
	Horizon forecast.Horizon `json:"horizon"`
	Models  []string         `json:"models"`
	View    View             `json:"view"`
	Period  string           `json:"period"`
}

// DefaultSelection selects every model, the 6M horizon, the current view
// and the trailing 12 record window
func DefaultSelection(p *forecast.Payload) Selection {
	return Selection{
		Horizon: DefaultHorizon,
		Models:  p.ModelIDs(),
		View:    ViewCurrent,
		Period:  DefaultPeriod,
	}
}

// Validate checks the selection against a payload
func (s Selection) Validate(p *forecast.Payload) error {
	if _, err := p.Forecast(s.Horizon); err != nil {
		return err
	}
	if _, err := chosenSet(p, s.Models); err != nil {
		return err
	}
	if _, err := ParseView(string(s.View)); err != nil {
		return err
	}
	if _, err := LookupPeriod(s.Period); err != nil {
		return err
	}
	return nil
}

// chosenSet resolves model codes into a lookup set
func chosenSet(p *forecast.Payload, models []string) (map[string]bool, error) {
	set := make(map[string]bool, len(models))
	for _, id := range models {
		if _, ok := p.Model(id); !ok {
			return nil, fmt.Errorf("%w: %q", forecast.ErrUnknownModel, id)
		}
		set[id] = true
	}
	return set, nil
}
