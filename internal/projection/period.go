package projection

import (
	"fmt"
	"time"

	"github.com/kartoza/recession-dashboard/internal/forecast"
)

// PeriodKind selects how a historical window is applied
type PeriodKind string

const (
	// PeriodTail keeps the final N records by position
	PeriodTail PeriodKind = "tail"
	// PeriodRange keeps records inside an inclusive date range
	PeriodRange PeriodKind = "range"
	// PeriodAll keeps everything
	PeriodAll PeriodKind = "all"
)

// Period is a named historical window
type Period struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Kind  PeriodKind     `json:"kind"`
	Start *forecast.Date `json:"start,omitempty"`
	End   *forecast.Date `json:"end,omitempty"`
	Last  int            `json:"last,omitempty"`
}

func rangePeriod(id, name string, start, end forecast.Date) Period {
	return Period{ID: id, Name: name, Kind: PeriodRange, Start: &start, End: &end}
}

var catalog = []Period{
	{ID: "last12", Name: "12 Months Before Latest Data", Kind: PeriodTail, Last: 12},
	rangePeriod("covid", "COVID-19 (2020)",
		forecast.NewDate(2020, time.January, 1), forecast.NewDate(2020, time.December, 31)),
	rangePeriod("gfc", "Financial Crisis (2007-2009)",
		forecast.NewDate(2007, time.October, 1), forecast.NewDate(2009, time.June, 30)),
	rangePeriod("dotcom", "DotCom Bubble (2001)",
		forecast.NewDate(2001, time.January, 1), forecast.NewDate(2002, time.January, 31)),
	{ID: "all", Name: "All Historical Data", Kind: PeriodAll},
}

// Periods returns the named period catalog in display order
func Periods() []Period {
	out := make([]Period, len(catalog))
	copy(out, catalog)
	return out
}

// LookupPeriod finds a named period
func LookupPeriod(id string) (Period, error) {
	for _, p := range catalog {
		if p.ID == id {
			return p, nil
		}
	}
	return Period{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, id)
}

// RangeWindow builds an ad-hoc inclusive date range window
func RangeWindow(start, end forecast.Date) (Period, error) {
	if end.Before(start) {
		return Period{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidPeriod, end, start)
	}
	return rangePeriod("custom", fmt.Sprintf("%s to %s", start, end), start, end), nil
}

// TailWindow builds an ad-hoc window over the last n records
func TailWindow(n int) (Period, error) {
	if n <= 0 {
		return Period{}, fmt.Errorf("%w: last must be positive, got %d", ErrInvalidPeriod, n)
	}
	return Period{ID: "custom", Name: fmt.Sprintf("Last %d Records", n), Kind: PeriodTail, Last: n}, nil
}

// HistoricalWindow filters observations to a period. Input must be sorted
// by date; the result keeps that order and never aliases the input. A
// window with no matches yields an empty, non-nil slice.
func HistoricalWindow(observations []forecast.Observation, period Period) []forecast.Observation {
	switch period.Kind {
	case PeriodTail:
		n := period.Last
		if n < 0 {
			n = 0
		}
		if n > len(observations) {
			n = len(observations)
		}
		return cloneObservations(observations[len(observations)-n:])

	case PeriodRange:
		out := make([]forecast.Observation, 0)
		for _, obs := range observations {
			if period.Start != nil && obs.Date.Before(*period.Start) {
				continue
			}
			if period.End != nil && obs.Date.After(*period.End) {
				continue
			}
			out = append(out, obs)
		}
		return out

	default:
		return cloneObservations(observations)
	}
}

func cloneObservations(in []forecast.Observation) []forecast.Observation {
	out := make([]forecast.Observation, len(in))
	copy(out, in)
	return out
}
