package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kartoza/recession-dashboard/internal/forecast"
	"github.com/kartoza/recession-dashboard/internal/projection"
)

// parseModels reads the models parameter. Absent means every model in the
// payload; present but blank means none. Repeated and comma separated
// values are both accepted.
func parseModels(q url.Values, p *forecast.Payload) []string {
	raw, ok := q["models"]
	if !ok {
		return p.ModelIDs()
	}
	models := make([]string, 0)
	for _, v := range raw {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				models = append(models, id)
			}
		}
	}
	return models
}

// parseHorizon falls back to the default horizon when the parameter is empty
func parseHorizon(q url.Values) (forecast.Horizon, error) {
	s := q.Get("horizon")
	if s == "" {
		return projection.DefaultHorizon, nil
	}
	return forecast.ParseHorizon(s)
}

// selectionFromQuery builds a selection, starting from the defaults
func selectionFromQuery(q url.Values, p *forecast.Payload) (projection.Selection, error) {
	sel := projection.DefaultSelection(p)

	h, err := parseHorizon(q)
	if err != nil {
		return sel, err
	}
	sel.Horizon = h
	sel.Models = parseModels(q, p)

	if v := q.Get("view"); v != "" {
		mode, err := projection.ParseView(v)
		if err != nil {
			return sel, err
		}
		sel.View = mode
	}
	if period := q.Get("period"); period != "" {
		sel.Period = period
	}
	return sel, sel.Validate(p)
}

// windowFromQuery resolves the historical window. A named period, a
// start/end range and a last=N tail are mutually exclusive.
func windowFromQuery(q url.Values) (projection.Period, error) {
	period := q.Get("period")
	start, end := q.Get("start"), q.Get("end")
	last := q.Get("last")

	given := 0
	for _, set := range []bool{period != "", start != "" || end != "", last != ""} {
		if set {
			given++
		}
	}
	if given > 1 {
		return projection.Period{}, fmt.Errorf("%w: use only one of period, start/end or last", projection.ErrInvalidPeriod)
	}

	switch {
	case start != "" || end != "":
		if start == "" || end == "" {
			return projection.Period{}, fmt.Errorf("%w: start and end must be given together", projection.ErrInvalidPeriod)
		}
		from, err := forecast.ParseDate(start)
		if err != nil {
			return projection.Period{}, fmt.Errorf("%w: start: %v", projection.ErrInvalidPeriod, err)
		}
		to, err := forecast.ParseDate(end)
		if err != nil {
			return projection.Period{}, fmt.Errorf("%w: end: %v", projection.ErrInvalidPeriod, err)
		}
		return projection.RangeWindow(from, to)

	case last != "":
		n, err := strconv.Atoi(last)
		if err != nil {
			return projection.Period{}, fmt.Errorf("%w: last must be an integer", projection.ErrInvalidPeriod)
		}
		return projection.TailWindow(n)

	case period != "":
		return projection.LookupPeriod(period)

	default:
		return projection.LookupPeriod(projection.DefaultPeriod)
	}
}
