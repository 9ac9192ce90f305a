package projection

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/recession-dashboard/internal/forecast"
	"github.com/kartoza/recession-dashboard/internal/forecast/forecasttest"
)

func barIDs(bars []Bar) []string {
	ids := make([]string, len(bars))
	for i, b := range bars {
		ids[i] = b.ID
	}
	return ids
}

func TestCurrentHorizonSortedAscending(t *testing.T) {
	p := forecasttest.Payload()

	bars, err := CurrentHorizon(p, forecast.Horizon6M, p.ModelIDs())
	require.NoError(t, err)

	want := []Bar{
		{Name: "XGBoost", Value: 0.38, Color: "#82ca9d", ID: "xgb"},
		{Name: "Random Forest", Value: 0.45, Color: "#8884d8", ID: "rf"},
		{Name: "LSTM", Value: 0.52, Color: "#ffc658", ID: "lstm"},
	}
	if diff := cmp.Diff(want, bars); diff != "" {
		t.Errorf("CurrentHorizon mismatch (-want +got):\n%s", diff)
	}
}

func TestCurrentHorizonStableTies(t *testing.T) {
	p := forecasttest.Payload()

	// rf and lstm tie at 0.12 in the 1M forecast; rf comes first in the payload
	bars, err := CurrentHorizon(p, forecast.Horizon1M, []string{"lstm", "rf", "xgb"})
	require.NoError(t, err)
	assert.Equal(t, []string{"xgb", "rf", "lstm"}, barIDs(bars))
}

func TestCurrentHorizonSubset(t *testing.T) {
	p := forecasttest.Payload()

	bars, err := CurrentHorizon(p, forecast.Horizon12M, []string{"xgb", "rf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"xgb", "rf"}, barIDs(bars))
}

func TestCurrentHorizonEmptySelection(t *testing.T) {
	p := forecasttest.Payload()

	bars, err := CurrentHorizon(p, forecast.Horizon6M, nil)
	require.NoError(t, err)
	assert.NotNil(t, bars)
	assert.Empty(t, bars)
	assert.Equal(t, RiskSelectionRequired, RiskNarrative(bars).Level)
}

func TestCurrentHorizonErrors(t *testing.T) {
	p := forecasttest.Payload()

	_, err := CurrentHorizon(p, "9M", p.ModelIDs())
	assert.ErrorIs(t, err, forecast.ErrUnknownHorizon)

	_, err = CurrentHorizon(p, forecast.Horizon6M, []string{"rf", "gbm"})
	assert.ErrorIs(t, err, forecast.ErrUnknownModel)

	delete(p.Predictions, forecast.Horizon6M)
	_, err = CurrentHorizon(p, forecast.Horizon6M, p.ModelIDs())
	assert.ErrorIs(t, err, forecast.ErrMissingHorizon)
}

func TestHistoricalWindowLast12(t *testing.T) {
	p := forecasttest.Payload()
	period, err := LookupPeriod("last12")
	require.NoError(t, err)

	got := HistoricalWindow(p.HistoricalData, period)
	require.Len(t, got, 12)
	assert.Equal(t, p.HistoricalData[len(p.HistoricalData)-12:], got)
	assert.Equal(t, "2024-03-31", got[0].Date.String())
	assert.Equal(t, "2025-02-28", got[11].Date.String())
}

func TestHistoricalWindowTailShorterThanN(t *testing.T) {
	p := forecasttest.Payload()
	period, err := TailWindow(50)
	require.NoError(t, err)

	got := HistoricalWindow(p.HistoricalData, period)
	assert.Len(t, got, forecasttest.Observations)
}

func TestHistoricalWindowRangeInclusive(t *testing.T) {
	p := forecasttest.Payload()
	period, err := RangeWindow(
		forecast.NewDate(2024, time.April, 30),
		forecast.NewDate(2024, time.July, 31),
	)
	require.NoError(t, err)

	got := HistoricalWindow(p.HistoricalData, period)
	dates := make([]string, len(got))
	for i, obs := range got {
		dates[i] = obs.Date.String()
	}
	assert.Equal(t, []string{"2024-04-30", "2024-05-31", "2024-06-30", "2024-07-31"}, dates)
}

func TestHistoricalWindowEmptyIntersection(t *testing.T) {
	p := forecasttest.Payload()
	period, err := LookupPeriod("covid")
	require.NoError(t, err)

	got := HistoricalWindow(p.HistoricalData, period)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHistoricalWindowAll(t *testing.T) {
	p := forecasttest.Payload()
	period, err := LookupPeriod("all")
	require.NoError(t, err)

	got := HistoricalWindow(p.HistoricalData, period)
	assert.Equal(t, p.HistoricalData, got)

	// The window is a copy
	got[0].Actual = 1
	assert.Equal(t, 0, p.HistoricalData[0].Actual)
}

func TestPeriodCatalog(t *testing.T) {
	ids := make([]string, 0)
	for _, p := range Periods() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"last12", "covid", "gfc", "dotcom", "all"}, ids)

	gfc, err := LookupPeriod("gfc")
	require.NoError(t, err)
	assert.Equal(t, "2007-10-01", gfc.Start.String())
	assert.Equal(t, "2009-06-30", gfc.End.String())

	_, err = LookupPeriod("1970s")
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestAdHocWindowValidation(t *testing.T) {
	_, err := RangeWindow(forecast.NewDate(2020, time.June, 1), forecast.NewDate(2020, time.January, 1))
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = TailWindow(0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestCrossHorizon(t *testing.T) {
	p := forecasttest.Payload()

	rows, err := CrossHorizon(p, []string{"rf", "lstm"})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	horizons := make([]forecast.Horizon, len(rows))
	for i, r := range rows {
		horizons[i] = r.Horizon
		assert.Len(t, r.Values, 2)
	}
	assert.Equal(t, forecast.AllHorizons(), horizons)
	assert.Equal(t, map[string]float64{"rf": 0.72, "lstm": 0.61}, rows[3].Values)

	data, err := json.Marshal(rows[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"horizon":"1M","rf":0.12,"lstm":0.12}`, string(data))
}

func TestCrossHorizonSkipsAbsentHorizons(t *testing.T) {
	p := forecasttest.Payload()
	delete(p.Predictions, forecast.Horizon3M)

	rows, err := CrossHorizon(p, p.ModelIDs())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, forecast.Horizon6M, rows[1].Horizon)
}

func TestCrossHorizonEmptySelection(t *testing.T) {
	p := forecasttest.Payload()

	rows, err := CrossHorizon(p, []string{})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for _, r := range rows {
		assert.Empty(t, r.Values)
	}
}

func TestRiskNarrative(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   RiskLevel
	}{
		{"empty", nil, RiskSelectionRequired},
		{"high", []float64{0.1, 0.75}, RiskHigh},
		{"moderate", []float64{0.5, 0.2}, RiskModerate},
		{"low", []float64{0.2}, RiskLow},
		{"high wins over moderate", []float64{0.5, 0.71}, RiskHigh},
		{"thresholds are exclusive", []float64{0.7, 0.4}, RiskModerate},
		{"exactly moderate threshold", []float64{0.4}, RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var bars []Bar
			for _, v := range tt.values {
				bars = append(bars, Bar{Value: v})
			}
			risk := RiskNarrative(bars)
			assert.Equal(t, tt.want, risk.Level)
			assert.NotEmpty(t, risk.Message)
		})
	}
}

func TestParseView(t *testing.T) {
	v, err := ParseView("Historical")
	require.NoError(t, err)
	assert.Equal(t, ViewHistorical, v)

	_, err = ParseView("map")
	assert.ErrorIs(t, err, ErrUnknownView)
}

func TestDefaultSelection(t *testing.T) {
	p := forecasttest.Payload()
	sel := DefaultSelection(p)

	assert.Equal(t, forecast.Horizon6M, sel.Horizon)
	assert.Equal(t, []string{"rf", "xgb", "lstm"}, sel.Models)
	assert.Equal(t, ViewCurrent, sel.View)
	assert.Equal(t, "last12", sel.Period)
	assert.NoError(t, sel.Validate(p))
}

func TestSelectionValidate(t *testing.T) {
	p := forecasttest.Payload()

	sel := DefaultSelection(p)
	sel.Models = []string{"svm"}
	assert.ErrorIs(t, sel.Validate(p), forecast.ErrUnknownModel)

	sel = DefaultSelection(p)
	sel.View = "map"
	assert.ErrorIs(t, sel.Validate(p), ErrUnknownView)

	sel = DefaultSelection(p)
	sel.Period = "roaring20s"
	assert.ErrorIs(t, sel.Validate(p), ErrUnknownPeriod)

	sel = DefaultSelection(p)
	sel.Horizon = "2M"
	assert.ErrorIs(t, sel.Validate(p), forecast.ErrUnknownHorizon)
}

func TestBuildDashboard(t *testing.T) {
	p := forecasttest.Payload()
	sel := DefaultSelection(p)

	d, err := Build(p, sel)
	require.NoError(t, err)

	assert.Equal(t, "2025-02-28", d.LastUpdated.String())
	assert.Equal(t, "2025-08-31", d.TargetDate.String())
	assert.Len(t, d.Current, 3)
	assert.Equal(t, RiskModerate, d.Risk.Level)
	assert.Len(t, d.Historical, 12)
	assert.Len(t, d.Comparison, 4)
	assert.Equal(t, "last12", d.Period.ID)
}

func TestBuildIsDeterministic(t *testing.T) {
	p := forecasttest.Payload()
	sel := DefaultSelection(p)
	sel.Horizon = forecast.Horizon12M
	sel.Period = "all"

	first, err := Build(p, sel)
	require.NoError(t, err)
	second, err := Build(p, sel)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, RiskHigh, first.Risk.Level)
}

func TestBuildDoesNotAliasSelection(t *testing.T) {
	p := forecasttest.Payload()
	sel := DefaultSelection(p)

	d, err := Build(p, sel)
	require.NoError(t, err)

	sel.Models[0] = "changed"
	assert.Equal(t, "rf", d.Selection.Models[0])
}
