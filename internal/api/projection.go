package api

import (
	"net/http"

	"github.com/kartoza/recession-dashboard/internal/forecast"
	"github.com/kartoza/recession-dashboard/internal/httputil"
	"github.com/kartoza/recession-dashboard/internal/projection"
)

type currentResponse struct {
	Horizon    forecast.Horizon `json:"horizon"`
	TargetDate forecast.Date    `json:"targetDate"`
	Models     []string         `json:"models"`
	Bars       []projection.Bar `json:"bars"`
	Risk       projection.Risk  `json:"risk"`
}

// handleCurrent returns the sorted bars and risk narrative for one horizon
func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	p, ok := h.payload(w)
	if !ok {
		return
	}

	q := r.URL.Query()
	horizon, err := parseHorizon(q)
	if err != nil {
		respondErr(w, err)
		return
	}
	models := parseModels(q, p)

	fc, err := p.Forecast(horizon)
	if err != nil {
		respondErr(w, err)
		return
	}
	bars, err := projection.CurrentHorizon(p, horizon, models)
	if err != nil {
		respondErr(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, currentResponse{
		Horizon:    horizon,
		TargetDate: fc.TargetDate,
		Models:     models,
		Bars:       bars,
		Risk:       projection.RiskNarrative(bars),
	})
}

type historicalResponse struct {
	Loaded       bool                   `json:"loaded"`
	Empty        bool                   `json:"empty"`
	Period       projection.Period      `json:"period"`
	Observations []forecast.Observation `json:"observations"`
}

// handleHistorical returns the observations inside a window
func (h *Handler) handleHistorical(w http.ResponseWriter, r *http.Request) {
	p, ok := h.payload(w)
	if !ok {
		return
	}

	period, err := windowFromQuery(r.URL.Query())
	if err != nil {
		respondErr(w, err)
		return
	}

	obs := projection.HistoricalWindow(p.HistoricalData, period)
	httputil.RespondJSON(w, http.StatusOK, historicalResponse{
		Loaded:       true,
		Empty:        len(obs) == 0,
		Period:       period,
		Observations: obs,
	})
}

type comparisonResponse struct {
	Models []string                   `json:"models"`
	Rows   []projection.ComparisonRow `json:"rows"`
}

// handleComparison returns one row per horizon for the chosen models
func (h *Handler) handleComparison(w http.ResponseWriter, r *http.Request) {
	p, ok := h.payload(w)
	if !ok {
		return
	}

	models := parseModels(r.URL.Query(), p)
	rows, err := projection.CrossHorizon(p, models)
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, comparisonResponse{Models: models, Rows: rows})
}

// handleDashboard returns every projection for the selection in the query
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := h.payload(w)
	if !ok {
		return
	}

	sel, err := selectionFromQuery(r.URL.Query(), p)
	if err != nil {
		respondErr(w, err)
		return
	}
	dash, err := projection.Build(p, sel)
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, dash)
}
