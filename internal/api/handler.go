package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kartoza/recession-dashboard/internal/config"
	"github.com/kartoza/recession-dashboard/internal/forecast"
	"github.com/kartoza/recession-dashboard/internal/httputil"
	"github.com/kartoza/recession-dashboard/internal/projection"
	"github.com/kartoza/recession-dashboard/internal/views"
)

// Handler provides HTTP API endpoints
type Handler struct {
	store     *forecast.Store
	viewStore *views.Store
	cfg       config.Config
}

// NewHandler creates a new API handler. viewStore may be nil, in which case
// the saved view endpoints report that views are disabled.
func NewHandler(store *forecast.Store, viewStore *views.Store, cfg config.Config) *Handler {
	return &Handler{
		store:     store,
		viewStore: viewStore,
		cfg:       cfg,
	}
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")

	// Payload metadata
	r.HandleFunc("/models", h.handleListModels).Methods("GET")
	r.HandleFunc("/horizons", h.handleListHorizons).Methods("GET")
	r.HandleFunc("/periods", h.handleListPeriods).Methods("GET")

	// Projections
	r.HandleFunc("/projection/current", h.handleCurrent).Methods("GET")
	r.HandleFunc("/projection/historical", h.handleHistorical).Methods("GET")
	r.HandleFunc("/projection/comparison", h.handleComparison).Methods("GET")
	r.HandleFunc("/dashboard", h.handleDashboard).Methods("GET")

	// Saved views
	r.HandleFunc("/views", h.handleListViews).Methods("GET")
	r.HandleFunc("/views", h.handleCreateView).Methods("POST")
	r.HandleFunc("/views/{id}", h.handleGetView).Methods("GET")
	r.HandleFunc("/views/{id}", h.handleUpdateView).Methods("PUT")
	r.HandleFunc("/views/{id}", h.handleDeleteView).Methods("DELETE")
	r.HandleFunc("/views/{id}/dashboard", h.handleViewDashboard).Methods("GET")
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	_, loaded := h.store.Payload()
	info := map[string]any{
		"version":        h.cfg.Version,
		"payload_loaded": loaded,
		"views_enabled":  h.viewStore != nil,
	}
	httputil.RespondJSON(w, http.StatusOK, info)
}

// handleListModels returns models in display order
func (h *Handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	p, ok := h.payload(w)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, p.Models)
}

type horizonInfo struct {
	Horizon    forecast.Horizon `json:"horizon"`
	Label      string           `json:"label"`
	Months     int              `json:"months"`
	TargetDate forecast.Date    `json:"targetDate"`
}

// handleListHorizons returns the forecast horizons with their target dates
func (h *Handler) handleListHorizons(w http.ResponseWriter, r *http.Request) {
	p, ok := h.payload(w)
	if !ok {
		return
	}

	out := make([]horizonInfo, 0, len(forecast.AllHorizons()))
	for _, hz := range p.HorizonsPresent() {
		fc, err := p.Forecast(hz)
		if err != nil {
			continue
		}
		out = append(out, horizonInfo{
			Horizon:    hz,
			Label:      hz.Label(),
			Months:     hz.Months(),
			TargetDate: fc.TargetDate,
		})
	}
	httputil.RespondJSON(w, http.StatusOK, out)
}

// handleListPeriods returns the named historical periods
func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, projection.Periods())
}

// payload writes a 503 loading response when nothing is loaded yet
func (h *Handler) payload(w http.ResponseWriter) (*forecast.Payload, bool) {
	p, ok := h.store.Payload()
	if !ok {
		httputil.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":  "payload not loaded",
			"status": "loading",
		})
		return nil, false
	}
	return p, true
}

// respondErr maps domain errors onto HTTP status codes
func respondErr(w http.ResponseWriter, err error) {
	httputil.RespondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, views.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, forecast.ErrUnknownHorizon),
		errors.Is(err, forecast.ErrMissingHorizon),
		errors.Is(err, forecast.ErrUnknownModel),
		errors.Is(err, projection.ErrUnknownView),
		errors.Is(err, projection.ErrUnknownPeriod),
		errors.Is(err, projection.ErrInvalidPeriod):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
