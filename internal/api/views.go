package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kartoza/recession-dashboard/internal/httputil"
	"github.com/kartoza/recession-dashboard/internal/projection"
	"github.com/kartoza/recession-dashboard/internal/views"
)

// requireViews writes a 503 when saved views are disabled
func (h *Handler) requireViews(w http.ResponseWriter) bool {
	if h.viewStore == nil {
		httputil.RespondError(w, http.StatusServiceUnavailable, "saved views not available")
		return false
	}
	return true
}

// handleListViews returns all saved views
func (h *Handler) handleListViews(w http.ResponseWriter, r *http.Request) {
	if !h.requireViews(w) {
		return
	}
	list, err := h.viewStore.List()
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, list)
}

// handleGetView returns a single saved view
func (h *Handler) handleGetView(w http.ResponseWriter, r *http.Request) {
	if !h.requireViews(w) {
		return
	}
	v, err := h.viewStore.Get(mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, v)
}

// handleCreateView saves a new view
func (h *Handler) handleCreateView(w http.ResponseWriter, r *http.Request) {
	if !h.requireViews(w) {
		return
	}

	var v views.View
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.viewStore.Create(&v)
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, created)
}

// handleUpdateView applies a partial update to a saved view
func (h *Handler) handleUpdateView(w http.ResponseWriter, r *http.Request) {
	if !h.requireViews(w) {
		return
	}

	var updates views.View
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.viewStore.Update(mux.Vars(r)["id"], &updates)
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, updated)
}

// handleDeleteView removes a saved view
func (h *Handler) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	if !h.requireViews(w) {
		return
	}
	if err := h.viewStore.Delete(mux.Vars(r)["id"]); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleViewDashboard applies a saved selection to the loaded payload
func (h *Handler) handleViewDashboard(w http.ResponseWriter, r *http.Request) {
	if !h.requireViews(w) {
		return
	}
	v, err := h.viewStore.Get(mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}
	p, ok := h.payload(w)
	if !ok {
		return
	}

	dash, err := projection.Build(p, v.SelectionFor(p))
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, dash)
}
