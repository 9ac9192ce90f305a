package server

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/kartoza/recession-dashboard/internal/forecast"
	"github.com/kartoza/recession-dashboard/internal/httputil"
	"github.com/kartoza/recession-dashboard/internal/watch"
)

// payloadStatus describes the served payload and the watcher feeding it
type payloadStatus struct {
	forecast.Status
	Path     string       `json:"path"`
	Watching bool         `json:"watching"`
	Watch    *watch.Stats `json:"watch,omitempty"`
}

func (s *Server) payloadStatus() payloadStatus {
	st := payloadStatus{
		Status:   s.store.Status(),
		Path:     s.cfg.PayloadPath,
		Watching: s.watcher != nil,
	}
	if s.watcher != nil {
		stats := s.watcher.Stats()
		st.Watch = &stats
	}
	return st
}

// handlePayloadStatus returns the current payload status
func (s *Server) handlePayloadStatus(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, s.payloadStatus())
}

// handlePayloadReload re-reads the configured payload file. A failed
// reload leaves the current payload in place.
func (s *Server) handlePayloadReload(w http.ResponseWriter, r *http.Request) {
	if err := s.store.LoadFile(s.cfg.PayloadPath); err != nil {
		log.Error().Err(err).Str("path", s.cfg.PayloadPath).Msg("Manual payload reload failed")

		status := http.StatusUnprocessableEntity
		if errors.Is(err, fs.ErrNotExist) {
			status = http.StatusNotFound
		}
		httputil.RespondJSON(w, status, map[string]any{
			"error":  err.Error(),
			"status": s.payloadStatus(),
		})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, s.payloadStatus())
}
