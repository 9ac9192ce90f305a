package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/kartoza/recession-dashboard/internal/api"
	"github.com/kartoza/recession-dashboard/internal/config"
	"github.com/kartoza/recession-dashboard/internal/forecast"
	"github.com/kartoza/recession-dashboard/internal/httputil"
	"github.com/kartoza/recession-dashboard/internal/views"
	"github.com/kartoza/recession-dashboard/internal/watch"
)

// Server holds all the components for the web application
type Server struct {
	cfg        config.Config
	httpServer *http.Server
	router     *mux.Router
	store      *forecast.Store
	viewStore  *views.Store
	watcher    *watch.Watcher
	limiter    *httputil.RateLimiter
}

// New creates a new Server with all components initialized. The payload is
// loaded unless store already holds one. A missing payload file is only
// tolerated when watching, since the watcher will pick it up later.
func New(cfg config.Config, store *forecast.Store) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		router:  mux.NewRouter(),
		store:   store,
		limiter: httputil.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
	}

	if _, ok := store.Payload(); !ok {
		if err := store.LoadFile(cfg.PayloadPath); err != nil {
			if !errors.Is(err, fs.ErrNotExist) || !cfg.Watch {
				return nil, fmt.Errorf("failed to load forecast payload: %w", err)
			}
			log.Warn().Str("path", cfg.PayloadPath).
				Msg("Forecast payload not found yet; serving loading state until it appears")
		}
	}

	// Initialize saved views store
	if cfg.DatabasePath != "" {
		viewStore, err := views.Open(cfg.DatabasePath)
		if err != nil {
			log.Warn().Err(err).Msg("Saved views store not available")
		} else {
			s.viewStore = viewStore
		}
	}

	if cfg.Watch {
		w, err := watch.New(cfg.PayloadPath, store, watch.Options{Debounce: cfg.WatchDebounce})
		if err != nil {
			s.closeViews()
			return nil, err
		}
		s.watcher = w
	}

	// Set up routes
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.middleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// API routes
	apiRouter := s.router.PathPrefix("/api").Subrouter()
	apiRouter.Use(s.limiter.Middleware)
	apiHandler := api.NewHandler(s.store, s.viewStore, s.cfg)
	apiHandler.RegisterRoutes(apiRouter)

	// Payload management routes
	apiRouter.HandleFunc("/payload/status", s.handlePayloadStatus).Methods("GET")
	apiRouter.HandleFunc("/payload/reload", s.handlePayloadReload).Methods("POST")

	if s.cfg.StaticDir == "" {
		return
	}
	if info, err := os.Stat(s.cfg.StaticDir); err != nil || !info.IsDir() {
		log.Warn().Str("dir", s.cfg.StaticDir).Msg("Static directory not available; frontend will not be served")
		return
	}

	// SPA fallback: serve index.html for any non-API route
	staticContent := os.DirFS(s.cfg.StaticDir)
	fileServer := http.FileServer(http.FS(staticContent))
	s.router.PathPrefix("/").Handler(spaHandler{staticContent: staticContent, fileServer: fileServer})
}

// middleware wraps the router with recovery, access logging and CORS
func (s *Server) middleware(next http.Handler) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
	)(handlers.CombinedLoggingHandler(accessLog{}, cors(next)))
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the payload watcher and begins listening for HTTP
// connections. It returns nil once Stop has shut the server down.
func (s *Server) Start(ctx context.Context) error {
	if s.watcher != nil {
		if err := s.watcher.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("Payload watcher not started; reload with POST /api/payload/reload")
		}
	}

	log.Info().Msgf("Server listening on http://localhost:%d", s.cfg.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)

	// Close watcher and stores
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.closeViews()

	return err
}

func (s *Server) closeViews() {
	if s.viewStore == nil {
		return
	}
	if err := s.viewStore.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing views store")
	}
	s.viewStore = nil
}

// accessLog forwards combined log lines to zerolog
type accessLog struct{}

func (accessLog) Write(p []byte) (int, error) {
	log.Info().Str("component", "http").Msg(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...any) {
	log.Error().Str("component", "http").Msg(fmt.Sprint(v...))
}

// spaHandler serves the SPA, falling back to index.html for client-side routing
type spaHandler struct {
	staticContent fs.FS
	fileServer    http.Handler
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Try to open the file
	path := r.URL.Path
	if path == "/" {
		path = "index.html"
	}

	// fs.FS paths must not have a leading slash
	cleanPath := strings.TrimPrefix(path, "/")

	if _, err := fs.Stat(h.staticContent, cleanPath); err != nil {
		// File not found, serve index.html for SPA routing
		r.URL.Path = "/"
	}

	h.fileServer.ServeHTTP(w, r)
}
