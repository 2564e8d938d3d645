// Package server exposes built tiles and the search index over HTTP.
// The server is read-only: it serves whatever a previous build wrote to
// the tile store, and never triggers pipeline work itself.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	apperrors "github.com/treeatlas/treeatlas/pkg/errors"
	"github.com/treeatlas/treeatlas/pkg/search"
	"github.com/treeatlas/treeatlas/pkg/store"
	"github.com/treeatlas/treeatlas/pkg/tiles"
)

// Config holds server configuration.
type Config struct {
	Addr string

	// AllowAllOrigins opens CORS to any origin, for development.
	AllowAllOrigins bool

	// SearchLimit caps results per search request.
	SearchLimit int
}

// Server serves tiles and search results.
type Server struct {
	cfg    Config
	store  store.TileStore
	index  *search.Index
	logger *log.Logger

	router     chi.Router
	httpServer *http.Server
}

// New creates a server over an opened tile store. A nil index disables
// the search endpoint.
func New(cfg Config, st store.TileStore, index *search.Index, logger *log.Logger) *Server {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 50
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{cfg: cfg, store: st, index: index, logger: logger}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept"},
		MaxAge:         300,
	}
	if s.cfg.AllowAllOrigins {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/tiles/{zoom}/{row}", s.handleTile)
	r.Get("/search", s.handleSearch)

	return r
}

// Router exposes the router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	zoom, err := strconv.Atoi(chi.URLParam(r, "zoom"))
	if err != nil || zoom < 0 || zoom > tiles.MaxZoom {
		writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "invalid zoom level")
		return
	}
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil || row < 0 || row >= 1<<zoom {
		writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "invalid row")
		return
	}

	tile, err := s.store.Get(r.Context(), zoom, row)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, apperrors.ErrCodeTileNotFound, "tile not found")
		return
	}
	if err != nil {
		s.logger.Error("tile read failed", "zoom", zoom, "row", row, "error", err)
		writeError(w, http.StatusInternalServerError, apperrors.ErrCodeInternal, "tile read failed")
		return
	}
	writeJSON(w, tile)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		writeError(w, http.StatusNotFound, apperrors.ErrCodeNotFound, "search index not loaded")
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "missing query parameter q")
		return
	}
	limit := s.cfg.SearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "invalid limit")
			return
		}
		if n < limit {
			limit = n
		}
	}
	docs := s.index.Query(q, limit)
	if docs == nil {
		docs = []search.Doc{}
	}
	writeJSON(w, docs)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already written; nothing left to do.
		return
	}
}

func writeError(w http.ResponseWriter, status int, code apperrors.Code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": string(code)})
}

// Start listens until the context is canceled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.cfg.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
