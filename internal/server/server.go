// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes searches and the search history over HTTP.
//
// Routes:
//
//	GET  /api/health   liveness and history database status
//	POST /api/search   run a search, JSON body {searchterm, mode, email, searchnumber, sortby}
//	GET  /api/history  recorded searches, ?q= filters by query text, ?limit= caps the count
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pdiddy/pubmed-search/internal/history"
	"github.com/pdiddy/pubmed-search/internal/service"
	"github.com/pdiddy/pubmed-search/pkg/types"
)

// Searcher runs one validated search.
type Searcher interface {
	Search(ctx context.Context, req types.SearchRequest) (service.Response, error)
}

// History records and lists searches.
type History interface {
	Record(ctx context.Context, e history.Entry) (history.Entry, error)
	List(ctx context.Context, opts history.ListOptions) ([]history.Entry, error)
}

// Server is the HTTP API.
type Server struct {
	cfg      types.ServerConfig
	searcher Searcher
	history  History
	version  string
	log      *slog.Logger
}

// New returns a Server. hist may be nil, in which case searches are not
// recorded and /api/history returns 503.
func New(cfg types.ServerConfig, searcher Searcher, hist History, version string, lg *slog.Logger) *Server {
	if lg == nil {
		lg = slog.Default()
	}
	return &Server{cfg: cfg, searcher: searcher, history: hist, version: version, log: lg}
}

// Routes returns the API handler with its middleware applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/history", s.handleHistory)
		r.With(RateLimit(s.cfg.RequestsPerSecond, s.cfg.Burst)).Post("/search", s.handleSearch)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", slog.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.InfoContext(r.Context(), "request served",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote", r.RemoteAddr),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)))
	})
}
