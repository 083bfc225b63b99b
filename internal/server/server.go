// Package server exposes stored mind maps over HTTP.
//
// The save, delete, get_mindmap and get_json_files routes keep the paths
// and payloads of the browser editor's backend. Everything under /api/maps
// drives the balancing and expansion engine on a stored map and answers
// with the updated tree model.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/pipeline"
	"github.com/matzehuels/mindmap/pkg/session"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 10 << 20

// Options configures a Server.
type Options struct {
	Sessions *session.Manager
	Runner   *pipeline.Runner // nil disables rendering routes
	Logger   *log.Logger

	// SourceBase prefixes source page links. Empty means mindmap.DefaultSourceBase.
	SourceBase string
}

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	sessions   *session.Manager
	runner     *pipeline.Runner
	log        *log.Logger
	sourceBase string
}

// New creates and configures the HTTP server.
func New(opts Options) *Server {
	s := &Server{
		sessions:   opts.Sessions,
		runner:     opts.Runner,
		log:        opts.Logger,
		sourceBase: opts.SourceBase,
	}
	if s.log == nil {
		s.log = log.New(io.Discard)
	}
	if s.sourceBase == "" {
		s.sourceBase = mindmap.DefaultSourceBase
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))

	r.Get("/health", s.handleHealth)

	// Browser editor backend.
	r.Post("/save", s.handleSave)
	r.Post("/delete/{filename}", s.handleDeleteFile)
	r.Get("/get_mindmap/{filename}", s.handleGetMindmap)
	r.Get("/get_json_files", s.handleListFiles)

	r.Post("/api/balance", s.handleBalance)
	r.Route("/api/maps", func(r chi.Router) {
		r.Get("/", s.handleListMaps)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetMap)
			r.Put("/", s.handlePutMap)
			r.Delete("/", s.handleDeleteMap)
			r.Get("/stats", s.handleStats)
			r.Get("/render/{format}", s.handleRender)

			r.Post("/rebalance", s.handleRebalance)
			r.Post("/expand-all", s.handleExpandAll)
			r.Post("/collapse-all", s.handleCollapseAll)

			r.Route("/nodes/{key}", func(r chi.Router) {
				r.Post("/visibility", s.handleVisibility)
				r.Post("/expand", s.handleExpand)
				r.Post("/collapse", s.handleCollapse)
				r.Post("/layout", s.handleLayoutSubtree)
				r.Post("/children", s.handleAddChild)
				r.Delete("/", s.handleDeleteNode)
				r.Post("/move", s.handleMove)
				r.Post("/drop", s.handleDrop)
				r.Put("/text", s.handleSetText)
				r.Get("/source", s.handleSource)
			})
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
