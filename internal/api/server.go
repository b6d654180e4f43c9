package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dgallion1/actgen/internal/config"
	"github.com/dgallion1/actgen/internal/pipeline"
	"github.com/dgallion1/actgen/internal/templatestore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// PageStore reads and removes published pages.
type PageStore interface {
	GetNode(ctx context.Context, key string) (*templatestore.NodeResponse, error)
	ListChildren(ctx context.Context, key string, limit int) ([]templatestore.NodeResponse, error)
	DeleteNode(ctx context.Context, key string, recursive bool) error
}

// Server is the HTTP API server for actgen.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        PageStore
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. store may be nil when
// publishing is disabled.
func NewServer(orch *pipeline.Orchestrator, store PageStore, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		store:        store,
		log:          log,
		cfg:          cfg,
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
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/generate", s.handleGenerate)
		r.Post("/api/jobs", s.handleSubmitJob)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/stats", s.handleStats)

		r.Get("/api/pages/{pageID}", s.handleGetPage)
		r.Delete("/api/pages/{pageID}", s.handleDeletePage)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
