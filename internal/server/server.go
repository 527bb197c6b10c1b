// Package server provides the HTTP API for ArxivMind.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/arxivmind/arxivmind/internal/analysis"
	"github.com/arxivmind/arxivmind/internal/arxiv"
	"github.com/arxivmind/arxivmind/internal/config"
	"github.com/arxivmind/arxivmind/internal/ingest"
	"github.com/arxivmind/arxivmind/internal/retriever"
	"github.com/arxivmind/arxivmind/internal/search"
	"github.com/arxivmind/arxivmind/internal/storage"
)

// maxUploadBytes caps uploaded paper files at 50 MB.
const maxUploadBytes = 50 << 20

// Server is the HTTP server for the ArxivMind API.
type Server struct {
	engine     *search.Engine
	ingestor   *ingest.Ingestor
	storage    storage.Storage
	retriever  *retriever.Retriever
	analyzer   *analysis.Analyzer
	comparator *analysis.Comparator
	arxiv      *arxiv.Client
	config     *config.Config
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies. analyzer and
// comparator may be nil when no generation backend is configured; their
// endpoints then return 501.
func NewServer(
	engine *search.Engine,
	ingestor *ingest.Ingestor,
	store storage.Storage,
	r *retriever.Retriever,
	analyzer *analysis.Analyzer,
	comparator *analysis.Comparator,
	arxivClient *arxiv.Client,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:     engine,
		ingestor:   ingestor,
		storage:    store,
		retriever:  r,
		analyzer:   analyzer,
		comparator: comparator,
		arxiv:      arxivClient,
		config:     cfg,
		logger:     logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Get("/arxiv/search", s.handleArxivSearch)
		r.Post("/arxiv/ingest", s.handleArxivIngest)

		r.Get("/papers", s.handleListPapers)
		r.Post("/papers", s.handleAddPaper)
		r.Post("/papers/upload", s.handleUploadPaper)
		r.Get("/papers/{id}", s.handleGetPaper)
		r.Delete("/papers/{id}", s.handleDeletePaper)
		r.Get("/papers/{id}/analyses", s.handleGetAnalyses)

		r.Post("/search", s.handleSearch)
		r.Post("/similar", s.handleSimilar)

		r.Post("/analyze", s.handleAnalyze)
		r.Post("/insights", s.handleInsights)
		r.Post("/review", s.handleReview)
		r.Post("/compare", s.handleCompare)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
