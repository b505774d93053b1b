// Package server provides the HTTP API for FinSight.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/quantrail/finsight/internal/chunkstore"
	"github.com/quantrail/finsight/internal/config"
	"github.com/quantrail/finsight/internal/llm"
	"github.com/quantrail/finsight/internal/pipeline"
	"github.com/quantrail/finsight/internal/retrieval"
	"github.com/quantrail/finsight/internal/storage"
	"github.com/quantrail/finsight/internal/watcher"
)

// Server is the HTTP server for the FinSight API.
type Server struct {
	engine      *retrieval.Engine
	processor   *pipeline.Processor
	synthesizer *llm.Synthesizer
	storage     storage.Storage
	store       chunkstore.Store
	config      *config.ServerConfig
	logger      *zap.Logger
	server      *http.Server

	watch         *watcher.Watcher
	watchConfig   *config.Config
	watchConfigMu sync.Mutex
	configPath    string
}

// ServerOption configures optional server collaborators.
type ServerOption func(*Server)

// WithWatcher exposes the inbox watcher over the API and persists directory
// changes back to the config file at configPath.
func WithWatcher(w *watcher.Watcher, cfg *config.Config, configPath string) ServerOption {
	return func(s *Server) {
		s.watch = w
		s.watchConfig = cfg
		s.configPath = configPath
	}
}

// WithSynthesizer enables the /api/v1/ask endpoint.
func WithSynthesizer(syn *llm.Synthesizer) ServerOption {
	return func(s *Server) { s.synthesizer = syn }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *retrieval.Engine,
	processor *pipeline.Processor,
	st storage.Storage,
	store chunkstore.Store,
	cfg *config.ServerConfig,
	logger *zap.Logger,
	opts ...ServerOption,
) *Server {
	s := &Server{
		engine:    engine,
		processor: processor,
		storage:   st,
		store:     store,
		config:    cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/ask", s.handleAsk)
	r.Post("/api/v1/documents", s.handleProcessDocument)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Delete("/api/v1/documents/{id}", s.handleDeleteDocument)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/watch/directories", s.handleWatchDirectoriesList)
	r.Post("/api/v1/watch/directories", s.handleWatchDirectoriesAdd)
	r.Delete("/api/v1/watch/directories", s.handleWatchDirectoriesRemove)
	r.Get("/health", s.handleHealth)

	return r
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
