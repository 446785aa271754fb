// Package server provides the HTTP API for planreview.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/planreview/internal/config"
	"github.com/hyperjump/planreview/internal/service"
)

// maxMultipartMemory is the part of a multipart upload kept in memory.
const maxMultipartMemory = 32 << 20

// maxMultipartOverhead is the room left for form fields and part headers on
// top of the upload size limit.
const maxMultipartOverhead = 1 << 20

// Server is the HTTP server for the planreview API.
type Server struct {
	service *service.Service
	config  *config.ServerConfig
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(svc *service.Service, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		service: svc,
		config:  cfg,
		logger:  logger,
	}
}

// Router returns the HTTP handler with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Get("/projects", s.handleListProjects)
		r.Post("/projects", s.handleCreateProject)
		r.Get("/projects/{id}/reviews", s.handleListReviews)
		r.Post("/projects/{id}/documents", s.handleUploadDocument)

		r.Post("/documents/{id}/parse", s.handleParseDocument)
		r.Post("/documents/{id}/review", s.handleReviewDocument)

		r.Get("/reviews/{id}/report", s.handleReport)

		r.Get("/review-points", s.handleReviewPoints)

		r.Get("/rules", s.handleListRules)
		r.Post("/rules", s.handleCreateRule)
		r.Put("/rules/{id}", s.handleUpdateRule)
		r.Delete("/rules/{id}", s.handleDeleteRule)

		r.Get("/standards", s.handleListStandards)
		r.Post("/standards", s.handleAddStandard)
		r.Get("/standards/search", s.handleSearchStandards)
		r.Post("/standards/{id}/generate-rules", s.handleGenerateRules)

		r.Get("/ai-models", s.handleAIModels)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
