// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package server exposes the ingestion and indexing pipelines over HTTP.
//
// Routes:
//
//	POST /api/process-document      raw document bytes, optional ?source_url=
//	POST /api/index-documents       JSON array of search documents
//	POST /api/generate-document-id  {"source_url": "..."}
//	GET  /healthz
//
// When a JWT secret is configured the /api routes require an HS256 bearer token.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/poiesic/folio/config"
	"github.com/poiesic/folio/indexing"
	"github.com/poiesic/folio/ingestion"
)

// Backend supplies the pipelines behind the handlers. An error from either
// method is reported to the client as a configuration error.
type Backend interface {
	Pipeline(ctx context.Context) (*ingestion.Pipeline, error)
	Indexer(ctx context.Context) (*indexing.Indexer, error)
}

// Server is the HTTP front end.
type Server struct {
	backend      Backend
	router       chi.Router
	httpServer   *http.Server
	maxIDLength  int
	maxBodyBytes int64
	logger       *slog.Logger
}

// New builds the router. cfg supplies the listen address, CORS origins,
// JWT secret and request limits.
func New(backend Backend, cfg *config.Config) *Server {
	s := &Server{
		backend:      backend,
		maxIDLength:  cfg.Ingestion.MaxIDLength,
		maxBodyBytes: cfg.Server.MaxBodyBytes,
		logger:       slog.Default().With("component", "server"),
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)
	r.Route("/api", func(api chi.Router) {
		if cfg.Server.JWTSecret != "" {
			api.Use(requireJWT([]byte(cfg.Server.JWTSecret)))
		}
		api.Post("/process-document", s.processDocument)
		api.Post("/index-documents", s.indexDocuments)
		api.Post("/generate-document-id", s.generateDocumentID)
	})
	s.router = r

	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}
