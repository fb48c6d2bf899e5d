// SPDX-License-Identifier: AGPL-3.0-only
package server

import (
	"net/http"

	"github.com/hli-yohan-lee/dev-mcp/internal/executor"
	"github.com/hli-yohan-lee/dev-mcp/internal/github"
	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
	"github.com/hli-yohan-lee/dev-mcp/internal/model"
)

// BackendServer exposes the collaborators as a REST API. The remote tool
// executor calls it.
type BackendServer struct {
	backend *executor.Backend
	version string
	origins []string
	logger  *logging.Logger
}

type pdfRequest struct {
	Filename string `json:"filename"`
}

type databaseRequest struct {
	Table   string                 `json:"table"`
	Filters map[string]interface{} `json:"filters"`
}

// NewBackendServer creates a BackendServer
func NewBackendServer(backend *executor.Backend, version string, origins []string, logger *logging.Logger) *BackendServer {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	return &BackendServer{backend: backend, version: version, origins: origins, logger: logger}
}

// Handler returns the HTTP routes of the backend
func (s *BackendServer) Handler() http.Handler {
	r := newRouter(s.origins, s.logger)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "MCP Backend API Server", "version": s.version})
	})
	r.Post("/api/pdf", s.handlePDF)
	r.Post("/api/database", s.handleDatabase)
	r.Post("/api/github", s.handleGitHub)
	r.Post("/api/health", s.handleHealthEnvelope)
	r.Post("/health", s.handleHealthEnvelope)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.backend.HealthStatus())
	})
	return r
}

func (s *BackendServer) handlePDF(w http.ResponseWriter, r *http.Request) {
	var req pdfRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeEnvelope(w, model.Failure(err.Error()))
		return
	}
	s.logger.Debugf("PDF request for %s", req.Filename)
	writeEnvelope(w, s.backend.ReadPDF(r.Context(), req.Filename))
}

func (s *BackendServer) handleDatabase(w http.ResponseWriter, r *http.Request) {
	var req databaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeEnvelope(w, model.Failure(err.Error()))
		return
	}
	s.logger.Debugf("Database request for %s", req.Table)
	writeEnvelope(w, s.backend.QueryDatabase(r.Context(), req.Table, req.Filters))
}

func (s *BackendServer) handleGitHub(w http.ResponseWriter, r *http.Request) {
	var req github.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeEnvelope(w, model.Failure(err.Error()))
		return
	}
	s.logger.Debugf("GitHub request for %s", req.Repository)
	writeEnvelope(w, s.backend.GitHub(r.Context(), req))
}

func (s *BackendServer) handleHealthEnvelope(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, s.backend.Health(r.Context()))
}
