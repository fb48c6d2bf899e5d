// SPDX-License-Identifier: AGPL-3.0-only
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/hli-yohan-lee/dev-mcp/internal/auth"
	"github.com/hli-yohan-lee/dev-mcp/internal/corp"
	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
	"github.com/hli-yohan-lee/dev-mcp/internal/scheduler"
)

// CorpServer is the signed corporate API
type CorpServer struct {
	authenticator *auth.Authenticator
	router        *corp.Router
	chat          *corp.Chat
	origins       []string
	sweeps        *scheduler.Scheduler
	logger        *logging.Logger
}

// CorpOption configures a CorpServer
type CorpOption func(*CorpServer)

// WithNonceSweeps reports the next scheduled nonce sweep in /health
func WithNonceSweeps(sched *scheduler.Scheduler) CorpOption {
	return func(s *CorpServer) {
		s.sweeps = sched
	}
}

// NewCorpServer creates a CorpServer
func NewCorpServer(a *auth.Authenticator, chat *corp.Chat, origins []string, logger *logging.Logger, opts ...CorpOption) *CorpServer {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	s := &CorpServer{
		authenticator: a,
		router:        corp.NewRouter(chat, logger),
		chat:          chat,
		origins:       origins,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes of the corporate API
func (s *CorpServer) Handler() http.Handler {
	r := newRouter(s.origins, s.logger)
	r.With(auth.RequireSignature(s.authenticator, s.logger)).Post("/dispatch", s.handleDispatch)
	r.Post("/api/chat", s.handleChat)
	r.Get("/health", s.handleHealth)
	return r
}

func (s *CorpServer) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var inv corp.Invocation
	if err := decodeJSON(w, r, &inv); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	requestID := auth.RequestIDFromContext(r.Context())
	s.logger.WithField("request_id", requestID).Infof("Dispatch action %s", inv.Action)

	data, err := s.router.Dispatch(r.Context(), inv)
	if err != nil {
		s.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, corp.Response{OK: true, Data: data, Meta: corp.Meta{RequestID: requestID}})
}

func (s *CorpServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req corp.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	reply, err := s.chat.Reply(r.Context(), req)
	if err != nil {
		s.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *CorpServer) writeActionError(w http.ResponseWriter, err error) {
	var unknown *corp.UnknownActionError
	if errors.As(err, &unknown) {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if !errors.Is(err, corp.ErrChatUnavailable) {
		s.logger.Errorf("Action failed: %v", err)
	}
	writeDetail(w, http.StatusInternalServerError, err.Error())
}

func (s *CorpServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.authenticator.Store().Len(r.Context())
	if err != nil {
		s.logger.Warnf("Nonce store unavailable: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "degraded", "nonce_count": 0})
		return
	}
	out := map[string]interface{}{"status": "healthy", "nonce_count": count}
	if s.sweeps != nil {
		if next, err := s.sweeps.NextRun(scheduler.NonceSweepJob); err == nil && !next.IsZero() {
			out["next_nonce_sweep"] = next.UTC().Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, out)
}
