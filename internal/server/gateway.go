// SPDX-License-Identifier: AGPL-3.0-only
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hli-yohan-lee/dev-mcp/internal/agent"
	"github.com/hli-yohan-lee/dev-mcp/internal/corp"
	"github.com/hli-yohan-lee/dev-mcp/internal/jsonrpc"
	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
	"github.com/hli-yohan-lee/dev-mcp/internal/model"
	"github.com/hli-yohan-lee/dev-mcp/internal/tools"
)

// CorpDispatcher forwards signed actions to the corporate API
type CorpDispatcher interface {
	Dispatch(ctx context.Context, action string, args map[string]interface{}) (*corp.Response, error)
}

// GatewayServer serves the agent and proxies the tool server and the
// corporate API.
type GatewayServer struct {
	orchestrator *agent.Orchestrator
	tools        agent.ToolSource
	corp         CorpDispatcher
	origins      []string
	logger       *logging.Logger
}

type corpDispatchRequest struct {
	Action string                 `json:"action"`
	Args   map[string]interface{} `json:"args"`
}

// NewGatewayServer creates a GatewayServer. corpClient may be nil, in
// which case /api/corp/dispatch answers 503.
func NewGatewayServer(o *agent.Orchestrator, source agent.ToolSource, corpClient CorpDispatcher, origins []string, logger *logging.Logger) *GatewayServer {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	return &GatewayServer{orchestrator: o, tools: source, corp: corpClient, origins: origins, logger: logger}
}

// Handler returns the HTTP routes of the gateway
func (s *GatewayServer) Handler() http.Handler {
	r := newRouter(s.origins, s.logger)
	r.Post("/ask", s.handleAsk)
	r.Get("/api/mcp/tools", s.handleListTools)
	r.Post("/api/mcp/call", s.handleCallTool)
	r.Post("/api/corp/dispatch", s.handleCorpDispatch)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "MCP Gateway Backend"})
	})
	return r
}

func (s *GatewayServer) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req agent.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.orchestrator.Ask(r.Context(), req))
}

func (s *GatewayServer) handleListTools(w http.ResponseWriter, r *http.Request) {
	defs, err := s.tools.ListTools(r.Context())
	if err != nil {
		s.logger.Warnf("Tool listing failed: %v", err)
		writeEnvelope(w, model.Failure(fmt.Sprintf("MCP 서버 연결 실패: %v", err)))
		return
	}
	if len(defs) == 0 {
		writeEnvelope(w, model.Failure("MCP 서버에서 도구 목록을 가져올 수 없습니다"))
		return
	}
	writeEnvelope(w, model.Success(map[string]interface{}{"tools": tools.FunctionTools(defs)}))
}

func (s *GatewayServer) handleCallTool(w http.ResponseWriter, r *http.Request) {
	var req jsonrpc.LegacyCallRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeEnvelope(w, model.Failure(err.Error()))
		return
	}
	if req.Tool == "" {
		writeEnvelope(w, model.Failure("tool 이름이 필요합니다"))
		return
	}

	result, err := s.tools.CallTool(r.Context(), req.Tool, req.Arguments)
	if err != nil {
		s.logger.Warnf("Tool %s failed: %v", req.Tool, err)
		writeEnvelope(w, model.Failure(fmt.Sprintf("MCP 도구 실행 실패: %v", err)))
		return
	}
	if msg, failed := result["error"]; failed {
		writeEnvelope(w, model.Failure(fmt.Sprint(msg)))
		return
	}
	writeEnvelope(w, model.Success(result))
}

func (s *GatewayServer) handleCorpDispatch(w http.ResponseWriter, r *http.Request) {
	if s.corp == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Corp API is not configured")
		return
	}
	var req corpDispatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Action == "" {
		writeDetail(w, http.StatusBadRequest, "action is required")
		return
	}

	resp, err := s.corp.Dispatch(r.Context(), req.Action, req.Args)
	if err != nil {
		var status *corp.StatusError
		if errors.As(err, &status) {
			writeDetail(w, status.Status, status.Detail)
			return
		}
		s.logger.Errorf("Corp dispatch %s failed: %v", req.Action, err)
		writeDetail(w, http.StatusBadGateway, fmt.Sprintf("Corp API unavailable: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
