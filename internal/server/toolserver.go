// SPDX-License-Identifier: AGPL-3.0-only
package server

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hli-yohan-lee/dev-mcp/internal/executor"
	"github.com/hli-yohan-lee/dev-mcp/internal/jsonrpc"
	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
)

// ToolServer exposes the tool registry over JSON-RPC and MCP stdio
type ToolServer struct {
	exec       executor.Executor
	dispatcher *jsonrpc.Dispatcher
	info       jsonrpc.ServerInfo
	origins    []string
	logger     *logging.Logger
}

// NewToolServer creates a ToolServer running tools through exec
func NewToolServer(exec executor.Executor, info jsonrpc.ServerInfo, origins []string, logger *logging.Logger) *ToolServer {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	d := jsonrpc.NewDispatcher(logger)
	jsonrpc.RegisterToolMethods(d, exec, info)
	return &ToolServer{
		exec:       exec,
		dispatcher: d,
		info:       info,
		origins:    origins,
		logger:     logger,
	}
}

// Handler returns the HTTP routes of the tool server
func (s *ToolServer) Handler() http.Handler {
	r := newRouter(s.origins, s.logger)
	r.Post("/", s.dispatcher.ServeHTTP)
	r.Get("/mcp/tools", jsonrpc.LegacyToolsHandler())
	r.Post("/mcp/call", jsonrpc.LegacyCallHandler(s.dispatcher))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.info.Name + " (JSON-RPC 2.0)",
		})
	})
	return r
}

// MCPServer builds an MCP server exposing the same tools
func (s *ToolServer) MCPServer() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: s.info.Name, Version: s.info.Version}, nil)
	s.registerTools(srv)
	return srv
}

// ServeStdio serves MCP over stdin and stdout until ctx is done or the
// peer disconnects.
func (s *ToolServer) ServeStdio(ctx context.Context) error {
	s.logger.Infof("Using stdio transport")
	return s.MCPServer().Run(ctx, &mcp.StdioTransport{})
}
