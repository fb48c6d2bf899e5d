// SPDX-License-Identifier: AGPL-3.0-only
package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hli-yohan-lee/dev-mcp/internal/tools"
)

// registerTools adds every registry tool to srv, each backed by the
// tool server's executor.
func (s *ToolServer) registerTools(srv *mcp.Server) {
	for _, def := range tools.List() {
		srv.AddTool(&mcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, s.toolHandler(def.Name))
	}
}

func (s *ToolServer) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := extractArguments(request)
		if err != nil {
			return createErrorResponse(err)
		}
		s.logger.Infof("Tool call: %s", name)

		result, err := s.exec.Execute(ctx, name, args)
		if err != nil {
			s.logger.Warnf("Tool %s failed: %v", name, err)
			return createErrorResponse(err)
		}
		return createToolResponse(result), nil
	}
}
