// SPDX-License-Identifier: AGPL-3.0-only
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hli-yohan-lee/dev-mcp/internal/errors"
	"github.com/hli-yohan-lee/dev-mcp/internal/model"
)

const maxRequestBody = 4 << 20

// decodeJSON reads the request body into v. An empty body leaves v
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return errors.InvalidInput(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes an error body in the {"detail": ...} shape
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeEnvelope writes env with status 200; failures travel in the body
func writeEnvelope(w http.ResponseWriter, env model.Envelope) {
	writeJSON(w, http.StatusOK, env)
}

// extractArguments decodes the raw arguments of an MCP tool call
func extractArguments(request *mcp.CallToolRequest) (map[string]interface{}, error) {
	args := map[string]interface{}{}
	if request.Params == nil || len(request.Params.Arguments) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(request.Params.Arguments, &args); err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid parameters: %v", err))
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return args, nil
}

// createToolResponse converts an executor result to an MCP tool result
func createToolResponse(result model.ToolResult) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(result.Content))
	for _, block := range result.Content {
		content = append(content, &mcp.TextContent{Text: block.Text})
	}
	return &mcp.CallToolResult{Content: content, IsError: result.IsError}
}

// createErrorResponse creates an error response
func createErrorResponse(err error) (*mcp.CallToolResult, error) {
	// The error is returned as-is so the MCP layer reports it as a
	// protocol error.
	return nil, err
}
