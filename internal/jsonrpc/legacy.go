// SPDX-License-Identifier: AGPL-3.0-only
package jsonrpc

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/hli-yohan-lee/dev-mcp/internal/model"
	"github.com/hli-yohan-lee/dev-mcp/internal/tools"
)

// LegacyCallRequest is the body of POST /mcp/call
type LegacyCallRequest struct {
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
}

// LegacyToolsHandler serves the function-calling tool array
func LegacyToolsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, tools.FunctionTools(tools.List()))
	}
}

// LegacyCallHandler re-expresses {tool, arguments} as a tools/call request
// and unwraps the first content block for REST callers. JSON content of any
// kind is written back as is.
func LegacyCallHandler(d *Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body LegacyCallRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
			writeJSONStatus(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
			return
		}
		if body.Arguments == nil {
			body.Arguments = map[string]interface{}{}
		}

		req, err := NewRequest(MethodToolsCall, CallParams{Name: body.Tool, Arguments: body.Arguments}, uuid.NewString())
		if err != nil {
			writeJSON(w, map[string]string{"error": err.Error()})
			return
		}
		resp := d.Dispatch(r.Context(), req)
		if resp.Error != nil {
			writeJSON(w, map[string]string{"error": resp.Error.Message})
			return
		}
		if result, ok := resp.Result.(model.ToolResult); ok && len(result.Content) > 0 {
			writeJSON(w, result.Value())
			return
		}
		writeJSON(w, resp.Result)
	}
}
