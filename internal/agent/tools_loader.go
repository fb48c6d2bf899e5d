// SPDX-License-Identifier: AGPL-3.0-only
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hli-yohan-lee/dev-mcp/internal/tools"
)

// ToolSource lists and invokes the tool server's tools
type ToolSource interface {
	ListTools(ctx context.Context) ([]tools.Definition, error)
	CallTool(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error)
}

// toToolDefinitions converts tool server definitions to the provider
// shape, in the order received.
func toToolDefinitions(defs []tools.Definition) []ToolDefinition {
	out := make([]ToolDefinition, 0, len(defs))
	for _, d := range defs {
		params := make(map[string]interface{}, len(d.InputSchema)+2)
		for k, v := range d.InputSchema {
			params[k] = v
		}
		if params["type"] == nil {
			params["type"] = "object"
		}
		// OpenAI rejects object schemas without a properties key.
		if _, ok := params["properties"].(map[string]interface{}); !ok {
			params["properties"] = map[string]interface{}{}
		}
		out = append(out, ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  params,
		})
	}
	return out
}

// parseArguments decodes the model's JSON argument string. An empty
// string means no arguments.
func parseArguments(raw string) (map[string]interface{}, error) {
	args := map[string]interface{}{}
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return args, nil
}
