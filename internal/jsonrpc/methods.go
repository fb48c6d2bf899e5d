// SPDX-License-Identifier: AGPL-3.0-only
package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hli-yohan-lee/dev-mcp/internal/model"
	"github.com/hli-yohan-lee/dev-mcp/internal/tools"
)

// Method names served by the tool server
const (
	MethodInitialize = "initialize"
	MethodToolsList  = "tools/list"
	MethodToolsCall  = "tools/call"
)

// ProtocolVersion is advertised by initialize
const ProtocolVersion = "2024-11-05"

// ErrToolNameRequired is returned by tools/call without params.name
var ErrToolNameRequired = errors.New("Tool name is required")

// ToolExecutor runs a named tool
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]interface{}) (model.ToolResult, error)
}

// ServerInfo identifies the server in the initialize response
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the static capability descriptor
type InitializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      ServerInfo             `json:"serverInfo"`
}

// ToolsListResult is the result of tools/list
type ToolsListResult struct {
	Tools []tools.Definition `json:"tools"`
}

// CallParams are the params of tools/call
type CallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// RegisterToolMethods binds initialize, tools/list and tools/call
func RegisterToolMethods(d *Dispatcher, exec ToolExecutor, info ServerInfo) {
	d.Register(MethodInitialize, func(context.Context, json.RawMessage) (interface{}, error) {
		return InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    map[string]interface{}{"tools": map[string]interface{}{}},
			ServerInfo:      info,
		}, nil
	})

	d.Register(MethodToolsList, func(context.Context, json.RawMessage) (interface{}, error) {
		return ToolsListResult{Tools: tools.List()}, nil
	})

	d.Register(MethodToolsCall, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var params CallParams
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &params); err != nil {
				return nil, fmt.Errorf("decode tools/call params: %w", err)
			}
		}
		if params.Name == "" {
			return nil, ErrToolNameRequired
		}
		if params.Arguments == nil {
			params.Arguments = map[string]interface{}{}
		}
		d.logger.Infof("Tool call: %s", params.Name)
		return exec.Execute(ctx, params.Name, params.Arguments)
	})
}
