// SPDX-License-Identifier: AGPL-3.0-only
package mcpclient

import (
	"context"
	"time"

	"github.com/hli-yohan-lee/dev-mcp/internal/tools"
)

// Default timeouts for tool discovery and tool execution
const (
	DefaultListTimeout = 10 * time.Second
	DefaultCallTimeout = 30 * time.Second
)

// Client reaches a tool server. CallTool returns the first content block
// parsed as a JSON object, or {"data": text} for plain text.
type Client interface {
	ListTools(ctx context.Context) ([]tools.Definition, error)
	CallTool(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error)
	Close() error
}

// Options configures a Client
type Options struct {
	ListTimeout time.Duration
	CallTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.ListTimeout <= 0 {
		o.ListTimeout = DefaultListTimeout
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	return o
}
