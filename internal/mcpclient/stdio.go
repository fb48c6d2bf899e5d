// SPDX-License-Identifier: AGPL-3.0-only
package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
	"github.com/hli-yohan-lee/dev-mcp/internal/model"
	"github.com/hli-yohan-lee/dev-mcp/internal/tools"
)

// StdioClient talks MCP to a tool server subprocess over its stdin and
// stdout. The session is opened on first use.
type StdioClient struct {
	newTransport func() mcp.Transport
	client       *mcp.Client
	opts         Options
	logger       *logging.Logger

	mu      sync.Mutex
	session *mcp.ClientSession
}

// NewStdioClient creates a client that spawns command with args
func NewStdioClient(command string, args []string, opts Options, logger *logging.Logger) *StdioClient {
	return NewTransportClient(func() mcp.Transport {
		return &mcp.CommandTransport{Command: exec.Command(command, args...)}
	}, opts, logger)
}

// NewTransportClient creates a client over transports produced by
// newTransport. A new transport is requested each time the session has
// to be reopened.
func NewTransportClient(newTransport func() mcp.Transport, opts Options, logger *logging.Logger) *StdioClient {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	return &StdioClient{
		newTransport: newTransport,
		client:       mcp.NewClient(&mcp.Implementation{Name: "dev-mcp-gateway", Version: "2.0.0"}, nil),
		opts:         opts.withDefaults(),
		logger:       logger,
	}
}

func (c *StdioClient) connect(ctx context.Context) (*mcp.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session, nil
	}
	session, err := c.client.Connect(ctx, c.newTransport(), nil)
	if err != nil {
		return nil, fmt.Errorf("connect to tool server: %w", err)
	}
	c.logger.Infof("MCP session established")
	c.session = session
	return session, nil
}

// reset drops a broken session so the next call reconnects
func (c *StdioClient) reset(session *mcp.ClientSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == session {
		_ = session.Close()
		c.session = nil
	}
}

// ListTools returns the server's tools in registry declaration order
func (c *StdioClient) ListTools(ctx context.Context) ([]tools.Definition, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ListTimeout)
	defer cancel()

	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	res, err := session.ListTools(ctx, nil)
	if err != nil {
		c.reset(session)
		return nil, fmt.Errorf("list tools: %w", err)
	}

	defs := make([]tools.Definition, 0, len(res.Tools))
	for _, t := range res.Tools {
		schema := map[string]interface{}{}
		if raw, err := json.Marshal(t.InputSchema); err == nil {
			_ = json.Unmarshal(raw, &schema)
		}
		defs = append(defs, tools.Definition{Name: t.Name, Description: t.Description, InputSchema: schema})
	}
	sortByRegistry(defs)
	return defs, nil
}

// CallTool invokes name with args
func (c *StdioClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()

	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		// A timed-out call leaves the pipe in an unknown state.
		if ctx.Err() != nil {
			c.reset(session)
		}
		return nil, fmt.Errorf("call tool %s: %w", name, err)
	}

	for _, content := range res.Content {
		text, ok := content.(*mcp.TextContent)
		if !ok {
			continue
		}
		out := model.ParseText(text.Text)
		if res.IsError {
			if _, hasErr := out["error"]; !hasErr {
				return map[string]interface{}{"error": text.Text}, nil
			}
		}
		return out, nil
	}
	return map[string]interface{}{}, nil
}

// Close ends the session and stops the subprocess
func (c *StdioClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func sortByRegistry(defs []tools.Definition) {
	rank := make(map[string]int)
	for i, name := range tools.Names() {
		rank[name] = i
	}
	pos := func(name string) int {
		if r, ok := rank[name]; ok {
			return r
		}
		return len(rank)
	}
	sort.SliceStable(defs, func(i, j int) bool {
		return pos(defs[i].Name) < pos(defs[j].Name)
	})
}
