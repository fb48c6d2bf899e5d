// SPDX-License-Identifier: AGPL-3.0-only
package mcpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/hli-yohan-lee/dev-mcp/internal/jsonrpc"
	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
	"github.com/hli-yohan-lee/dev-mcp/internal/model"
	"github.com/hli-yohan-lee/dev-mcp/internal/tools"
)

// HTTPClient talks JSON-RPC to a tool server and falls back to the legacy
// REST mirror when the JSON-RPC call fails.
type HTTPClient struct {
	endpoint string
	opts     Options
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *logging.Logger
}

// NewHTTPClient creates an HTTPClient for the tool server at endpoint
func NewHTTPClient(endpoint string, opts Options, logger *logging.Logger) *HTTPClient {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	c := &HTTPClient{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		opts:     opts.withDefaults(),
		client:   &http.Client{},
		logger:   logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "toolserver",
		Timeout: 30 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return c
}

// ListTools returns the tool server's definitions
func (c *HTTPClient) ListTools(ctx context.Context) ([]tools.Definition, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ListTimeout)
	defer cancel()

	var result jsonrpc.ToolsListResult
	err := c.rpc(ctx, jsonrpc.MethodToolsList, map[string]interface{}{}, &result)
	if err == nil {
		return result.Tools, nil
	}
	c.logger.Warnf("tools/list failed, falling back to /mcp/tools: %v", err)

	var fns []tools.FunctionTool
	if err := c.do(ctx, http.MethodGet, "/mcp/tools", nil, &fns); err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return tools.Definitions(fns), nil
}

// CallTool invokes name with args
func (c *HTTPClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()

	if args == nil {
		args = map[string]interface{}{}
	}
	var result model.ToolResult
	err := c.rpc(ctx, jsonrpc.MethodToolsCall, jsonrpc.CallParams{Name: name, Arguments: args}, &result)
	if err == nil {
		return result.Unwrap(), nil
	}
	c.logger.Warnf("tools/call %s failed, falling back to /mcp/call: %v", name, err)

	var out interface{}
	body := jsonrpc.LegacyCallRequest{Tool: name, Arguments: args}
	if err := c.do(ctx, http.MethodPost, "/mcp/call", body, &out); err != nil {
		return nil, fmt.Errorf("call tool %s: %w", name, err)
	}
	if out == nil {
		return map[string]interface{}{}, nil
	}
	return model.AsObject(out), nil
}

// Close is a no-op; HTTP connections are pooled by the transport
func (c *HTTPClient) Close() error { return nil }

func (c *HTTPClient) rpc(ctx context.Context, method string, params, result interface{}) error {
	req, err := jsonrpc.NewRequest(method, params, uuid.NewString())
	if err != nil {
		return err
	}
	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *jsonrpc.Error  `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, "/", req, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if len(resp.Result) == 0 {
		return fmt.Errorf("%s: empty result", method)
	}
	return json.Unmarshal(resp.Result, result)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			if err != nil {
				return nil, err
			}
			reader = bytes.NewReader(raw)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
		}
		return nil, json.NewDecoder(resp.Body).Decode(out)
	})
	return err
}
