// SPDX-License-Identifier: AGPL-3.0-only
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
	"github.com/hli-yohan-lee/dev-mcp/internal/model"
	"github.com/hli-yohan-lee/dev-mcp/internal/tools"
)

// DefaultRemoteTimeout bounds one backend call
const DefaultRemoteTimeout = 30 * time.Second

var remotePaths = map[string]string{
	tools.ReadPDF:       "/api/pdf",
	tools.QueryDatabase: "/api/database",
	tools.GitHubInfo:    "/api/github",
	tools.SystemHealth:  "/api/health",
}

// Remote forwards tools to the backend REST API
type Remote struct {
	endpoint string
	client   *http.Client
	logger   *logging.Logger
}

// NewRemote creates a Remote executor for the backend at endpoint
func NewRemote(endpoint string, timeout time.Duration, logger *logging.Logger) *Remote {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	return &Remote{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Execute posts the arguments to the backend route for name. A JSON
// answer becomes the result text as is; anything else is passed through
// as raw text. Files and tables outside the registry are refused without
// a backend round trip.
func (r *Remote) Execute(ctx context.Context, name string, args map[string]interface{}) (model.ToolResult, error) {
	path, ok := remotePaths[name]
	if !ok {
		return model.ToolResult{}, &UnknownToolError{Name: name}
	}
	if env, rejected := outsideRegistry(name, args); rejected {
		return model.EnvelopeResult(env)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return model.ToolResult{}, fmt.Errorf("encode arguments: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return model.ToolResult{}, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	r.logger.Debugf("Forwarding %s to %s", name, path)
	resp, err := r.client.Do(req)
	if err != nil {
		return model.ToolResult{}, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ToolResult{}, fmt.Errorf("read backend response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.ToolResult{}, fmt.Errorf(internalAPIFormat, resp.StatusCode)
	}

	result := model.TextResult(string(raw))
	var env struct {
		OK *bool `json:"ok"`
	}
	if json.Unmarshal(raw, &env) == nil && env.OK != nil && !*env.OK {
		result.IsError = true
	}
	return result, nil
}
