// SPDX-License-Identifier: AGPL-3.0-only
package executor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hli-yohan-lee/dev-mcp/internal/config"
	"github.com/hli-yohan-lee/dev-mcp/internal/model"
	"github.com/hli-yohan-lee/dev-mcp/internal/tools"
)

// Executor runs a registered tool and wraps the collaborator's answer in a
// tool result. Collaborator failures are returned as error content; only
// unknown tools and transport failures are Go errors.
type Executor interface {
	Execute(ctx context.Context, name string, args map[string]interface{}) (model.ToolResult, error)
}

// UnknownToolError reports a tool name missing from the registry
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("Unknown tool: %s", e.Name)
}

// ResolveCredentials returns a copy of args with the GitHub credential
// placeholders replaced by the configured account. Other values pass
// through unchanged.
func ResolveCredentials(args map[string]interface{}, gh config.GitHubConfig) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		out[k] = v
	}
	if v, ok := out["username"].(string); ok && v == tools.PlaceholderUsername {
		out["username"] = gh.Username
	}
	if v, ok := out["password"].(string); ok && v == tools.PlaceholderToken {
		out["password"] = gh.Token
	}
	return out
}

type credentialExecutor struct {
	next Executor
	gh   config.GitHubConfig
}

// WithCredentials decorates next so that GitHub tool calls have their
// credential placeholders resolved before they run.
func WithCredentials(next Executor, gh config.GitHubConfig) Executor {
	return &credentialExecutor{next: next, gh: gh}
}

func (c *credentialExecutor) Execute(ctx context.Context, name string, args map[string]interface{}) (model.ToolResult, error) {
	if name == tools.GitHubInfo {
		args = ResolveCredentials(args, c.gh)
	}
	return c.next.Execute(ctx, name, args)
}

// Failure texts shared by the in-process and remote executors
const (
	fileNotFoundFormat    = "파일을 찾을 수 없습니다: %s"
	tableNotFoundFormat   = "테이블을 찾을 수 없습니다: %s"
	pdfErrorFormat        = "PDF 처리 오류: %v"
	databaseErrorFormat   = "데이터베이스 오류: %v"
	internalAPIFormat     = "내부 API 오류: HTTP %d"
	invalidArgumentFormat = "invalid arguments: %v"
)

// outsideRegistry rejects a read_pdf filename or query_database table that
// the registry does not list. Empty values are left to the backend's own
// required-field checks.
func outsideRegistry(name string, args map[string]interface{}) (model.Envelope, bool) {
	switch name {
	case tools.ReadPDF:
		var p tools.ReadPDFParams
		if err := decodeArgs(args, &p); err != nil {
			return model.Failure(fmt.Sprintf(invalidArgumentFormat, err)), true
		}
		if p.Filename != "" && !tools.Contains(tools.PDFFiles, p.Filename) {
			return model.Failure(fmt.Sprintf(fileNotFoundFormat, p.Filename)), true
		}
	case tools.QueryDatabase:
		var p tools.QueryDatabaseParams
		if err := decodeArgs(args, &p); err != nil {
			return model.Failure(fmt.Sprintf(invalidArgumentFormat, err)), true
		}
		if p.Table != "" && !tools.Contains(tools.Tables, p.Table) {
			return model.Failure(fmt.Sprintf(tableNotFoundFormat, p.Table)), true
		}
	}
	return model.Envelope{}, false
}

// decodeArgs converts loosely typed tool arguments into a params struct
func decodeArgs(args map[string]interface{}, v interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
