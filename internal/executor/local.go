// SPDX-License-Identifier: AGPL-3.0-only
package executor

import (
	"context"
	"fmt"

	"github.com/hli-yohan-lee/dev-mcp/internal/github"
	"github.com/hli-yohan-lee/dev-mcp/internal/model"
	"github.com/hli-yohan-lee/dev-mcp/internal/tools"
)

// Local runs tools against in-process collaborators
type Local struct {
	backend *Backend
}

// NewLocal creates a Local executor
func NewLocal(backend *Backend) *Local {
	return &Local{backend: backend}
}

// Execute validates the arguments against the registry's closed sets and
// runs the tool.
func (l *Local) Execute(ctx context.Context, name string, args map[string]interface{}) (model.ToolResult, error) {
	if env, rejected := outsideRegistry(name, args); rejected {
		return model.EnvelopeResult(env)
	}
	var env model.Envelope
	switch name {
	case tools.ReadPDF:
		var p tools.ReadPDFParams
		if err := decodeArgs(args, &p); err != nil {
			env = model.Failure(fmt.Sprintf(invalidArgumentFormat, err))
			break
		}
		env = l.backend.ReadPDF(ctx, p.Filename)

	case tools.QueryDatabase:
		var p tools.QueryDatabaseParams
		if err := decodeArgs(args, &p); err != nil {
			env = model.Failure(fmt.Sprintf(invalidArgumentFormat, err))
			break
		}
		env = l.backend.QueryDatabase(ctx, p.Table, p.Filters)

	case tools.GitHubInfo:
		var p tools.GitHubParams
		if err := decodeArgs(args, &p); err != nil {
			env = model.Failure(fmt.Sprintf(invalidArgumentFormat, err))
			break
		}
		env = l.backend.GitHub(ctx, github.Request{
			Repository: p.Repository,
			Username:   p.Username,
			Password:   p.Password,
			FilePath:   p.FilePath,
		})

	case tools.SystemHealth:
		env = l.backend.Health(ctx)

	default:
		return model.ToolResult{}, &UnknownToolError{Name: name}
	}
	return model.EnvelopeResult(env)
}
