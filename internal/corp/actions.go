// SPDX-License-Identifier: AGPL-3.0-only
package corp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
)

// Actions accepted by /dispatch
const (
	ActionPDFMetadata = "PDF_METADATA"
	ActionPDFText     = "PDF_TEXT"
	ActionPDFLayout   = "PDF_LAYOUT"
	ActionPDFDiff     = "PDF_DIFF"
	ActionGitLabGuide = "GITLAB_GUIDE"
	ActionChat        = "CHAT"
)

// Invocation is the body of a signed dispatch request
type Invocation struct {
	Action string                 `json:"action"`
	Args   map[string]interface{} `json:"args"`
}

// UnknownActionError is returned for actions outside the fixed set
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("Unknown action=%s", e.Action)
}

type actionFunc func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Router routes invocations to action handlers
type Router struct {
	actions map[string]actionFunc
	logger  *logging.Logger
}

// NewRouter creates a Router. chat serves the CHAT action.
func NewRouter(chat *Chat, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	r := &Router{logger: logger}
	r.actions = map[string]actionFunc{
		ActionPDFMetadata: pdfMetadata,
		ActionPDFText:     pdfText,
		ActionPDFLayout:   pdfLayout,
		ActionPDFDiff:     pdfDiff,
		ActionGitLabGuide: gitlabGuide,
		ActionChat: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			var req ChatRequest
			if err := remarshal(args, &req); err != nil {
				return nil, fmt.Errorf("decode chat args: %w", err)
			}
			return chat.Reply(ctx, req)
		},
	}
	return r
}

// Dispatch runs the handler for inv.Action
func (r *Router) Dispatch(ctx context.Context, inv Invocation) (interface{}, error) {
	fn, ok := r.actions[inv.Action]
	if !ok {
		return nil, &UnknownActionError{Action: inv.Action}
	}
	r.logger.Infof("Dispatching action %s", inv.Action)
	return fn(ctx, inv.Args)
}

// The document actions below are adapters still to be backed by real
// services; they return fixed shapes so callers can integrate against them.

func pdfMetadata(_ context.Context, args map[string]interface{}) (interface{}, error) {
	ref, _ := args["doc_ref"].(string)
	sum := sha256.Sum256([]byte(ref))
	return map[string]interface{}{"pages": 42, "sha256": hex.EncodeToString(sum[:])}, nil
}

func pdfText(context.Context, map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{
		"items": []map[string]interface{}{{"page": 1, "text": "..."}},
	}, nil
}

func pdfLayout(context.Context, map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{
		"pages": []map[string]interface{}{{
			"page": 1,
			"blocks": []map[string]interface{}{{
				"type": "text",
				"bbox": []int{0, 0, 100, 30},
				"bold": true,
				"text": "목차",
			}},
		}},
	}, nil
}

func pdfDiff(context.Context, map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{
		"report_id": "rep_20250823_abc123",
		"summary":   map[string]interface{}{"changes": 12, "pages_affected": 4},
	}, nil
}

func gitlabGuide(context.Context, map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{"run_id": "gl_123", "status": "QUEUED"}, nil
}

func remarshal(in, out interface{}) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
