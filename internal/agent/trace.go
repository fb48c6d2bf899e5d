// SPDX-License-Identifier: AGPL-3.0-only
package agent

import (
	"fmt"
	"time"

	"github.com/hli-yohan-lee/dev-mcp/internal/model"
)

// trace collects the tool calls of one agent turn
type trace struct {
	now     func() time.Time
	records []model.ToolCallRecord
	used    []string
}

func newTrace(now func() time.Time) *trace {
	return &trace{now: now, records: []model.ToolCallRecord{}, used: []string{}}
}

// record appends a call. The status is error whenever the response
// carries an "error" key.
func (t *trace) record(action string, args, response map[string]interface{}) {
	status := model.StatusSuccess
	if _, failed := response["error"]; failed {
		status = model.StatusError
	}
	t.records = append(t.records, model.ToolCallRecord{
		ID:        fmt.Sprintf("call_%d", len(t.records)+1),
		Action:    action,
		Args:      args,
		Response:  response,
		Status:    status,
		Timestamp: t.now(),
	})
	t.used = append(t.used, action)
}
