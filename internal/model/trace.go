// SPDX-License-Identifier: AGPL-3.0-only
package model

import "time"

// Tool call statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ToolCallRecord is one entry in an agent turn's call trace
type ToolCallRecord struct {
	ID        string                 `json:"id"`
	Action    string                 `json:"action"`
	Args      map[string]interface{} `json:"args"`
	Response  map[string]interface{} `json:"response"`
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
}
