// SPDX-License-Identifier: AGPL-3.0-only
package model

import (
	"encoding/json"
	"strings"
)

// Envelope is the uniform {ok, data|error} shape returned by collaborators
// and REST endpoints.
type Envelope struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Success wraps data in an ok envelope
func Success(data interface{}) Envelope {
	return Envelope{OK: true, Data: data}
}

// Failure builds a failed envelope with the given message
func Failure(msg string) Envelope {
	return Envelope{OK: false, Error: msg}
}

// ContentBlock is one entry of a tool result's content list
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the result payload of a tools/call invocation
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// TextResult wraps text in a single-block tool result
func TextResult(text string) ToolResult {
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

// EnvelopeResult serializes env as the text of a tool result
func EnvelopeResult(env Envelope) (ToolResult, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return ToolResult{}, err
	}
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: string(raw)}}, IsError: !env.OK}, nil
}

// Unwrap returns the first text block as an object. See ParseText.
func (r ToolResult) Unwrap() map[string]interface{} {
	if len(r.Content) == 0 {
		return map[string]interface{}{}
	}
	return ParseText(r.Content[0].Text)
}

// Value returns the first text block decoded as any JSON value, or
// {"data": text} when the text is not JSON.
func (r ToolResult) Value() interface{} {
	if len(r.Content) == 0 {
		return map[string]interface{}{}
	}
	return DecodeText(r.Content[0].Text)
}

// DecodeText decodes text as JSON of any kind. Text that is not JSON is
// returned as {"data": text}.
func DecodeText(text string) interface{} {
	var out interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &out); err != nil {
		return map[string]interface{}{"data": text}
	}
	return out
}

// ParseText decodes text for callers that need an object. JSON objects
// are returned as is; any other JSON value is placed under "data".
func ParseText(text string) map[string]interface{} {
	return AsObject(DecodeText(text))
}

// AsObject returns v when it is a JSON object and {"data": v} otherwise
func AsObject(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok && m != nil {
		return m
	}
	return map[string]interface{}{"data": v}
}
