// SPDX-License-Identifier: AGPL-3.0-only
package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the protocol version carried by every message
const Version = "2.0"

// Standard JSON-RPC 2.0 error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is a JSON-RPC request
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Response is a JSON-RPC response. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Error is a JSON-RPC error object
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewRequest builds a request with params marshaled to JSON and id
// marshaled from any string or number.
func NewRequest(method string, params interface{}, id interface{}) (Request, error) {
	req := Request{JSONRPC: Version, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return Request{}, fmt.Errorf("marshal params: %w", err)
		}
		req.Params = raw
	}
	if id != nil {
		raw, err := json.Marshal(id)
		if err != nil {
			return Request{}, fmt.Errorf("marshal id: %w", err)
		}
		req.ID = raw
	}
	return req, nil
}

func newResult(id json.RawMessage, result interface{}) Response {
	return Response{JSONRPC: Version, Result: result, ID: normalizeID(id)}
}

func newError(id json.RawMessage, code int, message string, data interface{}) Response {
	return Response{
		JSONRPC: Version,
		Error:   &Error{Code: code, Message: message, Data: data},
		ID:      normalizeID(id),
	}
}

// normalizeID maps an absent id to an explicit null
func normalizeID(id json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(id)) == 0 {
		return nil
	}
	return id
}
