// SPDX-License-Identifier: AGPL-3.0-only
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
)

const maxBodyBytes = 4 << 20

// Handler serves one method. A returned *Error is sent as-is; any other
// error becomes an internal error.
type Handler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Dispatcher routes JSON-RPC requests to method handlers
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *logging.Logger
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	return &Dispatcher{handlers: map[string]Handler{}, logger: logger}
}

// Register binds method to h, replacing any previous handler
func (d *Dispatcher) Register(method string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[method] = h
}

// Dispatch serves a single decoded request
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (resp Response) {
	if req.Method == "" {
		return newError(req.ID, CodeInvalidRequest, "Invalid Request", nil)
	}

	d.mu.RLock()
	h, ok := d.handlers[req.Method]
	d.mu.RUnlock()
	if !ok {
		return newError(req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("Panic in %s handler: %v", req.Method, r)
			resp = newError(req.ID, CodeInternalError, fmt.Sprintf("%v", r), string(debug.Stack()))
		}
	}()

	result, err := h(ctx, req.Params)
	if err != nil {
		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			return Response{JSONRPC: Version, Error: rpcErr, ID: normalizeID(req.ID)}
		}
		d.logger.Warnf("Method %s failed: %v", req.Method, err)
		return newError(req.ID, CodeInternalError, err.Error(), fmt.Sprintf("%s: %+v\n\n%s", req.Method, err, debug.Stack()))
	}
	return newResult(req.ID, result)
}

// DispatchBytes serves a raw request body, which may be a single request
// or a batch. The returned value is a Response or a []Response.
func (d *Dispatcher) DispatchBytes(ctx context.Context, body []byte) interface{} {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return newError(nil, CodeParseError, "Parse error", nil)
	}

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return newError(nil, CodeParseError, "Parse error", nil)
		}
		if len(items) == 0 {
			return newError(nil, CodeInvalidRequest, "Invalid Request", "empty batch")
		}
		responses := make([]Response, 0, len(items))
		for _, item := range items {
			responses = append(responses, d.dispatchOne(ctx, item))
		}
		return responses
	}
	return d.dispatchOne(ctx, trimmed)
}

func (d *Dispatcher) dispatchOne(ctx context.Context, raw json.RawMessage) Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return newError(nil, CodeInvalidRequest, "Invalid Request", err.Error())
	}
	return d.Dispatch(ctx, req)
}

// ServeHTTP implements http.Handler for POST requests
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, newError(nil, CodeParseError, "Parse error", nil))
		return
	}
	writeJSON(w, d.DispatchBytes(r.Context(), body))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
