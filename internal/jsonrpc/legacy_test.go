// SPDX-License-Identifier: AGPL-3.0-only
package jsonrpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func legacyCall(t *testing.T, d *Dispatcher, body string) map[string]interface{} {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp/call", bytes.NewBufferString(body))
	LegacyCallHandler(d)(rec, req)
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestLegacyCallUnwrapsJSON(t *testing.T) {
	d, _ := newTestDispatcher(t)
	out := legacyCall(t, d, `{"tool":"read_pdf","arguments":{"filename":"백엔드_가이드.pdf"}}`)
	if out["ok"] != true {
		t.Fatalf("out = %v", out)
	}
	data := out["data"].(map[string]interface{})
	if data["content"] != "hello" {
		t.Errorf("data = %v", data)
	}
}

func TestLegacyCallWrapsPlainText(t *testing.T) {
	d, _ := newTestDispatcher(t)
	out := legacyCall(t, d, `{"tool":"system_health"}`)
	if out["data"] != "plain text" {
		t.Errorf("out = %v", out)
	}
}

func TestLegacyCallPassesArrayThrough(t *testing.T) {
	d, _ := newTestDispatcher(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp/call", bytes.NewBufferString(`{"tool":"query_database","arguments":{"table":"users"}}`))
	LegacyCallHandler(d)(rec, req)

	var rows []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	if len(rows) != 2 || rows[1]["name"] != "lee" {
		t.Errorf("rows = %v", rows)
	}
}

func TestLegacyCallBadBody(t *testing.T) {
	d, exec := newTestDispatcher(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp/call", bytes.NewBufferString(`{"tool":`))
	LegacyCallHandler(d)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || !strings.HasPrefix(out["error"], "invalid request body") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if len(exec.calls) != 0 {
		t.Errorf("executor calls = %v", exec.calls)
	}
}

func TestLegacyCallError(t *testing.T) {
	d, _ := newTestDispatcher(t)
	out := legacyCall(t, d, `{"tool":"unknown_tool","arguments":{}}`)
	if out["error"] != "Unknown tool: unknown_tool" {
		t.Errorf("out = %v", out)
	}
	out = legacyCall(t, d, `{"arguments":{}}`)
	if out["error"] != ErrToolNameRequired.Error() {
		t.Errorf("out = %v", out)
	}
}
