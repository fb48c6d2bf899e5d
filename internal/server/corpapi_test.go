// SPDX-License-Identifier: AGPL-3.0-only
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hli-yohan-lee/dev-mcp/internal/agent"
	"github.com/hli-yohan-lee/dev-mcp/internal/auth"
	"github.com/hli-yohan-lee/dev-mcp/internal/corp"
	"github.com/hli-yohan-lee/dev-mcp/internal/scheduler"
)

const testKey = "corp-secret"

func newCorpServer(t *testing.T, chat *corp.Chat) (*httptest.Server, *auth.MemoryNonceStore) {
	t.Helper()
	store, err := auth.NewMemoryNonceStore(100, 5*time.Minute)
	if err != nil {
		t.Fatalf("NewMemoryNonceStore: %v", err)
	}
	a := auth.NewAuthenticator(testKey, store)
	srv := httptest.NewServer(NewCorpServer(a, chat, nil, testLogger()).Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

// postSigned sends body to /dispatch with the given headers
func postSigned(t *testing.T, url string, body []byte, h auth.Headers) (int, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/dispatch", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	h.Apply(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, out
}

func TestCorpDispatchThroughClient(t *testing.T) {
	srv, _ := newCorpServer(t, nil)
	client := corp.NewClient(srv.URL, auth.NewSigner(testKey, "mcp-1"), time.Second, testLogger())

	resp, err := client.Dispatch(context.Background(), corp.ActionPDFMetadata, map[string]interface{}{"doc_ref": "doc-1"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !resp.OK || len(resp.Meta.RequestID) != 12 {
		t.Errorf("resp = %+v", resp)
	}
	data := resp.Data.(map[string]interface{})
	if data["pages"] != float64(42) {
		t.Errorf("data = %v", data)
	}

	_, err = client.Dispatch(context.Background(), "DELETE_ALL", nil)
	var status *corp.StatusError
	if !errors.As(err, &status) || status.Status != http.StatusBadRequest || status.Detail != "Unknown action=DELETE_ALL" {
		t.Errorf("unknown action err = %v", err)
	}

	_, err = client.Dispatch(context.Background(), corp.ActionChat, map[string]interface{}{"message": "hi"})
	if !errors.As(err, &status) || status.Status != http.StatusInternalServerError || status.Detail != corp.ErrChatUnavailable.Error() {
		t.Errorf("chat without provider err = %v", err)
	}
}

func TestCorpDispatchRejectsReplay(t *testing.T) {
	srv, store := newCorpServer(t, nil)
	body := []byte(`{"action":"PDF_TEXT","args":{"doc_ref":"d"}}`)
	h, err := auth.NewSigner(testKey, "").Sign(body)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if code, out := postSigned(t, srv.URL, body, h); code != http.StatusOK || out["ok"] != true {
		t.Fatalf("first request: %d %v", code, out)
	}
	code, out := postSigned(t, srv.URL, body, h)
	if code != http.StatusUnauthorized || out["detail"] != auth.ErrReplayDetected.Error() {
		t.Errorf("replay: %d %v", code, out)
	}
	if n, _ := store.Len(context.Background()); n != 1 {
		t.Errorf("nonce count = %d, want 1", n)
	}
}

func TestCorpDispatchRejectsForgery(t *testing.T) {
	srv, store := newCorpServer(t, nil)
	body := []byte(`{"action":"PDF_TEXT"}`)

	h, _ := auth.NewSigner("wrong-key", "").Sign(body)
	code, out := postSigned(t, srv.URL, body, h)
	if code != http.StatusUnauthorized || out["detail"] != auth.ErrBadSignature.Error() {
		t.Errorf("forged: %d %v", code, out)
	}

	code, out = postSigned(t, srv.URL, body, auth.Headers{})
	if code != http.StatusUnauthorized || out["detail"] != auth.ErrMissingHeaders.Error() {
		t.Errorf("unsigned: %d %v", code, out)
	}

	// A valid signature over a different body must not pass.
	h, _ = auth.NewSigner(testKey, "").Sign([]byte(`{"action":"PDF_LAYOUT"}`))
	if code, _ := postSigned(t, srv.URL, body, h); code != http.StatusUnauthorized {
		t.Errorf("tampered body: %d", code)
	}

	if n, _ := store.Len(context.Background()); n != 0 {
		t.Errorf("rejected requests consumed %d nonces", n)
	}
}

type cannedProvider struct {
	reply string
}

func (p cannedProvider) CreateCompletion(context.Context, agent.CompletionRequest) (*agent.Completion, error) {
	return &agent.Completion{
		Message: agent.Message{Role: "assistant", Content: p.reply},
		Usage:   agent.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
	}, nil
}

func TestCorpChat(t *testing.T) {
	srv, _ := newCorpServer(t, corp.NewChat(cannedProvider{reply: "안녕하세요"}, "gpt-4o-mini", testLogger()))

	var reply corp.ChatReply
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/chat", corp.ChatRequest{Message: "hello"}, &reply); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !reply.OK || reply.Response != "안녕하세요" || reply.Usage.TotalTokens != 5 {
		t.Errorf("reply = %+v", reply)
	}

	srv, _ = newCorpServer(t, nil)
	var detail map[string]string
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/chat", corp.ChatRequest{Message: "hello"}, &detail); code != http.StatusInternalServerError || detail["detail"] != corp.ErrChatUnavailable.Error() {
		t.Errorf("unavailable: %d %v", code, detail)
	}
}

func TestCorpHealth(t *testing.T) {
	srv, store := newCorpServer(t, nil)
	if _, err := store.Insert(context.Background(), "n1", time.Now()); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	var out map[string]interface{}
	doJSON(t, http.MethodGet, srv.URL+"/health", nil, &out)
	if out["status"] != "healthy" || out["nonce_count"] != float64(1) {
		t.Errorf("health = %v", out)
	}
}

func TestCorpHealthReportsNextSweep(t *testing.T) {
	store, err := auth.NewMemoryNonceStore(100, 5*time.Minute)
	if err != nil {
		t.Fatalf("NewMemoryNonceStore: %v", err)
	}
	sched := scheduler.NewScheduler(testLogger())
	if err := sched.ScheduleNonceSweep("@every 1h", store); err != nil {
		t.Fatalf("ScheduleNonceSweep: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)
	defer sched.Stop()

	a := auth.NewAuthenticator(testKey, store)
	srv := httptest.NewServer(NewCorpServer(a, nil, nil, testLogger(), WithNonceSweeps(sched)).Handler())
	defer srv.Close()

	var out map[string]interface{}
	doJSON(t, http.MethodGet, srv.URL+"/health", nil, &out)
	raw, _ := out["next_nonce_sweep"].(string)
	next, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t.Fatalf("next_nonce_sweep = %v: %v", out["next_nonce_sweep"], err)
	}
	if until := time.Until(next); until <= 0 || until > time.Hour+time.Second {
		t.Errorf("next sweep in %s, want within the hour", until)
	}
}

func TestCorpHealthWithoutSweeps(t *testing.T) {
	srv, _ := newCorpServer(t, nil)
	var out map[string]interface{}
	doJSON(t, http.MethodGet, srv.URL+"/health", nil, &out)
	if _, ok := out["next_nonce_sweep"]; ok {
		t.Errorf("health = %v", out)
	}
}
