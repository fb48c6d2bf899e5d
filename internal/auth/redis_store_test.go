// SPDX-License-Identifier: AGPL-3.0-only
package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisNonceStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisNonceStore("redis://"+mr.Addr()+"/0", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisNonceStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	inserted, err := s.Insert(ctx, "abc", time.Now())
	if err != nil || !inserted {
		t.Fatalf("Insert = %v, %v", inserted, err)
	}
	inserted, err = s.Insert(ctx, "abc", time.Now())
	if err != nil || inserted {
		t.Fatalf("duplicate Insert = %v, %v; want false", inserted, err)
	}
	if ok, _ := s.Exists(ctx, "abc"); !ok {
		t.Error("abc should exist")
	}
	_, _ = s.Insert(ctx, "def", time.Now())
	if n, err := s.Len(ctx); err != nil || n != 2 {
		t.Errorf("Len = %d, %v; want 2", n, err)
	}

	mr.FastForward(2 * time.Minute)
	if ok, _ := s.Exists(ctx, "abc"); ok {
		t.Error("abc should expire after the replay window")
	}
}

func TestRedisNonceStoreBadURL(t *testing.T) {
	if _, err := NewRedisNonceStore("not-a-url", time.Minute); err == nil {
		t.Error("expected parse error")
	}
}

func newRedisAuthenticator(t *testing.T, clock *time.Time) (*Authenticator, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisNonceStore("redis://"+mr.Addr()+"/0", DefaultReplayWindow)
	if err != nil {
		t.Fatalf("NewRedisNonceStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	s.now = func() time.Time { return *clock }
	return NewAuthenticator(testKey, s, WithNow(func() time.Time { return *clock })), mr
}

func TestRedisReplayWindowFutureTimestamp(t *testing.T) {
	t0 := time.Date(2025, 8, 23, 12, 0, 0, 0, time.UTC)
	clock := t0
	a, mr := newRedisAuthenticator(t, &clock)
	ctx := context.Background()

	body := []byte(`{"action":"PDF_TEXT"}`)
	h := signAt(t, t0.Add(290*time.Second), body)
	if err := a.Verify(ctx, body, h.Timestamp, h.Nonce, h.Signature); err != nil {
		t.Fatalf("first Verify: %v", err)
	}

	// Past one window from the insert, but still inside the skew tolerance.
	mr.FastForward(301 * time.Second)
	clock = t0.Add(301 * time.Second)
	if err := a.Verify(ctx, body, h.Timestamp, h.Nonce, h.Signature); !errors.Is(err, ErrReplayDetected) {
		t.Fatalf("replay at +301s = %v, want ErrReplayDetected", err)
	}

	// Once the key expires the timestamp is out of the window as well.
	mr.FastForward(290 * time.Second)
	clock = t0.Add(591 * time.Second)
	if err := a.Verify(ctx, body, h.Timestamp, h.Nonce, h.Signature); !errors.Is(err, ErrTimestampSkew) {
		t.Fatalf("replay at +591s = %v, want ErrTimestampSkew", err)
	}
}

func TestRedisReplayWindowPastTimestamp(t *testing.T) {
	t0 := time.Date(2025, 8, 23, 12, 0, 0, 0, time.UTC)
	clock := t0
	a, mr := newRedisAuthenticator(t, &clock)
	ctx := context.Background()

	body := []byte(`{"action":"PDF_LAYOUT"}`)
	h := signAt(t, t0.Add(-200*time.Second), body)
	if err := a.Verify(ctx, body, h.Timestamp, h.Nonce, h.Signature); err != nil {
		t.Fatalf("first Verify: %v", err)
	}

	mr.FastForward(99 * time.Second)
	clock = t0.Add(99 * time.Second)
	if err := a.Verify(ctx, body, h.Timestamp, h.Nonce, h.Signature); !errors.Is(err, ErrReplayDetected) {
		t.Fatalf("replay inside the window = %v, want ErrReplayDetected", err)
	}

	mr.FastForward(300 * time.Second)
	clock = t0.Add(399 * time.Second)
	if err := a.Verify(ctx, body, h.Timestamp, h.Nonce, h.Signature); !errors.Is(err, ErrTimestampSkew) {
		t.Fatalf("replay after the window = %v, want ErrTimestampSkew", err)
	}
}

func TestRedisTTLCoversFutureIssueTime(t *testing.T) {
	now := time.Date(2025, 8, 23, 12, 0, 0, 0, time.UTC)
	s := &RedisNonceStore{window: DefaultReplayWindow, now: func() time.Time { return now }}

	if got := s.ttl(now.Add(-time.Minute)); got != DefaultReplayWindow {
		t.Errorf("past ttl = %s, want %s", got, DefaultReplayWindow)
	}
	if got := s.ttl(now.Add(290 * time.Second)); got != DefaultReplayWindow+290*time.Second {
		t.Errorf("future ttl = %s", got)
	}
}
