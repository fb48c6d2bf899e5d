// SPDX-License-Identifier: AGPL-3.0-only
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Nonce store defaults
const (
	DefaultNonceCapacity = 1000
	DefaultReplayWindow  = 300 * time.Second
	// sweepEvery triggers an expiry sweep when the store size after an
	// insert is a multiple of it.
	sweepEvery = 100
)

// NonceStore tracks nonces seen within the replay window
type NonceStore interface {
	// Exists reports whether nonce has been recorded
	Exists(ctx context.Context, nonce string) (bool, error)
	// Insert records nonce issued at issuedAt. It returns false without
	// modifying the store when the nonce is already present.
	Insert(ctx context.Context, nonce string, issuedAt time.Time) (bool, error)
	// Sweep removes entries whose issue time differs from now by more than
	// the replay window and returns how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
	// Len returns the number of tracked nonces
	Len(ctx context.Context) (int, error)
}

type nonceRecord struct {
	issuedAt   time.Time
	insertedAt time.Time
}

// MemoryNonceStore is a bounded in-process NonceStore. Entries are evicted
// oldest-inserted first once capacity is reached.
type MemoryNonceStore struct {
	mu     sync.Mutex
	lru    *simplelru.LRU[string, nonceRecord]
	window time.Duration
	now    func() time.Time
}

// MemoryOption configures a MemoryNonceStore
type MemoryOption func(*MemoryNonceStore)

// WithClock overrides the wall clock used for insertion times and sweeps
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryNonceStore) { s.now = now }
}

// NewMemoryNonceStore creates a store holding at most capacity nonces
func NewMemoryNonceStore(capacity int, window time.Duration, opts ...MemoryOption) (*MemoryNonceStore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("nonce capacity must be positive, got %d", capacity)
	}
	if window <= 0 {
		return nil, fmt.Errorf("replay window must be positive, got %s", window)
	}
	// The cache is only ever read with Contains and Peek, which leave the
	// recency order untouched, so LRU eviction is insertion-order eviction.
	lru, err := simplelru.NewLRU[string, nonceRecord](capacity, nil)
	if err != nil {
		return nil, err
	}
	s := &MemoryNonceStore{lru: lru, window: window, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Exists implements NonceStore
func (s *MemoryNonceStore) Exists(_ context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Contains(nonce), nil
}

// Insert implements NonceStore
func (s *MemoryNonceStore) Insert(_ context.Context, nonce string, issuedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lru.Contains(nonce) {
		return false, nil
	}
	s.lru.Add(nonce, nonceRecord{issuedAt: issuedAt, insertedAt: s.now()})

	if s.lru.Len()%sweepEvery == 0 {
		s.sweepLocked(s.now())
	}
	return true, nil
}

// Sweep implements NonceStore
func (s *MemoryNonceStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now), nil
}

// Len implements NonceStore
func (s *MemoryNonceStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len(), nil
}

func (s *MemoryNonceStore) sweepLocked(now time.Time) int {
	removed := 0
	for _, nonce := range s.lru.Keys() {
		rec, ok := s.lru.Peek(nonce)
		if !ok {
			continue
		}
		age := now.Sub(rec.issuedAt)
		if age < 0 {
			age = -age
		}
		if age > s.window {
			s.lru.Remove(nonce)
			removed++
		}
	}
	return removed
}
