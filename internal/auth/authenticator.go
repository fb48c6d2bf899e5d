// SPDX-License-Identifier: AGPL-3.0-only
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Header names carried by signed requests
const (
	HeaderTimestamp = "X-Timestamp"
	HeaderNonce     = "X-Nonce"
	HeaderSignature = "X-Signature"
	HeaderClientID  = "X-MCP-Id"
)

// TimestampLayout is the UTC timestamp format of X-Timestamp
const TimestampLayout = "2006-01-02T15:04:05Z"

const signaturePrefix = "hmac-sha256="

// Verification failures. Each is fatal to the request.
var (
	ErrMissingHeaders = errors.New("Missing auth headers")
	ErrBadTimestamp   = errors.New("Bad timestamp")
	ErrTimestampSkew  = errors.New("Timestamp skew")
	ErrReplayDetected = errors.New("Replay detected")
	ErrBadSignature   = errors.New("Bad signature")
)

// IsAuthError reports whether err is one of the verification failures
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingHeaders) ||
		errors.Is(err, ErrBadTimestamp) ||
		errors.Is(err, ErrTimestampSkew) ||
		errors.Is(err, ErrReplayDetected) ||
		errors.Is(err, ErrBadSignature)
}

// Authenticator verifies HMAC-signed requests against a NonceStore
type Authenticator struct {
	key    []byte
	store  NonceStore
	window time.Duration
	now    func() time.Time
}

// AuthenticatorOption configures an Authenticator
type AuthenticatorOption func(*Authenticator)

// WithSkew sets the allowed clock skew, which is also the replay window
func WithSkew(d time.Duration) AuthenticatorOption {
	return func(a *Authenticator) { a.window = d }
}

// WithNow overrides the clock used for skew checks
func WithNow(now func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) { a.now = now }
}

// NewAuthenticator creates an Authenticator for the shared key
func NewAuthenticator(key string, store NonceStore, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		key:    []byte(key),
		store:  store,
		window: DefaultReplayWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Store returns the nonce store backing the authenticator
func (a *Authenticator) Store() NonceStore {
	return a.store
}

// Verify checks a signed request. The signature is verified before the
// nonce is recorded, so a forged request cannot consume a nonce.
func (a *Authenticator) Verify(ctx context.Context, body []byte, timestamp, nonce, signature string) error {
	if timestamp == "" || nonce == "" || signature == "" {
		return ErrMissingHeaders
	}

	issuedAt, err := time.Parse(TimestampLayout, timestamp)
	if err != nil {
		return ErrBadTimestamp
	}
	skew := a.now().Sub(issuedAt)
	if skew < 0 {
		skew = -skew
	}
	if skew > a.window {
		return ErrTimestampSkew
	}

	seen, err := a.store.Exists(ctx, nonce)
	if err != nil {
		return fmt.Errorf("nonce lookup: %w", err)
	}
	if seen {
		return ErrReplayDetected
	}

	expected := Sign(a.key, timestamp, nonce, body)
	provided := strings.TrimPrefix(signature, signaturePrefix)
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return ErrBadSignature
	}

	inserted, err := a.store.Insert(ctx, nonce, issuedAt)
	if err != nil {
		return fmt.Errorf("nonce insert: %w", err)
	}
	if !inserted {
		// lost a race with a concurrent request carrying the same nonce
		return ErrReplayDetected
	}
	return nil
}

// Sign returns the lowercase hex HMAC-SHA256 of timestamp.nonce.body
func Sign(key []byte, timestamp, nonce string, body []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write([]byte(nonce))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// RequestID derives the audit id of a signed request
func RequestID(nonce, timestamp string) string {
	sum := md5.Sum([]byte(nonce + timestamp))
	return hex.EncodeToString(sum[:])[:12]
}
