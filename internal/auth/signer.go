// SPDX-License-Identifier: AGPL-3.0-only
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"
)

const nonceBytes = 16

// Headers are the outbound authentication headers of one signed request
type Headers struct {
	Timestamp string
	Nonce     string
	Signature string
	ClientID  string
}

// Apply sets the headers on req
func (h Headers) Apply(req *http.Request) {
	req.Header.Set(HeaderTimestamp, h.Timestamp)
	req.Header.Set(HeaderNonce, h.Nonce)
	req.Header.Set(HeaderSignature, h.Signature)
	if h.ClientID != "" {
		req.Header.Set(HeaderClientID, h.ClientID)
	}
}

// Signer produces signed request headers
type Signer struct {
	key      []byte
	clientID string
	now      func() time.Time
}

// NewSigner creates a Signer for the shared key. clientID is sent as
// X-MCP-Id when non-empty.
func NewSigner(key, clientID string) *Signer {
	return &Signer{key: []byte(key), clientID: clientID, now: time.Now}
}

// Sign builds headers for body with a fresh nonce and the current time
func (s *Signer) Sign(body []byte) (Headers, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return Headers{}, fmt.Errorf("generate nonce: %w", err)
	}
	ts := s.now().UTC().Format(TimestampLayout)
	nonce := hex.EncodeToString(buf)
	return Headers{
		Timestamp: ts,
		Nonce:     nonce,
		Signature: signaturePrefix + Sign(s.key, ts, nonce, body),
		ClientID:  s.clientID,
	}, nil
}
