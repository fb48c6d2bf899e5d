// SPDX-License-Identifier: AGPL-3.0-only
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
)

const maxSignedBody = 1 << 20

type requestIDKey struct{}

// RequestIDFromContext returns the request id set by RequireSignature
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequireSignature returns middleware that rejects requests failing
// verification with 401 {"detail": reason}. The body is restored for the
// next handler and the derived request id is stored in the context.
func RequireSignature(a *Authenticator, logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBody))
			if err != nil {
				writeDetail(w, http.StatusBadRequest, "Unreadable body")
				return
			}
			_ = r.Body.Close()

			ts := r.Header.Get(HeaderTimestamp)
			nonce := r.Header.Get(HeaderNonce)
			if err := a.Verify(r.Context(), body, ts, nonce, r.Header.Get(HeaderSignature)); err != nil {
				if IsAuthError(err) {
					logger.Warnf("Rejected signed request from %s: %v", r.Header.Get(HeaderClientID), err)
					writeDetail(w, http.StatusUnauthorized, err.Error())
					return
				}
				logger.Errorf("Signature verification failed: %v", err)
				writeDetail(w, http.StatusServiceUnavailable, "Nonce store unavailable")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			ctx := context.WithValue(r.Context(), requestIDKey{}, RequestID(nonce, ts))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
