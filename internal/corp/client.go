// SPDX-License-Identifier: AGPL-3.0-only
package corp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/hli-yohan-lee/dev-mcp/internal/auth"
	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
)

// DefaultTimeout bounds one dispatch round trip
const DefaultTimeout = 30 * time.Second

// Response is the body of a successful dispatch
type Response struct {
	OK   bool        `json:"ok"`
	Data interface{} `json:"data"`
	Meta Meta        `json:"meta"`
}

// Meta carries the request id derived from the signed headers
type Meta struct {
	RequestID string `json:"request_id"`
}

// StatusError is a non-2xx answer from the corporate API
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("corp api: HTTP %d: %s", e.Status, e.Detail)
}

// Client sends signed dispatch requests to the corporate API
type Client struct {
	baseURL string
	signer  *auth.Signer
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
}

// NewClient creates a Client for the API at baseURL
func NewClient(baseURL string, signer *auth.Signer, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		signer:  signer,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "corpapi",
			Timeout: 30 * time.Second,
			// Rejections by the API are answers, not outages.
			IsSuccessful: func(err error) bool {
				var rejected *StatusError
				return err == nil || errors.As(err, &rejected)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warnf("Circuit breaker %s: %s -> %s", name, from, to)
			},
		}),
	}
}

// Dispatch signs {action, args} and posts it to /dispatch
func (c *Client) Dispatch(ctx context.Context, action string, args map[string]interface{}) (*Response, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	body, err := json.Marshal(Invocation{Action: action, Args: args})
	if err != nil {
		return nil, fmt.Errorf("encode invocation: %w", err)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		return nil, err
	}
	return out.(*Response), nil
}

func (c *Client) post(ctx context.Context, body []byte) (*Response, error) {
	headers, err := c.signer.Sign(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/dispatch", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	headers.Apply(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("corp api request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read corp api response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(raw, &detail) != nil || detail.Detail == "" {
			detail.Detail = strings.TrimSpace(string(raw))
		}
		return nil, &StatusError{Status: resp.StatusCode, Detail: detail.Detail}
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode corp api response: %w", err)
	}
	c.logger.Debugf("Corp dispatch accepted, request id %s", out.Meta.RequestID)
	return &out, nil
}
