package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/attendance-client/internal/logging"
)

// Outcome classifies a completed call.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeFailed         Outcome = "failed"
	OutcomeTransportError Outcome = "transport_error"
)

// Response is the classified result of Call. Detail carries the server
// supplied message of a failed response when one could be extracted. Err is set
// only for transport errors.
type Response struct {
	Outcome    Outcome
	StatusCode int
	Body       []byte
	Detail     string
	RequestID  string
	Err        error
}

// OK reports whether the call completed with a 2xx status.
func (r Response) OK() bool {
	return r.Outcome == OutcomeOK
}

// CredentialSource supplies the bearer credential for outgoing requests.
type CredentialSource interface {
	Credential() string
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func() string

// Credential implements CredentialSource.
func (f CredentialFunc) Credential() string {
	if f == nil {
		return ""
	}
	return f()
}

const maxResponseBytes = 4 << 20

// Client sends requests to the attendance service.
type Client struct {
	baseURL     string
	credentials CredentialSource
	httpClient  *http.Client
	logger      *slog.Logger
	requestID   func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestIDGenerator overrides the X-Request-ID generator.
func WithRequestIDGenerator(next func() string) Option {
	return func(c *Client) {
		if next != nil {
			c.requestID = next
		}
	}
}

// NewClient constructs a Client for baseURL. credentials may be nil, in which
// case requests are sent without an Authorization header.
func NewClient(baseURL string, credentials CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		credentials: credentials,
		httpClient:  &http.Client{},
		logger:      slog.Default(),
		requestID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call performs a single request against endpoint, attaching the bearer
// credential when one is available. There is no retry.
func (c *Client) Call(ctx context.Context, endpoint, method string, body any) Response {
	return c.do(ctx, endpoint, method, body, true)
}

func (c *Client) do(ctx context.Context, endpoint, method string, body any, authenticated bool) Response {
	if method == "" {
		method = http.MethodGet
	}
	requestID := c.requestID()
	logger := c.loggerFor(ctx).With("request_id", requestID, "method", method, "endpoint", endpoint)

	resp := Response{RequestID: requestID}
	start := time.Now()
	defer func() {
		attrs := []any{"outcome", resp.Outcome, "duration", time.Since(start)}
		if resp.StatusCode != 0 {
			attrs = append(attrs, "status", resp.StatusCode)
		}
		switch resp.Outcome {
		case OutcomeOK:
			logger.DebugContext(ctx, "request completed", attrs...)
		case OutcomeFailed:
			logger.WarnContext(ctx, "request failed", append(attrs, "detail", resp.Detail)...)
		default:
			logger.WarnContext(ctx, "request transport error", append(attrs, "error", resp.Err)...)
		}
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			resp.Outcome = OutcomeTransportError
			resp.Err = fmt.Errorf("encode request body: %w", err)
			return resp
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		resp.Outcome = OutcomeTransportError
		resp.Err = err
		return resp
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated && c.credentials != nil {
		if credential := c.credentials.Credential(); credential != "" {
			req.Header.Set("Authorization", "Bearer "+credential)
		}
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		resp.Outcome = OutcomeTransportError
		resp.Err = err
		return resp
	}
	defer httpResp.Body.Close()

	resp.StatusCode = httpResp.StatusCode
	payload, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		resp.Outcome = OutcomeTransportError
		resp.Err = fmt.Errorf("read response body: %w", err)
		return resp
	}
	resp.Body = payload

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		resp.Outcome = OutcomeFailed
		resp.Detail = extractDetail(payload)
		return resp
	}
	resp.Outcome = OutcomeOK
	return resp
}

func (c *Client) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger.With("component", "api")
	}
	return c.logger.With("component", "api")
}

// extractDetail pulls the human readable message out of an error body. The
// service reports either {"detail": "..."}, a list of {"msg": "..."} entries
// for request validation failures, or {"message": "..."}.
func extractDetail(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}

	if len(envelope.Detail) > 0 {
		var text string
		if err := json.Unmarshal(envelope.Detail, &text); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &items); err == nil {
			messages := make([]string, 0, len(items))
			for _, item := range items {
				if msg := strings.TrimSpace(item.Msg); msg != "" {
					messages = append(messages, msg)
				}
			}
			if len(messages) > 0 {
				return strings.Join(messages, "; ")
			}
		}
	}
	return strings.TrimSpace(envelope.Message)
}
