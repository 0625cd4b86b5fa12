package apiclient

// Package apiclient is the outbound HTTP client for the application's
// REST API. Every request passes through an interceptor that attaches
// the persisted bearer token and reacts to auth failures; a 401 is the
// only event outside the auth operations allowed to clear the session.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	autherrors "github.com/target/webui-auth/internal/errors"
	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds every API call.
const DefaultTimeout = 10 * time.Second

// Config holds configuration for the API client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration // defaults to DefaultTimeout when zero
	Interceptor *Interceptor  // required
}

// Client wraps http.Client with a base URL, JSON encoding, and the
// auth interceptor installed as transport.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates an API client. The interceptor is required; it carries
// the token source and the 401 reaction.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Interceptor == nil {
		return nil, fmt.Errorf("interceptor is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: cfg.Interceptor,
		},
	}, nil
}

// Get issues a GET and decodes the JSON response into out when out is
// non-nil.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return autherrors.Network(err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on a read-only body

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError converts a non-2xx API response into a taxonomy error.
// The interceptor has already surfaced the user-facing notice; this is
// the value the calling code branches on.
func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return autherrors.SessionExpired()
	case http.StatusForbidden:
		return autherrors.Forbidden()
	}
	return autherrors.Provider(envelopeMessage(resp))
}

// envelopeMessage pulls the message out of the error envelope, falling
// back to a generic line when the body is not the expected shape.
func envelopeMessage(resp *http.Response) string {
	var envelope struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(data, &envelope)
	if envelope.Message != "" {
		return envelope.Message
	}
	return "An error occurred"
}
