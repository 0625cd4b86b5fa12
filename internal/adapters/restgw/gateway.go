package restgw

// Package restgw implements the identity gateway against the REST auth
// backend. It owns the mapping from heterogeneous upstream error shapes
// into the closed taxonomy in internal/errors; no raw provider error
// leaves this package.

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

	domainauth "github.com/target/webui-auth/internal/domain/auth"
	autherrors "github.com/target/webui-auth/internal/errors"
	"github.com/target/webui-auth/internal/ports"
)

// Auth endpoint paths, relative to the configured base URL.
const (
	pathLogin          = "/auth/login"
	pathSignUp         = "/auth/signup"
	pathLogout         = "/auth/logout"
	pathRefresh        = "/auth/refresh"
	pathForgotPassword = "/auth/forgot-password"
	pathResetPassword  = "/auth/reset-password"
)

// DefaultTimeout bounds every call to the REST backend. Exceeding it is
// classified as a network error.
const DefaultTimeout = 10 * time.Second

// Config holds configuration for the REST gateway.
type Config struct {
	BaseURL string
	Timeout time.Duration // defaults to DefaultTimeout when zero

	// Tokens supplies the bearer credential for the authenticated flows
	// (logout, refresh). Optional; those flows send no credential when nil.
	Tokens ports.TokenStorage

	HTTPClient *http.Client // optional, for tests
}

// Gateway is a stateless REST identity gateway.
type Gateway struct {
	baseURL string
	client  *http.Client
	tokens  ports.TokenStorage
}

var _ ports.IdentityGateway = (*Gateway)(nil)

// New creates a REST gateway. The base URL is required.
func New(cfg Config) (*Gateway, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Gateway{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  client,
		tokens:  cfg.Tokens,
	}, nil
}

// authResponse is the success envelope for session-yielding flows.
type authResponse struct {
	User  domainauth.User `json:"user"`
	Token string          `json:"token"`
}

// errorEnvelope is the error response shape: a human-readable message
// plus an optional provider error code.
type errorEnvelope struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (g *Gateway) Login(ctx context.Context, email, password string) (ports.AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := g.post(ctx, pathLogin, body, false, &resp); err != nil {
		return ports.AuthResult{}, err
	}
	return ports.AuthResult{User: resp.User, Token: resp.Token}, nil
}

func (g *Gateway) SignUp(ctx context.Context, creds domainauth.SignUpCredentials) (ports.AuthResult, error) {
	body := map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	}
	if creds.DisplayName != "" {
		body["displayName"] = creds.DisplayName
	}
	var resp authResponse
	if err := g.post(ctx, pathSignUp, body, false, &resp); err != nil {
		return ports.AuthResult{}, err
	}
	return ports.AuthResult{User: resp.User, Token: resp.Token}, nil
}

func (g *Gateway) Logout(ctx context.Context) error {
	return g.post(ctx, pathLogout, nil, true, nil)
}

func (g *Gateway) SignInWithProvider(_ context.Context, provider domainauth.Provider) (ports.AuthResult, error) {
	// Social sign-in is handled by the OAuth gateway; the REST backend
	// has no popup flow to offer.
	return ports.AuthResult{}, autherrors.Providerf("provider sign-in with %q is not supported by the REST backend", provider)
}

func (g *Gateway) SendPasswordReset(ctx context.Context, email string) error {
	return g.post(ctx, pathForgotPassword, map[string]string{"email": email}, false, nil)
}

func (g *Gateway) ResetPassword(ctx context.Context, token, password string) error {
	body := map[string]string{"token": token, "password": password}
	return g.post(ctx, pathResetPassword, body, false, nil)
}

func (g *Gateway) Refresh(ctx context.Context) (ports.AuthResult, error) {
	var resp authResponse
	if err := g.post(ctx, pathRefresh, nil, true, &resp); err != nil {
		return ports.AuthResult{}, err
	}
	return ports.AuthResult{User: resp.User, Token: resp.Token}, nil
}

// post sends a JSON POST and decodes the response into out when out is
// non-nil. Failures come back already mapped into the taxonomy.
func (g *Gateway) post(ctx context.Context, path string, body any, authenticated bool, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authenticated && g.tokens != nil {
		if token, ok, loadErr := g.tokens.Load(); loadErr == nil && ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return autherrors.Network(err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on a read-only body

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return mapHTTPError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return autherrors.Wrap(err, autherrors.CodeProviderError, "Malformed response from auth backend")
	}
	return nil
}

// mapHTTPError converts a non-2xx response into a taxonomy error.
// The provider code in the envelope takes precedence over the HTTP
// status; unmapped codes fall through to ProviderError carrying the
// upstream message.
func mapHTTPError(resp *http.Response) error {
	var envelope errorEnvelope
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(data, &envelope)

	if err := mapProviderCode(envelope.Code); err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return autherrors.InvalidCredentials()
	case http.StatusConflict:
		return autherrors.AccountExists()
	case http.StatusNotFound:
		return autherrors.UserNotFound()
	}

	message := envelope.Message
	if message == "" {
		message = fmt.Sprintf("Auth backend returned status %d", resp.StatusCode)
	}
	return autherrors.Provider(message)
}

// mapProviderCode maps well-known provider error codes. Returns nil for
// unknown or absent codes so the caller can fall back to status mapping.
func mapProviderCode(code string) error {
	switch code {
	case "auth/invalid-credential", "auth/wrong-password":
		return autherrors.InvalidCredentials()
	case "auth/email-already-in-use":
		return autherrors.AccountExists()
	case "auth/user-not-found":
		return autherrors.UserNotFound()
	default:
		return nil
	}
}
