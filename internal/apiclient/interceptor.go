package apiclient

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	domainauth "github.com/target/webui-auth/internal/domain/auth"
	autherrors "github.com/target/webui-auth/internal/errors"
	"github.com/target/webui-auth/internal/ports"
	"github.com/target/webui-auth/internal/store"
)

// Interceptor is an http.RoundTripper that attaches the persisted
// bearer token to every outbound request and reacts to failure
// responses on the way back:
//
//   - 401: clear the session, navigate to login, notify "session expired"
//   - 403/404/500: category notice, session untouched
//   - transport failure: network-error notice
//
// Requests are stamped with an X-Request-ID for log correlation.
type Interceptor struct {
	base      http.RoundTripper
	tokens    ports.TokenStorage
	store     *store.Store
	navigator ports.Navigator
	notifier  ports.Notifier
	logger    *slog.Logger
}

var _ http.RoundTripper = (*Interceptor)(nil)

// InterceptorOptions groups dependencies for the Interceptor.
type InterceptorOptions struct {
	Base      http.RoundTripper // defaults to http.DefaultTransport
	Tokens    ports.TokenStorage
	Store     *store.Store
	Navigator ports.Navigator
	Notifier  ports.Notifier
	Logger    *slog.Logger
}

// NewInterceptor creates the auth interceptor.
func NewInterceptor(opts InterceptorOptions) *Interceptor {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Interceptor{
		base:      base,
		tokens:    opts.Tokens,
		store:     opts.Store,
		navigator: opts.Navigator,
		notifier:  opts.Notifier,
		logger:    logger,
	}
}

// RoundTrip implements http.RoundTripper.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone before mutating; the request may be retried by callers.
	req = req.Clone(req.Context())
	req.Header.Set("X-Request-ID", uuid.NewString())

	// Absent token means no Authorization header at all, not an empty one.
	if i.tokens != nil {
		if token, ok, err := i.tokens.Load(); err != nil {
			i.logger.Error("read persisted token failed", "error", err)
		} else if ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := i.base.RoundTrip(req)
	if err != nil {
		i.notifyError(autherrors.MsgNetworkError)
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		i.expireSession(req)
	case http.StatusForbidden:
		i.notifyError(autherrors.MsgForbidden)
	case http.StatusNotFound:
		i.notifyError("Resource not found.")
	case http.StatusInternalServerError:
		i.notifyError("Server error. Please try again later.")
	default:
		if resp.StatusCode >= 400 {
			i.notifyError(responseMessage(resp))
		}
	}
	return resp, nil
}

// expireSession handles server-side token invalidation detected
// mid-flight: clear everything and send the user back to login.
func (i *Interceptor) expireSession(req *http.Request) {
	i.logger.Info("received 401, expiring session",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)
	if i.store != nil {
		i.store.ClearSession()
	}
	if i.navigator != nil {
		i.navigator.NavigateTo(domainauth.RouteLogin)
	}
	i.notifyError(autherrors.MsgSessionExpired)
}

func (i *Interceptor) notifyError(message string) {
	if i.notifier != nil {
		i.notifier.Error(message)
	}
}

// responseMessage extracts the envelope message for uncategorized
// failures, replaying the body so the caller can still read it.
func responseMessage(resp *http.Response) string {
	var envelope struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil {
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(data))
		_ = json.Unmarshal(data, &envelope)
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return "An error occurred"
}
