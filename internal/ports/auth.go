package ports

// Package ports defines interfaces (hexagonal ports) for auth-related
// behavior. Implementations live in internal/adapters; orchestration in
// internal/service.

import (
	"context"

	domainauth "github.com/target/webui-auth/internal/domain/auth"
)

// AuthResult is the session-yielding outcome of a login, sign-up,
// provider sign-in, or refresh flow.
type AuthResult struct {
	User  domainauth.User
	Token string
}

// IdentityGateway abstracts the external identity backend. It is
// stateless: it never touches the session store. Every failure it
// returns is mapped into the closed taxonomy in internal/errors; raw
// provider errors never escape an implementation.
type IdentityGateway interface {
	// Login authenticates an email/password pair.
	Login(ctx context.Context, email, password string) (AuthResult, error)

	// SignUp registers a new account and authenticates it.
	SignUp(ctx context.Context, creds domainauth.SignUpCredentials) (AuthResult, error)

	// Logout invalidates the upstream session. Callers treat failures
	// as advisory: local state is cleared regardless.
	Logout(ctx context.Context) error

	// SignInWithProvider runs the OAuth flow for the named provider.
	SignInWithProvider(ctx context.Context, provider domainauth.Provider) (AuthResult, error)

	// SendPasswordReset asks the backend to email a reset link.
	SendPasswordReset(ctx context.Context, email string) error

	// ResetPassword completes a reset flow with the emailed token.
	ResetPassword(ctx context.Context, token, password string) error

	// Refresh exchanges the persisted token for a fresh session.
	// Used by startup rehydration.
	Refresh(ctx context.Context) (AuthResult, error)
}

// TokenStorage persists the session token under a single fixed key in
// durable client-side storage. It must be treated as single-writer.
type TokenStorage interface {
	// Load returns the stored token and whether one is present.
	Load() (string, bool, error)
	Save(token string) error
	Clear() error
}

// KeyValueStorage is the durable storage mechanism shared by the token
// and peripheral preferences such as the theme.
type KeyValueStorage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Navigator consumes abstract navigation intents. The core does not
// own routing; it only announces where the UI should go.
type Navigator interface {
	NavigateTo(route domainauth.Route)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(route domainauth.Route)

// NavigateTo implements the Navigator interface.
func (f NavigatorFunc) NavigateTo(route domainauth.Route) {
	if f != nil {
		f(route)
	}
}

// Notifier surfaces transient user-facing notices (the toast analog).
type Notifier interface {
	Success(message string)
	Error(message string)
}
