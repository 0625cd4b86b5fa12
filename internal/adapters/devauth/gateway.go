// Package devauth provides a simple, config-driven identity gateway for
// local development. It accepts any well-formed credentials and returns
// a fixed identity without touching the network.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/target/webui-auth/internal/domain/auth"
	apperrors "github.com/target/webui-auth/internal/errors"
	"github.com/target/webui-auth/internal/ports"
)

// Config controls the dev gateway behavior. UserID and Email are
// required; the rest have sensible defaults.
type Config struct {
	UserID      string
	Email       string
	DisplayName string
	Role        auth.Role // defaults to RoleAdmin
}

// Gateway implements ports.IdentityGateway for local development.
// Every login succeeds with the configured identity, sign-ups echo the
// submitted profile, and tokens are locally generated random strings.
type Gateway struct {
	mu       sync.Mutex
	identity auth.User
	// registered tracks emails seen by SignUp so repeat sign-ups fail
	// the way a real backend would.
	registered map[string]bool
}

var _ ports.IdentityGateway = (*Gateway)(nil)

// NewGateway constructs a dev gateway from Config.
func NewGateway(cfg Config) (*Gateway, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	role := cfg.Role
	if role == "" {
		role = auth.RoleAdmin
	}
	now := time.Now().UTC()
	return &Gateway{
		identity: auth.User{
			ID:          cfg.UserID,
			Email:       cfg.Email,
			DisplayName: cfg.DisplayName,
			Role:        role,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		registered: make(map[string]bool),
	}, nil
}

// Login returns the configured identity for any valid credentials.
func (g *Gateway) Login(_ context.Context, email, password string) (ports.AuthResult, error) {
	creds := auth.Credentials{Email: email, Password: password}
	if err := creds.Validate(); err != nil {
		return ports.AuthResult{}, apperrors.InvalidCredentials()
	}
	token, err := randomToken()
	if err != nil {
		return ports.AuthResult{}, fmt.Errorf("generate token: %w", err)
	}
	g.mu.Lock()
	user := g.identity
	g.mu.Unlock()
	user.Email = email
	return ports.AuthResult{User: user, Token: token}, nil
}

// SignUp registers the submitted email and returns a new identity
// carrying it. A second sign-up with the same email fails with an
// account-exists error.
func (g *Gateway) SignUp(_ context.Context, creds auth.SignUpCredentials) (ports.AuthResult, error) {
	if err := creds.Validate(); err != nil {
		return ports.AuthResult{}, apperrors.InvalidCredentials()
	}
	g.mu.Lock()
	if g.registered[creds.Email] {
		g.mu.Unlock()
		return ports.AuthResult{}, apperrors.AccountExists()
	}
	g.registered[creds.Email] = true
	user := g.identity
	g.mu.Unlock()

	token, err := randomToken()
	if err != nil {
		return ports.AuthResult{}, fmt.Errorf("generate token: %w", err)
	}
	now := time.Now().UTC()
	user.Email = creds.Email
	user.DisplayName = creds.DisplayName
	user.Role = auth.RoleUser
	user.CreatedAt = now
	user.UpdatedAt = now
	return ports.AuthResult{User: user, Token: token}, nil
}

// Logout is a local no-op.
func (g *Gateway) Logout(context.Context) error { return nil }

// SignInWithProvider returns the configured identity for any known
// provider, skipping the browser flow entirely.
func (g *Gateway) SignInWithProvider(_ context.Context, provider auth.Provider) (ports.AuthResult, error) {
	if !provider.Valid() {
		return ports.AuthResult{}, apperrors.Providerf("unknown provider %q", provider)
	}
	token, err := randomToken()
	if err != nil {
		return ports.AuthResult{}, fmt.Errorf("generate token: %w", err)
	}
	g.mu.Lock()
	user := g.identity
	g.mu.Unlock()
	return ports.AuthResult{User: user, Token: token}, nil
}

// SendPasswordReset pretends to send the email.
func (g *Gateway) SendPasswordReset(_ context.Context, email string) error {
	if email == "" {
		return apperrors.UserNotFound()
	}
	return nil
}

// ResetPassword accepts any non-empty code.
func (g *Gateway) ResetPassword(_ context.Context, code, newPassword string) error {
	if code == "" {
		return apperrors.Provider("Invalid or expired reset code.")
	}
	if len(newPassword) < auth.MinPasswordLength {
		return apperrors.InvalidCredentials()
	}
	return nil
}

// Refresh reissues a token for the configured identity.
func (g *Gateway) Refresh(_ context.Context) (ports.AuthResult, error) {
	fresh, err := randomToken()
	if err != nil {
		return ports.AuthResult{}, fmt.Errorf("generate token: %w", err)
	}
	g.mu.Lock()
	user := g.identity
	g.mu.Unlock()
	return ports.AuthResult{User: user, Token: fresh}, nil
}

func randomToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "dev-" + base64.RawURLEncoding.EncodeToString(b), nil
}
