package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/target/webui-auth/internal/domain/auth"
	autherrors "github.com/target/webui-auth/internal/errors"
	"github.com/target/webui-auth/internal/observability/metrics"
	"github.com/target/webui-auth/internal/observability/statsd"
	"github.com/target/webui-auth/internal/ports"
	"github.com/target/webui-auth/internal/store"
	"golang.org/x/sync/semaphore"
)

// ErrOperationInFlight is returned when an auth operation starts while
// another one is still running. The rejected operation performs no
// session mutation at all; overlap is rejected, never queued.
var ErrOperationInFlight = errors.New("another auth operation is in flight")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	// Gateway may be nil when no identity backend is configured; every
	// operation then fails fast with NotConfigured.
	Gateway ports.IdentityGateway
	Store   *store.Store
	Logger  *slog.Logger
	// Metrics is optional; nil disables emission.
	Metrics statsd.Sink
}

// AuthService coordinates the asynchronous auth operations. Each
// operation is one atomic unit: precondition check, loading transition,
// gateway call, store update, guaranteed loading cleanup. At most one
// operation is in flight at a time.
type AuthService struct {
	gateway  ports.IdentityGateway
	store    *store.Store
	logger   *slog.Logger
	metrics  statsd.Sink
	inFlight *semaphore.Weighted
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		gateway:  opts.Gateway,
		store:    opts.Store,
		logger:   logger,
		metrics:  opts.Metrics,
		inFlight: semaphore.NewWeighted(1),
	}
}

// Configured reports whether an identity backend is wired up.
func (s *AuthService) Configured() bool {
	return s.gateway != nil
}

// failFast records a precondition failure without ever touching the
// loading flag or the network.
func (s *AuthService) failFast(err error) error {
	s.store.SetError(autherrors.UserMessage(err))
	return err
}

// run executes one operation under the in-flight guard with the fixed
// mutation sequence loading -> result -> clear-loading. The clear runs
// on every exit path, panics included.
func (s *AuthService) run(name string, fn func() error) (err error) {
	if !s.inFlight.TryAcquire(1) {
		return ErrOperationInFlight
	}
	defer s.inFlight.Release(1)

	start := time.Now()
	defer func() {
		metrics.EmitAuthOp(s.metrics, metrics.AuthOp{
			Operation: name,
			Duration:  time.Since(start),
			Err:       err,
		})
	}()

	s.store.BeginLoading()
	defer s.store.EndLoading()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("auth operation panicked", "operation", name, "panic", r)
			err = autherrors.Providerf("%s failed unexpectedly", name)
			s.store.SetError(autherrors.UserMessage(err))
		}
	}()

	if err = fn(); err != nil {
		s.store.SetError(autherrors.UserMessage(err))
		return err
	}
	return nil
}

// Login authenticates an email/password pair. On success the session
// becomes authenticated and the token is persisted.
func (s *AuthService) Login(ctx context.Context, creds domainauth.Credentials) error {
	if s.gateway == nil {
		return s.failFast(autherrors.NotConfigured())
	}
	if err := creds.Validate(); err != nil {
		return s.failFast(err)
	}
	return s.run("login", func() error {
		result, err := s.gateway.Login(ctx, creds.Email, creds.Password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		s.store.SetAuthenticated(result.User, result.Token)
		return nil
	})
}

// SignUp registers a new account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, creds domainauth.SignUpCredentials) error {
	if s.gateway == nil {
		return s.failFast(autherrors.NotConfigured())
	}
	if err := creds.Validate(); err != nil {
		return s.failFast(err)
	}
	return s.run("sign up", func() error {
		result, err := s.gateway.SignUp(ctx, creds)
		if err != nil {
			return fmt.Errorf("sign up: %w", err)
		}
		s.store.SetAuthenticated(result.User, result.Token)
		return nil
	})
}

// Logout ends the session. It is fail-open: the local session and the
// persisted token are cleared even when the upstream call fails, and
// calling it while already logged out is a no-op success.
func (s *AuthService) Logout(ctx context.Context) error {
	if s.gateway == nil {
		s.store.ClearSession()
		return nil
	}
	return s.run("logout", func() error {
		err := s.gateway.Logout(ctx)
		s.store.ClearSession()
		if err != nil {
			s.logger.Warn("upstream logout failed, session cleared locally", "error", err)
		}
		return nil
	})
}

// SignInWithProvider runs the OAuth flow for the named provider.
func (s *AuthService) SignInWithProvider(ctx context.Context, provider domainauth.Provider) error {
	if s.gateway == nil {
		return s.failFast(autherrors.NotConfigured())
	}
	if !provider.Valid() {
		return s.failFast(autherrors.Providerf("unknown sign-in provider %q", provider))
	}
	return s.run(string(provider)+" sign in", func() error {
		result, err := s.gateway.SignInWithProvider(ctx, provider)
		if err != nil {
			return fmt.Errorf("sign in with %s: %w", provider, err)
		}
		s.store.SetAuthenticated(result.User, result.Token)
		return nil
	})
}

// SignInWithGoogle is shorthand for SignInWithProvider(google).
func (s *AuthService) SignInWithGoogle(ctx context.Context) error {
	return s.SignInWithProvider(ctx, domainauth.ProviderGoogle)
}

// SignInWithFacebook is shorthand for SignInWithProvider(facebook).
func (s *AuthService) SignInWithFacebook(ctx context.Context) error {
	return s.SignInWithProvider(ctx, domainauth.ProviderFacebook)
}

// SignInWithGitHub is shorthand for SignInWithProvider(github).
func (s *AuthService) SignInWithGitHub(ctx context.Context) error {
	return s.SignInWithProvider(ctx, domainauth.ProviderGitHub)
}

// ForgotPassword asks the backend to send a reset email. The session
// itself is untouched beyond the loading flag.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if s.gateway == nil {
		return s.failFast(autherrors.NotConfigured())
	}
	return s.run("forgot password", func() error {
		if err := s.gateway.SendPasswordReset(ctx, email); err != nil {
			return fmt.Errorf("forgot password: %w", err)
		}
		return nil
	})
}

// ResetPassword completes a reset flow with the token from the email.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if s.gateway == nil {
		return s.failFast(autherrors.NotConfigured())
	}
	if len(password) < domainauth.MinPasswordLength {
		return s.failFast(domainauth.ErrPasswordTooShort)
	}
	return s.run("reset password", func() error {
		if err := s.gateway.ResetPassword(ctx, token, password); err != nil {
			return fmt.Errorf("reset password: %w", err)
		}
		return nil
	})
}

// Restore rehydrates the session from the persisted token at startup,
// before the route guard is first evaluated. A reload with a valid
// token lands authenticated instead of bouncing to login. Failures are
// silent: an unusable token clears the session, an unreachable backend
// leaves the token in place for the next attempt.
func (s *AuthService) Restore(ctx context.Context, tokens ports.TokenStorage) error {
	if tokens == nil || s.gateway == nil {
		return nil
	}
	_, ok, err := tokens.Load()
	if err != nil {
		return fmt.Errorf("load persisted token: %w", err)
	}
	if !ok {
		return nil
	}

	if !s.inFlight.TryAcquire(1) {
		return ErrOperationInFlight
	}
	defer s.inFlight.Release(1)

	s.store.BeginLoading()
	defer s.store.EndLoading()

	result, err := s.gateway.Refresh(ctx)
	if err != nil {
		if autherrors.IsNetworkError(err) {
			s.logger.Warn("session restore skipped, backend unreachable", "error", err)
			return nil
		}
		s.logger.Info("persisted token rejected, clearing session", "code", autherrors.GetCode(err))
		s.store.ClearSession()
		return nil
	}
	s.store.SetAuthenticated(result.User, result.Token)
	return nil
}
