package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/target/webui-auth/internal/domain/auth"
	autherrors "github.com/target/webui-auth/internal/errors"
	"github.com/target/webui-auth/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityGateway = (*MockGateway)(nil)
	_ ports.TokenStorage    = (*MemoryStorage)(nil)
	_ ports.KeyValueStorage = (*MemoryStorage)(nil)
	_ ports.Navigator       = (*RecordingNavigator)(nil)
	_ ports.Notifier        = (*RecordingNotifier)(nil)
)

// MockGateway simulates an identity backend with deterministic results.
// Any function field overrides the default behavior for that flow.
type MockGateway struct {
	LoginFunc              func(ctx context.Context, email, password string) (ports.AuthResult, error)
	SignUpFunc             func(ctx context.Context, creds domainauth.SignUpCredentials) (ports.AuthResult, error)
	LogoutFunc             func(ctx context.Context) error
	SignInWithProviderFunc func(ctx context.Context, provider domainauth.Provider) (ports.AuthResult, error)
	SendPasswordResetFunc  func(ctx context.Context, email string) error
	ResetPasswordFunc      func(ctx context.Context, token, password string) error
	RefreshFunc            func(ctx context.Context) (ports.AuthResult, error)

	// DefaultUser and DefaultToken back the session-yielding flows when
	// no function field is set.
	DefaultUser  domainauth.User
	DefaultToken string

	// Calls records flow names in invocation order.
	mu    sync.Mutex
	Calls []string
}

// NewMockGateway creates a MockGateway with sensible defaults.
func NewMockGateway() *MockGateway {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	return &MockGateway{
		DefaultUser: domainauth.User{
			ID:          "mock-user-1",
			Email:       "mock.user@example.com",
			DisplayName: "Mock User",
			Role:        domainauth.RoleUser,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		DefaultToken: "mock-token-1",
	}
}

func (m *MockGateway) record(flow string) {
	m.mu.Lock()
	m.Calls = append(m.Calls, flow)
	m.mu.Unlock()
}

func (m *MockGateway) defaultResult(email string) ports.AuthResult {
	user := m.DefaultUser
	if email != "" {
		user.Email = email
	}
	return ports.AuthResult{User: user, Token: m.DefaultToken}
}

func (m *MockGateway) Login(ctx context.Context, email, password string) (ports.AuthResult, error) {
	m.record("login")
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return m.defaultResult(email), nil
}

func (m *MockGateway) SignUp(ctx context.Context, creds domainauth.SignUpCredentials) (ports.AuthResult, error) {
	m.record("signup")
	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, creds)
	}
	res := m.defaultResult(creds.Email)
	if creds.DisplayName != "" {
		res.User.DisplayName = creds.DisplayName
	}
	return res, nil
}

func (m *MockGateway) Logout(ctx context.Context) error {
	m.record("logout")
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx)
	}
	return nil
}

func (m *MockGateway) SignInWithProvider(ctx context.Context, provider domainauth.Provider) (ports.AuthResult, error) {
	m.record("provider:" + string(provider))
	if m.SignInWithProviderFunc != nil {
		return m.SignInWithProviderFunc(ctx, provider)
	}
	if !provider.Valid() {
		return ports.AuthResult{}, autherrors.Providerf("unknown provider %q", provider)
	}
	return m.defaultResult(""), nil
}

func (m *MockGateway) SendPasswordReset(ctx context.Context, email string) error {
	m.record("forgot-password")
	if m.SendPasswordResetFunc != nil {
		return m.SendPasswordResetFunc(ctx, email)
	}
	return nil
}

func (m *MockGateway) ResetPassword(ctx context.Context, token, password string) error {
	m.record("reset-password")
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, token, password)
	}
	return nil
}

func (m *MockGateway) Refresh(ctx context.Context) (ports.AuthResult, error) {
	m.record("refresh")
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return m.defaultResult(""), nil
}

// CallCount returns how many flows ran.
func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MemoryStorage is an in-memory key-value store for unit tests. It
// implements both TokenStorage (fixed key) and KeyValueStorage.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string

	// FailWith, when set, is returned by every call.
	FailWith error
}

const tokenKey = "token"

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Load() (string, bool, error) {
	return m.Get(tokenKey)
}

func (m *MemoryStorage) Save(token string) error {
	return m.Set(tokenKey, token)
}

func (m *MemoryStorage) Clear() error {
	return m.Delete(tokenKey)
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return "", false, m.FailWith
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	delete(m.values, key)
	return nil
}

// RecordingNavigator captures navigation intents in order.
type RecordingNavigator struct {
	mu     sync.Mutex
	Routes []domainauth.Route
}

func (n *RecordingNavigator) NavigateTo(route domainauth.Route) {
	n.mu.Lock()
	n.Routes = append(n.Routes, route)
	n.mu.Unlock()
}

// Last returns the most recent route, or empty when none was issued.
func (n *RecordingNavigator) Last() domainauth.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Routes) == 0 {
		return ""
	}
	return n.Routes[len(n.Routes)-1]
}

// RecordingNotifier captures success and error notices.
type RecordingNotifier struct {
	mu        sync.Mutex
	Successes []string
	Errors    []string
}

func (n *RecordingNotifier) Success(message string) {
	n.mu.Lock()
	n.Successes = append(n.Successes, message)
	n.mu.Unlock()
}

func (n *RecordingNotifier) Error(message string) {
	n.mu.Lock()
	n.Errors = append(n.Errors, message)
	n.mu.Unlock()
}

// LastError returns the most recent error notice, or empty.
func (n *RecordingNotifier) LastError() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Errors) == 0 {
		return ""
	}
	return n.Errors[len(n.Errors)-1]
}
