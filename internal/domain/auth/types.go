package auth

// Package auth contains domain-level types for the client session model.
// It is pure and free of transport/adapter concerns.

import (
	"regexp"
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleBasic Role = "basic"
)

// Level returns the position of the role in the privilege order.
// Unknown roles rank below every valid role.
func (r Role) Level() int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleUser:
		return 1
	case RoleBasic:
		return 0
	default:
		return -1
	}
}

// Allows reports whether a holder of r may access a view gated on
// required. The hierarchy is basic < user < admin; admin passes every
// gate. This is the single comparison point for role checks.
func (r Role) Allows(required Role) bool {
	if required == "" {
		return r.Level() >= 0
	}
	return r.Level() >= required.Level() && required.Level() >= 0
}

// User is the authenticated principal as the client sees it.
// ID is the provider-issued subject identifier and is immutable.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Provider identifies an external OAuth sign-in provider.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
	ProviderGitHub   Provider = "github"
)

// Valid reports whether the provider is one the client knows how to drive.
func (p Provider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderFacebook, ProviderGitHub:
		return true
	default:
		return false
	}
}

// Route is an abstract navigation target consumed by an external router.
type Route string

const (
	RouteHome           Route = "/"
	RouteAbout          Route = "/about"
	RouteLogin          Route = "/login"
	RouteSignUp         Route = "/signup"
	RouteForgotPassword Route = "/forgot-password"
	RouteDashboard      Route = "/dashboard"
)

// Snapshot is a read-only view of the current session state.
// Invariant: IsAuthenticated is true iff both User and Token are present.
type Snapshot struct {
	User            *User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	Err             string
}

// emailPattern is intentionally loose; the backend is authoritative.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// MinPasswordLength is the minimum accepted password length for sign-up
// and login input validation.
const MinPasswordLength = 6

// Credentials are the transient login inputs. Never persisted.
type Credentials struct {
	Email    string
	Password string
}

// Validate checks the login inputs before any network call.
func (c Credentials) Validate() error {
	if !emailPattern.MatchString(strings.TrimSpace(c.Email)) {
		return ErrInvalidEmail
	}
	if len(c.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// SignUpCredentials are the transient sign-up inputs. Never persisted.
type SignUpCredentials struct {
	Email           string
	Password        string
	ConfirmPassword string
	DisplayName     string
}

// Validate checks the sign-up inputs before any network call.
func (c SignUpCredentials) Validate() error {
	if err := (Credentials{Email: c.Email, Password: c.Password}).Validate(); err != nil {
		return err
	}
	if c.Password != c.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

// Validation errors carry the user-facing message directly.
type validationError string

func (e validationError) Error() string { return string(e) }

const (
	ErrInvalidEmail     validationError = "Invalid email address"
	ErrPasswordTooShort validationError = "Password must be at least 6 characters"
	ErrPasswordMismatch validationError = "Passwords don't match"
)
