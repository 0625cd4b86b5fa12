package errors

import (
	"errors"
	"fmt"
)

// Code categorizes an authentication failure. The set is closed: every
// gateway or transport failure is mapped into one of these before it
// reaches the session store.
type Code string

const (
	// CodeNotConfigured indicates the identity backend is absent or unconfigured.
	CodeNotConfigured Code = "not_configured"
	// CodeInvalidCredentials indicates a rejected email/password pair.
	CodeInvalidCredentials Code = "invalid_credentials"
	// CodeAccountExists indicates sign-up with an email that is already registered.
	CodeAccountExists Code = "account_exists"
	// CodeUserNotFound indicates no account matches the given identifier.
	CodeUserNotFound Code = "user_not_found"
	// CodeProviderError indicates a generic upstream identity-provider failure.
	CodeProviderError Code = "provider_error"
	// CodeNetworkError indicates the backend could not be reached or timed out.
	CodeNetworkError Code = "network_error"
	// CodeForbidden indicates a role mismatch, synthesized by the route guard.
	CodeForbidden Code = "forbidden"
	// CodeSessionExpired indicates a 401 mid-flight, synthesized by the interceptor.
	CodeSessionExpired Code = "session_expired"
)

// AuthError is a structured authentication error with a code, a
// user-facing message, and an optional cause. It supports error
// wrapping for use with errors.Is and errors.As.
type AuthError struct {
	// Code categorizes the error type
	Code Code
	// Message is the human-readable message surfaced to the user
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// Canonical user-facing messages for mapped provider failures.
const (
	MsgNotConfigured      = "Identity provider is not configured. Please set up the auth backend in .env file."
	MsgInvalidCredentials = "Invalid email or password"
	MsgAccountExists      = "Email already in use"
	MsgUserNotFound       = "User not found"
	MsgSessionExpired     = "Session expired. Please login again."
	MsgForbidden          = "You do not have permission to perform this action."
	MsgNetworkError       = "Network error. Please check your connection."
)

// NotConfigured creates a NotConfigured error with the canonical message.
func NotConfigured() *AuthError {
	return &AuthError{Code: CodeNotConfigured, Message: MsgNotConfigured}
}

// InvalidCredentials creates an InvalidCredentials error.
func InvalidCredentials() *AuthError {
	return &AuthError{Code: CodeInvalidCredentials, Message: MsgInvalidCredentials}
}

// AccountExists creates an AccountExists error.
func AccountExists() *AuthError {
	return &AuthError{Code: CodeAccountExists, Message: MsgAccountExists}
}

// UserNotFound creates a UserNotFound error.
func UserNotFound() *AuthError {
	return &AuthError{Code: CodeUserNotFound, Message: MsgUserNotFound}
}

// Provider creates a ProviderError carrying the upstream message.
// Unmapped provider codes fall through to this constructor.
func Provider(message string) *AuthError {
	return &AuthError{Code: CodeProviderError, Message: message}
}

// Providerf creates a ProviderError with a formatted message.
func Providerf(format string, args ...any) *AuthError {
	return &AuthError{Code: CodeProviderError, Message: fmt.Sprintf(format, args...)}
}

// Network creates a NetworkError, preserving the transport cause.
func Network(cause error) *AuthError {
	return &AuthError{Code: CodeNetworkError, Message: MsgNetworkError, Cause: cause}
}

// Forbidden creates a Forbidden error.
func Forbidden() *AuthError {
	return &AuthError{Code: CodeForbidden, Message: MsgForbidden}
}

// SessionExpired creates a SessionExpired error.
func SessionExpired() *AuthError {
	return &AuthError{Code: CodeSessionExpired, Message: MsgSessionExpired}
}

// Wrap attaches a cause to a coded error without changing its message.
func Wrap(err error, code Code, message string) *AuthError {
	if err == nil {
		return nil
	}
	return &AuthError{Code: code, Message: message, Cause: err}
}

// isCode checks if an error has a specific code.
func isCode(err error, code Code) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Code == code
}

// IsNotConfigured checks if an error is a NotConfigured error.
func IsNotConfigured(err error) bool { return isCode(err, CodeNotConfigured) }

// IsInvalidCredentials checks if an error is an InvalidCredentials error.
func IsInvalidCredentials(err error) bool { return isCode(err, CodeInvalidCredentials) }

// IsAccountExists checks if an error is an AccountExists error.
func IsAccountExists(err error) bool { return isCode(err, CodeAccountExists) }

// IsUserNotFound checks if an error is a UserNotFound error.
func IsUserNotFound(err error) bool { return isCode(err, CodeUserNotFound) }

// IsProviderError checks if an error is a ProviderError.
func IsProviderError(err error) bool { return isCode(err, CodeProviderError) }

// IsNetworkError checks if an error is a NetworkError.
func IsNetworkError(err error) bool { return isCode(err, CodeNetworkError) }

// IsForbidden checks if an error is a Forbidden error.
func IsForbidden(err error) bool { return isCode(err, CodeForbidden) }

// IsSessionExpired checks if an error is a SessionExpired error.
func IsSessionExpired(err error) bool { return isCode(err, CodeSessionExpired) }

// GetCode returns the Code from an error, or empty string if the error
// is not an AuthError.
func GetCode(err error) Code {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return ""
}

// UserMessage extracts the user-facing message from an error. Plain
// errors surface their Error() text, matching how unmapped upstream
// messages pass through the gateway.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return err.Error()
}
