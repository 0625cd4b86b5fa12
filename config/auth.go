package config

import (
	"fmt"
	"strings"
)

// AuthMode selects the identity backend for the client.
type AuthMode string

const (
	// AuthModeRest uses the REST auth endpoints for every flow.
	AuthModeRest AuthMode = "rest"
	// AuthModeOAuth adds OAuth provider sign-in on top of the REST backend.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses a deterministic local identity (development only).
	AuthModeMock AuthMode = "mock"
	// AuthModeNone disables authentication; every operation fails with
	// a not-configured error.
	AuthModeNone AuthMode = "none"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "rest", "oauth", "mock", "none":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: rest, oauth, mock, none)", v)
	}
}

// ProviderCredentials identify this application to one OAuth provider.
type ProviderCredentials struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

// Configured reports whether the provider can be used.
func (p ProviderCredentials) Configured() bool {
	return p.ClientID != ""
}

// OAuthConfig contains OAuth provider configuration (used when
// Mode=oauth). Providers without a client ID are simply unavailable.
type OAuthConfig struct {
	Google   ProviderCredentials `envPrefix:"GOOGLE_"`
	Facebook ProviderCredentials `envPrefix:"FACEBOOK_"`
	GitHub   ProviderCredentials `envPrefix:"GITHUB_"`

	// RedirectURL is the loopback address the provider redirects back to.
	RedirectURL string `env:"REDIRECT_URL" envDefault:"http://localhost:9091/auth/callback"`
}

// AnyConfigured reports whether at least one provider has credentials.
func (o OAuthConfig) AnyConfigured() bool {
	return o.Google.Configured() || o.Facebook.Configured() || o.GitHub.Configured()
}

// DevAuthConfig controls the mock identity used when Mode=mock.
type DevAuthConfig struct {
	UserID      string `env:"USER_ID"      envDefault:"dev-user"`
	Email       string `env:"EMAIL"        envDefault:"dev@example.com"`
	DisplayName string `env:"DISPLAY_NAME" envDefault:"Dev User"`
	Role        string `env:"ROLE"         envDefault:"admin"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity backend to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"rest"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}
