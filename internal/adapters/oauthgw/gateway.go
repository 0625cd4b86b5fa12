package oauthgw

// Package oauthgw implements provider sign-in (Google, Facebook,
// GitHub) for the identity gateway. The browser popup of the original
// flow is modeled by a CodeGrabber: the gateway hands it the provider
// auth URL and receives the redirected code and state back.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/target/webui-auth/internal/domain/auth"
	autherrors "github.com/target/webui-auth/internal/errors"
	"github.com/target/webui-auth/internal/ports"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// GoogleIssuer is the OIDC issuer used to verify Google ID tokens.
const GoogleIssuer = "https://accounts.google.com"

// Userinfo endpoints for the providers that do not issue ID tokens.
const (
	githubUserURL   = "https://api.github.com/user"
	facebookUserURL = "https://graph.facebook.com/me?fields=id,name,email,picture.type(large)"
)

// CodeGrabber completes the interactive half of an OAuth flow: it
// presents authURL to the user and returns the code and state delivered
// to the redirect URL. Implementations range from a loopback HTTP
// listener to a test stub.
type CodeGrabber func(ctx context.Context, authURL string) (code, state string, err error)

// ClientCredentials identifies this application to one provider.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

// Config holds configuration for the OAuth gateway.
type Config struct {
	Google      ClientCredentials
	Facebook    ClientCredentials
	GitHub      ClientCredentials
	RedirectURL string
	Grabber     CodeGrabber

	HTTPClient *http.Client // optional, for tests
}

// Gateway drives the three supported OAuth providers. Only the
// provider-parameterized flow is implemented; every other gateway
// operation reports that it needs the REST backend.
type Gateway struct {
	configs    map[domainauth.Provider]*oauth2.Config
	grabber    CodeGrabber
	httpClient *http.Client

	// verifier is lazily initialized on the first Google sign-in; the
	// discovery fetch needs the network.
	verifier *gooidc.IDTokenVerifier
}

var _ ports.IdentityGateway = (*Gateway)(nil)

// New creates an OAuth gateway for the providers that have credentials
// configured. A CodeGrabber and redirect URL are required.
func New(cfg Config) (*Gateway, error) {
	if cfg.Grabber == nil {
		return nil, errors.New("code grabber is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	configs := make(map[domainauth.Provider]*oauth2.Config)
	if cfg.Google.ClientID != "" {
		configs[domainauth.ProviderGoogle] = &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}
	}
	if cfg.Facebook.ClientID != "" {
		configs[domainauth.ProviderFacebook] = &oauth2.Config{
			ClientID:     cfg.Facebook.ClientID,
			ClientSecret: cfg.Facebook.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"public_profile", "email"},
			Endpoint:     facebook.Endpoint,
		}
	}
	if cfg.GitHub.ClientID != "" {
		configs[domainauth.ProviderGitHub] = &oauth2.Config{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}
	}
	if len(configs) == 0 {
		return nil, errors.New("no provider credentials configured")
	}

	return &Gateway{
		configs:    configs,
		grabber:    cfg.Grabber,
		httpClient: httpClient,
	}, nil
}

// Configured reports whether the named provider has credentials.
func (g *Gateway) Configured(provider domainauth.Provider) bool {
	_, ok := g.configs[provider]
	return ok
}

func (g *Gateway) SignInWithProvider(ctx context.Context, provider domainauth.Provider) (ports.AuthResult, error) {
	conf, ok := g.configs[provider]
	if !ok {
		return ports.AuthResult{}, autherrors.NotConfigured()
	}

	state, err := randomState()
	if err != nil {
		return ports.AuthResult{}, fmt.Errorf("generate state: %w", err)
	}

	authURL := conf.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
	code, gotState, err := g.grabber(ctx, authURL)
	if err != nil {
		return ports.AuthResult{}, mapFlowError(provider, err)
	}
	if gotState != state {
		return ports.AuthResult{}, autherrors.Providerf("%s: state mismatch in OAuth callback", signInFailed(provider))
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return ports.AuthResult{}, mapFlowError(provider, err)
	}

	user, err := g.fetchIdentity(ctx, provider, conf, token)
	if err != nil {
		return ports.AuthResult{}, mapFlowError(provider, err)
	}

	return ports.AuthResult{User: user, Token: token.AccessToken}, nil
}

// fetchIdentity turns a provider token into a domain user. Provider
// sign-ins always yield the standard user role; elevation happens in
// the backend, never client-side.
func (g *Gateway) fetchIdentity(ctx context.Context, provider domainauth.Provider, conf *oauth2.Config, token *oauth2.Token) (domainauth.User, error) {
	switch provider {
	case domainauth.ProviderGoogle:
		return g.googleIdentity(ctx, conf, token)
	case domainauth.ProviderFacebook:
		return g.facebookIdentity(ctx, conf, token)
	case domainauth.ProviderGitHub:
		return g.githubIdentity(ctx, conf, token)
	default:
		return domainauth.User{}, fmt.Errorf("unknown provider %q", provider)
	}
}

// googleClaims is the subset of Google ID-token claims we consume.
type googleClaims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (g *Gateway) googleIdentity(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (domainauth.User, error) {
	rawID, ok := token.Extra("id_token").(string)
	if !ok || rawID == "" {
		return domainauth.User{}, errors.New("missing id_token in token response")
	}

	if g.verifier == nil {
		provider, err := gooidc.NewProvider(ctx, GoogleIssuer)
		if err != nil {
			return domainauth.User{}, fmt.Errorf("oidc discovery: %w", err)
		}
		g.verifier = provider.Verifier(&gooidc.Config{ClientID: conf.ClientID})
	}

	idToken, err := g.verifier.Verify(ctx, rawID)
	if err != nil {
		return domainauth.User{}, fmt.Errorf("verify id_token: %w", err)
	}

	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return domainauth.User{}, fmt.Errorf("parse id_token claims: %w", err)
	}

	return newProviderUser(claims.Sub, claims.Email, claims.Name, claims.Picture), nil
}

// githubUser is the subset of the GitHub user payload we consume.
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

func (g *Gateway) githubIdentity(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (domainauth.User, error) {
	var payload githubUser
	if err := g.getJSON(ctx, conf, token, githubUserURL, &payload); err != nil {
		return domainauth.User{}, err
	}
	email := payload.Email
	if email == "" {
		// Users can hide their email; the login remains a stable handle.
		email = payload.Login + "@users.noreply.github.com"
	}
	return newProviderUser(fmt.Sprintf("github:%d", payload.ID), email, payload.Name, payload.AvatarURL), nil
}

// facebookUser is the subset of the Graph API payload we consume.
type facebookUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func (g *Gateway) facebookIdentity(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (domainauth.User, error) {
	var payload facebookUser
	if err := g.getJSON(ctx, conf, token, facebookUserURL, &payload); err != nil {
		return domainauth.User{}, err
	}
	return newProviderUser("facebook:"+payload.ID, payload.Email, payload.Name, payload.Picture.Data.URL), nil
}

// getJSON fetches a userinfo document with the provider token attached.
func (g *Gateway) getJSON(ctx context.Context, conf *oauth2.Config, token *oauth2.Token, rawURL string, out any) error {
	client := conf.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on a read-only body

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode userinfo: %w", err)
	}
	return nil
}

// newProviderUser builds the domain user for a fresh provider sign-in.
func newProviderUser(id, email, displayName, photoURL string) domainauth.User {
	now := time.Now().UTC()
	return domainauth.User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		Role:        domainauth.RoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// signInFailed returns the per-provider failure message surfaced to the
// user when an upstream error has no better mapping.
func signInFailed(provider domainauth.Provider) string {
	switch provider {
	case domainauth.ProviderGoogle:
		return "Google sign in failed"
	case domainauth.ProviderFacebook:
		return "Facebook sign in failed"
	case domainauth.ProviderGitHub:
		return "GitHub sign in failed"
	default:
		return "Sign in failed"
	}
}

// mapFlowError classifies an OAuth flow failure: unreachable providers
// are network errors, everything else is a provider error carrying the
// per-provider message.
func mapFlowError(provider domainauth.Provider, err error) error {
	var authErr *autherrors.AuthError
	if errors.As(err, &authErr) {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) {
		return autherrors.Network(err)
	}
	return autherrors.Wrap(err, autherrors.CodeProviderError, signInFailed(provider))
}

// The remaining gateway operations need the REST backend.

func (g *Gateway) Login(context.Context, string, string) (ports.AuthResult, error) {
	return ports.AuthResult{}, autherrors.Provider("Email/password login requires the REST backend")
}

func (g *Gateway) SignUp(context.Context, domainauth.SignUpCredentials) (ports.AuthResult, error) {
	return ports.AuthResult{}, autherrors.Provider("Sign up requires the REST backend")
}

func (g *Gateway) Logout(context.Context) error {
	// Provider tokens are not revocable client-side; local logout suffices.
	return nil
}

func (g *Gateway) SendPasswordReset(context.Context, string) error {
	return autherrors.Provider("Password reset requires the REST backend")
}

func (g *Gateway) ResetPassword(context.Context, string, string) error {
	return autherrors.Provider("Password reset requires the REST backend")
}

func (g *Gateway) Refresh(context.Context) (ports.AuthResult, error) {
	return ports.AuthResult{}, autherrors.Provider("Session refresh requires the REST backend")
}

// randomState generates a cryptographically secure URL-safe state value.
func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
