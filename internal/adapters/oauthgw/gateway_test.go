package oauthgw

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/webui-auth/internal/domain/auth"
	autherrors "github.com/target/webui-auth/internal/errors"
)

// rewriteTransport sends every request to the test server regardless of
// the provider host baked into the oauth2 endpoints.
type rewriteTransport struct {
	target *url.URL
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

// echoGrabber completes the flow immediately with the state it was
// handed, simulating a user approving the consent screen.
func echoGrabber(code string) CodeGrabber {
	return func(_ context.Context, authURL string) (string, string, error) {
		u, err := url.Parse(authURL)
		if err != nil {
			return "", "", err
		}
		return code, u.Query().Get("state"), nil
	}
}

func newGitHubGateway(t *testing.T, handler http.Handler, grabber CodeGrabber) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	gw, err := New(Config{
		GitHub:      ClientCredentials{ClientID: "gh-client", ClientSecret: "gh-secret"},
		RedirectURL: "http://127.0.0.1:9091/auth/callback",
		Grabber:     grabber,
		HTTPClient:  &http.Client{Transport: &rewriteTransport{target: target}},
	})
	require.NoError(t, err)
	return gw
}

func githubBackend(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "consent-code", r.FormValue("code"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "gh-access-token",
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Authorization"), "gh-access-token")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         12345,
			"login":      "octocat",
			"name":       "Octo Cat",
			"email":      "octo@example.com",
			"avatar_url": "https://avatars.example.com/u/12345",
		})
	})
	return mux
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{RedirectURL: "http://127.0.0.1/cb"})
	assert.Error(t, err, "grabber is required")

	_, err = New(Config{Grabber: echoGrabber("c")})
	assert.Error(t, err, "redirect URL is required")

	_, err = New(Config{Grabber: echoGrabber("c"), RedirectURL: "http://127.0.0.1/cb"})
	assert.Error(t, err, "at least one provider must be configured")
}

func TestConfigured(t *testing.T) {
	gw := newGitHubGateway(t, http.NotFoundHandler(), echoGrabber("c"))
	assert.True(t, gw.Configured(domainauth.ProviderGitHub))
	assert.False(t, gw.Configured(domainauth.ProviderGoogle))
}

func TestGitHubSignIn(t *testing.T) {
	gw := newGitHubGateway(t, githubBackend(t), echoGrabber("consent-code"))

	result, err := gw.SignInWithProvider(context.Background(), domainauth.ProviderGitHub)
	require.NoError(t, err)

	assert.Equal(t, "gh-access-token", result.Token)
	assert.Equal(t, "github:12345", result.User.ID)
	assert.Equal(t, "octo@example.com", result.User.Email)
	assert.Equal(t, "Octo Cat", result.User.DisplayName)
	assert.Equal(t, domainauth.RoleUser, result.User.Role, "provider sign-in never elevates")
}

func TestGitHubHiddenEmailFallsBackToNoreply(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "gh-access-token",
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 7, "login": "shy"})
	})

	gw := newGitHubGateway(t, mux, echoGrabber("consent-code"))

	result, err := gw.SignInWithProvider(context.Background(), domainauth.ProviderGitHub)
	require.NoError(t, err)
	assert.Equal(t, "shy@users.noreply.github.com", result.User.Email)
}

func TestUnconfiguredProvider(t *testing.T) {
	gw := newGitHubGateway(t, http.NotFoundHandler(), echoGrabber("c"))

	_, err := gw.SignInWithProvider(context.Background(), domainauth.ProviderFacebook)
	require.Error(t, err)
	assert.True(t, autherrors.IsNotConfigured(err))
}

func TestStateMismatchIsRejected(t *testing.T) {
	grabber := func(context.Context, string) (string, string, error) {
		return "consent-code", "forged-state", nil
	}
	gw := newGitHubGateway(t, githubBackend(t), grabber)

	_, err := gw.SignInWithProvider(context.Background(), domainauth.ProviderGitHub)
	require.Error(t, err)
	assert.True(t, autherrors.IsProviderError(err))
	assert.Contains(t, autherrors.UserMessage(err), "GitHub sign in failed")
}

func TestGrabberFailureMapsToProviderError(t *testing.T) {
	grabber := func(context.Context, string) (string, string, error) {
		return "", "", errors.New("user closed the window")
	}
	gw := newGitHubGateway(t, http.NotFoundHandler(), grabber)

	_, err := gw.SignInWithProvider(context.Background(), domainauth.ProviderGitHub)
	require.Error(t, err)
	assert.True(t, autherrors.IsProviderError(err))
	assert.Equal(t, "GitHub sign in failed", autherrors.UserMessage(err))
}

func TestGrabberCancellationIsNetworkError(t *testing.T) {
	grabber := func(ctx context.Context, _ string) (string, string, error) {
		return "", "", context.DeadlineExceeded
	}
	gw := newGitHubGateway(t, http.NotFoundHandler(), grabber)

	_, err := gw.SignInWithProvider(context.Background(), domainauth.ProviderGitHub)
	require.Error(t, err)
	assert.True(t, autherrors.IsNetworkError(err))
}

func TestExchangeFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad_verification_code", http.StatusBadRequest)
	})
	gw := newGitHubGateway(t, mux, echoGrabber("expired-code"))

	_, err := gw.SignInWithProvider(context.Background(), domainauth.ProviderGitHub)
	require.Error(t, err)
	assert.Equal(t, "GitHub sign in failed", autherrors.UserMessage(err))
}

func TestAuthURLCarriesAccountPrompt(t *testing.T) {
	var seenURL string
	grabber := func(_ context.Context, authURL string) (string, string, error) {
		seenURL = authURL
		return "", "", errors.New("stop here")
	}
	gw := newGitHubGateway(t, http.NotFoundHandler(), grabber)

	_, _ = gw.SignInWithProvider(context.Background(), domainauth.ProviderGitHub)
	assert.Contains(t, seenURL, "prompt=select_account")
	assert.Contains(t, seenURL, "client_id=gh-client")
	assert.True(t, strings.Contains(seenURL, "state="))
}

func TestRestOnlyOperationsAreRejected(t *testing.T) {
	gw := newGitHubGateway(t, http.NotFoundHandler(), echoGrabber("c"))
	ctx := context.Background()

	_, err := gw.Login(ctx, "a@b.com", "secret1")
	assert.True(t, autherrors.IsProviderError(err))

	_, err = gw.SignUp(ctx, domainauth.SignUpCredentials{})
	assert.True(t, autherrors.IsProviderError(err))

	assert.True(t, autherrors.IsProviderError(gw.SendPasswordReset(ctx, "a@b.com")))
	assert.True(t, autherrors.IsProviderError(gw.ResetPassword(ctx, "code", "password")))

	_, err = gw.Refresh(ctx)
	assert.True(t, autherrors.IsProviderError(err))

	assert.NoError(t, gw.Logout(ctx), "logout is local")
}
