package restgw

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/webui-auth/internal/domain/auth"
	autherrors "github.com/target/webui-auth/internal/errors"
	mocks "github.com/target/webui-auth/internal/mocks/auth"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func newGateway(t *testing.T, handler http.Handler) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	gw, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)
	return gw
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestLoginSuccess(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, "secret1", body["password"])

		writeJSON(t, w, http.StatusOK, map[string]any{
			"user": map[string]any{
				"id":    "user-1",
				"email": "a@b.com",
				"role":  "user",
			},
			"token": "tok123",
		})
	}))

	result, err := gw.Login(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok123", result.Token)
	assert.Equal(t, "user-1", result.User.ID)
	assert.Equal(t, domainauth.RoleUser, result.User.Role)
}

func TestLoginProviderCodeTakesPrecedenceOverStatus(t *testing.T) {
	// A 400 with a well-known provider code must map on the code, not
	// fall through to the status.
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]string{
			"message": "upstream detail the user never sees",
			"code":    "auth/invalid-credential",
		})
	}))

	_, err := gw.Login(context.Background(), "a@b.com", "wrong-password")
	require.Error(t, err)
	assert.True(t, autherrors.IsInvalidCredentials(err))
	assert.Equal(t, autherrors.MsgInvalidCredentials, autherrors.UserMessage(err))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"401 invalid credentials", http.StatusUnauthorized, autherrors.IsInvalidCredentials},
		{"409 account exists", http.StatusConflict, autherrors.IsAccountExists},
		{"404 user not found", http.StatusNotFound, autherrors.IsUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(t, w, tt.status, map[string]string{"message": "nope"})
			}))
			_, err := gw.Login(context.Background(), "a@b.com", "secret1")
			require.Error(t, err)
			assert.True(t, tt.check(err))
		})
	}
}

func TestUnmappedErrorCarriesUpstreamMessage(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusUnprocessableEntity, map[string]string{
			"message": "Password is on the breached list",
			"code":    "auth/weak-password",
		})
	}))

	_, err := gw.Login(context.Background(), "a@b.com", "secret1")
	require.Error(t, err)
	assert.True(t, autherrors.IsProviderError(err))
	assert.Equal(t, "Password is on the breached list", autherrors.UserMessage(err))
}

func TestErrorWithoutEnvelope(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := gw.Login(context.Background(), "a@b.com", "secret1")
	require.Error(t, err)
	assert.True(t, autherrors.IsProviderError(err))
	assert.Contains(t, autherrors.UserMessage(err), "502")
}

func TestUnreachableBackendIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // nothing is listening anymore

	gw, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = gw.Login(context.Background(), "a@b.com", "secret1")
	require.Error(t, err)
	assert.True(t, autherrors.IsNetworkError(err))
	assert.Equal(t, autherrors.MsgNetworkError, autherrors.UserMessage(err))
}

func TestTimeoutIsNetworkError(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := gw.Login(ctx, "a@b.com", "secret1")
	require.Error(t, err)
	assert.True(t, autherrors.IsNetworkError(err))
}

func TestSignUpSendsDisplayName(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/signup", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "New User", body["displayName"])
		writeJSON(t, w, http.StatusCreated, map[string]any{
			"user":  map[string]any{"id": "user-2", "email": body["email"], "role": "user"},
			"token": "tok456",
		})
	}))

	result, err := gw.SignUp(context.Background(), domainauth.SignUpCredentials{
		Email:           "new@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		DisplayName:     "New User",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok456", result.Token)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusConflict, map[string]string{
			"message": "duplicate",
			"code":    "auth/email-already-in-use",
		})
	}))

	_, err := gw.SignUp(context.Background(), domainauth.SignUpCredentials{
		Email: "taken@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.Error(t, err)
	assert.True(t, autherrors.IsAccountExists(err))
	assert.Equal(t, autherrors.MsgAccountExists, autherrors.UserMessage(err))
}

func TestLogoutSendsBearerToken(t *testing.T) {
	storage := mocks.NewMemoryStorage()
	require.NoError(t, storage.Save("tok123"))

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/auth/logout", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	gw, err := New(Config{BaseURL: server.URL, Tokens: storage})
	require.NoError(t, err)

	require.NoError(t, gw.Logout(context.Background()))
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestLogoutWithoutTokenOmitsHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	gw, err := New(Config{BaseURL: server.URL, Tokens: mocks.NewMemoryStorage()})
	require.NoError(t, err)

	require.NoError(t, gw.Logout(context.Background()))
	assert.Empty(t, gotAuth)
}

func TestRefreshReturnsFreshSession(t *testing.T) {
	storage := mocks.NewMemoryStorage()
	require.NoError(t, storage.Save("stale-token"))

	gw := newGatewayWithTokens(t, storage, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/refresh", r.URL.Path)
		assert.Equal(t, "Bearer stale-token", r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"user":  map[string]any{"id": "user-1", "email": "a@b.com", "role": "user"},
			"token": "fresh-token",
		})
	}))

	result, err := gw.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", result.Token)
}

func TestRefreshRejectedToken(t *testing.T) {
	storage := mocks.NewMemoryStorage()
	require.NoError(t, storage.Save("revoked"))

	gw := newGatewayWithTokens(t, storage, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"message": "revoked"})
	}))

	_, err := gw.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, autherrors.IsInvalidCredentials(err))
}

func newGatewayWithTokens(t *testing.T, storage *mocks.MemoryStorage, handler http.Handler) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	gw, err := New(Config{BaseURL: server.URL, Tokens: storage})
	require.NoError(t, err)
	return gw
}

func TestForgotPassword(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/forgot-password", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		w.WriteHeader(http.StatusAccepted)
	}))

	assert.NoError(t, gw.SendPasswordReset(context.Background(), "a@b.com"))
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"code": "auth/user-not-found"})
	}))

	err := gw.SendPasswordReset(context.Background(), "nobody@example.com")
	require.Error(t, err)
	assert.True(t, autherrors.IsUserNotFound(err))
	assert.Equal(t, autherrors.MsgUserNotFound, autherrors.UserMessage(err))
}

func TestResetPassword(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/reset-password", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "reset-code-1", body["token"])
		assert.Equal(t, "newsecret", body["password"])
		w.WriteHeader(http.StatusOK)
	}))

	assert.NoError(t, gw.ResetPassword(context.Background(), "reset-code-1", "newsecret"))
}

func TestSignInWithProviderIsRejected(t *testing.T) {
	gw := newGateway(t, http.NotFoundHandler())

	_, err := gw.SignInWithProvider(context.Background(), domainauth.ProviderGoogle)
	require.Error(t, err)
	assert.True(t, autherrors.IsProviderError(err))
}

func TestMalformedSuccessBody(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("not json"))
	}))

	_, err := gw.Login(context.Background(), "a@b.com", "secret1")
	require.Error(t, err)
	assert.True(t, autherrors.IsProviderError(err))
}
