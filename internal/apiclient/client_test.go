package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/webui-auth/internal/domain/auth"
	autherrors "github.com/target/webui-auth/internal/errors"
	mocks "github.com/target/webui-auth/internal/mocks/auth"
	"github.com/target/webui-auth/internal/store"
)

type harness struct {
	client    *Client
	storage   *mocks.MemoryStorage
	store     *store.Store
	navigator *mocks.RecordingNavigator
	notifier  *mocks.RecordingNotifier
}

func newHarness(t *testing.T, handler http.Handler) *harness {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	storage := mocks.NewMemoryStorage()
	st := store.New(storage, nil)
	navigator := &mocks.RecordingNavigator{}
	notifier := &mocks.RecordingNotifier{}

	interceptor := NewInterceptor(InterceptorOptions{
		Tokens:    storage,
		Store:     st,
		Navigator: navigator,
		Notifier:  notifier,
	})
	client, err := New(Config{BaseURL: server.URL, Interceptor: interceptor})
	require.NoError(t, err)

	return &harness{
		client:    client,
		storage:   storage,
		store:     st,
		navigator: navigator,
		notifier:  notifier,
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Interceptor: NewInterceptor(InterceptorOptions{})})
	assert.Error(t, err, "base URL is required")

	_, err = New(Config{BaseURL: "http://localhost"})
	assert.Error(t, err, "interceptor is required")
}

func TestGetDecodesResponse(t *testing.T) {
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/profile", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "user-1"})
	}))

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, h.client.Get(context.Background(), "/profile", &out))
	assert.Equal(t, "user-1", out.ID)
}

func TestBearerTokenAttachedWhenPresent(t *testing.T) {
	var gotAuth string
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	require.NoError(t, h.storage.Save("tok123"))

	require.NoError(t, h.client.Get(context.Background(), "/profile", nil))
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestNoAuthorizationHeaderWithoutToken(t *testing.T) {
	var hasHeader bool
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasHeader = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, h.client.Get(context.Background(), "/public", nil))
	assert.False(t, hasHeader, "absent token means no header, not an empty one")
}

func TestRequestIDStamped(t *testing.T) {
	ids := make(map[string]bool)
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		assert.NotEmpty(t, id)
		ids[id] = true
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, h.client.Get(context.Background(), "/a", nil))
	require.NoError(t, h.client.Get(context.Background(), "/b", nil))
	assert.Len(t, ids, 2, "each request gets its own ID")
}

func TestUnauthorizedExpiresSession(t *testing.T) {
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	h.store.SetAuthenticated(domainauth.User{ID: "user-1", Email: "a@b.com", Role: domainauth.RoleUser}, "tok123")

	err := h.client.Get(context.Background(), "/profile", nil)
	require.Error(t, err)
	assert.True(t, autherrors.IsSessionExpired(err))

	assert.False(t, h.store.Snapshot().IsAuthenticated)
	assert.Equal(t, domainauth.RouteLogin, h.navigator.Last())
	assert.Equal(t, autherrors.MsgSessionExpired, h.notifier.LastError())

	_, ok, loadErr := h.storage.Load()
	require.NoError(t, loadErr)
	assert.False(t, ok, "persisted token cleared on 401")
}

func TestForbiddenNotifiesWithoutTouchingSession(t *testing.T) {
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	h.store.SetAuthenticated(domainauth.User{ID: "user-1", Role: domainauth.RoleBasic}, "tok123")

	err := h.client.Delete(context.Background(), "/admin/users/2", nil)
	require.Error(t, err)
	assert.True(t, autherrors.IsForbidden(err))

	assert.True(t, h.store.Snapshot().IsAuthenticated, "403 must not clear the session")
	assert.Empty(t, h.navigator.Routes)
	assert.Equal(t, autherrors.MsgForbidden, h.notifier.LastError())
}

func TestCategoryNotices(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
	}{
		{"not found", http.StatusNotFound, "Resource not found."},
		{"server error", http.StatusInternalServerError, "Server error. Please try again later."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			err := h.client.Get(context.Background(), "/things/1", nil)
			require.Error(t, err)
			assert.Equal(t, tt.message, h.notifier.LastError())
		})
	}
}

func TestUncategorizedErrorUsesEnvelopeMessage(t *testing.T) {
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Name is required"})
	}))

	err := h.client.Post(context.Background(), "/things", map[string]string{}, nil)
	require.Error(t, err)
	assert.Equal(t, "Name is required", h.notifier.LastError())
	assert.Equal(t, "Name is required", autherrors.UserMessage(err))
}

func TestUncategorizedErrorWithoutEnvelope(t *testing.T) {
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	err := h.client.Get(context.Background(), "/things", nil)
	require.Error(t, err)
	assert.Equal(t, "An error occurred", h.notifier.LastError())
}

func TestTransportFailureNotifiesNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	storage := mocks.NewMemoryStorage()
	notifier := &mocks.RecordingNotifier{}
	interceptor := NewInterceptor(InterceptorOptions{Tokens: storage, Notifier: notifier})
	client, err := New(Config{BaseURL: server.URL, Interceptor: interceptor})
	require.NoError(t, err)

	err = client.Get(context.Background(), "/profile", nil)
	require.Error(t, err)
	assert.True(t, autherrors.IsNetworkError(err))
	assert.Equal(t, autherrors.MsgNetworkError, notifier.LastError())
}

func TestPostEncodesBody(t *testing.T) {
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Widget", body["name"])
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "thing-1"})
	}))

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, h.client.Post(context.Background(), "/things", map[string]string{"name": "Widget"}, &out))
	assert.Equal(t, "thing-1", out.ID)
}

func TestBaseURLTrailingSlashNormalized(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	interceptor := NewInterceptor(InterceptorOptions{})
	client, err := New(Config{BaseURL: server.URL + "/", Interceptor: interceptor})
	require.NoError(t, err)

	require.NoError(t, client.Get(context.Background(), "/profile", nil))
	assert.Equal(t, "/profile", gotPath)
}
