package store

// Package store holds the in-memory session state. It is the only
// mutable shared state in the client; every mutation goes through one
// of the named entry points below and notifies subscribers
// synchronously before returning.

import (
	"log/slog"
	"sync"

	domainauth "github.com/target/webui-auth/internal/domain/auth"
	"github.com/target/webui-auth/internal/ports"
)

// Store is an observable container for the current session.
//
// SetAuthenticated and ClearSession additionally write through to the
// durable token storage, so the persisted token always mirrors the
// in-memory one. Storage failures are logged and do not fail the
// mutation; mutations themselves are total.
type Store struct {
	mu        sync.Mutex
	user      *domainauth.User
	token     string
	loading   bool
	errMsg    string
	observers map[int]func(domainauth.Snapshot)
	nextObs   int

	tokens ports.TokenStorage
	logger *slog.Logger
}

// New creates an empty, unauthenticated session store. tokens may be
// nil when persistence is not wanted (tests).
func New(tokens ports.TokenStorage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		observers: make(map[int]func(domainauth.Snapshot)),
		tokens:    tokens,
		logger:    logger,
	}
}

// Snapshot returns a copy of the current session state.
func (s *Store) Snapshot() domainauth.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() domainauth.Snapshot {
	snap := domainauth.Snapshot{
		Token:           s.token,
		IsAuthenticated: s.user != nil && s.token != "",
		IsLoading:       s.loading,
		Err:             s.errMsg,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// Subscribe registers an observer invoked synchronously after every
// mutation. Observers must not mutate the store re-entrantly. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(domainauth.Snapshot)) func() {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// notifyLocked snapshots the observer set and state under the lock,
// then delivers outside it so observers can read the store.
func (s *Store) notify(snap domainauth.Snapshot, fns []func(domainauth.Snapshot)) {
	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) observerList() []func(domainauth.Snapshot) {
	fns := make([]func(domainauth.Snapshot), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	return fns
}

// BeginLoading marks an auth operation as in flight and clears any
// stale error, matching the pending transition of every flow.
func (s *Store) BeginLoading() {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	snap, fns := s.snapshotLocked(), s.observerList()
	s.mu.Unlock()
	s.notify(snap, fns)
}

// EndLoading clears the in-flight flag. Operations call it on every
// exit path, success or failure.
func (s *Store) EndLoading() {
	s.mu.Lock()
	s.loading = false
	snap, fns := s.snapshotLocked(), s.observerList()
	s.mu.Unlock()
	s.notify(snap, fns)
}

// SetAuthenticated installs the authenticated user and token and
// persists the token. Clears any previous error.
func (s *Store) SetAuthenticated(user domainauth.User, token string) {
	s.mu.Lock()
	u := user
	s.user = &u
	s.token = token
	s.errMsg = ""
	snap, fns := s.snapshotLocked(), s.observerList()
	s.mu.Unlock()

	if s.tokens != nil {
		if err := s.tokens.Save(token); err != nil {
			s.logger.Error("persist token failed", "error", err)
		}
	}
	s.notify(snap, fns)
}

// SetError records a user-facing error message and stops loading.
func (s *Store) SetError(message string) {
	s.mu.Lock()
	s.errMsg = message
	s.loading = false
	snap, fns := s.snapshotLocked(), s.observerList()
	s.mu.Unlock()
	s.notify(snap, fns)
}

// ClearError removes the last error without touching anything else.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	snap, fns := s.snapshotLocked(), s.observerList()
	s.mu.Unlock()
	s.notify(snap, fns)
}

// ClearSession resets the store to the unauthenticated state and
// removes the persisted token. Safe to call when already logged out.
func (s *Store) ClearSession() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.errMsg = ""
	snap, fns := s.snapshotLocked(), s.observerList()
	s.mu.Unlock()

	if s.tokens != nil {
		if err := s.tokens.Clear(); err != nil {
			s.logger.Error("clear persisted token failed", "error", err)
		}
	}
	s.notify(snap, fns)
}

// PatchUser merges non-zero fields of the partial user into the current
// one. No-op when no user is present. Role and ID are not patchable.
func (s *Store) PatchUser(partial domainauth.User) {
	s.mu.Lock()
	if s.user != nil {
		if partial.Email != "" {
			s.user.Email = partial.Email
		}
		if partial.DisplayName != "" {
			s.user.DisplayName = partial.DisplayName
		}
		if partial.PhotoURL != "" {
			s.user.PhotoURL = partial.PhotoURL
		}
		if !partial.UpdatedAt.IsZero() {
			s.user.UpdatedAt = partial.UpdatedAt
		}
	}
	snap, fns := s.snapshotLocked(), s.observerList()
	s.mu.Unlock()
	s.notify(snap, fns)
}
