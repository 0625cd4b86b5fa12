package theme

// Package theme persists the light/dark preference. It shares the
// durable key-value storage with the session token but is otherwise
// unrelated to authentication.

import (
	"fmt"

	"github.com/target/webui-auth/internal/ports"
)

// Theme is the UI color scheme preference.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// storageKey is the fixed key the preference lives under.
const storageKey = "theme"

// Manager reads and writes the theme preference.
type Manager struct {
	storage ports.KeyValueStorage
}

// NewManager creates a theme manager over the shared storage.
func NewManager(storage ports.KeyValueStorage) *Manager {
	return &Manager{storage: storage}
}

// Current returns the stored preference, defaulting to Light when
// nothing valid is stored.
func (m *Manager) Current() Theme {
	value, ok, err := m.storage.Get(storageKey)
	if err != nil || !ok {
		return Light
	}
	switch Theme(value) {
	case Light, Dark:
		return Theme(value)
	default:
		return Light
	}
}

// Set stores the preference.
func (m *Manager) Set(t Theme) error {
	switch t {
	case Light, Dark:
	default:
		return fmt.Errorf("invalid theme %q", t)
	}
	return m.storage.Set(storageKey, string(t))
}

// Toggle flips the preference and returns the new value.
func (m *Manager) Toggle() (Theme, error) {
	next := Dark
	if m.Current() == Dark {
		next = Light
	}
	if err := m.Set(next); err != nil {
		return "", err
	}
	return next, nil
}

// IsDark reports whether the current preference is dark.
func (m *Manager) IsDark() bool {
	return m.Current() == Dark
}
