package tokenfile

// Package tokenfile provides file-backed durable key-value storage, the
// desktop analog of browser localStorage. One JSON object per file,
// written atomically via rename.

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/target/webui-auth/internal/ports"
)

// KeyToken is the fixed key the session token lives under.
const KeyToken = "token"

// KeyTheme is the fixed key the theme preference lives under. It shares
// the storage mechanism but is otherwise unrelated to the session.
const KeyTheme = "theme"

// Storage is a mutex-guarded key-value file. It implements both the
// fixed-key TokenStorage port and the general KeyValueStorage port.
type Storage struct {
	mu   sync.Mutex
	path string
}

var (
	_ ports.TokenStorage    = (*Storage)(nil)
	_ ports.KeyValueStorage = (*Storage)(nil)
)

// New creates a storage backed by the file at path. The file is created
// lazily on the first write; a missing file reads as empty.
func New(path string) (*Storage, error) {
	if path == "" {
		return nil, errors.New("storage path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Storage{path: path}, nil
}

func (s *Storage) Load() (string, bool, error) {
	return s.Get(KeyToken)
}

func (s *Storage) Save(token string) error {
	return s.Set(KeyToken, token)
}

func (s *Storage) Clear() error {
	return s.Delete(KeyToken)
}

func (s *Storage) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *Storage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

func (s *Storage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.write(values)
}

func (s *Storage) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("read storage file: %w", err)
	}
	values := make(map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parse storage file: %w", err)
		}
	}
	return values, nil
}

// write replaces the file contents atomically so a crash mid-write
// never leaves a torn file behind.
func (s *Storage) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write storage file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace storage file: %w", err)
	}
	return nil
}
