package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const jsonFile = "state.json"

// JSONStore keeps the world in a plain JSON file, replaced atomically on
// every save. It does not guard against other processes.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONStore creates a JSONStore backed by the file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load implements Store.
func (s *JSONStore) Load(ctx context.Context) (*World, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Update implements Store.
func (s *JSONStore) Update(ctx context.Context, fn func(*World) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		return err
	}
	return s.write(w)
}

// Close implements Store.
func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) read() (*World, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return NewWorld(), nil
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func (s *JSONStore) write(w *World) error {
	data, err := encode(w)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}
