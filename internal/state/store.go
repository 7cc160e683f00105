package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
)

// Backends.
const (
	BackendBolt   = "bolt"
	BackendJSON   = "json"
	BackendMemory = "memory"
)

// ErrUnknownBackend is returned by Open for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown state backend")

// Store loads and saves the World.
type Store interface {
	// Load returns a copy of the stored world (empty if nothing is stored).
	Load(ctx context.Context) (*World, error)
	// Update loads the world, runs fn and saves the result atomically. If fn
	// fails nothing is saved.
	Update(ctx context.Context, fn func(*World) error) error
	Close() error
}

// Open returns the store for backend inside dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", BackendBolt:
		return OpenBolt(filepath.Join(dir, boltFile))
	case BackendJSON:
		return NewJSONStore(filepath.Join(dir, jsonFile)), nil
	case BackendMemory:
		return NewMemStore(), nil
	default:
		return nil, fmt.Errorf("%w %q: use bolt or json", ErrUnknownBackend, backend)
	}
}

func decode(data []byte) (*World, error) {
	if len(data) == 0 {
		return NewWorld(), nil
	}
	var w World
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	if err := w.check(); err != nil {
		return nil, err
	}
	return &w, nil
}

func encode(w *World) ([]byte, error) {
	w.Version = Version
	return json.MarshalIndent(w, "", "  ")
}

// --- in-memory ---

// MemStore keeps the encoded world in memory.
type MemStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load implements Store.
func (s *MemStore) Load(ctx context.Context) (*World, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return decode(s.data)
}

// Update implements Store.
func (s *MemStore) Update(ctx context.Context, fn func(*World) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := decode(s.data)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		return err
	}
	data, err := encode(w)
	if err != nil {
		return err
	}
	s.data = data
	return nil
}

// Close implements Store.
func (s *MemStore) Close() error { return nil }
