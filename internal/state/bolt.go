package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const boltFile = "state.db"

var (
	// Bucket holds the world document.
	Bucket   = []byte("w3bond")
	worldKey = []byte("world")
)

// BoltStore keeps the world in a bbolt file. bbolt's file lock serialises
// concurrent CLI processes; Update runs inside a single write transaction.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens (creating if needed) the bbolt file at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("could not create dir for state: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(Bucket); err != nil {
			return fmt.Errorf("could not create root bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Load implements Store.
func (s *BoltStore) Load(ctx context.Context) (*World, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var w *World
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		w, err = decode(tx.Bucket(Bucket).Get(worldKey))
		return err
	})
	return w, err
}

// Update implements Store.
func (s *BoltStore) Update(ctx context.Context, fn func(*World) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		w, err := decode(b.Get(worldKey))
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
		return b.Put(worldKey, data)
	})
}

// Close implements Store.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
