package allowancecache

import (
	"context"
	"errors"

	"github.com/cockroachdb/pebble"
)

// PebbleStore is the primary on-disk backend: an embedded LSM store, one
// database per wallet profile directory.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebble opens (creating if absent) a pebble database at dir.
func OpenPebble(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Get(_ context.Context, key []byte) ([]byte, error) {
	v, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	if cerr := closer.Close(); cerr != nil {
		return nil, cerr
	}
	return out, nil
}

func (s *PebbleStore) Put(_ context.Context, key, value []byte) error {
	return s.db.Set(key, value, pebble.Sync)
}

func (s *PebbleStore) Delete(_ context.Context, key []byte) error {
	return s.db.Delete(key, pebble.Sync)
}

func (s *PebbleStore) Close() error { return s.db.Close() }
