package allowancecache

import (
	"context"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDBStore is the legacy backend kept for profiles that predate the
// pebble migration. MigrateToPebble copies every key across once and the
// caller retires this store afterwards.
type LevelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDB opens (creating if absent) a leveldb database at dir.
func OpenLevelDB(dir string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBStore{db: db}, nil
}

func (s *LevelDBStore) Get(_ context.Context, key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *LevelDBStore) Put(_ context.Context, key, value []byte) error {
	return s.db.Put(key, value, nil)
}

func (s *LevelDBStore) Delete(_ context.Context, key []byte) error {
	return s.db.Delete(key, nil)
}

func (s *LevelDBStore) Close() error { return s.db.Close() }

// MigrateToPebble copies every key in s into dst, used once when a wallet
// profile upgrades its storage engine. Pre-existing keys in dst with the
// same name are overwritten.
func MigrateToPebble(ctx context.Context, src *LevelDBStore, dst *PebbleStore) (int, error) {
	iter := src.db.NewIterator(nil, nil)
	defer iter.Release()

	n := 0
	for iter.Next() {
		key := append([]byte(nil), iter.Key()...)
		value := append([]byte(nil), iter.Value()...)
		if err := dst.Put(ctx, key, value); err != nil {
			return n, err
		}
		n++
	}
	if err := iter.Error(); err != nil {
		return n, err
	}
	return n, nil
}
