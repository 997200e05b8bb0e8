// Package allowancecache implements AllowanceCacheStore: the durable,
// read-through, chain-keyed JSON cache described in spec.md §4.3 and §6.
// Storage is abstracted behind KeyValueStore so the scanner can run on
// either of the two embedded engines the rest of the example pack
// depends on (pebble, goleveldb), with an in-memory fastcache layer in
// front of both for the hot path of repeated discover() calls.
package allowancecache

import "context"

// KeyValueStore is the narrow byte-oriented interface every storage
// backend implements, mirroring the small-interface composition style of
// ethclient/simulated's Client (BlockNumberReader, LogFilterer, ...).
type KeyValueStore interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Put(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	Close() error
}

// ErrNotFound is returned by Get when key is absent. Backends must
// normalize their own not-found sentinel (pebble.ErrNotFound,
// leveldb.ErrNotFound) to this value so callers never import a backend
// package just to compare errors.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "allowancecache: key not found" }
