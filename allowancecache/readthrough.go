package allowancecache

import (
	"context"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/golang/snappy"
)

// ReadThrough wraps a KeyValueStore with an in-process fastcache, since
// repeated discover() calls within one browser session re-read the same
// chain sections far more often than they write them. Values are
// snappy-compressed before being placed in the in-memory cache so a large
// allowance list doesn't dominate the cache's fixed byte budget.
type ReadThrough struct {
	backend KeyValueStore
	mem     *fastcache.Cache
}

// NewReadThrough wraps backend with an in-memory cache sized maxBytes.
func NewReadThrough(backend KeyValueStore, maxBytes int) *ReadThrough {
	return &ReadThrough{
		backend: backend,
		mem:     fastcache.New(maxBytes),
	}
}

func (r *ReadThrough) Get(ctx context.Context, key []byte) ([]byte, error) {
	if compressed, ok := r.mem.HasGet(nil, key); ok {
		return snappy.Decode(nil, compressed)
	}
	v, err := r.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	r.mem.Set(key, snappy.Encode(nil, v))
	return v, nil
}

func (r *ReadThrough) Put(ctx context.Context, key, value []byte) error {
	if err := r.backend.Put(ctx, key, value); err != nil {
		return err
	}
	r.mem.Set(key, snappy.Encode(nil, value))
	return nil
}

func (r *ReadThrough) Delete(ctx context.Context, key []byte) error {
	if err := r.backend.Delete(ctx, key); err != nil {
		return err
	}
	r.mem.Del(key)
	return nil
}

func (r *ReadThrough) Close() error {
	r.mem.Reset()
	return r.backend.Close()
}
