package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FingerprintLoader computes the fingerprints of every stored document.
type FingerprintLoader interface {
	LoadFingerprints(ctx context.Context, collection string) ([]string, error)
}

// FingerprintIndex caches fingerprint sets per collection with a TTL so
// back-to-back imports avoid rescanning the store. A zero TTL disables the
// cache and every snapshot rescans. Record and Invalidate bump a per
// collection generation; a rebuild that saw the generation change while
// loading returns its keys without caching them.
type FingerprintIndex struct {
	loader FingerprintLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.Mutex
	cache map[string]cachedSet
	gen   map[string]uint64
}

type cachedSet struct {
	keys      map[string]struct{}
	expiresAt time.Time
}

func NewFingerprintIndex(loader FingerprintLoader, ttl time.Duration) *FingerprintIndex {
	return &FingerprintIndex{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
		gen:    make(map[string]uint64),
	}
}

// Snapshot returns a private copy of the collection's fingerprints.
func (f *FingerprintIndex) Snapshot(ctx context.Context, collection string) (map[string]struct{}, error) {
	if keys, ok := f.cached(collection); ok {
		return keys, nil
	}

	result, err, _ := f.sf.Do(collection, func() (interface{}, error) {
		if keys, ok := f.cached(collection); ok {
			return keys, nil
		}
		f.mu.Lock()
		gen := f.gen[collection]
		f.mu.Unlock()

		loaded, err := f.loader.LoadFingerprints(ctx, collection)
		if err != nil {
			return nil, err
		}
		keys := make(map[string]struct{}, len(loaded))
		for _, k := range loaded {
			keys[k] = struct{}{}
		}
		snapshot := copySet(keys)
		if f.ttl > 0 {
			f.mu.Lock()
			if f.gen[collection] == gen {
				f.cache[collection] = cachedSet{keys: keys, expiresAt: f.clock().Add(f.ttlWithJitter())}
			}
			f.mu.Unlock()
		}
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	// singleflight shares one result between callers; each gets its own copy.
	return copySet(result.(map[string]struct{})), nil
}

// Record adds key to a cached set; uncached collections pick it up on the next load.
func (f *FingerprintIndex) Record(_ context.Context, collection, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen[collection]++
	if entry, ok := f.cache[collection]; ok {
		entry.keys[key] = struct{}{}
	}
	return nil
}

func (f *FingerprintIndex) Invalidate(_ context.Context, collection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen[collection]++
	delete(f.cache, collection)
	return nil
}

func (f *FingerprintIndex) cached(collection string) (map[string]struct{}, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.cache[collection]
	if !ok || !entry.expiresAt.After(f.clock()) {
		return nil, false
	}
	return copySet(entry.keys), true
}

// ttlWithJitter must be called with f.mu held.
func (f *FingerprintIndex) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(f.ttl) / 10
	return f.ttl + time.Duration(f.rnd.Int63n(jitterMax+1))
}

func copySet(keys map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(keys))
	for k := range keys {
		out[k] = struct{}{}
	}
	return out
}
