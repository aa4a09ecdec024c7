package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// loadedMarker is stored in every rebuilt set so an empty collection still
// reads as cached. Fingerprints always contain "::", so it cannot collide.
const loadedMarker = "#loaded"

// recordScript bumps the generation and adds a member only while the set
// exists; a missing set is rebuilt in full on the next snapshot instead.
var recordScript = redis.NewScript(`
redis.call("INCR", KEYS[2])
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("SADD", KEYS[1], ARGV[1])
end
return 0
`)

// errStaleRebuild marks a rebuild whose load raced a Record or Invalidate.
var errStaleRebuild = errors.New("fingerprint set changed during rebuild")

// FingerprintLoader computes the fingerprints of every stored document.
type FingerprintLoader interface {
	LoadFingerprints(ctx context.Context, collection string) ([]string, error)
}

// FingerprintIndex shares fingerprint sets between service instances.
// Sets are stored as: SADD fingerprints:{collection} {key}...
// A missing set is rebuilt from the loader and expires after the TTL.
// Record and Invalidate INCR fingerprints:{collection}:gen; a rebuild writes
// its set only if the generation it read before loading is still current.
type FingerprintIndex struct {
	client *redis.Client
	loader FingerprintLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewFingerprintIndex(client *redis.Client, loader FingerprintLoader, ttl time.Duration) *FingerprintIndex {
	return &FingerprintIndex{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (f *FingerprintIndex) Snapshot(ctx context.Context, collection string) (map[string]struct{}, error) {
	key := f.setKey(collection)
	if members, err := f.client.SMembers(ctx, key).Result(); err == nil && len(members) > 0 {
		return toSet(members), nil
	}

	result, err, _ := f.sf.Do(collection, func() (interface{}, error) {
		// Re-check in case another instance rebuilt the set meanwhile.
		if members, err := f.client.SMembers(ctx, key).Result(); err == nil && len(members) > 0 {
			return members, nil
		}

		gen, genErr := f.generation(ctx, f.client, f.genKey(collection))

		loaded, err := f.loader.LoadFingerprints(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("load fingerprints: %w", err)
		}

		// The store is authoritative; a skipped cache fill only costs a rebuild later.
		if genErr != nil {
			log.Printf("read fingerprint generation for %s: %v", collection, genErr)
		} else if err := f.store(ctx, collection, gen, loaded); err != nil {
			if errors.Is(err, errStaleRebuild) || errors.Is(err, redis.TxFailedErr) {
				log.Printf("skip caching fingerprints for %s: set changed while loading", collection)
			} else {
				log.Printf("cache fingerprints for %s: %v", collection, err)
			}
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return toSet(result.([]string)), nil
}

// store replaces the cached set with loaded, unless the generation moved
// past gen since the load started.
func (f *FingerprintIndex) store(ctx context.Context, collection string, gen int64, loaded []string) error {
	key, genKey := f.setKey(collection), f.genKey(collection)
	members := make([]interface{}, 0, len(loaded)+1)
	members = append(members, loadedMarker)
	for _, k := range loaded {
		members = append(members, k)
	}
	return f.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := f.generation(ctx, tx, genKey)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleRebuild
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SAdd(ctx, key, members...)
			if ttl := f.ttlWithJitter(); ttl > 0 {
				pipe.Expire(ctx, key, ttl)
			}
			return nil
		})
		return err
	}, genKey)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (f *FingerprintIndex) generation(ctx context.Context, c getter, genKey string) (int64, error) {
	gen, err := c.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (f *FingerprintIndex) Record(ctx context.Context, collection, key string) error {
	return recordScript.Run(ctx, f.client, []string{f.setKey(collection), f.genKey(collection)}, key).Err()
}

func (f *FingerprintIndex) Invalidate(ctx context.Context, collection string) error {
	pipe := f.client.TxPipeline()
	pipe.Incr(ctx, f.genKey(collection))
	pipe.Del(ctx, f.setKey(collection))
	_, err := pipe.Exec(ctx)
	return err
}

func (f *FingerprintIndex) setKey(collection string) string {
	return "fingerprints:" + collection
}

func (f *FingerprintIndex) genKey(collection string) string {
	return "fingerprints:" + collection + ":gen"
}

func toSet(members []string) map[string]struct{} {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		if m != loadedMarker {
			set[m] = struct{}{}
		}
	}
	return set
}

func (f *FingerprintIndex) ttlWithJitter() time.Duration {
	if f.ttl <= 0 {
		return 0
	}
	f.rndMu.Lock()
	defer f.rndMu.Unlock()
	jitterMax := int64(f.ttl) / 10
	return f.ttl + time.Duration(f.rnd.Int63n(jitterMax+1))
}
