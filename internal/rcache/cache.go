// Package rcache implements the L2 response cache (§4.9): a keyed
// store of normalized, pre-redaction responses fronted by a
// single-flight guarantee so that concurrent lookups of the same key
// trigger at most one upstream fetch. Two backends share one
// interface: an in-memory LRU (memory.go) and a disk-snapshotting
// variant built on top of it (file.go).
package rcache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Class identifies the object class a cache key belongs to, matching
// the three RDAP query kinds. It is a plain string rather than an
// imported root-package type to keep this package import-cycle free.
type Class string

const (
	ClassDomain Class = "domain"
	ClassIP     Class = "ip"
	ClassASN    Class = "asn"
)

// Key identifies a cached entry: an object class plus its normalized
// query string (e.g. a lowercased, punycoded domain).
type Key struct {
	Class      Class
	Normalized string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Class, k.Normalized)
}

// TTLConfig holds the default time-to-live per object class.
type TTLConfig struct {
	Domain time.Duration
	IP     time.Duration
	ASN    time.Duration
}

// DefaultTTLConfig matches §4.9: domain 1h, ip 30m, asn 2h.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		Domain: time.Hour,
		IP:     30 * time.Minute,
		ASN:    2 * time.Hour,
	}
}

func (t TTLConfig) forClass(c Class) time.Duration {
	switch c {
	case ClassDomain:
		return t.Domain
	case ClassIP:
		return t.IP
	case ClassASN:
		return t.ASN
	default:
		return t.Domain
	}
}

// entry is the value actually stored by a Backend: the cached payload
// plus its absolute expiry.
type entry[V any] struct {
	Value  V
	Expiry time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return now.After(e.Expiry)
}

// Backend is the storage strategy behind a Cache: get/set/evict a raw
// entry by its string key, with no knowledge of TTL semantics or
// single-flight — those live in Cache.
type Backend[V any] interface {
	get(key string) (entry[V], bool)
	set(key string, e entry[V])
	// close flushes and releases any resources (e.g. a snapshot
	// ticker); memory-only backends no-op.
	close() error
}

// Cache is a generic response cache: V is the normalized response type
// stored by callers (kept generic so this package never needs to
// import the root package's response types).
type Cache[V any] struct {
	backend Backend[V]
	ttls    TTLConfig

	group singleflight.Group

	mu   sync.Mutex
	hits int64
	miss int64
}

// New wraps an existing Backend (a MemoryBackend or FileBackend) in a
// Cache applying the given TTL defaults.
func New[V any](backend Backend[V], ttls TTLConfig) *Cache[V] {
	return &Cache[V]{backend: backend, ttls: ttls}
}

// Get returns the cached value for key, or the zero value and false on
// a miss or expiry.
func (c *Cache[V]) Get(key Key) (V, bool) {
	e, ok := c.backend.get(key.String())

	c.mu.Lock()
	defer c.mu.Unlock()

	if !ok || e.expired(time.Now()) {
		c.miss++
		var zero V
		return zero, false
	}

	c.hits++
	return e.Value, true
}

// Set stores value under key with ttl (0 selects the class default).
func (c *Cache[V]) Set(key Key, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = c.ttls.forClass(key.Class)
	}

	c.backend.set(key.String(), entry[V]{Value: value, Expiry: time.Now().Add(ttl)})
}

// GetOrLoad implements the read-through, single-flight contract of
// §4.9 and the orchestrator's double-checked cache access of §4.12: a
// cache hit returns immediately; a miss serializes concurrent callers
// for the same key onto one loader call, re-checking the cache inside
// the critical section so a loader that lost the race never runs.
func (c *Cache[V]) GetOrLoad(key Key, ttl time.Duration, loader func() (V, error)) (value V, cacheHit bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	res, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		v, err := loader()
		if err != nil {
			return nil, err
		}

		c.Set(key, v, ttl)
		return v, nil
	})

	if err != nil {
		var zero V
		return zero, false, err
	}

	return res.(V), false, nil
}

// Stats reports cumulative hit/miss counts since construction.
type Stats struct {
	Hits   int64
	Misses int64
}

func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.miss}
}

// Close releases the underlying backend's resources (snapshot ticker,
// final flush for a FileBackend).
func (c *Cache[V]) Close() error {
	return c.backend.close()
}
