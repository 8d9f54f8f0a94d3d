package rcache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultMaxSize is used when a caller passes maxSize<=0.
const defaultMaxSize = 4096

// MemoryBackend is the size-capped, O(1) get/set in-memory backend of
// §4.9: an LRU with eviction on insertion past the cap.
type MemoryBackend[V any] struct {
	lru *lru.Cache[string, entry[V]]
}

// NewMemoryBackend creates a MemoryBackend holding at most maxSize
// entries. maxSize<=0 falls back to defaultMaxSize.
func NewMemoryBackend[V any](maxSize int) *MemoryBackend[V] {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}

	c, err := lru.New[string, entry[V]](maxSize)
	if err != nil {
		// Only returned by golang-lru for a non-positive size, which
		// is already excluded above.
		panic(err)
	}

	return &MemoryBackend[V]{lru: c}
}

func (m *MemoryBackend[V]) get(key string) (entry[V], bool) {
	return m.lru.Get(key)
}

func (m *MemoryBackend[V]) set(key string, e entry[V]) {
	m.lru.Add(key, e)
}

func (m *MemoryBackend[V]) close() error {
	return nil
}

// Len reports the number of entries currently held.
func (m *MemoryBackend[V]) Len() int {
	return m.lru.Len()
}
