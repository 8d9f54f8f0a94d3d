// OpenRDAP
// Copyright 2017 Tom Harwood
// MIT License, see the LICENSE file.

package cache

import (
	"fmt"
	"sync"
	"time"
)

// MemoryCache is the default in-process RegistryCache: registry files
// live only as long as the Client that owns them.
type MemoryCache struct {
	Timeout time.Duration

	mu    sync.Mutex
	cache map[string][]byte
	mtime map[string]time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache:   make(map[string][]byte),
		mtime:   make(map[string]time.Time),
		Timeout: time.Hour * 24,
	}
}

func (m *MemoryCache) SetTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Timeout = timeout
}

func (m *MemoryCache) Save(filename string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache[filename] = append([]byte(nil), data...)
	m.mtime[filename] = time.Now()

	return nil
}

func (m *MemoryCache) Load(filename string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.cache[filename]
	if !ok {
		return nil, fmt.Errorf("cache: %s not present", filename)
	}

	return append([]byte(nil), data...), nil
}

func (m *MemoryCache) State(filename string) FileState {
	m.mu.Lock()
	defer m.mu.Unlock()

	mtime, ok := m.mtime[filename]
	if !ok {
		return Absent
	}

	if mtime.Add(m.Timeout).Before(time.Now()) {
		return Expired
	}

	return Good
}
