package rcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rdapify/rdapify/internal/rlog"
)

// FileBackend layers disk snapshotting on top of a MemoryBackend: the
// same LRU semantics in memory, plus periodic and shutdown snapshots
// to Path, loaded back on construction. Writes are atomic (temp file +
// rename); a corrupt snapshot is logged and discarded, starting empty.
type FileBackend[V any] struct {
	mem  *MemoryBackend[V]
	path string
	log  rlog.Logger

	mu       sync.Mutex
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// snapshotRecord is one element of the on-disk representation: a flat
// list so the format doesn't depend on map iteration order.
type snapshotRecord[V any] struct {
	Key   string  `json:"key"`
	Entry entry[V] `json:"entry"`
}

// NewFileBackend creates a FileBackend persisting to path, snapshotting
// every interval (0 disables periodic snapshots; callers should still
// call Close on shutdown to flush a final snapshot). It attempts to
// load an existing snapshot from path immediately.
func NewFileBackend[V any](path string, maxSize int, interval time.Duration, log rlog.Logger) *FileBackend[V] {
	f := &FileBackend[V]{
		mem:  NewMemoryBackend[V](maxSize),
		path: path,
		log:  log,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	f.load()

	if interval > 0 {
		go f.runSnapshotter(interval)
	} else {
		close(f.done)
	}

	return f
}

func (f *FileBackend[V]) get(key string) (entry[V], bool) {
	return f.mem.get(key)
}

func (f *FileBackend[V]) set(key string, e entry[V]) {
	f.mem.set(key, e)
}

func (f *FileBackend[V]) close() error {
	f.stopOnce.Do(func() { close(f.stop) })
	<-f.done
	return f.snapshot()
}

func (f *FileBackend[V]) runSnapshotter(interval time.Duration) {
	defer close(f.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := f.snapshot(); err != nil && !f.log.Disabled() {
				f.log.Warn("cache snapshot failed", err, map[string]string{"path": f.path})
			}
		case <-f.stop:
			return
		}
	}
}

// snapshot writes the current entries to f.path atomically: a temp
// file in the same directory is written and fsynced, then renamed
// over the target.
func (f *FileBackend[V]) snapshot() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := f.mem.lru.Keys()
	records := make([]snapshotRecord[V], 0, len(keys))
	for _, k := range keys {
		if e, ok := f.mem.lru.Peek(k); ok {
			records = append(records, snapshotRecord[V]{Key: k, Entry: e})
		}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("rcache: marshal snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".rcache-snapshot-*")
	if err != nil {
		return fmt.Errorf("rcache: create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("rcache: write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("rcache: sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rcache: close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rcache: rename snapshot into place: %w", err)
	}

	return nil
}

func (f *FileBackend[V]) load() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return // absent snapshot: start empty
	}

	var records []snapshotRecord[V]
	if err := json.Unmarshal(data, &records); err != nil {
		if !f.log.Disabled() {
			f.log.Warn("discarding corrupt cache snapshot", err, map[string]string{"path": f.path})
		}
		return
	}

	now := time.Now()
	for _, r := range records {
		if r.Entry.expired(now) {
			continue
		}
		f.mem.set(r.Key, r.Entry)
	}
}
