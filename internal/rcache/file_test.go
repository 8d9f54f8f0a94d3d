package rcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rdapify/rdapify/internal/rlog"
)

func TestFileBackendPersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	f1 := NewFileBackend[testResponse](path, 8, 0, rlog.Nop())
	c1 := New[testResponse](f1, DefaultTTLConfig())

	key := Key{Class: ClassDomain, Normalized: "persist.example"}
	c1.Set(key, testResponse{Handle: "P"}, time.Hour)

	if err := c1.Close(); err != nil {
		t.Fatalf("Close() error: %s", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected snapshot file to exist: %s", err)
	}

	f2 := NewFileBackend[testResponse](path, 8, 0, rlog.Nop())
	c2 := New[testResponse](f2, DefaultTTLConfig())
	defer c2.Close()

	v, ok := c2.Get(key)
	if !ok {
		t.Fatal("expected entry to survive restart")
	}
	if v.Handle != "P" {
		t.Fatalf("got %+v", v)
	}
}

func TestFileBackendDiscardsExpiredOnLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	f1 := NewFileBackend[testResponse](path, 8, 0, rlog.Nop())
	c1 := New[testResponse](f1, DefaultTTLConfig())
	c1.Set(Key{Class: ClassDomain, Normalized: "stale.example"}, testResponse{Handle: "S"}, -time.Second)
	if err := c1.Close(); err != nil {
		t.Fatal(err)
	}

	f2 := NewFileBackend[testResponse](path, 8, 0, rlog.Nop())
	defer f2.close()

	if _, ok := f2.get(Key{Class: ClassDomain, Normalized: "stale.example"}.String()); ok {
		t.Fatal("expired entry should not have been loaded from snapshot")
	}
}

func TestFileBackendDiscardsCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	if err := os.WriteFile(path, []byte("{not valid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewFileBackend[testResponse](path, 8, 0, rlog.Nop())
	defer f.close()

	if f.mem.Len() != 0 {
		t.Fatalf("expected empty cache after corrupt snapshot, got %d entries", f.mem.Len())
	}
}

func TestFileBackendSnapshotsPeriodically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	f := NewFileBackend[testResponse](path, 8, 10*time.Millisecond, rlog.Nop())
	c := New[testResponse](f, DefaultTTLConfig())
	c.Set(Key{Class: ClassASN, Normalized: "1"}, testResponse{Handle: "A"}, time.Hour)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for periodic snapshot")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}
