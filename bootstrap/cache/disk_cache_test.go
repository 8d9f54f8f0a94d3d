// OpenRDAP
// Copyright 2017 Tom Harwood
// MIT License, see the LICENSE file.

package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDiskCache(t *testing.T) {
	dir, err := os.MkdirTemp("", "rdapify-cache-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	d := NewDiskCache()
	d.Dir = filepath.Join(dir, DefaultCacheDirName)

	if err := d.InitDir(); err != nil {
		t.Fatalf("InitDir failed: %s", err)
	}

	if d.State("not-in-cache.json") != Absent {
		t.Fatal("State() returned non-Absent for non-existent file")
	}

	_, err = d.Load("not-in-cache.json")
	if err == nil {
		t.Fatal("Load of not-in-cache.json unexpectedly succeeded")
	}

	testData := []byte("test")

	if err := d.Save("file.json", testData); err != nil {
		t.Fatalf("Save failed: %s", err)
	}

	data, err := d.Load("file.json")
	if err != nil {
		t.Fatalf("Load failed: %s", err)
	}
	if !bytes.Equal(data, testData) {
		t.Fatalf("Load returned %q, want %q", data, testData)
	}

	if d.State("file.json") != Good {
		t.Fatal("State() returned non-Good for hot cache")
	}

	d.SetTimeout(0)
	time.Sleep(time.Millisecond)

	if d.State("file.json") != Expired {
		t.Fatal("State() returned non-Expired for stale cache")
	}
}
