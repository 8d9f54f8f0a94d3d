// OpenRDAP
// Copyright 2017 Tom Harwood
// MIT License, see the LICENSE file.

package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	homedir "github.com/mitchellh/go-homedir"
)

const (
	// DefaultCacheDirName is the persistent cache directory created
	// under the user's home directory.
	DefaultCacheDirName = ".rdapify"
)

// DiskCache persists registry files under Dir (default
// $HOME/.rdapify), shared across process restarts and multiple
// Clients on the same host.
type DiskCache struct {
	Timeout time.Duration
	Dir     string

	mu                sync.Mutex
	lastLoadedModTime map[string]time.Time
}

func NewDiskCache() *DiskCache {
	d := &DiskCache{
		lastLoadedModTime: make(map[string]time.Time),
		Timeout:           time.Hour * 24,
	}

	dir, err := homedir.Dir()
	if err != nil {
		panic("rdapify: can't determine home directory for disk cache")
	}

	d.Dir = filepath.Join(dir, DefaultCacheDirName)

	return d
}

func (d *DiskCache) InitDir() error {
	fileInfo, err := os.Stat(d.Dir)
	if err == nil {
		if fileInfo.IsDir() {
			return nil
		}
		return errors.New("cache dir is not a directory")
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(d.Dir, 0775)
	}
	return err
}

func (d *DiskCache) SetTimeout(timeout time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Timeout = timeout
}

func (d *DiskCache) Save(filename string, data []byte) error {
	if err := d.InitDir(); err != nil {
		return err
	}

	if err := os.WriteFile(d.cacheDirPath(filename), data, 0664); err != nil {
		return err
	}

	fileModTime, err := d.modTime(filename)
	if err != nil {
		return fmt.Errorf("file %s failed to save correctly: %w", filename, err)
	}

	d.mu.Lock()
	d.lastLoadedModTime[filename] = fileModTime
	d.mu.Unlock()

	return nil
}

func (d *DiskCache) Load(filename string) ([]byte, error) {
	if err := d.InitDir(); err != nil {
		return nil, err
	}

	fileModTime, err := d.modTime(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to load %s: %w", filename, err)
	}

	data, err := os.ReadFile(d.cacheDirPath(filename))
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.lastLoadedModTime[filename] = fileModTime
	d.mu.Unlock()

	return data, nil
}

func (d *DiskCache) State(filename string) FileState {
	if err := d.InitDir(); err != nil {
		return Absent
	}

	expiry := time.Now().Add(-d.Timeout)
	state := Absent

	fileModTime, err := d.modTime(filename)
	if err == nil {
		if fileModTime.After(expiry) {
			state = ShouldReload

			d.mu.Lock()
			lastLoadedModTime, haveLoaded := d.lastLoadedModTime[filename]
			d.mu.Unlock()

			if haveLoaded && !fileModTime.After(lastLoadedModTime) {
				state = Good
			}
		} else {
			state = Expired
		}
	}

	return state
}

func (d *DiskCache) modTime(filename string) (time.Time, error) {
	fileInfo, err := os.Stat(d.cacheDirPath(filename))
	if err != nil {
		return time.Time{}, err
	}
	return fileInfo.ModTime(), nil
}

func (d *DiskCache) cacheDirPath(filename string) string {
	return filepath.Join(d.Dir, filename)
}
