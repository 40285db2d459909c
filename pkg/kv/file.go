package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	lockRetry   = 10 * time.Millisecond
	lockTimeout = 5 * time.Second
	// A lock file older than this was left behind by a crashed process.
	staleLock = 30 * time.Second
)

// File keeps every slot in a single JSON document on disk. Writes go through
// to disk immediately. Other processes may share the document: each write
// re-reads it under a lock file and replaces only the slot it touches, and
// reads pick up changes made since the last load.
type File struct {
	Entries map[string]string `json:"entries"`
	Path    string            `json:"-"`
	mu      sync.RWMutex
	dirty   bool
	modTime time.Time
	size    int64
}

func OpenFile(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("file storage path is required")
	}
	f := &File{
		Entries: make(map[string]string),
		Path:    filepath.Clean(path),
	}
	if _, err := os.Stat(f.Path); err == nil {
		if err := f.Load(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Load replaces the entries with the document on disk.
func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked()
}

func (f *File) loadLocked() error {
	file, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return err
	}
	var doc struct {
		Entries map[string]string `json:"entries"`
	}
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode %s: %w", f.Path, err)
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string]string)
	}
	f.Entries = doc.Entries
	f.modTime, f.size = info.ModTime(), info.Size()
	return nil
}

// refreshLocked reloads the document when another process has replaced it.
func (f *File) refreshLocked() error {
	info, err := os.Stat(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.ModTime().Equal(f.modTime) && info.Size() == f.size {
		return nil
	}
	return f.loadLocked()
}

// lock takes the lock file next to the document and returns its release.
func (f *File) lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0700); err != nil {
		return nil, err
	}
	name := f.Path + ".lock"
	deadline := time.Now().Add(lockTimeout)
	for {
		file, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			file.Close()
			return func() { os.Remove(name) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}
		if info, err := os.Stat(name); err == nil && time.Since(info.ModTime()) > staleLock {
			os.Remove(name)
			continue
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for %s", name)
		}
		time.Sleep(lockRetry)
	}
}

// Save writes the document if anything changed since the last save.
func (f *File) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dirty {
		return nil
	}
	unlock, err := f.lock()
	if err != nil {
		return err
	}
	defer unlock()
	return f.saveLocked()
}

func (f *File) saveLocked() error {
	if !f.dirty {
		return nil
	}

	// Write to a sibling file first so a crash never truncates the document.
	tmp := f.Path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(f); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return err
	}
	if info, err := os.Stat(f.Path); err == nil {
		f.modTime, f.size = info.ModTime(), info.Size()
	}
	f.dirty = false
	return nil
}

// update applies fn to the latest document on disk and writes it back.
func (f *File) update(fn func(entries map[string]string) bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	unlock, err := f.lock()
	if err != nil {
		return err
	}
	defer unlock()
	if err := f.refreshLocked(); err != nil {
		return err
	}
	if fn(f.Entries) {
		f.dirty = true
	}
	return f.saveLocked()
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.refreshLocked(); err != nil {
		return nil, false, err
	}
	v, ok := f.Entries[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	return f.update(func(entries map[string]string) bool {
		if old, ok := entries[key]; ok && old == string(value) {
			return false
		}
		entries[key] = string(value)
		return true
	})
}

func (f *File) Delete(_ context.Context, key string) error {
	return f.update(func(entries map[string]string) bool {
		if _, exists := entries[key]; !exists {
			return false
		}
		delete(entries, key)
		return true
	})
}

func (f *File) Close() error {
	return f.Save()
}
