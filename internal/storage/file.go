// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/jeranaias/chatspaces/internal/util"
)

const (
	fileExt = ".json"

	// selfWriteWindow is how long events for a key we just wrote are ignored.
	selfWriteWindow = time.Second
)

// =============================================================================
// FILE BACKEND
// =============================================================================

// FileBackend stores each key as <dir>/<escaped key>.json.
type FileBackend struct {
	dir    string
	logger zerolog.Logger

	mu        sync.Mutex
	quota     *quota
	selfWrite map[string]time.Time
	closed    bool
}

// NewFileBackend opens (creating if needed) <dataDir>/store.
func NewFileBackend(dataDir string, quotaBytes int64, logger zerolog.Logger) (*FileBackend, error) {
	if dataDir == "" {
		return nil, errors.New("file backend requires a data directory")
	}
	dir := filepath.Join(dataDir, "store")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	b := &FileBackend{
		dir:       dir,
		logger:    logger,
		quota:     newQuota(quotaBytes),
		selfWrite: make(map[string]time.Time),
	}
	if err := b.scan(); err != nil {
		return nil, err
	}
	return b, nil
}

// Dir returns the directory holding the key files.
func (b *FileBackend) Dir() string {
	return b.dir
}

// scan seeds quota accounting from files already on disk.
func (b *FileBackend) scan() error {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return fmt.Errorf("read store directory: %w", err)
	}
	for _, e := range entries {
		key, ok := keyFromFile(e.Name())
		if !ok || e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		b.quota.set(key, int(info.Size()))
	}
	return nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, url.PathEscape(key)+fileExt)
}

// keyFromFile maps a file name back to its key. Temp files are skipped.
func keyFromFile(name string) (string, bool) {
	if strings.HasPrefix(name, util.TempFilePrefix) || !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

// Get implements Backend.
func (b *FileBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put implements Backend.
func (b *FileBackend) Put(ctx context.Context, key string, value []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if err := b.quota.check(key, len(value)); err != nil {
		return err
	}

	b.selfWrite[key] = time.Now()
	if err := util.AtomicWriteFile(b.path(key), value, 0600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	b.quota.set(key, len(value))
	return nil
}

// Delete implements Backend.
func (b *FileBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	b.selfWrite[key] = time.Now()
	if err := os.Remove(b.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	b.quota.remove(key)
	return nil
}

// Keys implements Backend.
func (b *FileBackend) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("read store directory: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if key, ok := keyFromFile(e.Name()); ok && !e.IsDir() {
			keys = append(keys, key)
		}
	}
	sortStrings(keys)
	return keys, nil
}

// Usage implements Backend.
func (b *FileBackend) Usage() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.quota.total
}

// Close implements Backend.
func (b *FileBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// =============================================================================
// WATCH
// =============================================================================

// Watch reports keys changed by other processes until ctx is done. Changes
// made through this backend are suppressed. The channel is closed when the
// watch ends.
func (b *FileBackend) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(b.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", b.dir, err)
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				key, ok := keyFromFile(filepath.Base(event.Name))
				if !ok || b.ownWrite(key) {
					continue
				}
				b.refresh(key)
				select {
				case out <- key:
				default:
					b.logger.Debug().Str("key", key).Msg("watch channel full, change dropped")
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				b.logger.Warn().Err(err).Msg("store watcher error")
			}
		}
	}()
	return out, nil
}

func (b *FileBackend) ownWrite(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	at, ok := b.selfWrite[key]
	if !ok {
		return false
	}
	if time.Since(at) > selfWriteWindow {
		delete(b.selfWrite, key)
		return false
	}
	return true
}

// refresh re-reads the on-disk size of key after an external change.
func (b *FileBackend) refresh(key string) {
	info, err := os.Stat(b.path(key))

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.quota.remove(key)
		return
	}
	b.quota.set(key, int(info.Size()))
}

func sortStrings(s []string) {
	sort.Strings(s)
}
