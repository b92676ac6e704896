// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned by Get when the key holds no value.
	ErrNotFound = errors.New("storage: key not found")

	// ErrQuotaExceeded is returned by Put when the write would take the
	// backend over its byte quota. The previous value is left untouched.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")

	// ErrClosed is returned by operations on a closed backend.
	ErrClosed = errors.New("storage: backend closed")

	// ErrInvalidKey is returned for empty keys.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// =============================================================================
// BACKEND
// =============================================================================

// DefaultQuotaBytes matches the usual browser local-storage allowance.
const DefaultQuotaBytes = 5 * 1024 * 1024

// Well-known keys.
const (
	KeyChatrooms    = "chatrooms"
	KeyWelcomeShown = "welcome_shown"
	KeyAuth         = "auth"
)

// Backend is a byte-oriented key/value store.
type Backend interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the value for key in one atomic step.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists stored keys in lexical order.
	Keys(ctx context.Context) ([]string, error)

	// Usage reports the bytes counted against the quota.
	Usage() int64

	// Close releases resources.
	Close() error
}

// Kind names a backend implementation.
type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindMemory Kind = "memory"
)

// Options configures Open.
type Options struct {
	Kind       Kind
	Dir        string // data directory; unused by the memory backend
	QuotaBytes int64  // 0 means DefaultQuotaBytes, negative disables the quota
	Logger     zerolog.Logger
}

// Open creates the backend described by opts.
func Open(opts Options) (Backend, error) {
	quota := opts.QuotaBytes
	if quota == 0 {
		quota = DefaultQuotaBytes
	}
	logger := opts.Logger.With().Str("component", "storage").Str("backend", string(opts.Kind)).Logger()

	switch Kind(strings.ToLower(string(opts.Kind))) {
	case KindFile, "":
		return NewFileBackend(opts.Dir, quota, logger)
	case KindSQLite:
		return NewSQLiteBackend(opts.Dir, quota, logger)
	case KindMemory:
		return NewMemoryBackend(quota), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Kind)
	}
}

// GetJSON decodes the value under key into v.
func GetJSON(ctx context.Context, b Backend, key string, v any) error {
	data, err := b.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// PutJSON encodes v and stores it under key.
func PutJSON(ctx context.Context, b Backend, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return b.Put(ctx, key, data)
}

// =============================================================================
// QUOTA ACCOUNTING
// =============================================================================

// quota tracks bytes per key. A key's cost is len(key)+len(value). Callers
// hold their own lock.
type quota struct {
	limit int64
	sizes map[string]int64
	total int64
}

func newQuota(limit int64) *quota {
	return &quota{limit: limit, sizes: make(map[string]int64)}
}

func entryCost(key string, valueLen int) int64 {
	return int64(len(key) + valueLen)
}

// check reports ErrQuotaExceeded if storing valueLen bytes under key would
// exceed the limit.
func (q *quota) check(key string, valueLen int) error {
	if q.limit < 0 {
		return nil
	}
	next := q.total - q.sizes[key] + entryCost(key, valueLen)
	if next > q.limit {
		return fmt.Errorf("%w: %s needs %d bytes, limit %d", ErrQuotaExceeded, key, next, q.limit)
	}
	return nil
}

func (q *quota) set(key string, valueLen int) {
	q.total -= q.sizes[key]
	cost := entryCost(key, valueLen)
	q.sizes[key] = cost
	q.total += cost
}

func (q *quota) remove(key string) {
	q.total -= q.sizes[key]
	delete(q.sizes, key)
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}

// =============================================================================
// MEMORY BACKEND
// =============================================================================

// MemoryBackend keeps values in a map.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
	quota  *quota
	closed bool
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(quotaBytes int64) *MemoryBackend {
	if quotaBytes == 0 {
		quotaBytes = DefaultQuotaBytes
	}
	return &MemoryBackend{
		values: make(map[string][]byte),
		quota:  newQuota(quotaBytes),
	}
}

// Get implements Backend.
func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put implements Backend.
func (m *MemoryBackend) Put(_ context.Context, key string, value []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if err := m.quota.check(key, len(value)); err != nil {
		return err
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored
	m.quota.set(key, len(value))
	return nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.values, key)
	m.quota.remove(key)
	return nil
}

// Keys implements Backend.
func (m *MemoryBackend) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sortStrings(keys)
	return keys, nil
}

// Usage implements Backend.
func (m *MemoryBackend) Usage() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.quota.total
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
