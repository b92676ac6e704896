// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/jeranaias/chatspaces/internal/model"
)

// LogKeyPrefix prefixes every chat-log key.
const LogKeyPrefix = "chatroom-"

// ErrCorruptLog is returned when a stored log cannot be decoded.
var ErrCorruptLog = errors.New("storage: corrupt chat log")

// LogKey returns the storage key for a chatroom's log.
func LogKey(chatroomID string) string {
	return LogKeyPrefix + chatroomID
}

// ChatroomIDFromKey is the inverse of LogKey.
func ChatroomIDFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, LogKeyPrefix) || len(key) == len(LogKeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, LogKeyPrefix), true
}

// =============================================================================
// LOG STORE
// =============================================================================

// LogStore reads and writes chat logs, caching decoded logs by chatroom id.
type LogStore struct {
	backend Backend
	cache   *lru.Cache
	logger  zerolog.Logger
}

// DefaultCacheSize is the number of decoded logs kept.
const DefaultCacheSize = 16

// NewLogStore wraps backend. cacheSize <= 0 uses DefaultCacheSize.
func NewLogStore(backend Backend, cacheSize int, logger zerolog.Logger) (*LogStore, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create log cache: %w", err)
	}
	return &LogStore{
		backend: backend,
		cache:   cache,
		logger:  logger.With().Str("component", "logstore").Logger(),
	}, nil
}

// Load returns the stored log for chatroomID. A missing log returns
// (nil, nil); an undecodable one returns ErrCorruptLog.
func (s *LogStore) Load(ctx context.Context, chatroomID string) ([]model.Message, error) {
	if cached, ok := s.cache.Get(chatroomID); ok {
		return model.CloneMessages(cached.([]model.Message)), nil
	}

	key := LogKey(chatroomID)
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var msgs []model.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptLog, key, err)
	}
	s.cache.Add(chatroomID, model.CloneMessages(msgs))
	return msgs, nil
}

// Save replaces the stored log for chatroomID.
func (s *LogStore) Save(ctx context.Context, chatroomID string, msgs []model.Message) error {
	if msgs == nil {
		msgs = []model.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", LogKey(chatroomID), err)
	}
	if err := s.backend.Put(ctx, LogKey(chatroomID), data); err != nil {
		s.cache.Remove(chatroomID)
		return err
	}
	s.cache.Add(chatroomID, model.CloneMessages(msgs))
	s.logger.Debug().Str("chatroom_id", chatroomID).Int("count", len(msgs)).Int("bytes", len(data)).Msg("chat log saved")
	return nil
}

// Delete removes the stored log for chatroomID.
func (s *LogStore) Delete(ctx context.Context, chatroomID string) error {
	s.cache.Remove(chatroomID)
	return s.backend.Delete(ctx, LogKey(chatroomID))
}

// Invalidate drops any cached copy for a changed storage key.
func (s *LogStore) Invalidate(key string) {
	if id, ok := ChatroomIDFromKey(key); ok {
		s.cache.Remove(id)
	}
}

// Cached reports whether a decoded log for chatroomID is cached.
func (s *LogStore) Cached(chatroomID string) bool {
	return s.cache.Contains(chatroomID)
}
