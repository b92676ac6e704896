// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatroom

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/storage"
)

// Defaults for the message store.
const (
	DefaultPageSize   = 20
	DefaultPersistCap = 50
)

// StoreOptions configures a MessageStore.
type StoreOptions struct {
	PageSize   int // bootstrap page size
	PersistCap int // most recent entries written on Persist
	Logger     zerolog.Logger
}

// =============================================================================
// MESSAGE STORE
// =============================================================================

// MessageStore is the ordered, chronological message log of one chatroom.
// Only the most recent PersistCap entries are written to storage.
type MessageStore struct {
	chatroomID string
	logs       *storage.LogStore
	pageSize   int
	persistCap int
	logger     zerolog.Logger

	mu           sync.Mutex
	messages     []model.Message
	ids          map[string]struct{}
	bootstrapped bool
}

// NewMessageStore creates an empty store for chatroomID. A nil logs keeps the
// log in memory only.
func NewMessageStore(chatroomID string, logs *storage.LogStore, opts StoreOptions) *MessageStore {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PersistCap <= 0 {
		opts.PersistCap = DefaultPersistCap
	}
	return &MessageStore{
		chatroomID: chatroomID,
		logs:       logs,
		pageSize:   opts.PageSize,
		persistCap: opts.PersistCap,
		logger:     opts.Logger.With().Str("chatroom_id", chatroomID).Logger(),
		ids:        make(map[string]struct{}),
	}
}

// ChatroomID returns the chatroom this store belongs to.
func (s *MessageStore) ChatroomID() string {
	return s.chatroomID
}

// Load fills the store. A non-empty persisted log is used verbatim; otherwise
// the first page of the demo dataset is used and Bootstrapped reports true.
// A corrupt log is treated as absent. Other read failures also bootstrap but
// are returned so the caller can report them.
func (s *MessageStore) Load(ctx context.Context) ([]model.Message, error) {
	var persisted []model.Message
	var readErr error
	if s.logs != nil {
		persisted, readErr = s.logs.Load(ctx, s.chatroomID)
		if readErr != nil {
			if errors.Is(readErr, storage.ErrCorruptLog) {
				s.logger.Warn().Err(readErr).Msg("ignoring corrupt chat log")
				readErr = nil
			} else {
				s.logger.Warn().Err(readErr).Msg("could not read chat log")
			}
			persisted = nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(persisted) > 0 {
		s.setLocked(persisted)
		s.bootstrapped = false
	} else {
		s.setLocked(demoPages(1, s.pageSize))
		s.bootstrapped = true
	}
	return model.CloneMessages(s.messages), readErr
}

func (s *MessageStore) setLocked(msgs []model.Message) {
	s.messages = model.CloneMessages(msgs)
	s.ids = make(map[string]struct{}, len(msgs))
	for _, m := range s.messages {
		s.ids[m.ID] = struct{}{}
	}
}

// Bootstrapped reports whether the log was seeded from the demo dataset.
func (s *MessageStore) Bootstrapped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bootstrapped
}

// Append adds msg to the end of the log and persists. On a persistence
// failure the message stays in the log and a *model.PersistenceError is
// returned.
func (s *MessageStore) Append(ctx context.Context, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	s.ids[msg.ID] = struct{}{}
	return s.persistLocked(ctx)
}

// Persist writes the most recent entries to storage.
func (s *MessageStore) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *MessageStore) persistLocked(ctx context.Context) error {
	if s.logs == nil {
		return nil
	}
	if err := s.logs.Save(ctx, s.chatroomID, s.recentLocked()); err != nil {
		s.logger.Warn().Err(err).Msg("chat log not saved")
		return &model.PersistenceError{Key: storage.LogKey(s.chatroomID), Err: err}
	}
	return nil
}

// recentLocked returns a copy of the last persistCap entries.
func (s *MessageStore) recentLocked() []model.Message {
	msgs := s.messages
	if len(msgs) > s.persistCap {
		msgs = msgs[len(msgs)-s.persistCap:]
	}
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Recent returns the entries Persist would write.
func (s *MessageStore) Recent() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recentLocked()
}

// PrependOlder merges older entries in front of the log and returns how many
// were new.
func (s *MessageStore) PrependOlder(older []model.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.messages)
	s.setLocked(MergeOlder(s.messages, older))
	return len(s.messages) - before
}

// Messages returns a copy of the log.
func (s *MessageStore) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneMessages(s.messages)
}

// Len returns the number of messages in the log.
func (s *MessageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Contains reports whether a message with id is in the log.
func (s *MessageStore) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}
