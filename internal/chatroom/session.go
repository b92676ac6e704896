// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatroom

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/notify"
	"github.com/jeranaias/chatspaces/internal/storage"
	"github.com/jeranaias/chatspaces/internal/tasks"
)

var (
	// ErrReplyPending is returned by Submit while a synthetic reply is due.
	ErrReplyPending = errors.New("chatroom: reply pending")

	// ErrSessionClosed is returned after Close.
	ErrSessionClosed = errors.New("chatroom: session closed")
)

// Defaults for the reply pipeline.
const (
	DefaultReplyDelay = 2000 * time.Millisecond
	DefaultPersona    = "Gemini"
)

// Options configures a Session. Zero numeric fields take the defaults.
type Options struct {
	Scheduler     tasks.Scheduler
	Notifier      *notify.Notifier
	Logger        zerolog.Logger
	PageSize      int
	PersistCap    int
	ReplyDelay    time.Duration
	MaxImageBytes int64
	Persona       string
}

// DefaultOptions returns options with real timers and default limits.
func DefaultOptions() Options {
	return Options{
		Scheduler:     tasks.NewClockScheduler(),
		Logger:        zerolog.Nop(),
		PageSize:      DefaultPageSize,
		PersistCap:    DefaultPersistCap,
		ReplyDelay:    DefaultReplyDelay,
		MaxImageBytes: DefaultMaxImageBytes,
		Persona:       DefaultPersona,
	}
}

func (o *Options) fillDefaults() {
	d := DefaultOptions()
	if o.Scheduler == nil {
		o.Scheduler = d.Scheduler
	}
	if o.PageSize <= 0 {
		o.PageSize = d.PageSize
	}
	if o.PersistCap <= 0 {
		o.PersistCap = d.PersistCap
	}
	if o.ReplyDelay <= 0 {
		o.ReplyDelay = d.ReplyDelay
	}
	if o.MaxImageBytes == 0 {
		o.MaxImageBytes = d.MaxImageBytes
	}
	if o.Persona == "" {
		o.Persona = d.Persona
	}
}

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies a session change.
type EventKind int

const (
	// EventMessage means a message was appended.
	EventMessage EventKind = iota
	// EventTyping means the typing indicator changed.
	EventTyping
	// EventHistory means older messages were prepended.
	EventHistory
)

// Event is a change notification for renderers.
type Event struct {
	Kind    EventKind
	Message model.Message // EventMessage only
	Typing  bool          // EventTyping only
	Added   int           // EventHistory only
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one open chatroom. All state, including timer callbacks, is
// serialised by a single mutex.
type Session struct {
	id     string
	opts   Options
	logger zerolog.Logger
	store  *MessageStore
	pager  *Paginator
	events chan Event

	mu      sync.Mutex
	compose Compose
	typing  bool
	pending *tasks.Task
	token   uint64
	closed  bool
}

// NewSession creates a session for chatroomID. Call Open before use.
func NewSession(chatroomID string, logs *storage.LogStore, opts Options) *Session {
	opts.fillDefaults()
	logger := opts.Logger.With().Str("component", "chatroom").Str("chatroom_id", chatroomID).Logger()

	store := NewMessageStore(chatroomID, logs, StoreOptions{
		PageSize:   opts.PageSize,
		PersistCap: opts.PersistCap,
		Logger:     logger,
	})
	return &Session{
		id:     chatroomID,
		opts:   opts,
		logger: logger,
		store:  store,
		pager:  NewPaginator(store, opts.PageSize, opts.Notifier),
		events: make(chan Event, 32),
	}
}

// ID returns the chatroom id.
func (s *Session) ID() string {
	return s.id
}

// Store returns the session's message store.
func (s *Session) Store() *MessageStore {
	return s.store
}

// Open loads the log. A read failure is reported and the room still opens
// with bootstrap data.
func (s *Session) Open(ctx context.Context) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}

	msgs, err := s.store.Load(ctx)
	if err != nil {
		s.opts.Notifier.Warn("Could not load chat history.")
	}
	return msgs, err
}

// Messages returns a copy of the log.
func (s *Session) Messages() []model.Message {
	return s.store.Messages()
}

// HasMore reports whether older history can still be revealed.
func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.pager.HasMore()
}

// Page returns the pagination counter.
func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pager.Page()
}

// LoadOlder reveals the next page of history. It is a no-op when nothing is
// left or the session is closed.
func (s *Session) LoadOlder() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}

	added := s.pager.LoadOlder()
	if added > 0 {
		s.emit(Event{Kind: EventHistory, Added: added})
	}
	return added
}

// Events returns the change stream, closed by Close. Events are dropped when
// the consumer falls behind; renderers re-read state on every event.
func (s *Session) Events() <-chan Event {
	return s.events
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// Close cancels any pending reply and ends the event stream. No mutation
// happens after Close returns.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.pending.Cancel() {
		s.logger.Debug().Msg("pending reply cancelled")
	}
	s.pending = nil
	s.typing = false
	close(s.events)
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
