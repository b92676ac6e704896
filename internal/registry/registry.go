// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry manages the collection of chatrooms shown on the
// dashboard. Titles need not be unique; ids are.
package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/notify"
	"github.com/jeranaias/chatspaces/internal/storage"
)

// SaveFailedNotice is reported when the chatroom list could not be saved.
const SaveFailedNotice = "Could not save chatrooms."

// Options configures a Registry.
type Options struct {
	// Backend persists the collection under storage.KeyChatrooms when
	// Persist is set.
	Backend storage.Backend
	Persist bool

	// Logs, when set, has a room's history removed on Delete.
	Logs *storage.LogStore

	Notifier *notify.Notifier
	Logger   zerolog.Logger
	Now      func() time.Time
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry is an insertion-ordered collection of chatrooms.
type Registry struct {
	opts   Options
	logger zerolog.Logger

	mu    sync.RWMutex
	rooms []model.Chatroom
}

// New creates an empty registry. Call Load to restore a persisted one.
func New(opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		opts:   opts,
		logger: opts.Logger.With().Str("component", "registry").Logger(),
	}
}

// Load restores the persisted collection. A missing or undecodable value
// leaves the registry empty.
func (r *Registry) Load(ctx context.Context) error {
	if !r.persistent() {
		return nil
	}

	var rooms []model.Chatroom
	err := storage.GetJSON(ctx, r.opts.Backend, storage.KeyChatrooms, &rooms)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		r.logger.Warn().Err(err).Msg("ignoring unreadable chatroom list")
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms = r.rooms[:0]
	for _, room := range rooms {
		if room.ID != "" && strings.TrimSpace(room.Title) != "" {
			r.rooms = append(r.rooms, room)
		}
	}
	return nil
}

// Create appends a chatroom titled title. A blank title returns
// model.ErrEmptyTitle and changes nothing. A save failure still keeps the
// room and returns a *model.PersistenceError alongside it.
func (r *Registry) Create(ctx context.Context, title string) (model.Chatroom, error) {
	if strings.TrimSpace(title) == "" {
		return model.Chatroom{}, model.ErrEmptyTitle
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room := model.NewChatroom(title, r.opts.Now())
	r.rooms = append(r.rooms, room)
	r.logger.Debug().Str("chatroom_id", room.ID).Msg("chatroom created")
	return room, r.saveLocked(ctx)
}

// Delete removes the chatroom with id and its stored history. Deleting an
// unknown id is a no-op.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, room := range r.rooms {
		if room.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	r.rooms = append(r.rooms[:idx:idx], r.rooms[idx+1:]...)

	if r.opts.Logs != nil {
		if err := r.opts.Logs.Delete(ctx, id); err != nil {
			r.logger.Warn().Err(err).Str("chatroom_id", id).Msg("chat log not removed")
		}
	}
	return r.saveLocked(ctx)
}

// List returns chatrooms whose title contains filter, case-insensitively,
// in insertion order. An empty filter returns all.
func (r *Registry) List(filter string) []model.Chatroom {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return filterRooms(r.rooms, filter)
}

func filterRooms(rooms []model.Chatroom, filter string) []model.Chatroom {
	needle := strings.ToLower(filter)
	out := make([]model.Chatroom, 0, len(rooms))
	for _, room := range rooms {
		if filter == "" || strings.Contains(strings.ToLower(room.Title), needle) {
			out = append(out, room)
		}
	}
	return out
}

// Get returns the chatroom with id.
func (r *Registry) Get(id string) (model.Chatroom, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, room := range r.rooms {
		if room.ID == id {
			return room, true
		}
	}
	return model.Chatroom{}, false
}

// Len returns the number of chatrooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) persistent() bool {
	return r.opts.Persist && r.opts.Backend != nil
}

func (r *Registry) saveLocked(ctx context.Context) error {
	if !r.persistent() {
		return nil
	}
	rooms := r.rooms
	if rooms == nil {
		rooms = []model.Chatroom{}
	}
	if err := storage.PutJSON(ctx, r.opts.Backend, storage.KeyChatrooms, rooms); err != nil {
		r.logger.Warn().Err(err).Msg("chatroom list not saved")
		r.opts.Notifier.Warn(SaveFailedNotice)
		return &model.PersistenceError{Key: storage.KeyChatrooms, Err: err}
	}
	return nil
}
