// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/storage"
)

// State is the authentication state.
type State struct {
	Authenticated bool      `json:"isAuthenticated"`
	PhoneNumber   string    `json:"phoneNumber"`
	CountryCode   string    `json:"countryCode"`
	LoggedInAt    time.Time `json:"loggedInAt,omitempty"`
}

// Display returns the full number, e.g. "+91 9876543210".
func (s State) Display() string {
	if !s.Authenticated {
		return ""
	}
	return s.CountryCode + " " + s.PhoneNumber
}

// Store holds the authentication state and mirrors it to storage.KeyAuth.
// A nil backend keeps it in memory.
type Store struct {
	backend storage.Backend
	logger  zerolog.Logger

	mu    sync.RWMutex
	state State
}

// NewStore creates a logged-out store.
func NewStore(backend storage.Backend, logger zerolog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger.With().Str("component", "auth").Logger(),
	}
}

// Load restores the persisted state. Unreadable state counts as logged out.
func (s *Store) Load(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	var st State
	err := storage.GetJSON(ctx, s.backend, storage.KeyAuth, &st)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("ignoring unreadable auth state")
		return nil
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

// Login marks the user as authenticated. The state changes even if saving
// fails; the returned *model.PersistenceError only means it will not survive
// a restart.
func (s *Store) Login(ctx context.Context, phoneNumber, countryCode string, now time.Time) error {
	s.mu.Lock()
	s.state = State{
		Authenticated: true,
		PhoneNumber:   phoneNumber,
		CountryCode:   countryCode,
		LoggedInAt:    now,
	}
	st := s.state
	s.mu.Unlock()

	s.logger.Info().Str("country_code", countryCode).Msg("logged in")
	return s.save(ctx, st)
}

// Logout clears the state.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()

	s.logger.Info().Msg("logged out")
	if s.backend == nil {
		return nil
	}
	if err := s.backend.Delete(ctx, storage.KeyAuth); err != nil {
		return &model.PersistenceError{Key: storage.KeyAuth, Err: err}
	}
	return nil
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticated reports whether a user is logged in.
func (s *Store) Authenticated() bool {
	return s.State().Authenticated
}

func (s *Store) save(ctx context.Context, st State) error {
	if s.backend == nil {
		return nil
	}
	if err := storage.PutJSON(ctx, s.backend, storage.KeyAuth, st); err != nil {
		return &model.PersistenceError{Key: storage.KeyAuth, Err: err}
	}
	return nil
}
