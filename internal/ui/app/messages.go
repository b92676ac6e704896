// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatspaces/internal/chatroom"
	"github.com/jeranaias/chatspaces/internal/directory"
	"github.com/jeranaias/chatspaces/internal/model"
)

// =============================================================================
// NAVIGATION MESSAGES
// =============================================================================

// loggedInMsg switches from the login screen to the dashboard.
type loggedInMsg struct{}

// openRoomMsg switches from the dashboard to a chatroom.
type openRoomMsg struct {
	Room model.Chatroom
}

// backMsg returns from a chatroom to the dashboard.
type backMsg struct{}

// =============================================================================
// LOGIN MESSAGES
// =============================================================================

type countriesLoadedMsg struct {
	Countries []directory.Country
	Err       error
}

type otpSentMsg struct {
	Code string
	Err  error
}

type otpAutofillMsg struct {
	Code string
}

type otpVerifiedMsg struct {
	Err error
}

// =============================================================================
// DASHBOARD MESSAGES
// =============================================================================

// searchResultMsg is a debounced filter result.
type searchResultMsg struct {
	Filter string
	Rooms  []model.Chatroom
}

// =============================================================================
// CHATROOM MESSAGES
// =============================================================================

// sessionEventMsg wraps a chatroom.Event for the room it came from.
type sessionEventMsg struct {
	RoomID string
	Event  chatroom.Event
}

// roomLoadedMsg ends the loading skeleton.
type roomLoadedMsg struct {
	RoomID string
}

// copiedMsg reports a clipboard write.
type copiedMsg struct {
	Err error
}

// =============================================================================
// STORE MESSAGES
// =============================================================================

// storeChangedMsg reports a key written by another process.
type storeChangedMsg struct {
	Key string
}

// waitForChange delivers the next externally changed key.
func waitForChange(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		key, ok := <-ch
		if !ok {
			return nil
		}
		return storeChangedMsg{Key: key}
	}
}

// waitForEvent delivers the next event of a chatroom session.
func waitForEvent(s *chatroom.Session) tea.Cmd {
	ch := s.Events()
	id := s.ID()
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return sessionEventMsg{RoomID: id, Event: ev}
	}
}

// waitForSearch delivers the next debounced search result.
func waitForSearch(ch <-chan searchResultMsg) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return nil
		}
		return res
	}
}
