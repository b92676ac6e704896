// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chatrooms and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/chatspaces/internal/util"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAI:
		return "Gemini"
	default:
		return string(s)
	}
}

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAI
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry of a chatroom's log. Messages are never mutated
// after creation.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Image     string    `json:"image,omitempty"` // data URI
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage creates a user message with a fresh identifier.
func NewUserMessage(text, image string, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Image:     image,
		Sender:    SenderUser,
		Timestamp: now,
	}
}

// NewAIMessage creates a synthetic responder message with a fresh identifier.
func NewAIMessage(text string, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderAI,
		Timestamp: now,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// HasContent reports whether the message carries non-blank text or an image.
func (m Message) HasContent() bool {
	return strings.TrimSpace(m.Text) != "" || m.Image != ""
}

// HasImage reports whether an image is attached.
func (m Message) HasImage() bool {
	return m.Image != ""
}

// IsUser returns true for messages authored by the local user.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// Preview returns a single-line, rune-truncated preview of the message.
// Image-only messages preview as "[image]".
func (m Message) Preview(maxLen int) string {
	content := strings.Join(strings.Fields(m.Text), " ")
	if content == "" && m.HasImage() {
		return "[image]"
	}
	return util.TruncateRunes(content, maxLen)
}

// CloneMessages returns a copy of msgs that shares no backing array.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
