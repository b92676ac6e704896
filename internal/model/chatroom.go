// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// Chatroom is a named container for one message log. Titles are not unique;
// identifiers are.
type Chatroom struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewChatroom creates a chatroom with a fresh identifier. The title is stored
// exactly as given; callers validate it.
func NewChatroom(title string, now time.Time) Chatroom {
	return Chatroom{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
	}
}
