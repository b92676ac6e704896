// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chatrooms and messages.
//
// This package defines the core domain types shared by storage, the
// chatroom pipeline, the registry and the UI.
//
// # Key Types
//
//   - Chatroom: A named container scoping one message log
//   - Message: Single message with sender, text, optional image and timestamp
//   - Sender: Message author enumeration (user, ai)
//   - ValidationError, PersistenceError, DirectoryFetchError: error kinds
//
// # Usage
//
//	msg := model.NewUserMessage("hello", "", time.Now())
//	if !msg.HasContent() {
//	    return model.ErrEmptySubmission
//	}
package model
