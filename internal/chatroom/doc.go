// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatroom implements the message pipeline of one open chatroom.
//
// A Session owns the chatroom's MessageStore (the in-memory log mirrored to
// storage), a Paginator that reveals older entries of the demo dataset, and
// the compose/send/reply state machine:
//
//	Idle -> Composing -> Sent (typing) -> Idle
//
// Submitting appends the user's message, clears the compose state and
// schedules exactly one synthetic reply. Closing the session cancels that
// reply; a cancelled reply never touches the log.
//
// # Usage
//
//	sess := chatroom.NewSession(roomID, logs, opts)
//	msgs, err := sess.Open(ctx)
//	sess.SetText("hello")
//	msg, err := sess.Submit(ctx)
//	defer sess.Close()
package chatroom
