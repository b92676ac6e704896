// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestNewUserMessage(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := NewUserMessage("hello", "", now)

	if msg.ID == "" {
		t.Error("expected a generated ID")
	}
	if msg.Sender != SenderUser {
		t.Errorf("Sender = %q, want %q", msg.Sender, SenderUser)
	}
	if !msg.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", msg.Timestamp, now)
	}

	other := NewUserMessage("hello", "", now)
	if other.ID == msg.ID {
		t.Error("expected distinct IDs for distinct messages")
	}
}

func TestMessageHasContent(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		image string
		want  bool
	}{
		{"text only", "hi", "", true},
		{"image only", "", "data:image/png;base64,AAAA", true},
		{"both", "hi", "data:image/png;base64,AAAA", true},
		{"empty", "", "", false},
		{"whitespace", "  \n\t ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Message{Text: tt.text, Image: tt.image}
			if got := msg.HasContent(); got != tt.want {
				t.Errorf("HasContent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessagePreview(t *testing.T) {
	msg := Message{Text: "line one\nline two"}
	if got := msg.Preview(80); got != "line one line two" {
		t.Errorf("Preview() = %q", got)
	}

	long := Message{Text: strings.Repeat("x", 100)}
	if got := long.Preview(10); got != "xxxxxxx..." {
		t.Errorf("Preview(10) = %q", got)
	}

	img := Message{Image: "data:image/png;base64,AAAA"}
	if got := img.Preview(20); got != "[image]" {
		t.Errorf("Preview() for image = %q, want [image]", got)
	}
}

func TestMessageJSONLayout(t *testing.T) {
	msg := Message{
		ID:        "msg-1",
		Text:      "hello",
		Sender:    SenderAI,
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"id":"msg-1","text":"hello","sender":"ai","timestamp":"2025-01-02T03:04:05Z"}`
	if string(data) != want {
		t.Errorf("JSON = %s, want %s", data, want)
	}
}

func TestSenderDisplayName(t *testing.T) {
	if SenderUser.DisplayName() != "You" {
		t.Errorf("user display name = %q", SenderUser.DisplayName())
	}
	if !SenderAI.Valid() || Sender("bot").Valid() {
		t.Error("Valid() mismatch")
	}
}

func TestValidationErrorIs(t *testing.T) {
	wrapped := fmt.Errorf("attach: %w", ErrImageTooLarge)
	if !errors.Is(wrapped, ErrImageTooLarge) {
		t.Error("expected wrapped error to match ErrImageTooLarge")
	}
	if errors.Is(wrapped, ErrNotAnImage) {
		t.Error("ErrImageTooLarge must not match ErrNotAnImage")
	}
	if !IsValidation(wrapped) {
		t.Error("IsValidation() = false for wrapped validation error")
	}
	same := NewValidationError("title", "chatroom title required")
	if !errors.Is(same, ErrEmptyTitle) {
		t.Error("equal field and message must match")
	}
}

func TestPersistenceErrorUnwrap(t *testing.T) {
	base := errors.New("disk full")
	err := error(&PersistenceError{Key: "chatroom-1", Err: base})

	if !errors.Is(err, base) {
		t.Error("expected PersistenceError to unwrap to its cause")
	}
	if !IsPersistence(fmt.Errorf("append: %w", err)) {
		t.Error("IsPersistence() = false for wrapped persistence error")
	}
	if !strings.Contains(err.Error(), "chatroom-1") {
		t.Errorf("Error() = %q, want key in message", err.Error())
	}
}
