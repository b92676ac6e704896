// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatroom

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/chatspaces/internal/model"
)

// SaveFailedNotice is reported when the log could not be persisted.
const SaveFailedNotice = "Could not save chat history."

// =============================================================================
// COMPOSE STATE
// =============================================================================

// Compose returns the current compose state.
func (s *Session) Compose() Compose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compose
}

// SetText replaces the compose text.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compose.Text = text
}

// AttachImage reads the image at path into the compose state. Rejected files
// leave the compose state unchanged.
func (s *Session) AttachImage(ctx context.Context, path string) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	// Read outside the lock; files can be large
	name, uri, err := ReadImage(ctx, path, s.opts.MaxImageBytes)
	if err != nil {
		return s.rejectImage(err)
	}
	return s.setImage(name, uri)
}

// AttachImageBytes is AttachImage for an in-memory payload.
func (s *Session) AttachImageBytes(name string, data []byte) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	uri, err := EncodeImage(data, s.opts.MaxImageBytes)
	if err != nil {
		return s.rejectImage(err)
	}
	return s.setImage(name, uri)
}

func (s *Session) rejectImage(err error) error {
	var ve *model.ValidationError
	switch {
	case errors.Is(err, model.ErrImageTooLarge):
		s.opts.Notifier.Error(TooLargeNotice(s.opts.MaxImageBytes))
	case errors.As(err, &ve):
		s.opts.Notifier.Error(ve.Message)
	default:
		s.opts.Notifier.Error("Could not read image.")
	}
	s.logger.Debug().Err(err).Msg("image rejected")
	return err
}

func (s *Session) setImage(name, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.compose.Image = uri
	s.compose.ImageName = name
	return nil
}

// ClearImage drops the attached image.
func (s *Session) ClearImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compose.Image = ""
	s.compose.ImageName = ""
}

// =============================================================================
// SUBMIT AND REPLY
// =============================================================================

// Typing reports whether a synthetic reply is pending.
func (s *Session) Typing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

// Submit sends the compose state as a user message and schedules one reply.
//
// Empty input returns model.ErrEmptySubmission and a pending reply returns
// ErrReplyPending; neither changes any state. If the message was appended
// but not saved, the message is returned together with a
// *model.PersistenceError.
func (s *Session) Submit(ctx context.Context) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.Message{}, ErrSessionClosed
	}
	if s.compose.Empty() {
		return model.Message{}, model.ErrEmptySubmission
	}
	if s.typing {
		return model.Message{}, ErrReplyPending
	}

	msg := model.NewUserMessage(strings.TrimSpace(s.compose.Text), s.compose.Image, s.opts.Scheduler.Now())
	appendErr := s.store.Append(ctx, msg)
	if appendErr != nil {
		s.opts.Notifier.Error(SaveFailedNotice)
	}
	s.emit(Event{Kind: EventMessage, Message: msg})

	s.compose = Compose{}
	s.typing = true
	s.emit(Event{Kind: EventTyping, Typing: true})

	s.token++
	token := s.token
	s.pending = s.opts.Scheduler.AfterFunc("reply:"+s.id, s.opts.ReplyDelay, func() {
		s.deliverReply(token, msg)
	})

	s.logger.Debug().Str("message_id", msg.ID).Bool("image", msg.HasImage()).Msg("message sent")
	if appendErr != nil {
		return msg, fmt.Errorf("send message: %w", appendErr)
	}
	return msg, nil
}

// ReplyText is the synthetic reply to trigger.
func ReplyText(persona string, trigger model.Message) string {
	subject := trigger.Text
	if subject == "" {
		subject = "image"
	}
	return fmt.Sprintf(`%s's reply to: "%s" 🤖`, persona, subject)
}

// deliverReply appends the reply for token unless the session was closed or
// the reply superseded.
func (s *Session) deliverReply(token uint64, trigger model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || token != s.token || !s.typing {
		return
	}

	reply := model.NewAIMessage(ReplyText(s.opts.Persona, trigger), s.opts.Scheduler.Now())
	if err := s.store.Append(context.Background(), reply); err != nil {
		s.opts.Notifier.Error(SaveFailedNotice)
	}
	s.typing = false
	s.pending = nil
	s.emit(Event{Kind: EventMessage, Message: reply})
	s.emit(Event{Kind: EventTyping, Typing: false})
}
