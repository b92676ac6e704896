// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notify is the fire-and-forget channel that core packages use to
// report user-visible events. Sending never blocks and never fails; when the
// consumer falls behind or a burst exceeds the rate limit, notices are dropped.
package notify

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Kind classifies a notice for display.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notice is one user-visible event.
type Notice struct {
	Kind Kind
	Text string
	At   time.Time
}

// Default tuning.
const (
	DefaultBuffer = 32
	DefaultRate   = 10 // notices per second
	DefaultBurst  = 5
)

// Notifier delivers notices on a buffered channel. A nil *Notifier is valid
// and discards everything.
type Notifier struct {
	ch      chan Notice
	limiter *rate.Limiter
	logger  zerolog.Logger
	dropped atomic.Int64
}

// New creates a notifier with the default buffer and rate limit.
func New(logger zerolog.Logger) *Notifier {
	return NewWithLimit(logger, DefaultBuffer, rate.Limit(DefaultRate), DefaultBurst)
}

// NewWithLimit creates a notifier with explicit buffering and rate limiting.
func NewWithLimit(logger zerolog.Logger, buffer int, limit rate.Limit, burst int) *Notifier {
	if buffer < 1 {
		buffer = 1
	}
	return &Notifier{
		ch:      make(chan Notice, buffer),
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// C returns the receive side of the notice channel.
func (n *Notifier) C() <-chan Notice {
	if n == nil {
		return nil
	}
	return n.ch
}

// Notify sends a notice without blocking.
func (n *Notifier) Notify(kind Kind, text string) {
	if n == nil {
		return
	}
	if !n.limiter.Allow() {
		n.drop(kind, text, "rate limited")
		return
	}
	select {
	case n.ch <- Notice{Kind: kind, Text: text, At: time.Now()}:
	default:
		n.drop(kind, text, "buffer full")
	}
}

func (n *Notifier) drop(kind Kind, text, reason string) {
	n.dropped.Add(1)
	n.logger.Debug().Str("kind", string(kind)).Str("text", text).Msgf("notice dropped: %s", reason)
}

// Info sends an informational notice.
func (n *Notifier) Info(text string) { n.Notify(KindInfo, text) }

// Success sends a success notice.
func (n *Notifier) Success(text string) { n.Notify(KindSuccess, text) }

// Warn sends a warning notice.
func (n *Notifier) Warn(text string) { n.Notify(KindWarning, text) }

// Error sends an error notice.
func (n *Notifier) Error(text string) { n.Notify(KindError, text) }

// Dropped returns how many notices were discarded.
func (n *Notifier) Dropped() int64 {
	if n == nil {
		return 0
	}
	return n.dropped.Load()
}
