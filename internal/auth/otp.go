// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"

	"github.com/jeranaias/chatspaces/internal/model"
)

// OTP modes.
const (
	ModeFixed = "fixed"
	ModeTOTP  = "totp"
)

// Defaults matching the original login flow.
const (
	DefaultDemoCode      = "123456"
	DefaultSendDelay     = 1500 * time.Millisecond
	DefaultVerifyDelay   = 1500 * time.Millisecond
	DefaultAutofillDelay = 1000 * time.Millisecond
)

// OTPOptions configures an OTPService.
type OTPOptions struct {
	Mode        string
	DemoCode    string
	SendDelay   time.Duration
	VerifyDelay time.Duration
	Logger      zerolog.Logger
	Now         func() time.Time
}

// OTPService is the mock code delivery. Send issues a code; Verify accepts
// only the last code issued.
type OTPService struct {
	opts   OTPOptions
	logger zerolog.Logger

	mu     sync.Mutex
	secret string
	issued string
	sentTo string
}

// NewOTPService creates a service. TOTP mode generates a per-process secret.
func NewOTPService(opts OTPOptions) (*OTPService, error) {
	if opts.Mode == "" {
		opts.Mode = ModeFixed
	}
	if opts.DemoCode == "" {
		opts.DemoCode = DefaultDemoCode
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &OTPService{
		opts:   opts,
		logger: opts.Logger.With().Str("component", "otp").Logger(),
	}

	switch opts.Mode {
	case ModeFixed:
	case ModeTOTP:
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      "chatspaces",
			AccountName: "demo",
		})
		if err != nil {
			return nil, fmt.Errorf("generate otp secret: %w", err)
		}
		s.secret = key.Secret()
	default:
		return nil, fmt.Errorf("unknown otp mode %q", opts.Mode)
	}
	return s, nil
}

// Mode returns the configured mode.
func (s *OTPService) Mode() string {
	return s.opts.Mode
}

// Send validates the phone fields, waits SendDelay and issues a code. The
// code is returned so the UI can show it as the demo would.
func (s *OTPService) Send(ctx context.Context, form LoginForm) (string, error) {
	form.OTPSent = false
	if err := form.Validate(); err != nil {
		return "", err
	}
	if err := sleep(ctx, s.opts.SendDelay); err != nil {
		return "", err
	}

	code, err := s.code()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.issued = code
	s.sentTo = form.FullNumber()
	s.mu.Unlock()

	s.logger.Info().Str("to", form.FullNumber()).Msg("otp issued")
	return code, nil
}

// SentTo returns the number the last code was sent to.
func (s *OTPService) SentTo() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sentTo
}

// Verify checks code. A mismatch fails immediately with model.ErrInvalidOTP;
// a match succeeds after VerifyDelay.
func (s *OTPService) Verify(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)

	s.mu.Lock()
	issued := s.issued
	s.mu.Unlock()

	if !s.matches(code, issued) {
		s.logger.Debug().Msg("otp rejected")
		return model.ErrInvalidOTP
	}
	if err := sleep(ctx, s.opts.VerifyDelay); err != nil {
		return err
	}

	s.mu.Lock()
	s.issued = ""
	s.mu.Unlock()
	return nil
}

func (s *OTPService) code() (string, error) {
	if s.opts.Mode == ModeTOTP {
		code, err := totp.GenerateCode(s.secret, s.opts.Now())
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		return code, nil
	}
	return s.opts.DemoCode, nil
}

func (s *OTPService) matches(code, issued string) bool {
	if code == "" || issued == "" {
		return false
	}
	if s.opts.Mode == ModeTOTP {
		// Accept the issued code, or any currently valid one
		return code == issued || totp.Validate(code, s.secret)
	}
	return code == issued
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
