// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/storage"
)

func TestLoginFormPhoneRules(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  error
	}{
		{"valid", "9876543210", nil},
		{"five digits", "12345", nil},
		{"fifteen digits", "123456789012345", nil},
		{"empty", "", model.ErrPhoneTooShort},
		{"too short", "1234", model.ErrPhoneTooShort},
		{"too long", "1234567890123456", model.ErrPhoneTooLong},
		{"letters", "98765abcde", model.ErrPhoneNotDigits},
		{"plus sign", "+987654321", model.ErrPhoneNotDigits},
		{"decimal", "98765.4321", model.ErrPhoneNotDigits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := LoginForm{CountryCode: "+91", Phone: tt.phone}
			err := form.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, model.IsValidation(err))
		})
	}
}

func TestLoginFormCountryAndOTP(t *testing.T) {
	form := LoginForm{Phone: "9876543210"}
	assert.ErrorIs(t, form.Validate(), model.ErrCountryCodeRequired)
	assert.Equal(t, model.ErrCountryCodeRequired, form.FieldError("countryCode"))
	assert.Nil(t, form.FieldError("phone"))

	form.CountryCode = "+44"
	form.OTP = "12"
	assert.NoError(t, form.Validate(), "otp is not checked before it is sent")

	form.OTPSent = true
	assert.ErrorIs(t, form.Validate(), model.ErrOTPTooShort)

	form.OTP = "1234"
	assert.NoError(t, form.Validate())
	assert.Equal(t, "+449876543210", form.FullNumber())
}

func TestLoginFormReportsEveryField(t *testing.T) {
	form := LoginForm{Phone: "12", OTPSent: true}
	errs := form.Errors()
	require.Len(t, errs, 3)
	assert.Equal(t, "countryCode", errs[0].Field)
	assert.Equal(t, "phone", errs[1].Field)
	assert.Equal(t, "otp", errs[2].Field)
}

func fastOTP(t *testing.T, mode string) *OTPService {
	t.Helper()
	svc, err := NewOTPService(OTPOptions{Mode: mode, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return svc
}

func TestOTPFixedMode(t *testing.T) {
	ctx := context.Background()
	svc := fastOTP(t, ModeFixed)

	assert.ErrorIs(t, svc.Verify(ctx, DefaultDemoCode), model.ErrInvalidOTP, "nothing sent yet")

	code, err := svc.Send(ctx, LoginForm{CountryCode: "+91", Phone: "9876543210"})
	require.NoError(t, err)
	assert.Equal(t, "123456", code)
	assert.Equal(t, "+919876543210", svc.SentTo())

	assert.ErrorIs(t, svc.Verify(ctx, "654321"), model.ErrInvalidOTP)
	assert.NoError(t, svc.Verify(ctx, " 123456 "))
}

func TestOTPSendValidatesForm(t *testing.T) {
	svc := fastOTP(t, ModeFixed)
	_, err := svc.Send(context.Background(), LoginForm{CountryCode: "+91", Phone: "12"})
	assert.ErrorIs(t, err, model.ErrPhoneTooShort)
	assert.Empty(t, svc.SentTo())
}

func TestOTPTOTPMode(t *testing.T) {
	ctx := context.Background()
	svc := fastOTP(t, ModeTOTP)

	code, err := svc.Send(ctx, LoginForm{CountryCode: "+1", Phone: "5551234567"})
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.True(t, totp.Validate(code, svc.secret))

	assert.ErrorIs(t, svc.Verify(ctx, "not-a-code"), model.ErrInvalidOTP)
	assert.NoError(t, svc.Verify(ctx, code))
}

func TestOTPUnknownMode(t *testing.T) {
	_, err := NewOTPService(OTPOptions{Mode: "sms"})
	assert.Error(t, err)
}

func TestOTPDelaysHonourContext(t *testing.T) {
	svc, err := NewOTPService(OTPOptions{SendDelay: time.Hour, VerifyDelay: time.Hour, Logger: zerolog.Nop()})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = svc.Send(ctx, LoginForm{CountryCode: "+91", Phone: "9876543210"})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestOTPVerifyWaitsOnSuccess(t *testing.T) {
	svc, err := NewOTPService(OTPOptions{VerifyDelay: 30 * time.Millisecond, Logger: zerolog.Nop()})
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), LoginForm{CountryCode: "+91", Phone: "9876543210"})
	require.NoError(t, err)

	start := time.Now()
	require.ErrorIs(t, svc.Verify(context.Background(), "000000"), model.ErrInvalidOTP)
	assert.Less(t, time.Since(start), 30*time.Millisecond, "mismatch fails immediately")

	start = time.Now()
	require.NoError(t, svc.Verify(context.Background(), DefaultDemoCode))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestStoreLoginLogoutPersists(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend(-1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	store := NewStore(backend, zerolog.Nop())
	require.NoError(t, store.Load(ctx))
	assert.False(t, store.Authenticated())

	require.NoError(t, store.Login(ctx, "9876543210", "+91", now))
	assert.Equal(t, "+91 9876543210", store.State().Display())

	restored := NewStore(backend, zerolog.Nop())
	require.NoError(t, restored.Load(ctx))
	assert.Equal(t, State{Authenticated: true, PhoneNumber: "9876543210", CountryCode: "+91", LoggedInAt: now}, restored.State())

	require.NoError(t, restored.Logout(ctx))
	assert.Equal(t, State{}, restored.State())
	assert.Empty(t, restored.State().Display())

	again := NewStore(backend, zerolog.Nop())
	require.NoError(t, again.Load(ctx))
	assert.False(t, again.Authenticated())
}

func TestStoreWithoutBackend(t *testing.T) {
	store := NewStore(nil, zerolog.Nop())
	require.NoError(t, store.Login(context.Background(), "12345", "+1", time.Now()))
	assert.True(t, store.Authenticated())
	require.NoError(t, store.Logout(context.Background()))
	assert.False(t, store.Authenticated())
}
