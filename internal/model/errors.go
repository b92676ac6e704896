// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
)

// =============================================================================
// VALIDATION ERRORS
// =============================================================================

// ValidationError is a recoverable, user-facing rejection of input. No state
// is mutated when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is implements errors.Is support. Two validation errors match when both
// field and message are equal.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return e.Field == t.Field && e.Message == t.Message
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

var (
	// ErrEmptyTitle is returned when a chatroom title is blank.
	ErrEmptyTitle = &ValidationError{Field: "title", Message: "chatroom title required"}

	// ErrEmptySubmission is returned when a message has neither text nor image.
	ErrEmptySubmission = &ValidationError{Field: "message", Message: "message text or image required"}

	// ErrImageTooLarge is returned when an attachment exceeds the size ceiling.
	ErrImageTooLarge = &ValidationError{Field: "image", Message: "image exceeds the size limit"}

	// ErrNotAnImage is returned when an attachment is not an image.
	ErrNotAnImage = &ValidationError{Field: "image", Message: "file is not an image"}

	// ErrInvalidOTP is returned when the one-time code does not match.
	ErrInvalidOTP = &ValidationError{Field: "otp", Message: "Invalid OTP. Please try again."}
)

// Login form rules.
var (
	ErrCountryCodeRequired = &ValidationError{Field: "countryCode", Message: "Please select a country code."}
	ErrPhoneTooShort       = &ValidationError{Field: "phone", Message: "Phone number must be at least 5 digits."}
	ErrPhoneTooLong        = &ValidationError{Field: "phone", Message: "Phone number cannot exceed 15 digits."}
	ErrPhoneNotDigits      = &ValidationError{Field: "phone", Message: "Phone number must contain only digits."}
	ErrOTPTooShort         = &ValidationError{Field: "otp", Message: "Please enter a valid OTP."}
)

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// =============================================================================
// PERSISTENCE ERRORS
// =============================================================================

// PersistenceError reports that a durable write did not succeed. In-memory
// state stays authoritative.
type PersistenceError struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("could not save %s: %v", e.Key, e.Err)
}

// Unwrap returns the underlying storage error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// =============================================================================
// DIRECTORY ERRORS
// =============================================================================

// DirectoryFetchError reports that the remote country directory was
// unavailable and the static fallback was used.
type DirectoryFetchError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *DirectoryFetchError) Error() string {
	return fmt.Sprintf("country directory %s unavailable: %v", e.URL, e.Err)
}

// Unwrap returns the underlying transport or decode error.
func (e *DirectoryFetchError) Unwrap() error {
	return e.Err
}
