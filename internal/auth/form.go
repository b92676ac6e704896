// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jeranaias/chatspaces/internal/model"
)

// MinOTPLength is the shortest code the form accepts.
const MinOTPLength = 4

// LoginForm is the login screen input.
type LoginForm struct {
	CountryCode string `validate:"required"`
	Phone       string `validate:"min=5,max=15,number"`
	OTP         string `validate:"-"`

	// OTPSent enables OTP validation.
	OTPSent bool `validate:"-"`
}

var (
	validate = validator.New(validator.WithRequiredStructEnabled())
	otpRule  = fmt.Sprintf("min=%d", MinOTPLength)
)

// ruleErrors maps a failed struct field and tag to a user-facing error.
var ruleErrors = map[string]map[string]*model.ValidationError{
	"CountryCode": {"required": model.ErrCountryCodeRequired},
	"Phone": {
		"min":    model.ErrPhoneTooShort,
		"max":    model.ErrPhoneTooLong,
		"number": model.ErrPhoneNotDigits,
	},
}

// Errors returns one error per invalid field, in form order.
func (f LoginForm) Errors() []*model.ValidationError {
	var out []*model.ValidationError

	if err := validate.Struct(f); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return []*model.ValidationError{model.NewValidationError("form", err.Error())}
		}
		for _, fe := range fieldErrs {
			if ve, ok := ruleErrors[fe.StructField()][fe.Tag()]; ok {
				out = append(out, ve)
			} else {
				out = append(out, model.NewValidationError(fe.Field(), fe.Error()))
			}
		}
	}

	if f.OTPSent {
		if err := validate.Var(f.OTP, otpRule); err != nil {
			out = append(out, model.ErrOTPTooShort)
		}
	}
	return out
}

// Validate returns the joined field errors, or nil.
func (f LoginForm) Validate() error {
	errs := f.Errors()
	if len(errs) == 0 {
		return nil
	}
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return errors.Join(joined...)
}

// FieldError returns the first error for field ("countryCode", "phone",
// "otp"), or nil.
func (f LoginForm) FieldError(field string) *model.ValidationError {
	for _, e := range f.Errors() {
		if e.Field == field {
			return e
		}
	}
	return nil
}

// FullNumber returns country code and phone joined, e.g. "+919876543210".
func (f LoginForm) FullNumber() string {
	return f.CountryCode + f.Phone
}
