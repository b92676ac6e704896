// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth implements the simulated phone/OTP login.
//
// Nothing leaves the machine: OTPService "sends" a code after a delay and
// reveals it to the user, and Store simply remembers who is logged in.
//
// # Key Types
//
//   - Store: Persisted login flag, phone number and country code
//   - LoginForm: Form input validated with go-playground/validator
//   - OTPService: Mock send/verify with a fixed demo code or TOTP
package auth
