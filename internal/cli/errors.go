// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/chatspaces/internal/model"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitNotFound     = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrNotTerminal is returned when the TUI is started without a terminal.
var ErrNotTerminal = errors.New("stdout is not a terminal; use a subcommand such as 'chatspaces rooms list'")

// CommandError is a failed command with context.
type CommandError struct {
	Command string
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ConfigError wraps a configuration failure.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NotFoundError reports an unknown resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ExitCode maps err to a process exit code. Startup and config failures
// are general errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var nf *NotFoundError
	switch {
	case errors.As(err, &nf):
		return ExitNotFound
	case model.IsValidation(err):
		return ExitUsageError
	default:
		return ExitGeneralError
	}
}
