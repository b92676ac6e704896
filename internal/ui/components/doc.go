// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the chatspaces TUI.

Components are built on Bubble Tea and Lip Gloss and read their colors from
the styles package.

# Components

Toast (toast.go) - Auto-dismissing notices fed from the notify channel.
TypingIndicator (typing.go) - Spinner shown while a reply is pending.
Bubble rendering (bubble.go) - Message bubbles with optional markdown.
ConfirmDialog (confirm.go) - Yes/no overlay for destructive actions.
Welcome (welcome.go) - First-run overlay on the dashboard.
Skeleton (skeleton.go) - Placeholder rows while a chatroom loads.
*/
package components
