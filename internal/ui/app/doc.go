// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea program: login, dashboard and chatroom
// screens over shared Services, with toasts and key help around them.
package app
