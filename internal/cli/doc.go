// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli is the chatspaces command tree.
//
// Commands:
//
//	chatspaces                          full-screen interface (needs a terminal)
//	chatspaces rooms list [filter]      list chatrooms
//	chatspaces rooms create <title>     create a chatroom
//	chatspaces rooms delete <id>        delete a chatroom and its history
//	chatspaces chat <id>                line-mode chat
//	chatspaces config show|path|init    configuration
//	chatspaces config get <key>         one configuration value
//	chatspaces version                  build information
//
// Global flags --config, --data-dir, --ephemeral and --log-level apply to
// every command. Chatroom ids may be shortened to a unique prefix.
package cli
