// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// chatspaces.
//
// Sources, lowest precedence first:
//
//   - Built-in defaults (Default)
//   - ~/.chatspaces/config.toml, or the file given with --config
//   - A .env file in the working directory (never overrides the real
//     environment)
//   - CHATSPACES_* environment variables
//   - Command-line flags, applied by the cli package
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil { ... }
//	fmt.Println(cfg.Storage.DataDir)
//
// Durations are written as Go duration strings ("2s", "400ms").
package config
