// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local key/value persistence for chatspaces.
//
// Everything the application remembers between runs (chat logs, the
// chatroom list, the login flag, whether the welcome overlay was shown) is a
// JSON value under a string key in one Backend. Backends enforce a byte quota
// across all keys, mirroring browser local storage.
//
// # Key Types
//
//   - Backend: Get/Put/Delete/Keys over raw bytes
//   - FileBackend: One JSON file per key, atomic writes, fsnotify Watch
//   - SQLiteBackend: Single kv table in a modernc.org/sqlite database
//   - MemoryBackend: Process-local map for --ephemeral and tests
//   - LogStore: Typed chat-log access with an LRU cache of decoded logs
//
// # Usage
//
//	backend, err := storage.Open(storage.Options{Kind: storage.KindFile, Dir: dataDir})
//	logs, err := storage.NewLogStore(backend, 16, logger)
//	msgs, err := logs.Load(ctx, chatroomID)
//
// # Storage Location
//
// The file backend writes to <data_dir>/store/<key>.json; the sqlite backend
// to <data_dir>/chatspaces.db.
package storage
