// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatspaces/internal/model"
)

func openAll(t *testing.T, quota int64) map[Kind]Backend {
	t.Helper()
	out := make(map[Kind]Backend)
	for _, kind := range []Kind{KindMemory, KindFile, KindSQLite} {
		b, err := Open(Options{Kind: kind, Dir: t.TempDir(), QuotaBytes: quota, Logger: zerolog.Nop()})
		require.NoError(t, err, "open %s", kind)
		t.Cleanup(func() { b.Close() })
		out[kind] = b
	}
	return out
}

func TestBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	for kind, b := range openAll(t, -1) {
		t.Run(string(kind), func(t *testing.T) {
			_, err := b.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, b.Put(ctx, "chatroom-a", []byte(`[1,2]`)))
			require.NoError(t, b.Put(ctx, "auth", []byte(`{}`)))
			require.NoError(t, b.Put(ctx, "chatroom-a", []byte(`[1,2,3]`)))

			got, err := b.Get(ctx, "chatroom-a")
			require.NoError(t, err)
			assert.Equal(t, `[1,2,3]`, string(got))

			keys, err := b.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"auth", "chatroom-a"}, keys)

			require.NoError(t, b.Delete(ctx, "chatroom-a"))
			require.NoError(t, b.Delete(ctx, "chatroom-a"), "delete is idempotent")
			_, err = b.Get(ctx, "chatroom-a")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, b.Put(ctx, "  ", []byte("x")), ErrInvalidKey)
		})
	}
}

func TestBackendQuota(t *testing.T) {
	ctx := context.Background()
	for kind, b := range openAll(t, 100) {
		t.Run(string(kind), func(t *testing.T) {
			big := make([]byte, 90)
			for i := range big {
				big[i] = 'a'
			}
			require.NoError(t, b.Put(ctx, "one", big[:60]))
			assert.Equal(t, int64(63), b.Usage())

			err := b.Put(ctx, "two", big[:60])
			assert.ErrorIs(t, err, ErrQuotaExceeded)

			// Failed write leaves nothing behind.
			_, err = b.Get(ctx, "two")
			assert.ErrorIs(t, err, ErrNotFound)

			// Replacing a key only counts the new size.
			require.NoError(t, b.Put(ctx, "one", big[:90]))
			assert.Equal(t, int64(93), b.Usage())

			require.NoError(t, b.Delete(ctx, "one"))
			assert.Equal(t, int64(0), b.Usage())
		})
	}
}

func TestFileBackendRecoversUsageOnReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := NewFileBackend(dir, DefaultQuotaBytes, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, "chatroom-x/y", []byte("hello")))
	usage := b.Usage()
	require.NoError(t, b.Close())

	_, err = os.Stat(filepath.Join(dir, "store", "chatroom-x%2Fy.json"))
	require.NoError(t, err, "keys are path-escaped")

	reopened, err := NewFileBackend(dir, DefaultQuotaBytes, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, usage, reopened.Usage())

	got, err := reopened.Get(ctx, "chatroom-x/y")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestSQLiteBackendPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := NewSQLiteBackend(dir, DefaultQuotaBytes, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, "welcome_shown", []byte("true")))
	require.NoError(t, b.Close())

	reopened, err := NewSQLiteBackend(dir, DefaultQuotaBytes, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "welcome_shown")
	require.NoError(t, err)
	assert.Equal(t, "true", string(got))
	assert.Equal(t, int64(len("welcome_shown")+4), reopened.Usage())
}

func TestFileBackendWatchReportsExternalChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := NewFileBackend(t.TempDir(), DefaultQuotaBytes, zerolog.Nop())
	require.NoError(t, err)

	changes, err := b.Watch(ctx)
	require.NoError(t, err)

	// Our own write is suppressed.
	require.NoError(t, b.Put(ctx, "chatrooms", []byte("[]")))

	// Another process writes a different key.
	require.NoError(t, os.WriteFile(filepath.Join(b.Dir(), "chatroom-ext.json"), []byte("[]"), 0600))

	select {
	case key := <-changes:
		assert.Equal(t, "chatroom-ext", key)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	for range changes {
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(-1)

	require.NoError(t, PutJSON(ctx, b, KeyWelcomeShown, true))
	var shown bool
	require.NoError(t, GetJSON(ctx, b, KeyWelcomeShown, &shown))
	assert.True(t, shown)

	require.NoError(t, b.Put(ctx, "bad", []byte("{")))
	assert.Error(t, GetJSON(ctx, b, "bad", &shown))
	assert.ErrorIs(t, GetJSON(ctx, b, "absent", &shown), ErrNotFound)
}

func TestOpenUnknownKind(t *testing.T) {
	_, err := Open(Options{Kind: "redis"})
	assert.Error(t, err)
}

func TestLogStore(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(-1)
	logs, err := NewLogStore(backend, 2, zerolog.Nop())
	require.NoError(t, err)

	msgs, err := logs.Load(ctx, "room")
	require.NoError(t, err)
	assert.Nil(t, msgs)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	saved := []model.Message{
		model.NewUserMessage("hi", "", now),
		model.NewAIMessage("Gemini's reply", now.Add(time.Second)),
	}
	require.NoError(t, logs.Save(ctx, "room", saved))
	assert.True(t, logs.Cached("room"))

	raw, err := backend.Get(ctx, "chatroom-room")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sender":"user"`)

	loaded, err := logs.Load(ctx, "room")
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	// Returned slices are independent of the cache.
	loaded[0].Text = "mutated"
	again, err := logs.Load(ctx, "room")
	require.NoError(t, err)
	assert.Equal(t, "hi", again[0].Text)

	require.NoError(t, logs.Delete(ctx, "room"))
	assert.False(t, logs.Cached("room"))
	gone, err := logs.Load(ctx, "room")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestLogStoreCorruptAndInvalidate(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(-1)
	logs, err := NewLogStore(backend, 0, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, backend.Put(ctx, LogKey("bad"), []byte("not json")))
	_, err = logs.Load(ctx, "bad")
	assert.ErrorIs(t, err, ErrCorruptLog)

	require.NoError(t, logs.Save(ctx, "r", []model.Message{}))
	require.NoError(t, backend.Put(ctx, LogKey("r"), []byte(`[{"id":"x","text":"ext","sender":"ai","timestamp":"2025-01-01T00:00:00Z"}]`)))
	logs.Invalidate("chatroom-r")
	got, err := logs.Load(ctx, "r")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ext", got[0].Text)
}

func TestLogStoreQuotaFailureDropsCache(t *testing.T) {
	ctx := context.Background()
	logs, err := NewLogStore(NewMemoryBackend(20), 0, zerolog.Nop())
	require.NoError(t, err)

	msgs := []model.Message{model.NewUserMessage("a long enough message", "", time.Now())}
	err = logs.Save(ctx, "room", msgs)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.False(t, logs.Cached("room"))
}

func TestChatroomIDFromKey(t *testing.T) {
	id, ok := ChatroomIDFromKey("chatroom-abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = ChatroomIDFromKey("chatrooms")
	assert.False(t, ok)
	_, ok = ChatroomIDFromKey("chatroom-")
	assert.False(t, ok)
}
