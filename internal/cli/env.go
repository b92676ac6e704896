// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatspaces/internal/auth"
	"github.com/jeranaias/chatspaces/internal/config"
	"github.com/jeranaias/chatspaces/internal/directory"
	"github.com/jeranaias/chatspaces/internal/logging"
	"github.com/jeranaias/chatspaces/internal/notify"
	"github.com/jeranaias/chatspaces/internal/registry"
	"github.com/jeranaias/chatspaces/internal/storage"
	"github.com/jeranaias/chatspaces/internal/tasks"
	"github.com/jeranaias/chatspaces/internal/ui/app"
)

// globalFlags are the persistent root flags.
type globalFlags struct {
	configPath string
	dataDir    string
	logLevel   string
	ephemeral  bool
}

// configPathOrDefault returns --config or the default location.
func (g *globalFlags) configPathOrDefault() (string, error) {
	if g.configPath != "" {
		return config.ExpandHome(g.configPath)
	}
	return config.DefaultPath()
}

// loadConfig reads the config file and applies flag overrides on top of it.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	path, err := g.configPathOrDefault()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	changed := false
	if g.dataDir != "" {
		cfg.Storage.DataDir = g.dataDir
		changed = true
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
		changed = true
	}
	if g.ephemeral {
		cfg.Storage.Backend = string(storage.KindMemory)
		changed = true
	}
	if changed {
		if err := cfg.Finalize(); err != nil {
			return nil, &ConfigError{Err: err}
		}
	}
	return cfg, nil
}

// =============================================================================
// RUNTIME ENVIRONMENT
// =============================================================================

// logTarget selects where an env logs.
type logTarget int

const (
	// logToStderr writes human-readable lines for subcommands.
	logToStderr logTarget = iota
	// logToFile keeps the alternate screen clean while the TUI runs.
	logToFile
)

// env is the wired set of services a command runs against.
type env struct {
	cfg      *config.Config
	logger   zerolog.Logger
	backend  storage.Backend
	logs     *storage.LogStore
	registry *registry.Registry
	auth     *auth.Store
	notifier *notify.Notifier
	sched    tasks.Scheduler

	closers []io.Closer
}

// openEnv loads configuration and opens storage. The caller must Close it.
func openEnv(ctx context.Context, g *globalFlags, target logTarget, stderr io.Writer) (*env, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{Level: cfg.Log.Level, Pretty: true, Out: stderr}
	if target == logToFile {
		logCfg.File = cfg.LogFile()
		logCfg.Pretty = false
	}
	logger, logCloser, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	logging.Init(logger)

	e := &env{
		cfg:     cfg,
		logger:  logger,
		sched:   tasks.NewClockScheduler(),
		closers: []io.Closer{logCloser},
	}

	e.backend, err = storage.Open(storage.Options{
		Kind:       storage.Kind(cfg.Storage.Backend),
		Dir:        cfg.Storage.DataDir,
		QuotaBytes: cfg.Storage.QuotaBytes,
		Logger:     logger,
	})
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	e.closers = append([]io.Closer{e.backend}, e.closers...)

	e.logs, err = storage.NewLogStore(e.backend, cfg.Storage.CacheSize, logger)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open chat logs: %w", err)
	}

	e.notifier = notify.New(logger)
	e.registry = registry.New(registry.Options{
		Backend:  e.backend,
		Persist:  cfg.Storage.PersistChatrooms,
		Logs:     e.logs,
		Notifier: e.notifier,
		Logger:   logger,
		Now:      e.sched.Now,
	})

	ctx = logging.WithLogger(ctx, logger)
	if err := e.registry.Load(ctx); err != nil {
		e.Close()
		return nil, fmt.Errorf("load chatrooms: %w", err)
	}
	e.auth = auth.NewStore(e.backend, logger)
	if err := e.auth.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("login state unreadable")
	}

	logger.Debug().
		Str(logging.FieldBackend, cfg.Storage.Backend).
		Str("data_dir", cfg.Storage.DataDir).
		Bool("persist_chatrooms", cfg.Storage.PersistChatrooms).
		Msg("environment ready")
	return e, nil
}

// services assembles the TUI collaborators. Changes from other processes
// are watched when the backend supports it.
func (e *env) services(ctx context.Context) (*app.Services, error) {
	otp, err := auth.NewOTPService(auth.OTPOptions{
		Mode:        e.cfg.Auth.OTPMode,
		DemoCode:    e.cfg.Auth.DemoCode,
		SendDelay:   e.cfg.Auth.SendDelay.Duration,
		VerifyDelay: e.cfg.Auth.VerifyDelay.Duration,
		Logger:      e.logger,
	})
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	svc := &app.Services{
		Config:    e.cfg,
		Backend:   e.backend,
		Logs:      e.logs,
		Registry:  e.registry,
		Auth:      e.auth,
		OTP:       otp,
		Countries: directory.NewClient(e.cfg.Directory.URL, e.cfg.Directory.Timeout.Duration, e.logger),
		Notifier:  e.notifier,
		Scheduler: e.sched,
		Logger:    e.logger,
	}

	if fb, ok := e.backend.(*storage.FileBackend); ok {
		changes, err := fb.Watch(ctx)
		if err != nil {
			e.logger.Warn().Err(err).Msg("cross-process change watch disabled")
		} else {
			svc.Changes = changes
		}
	}
	return svc, nil
}

// findRoom resolves a chatroom by id, or by a unique id prefix.
func (e *env) findRoom(ref string) (string, error) {
	if room, ok := e.registry.Get(ref); ok {
		return room.ID, nil
	}
	var match string
	for _, room := range e.registry.List("") {
		if strings.HasPrefix(room.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("chatroom id %q is ambiguous", ref)
			}
			match = room.ID
		}
	}
	if match == "" {
		return "", &NotFoundError{Resource: "chatroom", ID: ref}
	}
	return match, nil
}

// Close releases storage then the log. Errors are joined.
func (e *env) Close() error {
	var errs []error
	for _, c := range e.closers {
		if err := c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
