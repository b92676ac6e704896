// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/jeranaias/chatspaces/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatspaces configuration.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Chat      ChatConfig      `toml:"chat"`
	Auth      AuthConfig      `toml:"auth"`
	Directory DirectoryConfig `toml:"directory"`
	UI        UIConfig        `toml:"ui"`
	Log       LogConfig       `toml:"log"`
}

// StorageConfig controls where and how state is persisted.
type StorageConfig struct {
	// Backend is "file", "sqlite" or "memory"
	Backend string `toml:"backend"`

	// DataDir holds the store, database and log file. "~" is expanded.
	DataDir string `toml:"data_dir"`

	// QuotaBytes caps total stored bytes (key + value) across all keys
	QuotaBytes int64 `toml:"quota_bytes"`

	// PersistChatrooms keeps the chatroom list across restarts
	PersistChatrooms bool `toml:"persist_chatrooms"`

	// CacheSize is the number of decoded chat logs kept in memory
	CacheSize int `toml:"cache_size"`
}

// ChatConfig controls the message pipeline.
type ChatConfig struct {
	PageSize      int      `toml:"page_size"`
	PersistCap    int      `toml:"persist_cap"`
	ReplyDelay    Duration `toml:"reply_delay"`
	MaxImageBytes int64    `toml:"max_image_bytes"`
	Persona       string   `toml:"persona"`
}

// AuthConfig controls the simulated OTP login.
type AuthConfig struct {
	// OTPMode is "fixed" (demo code) or "totp"
	OTPMode       string   `toml:"otp_mode"`
	DemoCode      string   `toml:"demo_code"`
	SendDelay     Duration `toml:"send_delay"`
	VerifyDelay   Duration `toml:"verify_delay"`
	AutofillDelay Duration `toml:"autofill_delay"`
}

// DirectoryConfig controls the country-code lookup.
type DirectoryConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light"
	Theme          string   `toml:"theme"`
	SearchDebounce Duration `toml:"search_debounce"`
	LoadDelay      Duration `toml:"load_delay"`

	// Markdown renders replies with glamour
	Markdown bool `toml:"markdown"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `toml:"level"`

	// File defaults to <data_dir>/chatspaces.log
	File string `toml:"file"`
}

// =============================================================================
// DURATION
// =============================================================================

// Duration is a time.Duration written as a string in TOML.
type Duration struct {
	time.Duration
}

// D wraps d.
func D(d time.Duration) Duration {
	return Duration{Duration: d}
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:          "file",
			DataDir:          "~/.chatspaces",
			QuotaBytes:       5 * 1024 * 1024,
			PersistChatrooms: true,
			CacheSize:        16,
		},
		Chat: ChatConfig{
			PageSize:      20,
			PersistCap:    50,
			ReplyDelay:    D(2000 * time.Millisecond),
			MaxImageBytes: 5 * 1024 * 1024,
			Persona:       "Gemini",
		},
		Auth: AuthConfig{
			OTPMode:       "fixed",
			DemoCode:      "123456",
			SendDelay:     D(1500 * time.Millisecond),
			VerifyDelay:   D(1500 * time.Millisecond),
			AutofillDelay: D(1000 * time.Millisecond),
		},
		Directory: DirectoryConfig{
			URL:     "https://restcountries.com/v2/all",
			Timeout: D(10 * time.Second),
		},
		UI: UIConfig{
			Theme:          "auto",
			SearchDebounce: D(400 * time.Millisecond),
			LoadDelay:      D(800 * time.Millisecond),
			Markdown:       true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatspaces configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatspaces"), nil
}

// DefaultPath returns the path to the default TOML config file.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// LogFile returns the effective log file path.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.Storage.DataDir, "chatspaces.log")
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file at path (DefaultPath when empty), then applies
// .env and environment overrides, fills defaults and validates. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	LoadDotEnv(".env")
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes the TOML file at path over cfg. Keys absent from the file
// keep their current values.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadDotEnv loads path into the process environment if it exists. Variables
// already set are left alone.
func LoadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
	}
}

// Finalize fills defaults, expands paths and validates.
func (c *Config) Finalize() error {
	fillDefaults(c)
	dir, err := ExpandHome(c.Storage.DataDir)
	if err != nil {
		return err
	}
	c.Storage.DataDir = dir
	if c.Log.File != "" {
		if c.Log.File, err = ExpandHome(c.Log.File); err != nil {
			return err
		}
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = defaults.Storage.DataDir
	}
	if cfg.Storage.QuotaBytes == 0 {
		cfg.Storage.QuotaBytes = defaults.Storage.QuotaBytes
	}
	if cfg.Storage.CacheSize == 0 {
		cfg.Storage.CacheSize = defaults.Storage.CacheSize
	}

	if cfg.Chat.PageSize == 0 {
		cfg.Chat.PageSize = defaults.Chat.PageSize
	}
	if cfg.Chat.PersistCap == 0 {
		cfg.Chat.PersistCap = defaults.Chat.PersistCap
	}
	if cfg.Chat.MaxImageBytes == 0 {
		cfg.Chat.MaxImageBytes = defaults.Chat.MaxImageBytes
	}
	if cfg.Chat.Persona == "" {
		cfg.Chat.Persona = defaults.Chat.Persona
	}

	if cfg.Auth.OTPMode == "" {
		cfg.Auth.OTPMode = defaults.Auth.OTPMode
	}
	if cfg.Auth.DemoCode == "" {
		cfg.Auth.DemoCode = defaults.Auth.DemoCode
	}

	if cfg.Directory.URL == "" {
		cfg.Directory.URL = defaults.Directory.URL
	}
	if cfg.Directory.Timeout.Duration == 0 {
		cfg.Directory.Timeout = defaults.Directory.Timeout
	}

	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.SearchDebounce.Duration == 0 {
		cfg.UI.SearchDebounce = defaults.UI.SearchDebounce
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// envOverrides lists the supported environment variables. Empty values mean
// "not set".
type envOverrides struct {
	DataDir        string        `env:"CHATSPACES_DATA_DIR"`
	StorageBackend string        `env:"CHATSPACES_STORAGE_BACKEND"`
	LogLevel       string        `env:"CHATSPACES_LOG_LEVEL"`
	ReplyDelay     time.Duration `env:"CHATSPACES_REPLY_DELAY"`
	DirectoryURL   string        `env:"CHATSPACES_DIRECTORY_URL"`
	OTPMode        string        `env:"CHATSPACES_OTP_MODE"`
}

// ApplyEnvOverrides applies CHATSPACES_* environment variables:
//   - CHATSPACES_DATA_DIR: overrides storage.data_dir
//   - CHATSPACES_STORAGE_BACKEND: overrides storage.backend
//   - CHATSPACES_LOG_LEVEL: overrides log.level
//   - CHATSPACES_REPLY_DELAY: overrides chat.reply_delay
//   - CHATSPACES_DIRECTORY_URL: overrides directory.url
//   - CHATSPACES_OTP_MODE: overrides auth.otp_mode
func (c *Config) ApplyEnvOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	if o.DataDir != "" {
		c.Storage.DataDir = o.DataDir
	}
	if o.StorageBackend != "" {
		c.Storage.Backend = o.StorageBackend
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.ReplyDelay > 0 {
		c.Chat.ReplyDelay = D(o.ReplyDelay)
	}
	if o.DirectoryURL != "" {
		c.Directory.URL = o.DirectoryURL
	}
	if o.OTPMode != "" {
		c.Auth.OTPMode = o.OTPMode
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Encode returns the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveTOML writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	body, err := cfg.Encode()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("# chatspaces configuration file\n")
	buf.WriteString("# Generated by chatspaces - edit with care\n\n")
	buf.Write(body)

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch strings.ToLower(c.Storage.Backend) {
	case "file", "sqlite", "memory":
	default:
		add("storage.backend", "invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend)
	}
	if c.Storage.QuotaBytes < 1024 && c.Storage.QuotaBytes >= 0 {
		add("storage.quota_bytes", "must be at least 1024 bytes (or negative to disable), got %d", c.Storage.QuotaBytes)
	}
	if c.Storage.CacheSize < 0 {
		add("storage.cache_size", "must not be negative")
	}

	if c.Chat.PageSize < 1 || c.Chat.PageSize > 100 {
		add("chat.page_size", "must be between 1 and 100, got %d", c.Chat.PageSize)
	}
	if c.Chat.PersistCap < 1 {
		add("chat.persist_cap", "must be at least 1, got %d", c.Chat.PersistCap)
	}
	if c.Chat.ReplyDelay.Duration <= 0 || c.Chat.ReplyDelay.Duration > time.Minute {
		add("chat.reply_delay", "must be positive and at most 1m, got %s", c.Chat.ReplyDelay)
	}
	if c.Chat.MaxImageBytes < 0 {
		add("chat.max_image_bytes", "must not be negative")
	}
	if strings.TrimSpace(c.Chat.Persona) == "" {
		add("chat.persona", "must not be blank")
	}

	switch c.Auth.OTPMode {
	case "fixed", "totp":
	default:
		add("auth.otp_mode", "invalid mode '%s', must be one of: fixed, totp", c.Auth.OTPMode)
	}
	if len(c.Auth.DemoCode) < 4 {
		add("auth.demo_code", "must be at least 4 characters")
	}
	for field, d := range map[string]Duration{
		"auth.send_delay":     c.Auth.SendDelay,
		"auth.verify_delay":   c.Auth.VerifyDelay,
		"auth.autofill_delay": c.Auth.AutofillDelay,
		"ui.load_delay":       c.UI.LoadDelay,
		"ui.search_debounce":  c.UI.SearchDebounce,
	} {
		if d.Duration < 0 {
			add(field, "must not be negative")
		}
	}

	if u, err := url.Parse(c.Directory.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("directory.url", "must be an http or https URL, got '%s'", c.Directory.URL)
	}
	if c.Directory.Timeout.Duration <= 0 {
		add("directory.timeout", "must be positive")
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme)
	}

	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "off":
	default:
		add("log.level", "invalid level '%s'", c.Log.Level)
	}

	if len(errs) > 0 {
		sortErrors(errs)
		return errs
	}
	return nil
}

func sortErrors(errs ValidateErrors) {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
}

// =============================================================================
// GET HELPER (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value by its TOML path (e.g. "chat.reply_delay").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if key == "" {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTOMLName(v, part)
		if !ok {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if d, ok := field.Interface().(Duration); ok {
				return d.String(), nil
			}
			return field.Interface(), nil
		}
		if field.Kind() != reflect.Struct {
			return nil, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return nil, fmt.Errorf("invalid key: %s", key)
}

func fieldByTOMLName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}
