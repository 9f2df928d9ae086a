// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/chatweb/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatweb configuration.
type Config struct {
	API        APIConfig        `toml:"api" json:"api" yaml:"api"`
	Generation GenerationConfig `toml:"generation" json:"generation" yaml:"generation"`
	Storage    StorageConfig    `toml:"storage" json:"storage" yaml:"storage"`
	Security   SecurityConfig   `toml:"security" json:"security" yaml:"security"`
	Server     ServerConfig     `toml:"server" json:"server" yaml:"server"`
	Logging    LoggingConfig    `toml:"logging" json:"logging" yaml:"logging"`
}

// APIConfig holds Gemini API settings.
type APIConfig struct {
	// Key is the default API key. Surfaces may override it per request.
	Key string `toml:"key" json:"key" yaml:"key"`

	BaseURL string `toml:"base_url" json:"base_url" yaml:"base_url"`

	// Backend selects the generator: "rest" or "sdk".
	Backend string `toml:"backend" json:"backend" yaml:"backend"`

	TimeoutSeconds        int `toml:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds"`
	ListTimeoutSeconds    int `toml:"list_timeout_seconds" json:"list_timeout_seconds" yaml:"list_timeout_seconds"`
	ModelsCacheTTLSeconds int `toml:"models_cache_ttl_seconds" json:"models_cache_ttl_seconds" yaml:"models_cache_ttl_seconds"`
}

// GenerationConfig holds the default per-turn settings.
type GenerationConfig struct {
	Model             string            `toml:"model" json:"model" yaml:"model"`
	Temperature       float64           `toml:"temperature" json:"temperature" yaml:"temperature"`
	TopP              float64           `toml:"top_p" json:"top_p" yaml:"top_p"`
	TopK              int               `toml:"top_k" json:"top_k" yaml:"top_k"`
	MaxOutputTokens   int               `toml:"max_output_tokens" json:"max_output_tokens" yaml:"max_output_tokens"`
	SystemInstruction string            `toml:"system_instruction" json:"system_instruction" yaml:"system_instruction"`
	HistoryWindow     int               `toml:"history_window" json:"history_window" yaml:"history_window"`
	SearchGrounding   bool              `toml:"search_grounding" json:"search_grounding" yaml:"search_grounding"`
	Safety            map[string]string `toml:"safety,omitempty" json:"safety,omitempty" yaml:"safety,omitempty"`
}

// StorageConfig holds history file settings.
type StorageConfig struct {
	HistoryFile string `toml:"history_file" json:"history_file" yaml:"history_file"`
	MaxSessions int    `toml:"max_sessions" json:"max_sessions" yaml:"max_sessions"`
}

// SecurityConfig holds access gate settings.
type SecurityConfig struct {
	// AccessCode unlocks the app. It is also the history obfuscation key,
	// so changing it makes an existing history file unreadable.
	AccessCode string `toml:"access_code" json:"access_code" yaml:"access_code"`

	AuthSessionHours int `toml:"auth_session_hours" json:"auth_session_hours" yaml:"auth_session_hours"`

	// LoginRatePerMinute limits login attempts per remote IP; 0 disables.
	LoginRatePerMinute int `toml:"login_rate_per_minute" json:"login_rate_per_minute" yaml:"login_rate_per_minute"`
}

// ServerConfig holds web server settings.
type ServerConfig struct {
	Addr                string `toml:"addr" json:"addr" yaml:"addr"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds" json:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds" json:"write_timeout_seconds" yaml:"write_timeout_seconds"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `toml:"level" json:"level" yaml:"level"`
	Format string `toml:"format" json:"format" yaml:"format"`
	File   string `toml:"file" json:"file" yaml:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default values.
const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel       = "gemini-1.5-flash"
	DefaultAccessCode  = "1111"
	DefaultAddr        = "127.0.0.1:8501"
	DefaultHistoryFile = "~/.chatweb/system_log.dat"

	BackendREST = "rest"
	BackendSDK  = "sdk"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:               DefaultBaseURL,
			Backend:               BackendREST,
			TimeoutSeconds:        60,
			ListTimeoutSeconds:    15,
			ModelsCacheTTLSeconds: 600,
		},
		Generation: GenerationConfig{
			Model:           DefaultModel,
			Temperature:     0.7,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 4096,
			HistoryWindow:   10,
			SearchGrounding: true,
		},
		Storage: StorageConfig{
			HistoryFile: DefaultHistoryFile,
			MaxSessions: 10,
		},
		Security: SecurityConfig{
			AccessCode:       DefaultAccessCode,
			AuthSessionHours: 12,
		},
		Server: ServerConfig{
			Addr:                DefaultAddr,
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Timeout returns the generate call timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// ListTimeout returns the model list timeout.
func (a APIConfig) ListTimeout() time.Duration {
	return time.Duration(a.ListTimeoutSeconds) * time.Second
}

// ModelsCacheTTL returns how long a model list is cached.
func (a APIConfig) ModelsCacheTTL() time.Duration {
	return time.Duration(a.ModelsCacheTTLSeconds) * time.Second
}

// AuthSessionDuration returns the lifetime of a web login.
func (s SecurityConfig) AuthSessionDuration() time.Duration {
	return time.Duration(s.AuthSessionHours) * time.Hour
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatweb configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatweb"), nil
}

// DefaultPath returns ~/.chatweb/config.toml.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// candidatePaths lists the files Load tries, in order.
func candidatePaths() []string {
	dir, err := ConfigDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(dir, "config.toml"),
		filepath.Join(dir, "config.json"),
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "config.yml"),
	}
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load finds the first existing file in ~/.chatweb (config.toml, then
// config.json, then config.yaml) and loads it with LoadFromPath. Without a
// file it returns the defaults with environment overrides applied. The
// returned string is the file used, or "".
func Load() (*Config, string, error) {
	for _, path := range candidatePaths() {
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadFromPath(path)
			return cfg, path, err
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, "", nil
}

// LoadFromPath loads the file at path over the defaults, applies
// environment overrides and validates. The format follows the extension;
// anything other than .json, .yaml or .yml is read as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// decodeFile reads path over Default() without overrides or validation.
func decodeFile(path string) (*Config, error) {
	// SECURITY: Check and fix file permissions if needed
	if err := ensureSecurePermissions(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	switch formatOf(path) {
	case "json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON config %s: %w", path, err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode YAML config %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML config %s: %w", path, err)
		}
	}
	return cfg, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "toml"
	}
}

// SetDefaults fills zero values that have no meaningful zero.
func (c *Config) SetDefaults() {
	d := Default()

	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.Backend == "" {
		c.API.Backend = d.API.Backend
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = d.API.TimeoutSeconds
	}
	if c.API.ListTimeoutSeconds == 0 {
		c.API.ListTimeoutSeconds = d.API.ListTimeoutSeconds
	}
	if c.API.ModelsCacheTTLSeconds == 0 {
		c.API.ModelsCacheTTLSeconds = d.API.ModelsCacheTTLSeconds
	}

	if c.Generation.Model == "" {
		c.Generation.Model = d.Generation.Model
	}
	if c.Generation.HistoryWindow == 0 {
		c.Generation.HistoryWindow = d.Generation.HistoryWindow
	}

	if c.Storage.HistoryFile == "" {
		c.Storage.HistoryFile = d.Storage.HistoryFile
	}
	if c.Storage.MaxSessions == 0 {
		c.Storage.MaxSessions = d.Storage.MaxSessions
	}

	if c.Security.AuthSessionHours == 0 {
		c.Security.AuthSessionHours = d.Security.AuthSessionHours
	}

	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = d.Server.ReadTimeoutSeconds
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = d.Server.WriteTimeoutSeconds
	}

	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to path in the format given by its extension.
// SECURITY: Files are written atomically with 0600 permissions.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer

	switch formatOf(path) {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	default:
		fmt.Fprintln(&buf, "# chatweb configuration file")
		fmt.Fprintln(&buf, "# Generated by chatweb - edit with care")
		fmt.Fprintln(&buf, "")
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	}

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
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field failed validation.
func (e ValidationErrors) Has(field string) bool {
	for _, v := range e {
		if v.Field == field {
			return true
		}
	}
	return false
}

// Validate checks every field and returns ValidationErrors, or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field string, value interface{}, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	// API
	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("api.base_url", c.API.BaseURL, "must be an absolute http or https URL")
	}
	if c.API.Backend != BackendREST && c.API.Backend != BackendSDK {
		add("api.backend", c.API.Backend, "must be one of: rest, sdk")
	}
	if c.API.TimeoutSeconds < 1 || c.API.TimeoutSeconds > 600 {
		add("api.timeout_seconds", c.API.TimeoutSeconds, "must be between 1 and 600")
	}
	if c.API.ListTimeoutSeconds < 1 || c.API.ListTimeoutSeconds > 120 {
		add("api.list_timeout_seconds", c.API.ListTimeoutSeconds, "must be between 1 and 120")
	}
	if c.API.ModelsCacheTTLSeconds < 0 {
		add("api.models_cache_ttl_seconds", c.API.ModelsCacheTTLSeconds, "must not be negative")
	}

	// Generation
	g := c.Generation
	if strings.TrimSpace(g.Model) == "" {
		add("generation.model", g.Model, "must not be empty")
	}
	if g.Temperature < 0 || g.Temperature > 2 {
		add("generation.temperature", g.Temperature, "must be between 0 and 2")
	}
	if g.TopP < 0 || g.TopP > 1 {
		add("generation.top_p", g.TopP, "must be between 0 and 1")
	}
	if g.TopK < 0 {
		add("generation.top_k", g.TopK, "must not be negative")
	}
	if g.MaxOutputTokens < 0 || g.MaxOutputTokens > 65536 {
		add("generation.max_output_tokens", g.MaxOutputTokens, "must be between 0 and 65536")
	}
	if g.HistoryWindow < 1 || g.HistoryWindow > 100 {
		add("generation.history_window", g.HistoryWindow, "must be between 1 and 100")
	}
	for category, threshold := range g.Safety {
		if category == "" || threshold == "" {
			add("generation.safety", category+"="+threshold, "category and threshold must not be empty")
		}
	}

	// Storage
	if strings.TrimSpace(c.Storage.HistoryFile) == "" {
		add("storage.history_file", c.Storage.HistoryFile, "must not be empty")
	}
	if c.Storage.MaxSessions < 1 || c.Storage.MaxSessions > 100 {
		add("storage.max_sessions", c.Storage.MaxSessions, "must be between 1 and 100")
	}

	// Security
	if c.Security.AccessCode == "" {
		add("security.access_code", "", "must not be empty")
	} else if len(c.Security.AccessCode) > 72 {
		add("security.access_code", "[REDACTED]", "must be at most 72 bytes")
	}
	if c.Security.AuthSessionHours < 1 || c.Security.AuthSessionHours > 720 {
		add("security.auth_session_hours", c.Security.AuthSessionHours, "must be between 1 and 720")
	}
	if c.Security.LoginRatePerMinute < 0 {
		add("security.login_rate_per_minute", c.Security.LoginRatePerMinute, "must not be negative")
	}

	// Server
	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		add("server.addr", c.Server.Addr, "must be host:port")
	}
	if c.Server.ReadTimeoutSeconds < 1 {
		add("server.read_timeout_seconds", c.Server.ReadTimeoutSeconds, "must be positive")
	}
	if c.Server.WriteTimeoutSeconds < 1 {
		add("server.write_timeout_seconds", c.Server.WriteTimeoutSeconds, "must be positive")
	}

	// Logging
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level", c.Logging.Level, "must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		add("logging.format", c.Logging.Format, "must be one of: console, json")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CHATWEB_API_KEY (falls back to GEMINI_API_KEY): api.key
//   - CHATWEB_BACKEND: api.backend
//   - CHATWEB_MODEL: generation.model
//   - CHATWEB_SEARCH: generation.search_grounding ("1", "true", "0", "false")
//   - CHATWEB_HISTORY_FILE: storage.history_file
//   - CHATWEB_ACCESS_CODE: security.access_code
//   - CHATWEB_ADDR: server.addr
//   - CHATWEB_LOG_LEVEL: logging.level
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("CHATWEB_API_KEY"); key != "" {
		c.API.Key = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.API.Key = key
	}

	if backend := os.Getenv("CHATWEB_BACKEND"); backend != "" {
		c.API.Backend = strings.ToLower(backend)
	}

	if model := os.Getenv("CHATWEB_MODEL"); model != "" {
		c.Generation.Model = model
	}

	if search := os.Getenv("CHATWEB_SEARCH"); search != "" {
		if v, err := strconv.ParseBool(search); err == nil {
			c.Generation.SearchGrounding = v
		}
	}

	if path := os.Getenv("CHATWEB_HISTORY_FILE"); path != "" {
		c.Storage.HistoryFile = path
	}

	if code := os.Getenv("CHATWEB_ACCESS_CODE"); code != "" {
		c.Security.AccessCode = code
	}

	if addr := os.Getenv("CHATWEB_ADDR"); addr != "" {
		c.Server.Addr = addr
	}

	if level := os.Getenv("CHATWEB_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
}

// =============================================================================
// KEYS
// =============================================================================

// Get returns the value at a dotted key such as "generation.top_p". Keys use
// the file names of the fields.
func (c *Config) Get(key string) (any, error) {
	field, err := c.field(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set parses value into the field at key. It does not validate.
func (c *Config) Set(key, value string) error {
	field, err := c.field(key)
	if err != nil {
		return err
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, value)
		}
		field.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", key, value)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %q is not true or false", key, value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("%s cannot be set from the command line", key)
	}
	return nil
}

func (c *Config) field(key string) (reflect.Value, error) {
	section, name, ok := strings.Cut(strings.TrimSpace(key), ".")
	if !ok || section == "" || name == "" {
		return reflect.Value{}, fmt.Errorf("invalid key %q: want section.name", key)
	}
	v := reflect.ValueOf(c).Elem()
	sec, ok := byTag(v, section)
	if !ok || sec.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("unknown section %q", section)
	}
	f, ok := byTag(sec, name)
	if !ok {
		return reflect.Value{}, fmt.Errorf("unknown key %q", key)
	}
	return f, nil
}

// byTag finds the field of struct v whose toml name is name.
func byTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tomlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	return name
}

// Keys returns every scalar key in file order.
func Keys() []string {
	var keys []string
	root := reflect.TypeOf(Config{})
	for i := 0; i < root.NumField(); i++ {
		sec := root.Field(i)
		for j := 0; j < sec.Type.NumField(); j++ {
			f := sec.Type.Field(j)
			if f.Type.Kind() == reflect.Map {
				continue
			}
			keys = append(keys, tomlName(sec)+"."+tomlName(f))
		}
	}
	return keys
}

// secretKeys are redacted by String and by the CLI.
var secretKeys = map[string]bool{
	"api.key":              true,
	"security.access_code": true,
}

// IsSecret reports whether key holds a credential.
func IsSecret(key string) bool {
	return secretKeys[key]
}

// Update sets key in the file at path and writes it back. Environment
// overrides are not applied, so they never leak into the file.
func Update(path, key, value string) error {
	cfg, err := decodeFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	return Save(cfg, path)
}

// =============================================================================
// COPY / DISPLAY
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Generation.Safety != nil {
		clone.Generation.Safety = make(map[string]string, len(c.Generation.Safety))
		for k, v := range c.Generation.Safety {
			clone.Generation.Safety[k] = v
		}
	}
	return &clone
}

// String returns a JSON rendering with the API key and access code redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.API.Key != "" {
		safe.API.Key = "[REDACTED]"
	}
	if safe.Security.AccessCode != "" {
		safe.Security.AccessCode = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
