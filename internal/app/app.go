// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires the configuration into the shared core used by every
// surface: the history store, the session registry, the turn controller,
// the model catalog and the access gate.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/chatweb/internal/auth"
	"github.com/jeranaias/chatweb/internal/catalog"
	"github.com/jeranaias/chatweb/internal/chat"
	"github.com/jeranaias/chatweb/internal/codec"
	"github.com/jeranaias/chatweb/internal/config"
	"github.com/jeranaias/chatweb/internal/gemini"
	"github.com/jeranaias/chatweb/internal/session"
	"github.com/jeranaias/chatweb/internal/storage"
	"github.com/jeranaias/chatweb/internal/util"
)

// ErrAccessDenied is returned by Unlock for a wrong access code.
var ErrAccessDenied = errors.New("access denied")

// App is the core shared by the web server, the CLI and the TUI.
type App struct {
	Logger     *zap.Logger
	Store      *storage.Store
	Registry   *session.Registry
	Controller *chat.Controller
	Catalog    *catalog.Resolver
	Gate       *auth.Gate
	Probes     *chat.ProbeCache
	Generator  gemini.Generator

	cfgMu sync.RWMutex
	cfg   *config.Config

	unlockMu sync.Mutex
	loaded   bool
}

// Option configures New.
type Option func(*options)

type options struct {
	generator gemini.Generator
	lister    gemini.ModelLister
}

// WithGenerator replaces the generator chosen by api.backend.
func WithGenerator(g gemini.Generator) Option {
	return func(o *options) { o.generator = g }
}

// WithLister replaces the model lister.
func WithLister(l gemini.ModelLister) Option {
	return func(o *options) { o.lister = l }
}

// New builds the application core from cfg. The history file is not read
// until the first successful Unlock.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c, err := codec.New(cfg.Security.AccessCode)
	if err != nil {
		return nil, fmt.Errorf("history codec: %w", err)
	}
	gate, err := auth.NewGate(cfg.Security.AccessCode)
	if err != nil {
		return nil, fmt.Errorf("access gate: %w", err)
	}

	client := gemini.NewClient().
		WithBaseURL(cfg.API.BaseURL).
		WithTimeout(cfg.API.Timeout()).
		WithLogger(logger.Named("gemini"))

	gen := o.generator
	if gen == nil {
		gen = newGenerator(cfg, client, logger)
	}
	var lister gemini.ModelLister = client
	if o.lister != nil {
		lister = o.lister
	}

	store := storage.NewStore(util.ExpandHome(cfg.Storage.HistoryFile), c,
		storage.WithLogger(logger.Named("storage")))

	a := &App{
		Logger:    logger,
		Store:     store,
		Registry:  session.NewRegistry(session.WithMaxSessions(cfg.Storage.MaxSessions)),
		Gate:      gate,
		Probes:    chat.NewProbeCache(),
		Generator: gen,
		cfg:       cfg.Clone(),
		Catalog: catalog.New(lister,
			catalog.WithTTL(cfg.API.ModelsCacheTTL()),
			catalog.WithTimeout(cfg.API.ListTimeout()),
			catalog.WithLogger(logger.Named("catalog"))),
	}
	a.Controller = chat.NewController(gen, store, chat.WithLogger(logger.Named("chat")))
	return a, nil
}

func newGenerator(cfg *config.Config, client *gemini.Client, logger *zap.Logger) gemini.Generator {
	if cfg.API.Backend != config.BackendSDK {
		return client
	}
	logger.Info("using genai sdk backend")
	return gemini.NewSDKGenerator(sdkBaseURL(cfg.API.BaseURL),
		&http.Client{Timeout: cfg.API.Timeout()},
		logger.Named("gemini"))
}

// sdkBaseURL converts the REST root into the SDK's host root; the SDK adds
// the API version itself.
func sdkBaseURL(base string) string {
	base = strings.TrimSuffix(base, "/")
	if base == config.DefaultBaseURL {
		return ""
	}
	return strings.TrimSuffix(base, "/v1beta")
}

// =============================================================================
// ACCESS
// =============================================================================

// Unlock checks code against the access gate. The first success loads the
// history file into the registry; later successes keep the in-memory state.
// When the load had to mint session ids the state is saved right away so
// the ids survive a restart.
func (a *App) Unlock(code string) error {
	if !a.Gate.Check(code) {
		a.Logger.Warn("access denied")
		return ErrAccessDenied
	}

	a.unlockMu.Lock()
	defer a.unlockMu.Unlock()
	if a.loaded {
		return nil
	}
	st, stable := a.Store.LoadChecked()
	a.Registry.Replace(st)
	a.loaded = true
	if !stable {
		_ = a.Persist()
	}
	a.Logger.Info("history loaded",
		zap.String("path", a.Store.Path()),
		zap.Int("sessions", len(st.Sessions)))
	return nil
}

// Unlocked reports whether history has been loaded.
func (a *App) Unlocked() bool {
	a.unlockMu.Lock()
	defer a.unlockMu.Unlock()
	return a.loaded
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Persist saves the registry. Failures are logged and returned; callers
// normally ignore them.
func (a *App) Persist() error {
	if err := a.Store.Save(a.Registry.State()); err != nil {
		a.Logger.Warn("failed to save history", zap.Error(err))
		return err
	}
	return nil
}

// ClearHistory deletes the history file and resets the registry to a
// single empty session.
func (a *App) ClearHistory() error {
	if err := a.Store.Clear(); err != nil {
		return err
	}
	a.Registry.Reset()
	a.Probes.Clear()
	a.Logger.Info("history cleared")
	return nil
}

// =============================================================================
// CONFIG
// =============================================================================

// Config returns a copy of the current configuration.
func (a *App) Config() *config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.cfg.Clone()
}

// ApplyConfig swaps in cfg's generation defaults. Settings that shape the
// wiring (access code, history file, backend) need a restart.
func (a *App) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.cfgMu.Lock()
	a.cfg.Generation = cfg.Generation
	a.cfg.API.Key = cfg.API.Key
	a.cfgMu.Unlock()
	a.Logger.Info("generation defaults reloaded", zap.String("model", cfg.Generation.Model))
}

// =============================================================================
// TURNS
// =============================================================================

// Turn runs one turn on sessionID with settings s.
func (a *App) Turn(ctx context.Context, sessionID, prompt string, s Settings) (*chat.Result, error) {
	return a.Controller.Run(ctx, a.Registry, sessionID, prompt, a.TurnOptions(s))
}

// Models resolves the model catalog for apiKey.
func (a *App) Models(ctx context.Context, apiKey string) catalog.Catalog {
	return a.Catalog.Resolve(ctx, apiKey)
}

// Probe runs and caches a search probe for the settings' key and model.
func (a *App) Probe(ctx context.Context, s Settings) chat.Probe {
	return a.Probes.Run(ctx, a.Generator, s.APIKey, s.Model)
}

// safetySettings returns the configured thresholds ordered by category.
func safetySettings(m map[string]string) []gemini.SafetySetting {
	if len(m) == 0 {
		return nil
	}
	out := make([]gemini.SafetySetting, 0, len(m))
	for cat, th := range m {
		out = append(out, gemini.SafetySetting{Category: cat, Threshold: th})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
