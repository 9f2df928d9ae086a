// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jeranaias/chatweb/internal/app"
	"github.com/jeranaias/chatweb/internal/auth"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// MaxRequestBodySize bounds form and JSON bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// shutdownTimeout bounds the graceful shutdown.
	shutdownTimeout = 10 * time.Second
)

// ============================================================================
// SERVER
// ============================================================================

// Server serves the web UI and the JSON API for one App.
type Server struct {
	app    *app.App
	tokens *auth.Tokens
	logger *zap.Logger

	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration

	limiter *loginLimiter
	ui      *uiState
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAddr overrides the listen address from the config.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithTokens replaces the login token service.
func WithTokens(t *auth.Tokens) Option {
	return func(s *Server) {
		if t != nil {
			s.tokens = t
		}
	}
}

// New creates a server for a.
func New(a *app.App, opts ...Option) (*Server, error) {
	cfg := a.Config()
	s := &Server{
		app:          a,
		logger:       a.Logger.Named("server"),
		addr:         cfg.Server.Addr,
		readTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		writeTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		limiter:      newLoginLimiter(cfg.Security.LoginRatePerMinute),
		ui:           newUIState(a.DefaultSettings()),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tokens == nil {
		t, err := auth.NewTokens(cfg.Security.AuthSessionDuration())
		if err != nil {
			return nil, err
		}
		s.tokens = t
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ReloadDefaults resets the web UI settings to the app defaults, keeping an
// API key the user entered in the browser.
func (s *Server) ReloadDefaults() {
	s.ui.reset(s.app.DefaultSettings())
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(Recoverer(s.logger))
	r.Use(RequestLogger(s.logger))
	r.Use(SecurityHeaders())
	r.Use(limitBody)

	// Public endpoints (pre-auth)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/static/*", s.handleStatic)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Post("/api/login", s.handleAPILogin)

	r.Group(func(r chi.Router) {
		r.Use(s.RequireAuth(false))
		r.Get("/", s.handleIndex)
		r.Post("/logout", s.handleLogout)
		r.Post("/chat", s.handleChat)
		r.Post("/settings", s.handleSettings)
		r.Post("/models/refresh", s.handleModelsRefresh)
		r.Post("/probe", s.handleProbe)
		r.Post("/probe/clear", s.handleProbeClear)
		r.Post("/history/clear", s.handleHistoryClear)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleSessionCreate)
			r.Post("/{sessionID}/select", s.handleSessionSelect)
			r.Post("/{sessionID}/rename", s.handleSessionRename)
			r.Post("/{sessionID}/delete", s.handleSessionDelete)
			r.Post("/{sessionID}/clear", s.handleSessionClear)
			r.Get("/{sessionID}/export/{format}", s.handleExport)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.RequireAuth(true))
		r.Get("/sessions", s.handleAPISessions)
		r.Get("/sessions/{sessionID}", s.handleAPISession)
		r.Post("/turn", s.handleAPITurn)
		r.Get("/models", s.handleAPIModels)
	})

	return r
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
		next.ServeHTTP(w, r)
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.readTimeout,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("server started", zap.String("addr", s.addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err, ok := <-serverErr:
		if !ok {
			return nil
		}
		return err
	}
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to write response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"unlocked": s.app.Unlocked(),
	})
}

// ============================================================================
// UI STATE
// ============================================================================

// uiState is the browser-side state of the single-user web UI: the
// settings sidebar and the outcome of the last action.
type uiState struct {
	mu       sync.Mutex
	settings app.Settings
	keySet   bool
	flash    string
	notice   string
}

func newUIState(s app.Settings) *uiState {
	return &uiState{settings: s}
}

func (u *uiState) get() app.Settings {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.settings
}

func (u *uiState) set(s app.Settings, keyFromUser bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.settings = s
	u.keySet = u.keySet || keyFromUser
}

func (u *uiState) reset(defaults app.Settings) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.keySet {
		defaults.APIKey = u.settings.APIKey
	}
	u.settings = defaults
}

// setFlash records an error to show once on the next page.
func (u *uiState) setFlash(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.flash = msg
}

// setNotice records a notice (the retry disclaimer) to show under the
// latest answer.
func (u *uiState) setNotice(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.notice = msg
}

// take returns and clears the flash; the notice stays until replaced.
func (u *uiState) take() (flash, notice string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	flash, u.flash = u.flash, ""
	return flash, u.notice
}
