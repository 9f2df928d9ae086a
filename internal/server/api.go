// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jeranaias/chatweb/internal/chat"
	"github.com/jeranaias/chatweb/internal/model"
)

// ============================================================================
// API TYPES
// ============================================================================

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Code string `json:"code"`
}

// LoginResponse carries a bearer token for the API.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TurnRequest is the body of POST /api/turn. Session defaults to the
// current session; Model and Search override the UI settings.
type TurnRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Prompt    string `json:"prompt"`
	Model     string `json:"model,omitempty"`
	Search    *bool  `json:"search,omitempty"`
}

// TurnResponse is the outcome of a turn.
type TurnResponse struct {
	SessionID string         `json:"session_id"`
	State     string         `json:"state"`
	Message   *model.Message `json:"message,omitempty"`
	Display   string         `json:"display,omitempty"`
	Retried   bool           `json:"retried"`
	Error     string         `json:"error,omitempty"`
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	token, expires, status := s.login(r, req.Code)
	switch status {
	case http.StatusOK:
		s.writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expires})
	case http.StatusTooManyRequests:
		w.Header().Set("Retry-After", s.limiter.retryAfter())
		s.writeError(w, status, "too many login attempts")
	case http.StatusUnauthorized:
		s.writeError(w, status, "wrong access code")
	default:
		s.writeError(w, status, "login failed")
	}
}

func (s *Server) handleAPISessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"sessions":           s.app.Registry.List(),
		"current_session_id": s.app.Registry.CurrentID(),
		"max_sessions":       s.app.Registry.Max(),
	})
}

func (s *Server) handleAPISession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.app.Registry.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleAPITurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	settings := s.ui.get()
	if m := strings.TrimSpace(req.Model); m != "" {
		settings.Model = m
	}
	if req.Search != nil {
		settings.SearchGrounding = *req.Search
	}
	id := req.SessionID
	if id == "" {
		id = s.app.Registry.CurrentID()
	}

	res, err := s.app.Turn(r.Context(), id, req.Prompt, settings)
	resp := TurnResponse{SessionID: id, State: res.State.String(), Retried: res.Retried}
	if err != nil {
		resp.Error = err.Error()
		s.writeJSON(w, turnStatus(err), resp)
		return
	}
	resp.Message = res.Message
	resp.Display = res.Display
	s.writeJSON(w, http.StatusOK, resp)
}

// turnStatus maps a turn failure to an HTTP status.
func turnStatus(err error) int {
	switch {
	case errors.Is(err, chat.ErrEmptyPrompt), errors.Is(err, chat.ErrMissingCredential):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrTurnInProgress):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleAPIModels(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "1" {
		s.app.Catalog.Refresh()
	}
	s.writeJSON(w, http.StatusOK, s.app.Models(r.Context(), s.ui.get().APIKey))
}
