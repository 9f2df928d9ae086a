// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CookieName is the session cookie set after a successful login.
const CookieName = "chatweb_session"

// tokenFromRequest returns the bearer token or the session cookie value.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// authenticated reports whether r carries a valid login for an unlocked app.
func (s *Server) authenticated(r *http.Request) bool {
	token := tokenFromRequest(r)
	if token == "" || !s.app.Unlocked() {
		return false
	}
	_, err := s.tokens.Validate(token)
	return err == nil
}

// RequireAuth rejects requests without a valid login. Pages redirect to
// /login; API requests get a 401 JSON error.
func (s *Server) RequireAuth(api bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.authenticated(r) {
				next.ServeHTTP(w, r)
				return
			}
			if api {
				s.writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		})
	}
}

// login checks code and issues a token. The returned status is 200, 401 or
// 429.
func (s *Server) login(r *http.Request, code string) (string, time.Time, int) {
	ip := GetClientIP(r)
	if !s.limiter.Allow(ip) {
		s.logger.Warn("login rate limited", zap.String("remote_addr", ip))
		return "", time.Time{}, http.StatusTooManyRequests
	}
	if err := s.app.Unlock(code); err != nil {
		s.logger.Warn("login failed", zap.String("remote_addr", ip))
		return "", time.Time{}, http.StatusUnauthorized
	}
	token, expires, err := s.tokens.Issue("web")
	if err != nil {
		s.logger.Error("failed to issue token", zap.Error(err))
		return "", time.Time{}, http.StatusInternalServerError
	}
	s.logger.Info("login", zap.String("remote_addr", ip))
	return token, expires, http.StatusOK
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
