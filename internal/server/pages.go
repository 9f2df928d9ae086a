// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jeranaias/chatweb/internal/app"
	"github.com/jeranaias/chatweb/internal/catalog"
	"github.com/jeranaias/chatweb/internal/chat"
	"github.com/jeranaias/chatweb/internal/export"
	"github.com/jeranaias/chatweb/internal/gemini"
	"github.com/jeranaias/chatweb/internal/model"
	"github.com/jeranaias/chatweb/internal/render"
	"github.com/jeranaias/chatweb/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pages = map[string]*template.Template{
	"login": parsePage("login"),
	"index": parsePage("index"),
}

var staticHandler = func() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}()

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
}

// probeBadges are the sidebar labels per probe status.
var probeBadges = map[chat.ProbeStatus]string{
	chat.ProbeOK:    "Search available",
	chat.ProbeMaybe: "Unclear (200 OK)",
	chat.ProbeNo:    "Search unsupported (likely)",
	chat.ProbeError: "Error",
	chat.ProbeNoKey: "Key required",
}

// ============================================================================
// VIEW MODELS
// ============================================================================

type messageView struct {
	Role     string
	Label    string
	HTML     template.HTML
	Sources  []model.Source
	Markdown string
	Plain    string
	Copyable bool
	Notice   string
}

type indexView struct {
	Settings    app.Settings
	KeySet      bool
	KeyMask     string
	Catalog     catalog.Catalog
	ProbeStatus string
	ProbeBadge  string
	ProbeDetail string
	Sessions    []session.Summary
	MaxSessions int
	SuggestName string
	Current     model.Session
	Messages    []messageView
	Busy        bool
	Flash       string
	Formats     []string
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("template failed", zap.String("page", page), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) indexView(r *http.Request) indexView {
	settings := s.ui.get()
	flash, notice := s.ui.take()
	current := s.app.Registry.Current()

	v := indexView{
		Settings:    settings,
		KeySet:      settings.APIKey != "",
		Catalog:     s.app.Models(r.Context(), settings.APIKey),
		ProbeStatus: "UNTESTED",
		ProbeBadge:  "Untested",
		Sessions:    s.app.Registry.List(),
		MaxSessions: s.app.Registry.Max(),
		SuggestName: s.app.Registry.SuggestName(),
		Current:     current,
		Busy:        s.app.Controller.Busy(current.ID),
		Flash:       flash,
		Formats:     export.Formats,
	}
	if v.KeySet {
		v.KeyMask = gemini.MaskKey(settings.APIKey)
	}
	if p, ok := s.app.Probes.Get(settings.APIKey, settings.Model); ok {
		v.ProbeStatus = string(p.Status)
		v.ProbeBadge = probeBadges[p.Status]
		v.ProbeDetail = p.Detail
	}

	for i, msg := range current.Messages {
		mv := messageView{
			Role:    string(msg.Role),
			Label:   msg.Role.DisplayName(),
			HTML:    render.HTML(msg.Content),
			Sources: msg.Sources,
		}
		if msg.Role == model.RoleAssistant {
			mv.Copyable = true
			mv.Markdown = msg.Content
			mv.Plain = render.PlainText(msg.Content)
			if i == len(current.Messages)-1 {
				mv.Notice = notice
			}
		}
		v.Messages = append(v.Messages, mv)
	}
	return v
}

// ============================================================================
// HANDLERS: LOGIN
// ============================================================================

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	staticHandler.ServeHTTP(w, r)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.authenticated(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "login", map[string]string{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	token, expires, status := s.login(r, r.PostFormValue("code"))
	switch status {
	case http.StatusOK:
		s.setSessionCookie(w, r, token, expires)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case http.StatusTooManyRequests:
		w.Header().Set("Retry-After", s.limiter.retryAfter())
		s.render(w, status, "login", map[string]string{"Error": "Too many attempts. Try again later."})
	case http.StatusUnauthorized:
		s.render(w, status, "login", map[string]string{"Error": "Wrong Code"})
	default:
		s.render(w, status, "login", map[string]string{"Error": "Login failed."})
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ============================================================================
// HANDLERS: CHAT
// ============================================================================

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index", s.indexView(r))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	prompt := r.PostFormValue("prompt")
	id := s.app.Registry.CurrentID()

	s.ui.setNotice("")
	res, err := s.app.Turn(r.Context(), id, prompt, s.ui.get())
	if errors.Is(err, chat.ErrTurnInProgress) {
		s.ui.setFlash(err.Error())
		s.render(w, http.StatusConflict, "index", s.indexView(r))
		return
	}
	if err != nil {
		s.ui.setFlash(err.Error())
	} else if res.Retried {
		s.ui.setNotice(strings.TrimSpace(strings.TrimPrefix(res.Display, res.Message.Content)))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.ui.setFlash("Invalid form.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	settings, keyChanged, err := applySettingsForm(s.ui.get(), r)
	if err != nil {
		s.ui.setFlash(err.Error())
	} else {
		s.ui.set(settings, keyChanged)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// applySettingsForm overlays the submitted sidebar values on cur. An empty
// API key field keeps the current key.
func applySettingsForm(cur app.Settings, r *http.Request) (app.Settings, bool, error) {
	out := cur
	keyChanged := false
	if key := strings.TrimSpace(r.PostFormValue("api_key")); key != "" {
		out.APIKey = key
		keyChanged = true
	}
	if m := strings.TrimSpace(r.PostFormValue("model")); m != "" {
		out.Model = m
	}
	out.SearchGrounding = r.PostFormValue("search") == "on"
	out.SystemInstruction = strings.TrimSpace(r.PostFormValue("system_instruction"))

	if v := r.PostFormValue("temperature"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 2 {
			return cur, false, errors.New("temperature must be between 0 and 2")
		}
		out.Temperature = f
	}
	if v := r.PostFormValue("top_p"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return cur, false, errors.New("top_p must be between 0 and 1")
		}
		out.TopP = f
	}
	if v := r.PostFormValue("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cur, false, errors.New("top_k must be a non-negative integer")
		}
		out.TopK = n
	}
	if v := r.PostFormValue("max_tokens"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cur, false, errors.New("max output tokens must be a positive integer")
		}
		out.MaxOutputTokens = n
	}
	return out, keyChanged, nil
}

func (s *Server) handleModelsRefresh(w http.ResponseWriter, r *http.Request) {
	s.app.Catalog.Refresh()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	p := s.app.Probe(r.Context(), s.ui.get())
	s.logger.Info("search probe", zap.String("model", p.Model), zap.String("status", string(p.Status)))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleProbeClear(w http.ResponseWriter, r *http.Request) {
	s.app.Probes.Clear()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	if err := s.app.ClearHistory(); err != nil {
		s.ui.setFlash("Failed to clear history: " + err.Error())
	}
	s.ui.setNotice("")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ============================================================================
// HANDLERS: SESSIONS
// ============================================================================

// sessionFlash turns a session operation error into a sidebar message.
func sessionFlash(err error) string {
	switch {
	case errors.Is(err, session.ErrEmptyName):
		return "Enter a project name."
	case errors.Is(err, session.ErrDuplicateName):
		return "A project with that name already exists."
	case errors.Is(err, session.ErrSessionLimit):
		return "Project limit reached."
	case errors.Is(err, session.ErrNotFound):
		return "Project not found."
	default:
		return err.Error()
	}
}

func (s *Server) sessionAction(w http.ResponseWriter, r *http.Request, op func(id string) error) {
	if err := op(chi.URLParam(r, "sessionID")); err != nil {
		s.ui.setFlash(sessionFlash(err))
	}
	s.ui.setNotice("")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	if _, err := s.app.CreateSession(r.PostFormValue("name")); err != nil {
		s.ui.setFlash(sessionFlash(err))
	}
	s.ui.setNotice("")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSessionSelect(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, s.app.SelectSession)
}

func (s *Server) handleSessionRename(w http.ResponseWriter, r *http.Request) {
	title := r.PostFormValue("title")
	s.sessionAction(w, r, func(id string) error { return s.app.RenameSession(id, title) })
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, s.app.DeleteSession)
}

func (s *Server) handleSessionClear(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, s.app.ClearSession)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.app.Registry.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	exp, err := export.ForFormat(chi.URLParam(r, "format"), export.DefaultOptions())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := exp.Export(&sess)
	if err != nil {
		s.logger.Error("export failed", zap.String("session_id", sess.ID), zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	name := export.Filename(&sess, exp, time.Now())
	w.Header().Set("Content-Type", exp.MimeType()+"; charset=utf-8")
	w.Header().Set("Content-Disposition", mimeAttachment(name))
	_, _ = w.Write(data)
}

// mimeAttachment builds a Content-Disposition value with an RFC 5987
// filename* for non-ASCII titles.
func mimeAttachment(name string) string {
	ascii := strings.Map(func(r rune) rune {
		if r > 126 || r < 32 || r == '"' {
			return '_'
		}
		return r
	}, name)
	return `attachment; filename="` + ascii + `"; filename*=UTF-8''` + url.PathEscape(name)
}
