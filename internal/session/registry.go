// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jeranaias/chatweb/internal/model"
)

// DefaultMaxSessions is the creation cap applied when none is configured.
const DefaultMaxSessions = 10

// =============================================================================
// REGISTRY
// =============================================================================

// Registry is the ordered collection of sessions plus the current pointer.
// It is safe for concurrent use. It never persists on its own.
type Registry struct {
	mu sync.RWMutex

	sessions    []*model.Session
	currentID   string
	maxSessions int
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxSessions sets the creation cap. Values below 1 are ignored.
func WithMaxSessions(n int) Option {
	return func(r *Registry) {
		if n >= 1 {
			r.maxSessions = n
		}
	}
}

// NewRegistry creates a registry holding one empty default session.
func NewRegistry(opts ...Option) *Registry {
	return FromState(DefaultState(), opts...)
}

// FromState creates a registry from a loaded state. The state is normalized
// first, so a malformed snapshot still yields a valid registry.
func FromState(st State, opts ...Option) *Registry {
	r := &Registry{maxSessions: DefaultMaxSessions}
	for _, opt := range opts {
		opt(r)
	}
	r.load(st)
	return r
}

func (r *Registry) load(st State) {
	st = st.Normalize()
	r.sessions = make([]*model.Session, len(st.Sessions))
	for i := range st.Sessions {
		s := st.Sessions[i]
		r.sessions[i] = &s
	}
	r.currentID = st.CurrentSessionID
}

// State returns a deep-copied snapshot for persistence.
func (r *Registry) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := State{
		Sessions:         make([]model.Session, len(r.sessions)),
		CurrentSessionID: r.currentID,
	}
	for i, s := range r.sessions {
		st.Sessions[i] = s.Clone()
	}
	return st
}

// Replace swaps the whole registry content for st.
func (r *Registry) Replace(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(st)
}

// Reset returns the registry to the default single empty session.
func (r *Registry) Reset() {
	r.Replace(DefaultState())
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Create adds a session titled name and makes it current. The registry is
// left unchanged when name is blank, already used by another session, or
// the cap has been reached; the returned error says which.
func (r *Registry) Create(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.maxSessions {
		return "", ErrSessionLimit
	}
	if r.findByTitle(name) != nil {
		return "", ErrDuplicateName
	}

	s := model.NewSession(name)
	r.sessions = append(r.sessions, &s)
	r.currentID = s.ID
	return s.ID, nil
}

// Select makes id the current session. Unknown IDs leave the registry
// unchanged and return false.
func (r *Registry) Select(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.find(id) == nil {
		return false
	}
	r.currentID = id
	return true
}

// Rename sets the title of session id. A blank title falls back to the
// default title.
func (r *Registry) Rename(id, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.find(id)
	if s == nil {
		return ErrNotFound
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = model.DefaultSessionTitle
	}
	s.Title = title
	return nil
}

// Delete removes session id. When it is the only session left, its messages
// are cleared and its title reset instead. Deleting the current session
// moves the pointer to the first remaining one.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.index(id)
	if idx < 0 {
		return ErrNotFound
	}

	if len(r.sessions) == 1 {
		s := r.sessions[0]
		s.Messages = []model.Message{}
		s.Title = model.DefaultSessionTitle
		return nil
	}

	r.sessions = append(r.sessions[:idx], r.sessions[idx+1:]...)
	if r.currentID == id {
		r.currentID = r.sessions[0].ID
	}
	return nil
}

// Append adds msg to the end of session id's log.
func (r *Registry) Append(id string, msg model.Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("append to session %s: invalid role %q", id, msg.Role)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.find(id)
	if s == nil {
		return ErrNotFound
	}
	s.Messages = append(s.Messages, msg.Clone())
	return nil
}

// Clear empties session id's message log and keeps its title.
func (r *Registry) Clear(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.find(id)
	if s == nil {
		return ErrNotFound
	}
	s.Messages = []model.Message{}
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Summary is a listing entry for one session.
type Summary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
	Current      bool   `json:"current"`
}

// List returns summaries in registry order.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, len(r.sessions))
	for i, s := range r.sessions {
		out[i] = Summary{
			ID:           s.ID,
			Title:        s.Title,
			MessageCount: len(s.Messages),
			Current:      s.ID == r.currentID,
		}
	}
	return out
}

// Get returns a copy of session id.
func (r *Registry) Get(id string) (model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.find(id)
	if s == nil {
		return model.Session{}, false
	}
	return s.Clone(), true
}

// Lookup resolves a reference that is either a session ID or a title.
func (r *Registry) Lookup(ref string) (model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.find(ref)
	if s == nil {
		s = r.findByTitle(strings.TrimSpace(ref))
	}
	if s == nil {
		return model.Session{}, false
	}
	return s.Clone(), true
}

// Messages returns a copy of session id's log.
func (r *Registry) Messages(id string) ([]model.Message, error) {
	s, ok := r.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s.Messages, nil
}

// Current returns a copy of the current session.
func (r *Registry) Current() model.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.find(r.currentID).Clone()
}

// CurrentID returns the current session's ID.
func (r *Registry) CurrentID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currentID
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Max returns the creation cap.
func (r *Registry) Max() int {
	return r.maxSessions
}

// SuggestName returns "Project N" for the smallest N above the current
// session count that no session uses as a title.
func (r *Registry) SuggestName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for n := len(r.sessions) + 1; ; n++ {
		name := fmt.Sprintf("Project %d", n)
		if r.findByTitle(name) == nil {
			return name
		}
	}
}

// =============================================================================
// HELPERS (caller holds mu)
// =============================================================================

func (r *Registry) index(id string) int {
	for i, s := range r.sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) find(id string) *model.Session {
	if i := r.index(id); i >= 0 {
		return r.sessions[i]
	}
	return nil
}

func (r *Registry) findByTitle(title string) *model.Session {
	for _, s := range r.sessions {
		if s.Title == title {
			return s
		}
	}
	return nil
}
