// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/google/uuid"

	"github.com/jeranaias/chatweb/internal/model"
)

// State is the persisted envelope of the registry.
type State struct {
	Sessions         []model.Session `json:"sessions"`
	CurrentSessionID string          `json:"current_session_id"`
}

// DefaultState returns one empty session titled model.DefaultSessionTitle.
func DefaultState() State {
	s := model.NewSession(model.DefaultSessionTitle)
	return State{
		Sessions:         []model.Session{s},
		CurrentSessionID: s.ID,
	}
}

// Normalize returns a copy of st that satisfies the registry invariants:
// at least one session, unique non-empty IDs, non-nil message logs, and a
// current ID that references an existing session.
func (st State) Normalize() State {
	out := State{Sessions: make([]model.Session, 0, len(st.Sessions))}
	seen := make(map[string]bool, len(st.Sessions))

	for _, s := range st.Sessions {
		s = s.Clone()
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		if s.Title == "" {
			s.Title = model.DefaultSessionTitle
		}
		s.Messages = validMessages(s.Messages)
		out.Sessions = append(out.Sessions, s)
	}

	if len(out.Sessions) == 0 {
		return DefaultState()
	}

	out.CurrentSessionID = out.Sessions[0].ID
	if seen[st.CurrentSessionID] {
		out.CurrentSessionID = st.CurrentSessionID
	}
	return out
}

// Clone returns a deep copy of st.
func (st State) Clone() State {
	out := State{
		Sessions:         make([]model.Session, len(st.Sessions)),
		CurrentSessionID: st.CurrentSessionID,
	}
	for i, s := range st.Sessions {
		out.Sessions[i] = s.Clone()
	}
	return out
}

// validMessages drops entries with an unknown role.
func validMessages(msgs []model.Message) []model.Message {
	out := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.Role.Valid() {
			continue
		}
		if m.Sources == nil {
			m.Sources = []model.Source{}
		}
		out = append(out, m)
	}
	return out
}
