// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTitle is the title of the initial session and of a session
// reset by deleting the last remaining one.
const DefaultSessionTitle = "Default Project"

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is an independently persisted conversation thread.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// NewSession creates an empty session with a fresh ID.
func NewSession(title string) Session {
	return Session{
		ID:        uuid.NewString(),
		Title:     title,
		Messages:  []Message{},
		CreatedAt: time.Now(),
	}
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		out.Messages[i] = m.Clone()
	}
	return out
}

// LastAssistant returns the most recent assistant message, if any.
func (s Session) LastAssistant() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// IsEmpty returns true if the session has no messages.
func (s Session) IsEmpty() bool {
	return len(s.Messages) == 0
}
