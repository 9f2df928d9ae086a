// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
package model

import (
	"encoding/json"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// ProviderRole maps the role onto the generation API's vocabulary.
func (r Role) ProviderRole() string {
	if r == RoleAssistant {
		return "model"
	}
	return "user"
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Source is a web citation returned by search grounding.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Message represents a single message in a session.
type Message struct {
	Role    Role     `json:"role"`
	Content string   `json:"content"`
	Sources []Source `json:"sources"`

	// Timestamp is optional; older history files do not carry it.
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// NewUserMessage creates a user message stamped with the current time.
func NewUserMessage(content string) Message {
	return Message{
		Role:      RoleUser,
		Content:   content,
		Sources:   []Source{},
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates an assistant message with the given citations.
func NewAssistantMessage(content string, sources []Source) Message {
	if sources == nil {
		sources = []Source{}
	}
	return Message{
		Role:      RoleAssistant,
		Content:   content,
		Sources:   sources,
		Timestamp: time.Now(),
	}
}

// Clone returns a copy that shares no slices with m.
func (m Message) Clone() Message {
	out := m
	out.Sources = make([]Source, len(m.Sources))
	copy(out.Sources, m.Sources)
	return out
}

// HasSources reports whether the message carries citations.
func (m Message) HasSources() bool {
	return len(m.Sources) > 0
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// MarshalJSON always emits sources as an array, never null.
func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	a := alias(m)
	if a.Sources == nil {
		a.Sources = []Source{}
	}
	return json.Marshal(a)
}
