// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRole_ProviderRole(t *testing.T) {
	assert.Equal(t, "user", RoleUser.ProviderRole())
	assert.Equal(t, "model", RoleAssistant.ProviderRole())
}

func TestRole_DisplayName(t *testing.T) {
	assert.Equal(t, "You", RoleUser.DisplayName())
	assert.Equal(t, "Assistant", RoleAssistant.DisplayName())
	assert.Equal(t, "other", Role("other").DisplayName())
	assert.False(t, Role("system").Valid())
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessage_JSONAlwaysHasSources(t *testing.T) {
	data, err := json.Marshal(Message{Role: RoleUser, Content: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"hi","sources":[]}`, string(data))
}

func TestMessage_JSONRoundTrip(t *testing.T) {
	in := NewAssistantMessage("Paris", []Source{{Title: "A", URI: "http://x"}})
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Message
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.Content, out.Content)
	assert.Equal(t, in.Sources, out.Sources)
	assert.True(t, in.Timestamp.Equal(out.Timestamp))
}

func TestMessage_CloneDoesNotShareSources(t *testing.T) {
	orig := NewAssistantMessage("x", []Source{{Title: "A", URI: "u"}})
	c := orig.Clone()
	c.Sources[0].Title = "changed"
	assert.Equal(t, "A", orig.Sources[0].Title)
}

func TestMessage_Preview(t *testing.T) {
	m := Message{Content: "héllo wörld"}
	assert.Equal(t, "héllo wörld", m.Preview(20))
	assert.Equal(t, "héll...", m.Preview(7))
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestNewSession(t *testing.T) {
	a := NewSession("one")
	b := NewSession("two")
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, a.IsEmpty())
	assert.NotNil(t, a.Messages)
}

func TestSession_LastAssistant(t *testing.T) {
	s := NewSession("s")
	_, ok := s.LastAssistant()
	assert.False(t, ok)

	s.Messages = append(s.Messages,
		NewUserMessage("q1"),
		NewAssistantMessage("a1", nil),
		NewUserMessage("q2"),
	)
	last, ok := s.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "a1", last.Content)
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := NewSession("s")
	s.Messages = append(s.Messages, NewUserMessage("q"))
	c := s.Clone()
	c.Messages[0].Content = "changed"
	assert.Equal(t, "q", s.Messages[0].Content)
}
