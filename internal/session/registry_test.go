// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/chatweb/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNewRegistry_HasOneDefaultSession(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, 1, r.Len())

	cur := r.Current()
	assert.Equal(t, model.DefaultSessionTitle, cur.Title)
	assert.Empty(t, cur.Messages)
	assert.Equal(t, cur.ID, r.CurrentID())
	assert.Equal(t, DefaultMaxSessions, r.Max())
}

func TestFromState_NormalizesDanglingCurrent(t *testing.T) {
	a := model.NewSession("a")
	b := model.NewSession("b")
	r := FromState(State{Sessions: []model.Session{a, b}, CurrentSessionID: "missing"})
	assert.Equal(t, a.ID, r.CurrentID())
	assert.Equal(t, 2, r.Len())
}

func TestFromState_EmptyFallsBackToDefault(t *testing.T) {
	r := FromState(State{})
	require.Equal(t, 1, r.Len())
	assert.Equal(t, model.DefaultSessionTitle, r.Current().Title)
}

func TestFromState_DropsDuplicateIDs(t *testing.T) {
	a := model.NewSession("a")
	dup := a
	dup.Title = "dup"
	r := FromState(State{Sessions: []model.Session{a, dup}, CurrentSessionID: a.ID})
	require.Equal(t, 1, r.Len())
	assert.Equal(t, "a", r.Current().Title)
}

// =============================================================================
// CREATE
// =============================================================================

func TestCreate_SetsCurrent(t *testing.T) {
	r := NewRegistry()
	id, err := r.Create("  Research  ")
	require.NoError(t, err)
	assert.Equal(t, id, r.CurrentID())
	assert.Equal(t, "Research", r.Current().Title)
}

func TestCreate_RejectsWithoutChange(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrEmptyName},
		{"blank", "   ", ErrEmptyName},
		{"duplicate", model.DefaultSessionTitle, ErrDuplicateName},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry()
			before := r.State()

			id, err := r.Create(tc.in)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, id)
			if diff := cmp.Diff(before, r.State()); diff != "" {
				t.Errorf("registry changed (-before +after):\n%s", diff)
			}
		})
	}
}

func TestCreate_CapIsEnforced(t *testing.T) {
	r := NewRegistry()
	ids := map[string]bool{r.CurrentID(): true}

	for i := 2; i <= DefaultMaxSessions; i++ {
		id, err := r.Create(fmt.Sprintf("Project %d", i))
		require.NoError(t, err)
		require.False(t, ids[id], "duplicate id %s", id)
		ids[id] = true
	}
	require.Equal(t, DefaultMaxSessions, r.Len())

	before := r.State()
	id, err := r.Create("one too many")
	assert.ErrorIs(t, err, ErrSessionLimit)
	assert.Empty(t, id)
	if diff := cmp.Diff(before, r.State()); diff != "" {
		t.Errorf("registry changed at cap (-before +after):\n%s", diff)
	}
}

func TestWithMaxSessions(t *testing.T) {
	r := NewRegistry(WithMaxSessions(2))
	_, err := r.Create("two")
	require.NoError(t, err)
	_, err = r.Create("three")
	assert.ErrorIs(t, err, ErrSessionLimit)

	assert.Equal(t, DefaultMaxSessions, NewRegistry(WithMaxSessions(0)).Max())
}

// =============================================================================
// SELECT / RENAME
// =============================================================================

func TestSelect(t *testing.T) {
	r := NewRegistry()
	first := r.CurrentID()
	second, err := r.Create("second")
	require.NoError(t, err)

	assert.True(t, r.Select(first))
	assert.Equal(t, first, r.CurrentID())

	assert.False(t, r.Select("nope"))
	assert.Equal(t, first, r.CurrentID())

	assert.True(t, r.Select(second))
	assert.Equal(t, second, r.CurrentID())
}

func TestRename(t *testing.T) {
	r := NewRegistry()
	id := r.CurrentID()

	require.NoError(t, r.Rename(id, "Renamed"))
	assert.Equal(t, "Renamed", r.Current().Title)

	require.NoError(t, r.Rename(id, " "))
	assert.Equal(t, model.DefaultSessionTitle, r.Current().Title)

	assert.ErrorIs(t, r.Rename("nope", "x"), ErrNotFound)
}

// =============================================================================
// DELETE
// =============================================================================

func TestDelete_LastSessionIsClearedNotRemoved(t *testing.T) {
	r := NewRegistry()
	id := r.CurrentID()
	require.NoError(t, r.Rename(id, "Custom"))
	require.NoError(t, r.Append(id, model.NewUserMessage("hello")))

	require.NoError(t, r.Delete(id))

	require.Equal(t, 1, r.Len())
	cur := r.Current()
	assert.Equal(t, id, cur.ID)
	assert.Empty(t, cur.Messages)
	assert.Equal(t, model.DefaultSessionTitle, cur.Title)
}

func TestDelete_CurrentMovesToFirstRemaining(t *testing.T) {
	r := NewRegistry()
	first := r.CurrentID()
	_, err := r.Create("b")
	require.NoError(t, err)
	c, err := r.Create("c")
	require.NoError(t, err)
	require.Equal(t, c, r.CurrentID())

	require.NoError(t, r.Delete(c))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, first, r.CurrentID())
}

func TestDelete_NonCurrentKeepsPointer(t *testing.T) {
	r := NewRegistry()
	first := r.CurrentID()
	b, err := r.Create("b")
	require.NoError(t, err)

	require.NoError(t, r.Delete(first))
	assert.Equal(t, b, r.CurrentID())
	assert.ErrorIs(t, r.Delete("nope"), ErrNotFound)
}

// =============================================================================
// APPEND / CLEAR
// =============================================================================

func TestAppend_PreservesOrderAndIsolation(t *testing.T) {
	r := NewRegistry()
	id := r.CurrentID()

	require.NoError(t, r.Append(id, model.NewUserMessage("q")))
	require.NoError(t, r.Append(id, model.NewAssistantMessage("a", []model.Source{{Title: "T", URI: "u"}})))

	msgs, err := r.Messages(id)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)

	// Returned slices are copies.
	msgs[1].Sources[0].Title = "mutated"
	again, _ := r.Messages(id)
	assert.Equal(t, "T", again[1].Sources[0].Title)
}

func TestAppend_Errors(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Append("nope", model.NewUserMessage("x")), ErrNotFound)
	assert.Error(t, r.Append(r.CurrentID(), model.Message{Role: "system"}))
}

func TestClearAndReset(t *testing.T) {
	r := NewRegistry()
	id := r.CurrentID()
	require.NoError(t, r.Append(id, model.NewUserMessage("x")))
	require.NoError(t, r.Clear(id))
	assert.True(t, r.Current().IsEmpty())

	_, err := r.Create("extra")
	require.NoError(t, err)
	r.Reset()
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, model.DefaultSessionTitle, r.Current().Title)
}

// =============================================================================
// QUERIES
// =============================================================================

func TestListAndLookup(t *testing.T) {
	r := NewRegistry()
	id, err := r.Create("Notes")
	require.NoError(t, err)
	require.NoError(t, r.Append(id, model.NewUserMessage("x")))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, model.DefaultSessionTitle, list[0].Title)
	assert.False(t, list[0].Current)
	assert.Equal(t, Summary{ID: id, Title: "Notes", MessageCount: 1, Current: true}, list[1])

	byTitle, ok := r.Lookup("Notes")
	require.True(t, ok)
	assert.Equal(t, id, byTitle.ID)

	byID, ok := r.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "Notes", byID.Title)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestSuggestName(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "Project 2", r.SuggestName())
	_, err := r.Create("Project 2")
	require.NoError(t, err)
	assert.Equal(t, "Project 3", r.SuggestName())
}

func TestSuggestName_StartsAboveCountAndSkipsTaken(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create("Project 3")
	require.NoError(t, err)
	assert.Equal(t, "Project 3", r.Current().Title)

	// Two sessions: start at 3, which is taken.
	assert.Equal(t, "Project 4", r.SuggestName())

	_, err = r.Create("Project 1")
	require.NoError(t, err)
	assert.Equal(t, "Project 4", r.SuggestName(), "numbers below the count are not reused")
}

func TestStateIsDeepCopy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Append(r.CurrentID(), model.NewUserMessage("x")))
	st := r.State()
	st.Sessions[0].Messages[0].Content = "changed"
	assert.Equal(t, "x", r.Current().Messages[0].Content)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestRegistry_ConcurrentAppend(t *testing.T) {
	r := NewRegistry()
	id := r.CurrentID()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.Append(id, model.NewUserMessage(fmt.Sprintf("m%d", i)))
			_ = r.List()
		}(i)
	}
	wg.Wait()

	msgs, err := r.Messages(id)
	require.NoError(t, err)
	assert.Len(t, msgs, 50)
}
