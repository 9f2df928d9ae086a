// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the in-memory registry of conversation sessions.
//
// A session (shown to users as a "project") is an independently persisted
// conversation thread with its own ordered message log. The registry keeps
// the ordered set of sessions and the pointer to the current one.
//
// # Key Types
//
//   - Registry: Concurrency-safe ordered collection of sessions
//   - State: Serializable snapshot exchanged with the persistence store
//   - Summary: Lightweight listing entry
//
// # Invariants
//
//   - At least one session always exists.
//   - The current session ID always references an existing session.
//   - Creation is capped (default 10); rejected creates leave the registry
//     unchanged.
//   - Append never persists. Callers save the State afterwards.
//
// # Usage
//
//	reg := session.FromState(store.Load())
//	id, err := reg.Create("Research")
//	if err == nil {
//	    reg.Append(id, model.NewUserMessage("hi"))
//	}
//	store.Save(reg.State())
package session
