// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
//
// This package defines the core domain types shared by the registry, the
// persistence store, the turn controller, and every user-facing surface.
//
// # Key Types
//
//   - Session: A named conversation thread ("project") with an ordered log
//   - Message: Single message with role, content, and grounding sources
//   - Source: A web citation attached to an assistant answer
//   - Role: Message role enumeration (user, assistant)
//
// # Usage
//
//	sess := model.NewSession("Trip planning")
//	sess.Messages = append(sess.Messages, model.NewUserMessage("Hello!"))
//
// Messages are values. Once appended to a session they are never mutated.
package model
