// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

// Error represents a registry error. It can be compared using errors.Is.
type Error struct {
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing registry errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var (
	ErrNotFound      = &Error{Message: "session not found"}
	ErrEmptyName     = &Error{Message: "session name is empty"}
	ErrDuplicateName = &Error{Message: "session name already in use"}
	ErrSessionLimit  = &Error{Message: "session limit reached"}
)
