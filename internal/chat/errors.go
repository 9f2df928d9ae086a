// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"

	"github.com/jeranaias/chatweb/internal/session"
)

// ErrorKind classifies a failed turn.
type ErrorKind int

const (
	KindMissingCredential ErrorKind = iota + 1
	KindEmptyPrompt
	KindTransport
	KindProvider
	KindToolUnsupported
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindMissingCredential:
		return "MissingCredential"
	case KindEmptyPrompt:
		return "EmptyPrompt"
	case KindTransport:
		return "TransportError"
	case KindProvider:
		return "ProviderError"
	case KindToolUnsupported:
		return "ToolUnsupported"
	default:
		return "Unknown"
	}
}

// TurnError is the typed failure of a turn. Status and Body are set for
// provider failures; Body is the raw response text.
type TurnError struct {
	Kind   ErrorKind
	Status int
	Body   string
	Err    error
}

// Error implements the error interface. Provider failures read
// "Error <status>: <body>" so the raw body reaches the user unchanged.
func (e *TurnError) Error() string {
	switch e.Kind {
	case KindMissingCredential:
		return "API key is required"
	case KindEmptyPrompt:
		return "prompt is empty"
	case KindProvider, KindToolUnsupported:
		return fmt.Sprintf("Error %d: %s", e.Status, e.Body)
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Kind.String()
	}
}

// Unwrap returns the underlying error.
func (e *TurnError) Unwrap() error {
	return e.Err
}

// Is matches another *TurnError of the same kind, so the sentinels below
// work with errors.Is.
func (e *TurnError) Is(target error) bool {
	t, ok := target.(*TurnError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is.
var (
	ErrMissingCredential = &TurnError{Kind: KindMissingCredential}
	ErrEmptyPrompt       = &TurnError{Kind: KindEmptyPrompt}
	ErrTransport         = &TurnError{Kind: KindTransport}
	ErrProvider          = &TurnError{Kind: KindProvider}
	ErrToolUnsupported   = &TurnError{Kind: KindToolUnsupported}
)

var (
	// ErrTurnInProgress is returned when the session already has a turn
	// awaiting a response.
	ErrTurnInProgress = errors.New("a turn is already in progress for this session")

	// ErrUnknownSession is returned when the target session does not exist.
	ErrUnknownSession = session.ErrNotFound
)

// IsProviderFailure reports whether err came from a non-2xx response.
func IsProviderFailure(err error) bool {
	return errors.Is(err, ErrProvider) || errors.Is(err, ErrToolUnsupported)
}
