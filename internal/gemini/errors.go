// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoAPIKey is returned when a call is attempted without an API key.
var ErrNoAPIKey = errors.New("gemini: API key not configured")

// APIError is a non-2xx response. Body is the raw response text and must be
// shown to users verbatim.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("Error %d: %s", e.StatusCode, e.Body)
}

// ToolUnsupported reports whether the body reads like a rejected tool field.
func (e *APIError) ToolUnsupported() bool {
	return IsToolUnsupported(e.Body)
}

// TransportError is a failure to complete the HTTP exchange: connection,
// timeout, cancellation, oversized or unparseable body.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// toolUnsupportedPhrases are substrings the API uses when it rejects a
// tool descriptor it does not know.
var toolUnsupportedPhrases = []string{
	"unknown field",
	"not supported",
	"invalid argument",
}

// IsToolUnsupported reports whether an error body matches the known
// "unsupported field / tool" phrasing. Matching is case-insensitive.
func IsToolUnsupported(body string) bool {
	lower := strings.ToLower(body)
	for _, p := range toolUnsupportedPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
