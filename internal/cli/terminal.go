// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for the chatweb CLI.
//
// Interactive terminals get colors, glamour output and prompts. Piped
// output gets plain text and never blocks on a prompt. NO_COLOR and
// FORCE_COLOR are honored.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTerminal reports whether f is a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// IsTTY reports whether stdin is a terminal, i.e. whether prompts are possible.
func IsTTY() bool {
	return IsTerminal(os.Stdin)
}

// IsStdoutTTY reports whether stdout is a terminal.
func IsStdoutTTY() bool {
	return IsTerminal(os.Stdout)
}

// =============================================================================
// TERMINAL WIDTH
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails.
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the narrowest width output is wrapped to.
	MinTerminalWidth = 40
)

// TerminalWidth returns the stdout width, or DefaultTerminalWidth when it
// cannot be determined.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

var (
	colorEnabled     bool
	colorEnabledOnce sync.Once
)

// ColorEnabled reports whether colored output should be used.
// See https://no-color.org/ for NO_COLOR.
func ColorEnabled() bool {
	colorEnabledOnce.Do(func() {
		colorEnabled = detectColor(os.Getenv, IsStdoutTTY)
	})
	return colorEnabled
}

func detectColor(getenv func(string) string, isTTY func() bool) bool {
	if getenv("NO_COLOR") != "" {
		return false
	}
	if getenv("FORCE_COLOR") != "" {
		return true
	}
	return isTTY()
}

// ColorProfile returns the termenv profile for stdout, Ascii when colors
// are disabled.
func ColorProfile() termenv.Profile {
	if !ColorEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// =============================================================================
// PROMPTS
// =============================================================================

// ErrNoTTY is returned when an interactive prompt is needed but stdin is
// not a terminal.
var ErrNoTTY = errors.New("stdin is not a terminal")

// readSecret prompts on w and reads a line from stdin without echo.
func readSecret(w io.Writer, prompt string) (string, error) {
	if !IsTTY() {
		return "", ErrNoTTY
	}
	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
