// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles is the shared visual vocabulary of the terminal surfaces.
//
// The palette uses lipgloss AdaptiveColor throughout, so the TUI and CLI
// follow the terminal's light or dark background. Theme collects the
// styles of the chat TUI; the CLI builds its own styles from the same
// colors. Status helpers pair every color with an ASCII indicator.
package styles
