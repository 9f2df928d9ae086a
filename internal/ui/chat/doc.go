// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the full-screen terminal chat surface.
//
// The transcript of the current project is shown in a viewport with
// assistant answers rendered through glamour. A textarea at the bottom
// takes prompts, and a status line shows the project, the model, the
// search setting and the last error.
//
// Turns run as a tea.Cmd against the shared app; the result arrives as a
// turnDoneMsg. Only one turn is in flight at a time, and Esc cancels it.
//
// Key bindings:
//
//	enter            send
//	ctrl+n           new project
//	ctrl+left/right  previous / next project
//	ctrl+d           delete project
//	ctrl+g           toggle search grounding
//	ctrl+y           copy last answer as Markdown
//	ctrl+t           copy last answer as plain text
//	pgup/pgdown      scroll
//	esc              cancel turn, or quit when idle
//	ctrl+c           quit
package chat
