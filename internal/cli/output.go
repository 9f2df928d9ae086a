// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/chatweb/internal/chat"
	"github.com/jeranaias/chatweb/internal/model"
	"github.com/jeranaias/chatweb/internal/render"
	"github.com/jeranaias/chatweb/internal/util"
)

// turnJSON is the --json form of a turn result.
type turnJSON struct {
	SessionID string         `json:"session_id"`
	State     string         `json:"state"`
	Retried   bool           `json:"retried"`
	Message   *model.Message `json:"message,omitempty"`
	Display   string         `json:"display,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTurnJSON(w io.Writer, res *chat.Result, err error) error {
	out := turnJSON{
		SessionID: res.SessionID,
		State:     res.State.String(),
		Retried:   res.Retried,
		Message:   res.Message,
		Display:   res.Display,
	}
	if err != nil {
		out.Error = err.Error()
	}
	return writeJSON(w, out)
}

// printAnswer writes an assistant answer. Terminals get glamour output;
// pipes get the raw Markdown with sources appended.
func printAnswer(w io.Writer, res *chat.Result, styled bool) {
	if res.Message == nil {
		return
	}
	msg := *res.Message
	md := render.MessageMarkdown(msg)
	if styled {
		fmt.Fprint(w, render.Terminal(md, TerminalWidth()))
	} else {
		fmt.Fprintln(w, md)
	}
	if notice := strings.TrimSpace(strings.TrimPrefix(res.Display, msg.Content)); res.Retried && notice != "" {
		fmt.Fprintln(w, paint(WarningStyle, notice))
	}
}

// printTranscript writes every message of sess, newest last.
func printTranscript(w io.Writer, sess model.Session, styled bool) {
	if sess.IsEmpty() {
		fmt.Fprintln(w, paint(DimStyle, "(no messages)"))
		return
	}
	for _, msg := range sess.Messages {
		fmt.Fprintln(w, paint(TitleStyle, "["+msg.Role.DisplayName()+"]"))
		if msg.Role == model.RoleAssistant && styled {
			fmt.Fprint(w, render.Terminal(render.MessageMarkdown(msg), TerminalWidth()))
			continue
		}
		fmt.Fprintln(w, render.MessageMarkdown(msg))
		fmt.Fprintln(w)
	}
}

// truncate shortens s to width display columns.
func truncate(s string, width int) string {
	return util.TruncateWidth(util.SingleLine(s), width)
}
