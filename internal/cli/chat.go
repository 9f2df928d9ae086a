// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive REPL for chatweb.
//
// The REPL uses liner for line editing and input history. Plain lines are
// prompts for the current project; lines starting with / are commands.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatweb/internal/app"
	"github.com/jeranaias/chatweb/internal/chat"
	"github.com/jeranaias/chatweb/internal/config"
	"github.com/jeranaias/chatweb/internal/session"
)

// replHistoryFile is the liner history file inside the config directory.
const replHistoryFile = "repl_history"

// errExit ends the REPL.
var errExit = errors.New("exit")

func newChatCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		Long: `Start a line-based chat on the current project.

Type /help for the list of commands. Up and down arrows walk the input
history, which is kept in ~/.chatweb/repl_history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.unlockedApp(cmd)
			if err != nil {
				return err
			}
			r := newREPL(a, cmd.OutOrStdout())
			r.styled = IsStdoutTTY() && ColorEnabled()
			return r.run(cmd.Context())
		},
	}
}

// =============================================================================
// REPL STATE
// =============================================================================

type repl struct {
	app      *app.App
	settings app.Settings
	out      io.Writer
	styled   bool

	line        *liner.State
	historyFile string
}

func newREPL(a *app.App, out io.Writer) *repl {
	return &repl{
		app:      a,
		settings: a.DefaultSettings(),
		out:      out,
	}
}

func (r *repl) run(ctx context.Context) error {
	r.line = liner.NewLiner()
	r.line.SetCtrlCAborts(true)
	r.line.SetCompleter(completeCommand)
	defer r.close()

	if dir, err := config.ConfigDir(); err == nil {
		r.historyFile = filepath.Join(dir, replHistoryFile)
		if f, err := os.Open(r.historyFile); err == nil {
			_, _ = r.line.ReadHistory(f)
			f.Close()
		}
	}

	r.banner()
	for {
		input, err := r.line.Prompt(r.prompt())
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D and closed stdin all end the session.
			fmt.Fprintln(r.out)
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		if err := r.handle(ctx, input); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			fmt.Fprintln(r.out, paint(ErrorStyle, "Error: ")+err.Error())
		}
	}
}

func (r *repl) close() {
	if r.historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err == nil {
			if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
				_, _ = r.line.WriteHistory(f)
				f.Close()
			}
		}
	}
	r.line.Close()
}

func (r *repl) prompt() string {
	title := r.app.Registry.Current().Title
	return truncate(title, 24) + "> "
}

func (r *repl) banner() {
	cur := r.app.Registry.Current()
	fmt.Fprintln(r.out, paint(TitleStyle, "chatweb")+" "+paint(DimStyle, "type /help for commands"))
	fmt.Fprintf(r.out, "%s %s\n", label("Project"), cur.Title)
	fmt.Fprintf(r.out, "%s %s\n", label("Model"), r.settings.Model)
	fmt.Fprintf(r.out, "%s %s\n", label("Search"), onOff(r.settings.SearchGrounding))
	fmt.Fprintln(r.out, separator())
}

// =============================================================================
// INPUT HANDLING
// =============================================================================

// handle runs one line of input: a slash command or a prompt.
func (r *repl) handle(ctx context.Context, input string) error {
	if strings.HasPrefix(input, "/") {
		return r.command(ctx, input)
	}
	return r.turn(ctx, input)
}

func (r *repl) turn(ctx context.Context, prompt string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprintln(r.out, paint(DimStyle, "Thinking..."))
	res, err := r.app.Turn(ctx, r.app.Registry.CurrentID(), prompt, r.settings)
	if err != nil {
		if errors.Is(err, chat.ErrMissingCredential) {
			return errors.New("no API key configured; set api.key or $CHATWEB_API_KEY")
		}
		return err
	}
	printAnswer(r.out, res, r.styled)
	return nil
}

// replCommands lists the slash commands with their help text, in help order.
var replCommands = []struct{ name, args, help string }{
	{"/new", "NAME", "create a project and switch to it"},
	{"/use", "ID|TITLE", "switch project"},
	{"/rename", "TITLE", "rename the current project"},
	{"/delete", "", "delete the current project"},
	{"/clear", "", "clear the current project's messages"},
	{"/sessions", "", "list projects"},
	{"/history", "", "print the current project's messages"},
	{"/models", "", "list available models"},
	{"/model", "ID", "set the model"},
	{"/search", "on|off", "toggle search grounding"},
	{"/probe", "", "check search support for the current model"},
	{"/help", "", "show this help"},
	{"/exit", "", "leave the chat"},
}

func completeCommand(line string) []string {
	if !strings.HasPrefix(line, "/") || strings.Contains(line, " ") {
		return nil
	}
	var out []string
	for _, c := range replCommands {
		if strings.HasPrefix(c.name, line) {
			out = append(out, c.name)
		}
	}
	return out
}

func (r *repl) command(ctx context.Context, input string) error {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	reg := r.app.Registry

	switch strings.ToLower(name) {
	case "/exit", "/quit":
		return errExit

	case "/help":
		for _, c := range replCommands {
			fmt.Fprintf(r.out, "  %-10s %-10s %s\n", c.name, c.args, paint(DimStyle, c.help))
		}

	case "/new":
		if arg == "" {
			arg = reg.SuggestName()
		}
		if _, err := r.app.CreateSession(arg); err != nil {
			return sessionError(err)
		}
		fmt.Fprintln(r.out, paint(SuccessStyle, "Created ")+arg)

	case "/use":
		id, err := resolveSession(r.app, arg)
		if err != nil || arg == "" {
			return fmt.Errorf("unknown project %q", arg)
		}
		if err := r.app.SelectSession(id); err != nil {
			return sessionError(err)
		}
		cur := reg.Current()
		fmt.Fprintln(r.out, "Switched to "+sessionLine(cur.Title, cur.ID, len(cur.Messages)))

	case "/rename":
		if err := r.app.RenameSession(reg.CurrentID(), arg); err != nil {
			return sessionError(err)
		}
		fmt.Fprintln(r.out, "Renamed to "+reg.Current().Title)

	case "/delete":
		title := reg.Current().Title
		if err := r.app.DeleteSession(reg.CurrentID()); err != nil {
			return sessionError(err)
		}
		fmt.Fprintln(r.out, "Deleted "+title+"; now on "+reg.Current().Title)

	case "/clear":
		if err := r.app.ClearSession(reg.CurrentID()); err != nil {
			return sessionError(err)
		}
		fmt.Fprintln(r.out, "Cleared "+reg.Current().Title)

	case "/sessions":
		writeSessionTable(r.out, reg.List(), TerminalWidth())

	case "/history":
		printTranscript(r.out, reg.Current(), r.styled)

	case "/models":
		writeCatalog(r.out, r.app.Models(ctx, r.settings.APIKey), r.settings.Model)

	case "/model":
		if arg == "" {
			fmt.Fprintln(r.out, "Model: "+r.settings.Model)
			return nil
		}
		r.settings.Model = arg
		fmt.Fprintln(r.out, "Model set to "+arg)

	case "/search":
		switch strings.ToLower(arg) {
		case "on":
			r.settings.SearchGrounding = true
		case "off":
			r.settings.SearchGrounding = false
		case "":
			r.settings.SearchGrounding = !r.settings.SearchGrounding
		default:
			return fmt.Errorf("usage: /search on|off")
		}
		fmt.Fprintln(r.out, "Search grounding "+onOff(r.settings.SearchGrounding))

	case "/probe":
		writeProbe(r.out, r.app.Probe(ctx, r.settings))

	default:
		return fmt.Errorf("unknown command %s (try /help)", name)
	}
	return nil
}

// sessionError turns registry errors into REPL messages.
func sessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrEmptyName):
		return errors.New("a project name is required")
	case errors.Is(err, session.ErrDuplicateName):
		return errors.New("a project with that name already exists")
	case errors.Is(err, session.ErrSessionLimit):
		return errors.New("project limit reached; delete one first")
	case errors.Is(err, session.ErrNotFound):
		return errors.New("no such project")
	}
	return err
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
