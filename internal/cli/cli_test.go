// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/chatweb/internal/app"
	"github.com/jeranaias/chatweb/internal/catalog"
	"github.com/jeranaias/chatweb/internal/chat"
	"github.com/jeranaias/chatweb/internal/config"
	"github.com/jeranaias/chatweb/internal/gemini"
	"github.com/jeranaias/chatweb/internal/model"
	"github.com/jeranaias/chatweb/internal/session"
	"github.com/jeranaias/chatweb/internal/util"
)

// =============================================================================
// FIXTURES
// =============================================================================

// clearEnv keeps the developer's environment out of config loading.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CHATWEB_API_KEY", "GEMINI_API_KEY", "CHATWEB_BACKEND", "CHATWEB_MODEL",
		"CHATWEB_SEARCH", "CHATWEB_HISTORY_FILE", AccessCodeEnv, "CHATWEB_ADDR",
		"CHATWEB_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

const geminiAnswer = `{"candidates":[{"content":{"role":"model","parts":[{"text":"Paris is the capital of France."}]},
"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://en.wikipedia.org/wiki/Paris","title":"Paris - Wikipedia"}}]}}]}`

// fakeGemini serves generateContent with a fixed grounded answer.
func fakeGemini(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") || r.Header.Get("x-goog-api-key") != "test-key" {
			http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
			return
		}
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(geminiAnswer))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// writeConfig writes a TOML config into a temp dir and returns its path.
func writeConfig(t *testing.T, apiKey, baseURL string) string {
	t.Helper()
	clearEnv(t)
	dir := t.TempDir()
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	body := fmt.Sprintf(`[api]
key = %q
base_url = %q

[generation]
search_grounding = false

[storage]
history_file = %q

[logging]
level = "error"
`, apiKey, baseURL, filepath.Join(dir, "history.dat"))
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

// run executes the command tree with args and returns its output.
func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand("1.2.3")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	full := append([]string{"--config", cfgPath, "--access-code", config.DefaultAccessCode}, args...)
	root.SetArgs(full)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	out, err := run(t, cfgPath, args...)
	require.NoError(t, err, out)
	return out
}

type sessionsJSON struct {
	Sessions  []session.Summary `json:"sessions"`
	CurrentID string            `json:"current_session_id"`
	Max       int               `json:"max_sessions"`
}

func listSessions(t *testing.T, cfgPath string) sessionsJSON {
	t.Helper()
	var got sessionsJSON
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, cfgPath, "sessions", "list", "--json")), &got))
	return got
}

// =============================================================================
// ACCESS CODE AND COLOR
// =============================================================================

func TestDetectColor(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		tty  bool
		want bool
	}{
		{"tty", nil, true, true},
		{"pipe", nil, false, false},
		{"no color wins", map[string]string{"NO_COLOR": "1", "FORCE_COLOR": "1"}, true, false},
		{"force color on pipe", map[string]string{"FORCE_COLOR": "1"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.env[k] }
			assert.Equal(t, tt.want, detectColor(getenv, func() bool { return tt.tty }))
		})
	}
}

func TestResolveAccessCode(t *testing.T) {
	prompted := 0
	e := &env{
		getenv: func(k string) string {
			if k == AccessCodeEnv {
				return "from-env"
			}
			return ""
		},
		readCode: func() (string, error) { prompted++; return "from-prompt", nil },
	}

	e.accessCode = "from-flag"
	code, err := e.resolveAccessCode()
	require.NoError(t, err)
	assert.Equal(t, "from-flag", code)

	e.accessCode = ""
	code, err = e.resolveAccessCode()
	require.NoError(t, err)
	assert.Equal(t, "from-env", code)
	assert.Zero(t, prompted)

	e.getenv = func(string) string { return "" }
	code, err = e.resolveAccessCode()
	require.NoError(t, err)
	assert.Equal(t, "from-prompt", code)
	assert.Equal(t, 1, prompted)

	e.readCode = func() (string, error) { return "", ErrNoTTY }
	_, err = e.resolveAccessCode()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--access-code")

	boom := errors.New("read failed")
	e.readCode = func() (string, error) { return "", boom }
	_, err = e.resolveAccessCode()
	assert.ErrorIs(t, err, boom)
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestVersion(t *testing.T) {
	out := mustRun(t, writeConfig(t, "", ""), "version")
	assert.Equal(t, "chatweb 1.2.3\n", out)
}

func TestWrongAccessCode(t *testing.T) {
	cfgPath := writeConfig(t, "", "")
	root := NewRootCommand("dev")
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "--access-code", "9999", "sessions", "list"})
	err := root.Execute()
	assert.ErrorIs(t, err, ErrWrongCode)
	assert.Equal(t, "Wrong Code", err.Error())
}

func TestSessionsLifecycle(t *testing.T) {
	cfgPath := writeConfig(t, "", "")

	initial := listSessions(t, cfgPath)
	require.Len(t, initial.Sessions, 1)
	assert.Equal(t, 10, initial.Max)

	out := mustRun(t, cfgPath, "sessions", "new", "Research")
	assert.Contains(t, out, "Created Research")

	got := listSessions(t, cfgPath)
	require.Len(t, got.Sessions, 2)
	assert.Equal(t, "Research", got.Sessions[1].Title)
	assert.Equal(t, got.Sessions[1].ID, got.CurrentID, "new project becomes current")

	mustRun(t, cfgPath, "projects", "rename", "Research", "Notes")
	mustRun(t, cfgPath, "sessions", "use", initial.Sessions[0].ID)
	got = listSessions(t, cfgPath)
	assert.Equal(t, "Notes", got.Sessions[1].Title)
	assert.Equal(t, initial.Sessions[0].ID, got.CurrentID)

	_, err := run(t, cfgPath, "sessions", "delete", "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)

	mustRun(t, cfgPath, "sessions", "rm", "Notes")
	assert.Len(t, listSessions(t, cfgPath).Sessions, 1)

	out = mustRun(t, cfgPath, "sessions", "list")
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "1 of 10 projects")
}

func TestAsk(t *testing.T) {
	srv, calls := fakeGemini(t)
	cfgPath := writeConfig(t, "test-key", srv.URL)

	out := mustRun(t, cfgPath, "ask", "Capital", "of", "France?")
	assert.Contains(t, out, "Paris is the capital of France.")
	assert.Contains(t, out, "[Paris - Wikipedia](https://en.wikipedia.org/wiki/Paris)")
	assert.Equal(t, int32(1), calls.Load())

	// The turn was saved to the current project.
	show := mustRun(t, cfgPath, "sessions", "show")
	assert.Contains(t, show, "Capital of France?")
	assert.Contains(t, show, "Paris is the capital")

	out = mustRun(t, cfgPath, "ask", "--json", "again")
	var res turnJSON
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Success", res.State)
	require.NotNil(t, res.Message)
	assert.Len(t, res.Message.Sources, 1)
	assert.Empty(t, res.Error)

	got := listSessions(t, cfgPath)
	assert.Equal(t, 4, got.Sessions[0].MessageCount)
}

func TestAsk_MissingKey(t *testing.T) {
	cfgPath := writeConfig(t, "", "")
	out, err := run(t, cfgPath, "ask", "--json", "hello")
	assert.ErrorIs(t, err, chat.ErrMissingCredential)

	var res turnJSON
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Failed", res.State)
	assert.NotEmpty(t, res.Error)
}

func TestExport(t *testing.T) {
	srv, _ := fakeGemini(t)
	cfgPath := writeConfig(t, "test-key", srv.URL)
	mustRun(t, cfgPath, "ask", "Capital of France?")

	out := mustRun(t, cfgPath, "export", "--out", "-", "--format", "md")
	assert.Contains(t, out, "Capital of France?")
	assert.Contains(t, out, "https://en.wikipedia.org/wiki/Paris")

	out = mustRun(t, cfgPath, "export", "--out", "-", "--no-sources")
	assert.NotContains(t, out, "https://en.wikipedia.org/wiki/Paris")

	dir := t.TempDir()
	out = mustRun(t, cfgPath, "export", "--format", "html", "--out", dir)
	assert.Contains(t, out, "Exported ")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".html", filepath.Ext(entries[0].Name()))

	_, err = run(t, cfgPath, "export", "--format", "pdf", "--out", "-")
	assert.Error(t, err)
}

func TestHistoryClear(t *testing.T) {
	cfgPath := writeConfig(t, "", "")
	mustRun(t, cfgPath, "sessions", "new", "Alpha")
	require.Len(t, listSessions(t, cfgPath).Sessions, 2)

	out := mustRun(t, cfgPath, "history", "clear", "--yes")
	assert.Contains(t, out, "History cleared")
	assert.Len(t, listSessions(t, cfgPath).Sessions, 1)

	out = mustRun(t, cfgPath, "history", "path")
	assert.Contains(t, out, "history.dat")
}

func TestModelsAndProbeWithoutKey(t *testing.T) {
	cfgPath := writeConfig(t, "", "")

	out := mustRun(t, cfgPath, "models")
	assert.Contains(t, out, catalog.FallbackModel)
	assert.Contains(t, out, "fallback list")

	out = mustRun(t, cfgPath, "models", "--json")
	var cat catalog.Catalog
	require.NoError(t, json.Unmarshal([]byte(out), &cat))
	assert.True(t, cat.Contains(catalog.FallbackModel))

	out = mustRun(t, cfgPath, "probe")
	assert.Contains(t, out, "Key required")
}

func TestConfigCommands(t *testing.T) {
	cfgPath := writeConfig(t, "secret-key-value", "")

	out := mustRun(t, cfgPath, "config", "show")
	assert.Contains(t, out, config.DefaultModel)
	assert.NotContains(t, out, "secret-key-value")

	out = mustRun(t, cfgPath, "config", "path")
	assert.Equal(t, cfgPath+"\n", out)

	target := filepath.Join(t.TempDir(), "sub", "new.toml")
	out = mustRun(t, cfgPath, "config", "init", target)
	assert.Contains(t, out, target)
	_, err := os.Stat(target)
	require.NoError(t, err)

	_, err = run(t, cfgPath, "config", "init", target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
	mustRun(t, cfgPath, "config", "init", target, "--force")

	loaded, err := config.LoadFromPath(target)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultModel, loaded.Generation.Model)
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func TestWriteSessionTable_WideTitles(t *testing.T) {
	var buf bytes.Buffer
	writeSessionTable(&buf, []session.Summary{
		{ID: "aaaaaaaa-1111", Title: "Plain title", MessageCount: 2, Current: true},
		{ID: "bbbbbbbb-2222", Title: strings.Repeat("漢字", 30), MessageCount: 4},
	}, 60)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "aaaaaaaa")
	assert.NotContains(t, lines[1], "1111")
	assert.Contains(t, lines[1], "*")
	assert.Equal(t, util.StringWidth(lines[1]), util.StringWidth(lines[2]), "rows stay aligned")
}

func TestWriteCatalog(t *testing.T) {
	var buf bytes.Buffer
	cat := catalog.Catalog{Group: catalog.GroupGemini, Models: []catalog.Entry{
		{ID: "gemini-1.5-flash", Label: "Gemini 1.5 Flash"},
		{ID: "gemini-1.5-pro", Label: "Gemini 1.5 Pro"},
	}}
	writeCatalog(&buf, cat, "gemini-1.5-pro")
	out := buf.String()
	assert.Contains(t, out, catalog.GroupGemini)
	assert.Contains(t, out, "* gemini-1.5-pro")
	assert.NotContains(t, out, "fallback")

	buf.Reset()
	writeCatalog(&buf, cat, "gemini-exp")
	assert.Contains(t, buf.String(), "gemini-exp is not in this list")
}

func TestWriteProbe(t *testing.T) {
	for status, label := range probeLabels {
		var buf bytes.Buffer
		writeProbe(&buf, chat.Probe{Status: status, Model: "gemini-1.5-flash", Detail: "detail text"})
		assert.Contains(t, buf.String(), label)
		assert.Contains(t, buf.String(), "detail text")
	}
}

func TestCompleteCommand(t *testing.T) {
	assert.Equal(t, []string{"/sessions", "/search"}, completeCommand("/se"))
	assert.Equal(t, []string{"/models", "/model"}, completeCommand("/mod"))
	assert.Nil(t, completeCommand("hello"))
	assert.Nil(t, completeCommand("/use foo"))
}

func TestPrintAnswer_RetryNotice(t *testing.T) {
	msg := model.NewAssistantMessage("The plain answer.", nil)
	res := &chat.Result{
		Retried: true,
		Message: &msg,
		Display: msg.Content + "\n\n" + chat.DefaultDisclaimer,
	}
	var buf bytes.Buffer
	printAnswer(&buf, res, false)
	out := buf.String()
	answerAt := strings.Index(out, msg.Content)
	noticeAt := strings.Index(out, "Web search grounding")
	require.GreaterOrEqual(t, answerAt, 0)
	require.GreaterOrEqual(t, noticeAt, 0)
	assert.Less(t, answerAt, noticeAt, "notice follows the answer")
}

// =============================================================================
// REPL
// =============================================================================

type genFunc func(ctx context.Context, req *gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error)

func (f genFunc) GenerateContent(ctx context.Context, _, _ string, req *gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
	return f(ctx, req)
}

func newTestREPL(t *testing.T) (*repl, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.API.Key = "test-key"
	cfg.Generation.SearchGrounding = false
	cfg.Storage.HistoryFile = filepath.Join(t.TempDir(), "history.dat")
	gen := genFunc(func(context.Context, *gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
		return &gemini.GenerateContentResponse{Candidates: []gemini.Candidate{{Content: gemini.TextContent("model", "Hello back.")}}}, nil
	})
	a, err := app.New(cfg, zap.NewNop(), app.WithGenerator(gen))
	require.NoError(t, err)
	require.NoError(t, a.Unlock(cfg.Security.AccessCode))

	var buf bytes.Buffer
	return newREPL(a, &buf), &buf
}

func TestREPL_Turn(t *testing.T) {
	r, buf := newTestREPL(t)
	require.NoError(t, r.handle(context.Background(), "hello"))
	assert.Contains(t, buf.String(), "Hello back.")
	assert.Len(t, r.app.Registry.Current().Messages, 2)

	buf.Reset()
	require.NoError(t, r.handle(context.Background(), "/history"))
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "Hello back.")
}

func TestREPL_Commands(t *testing.T) {
	r, buf := newTestREPL(t)
	ctx := context.Background()
	reg := r.app.Registry
	first := reg.CurrentID()

	require.NoError(t, r.handle(ctx, "/new Alpha"))
	assert.Equal(t, "Alpha", reg.Current().Title)

	require.NoError(t, r.handle(ctx, "/rename Beta"))
	assert.Equal(t, "Beta", reg.Current().Title)

	require.NoError(t, r.handle(ctx, "/use "+first))
	assert.Equal(t, first, reg.CurrentID())
	require.NoError(t, r.handle(ctx, "/use Beta"))
	assert.Equal(t, "Beta", reg.Current().Title)

	assert.Error(t, r.handle(ctx, "/use nothing-here"))
	assert.Error(t, r.handle(ctx, "/new Beta"), "duplicate name")

	require.NoError(t, r.handle(ctx, "/search on"))
	assert.True(t, r.settings.SearchGrounding)
	require.NoError(t, r.handle(ctx, "/search"))
	assert.False(t, r.settings.SearchGrounding)
	assert.Error(t, r.handle(ctx, "/search maybe"))

	require.NoError(t, r.handle(ctx, "/model gemini-1.5-pro"))
	assert.Equal(t, "gemini-1.5-pro", r.settings.Model)

	buf.Reset()
	require.NoError(t, r.handle(ctx, "/sessions"))
	assert.Contains(t, buf.String(), "Beta")

	require.NoError(t, r.handle(ctx, "/delete"))
	assert.Equal(t, 1, reg.Len())

	buf.Reset()
	require.NoError(t, r.handle(ctx, "/help"))
	for _, c := range replCommands {
		assert.Contains(t, buf.String(), c.name)
	}

	assert.ErrorIs(t, r.handle(ctx, "/exit"), errExit)
	assert.ErrorIs(t, r.handle(ctx, "/QUIT"), errExit)
	err := r.handle(ctx, "/bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/help")
}

func TestSessionError(t *testing.T) {
	assert.Equal(t, "project limit reached; delete one first", sessionError(session.ErrSessionLimit).Error())
	assert.Equal(t, "no such project", sessionError(fmt.Errorf("x: %w", session.ErrNotFound)).Error())
	other := errors.New("disk full")
	assert.Same(t, other, sessionError(other))
}

func TestErrorLine(t *testing.T) {
	assert.Contains(t, ErrorLine(ErrWrongCode), "Wrong Code")
	assert.NotContains(t, ErrorLine(ErrWrongCode), "Error:")
	assert.Contains(t, ErrorLine(errors.New("boom")), "Error: boom")
}

func TestConfigGetSet(t *testing.T) {
	cfgPath := writeConfig(t, "secret-key-value", "")

	out := mustRun(t, cfgPath, "config", "get", "generation.model")
	assert.Equal(t, config.DefaultModel+"\n", out)

	out = mustRun(t, cfgPath, "config", "get")
	assert.Contains(t, out, "api.key = [REDACTED]")
	assert.Contains(t, out, "generation.search_grounding = false")
	assert.NotContains(t, out, "secret-key-value")

	mustRun(t, cfgPath, "config", "set", "generation.model", "gemini-1.5-pro")
	assert.Equal(t, "gemini-1.5-pro\n", mustRun(t, cfgPath, "config", "get", "generation.model"))

	_, err := run(t, cfgPath, "config", "set", "generation.top_k", "lots")
	assert.Error(t, err)
	_, err = run(t, cfgPath, "config", "get", "generation.nope")
	assert.Error(t, err)
}
