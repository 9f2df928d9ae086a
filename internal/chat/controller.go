// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/chatweb/internal/gemini"
	"github.com/jeranaias/chatweb/internal/model"
	"github.com/jeranaias/chatweb/internal/session"
)

const (
	// DefaultHistoryWindow is the number of trailing messages sent as context.
	DefaultHistoryWindow = 10

	// DefaultDisclaimer is appended to the displayed text of an answer that
	// had to be regenerated without search grounding.
	DefaultDisclaimer = "⚠️ Note: Web search grounding is not supported for the selected model/settings, so this answer was generated without search."

	// DefaultPlaceholder replaces an answer with no extractable text.
	DefaultPlaceholder = "(No response text returned.)"
)

// =============================================================================
// TYPES
// =============================================================================

// State is a step of the turn lifecycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
	StateRetryWithoutTools
	StateSuccess
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitingResponse:
		return "AwaitingResponse"
	case StateRetryWithoutTools:
		return "RetryWithoutTools"
	case StateSuccess:
		return "Success"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Options is the per-turn configuration.
type Options struct {
	APIKey            string
	Model             string
	Generation        gemini.GenerationConfig
	SystemInstruction string
	Safety            []gemini.SafetySetting
	SearchGrounding   bool
	HistoryWindow     int
}

// Result describes a finished turn. State is StateSuccess or StateFailed;
// Path lists every state the turn passed through.
type Result struct {
	SessionID string
	State     State
	Path      []State

	// Message is the appended assistant message; nil on failure.
	Message *model.Message

	// Display is the text to show for the answer. It differs from
	// Message.Content only when the retry disclaimer was added.
	Display string

	// Retried is set when the answer came from the no-tools retry.
	Retried bool

	Err error
}

// Persister saves the registry snapshot.
type Persister interface {
	Save(st session.State) error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs turns against a Generator.
type Controller struct {
	gen         gemini.Generator
	store       Persister
	logger      *zap.Logger
	disclaimer  string
	placeholder string

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDisclaimer overrides the no-grounding disclaimer.
func WithDisclaimer(s string) Option {
	return func(c *Controller) { c.disclaimer = s }
}

// WithPlaceholder overrides the empty-answer placeholder.
func WithPlaceholder(s string) Option {
	return func(c *Controller) { c.placeholder = s }
}

// NewController creates a controller. store may be nil to disable saving.
func NewController(gen gemini.Generator, store Persister, opts ...Option) *Controller {
	c := &Controller{
		gen:         gen,
		store:       store,
		logger:      zap.NewNop(),
		disclaimer:  DefaultDisclaimer,
		placeholder: DefaultPlaceholder,
		inflight:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether sessionID has a turn in flight.
func (c *Controller) Busy(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[sessionID]
	return ok
}

func (c *Controller) acquire(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inflight[sessionID]; ok {
		return false
	}
	c.inflight[sessionID] = struct{}{}
	return true
}

func (c *Controller) release(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, sessionID)
}

// Run executes one turn for prompt in session sessionID of reg.
//
// The returned error is non-nil exactly when the turn failed, and equals
// Result.Err. Precondition failures (empty prompt, missing key, unknown or
// busy session) leave the log untouched.
func (c *Controller) Run(ctx context.Context, reg *session.Registry, sessionID, prompt string, opts Options) (*Result, error) {
	res := &Result{SessionID: sessionID, State: StateIdle, Path: []State{StateIdle}}

	if strings.TrimSpace(prompt) == "" {
		return c.fail(res, ErrEmptyPrompt)
	}
	if opts.APIKey == "" {
		return c.fail(res, ErrMissingCredential)
	}
	if _, ok := reg.Get(sessionID); !ok {
		return c.fail(res, ErrUnknownSession)
	}
	if !c.acquire(sessionID) {
		return c.fail(res, ErrTurnInProgress)
	}
	defer c.release(sessionID)

	log := c.logger.With(zap.String("session_id", sessionID), zap.String("model", opts.Model))

	if err := reg.Append(sessionID, model.NewUserMessage(prompt)); err != nil {
		// Deleted between the lookup and the append.
		return c.fail(res, err)
	}

	req, err := c.buildRequest(reg, sessionID, opts)
	if err != nil {
		return c.fail(res, err)
	}

	res.advance(StateAwaitingResponse)
	start := time.Now()
	resp, callErr := c.gen.GenerateContent(ctx, opts.APIKey, opts.Model, req)

	if callErr != nil {
		var apiErr *gemini.APIError
		if !errors.As(callErr, &apiErr) {
			log.Warn("turn failed", zap.String("kind", KindTransport.String()), zap.Error(callErr))
			return c.fail(res, &TurnError{Kind: KindTransport, Err: callErr})
		}
		original := providerError(apiErr)

		if len(req.Tools) == 0 {
			log.Warn("turn failed", zap.String("kind", original.Kind.String()), zap.Int("status", apiErr.StatusCode))
			return c.fail(res, original)
		}

		// Any non-2xx with tools attached is treated as a possible tool
		// rejection, even when the body says otherwise.
		log.Info("retrying without search tools",
			zap.Int("status", apiErr.StatusCode),
			zap.Bool("tool_unsupported", original.Kind == KindToolUnsupported))
		res.advance(StateRetryWithoutTools)

		retryReq := *req
		retryReq.Tools = nil
		retryResp, retryErr := c.gen.GenerateContent(ctx, opts.APIKey, opts.Model, &retryReq)
		if retryErr != nil {
			log.Warn("retry without tools failed", zap.Error(retryErr))
			return c.fail(res, original)
		}
		resp = retryResp
		res.Retried = true
	}

	content, ok := gemini.ExtractText(resp)
	if !ok {
		content = c.placeholder
	}
	sources := []model.Source{}
	if !res.Retried {
		sources = gemini.ExtractSources(resp)
	}

	msg := model.NewAssistantMessage(content, sources)
	if err := reg.Append(sessionID, msg); err != nil {
		return c.fail(res, err)
	}
	c.persist(reg, log)

	res.Message = &msg
	res.Display = content
	if res.Retried {
		res.Display = content + "\n\n" + c.disclaimer
	}
	res.advance(StateSuccess)

	log.Info("turn completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("sources", len(sources)),
		zap.Bool("retried", res.Retried))
	return res, nil
}

// buildRequest assembles the provider request from the trailing window of
// the session log, which already ends with the new prompt.
func (c *Controller) buildRequest(reg *session.Registry, sessionID string, opts Options) (*gemini.GenerateContentRequest, error) {
	msgs, err := reg.Messages(sessionID)
	if err != nil {
		return nil, err
	}

	window := opts.HistoryWindow
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	if len(msgs) > window {
		msgs = msgs[len(msgs)-window:]
	}

	req := &gemini.GenerateContentRequest{
		Contents:       make([]gemini.Content, 0, len(msgs)),
		SafetySettings: opts.Safety,
	}
	for _, m := range msgs {
		req.Contents = append(req.Contents, gemini.TextContent(m.Role.ProviderRole(), m.Content))
	}
	if s := strings.TrimSpace(opts.SystemInstruction); s != "" {
		req.SystemInstruction = &gemini.Content{Parts: []gemini.Part{{Text: s}}}
	}
	if !opts.Generation.IsZero() {
		gc := opts.Generation
		req.GenerationConfig = &gc
	}
	if opts.SearchGrounding {
		req.Tools = gemini.SearchTools(opts.Model)
	}
	return req, nil
}

func (c *Controller) persist(reg *session.Registry, log *zap.Logger) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(reg.State()); err != nil {
		log.Warn("history not saved", zap.Error(err))
	}
}

func (c *Controller) fail(res *Result, err error) (*Result, error) {
	res.Err = err
	res.advance(StateFailed)
	return res, err
}

func (r *Result) advance(s State) {
	r.State = s
	r.Path = append(r.Path, s)
}

func providerError(apiErr *gemini.APIError) *TurnError {
	kind := KindProvider
	if apiErr.ToolUnsupported() {
		kind = KindToolUnsupported
	}
	return &TurnError{Kind: kind, Status: apiErr.StatusCode, Body: apiErr.Body, Err: apiErr}
}
