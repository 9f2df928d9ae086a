// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/chatweb/internal/codec"
	"github.com/jeranaias/chatweb/internal/model"
	"github.com/jeranaias/chatweb/internal/session"
	"github.com/jeranaias/chatweb/internal/util"
)

// DefaultFileName is the history file name inside the data directory.
const DefaultFileName = "system_log.dat"

// =============================================================================
// STORE
// =============================================================================

// Store reads and writes the registry state at a fixed path.
type Store struct {
	mu     sync.Mutex
	path   string
	codec  *codec.Codec
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for recovered load failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store for path. A leading "~" is expanded.
func NewStore(path string, c *codec.Codec, opts ...Option) *Store {
	s := &Store{
		path:   util.ExpandHome(path),
		codec:  c,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the history file path.
func (s *Store) Path() string {
	return s.path
}

// Save serializes st and replaces the history file with its encoded form.
func (s *Store) Save(st session.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	blob := s.codec.Encode(string(data))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := util.AtomicWriteFile(s.path, []byte(blob), 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// Load returns the persisted state, or the default state when nothing
// usable is on disk. It never returns an error.
func (s *Store) Load() session.State {
	st, _ := s.LoadChecked()
	return st
}

// LoadChecked is Load that also reports whether the returned state matches
// the file. It is false whenever session ids had to be minted (missing,
// unreadable or legacy history), so callers can save once to pin them.
func (s *Store) LoadChecked() (session.State, bool) {
	s.mu.Lock()
	raw, err := os.ReadFile(s.path)
	s.mu.Unlock()

	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("history unreadable, starting fresh", zap.String("path", s.path), zap.Error(err))
		}
		return session.DefaultState(), false
	}

	plain := s.codec.Decode(string(raw))
	if strings.TrimSpace(plain) == "" {
		if len(bytes.TrimSpace(raw)) > 0 {
			s.logger.Warn("history undecodable, starting fresh", zap.String("path", s.path))
		}
		return session.DefaultState(), false
	}

	st, stable, ok := parseState([]byte(plain))
	if !ok {
		s.logger.Warn("history is not valid JSON, starting fresh", zap.String("path", s.path))
		return session.DefaultState(), false
	}
	return st, stable
}

// Clear deletes the history file. A missing file is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove history: %w", err)
	}
	return nil
}

// =============================================================================
// DECODING
// =============================================================================

// envelope mirrors session.State with optional fields so missing keys can
// be told apart from empty ones.
type envelope struct {
	Sessions         []model.Session `json:"sessions"`
	CurrentSessionID *string         `json:"current_session_id"`
}

// parseState accepts the canonical envelope or the legacy flat message list.
// The second result is false when the state carries ids the data did not;
// the third is false when data is neither shape.
func parseState(data []byte) (session.State, bool, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return session.State{}, false, false
	}

	switch data[0] {
	case '[':
		var msgs []model.Message
		if err := json.Unmarshal(data, &msgs); err != nil {
			return session.State{}, false, false
		}
		st := session.DefaultState()
		st.Sessions[0].Messages = msgs
		return st.Normalize(), false, true

	case '{':
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return session.State{}, false, false
		}
		if len(env.Sessions) == 0 {
			return session.DefaultState(), false, true
		}
		stable := true
		for _, sess := range env.Sessions {
			if sess.ID == "" {
				stable = false
			}
		}
		st := session.State{Sessions: env.Sessions}
		if env.CurrentSessionID != nil {
			st.CurrentSessionID = *env.CurrentSessionID
		}
		return st.Normalize(), stable, true
	}
	return session.State{}, false, false
}
