// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/jeranaias/chatweb/internal/chat"
	"github.com/jeranaias/chatweb/internal/gemini"
)

// Settings are the user-adjustable turn settings. Each surface starts from
// DefaultSettings and overrides fields from its own inputs.
type Settings struct {
	APIKey            string  `json:"-"`
	Model             string  `json:"model"`
	SearchGrounding   bool    `json:"search_grounding"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	TopK              int     `json:"top_k"`
	MaxOutputTokens   int     `json:"max_output_tokens"`
	SystemInstruction string  `json:"system_instruction"`
	HistoryWindow     int     `json:"history_window"`
}

// DefaultSettings returns the settings from the current configuration.
func (a *App) DefaultSettings() Settings {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	g := a.cfg.Generation
	return Settings{
		APIKey:            a.cfg.API.Key,
		Model:             g.Model,
		SearchGrounding:   g.SearchGrounding,
		Temperature:       g.Temperature,
		TopP:              g.TopP,
		TopK:              g.TopK,
		MaxOutputTokens:   g.MaxOutputTokens,
		SystemInstruction: g.SystemInstruction,
		HistoryWindow:     g.HistoryWindow,
	}
}

// TurnOptions converts s into controller options. Safety thresholds always
// come from the configuration.
func (a *App) TurnOptions(s Settings) chat.Options {
	a.cfgMu.RLock()
	safety := safetySettings(a.cfg.Generation.Safety)
	a.cfgMu.RUnlock()

	temp, topP, topK := s.Temperature, s.TopP, s.TopK
	gen := gemini.GenerationConfig{MaxOutputTokens: s.MaxOutputTokens}
	gen.Temperature = &temp
	gen.TopP = &topP
	if topK > 0 {
		gen.TopK = &topK
	}

	window := s.HistoryWindow
	if window <= 0 {
		window = chat.DefaultHistoryWindow
	}

	return chat.Options{
		APIKey:            s.APIKey,
		Model:             s.Model,
		Generation:        gen,
		SystemInstruction: s.SystemInstruction,
		Safety:            safety,
		SearchGrounding:   s.SearchGrounding,
		HistoryWindow:     window,
	}
}
