// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/chatweb/internal/gemini"
	"github.com/jeranaias/chatweb/internal/util"
)

// ProbeStatus is the verdict of a search-grounding probe.
type ProbeStatus string

const (
	ProbeOK    ProbeStatus = "OK"
	ProbeMaybe ProbeStatus = "MAYBE"
	ProbeNo    ProbeStatus = "NO"
	ProbeError ProbeStatus = "ERROR"
	ProbeNoKey ProbeStatus = "NO_KEY"
)

const (
	probePrompt      = "Find one recent fact about the Eiffel Tower and cite the source."
	probeTemperature = 0.2
	probeMaxTokens   = 256

	// maxProbeDetail bounds the provider body kept in a probe result.
	maxProbeDetail = 4000
)

// Probe is the result of ProbeSearch.
type Probe struct {
	Status    ProbeStatus `json:"status"`
	Detail    string      `json:"detail"`
	Model     string      `json:"model"`
	CheckedAt time.Time   `json:"checked_at"`
}

// ProbeSearch sends one small grounded request to find out whether model
// accepts search tools. A 2xx with grounding metadata is OK, a 2xx without
// it is MAYBE (the model may have decided not to search). Rejections that
// read like an unknown tool are NO; anything else is ERROR.
func ProbeSearch(ctx context.Context, gen gemini.Generator, apiKey, modelID string) Probe {
	p := Probe{Model: modelID, CheckedAt: time.Now()}
	if apiKey == "" {
		p.Status = ProbeNoKey
		p.Detail = "An API key is required."
		return p
	}

	temp := probeTemperature
	req := &gemini.GenerateContentRequest{
		Contents: []gemini.Content{gemini.TextContent("user", probePrompt)},
		Tools:    gemini.SearchTools(modelID),
		GenerationConfig: &gemini.GenerationConfig{
			Temperature:     &temp,
			MaxOutputTokens: probeMaxTokens,
		},
	}

	resp, err := gen.GenerateContent(ctx, apiKey, modelID, req)
	if err != nil {
		var apiErr *gemini.APIError
		if !errors.As(err, &apiErr) {
			p.Status = ProbeError
			p.Detail = err.Error()
			return p
		}
		body := util.TruncateRunes(apiErr.Body, maxProbeDetail)
		if gemini.IsToolUnsupported(body) {
			p.Status = ProbeNo
			p.Detail = "Search tools are likely unsupported: " + body
			return p
		}
		p.Status = ProbeError
		p.Detail = fmt.Sprintf("%d: %s", apiErr.StatusCode, body)
		return p
	}

	if gemini.HasGroundingMetadata(resp) {
		p.Status = ProbeOK
		p.Detail = "Search grounding response confirmed."
		return p
	}
	p.Status = ProbeMaybe
	p.Detail = "200 OK, but the response carried no grounding metadata."
	return p
}

// ProbeCache remembers the last probe per key and model until cleared.
type ProbeCache struct {
	mu      sync.RWMutex
	results map[string]Probe
}

// NewProbeCache creates an empty cache.
func NewProbeCache() *ProbeCache {
	return &ProbeCache{results: make(map[string]Probe)}
}

func probeKey(apiKey, modelID string) string {
	return gemini.KeyFingerprint(apiKey) + "/" + modelID
}

// Get returns the cached probe for apiKey and modelID.
func (c *ProbeCache) Get(apiKey, modelID string) (Probe, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.results[probeKey(apiKey, modelID)]
	return p, ok
}

// Set stores p for apiKey and p.Model.
func (c *ProbeCache) Set(apiKey string, p Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[probeKey(apiKey, p.Model)] = p
}

// Run probes and stores the result. NO_KEY results are not stored.
func (c *ProbeCache) Run(ctx context.Context, gen gemini.Generator, apiKey, modelID string) Probe {
	p := ProbeSearch(ctx, gen, apiKey, modelID)
	if p.Status != ProbeNoKey {
		c.Set(apiKey, p)
	}
	return p
}

// Clear drops every cached probe.
func (c *ProbeCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.results)
}
