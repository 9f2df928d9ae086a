// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToSDKRequest(t *testing.T) {
	temp, topP, topK := 0.2, 0.9, 40
	req := &GenerateContentRequest{
		Contents: []Content{
			TextContent("user", "hi"),
			TextContent("model", "hello"),
		},
		SystemInstruction: &Content{Parts: []Part{{Text: "sys"}}},
		GenerationConfig:  &GenerationConfig{Temperature: &temp, TopP: &topP, TopK: &topK, MaxOutputTokens: 256},
		SafetySettings:    []SafetySetting{{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"}},
		Tools:             SearchTools("gemini-1.5-flash"),
	}

	contents, cfg := toSDKRequest(req)
	require.Len(t, contents, 2)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "hello", contents[1].Parts[0].Text)

	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "sys", cfg.SystemInstruction.Parts[0].Text)
	assert.InDelta(t, 0.2, *cfg.Temperature, 1e-6)
	assert.InDelta(t, 40, *cfg.TopK, 1e-6)
	assert.EqualValues(t, 256, cfg.MaxOutputTokens)
	require.Len(t, cfg.SafetySettings, 1)
	assert.Equal(t, genai.HarmCategory("HARM_CATEGORY_HARASSMENT"), cfg.SafetySettings[0].Category)

	require.Len(t, cfg.Tools, 1)
	require.NotNil(t, cfg.Tools[0].GoogleSearchRetrieval)
	assert.Equal(t, genai.DynamicRetrievalConfigMode("MODE_DYNAMIC"), cfg.Tools[0].GoogleSearchRetrieval.DynamicRetrievalConfig.Mode)

	_, cfg = toSDKRequest(&GenerateContentRequest{Tools: SearchTools("gemini-2.0-flash")})
	require.Len(t, cfg.Tools, 1)
	assert.NotNil(t, cfg.Tools[0].GoogleSearch)
}

func TestFromSDKResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: "Paris"}, {Text: " rocks"}}},
			GroundingMetadata: &genai.GroundingMetadata{
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{Title: "A", URI: "http://x"}},
					{},
				},
			},
		}},
	}

	out := fromSDKResponse(resp)
	text, ok := ExtractText(out)
	require.True(t, ok)
	assert.Equal(t, "Paris rocks", text)
	assert.Len(t, out.Candidates[0].GroundingMetadata.GroundingChunks, 2)
	assert.Len(t, ExtractSources(out), 1)
	assert.True(t, HasGroundingMetadata(out))
}

func TestFromSDKError(t *testing.T) {
	err := fromSDKError(fmt.Errorf("wrapped: %w", genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "Unknown field"}))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.True(t, apiErr.ToolUnsupported())

	err = fromSDKError(context.DeadlineExceeded)
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSDKGenerator_RequiresKey(t *testing.T) {
	_, err := NewSDKGenerator("", nil, nil).GenerateContent(context.Background(), "", "m", &GenerateContentRequest{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
