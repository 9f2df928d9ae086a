// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatweb/internal/model"
)

func TestSearchTools_ModelFamilies(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gemini-1.5-flash", `[{"google_search_retrieval":{"dynamic_retrieval_config":{"mode":"MODE_DYNAMIC","dynamic_threshold":0.7}}}]`},
		{"gemini-1.5-pro-002", `[{"google_search_retrieval":{"dynamic_retrieval_config":{"mode":"MODE_DYNAMIC","dynamic_threshold":0.7}}}]`},
		{"gemini-2.0-flash", `[{"google_search":{}}]`},
		{"gemini-2.5-pro", `[{"google_search":{}}]`},
		{"gemma-3-27b-it", `[{"google_search":{}}]`},
	}

	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			data, err := json.Marshal(SearchTools(tc.model))
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))
		})
	}
}

func TestExtractText(t *testing.T) {
	_, ok := ExtractText(nil)
	assert.False(t, ok)

	_, ok = ExtractText(&GenerateContentResponse{})
	assert.False(t, ok)

	_, ok = ExtractText(&GenerateContentResponse{Candidates: []Candidate{{Content: Content{Parts: []Part{{Text: "  \n"}}}}}})
	assert.False(t, ok)

	text, ok := ExtractText(&GenerateContentResponse{Candidates: []Candidate{
		{Content: Content{Parts: []Part{{Text: " one"}, {}, {Text: " two "}}}},
		{Content: Content{Parts: []Part{{Text: "ignored"}}}},
	}})
	require.True(t, ok)
	assert.Equal(t, "one two", text)
}

func TestExtractSources_SkipsChunksWithoutWeb(t *testing.T) {
	var resp GenerateContentResponse
	require.NoError(t, json.Unmarshal([]byte(`{"candidates":[{"content":{"parts":[{"text":"x"}]},
		"groundingMetadata":{"groundingChunks":[
			{"web":{"title":"A","uri":"http://x"}},
			{"retrievedContext":{"uri":"gs://bucket"}},
			{"web":{"title":"","uri":"http://no-title"}},
			{"web":{"title":"B","uri":"http://y"}}
		]}}]}`), &resp))

	assert.Equal(t, []model.Source{
		{Title: "A", URI: "http://x"},
		{Title: "B", URI: "http://y"},
	}, ExtractSources(&resp))
}

func TestExtractSources_EmptyIsNonNil(t *testing.T) {
	assert.Equal(t, []model.Source{}, ExtractSources(nil))
	assert.Equal(t, []model.Source{}, ExtractSources(&GenerateContentResponse{Candidates: []Candidate{{}}}))
}

func TestHasGroundingMetadata(t *testing.T) {
	assert.False(t, HasGroundingMetadata(&GenerateContentResponse{Candidates: []Candidate{{}}}))
	assert.False(t, HasGroundingMetadata(&GenerateContentResponse{Candidates: []Candidate{{GroundingMetadata: &GroundingMetadata{}}}}))
	assert.True(t, HasGroundingMetadata(&GenerateContentResponse{Candidates: []Candidate{{
		GroundingMetadata: &GroundingMetadata{WebSearchQueries: []string{"eiffel tower"}},
	}}}))
}

func TestIsToolUnsupported(t *testing.T) {
	assert.True(t, IsToolUnsupported(`Unknown field "google_search"`))
	assert.True(t, IsToolUnsupported("Search grounding is NOT SUPPORTED for this model"))
	assert.True(t, IsToolUnsupported("Request contains an Invalid Argument."))
	assert.False(t, IsToolUnsupported(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED"}}`))
}
