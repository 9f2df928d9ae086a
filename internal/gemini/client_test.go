// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "AIza-test-key"

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient().WithBaseURL(srv.URL + "/")
}

// =============================================================================
// GENERATE CONTENT
// =============================================================================

func TestGenerateContent_Success(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, testKey, r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Paris "},{"text":"is the capital."}]},
			"groundingMetadata":{"groundingChunks":[{"web":{"uri":"http://x","title":"A"}}]}}]}`)
	})

	temp := 0.7
	resp, err := client.GenerateContent(context.Background(), testKey, "gemini-2.0-flash", &GenerateContentRequest{
		Contents:          []Content{TextContent("user", "capital of France?")},
		SystemInstruction: &Content{Parts: []Part{{Text: "be brief"}}},
		GenerationConfig:  &GenerationConfig{Temperature: &temp, MaxOutputTokens: 4096},
		Tools:             SearchTools("gemini-2.0-flash"),
	})
	require.NoError(t, err)

	text, ok := ExtractText(resp)
	require.True(t, ok)
	assert.Equal(t, "Paris is the capital.", text)
	assert.Len(t, ExtractSources(resp), 1)

	assert.Contains(t, gotBody, "contents")
	assert.Contains(t, gotBody, "systemInstruction")
	assert.Contains(t, gotBody, "tools")
	assert.NotContains(t, gotBody, "safetySettings")
	gen := gotBody["generationConfig"].(map[string]any)
	assert.InDelta(t, 0.7, gen["temperature"], 1e-9)
	assert.EqualValues(t, 4096, gen["maxOutputTokens"])
	assert.NotContains(t, gen, "topK")
}

func TestGenerateContent_APIErrorKeepsRawBody(t *testing.T) {
	const body = `{"error":{"code":400,"message":"Invalid JSON payload received. Unknown field \"google_search\".","status":"INVALID_ARGUMENT"}}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, body)
	})

	_, err := client.GenerateContent(context.Background(), testKey, "m", &GenerateContentRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, body, apiErr.Body)
	assert.True(t, apiErr.ToolUnsupported())
	assert.Equal(t, "Error 400: "+body, apiErr.Error())
}

func TestGenerateContent_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	_, err := NewClient().WithBaseURL(base).GenerateContent(context.Background(), testKey, "m", &GenerateContentRequest{})
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.NotContains(t, err.Error(), base, "request URL must not leak into errors")
}

func TestGenerateContent_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}).WithTimeout(50 * time.Millisecond)

	_, err := client.GenerateContent(context.Background(), testKey, "m", &GenerateContentRequest{})
	var tErr *TransportError
	assert.True(t, errors.As(err, &tErr))
}

func TestGenerateContent_MalformedSuccessBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>not json</html>")
	})
	_, err := client.GenerateContent(context.Background(), testKey, "m", &GenerateContentRequest{})
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "decode response", tErr.Op)
}

func TestGenerateContent_NoKeyMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })
	_, err := client.GenerateContent(context.Background(), "", "m", &GenerateContentRequest{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
	assert.Zero(t, calls.Load())
}

// =============================================================================
// LIST MODELS
// =============================================================================

func TestListModels_FollowsPagination(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, testKey, r.URL.Query().Get("key"))
		switch r.URL.Query().Get("pageToken") {
		case "":
			io.WriteString(w, `{"models":[{"name":"models/gemini-2.0-flash","supportedGenerationMethods":["generateContent","countTokens"]}],"nextPageToken":"p2"}`)
		case "p2":
			io.WriteString(w, `{"models":[{"name":"models/text-embedding-004","supportedGenerationMethods":["embedContent"]}]}`)
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("pageToken"))
		}
	})

	models, err := client.ListModels(context.Background(), testKey)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.True(t, models[0].Supports("generateContent"))
	assert.False(t, models[1].Supports("generateContent"))
}

func TestListModels_Errors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":{"code":403}}`)
	})

	_, err := client.ListModels(context.Background(), testKey)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	_, err = client.ListModels(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "[not set]", MaskKey(""))
	masked := MaskKey(testKey)
	assert.NotContains(t, masked, "AIza")
	assert.True(t, strings.HasPrefix(masked, "[REDACTED"))
	assert.Equal(t, KeyFingerprint(testKey), KeyFingerprint(testKey))
	assert.NotEqual(t, KeyFingerprint(testKey), KeyFingerprint(testKey+"x"))
}
