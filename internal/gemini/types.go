// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

// =============================================================================
// REQUEST TYPES
// =============================================================================

// GenerateContentRequest is the body of a generateContent call.
type GenerateContentRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings    []SafetySetting   `json:"safetySettings,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
}

// Content is one turn of the conversation.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a fragment of a Content. Only text parts are produced or read.
type Part struct {
	Text string `json:"text,omitempty"`
}

// TextContent builds a single-part Content.
func TextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

// GenerationConfig holds sampling parameters. Nil pointers are omitted so
// the server applies its own defaults.
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// IsZero reports whether no parameter is set.
func (g GenerationConfig) IsZero() bool {
	return g.Temperature == nil && g.TopP == nil && g.TopK == nil && g.MaxOutputTokens == 0
}

// SafetySetting is a per-category blocking threshold.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// Tool is a tool descriptor. Exactly one field is set.
type Tool struct {
	GoogleSearch          *GoogleSearch          `json:"google_search,omitempty"`
	GoogleSearchRetrieval *GoogleSearchRetrieval `json:"google_search_retrieval,omitempty"`
}

// GoogleSearch enables search grounding on current model families.
type GoogleSearch struct{}

// GoogleSearchRetrieval enables search grounding on the 1.5 family.
type GoogleSearchRetrieval struct {
	DynamicRetrievalConfig *DynamicRetrievalConfig `json:"dynamic_retrieval_config,omitempty"`
}

// DynamicRetrievalConfig controls when the 1.5 family decides to search.
type DynamicRetrievalConfig struct {
	Mode             string  `json:"mode"`
	DynamicThreshold float64 `json:"dynamic_threshold"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// GenerateContentResponse is the body of a successful generateContent call.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content           Content            `json:"content"`
	FinishReason      string             `json:"finishReason,omitempty"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

// GroundingMetadata carries search citations.
type GroundingMetadata struct {
	GroundingChunks  []GroundingChunk `json:"groundingChunks,omitempty"`
	WebSearchQueries []string         `json:"webSearchQueries,omitempty"`
}

// GroundingChunk is one retrieved document. Web is nil for non-web chunks.
type GroundingChunk struct {
	Web *WebChunk `json:"web,omitempty"`
}

// WebChunk is a web citation.
type WebChunk struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// PromptFeedback reports prompt-level blocking.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// =============================================================================
// MODEL LISTING TYPES
// =============================================================================

// ModelInfo describes one entry of the models list.
type ModelInfo struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName,omitempty"`
	Description                string   `json:"description,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// Supports reports whether the model lists method among its generation methods.
func (m ModelInfo) Supports(method string) bool {
	for _, s := range m.SupportedGenerationMethods {
		if s == method {
			return true
		}
	}
	return false
}

type listModelsResponse struct {
	Models        []ModelInfo `json:"models"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}
