// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// =============================================================================
// SDK GENERATOR
// =============================================================================

// SDKGenerator implements Generator with google.golang.org/genai. One SDK
// client is created lazily per API key and reused.
type SDKGenerator struct {
	mu      sync.Mutex
	clients map[string]*genai.Client

	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSDKGenerator creates an SDK-backed generator. baseURL may be empty to
// use the SDK default; httpClient may be nil.
func NewSDKGenerator(baseURL string, httpClient *http.Client, logger *zap.Logger) *SDKGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SDKGenerator{
		clients:    make(map[string]*genai.Client),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// GenerateContent implements Generator.
func (g *SDKGenerator) GenerateContent(ctx context.Context, apiKey, model string, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := g.client(ctx, apiKey)
	if err != nil {
		return nil, &TransportError{Op: "create sdk client", Err: err}
	}

	contents, config := toSDKRequest(req)
	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fromSDKError(err)
	}
	g.logger.Debug("gemini sdk request", zap.String("model", model), zap.Int("tools", len(req.Tools)))
	return fromSDKResponse(resp), nil
}

func (g *SDKGenerator) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	fp := KeyFingerprint(apiKey)

	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[fp]; ok {
		return c, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
	}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	g.clients[fp] = c
	return c, nil
}

// =============================================================================
// CONVERSION
// =============================================================================

func toSDKContent(c Content) *genai.Content {
	out := &genai.Content{Role: c.Role}
	for _, p := range c.Parts {
		out.Parts = append(out.Parts, &genai.Part{Text: p.Text})
	}
	return out
}

func toSDKRequest(req *GenerateContentRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(req.Contents))
	for _, c := range req.Contents {
		contents = append(contents, toSDKContent(c))
	}

	cfg := &genai.GenerateContentConfig{}
	if req.SystemInstruction != nil {
		cfg.SystemInstruction = toSDKContent(*req.SystemInstruction)
	}
	if gc := req.GenerationConfig; gc != nil {
		if gc.Temperature != nil {
			cfg.Temperature = genai.Ptr(float32(*gc.Temperature))
		}
		if gc.TopP != nil {
			cfg.TopP = genai.Ptr(float32(*gc.TopP))
		}
		if gc.TopK != nil {
			cfg.TopK = genai.Ptr(float32(*gc.TopK))
		}
		cfg.MaxOutputTokens = int32(gc.MaxOutputTokens)
	}
	for _, s := range req.SafetySettings {
		cfg.SafetySettings = append(cfg.SafetySettings, &genai.SafetySetting{
			Category:  genai.HarmCategory(s.Category),
			Threshold: genai.HarmBlockThreshold(s.Threshold),
		})
	}
	for _, t := range req.Tools {
		switch {
		case t.GoogleSearch != nil:
			cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
		case t.GoogleSearchRetrieval != nil:
			r := &genai.GoogleSearchRetrieval{}
			if d := t.GoogleSearchRetrieval.DynamicRetrievalConfig; d != nil {
				r.DynamicRetrievalConfig = &genai.DynamicRetrievalConfig{
					Mode:             genai.DynamicRetrievalConfigMode(d.Mode),
					DynamicThreshold: genai.Ptr(float32(d.DynamicThreshold)),
				}
			}
			cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleSearchRetrieval: r})
		}
	}
	return contents, cfg
}

func fromSDKResponse(resp *genai.GenerateContentResponse) *GenerateContentResponse {
	out := &GenerateContentResponse{}
	if resp == nil {
		return out
	}
	for _, c := range resp.Candidates {
		if c == nil {
			continue
		}
		cand := Candidate{FinishReason: string(c.FinishReason)}
		if c.Content != nil {
			cand.Content.Role = c.Content.Role
			for _, p := range c.Content.Parts {
				if p != nil && p.Text != "" {
					cand.Content.Parts = append(cand.Content.Parts, Part{Text: p.Text})
				}
			}
		}
		if gm := c.GroundingMetadata; gm != nil {
			meta := &GroundingMetadata{WebSearchQueries: gm.WebSearchQueries}
			for _, ch := range gm.GroundingChunks {
				chunk := GroundingChunk{}
				if ch != nil && ch.Web != nil {
					chunk.Web = &WebChunk{URI: ch.Web.URI, Title: ch.Web.Title}
				}
				meta.GroundingChunks = append(meta.GroundingChunks, chunk)
			}
			cand.GroundingMetadata = meta
		}
		out.Candidates = append(out.Candidates, cand)
	}
	return out
}

// fromSDKError maps SDK errors onto APIError or TransportError.
func fromSDKError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.Code, Body: sdkErrorBody(apiErr)}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &APIError{StatusCode: apiErrPtr.Code, Body: sdkErrorBody(*apiErrPtr)}
	}
	return &TransportError{Op: "generate content", Err: err}
}

func sdkErrorBody(e genai.APIError) string {
	if e.Status != "" {
		return fmt.Sprintf("%s: %s", e.Status, e.Message)
	}
	return e.Message
}
