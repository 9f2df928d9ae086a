// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Configuration constants for the Gemini API.
const (
	// DefaultBaseURL is the v1beta REST root.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultTimeout bounds a single generateContent call.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024

	// maxModelPages caps pagination of the models list.
	maxModelPages = 20

	userAgent = "chatweb/1.0"
)

// Generator performs one generateContent call. *Client and *SDKGenerator
// implement it.
type Generator interface {
	GenerateContent(ctx context.Context, apiKey, model string, req *GenerateContentRequest) (*GenerateContentResponse, error)
}

// ModelLister lists the models visible to an API key.
type ModelLister interface {
	ListModels(ctx context.Context, apiKey string) ([]ModelInfo, error)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a REST client for the Gemini API. The API key is supplied per
// call so one client serves every user-entered key. It is safe for
// concurrent use once configured.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client with default settings.
func NewClient() *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			},
			Timeout: DefaultTimeout,
		},
		logger: zap.NewNop(),
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(baseURL string) *Client {
	if baseURL != "" {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
	return c
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithLogger sets the logger for request diagnostics.
func (c *Client) WithLogger(l *zap.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// GENERATE
// =============================================================================

// GenerateContent posts req to models/{model}:generateContent.
//
// Errors are *APIError for non-2xx responses and *TransportError for
// everything that prevented a usable response.
func (c *Client) GenerateContent(ctx context.Context, apiKey, model string, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("x-goog-api-key", apiKey)

	respBody, err := c.do(httpReq, "generate content", zap.String("model", model), zap.Int("tools", len(req.Tools)))
	if err != nil {
		return nil, err
	}

	var out GenerateContentResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &TransportError{Op: "decode response", Err: err}
	}
	return &out, nil
}

// =============================================================================
// LIST MODELS
// =============================================================================

// ListModels returns every model visible to apiKey, following pagination.
func (c *Client) ListModels(ctx context.Context, apiKey string) ([]ModelInfo, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	var models []ModelInfo
	pageToken := ""
	for page := 0; page < maxModelPages; page++ {
		q := url.Values{}
		q.Set("key", apiKey)
		q.Set("pageSize", "1000")
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("User-Agent", userAgent)

		body, err := c.do(httpReq, "list models", zap.Int("page", page))
		if err != nil {
			return nil, err
		}

		var resp listModelsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &TransportError{Op: "decode models", Err: err}
		}
		models = append(models, resp.Models...)

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return models, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do executes req and returns the body of a 2xx response.
// SECURITY: Only the URL path is logged; the query may carry the key.
func (c *Client) do(req *http.Request, op string, fields ...zap.Field) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: scrubURLError(err)}
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)

	c.logger.Debug("gemini request",
		append(fields,
			zap.String("op", op),
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)),
		)...)

	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// readResponse reads the response body with size limits to prevent memory
// exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// scrubURLError drops the request URL from *url.Error so a key carried in
// the query string never reaches logs or users.
func scrubURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// MaskKey returns a loggable fingerprint of an API key.
// SECURITY: Never exposes key fragments.
func MaskKey(apiKey string) string {
	if apiKey == "" {
		return "[not set]"
	}
	h := sha256.Sum256([]byte(apiKey))
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(apiKey), hex.EncodeToString(h[:4]))
}

// KeyFingerprint returns a short stable identifier for an API key, used as
// a cache key.
func KeyFingerprint(apiKey string) string {
	if apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:8])
}
