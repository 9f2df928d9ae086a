// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/chatweb/internal/gemini"
)

const (
	// DefaultTTL is how long a successful listing is reused.
	DefaultTTL = 600 * time.Second

	// DefaultTimeout bounds one listing call.
	DefaultTimeout = 15 * time.Second

	// FallbackModel is offered whenever the live list is unavailable.
	FallbackModel = "gemini-1.5-flash"

	GroupGemini  = "Google Gemini"
	GroupDefault = "Default"
	GroupError   = "Error"

	generateMethod = "generateContent"
	modelPrefix    = "models/"
)

// Entry is one selectable model.
type Entry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Catalog is a resolved model list.
type Catalog struct {
	Group     string    `json:"group"`
	Models    []Entry   `json:"models"`
	Fallback  bool      `json:"fallback"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Contains reports whether id is one of the catalog's models.
func (c Catalog) Contains(id string) bool {
	for _, m := range c.Models {
		if m.ID == id {
			return true
		}
	}
	return false
}

// IDs returns the model IDs in order.
func (c Catalog) IDs() []string {
	ids := make([]string, len(c.Models))
	for i, m := range c.Models {
		ids[i] = m.ID
	}
	return ids
}

// Default returns the catalog used when no API key is available.
func Default() Catalog {
	return Catalog{
		Group:    GroupDefault,
		Models:   []Entry{{ID: FallbackModel, Label: Label(FallbackModel)}},
		Fallback: true,
	}
}

func errorCatalog(label string) Catalog {
	return Catalog{
		Group:    GroupError,
		Models:   []Entry{{ID: FallbackModel, Label: label}},
		Fallback: true,
	}
}

// Label turns a model ID into a display label: dashes become spaces and
// each word is title-cased ("gemini-1.5-flash" -> "Gemini 1.5 Flash").
func Label(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "-", " "))
}

// =============================================================================
// RESOLVER
// =============================================================================

type cached struct {
	catalog Catalog
	expires time.Time
}

// Resolver caches model listings per API key.
type Resolver struct {
	lister  gemini.ModelLister
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[string]cached
	group singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTTL sets the cache lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithTimeout bounds each listing call.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver backed by lister.
func New(lister gemini.ModelLister, opts ...Option) *Resolver {
	r := &Resolver{
		lister:  lister,
		ttl:     DefaultTTL,
		timeout: DefaultTimeout,
		now:     time.Now,
		logger:  zap.NewNop(),
		cache:   make(map[string]cached),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the model catalog for apiKey. It never fails; see the
// package documentation for the fallback entries.
func (r *Resolver) Resolve(ctx context.Context, apiKey string) Catalog {
	if apiKey == "" {
		return Default()
	}

	fp := gemini.KeyFingerprint(apiKey)
	if c, ok := r.lookup(fp); ok {
		return c
	}

	v, _, _ := r.group.Do(fp, func() (any, error) {
		if c, ok := r.lookup(fp); ok {
			return c, nil
		}
		c, ok := r.fetch(ctx, apiKey)
		if ok {
			r.mu.Lock()
			r.cache[fp] = cached{catalog: c, expires: r.now().Add(r.ttl)}
			r.mu.Unlock()
		}
		return c, nil
	})
	return v.(Catalog)
}

// Refresh drops every cached listing so the next Resolve refetches.
func (r *Resolver) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]cached)
	r.logger.Debug("model catalog cache cleared")
}

func (r *Resolver) lookup(fp string) (Catalog, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cache[fp]
	if !ok {
		return Catalog{}, false
	}
	if !r.now().Before(c.expires) {
		delete(r.cache, fp)
		return Catalog{}, false
	}
	return c.catalog, true
}

// fetch lists models. The bool reports whether the result may be cached.
func (r *Resolver) fetch(ctx context.Context, apiKey string) (Catalog, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	infos, err := r.lister.ListModels(ctx, apiKey)
	if err != nil {
		var apiErr *gemini.APIError
		if errors.As(err, &apiErr) {
			r.logger.Warn("model list rejected", zap.Int("status", apiErr.StatusCode))
			return errorCatalog(fmt.Sprintf("API Error %d", apiErr.StatusCode)), false
		}
		r.logger.Warn("model list unavailable", zap.Error(err))
		return errorCatalog("Connection Error"), false
	}

	entries := make([]Entry, 0, len(infos))
	seen := make(map[string]bool, len(infos))
	for _, info := range infos {
		if !info.Supports(generateMethod) {
			continue
		}
		id := strings.TrimPrefix(info.Name, modelPrefix)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		entries = append(entries, Entry{ID: id, Label: Label(id)})
	}
	if len(entries) == 0 {
		return Default(), false
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	r.logger.Debug("model catalog fetched", zap.Int("models", len(entries)))
	return Catalog{Group: GroupGemini, Models: entries, FetchedAt: r.now()}, true
}
