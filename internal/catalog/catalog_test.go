// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/chatweb/internal/gemini"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type fakeLister struct {
	calls  atomic.Int32
	models []gemini.ModelInfo
	err    error
	delay  time.Duration
}

func (f *fakeLister) ListModels(ctx context.Context, apiKey string) ([]gemini.ModelInfo, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.models, f.err
}

func sampleModels() []gemini.ModelInfo {
	return []gemini.ModelInfo{
		{Name: "models/gemini-2.0-flash", SupportedGenerationMethods: []string{"generateContent", "countTokens"}},
		{Name: "models/text-embedding-004", SupportedGenerationMethods: []string{"embedContent"}},
		{Name: "models/gemini-1.5-flash", SupportedGenerationMethods: []string{"generateContent"}},
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// =============================================================================
// LABELS
// =============================================================================

func TestLabel(t *testing.T) {
	assert.Equal(t, "Gemini 1.5 Flash", Label("gemini-1.5-flash"))
	assert.Equal(t, "Gemini 2.0 Flash Exp", Label("gemini-2.0-flash-exp"))
	assert.Equal(t, "Gemini Pro", Label("gemini-pro"))
}

// =============================================================================
// RESOLVE
// =============================================================================

func TestResolve_NoKeyReturnsDefault(t *testing.T) {
	lister := &fakeLister{models: sampleModels()}
	c := New(lister).Resolve(context.Background(), "")

	assert.Equal(t, GroupDefault, c.Group)
	assert.True(t, c.Fallback)
	assert.Equal(t, []Entry{{ID: "gemini-1.5-flash", Label: "Gemini 1.5 Flash"}}, c.Models)
	assert.Zero(t, lister.calls.Load())
}

func TestResolve_FiltersAndStripsPrefix(t *testing.T) {
	lister := &fakeLister{models: sampleModels()}
	c := New(lister).Resolve(context.Background(), "key")

	assert.Equal(t, GroupGemini, c.Group)
	assert.False(t, c.Fallback)
	assert.Equal(t, []string{"gemini-1.5-flash", "gemini-2.0-flash"}, c.IDs())
	assert.Equal(t, "Gemini 2.0 Flash", c.Models[1].Label)
	assert.True(t, c.Contains("gemini-2.0-flash"))
	assert.False(t, c.Contains("text-embedding-004"))
}

func TestResolve_Fallbacks(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		label string
	}{
		{"api error", &gemini.APIError{StatusCode: 403, Body: "denied"}, "API Error 403"},
		{"transport error", &gemini.TransportError{Op: "list models", Err: errors.New("dial tcp: refused")}, "Connection Error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lister := &fakeLister{err: tc.err}
			r := New(lister)
			c := r.Resolve(context.Background(), "key")

			assert.Equal(t, GroupError, c.Group)
			assert.True(t, c.Fallback)
			assert.Equal(t, []Entry{{ID: FallbackModel, Label: tc.label}}, c.Models)

			// Fallbacks are not cached.
			r.Resolve(context.Background(), "key")
			assert.EqualValues(t, 2, lister.calls.Load())
		})
	}
}

func TestResolve_EmptyListFallsBackToDefault(t *testing.T) {
	lister := &fakeLister{models: []gemini.ModelInfo{{Name: "models/embed", SupportedGenerationMethods: []string{"embedContent"}}}}
	c := New(lister).Resolve(context.Background(), "key")
	assert.Equal(t, GroupDefault, c.Group)
}

// =============================================================================
// CACHING
// =============================================================================

func TestResolve_CachesUntilTTL(t *testing.T) {
	clk := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	lister := &fakeLister{models: sampleModels()}
	r := New(lister, WithClock(clk.Now), WithTTL(10*time.Minute))

	r.Resolve(context.Background(), "key")
	clk.Advance(9 * time.Minute)
	r.Resolve(context.Background(), "key")
	assert.EqualValues(t, 1, lister.calls.Load())

	clk.Advance(2 * time.Minute)
	r.Resolve(context.Background(), "key")
	assert.EqualValues(t, 2, lister.calls.Load())
}

func TestResolve_CachePerKey(t *testing.T) {
	lister := &fakeLister{models: sampleModels()}
	r := New(lister)
	r.Resolve(context.Background(), "key-a")
	r.Resolve(context.Background(), "key-b")
	r.Resolve(context.Background(), "key-a")
	assert.EqualValues(t, 2, lister.calls.Load())
}

func TestRefresh_InvalidatesCache(t *testing.T) {
	lister := &fakeLister{models: sampleModels()}
	r := New(lister)
	r.Resolve(context.Background(), "key")
	r.Refresh()
	r.Resolve(context.Background(), "key")
	assert.EqualValues(t, 2, lister.calls.Load())
}

func TestResolve_ConcurrentCallsShareOneFetch(t *testing.T) {
	lister := &fakeLister{models: sampleModels(), delay: 50 * time.Millisecond}
	r := New(lister)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := r.Resolve(context.Background(), "key")
			assert.Len(t, c.Models, 2)
		}()
	}
	wg.Wait()
	require.LessOrEqual(t, lister.calls.Load(), int32(2))
}
