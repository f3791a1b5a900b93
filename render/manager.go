package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"
)

const (
	BackendAuto       = "auto"
	BackendPlaywright = "playwright"
	BackendChromedp   = "chromedp"
	BackendNative     = "native"
)

// Backends lists every backend name accepted on the command line
var Backends = []string{BackendAuto, BackendPlaywright, BackendChromedp, BackendNative}

// Manager manages the registered renderers with fallback support. The renderer
// set is fixed at construction, so a Manager is safe for concurrent use.
type Manager struct {
	renderers []Renderer
}

// NewManager creates a manager for the given renderers, in priority order. With no
// arguments the default backends are registered: playwright, chromedp, native.
func NewManager(renderers ...Renderer) *Manager {
	if len(renderers) == 0 {
		renderers = []Renderer{
			NewPlaywrightRenderer(PlaywrightOptions{InstallBrowsers: true}),
			NewChromedpRenderer(ChromedpOptions{}),
			NewNativeRenderer(),
		}
	}
	return &Manager{renderers: append([]Renderer(nil), renderers...)}
}

// Names returns the registered renderer names in priority order
func (m *Manager) Names() []string {
	return lo.Map(m.renderers, func(r Renderer, _ int) string { return r.Name() })
}

// Available returns the renderers that can run on this system
func (m *Manager) Available() []Renderer {
	return lo.Filter(m.renderers, func(r Renderer, _ int) bool { return r.IsAvailable() })
}

// Get returns a renderer by name
func (m *Manager) Get(name string) (Renderer, error) {
	r, ok := lo.Find(m.renderers, func(r Renderer) bool { return r.Name() == name })
	if !ok {
		return nil, fmt.Errorf("renderer '%s' not found, expected one of %v", name, Backends)
	}
	return r, nil
}

// Best returns the highest priority available renderer
func (m *Manager) Best() (Renderer, error) {
	available := m.Available()
	if len(available) == 0 {
		return nil, fmt.Errorf("no renderers available")
	}
	return available[0], nil
}

// Render renders the job with the named backend. "auto" (or an empty name) tries
// every available backend in priority order, an explicit backend never falls back.
func (m *Manager) Render(ctx context.Context, backend string, job *Job) ([]byte, string, error) {
	if backend == "" || backend == BackendAuto {
		return m.RenderWithFallback(ctx, job)
	}

	r, err := m.Get(backend)
	if err != nil {
		return nil, "", err
	}
	if !r.IsAvailable() {
		return nil, "", NewRendererError(r.Name(), "start", fmt.Errorf("not available on this system"))
	}
	png, err := r.Render(ctx, job)
	return png, r.Name(), err
}

// RenderWithFallback attempts the job on each available renderer in turn
func (m *Manager) RenderWithFallback(ctx context.Context, job *Job) ([]byte, string, error) {
	var lastErr error
	for _, r := range m.Available() {
		png, err := r.Render(ctx, job)
		if err == nil {
			return png, r.Name(), nil
		}

		// a broken template or an interrupted run fails the same way everywhere
		if errors.Is(err, ErrRenderTargetMissing) || ctx.Err() != nil {
			return nil, r.Name(), err
		}
		logger.Warnf("%s renderer failed, trying next: %v", r.Name(), err)
		lastErr = fmt.Errorf("%s: %w", r.Name(), err)
	}

	if lastErr == nil {
		return nil, "", fmt.Errorf("no renderers available")
	}
	return nil, "", fmt.Errorf("all renderers failed, last error: %w", lastErr)
}
