// Package ogimage renders the site's Open-Graph preview image: the logo centred
// over the tagline, 1200x630 PNG.
package ogimage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/flanksource/commons/logger"

	"github.com/vircadia/ogimage/cache"
	"github.com/vircadia/ogimage/datauri"
	"github.com/vircadia/ogimage/document"
	"github.com/vircadia/ogimage/render"
)

// Params are the inputs of one generation. Defaults for the site layout live in
// the CLI, not here.
type Params struct {
	LogoPath   string
	FontPath   string
	Tagline    string
	OutputPath string

	// Backend is one of render.Backends, empty means auto
	Backend string
	// RasterizerScript optionally points at an html-to-image browser build
	RasterizerScript string
}

// Result describes a successful generation
type Result struct {
	OutputPath string
	Backend    string
	Cached     bool
	Size       int
}

// Generator wires the renderers and the optional cache together
type Generator struct {
	manager *render.Manager
	cache   *cache.Cache
}

// New creates a generator. cache may be nil.
func New(manager *render.Manager, c *cache.Cache) *Generator {
	if manager == nil {
		manager = render.NewManager()
	}
	return &Generator{manager: manager, cache: c}
}

// Generate renders the preview image with the default renderers and no cache
func Generate(ctx context.Context, params Params) (*Result, error) {
	return New(nil, nil).Generate(ctx, params)
}

// Generate reads the assets, renders the card and replaces OutputPath. Nothing is
// written unless rendering succeeded, and the write itself is atomic.
func (g *Generator) Generate(ctx context.Context, params Params) (*Result, error) {
	if params.OutputPath == "" {
		return nil, errors.New("output path is required")
	}

	logo, err := os.ReadFile(params.LogoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read logo: %w", err)
	}
	font, err := os.ReadFile(params.FontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}

	logoMIME := datauri.DetectImageMIME(params.LogoPath, logo)
	fontMIME, fontFormat := datauri.FontMIME(params.FontPath)

	html, err := document.Build(document.Card{
		LogoURI:    datauri.Encode(logoMIME, logo),
		FontURI:    datauri.Encode(fontMIME, font),
		FontFormat: fontFormat,
		Tagline:    params.Tagline,
	})
	if err != nil {
		return nil, err
	}

	job := render.NewJob(html)
	job.RasterizerScript = params.RasterizerScript
	job.Logo = logo
	job.LogoMIME = logoMIME
	job.Font = font
	job.Tagline = params.Tagline

	backend := params.Backend
	if backend == "" {
		backend = render.BackendAuto
	}

	// auto is cached under the renderer it should resolve to, so a fallback render
	// never stands in for a browser that becomes available later
	keyBackend := g.resolveBackend(backend)
	key := g.cacheKey(keyBackend, job)
	if entry, ok := g.lookup(key); ok {
		if err := writeFileAtomic(params.OutputPath, entry.PNG); err != nil {
			return nil, err
		}
		logger.Infof("OG image restored from cache at %s (%s)", params.OutputPath, entry.Backend)
		return &Result{OutputPath: params.OutputPath, Backend: entry.Backend, Cached: true, Size: len(entry.PNG)}, nil
	}

	logger.Debugf("rendering %dx%d card with %s backend", job.Width, job.Height, backend)
	png, used, err := g.manager.Render(ctx, backend, job)
	if err != nil {
		return nil, err
	}

	png, err = render.Normalize(png, job.Width, job.Height)
	if err != nil {
		return nil, render.NewRendererError(used, "normalize", err)
	}

	if err := writeFileAtomic(params.OutputPath, png); err != nil {
		return nil, err
	}
	if used == keyBackend {
		g.store(key, used, job, png)
	} else {
		logger.Debugf("not caching %s render, %s is preferred", used, keyBackend)
	}

	logger.Infof("OG image generated at %s (%s)", params.OutputPath, used)
	return &Result{OutputPath: params.OutputPath, Backend: used, Size: len(png)}, nil
}

// resolveBackend maps auto to the highest priority available renderer
func (g *Generator) resolveBackend(backend string) string {
	if backend != render.BackendAuto {
		return backend
	}
	best, err := g.manager.Best()
	if err != nil {
		return backend
	}
	return best.Name()
}

func (g *Generator) cacheKey(backend string, job *render.Job) string {
	var script []byte
	if job.RasterizerScript != "" {
		// the script content changes the render, not its path
		script, _ = os.ReadFile(job.RasterizerScript)
	}
	return cache.Key(
		[]byte(document.Revision),
		[]byte(backend),
		[]byte(strconv.Itoa(job.Width)+"x"+strconv.Itoa(job.Height)),
		job.Logo,
		job.Font,
		[]byte(job.Tagline),
		script,
	)
}

func (g *Generator) lookup(key string) (*cache.Entry, bool) {
	if g.cache == nil {
		return nil, false
	}
	entry, err := g.cache.Get(key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) && !errors.Is(err, cache.ErrCacheDisabled) {
			logger.Warnf("render cache lookup failed: %v", err)
		}
		return nil, false
	}
	return entry, true
}

func (g *Generator) store(key, backend string, job *render.Job, png []byte) {
	if g.cache == nil {
		return
	}
	err := g.cache.Set(&cache.Entry{
		Key:     key,
		Backend: backend,
		Width:   job.Width,
		Height:  job.Height,
		PNG:     png,
	})
	if err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		logger.Warnf("failed to cache render: %v", err)
	}
}

// writeFileAtomic replaces path with data through a temporary file in the same
// directory, so readers never observe a partial image
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
