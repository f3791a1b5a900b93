package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/vircadia/ogimage/document"
)

// ErrRenderTargetMissing means the document does not contain the element the
// renderer was asked to rasterize. This is a template bug, not a runtime condition.
var ErrRenderTargetMissing = errors.New("missing render target #" + document.ContainerID)

// Renderer turns a card into PNG bytes
type Renderer interface {
	// Name returns the backend name used on the command line
	Name() string

	// IsAvailable checks whether the backend can run on this system
	IsAvailable() bool

	// Render rasterizes the job and returns the encoded PNG
	Render(ctx context.Context, job *Job) ([]byte, error)
}

// Job holds everything a backend may need. Browser backends use HTML, the native
// backend composes directly from the raw assets.
type Job struct {
	HTML     string
	TargetID string
	Width    int
	Height   int

	// Path to a DOM-to-image script (html-to-image browser build). When empty the
	// browser's own element screenshot is used.
	RasterizerScript string

	Logo     []byte
	LogoMIME string
	Font     []byte
	Tagline  string
}

// NewJob returns a job with the standard card dimensions and target
func NewJob(html string) *Job {
	return &Job{
		HTML:     html,
		TargetID: document.ContainerID,
		Width:    document.Width,
		Height:   document.Height,
	}
}

func (j *Job) validate() error {
	if j.Width <= 0 || j.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", j.Width, j.Height)
	}
	if j.TargetID == "" {
		return ErrRenderTargetMissing
	}
	return nil
}

// RendererError represents a failure inside one backend
type RendererError struct {
	Renderer  string
	Operation string
	Err       error
}

func (e *RendererError) Error() string {
	return fmt.Sprintf("%s renderer %s failed: %v", e.Renderer, e.Operation, e.Err)
}

func (e *RendererError) Unwrap() error {
	return e.Err
}

// NewRendererError creates a new renderer error
func NewRendererError(renderer, operation string, err error) error {
	return &RendererError{
		Renderer:  renderer,
		Operation: operation,
		Err:       err,
	}
}

// rasterizeScript runs inside the page. It resolves to null when the target is
// absent so the caller can report ErrRenderTargetMissing instead of a script error.
const rasterizeScript = `async ({id, width, height}) => {
  const el = document.getElementById(id);
  if (!el) {
    return null;
  }
  if (!window.htmlToImage) {
    throw new Error("htmlToImage is not loaded");
  }
  return await window.htmlToImage.toPng(el, {width, height});
}`

const (
	documentReady         = "ready"
	documentEmpty         = "empty"
	documentTargetMissing = "missing"
)

// documentStateScript waits until fonts and images are decoded, the equivalent of
// network idle for a document whose assets are all inline, then reports whether the
// document and its render target are present.
const documentStateScript = `async (id) => {
  if (!document.body || document.body.childElementCount === 0) {
    return "` + documentEmpty + `";
  }
  await document.fonts.ready;
  await Promise.all(Array.from(document.images, (img) => img.decode().catch(() => {})));
  return document.getElementById(id) ? "` + documentReady + `" : "` + documentTargetMissing + `";
}`
