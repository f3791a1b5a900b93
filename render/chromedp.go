package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/flanksource/commons/logger"

	"github.com/vircadia/ogimage/shutdown"
)

var chromeBinaries = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless-shell",
}

// ChromedpOptions configures the chromedp renderer
type ChromedpOptions struct {
	// ExecPath overrides the Chrome binary lookup
	ExecPath string
	// NoSandbox is needed when running as root inside containers
	NoSandbox bool
}

// ChromedpRenderer renders cards with a locally installed Chrome over the DevTools protocol
type ChromedpRenderer struct {
	options ChromedpOptions
}

// NewChromedpRenderer creates a new chromedp renderer
func NewChromedpRenderer(options ChromedpOptions) *ChromedpRenderer {
	return &ChromedpRenderer{options: options}
}

// Name returns the name of this renderer
func (r *ChromedpRenderer) Name() string {
	return BackendChromedp
}

// IsAvailable checks if a Chrome binary can be found
func (r *ChromedpRenderer) IsAvailable() bool {
	return r.execPath() != ""
}

func (r *ChromedpRenderer) execPath() string {
	if r.options.ExecPath != "" {
		if _, err := os.Stat(r.options.ExecPath); err == nil {
			return r.options.ExecPath
		}
		return ""
	}
	for _, name := range chromeBinaries {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// Render starts a throwaway Chrome, writes the document into a blank page and captures the target
func (r *ChromedpRenderer) Render(ctx context.Context, job *Job) ([]byte, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}

	execPath := r.execPath()
	if execPath == "" {
		return nil, NewRendererError(r.Name(), "launch browser", fmt.Errorf("no chrome binary found in PATH"))
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Headless,
		chromedp.WindowSize(job.Width, job.Height),
	)
	if r.options.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	teardown := func() {
		cancelBrowser()
		cancelAlloc()
	}
	hook := shutdown.AddHookWithPriority("Stopping chrome", shutdown.PriorityWorkers, teardown)
	defer func() {
		shutdown.RemoveHook(hook)
		teardown()
		logger.Debugf("chrome torn down")
	}()

	var state string
	if err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(job.Width), int64(job.Height)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, job.HTML).Do(ctx)
		}),
		chromedp.Evaluate(fmt.Sprintf("(%s)(%q)", documentStateScript, job.TargetID), &state, awaitPromise),
	); err != nil {
		return nil, NewRendererError(r.Name(), "load document", err)
	}

	switch state {
	case documentReady:
	case documentTargetMissing:
		return nil, ErrRenderTargetMissing
	default:
		return nil, NewRendererError(r.Name(), "load document", fmt.Errorf("document did not load (state %q)", state))
	}

	if job.RasterizerScript != "" {
		return r.rasterizeWithScript(browserCtx, job)
	}

	var png []byte
	if err := chromedp.Run(browserCtx,
		chromedp.Screenshot("#"+job.TargetID, &png, chromedp.ByQuery),
	); err != nil {
		return nil, NewRendererError(r.Name(), "screenshot PNG", err)
	}
	return png, nil
}

func (r *ChromedpRenderer) rasterizeWithScript(ctx context.Context, job *Job) ([]byte, error) {
	script, err := os.ReadFile(job.RasterizerScript)
	if err != nil {
		return nil, fmt.Errorf("rasterizer script: %w", err)
	}

	var uri *string
	expr := fmt.Sprintf("(%s)({id: %q, width: %d, height: %d})", rasterizeScript, job.TargetID, job.Width, job.Height)
	if err := chromedp.Run(ctx,
		chromedp.Evaluate(string(script), nil),
		chromedp.Evaluate(expr, &uri, awaitPromise),
	); err != nil {
		return nil, NewRendererError(r.Name(), "rasterize", err)
	}
	if uri == nil {
		return nil, ErrRenderTargetMissing
	}
	return decodePNGDataURI(*uri)
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}
