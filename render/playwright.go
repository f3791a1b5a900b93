package render

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/flanksource/commons/logger"
	"github.com/playwright-community/playwright-go"

	"github.com/vircadia/ogimage/datauri"
	"github.com/vircadia/ogimage/shutdown"
)

// PlaywrightOptions configures the playwright renderer
type PlaywrightOptions struct {
	// InstallBrowsers downloads the driver and chromium when missing
	InstallBrowsers bool
	// Headed shows the browser window, useful when debugging the template
	Headed bool
}

// PlaywrightRenderer renders cards in a disposable headless Chromium driven by Playwright
type PlaywrightRenderer struct {
	options PlaywrightOptions
}

// NewPlaywrightRenderer creates a new Playwright renderer
func NewPlaywrightRenderer(options PlaywrightOptions) *PlaywrightRenderer {
	return &PlaywrightRenderer{options: options}
}

// Name returns the name of this renderer
func (r *PlaywrightRenderer) Name() string {
	return BackendPlaywright
}

// IsAvailable always reports true, the driver is installed lazily on first use
func (r *PlaywrightRenderer) IsAvailable() bool {
	return true
}

// Render launches a browser, rasterizes the job and tears everything down again
func (r *PlaywrightRenderer) Render(ctx context.Context, job *Job) ([]byte, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}

	if r.options.InstallBrowsers {
		if err := playwright.Install(&playwright.RunOptions{
			Browsers: []string{"chromium"},
		}); err != nil {
			return nil, NewRendererError(r.Name(), "install browsers", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, NewRendererError(r.Name(), "start playwright", err)
	}

	held := &resources{}
	held.add("stop playwright", pw.Stop)
	hook := shutdown.AddHookWithPriority("Stopping playwright browser", shutdown.PriorityWorkers, held.release)
	defer func() {
		shutdown.RemoveHook(hook)
		held.release()
		logger.Debugf("playwright browser torn down")
	}()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!r.options.Headed),
	})
	if err != nil {
		return nil, NewRendererError(r.Name(), "launch browser", err)
	}
	closeBrowser := func() error { return browser.Close() }
	if !held.add("close browser", closeBrowser) {
		_ = closeBrowser()
		return nil, NewRendererError(r.Name(), "launch browser", errors.New("interrupted"))
	}

	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport:          &playwright.Size{Width: job.Width, Height: job.Height},
		DeviceScaleFactor: playwright.Float(1),
	})
	if err != nil {
		return nil, NewRendererError(r.Name(), "create page", err)
	}
	defer page.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := page.SetContent(job.HTML, playwright.PageSetContentOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, NewRendererError(r.Name(), "set content", err)
	}

	if job.RasterizerScript != "" {
		return r.rasterizeWithScript(ctx, page, job)
	}
	return r.screenshot(ctx, page, job)
}

func (r *PlaywrightRenderer) screenshot(ctx context.Context, page playwright.Page, job *Job) ([]byte, error) {
	target := page.Locator("#" + job.TargetID)
	count, err := target.Count()
	if err != nil {
		return nil, NewRendererError(r.Name(), "locate target", err)
	}
	if count == 0 {
		return nil, ErrRenderTargetMissing
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	png, err := target.Screenshot(playwright.LocatorScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		return nil, NewRendererError(r.Name(), "screenshot PNG", err)
	}
	return png, nil
}

func (r *PlaywrightRenderer) rasterizeWithScript(ctx context.Context, page playwright.Page, job *Job) ([]byte, error) {
	if _, err := os.Stat(job.RasterizerScript); err != nil {
		return nil, fmt.Errorf("rasterizer script: %w", err)
	}
	if _, err := page.AddScriptTag(playwright.PageAddScriptTagOptions{
		Path: playwright.String(job.RasterizerScript),
	}); err != nil {
		return nil, NewRendererError(r.Name(), "inject rasterizer", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := page.Evaluate(rasterizeScript, map[string]interface{}{
		"id":     job.TargetID,
		"width":  job.Width,
		"height": job.Height,
	})
	if err != nil {
		return nil, NewRendererError(r.Name(), "rasterize", err)
	}
	if result == nil {
		return nil, ErrRenderTargetMissing
	}

	uri, ok := result.(string)
	if !ok {
		return nil, NewRendererError(r.Name(), "rasterize", fmt.Errorf("unexpected result type %T", result))
	}
	return decodePNGDataURI(uri)
}

func decodePNGDataURI(uri string) ([]byte, error) {
	mime, data, err := datauri.Decode(uri)
	if err != nil {
		return nil, err
	}
	if mime != "image/png" {
		return nil, errors.New("rasterizer returned " + mime + ", expected image/png")
	}
	return data, nil
}
