package render

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ChromeOptions configures the headless Chrome engine.
type ChromeOptions struct {
	// ExecPath overrides the Chrome binary lookup.
	ExecPath string

	// Scale is the device scale factor, defaults to 1.
	Scale float64

	// ViewportHeight is the initial viewport height, defaults to 800. The
	// viewport width always fits the comment container.
	ViewportHeight int
}

// Chrome renders documents in a headless Chrome. The browser process is
// started on first use and shared by every page, each page gets its own tab.
type Chrome struct {
	opts ChromeOptions

	mu            sync.Mutex
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

// NewChrome returns an engine that starts Chrome lazily.
func NewChrome(opts ChromeOptions) *Chrome {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = 800
	}

	return &Chrome{opts: opts}
}

func (c *Chrome) browser() (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browserCtx != nil {
		return c.browserCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.WindowSize(Width+100, c.opts.ViewportHeight))
	if c.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Running with no actions starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, errors.Wrap(err, "could not start chrome")
	}

	logrus.Debug("started chrome")

	c.browserCtx = browserCtx
	c.cancelAlloc = cancelAlloc
	c.cancelBrowser = cancelBrowser

	return c.browserCtx, nil
}

// Close shuts the browser down.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browserCtx == nil {
		return nil
	}

	c.cancelBrowser()
	c.cancelAlloc()
	c.browserCtx = nil

	return nil
}

// waitForImages resolves once every image has loaded or failed.
const waitForImages = `Promise.all(Array.from(document.images).map(img => img.complete ? null : new Promise(done => { img.onload = img.onerror = done; }))).then(() => true)`

// Open loads the document into a new tab.
func (c *Chrome) Open(ctx context.Context, document string) (Page, error) {
	browserCtx, err := c.browser()
	if err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx)
	p := &chromePage{ctx: tabCtx, cancel: cancel}

	var loaded bool
	err = p.run(ctx,
		emulation.SetDeviceMetricsOverride(int64(Width+100), int64(c.opts.ViewportHeight), c.opts.Scale, false),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}

			return page.SetDocumentContent(tree.Frame.ID, document).Do(ctx)
		}),
		chromedp.Evaluate(waitForImages, &loaded, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "could not load the document")
	}

	return p, nil
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions in the tab, aborting them if ctx is cancelled.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	stop := context.AfterFunc(ctx, p.cancel)
	defer stop()

	return chromedp.Run(p.ctx, actions...)
}

func (p *chromePage) BoundingBox(ctx context.Context, selector string) (Box, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return Box{}, errors.Wrap(err, "could not quote selector")
	}

	expr := fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  if (!el) return null;
  const r = el.getBoundingClientRect();
  return {x: r.left + window.scrollX, y: r.top + window.scrollY, width: r.width, height: r.height};
})()`, quoted)

	var box *Box
	if err := p.run(ctx, chromedp.Evaluate(expr, &box)); err != nil {
		return Box{}, errors.Wrapf(err, "could not measure %s", selector)
	}
	if box == nil {
		return Box{}, errors.Errorf("no element matches %s", selector)
	}

	return *box, nil
}

func (p *chromePage) Screenshot(ctx context.Context, clip Box) ([]byte, error) {
	var buf []byte
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(true).
			WithClip(&page.Viewport{
				X:      clip.X,
				Y:      clip.Y,
				Width:  clip.Width,
				Height: clip.Height,
				Scale:  1,
			}).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, errors.Wrap(err, "could not capture screenshot")
	}

	return buf, nil
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}
