package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrElementNotFound is returned by Click and Fill when the addressed match
// does not exist on the current page.
var ErrElementNotFound = errors.New("element not found")

const (
	defaultOperationTimeout = 15 * time.Second
	markerAttr              = "data-job-scraper-ref"
	userAgent               = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Options controls how the browser process is launched.
type Options struct {
	Headless bool
}

// Chrome is a single-tab chromedp session.
type Chrome struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	mu          sync.Mutex
	opTimeout   time.Duration
	mainFrame   cdp.FrameID
	idle        chan struct{} // closed once the main frame reports networkIdle
	idleReached bool
}

// New launches Chrome and opens the tab all page operations run in.
func New(parent context.Context, opts Options, logger *zap.Logger) (*Chrome, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)

	sugar := logger.Sugar()
	ctx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(filteredLogf(sugar.Debugf)),
		chromedp.WithErrorf(filteredLogf(sugar.Warnf)),
	)

	c := &Chrome{
		ctx: ctx,
		cancel: func() {
			cancelTab()
			cancelAlloc()
		},
		logger:    logger,
		opTimeout: defaultOperationTimeout,
		idle:      make(chan struct{}),
	}

	chromedp.ListenTarget(ctx, c.onEvent)

	// The first Run must use the tab context itself: a derived context with a
	// deadline would tear the browser down when it expires.
	err := chromedp.Run(ctx,
		page.Enable(),
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			c.mu.Lock()
			c.mainFrame = tree.Frame.ID
			c.mu.Unlock()
			return nil
		}),
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Debug("Browser started", zap.Bool("headless", opts.Headless))
	return c, nil
}

// filteredLogf drops chromedp's noisy event decoding warnings.
func filteredLogf(logf func(string, ...interface{})) func(string, ...interface{}) {
	return func(format string, v ...interface{}) {
		msg := fmt.Sprintf(format, v...)
		if strings.Contains(msg, "could not unmarshal event") ||
			strings.Contains(msg, "unknown PrivateNetworkRequestPolicy") ||
			strings.Contains(msg, "unknown ClientNavigationReason") {
			return
		}
		logf("%s", msg)
	}
}

func (c *Chrome) onEvent(ev interface{}) {
	lifecycle, ok := ev.(*page.EventLifecycleEvent)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mainFrame != "" && lifecycle.FrameID != c.mainFrame {
		return
	}
	switch lifecycle.Name {
	case "init":
		c.resetIdleLocked()
	case "networkIdle":
		if !c.idleReached {
			close(c.idle)
			c.idleReached = true
		}
	}
}

func (c *Chrome) resetIdleLocked() {
	if c.idleReached {
		c.idle = make(chan struct{})
		c.idleReached = false
	}
}

// run executes actions in the tab, bounded by timeout and by ctx.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (c *Chrome) operationTimeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opTimeout
}

// SetDefaultTimeout bounds every operation that has no explicit timeout.
func (c *Chrome) SetDefaultTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opTimeout = d
}

// Navigate loads url and waits for its load event.
func (c *Chrome) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	c.mu.Lock()
	c.resetIdleLocked()
	c.mu.Unlock()

	if err := c.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// WaitNetworkIdle blocks until the current document reports network idle or
// ctx is done.
func (c *Chrome) WaitNetworkIdle(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Chrome) URL(ctx context.Context) (string, error) {
	var location string
	if err := c.run(ctx, c.operationTimeout(), chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return location, nil
}

func (c *Chrome) Title(ctx context.Context) (string, error) {
	var title string
	if err := c.run(ctx, c.operationTimeout(), chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	return title, nil
}

// Count returns how many elements currently match selector.
func (c *Chrome) Count(ctx context.Context, selector string) (int, error) {
	var n int
	expr := parseSelector(selector).countExpr()
	if err := c.run(ctx, c.operationTimeout(), chromedp.Evaluate(expr, &n)); err != nil {
		return 0, fmt.Errorf("count %q: %w", selector, err)
	}
	return n, nil
}

// Click performs a real mouse click on the element. The click may start a
// navigation, so the idle signal is re-armed first: a following
// WaitNetworkIdle waits for the next document, or for its own deadline when
// nothing loads.
func (c *Chrome) Click(ctx context.Context, el Element) error {
	c.mu.Lock()
	c.resetIdleLocked()
	c.mu.Unlock()

	sel, mark := c.mark(el)
	if err := c.run(ctx, c.operationTimeout(), mark, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %s: %w", el, err)
	}
	return nil
}

// Fill replaces the value of an input element with text.
func (c *Chrome) Fill(ctx context.Context, el Element, text string) error {
	sel, mark := c.mark(el)
	err := c.run(ctx, c.operationTimeout(),
		mark,
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill %s: %w", el, err)
	}
	return nil
}

// mark returns a unique CSS selector for el together with the action that
// tags the element so the selector resolves.
func (c *Chrome) mark(el Element) (string, chromedp.Action) {
	token := uuid.NewString()
	sel := fmt.Sprintf(`[%s="%s"]`, markerAttr, token)
	expr := parseSelector(el.Selector).markExpr(el.Index, markerAttr, token)

	return sel, chromedp.ActionFunc(func(ctx context.Context) error {
		var found bool
		if err := chromedp.Evaluate(expr, &found).Do(ctx); err != nil {
			return err
		}
		if !found {
			return ErrElementNotFound
		}
		return nil
	})
}

// CaptureScreenshot returns a PNG of the visible viewport.
func (c *Chrome) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := c.run(ctx, c.operationTimeout(), chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// Close shuts down the tab and the browser process.
func (c *Chrome) Close() {
	c.cancel()
}
