package scraper

import (
	"context"
	"time"

	"github.com/coppinaphil/job-scraper/internal/browser"
)

// Element addresses the Nth match of a selector on the current page.
type Element = browser.Element

// Page is the subset of a browser tab the workflow drives. Elements are
// re-resolved on every call, so a handle stays usable after the page reloads.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	WaitNetworkIdle(ctx context.Context) error
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Count(ctx context.Context, selector string) (int, error)
	Fill(ctx context.Context, el Element, text string) error
	Click(ctx context.Context, el Element) error
	CaptureScreenshot(ctx context.Context) ([]byte, error)
	SetDefaultTimeout(d time.Duration)
}

var _ Page = (*browser.Chrome)(nil)

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
