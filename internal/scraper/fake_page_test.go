package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/coppinaphil/job-scraper/internal/config"
)

const testBase = "https://jobs.example.com"

var errBoom = errors.New("boom")

// fakePage is an in-memory site. Counts are keyed by page URL then selector;
// the "*" page applies everywhere.
type fakePage struct {
	mu sync.Mutex

	url       string
	counts    map[string]map[string]int
	redirects map[string]string // navigating to key lands on value

	// onNavigate may fail a navigation before it happens.
	onNavigate func(url string) error
	// onClick returns the URL the click lands on, "" to stay put.
	onClick func(el Element) (string, error)
	// idle overrides WaitNetworkIdle. The default reports idle at once.
	idle func(ctx context.Context) error
	// lazyClicks holds a click's navigation back until the next
	// WaitNetworkIdle, like a real page that is still loading.
	lazyClicks bool
	pending    string
	committed  []string

	navigations []string
	clicks      []Element
	fills       map[string]string
	screenshots int
	shotErr     error
	opTimeout   time.Duration
}

func newFakePage() *fakePage {
	return &fakePage{
		url:       "about:blank",
		counts:    map[string]map[string]int{},
		redirects: map[string]string{},
		fills:     map[string]string{},
	}
}

func (f *fakePage) setCount(pageURL, selector string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts[pageURL] == nil {
		f.counts[pageURL] = map[string]int{}
	}
	f.counts[pageURL][selector] = n
}

func (f *fakePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	f.mu.Lock()
	hook := f.onNavigate
	f.navigations = append(f.navigations, url)
	f.mu.Unlock()

	if hook != nil {
		if err := hook(url); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = ""
	if target, ok := f.redirects[url]; ok {
		f.url = target
	} else {
		f.url = url
	}
	return nil
}

func (f *fakePage) WaitNetworkIdle(ctx context.Context) error {
	f.mu.Lock()
	idle := f.idle
	if f.pending != "" {
		f.url = f.pending
		f.committed = append(f.committed, f.pending)
		f.pending = ""
	}
	f.mu.Unlock()
	if idle != nil {
		return idle(ctx)
	}
	return nil
}

func (f *fakePage) URL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, nil
}

func (f *fakePage) Title(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return "Title of " + f.url, nil
}

func (f *fakePage) Count(ctx context.Context, selector string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.counts[f.url][selector]; ok {
		return n, nil
	}
	return f.counts["*"][selector], nil
}

func (f *fakePage) Fill(ctx context.Context, el Element, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fills[el.Selector] = text
	return nil
}

func (f *fakePage) Click(ctx context.Context, el Element) error {
	f.mu.Lock()
	hook := f.onClick
	f.clicks = append(f.clicks, el)
	f.mu.Unlock()

	if hook == nil {
		return nil
	}
	target, err := hook(el)
	if err != nil {
		return err
	}
	if target != "" {
		f.mu.Lock()
		if f.lazyClicks {
			f.pending = target
		} else {
			f.url = target
			f.committed = append(f.committed, target)
		}
		f.mu.Unlock()
	}
	return nil
}

func (f *fakePage) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shotErr != nil {
		return nil, f.shotErr
	}
	f.screenshots++
	return []byte("\x89PNG fake"), nil
}

func (f *fakePage) SetDefaultTimeout(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opTimeout = d
}

func (f *fakePage) navigationsTo(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.navigations {
		if u == url {
			n++
		}
	}
	return n
}

func (f *fakePage) lastNavigation() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.navigations) == 0 {
		return ""
	}
	return f.navigations[len(f.navigations)-1]
}

// hangIdleExcept makes WaitNetworkIdle ignore its context until the test
// ends, unless the page is at url.
func (f *fakePage) hangIdleExcept(t *testing.T, url string) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	f.mu.Lock()
	f.idle = func(ctx context.Context) error {
		if current, _ := f.URL(ctx); current == url {
			return nil
		}
		<-release
		return nil
	}
	f.mu.Unlock()
}

// neverIdle makes WaitNetworkIdle block until its context ends.
func (f *fakePage) neverIdle() {
	f.mu.Lock()
	f.idle = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Unlock()
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:       testBase,
		LoginPath:     "/login",
		SearchPath:    "/search",
		ApplyPath:     "/apply",
		Email:         "me@example.com",
		Password:      "hunter2",
		OutputFile:    "extracted-jobs.json",
		ArtifactDir:   "artifacts",
		Headless:      true,
		LogLevel:      "info",
		MaxJobs:       config.DefaultMaxJobs,
		JobPathMarker: "/job/",
		Selectors:     config.DefaultSelectors(),
		Timeouts: config.Timeouts{
			Navigation:       time.Second,
			Settle:           20 * time.Millisecond,
			SubmitSettle:     20 * time.Millisecond,
			DetailSettle:     20 * time.Millisecond,
			RedirectSettle:   50 * time.Millisecond,
			RedirectDeadline: 200 * time.Millisecond,
			ClickRetryPause:  time.Millisecond,
			ListingRender:    0,
			Operation:        time.Second,
		},
	}
}

func detailURL(i int) string {
	return fmt.Sprintf("%s/job/J%d/view", testBase, i)
}

func employerURL(i int) string {
	return fmt.Sprintf("https://employer%d.example.com/apply", i)
}

// newJobSite builds a fake board with a working login form and rows search
// results. Row i opens detailURL(i+1) and its apply link redirects to
// employerURL(i+1).
func newJobSite(cfg *config.Config, rows int) *fakePage {
	f := newFakePage()
	f.setCount(cfg.LoginURL(), `input[type="email"]`, 1)
	f.setCount(cfg.LoginURL(), `input[type="password"]`, 1)
	f.setCount(cfg.LoginURL(), `input[type="submit"]`, 1)
	f.setCount(cfg.SearchURL(), cfg.Selectors.Listing, rows)

	for i := 1; i <= rows; i++ {
		f.redirects[fmt.Sprintf("%s/J%d", cfg.ApplyBaseURL(), i)] = employerURL(i)
	}

	f.onClick = func(el Element) (string, error) {
		switch el.Selector {
		case cfg.Selectors.Listing:
			return detailURL(el.Index + 1), nil
		case `input[type="submit"]`:
			return testBase + "/dashboard", nil
		}
		return "", nil
	}
	return f
}
