package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/coppinaphil/job-scraper/internal/config"
	"go.uber.org/zap"
)

// MaxListings is the hard cap on rows processed in one run.
const MaxListings = 20

const clickAttempts = 3

// ErrRowUnavailable is returned when a row index no longer exists after the
// search page was reloaded.
var ErrRowUnavailable = errors.New("listing row no longer available")

// VisitFunc processes one row. Returning an error hands the row to the
// FailFunc.
type VisitFunc func(ctx context.Context, index int, row Element) error

// FailFunc records a row that could not be processed.
type FailFunc func(ctx context.Context, index int, err error)

// ListingIterator walks the rows of the search results page by index,
// restoring the page between rows.
type ListingIterator struct {
	page   Page
	nav    *Navigator
	cfg    *config.Config
	logger *zap.Logger
}

func NewListingIterator(page Page, nav *Navigator, cfg *config.Config, logger *zap.Logger) *ListingIterator {
	return &ListingIterator{page: page, nav: nav, cfg: cfg, logger: logger}
}

// Enumerate counts the rows currently on the page.
func (it *ListingIterator) Enumerate(ctx context.Context) (int, error) {
	return it.page.Count(ctx, it.cfg.Selectors.Listing)
}

// ForEach visits rows 0..min(total, maxJobs, MaxListings)-1 in order. Each row is
// handed to exactly one of visit or fail, and the search page is reloaded
// after every row whatever happened. It returns the number of rows found and
// the number attempted. An error is returned only when the initial count
// fails or ctx is cancelled; a row interrupted by cancellation is handed to
// neither callback.
func (it *ListingIterator) ForEach(ctx context.Context, maxJobs int, visit VisitFunc, fail FailFunc) (int, int, error) {
	total, err := it.Enumerate(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("count listings: %w", err)
	}

	limit := min(total, maxJobs, MaxListings)
	it.logger.Info("Found job listings", zap.Int("total", total), zap.Int("processing", limit))

	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return total, i, err
		}
		it.logger.Info("Processing job", zap.Int("job", i+1), zap.Int("of", limit))

		row, err := it.acquire(ctx, i)
		if err == nil {
			err = visit(ctx, i, row)
		}
		if cerr := ctx.Err(); cerr != nil {
			it.logger.Warn("Interrupted, row left unrecorded", zap.Int("job", i+1))
			return total, i, cerr
		}
		if err != nil {
			fail(ctx, i, err)
		}

		it.logger.Info("Navigating back to search page")
		if err := it.nav.ReturnToSearch(ctx); err != nil {
			it.logger.Error("Failed to return to search page", zap.Int("job", i+1), zap.Error(err))
			continue
		}
		it.logger.Info("Back on search page")
	}
	return total, limit, nil
}

// acquire returns the handle for row i, reloading and recounting first if the
// browser has wandered off the search page.
func (it *ListingIterator) acquire(ctx context.Context, i int) (Element, error) {
	row := Element{Selector: it.cfg.Selectors.Listing, Index: i}

	onSearch, err := it.nav.OnSearchPage(ctx)
	if err != nil {
		return row, err
	}
	if onSearch {
		return row, nil
	}

	it.logger.Info("Not on search page, navigating back")
	if err := it.nav.ReturnToSearch(ctx); err != nil {
		return row, err
	}
	n, err := it.Enumerate(ctx)
	if err != nil {
		return row, fmt.Errorf("recount listings: %w", err)
	}
	if i >= n {
		return row, fmt.Errorf("%w: row %d of %d", ErrRowUnavailable, i+1, n)
	}
	return row, nil
}

// ClickRow clicks row, retrying up to three times with a pause between
// attempts. Only the last error is returned.
func (it *ListingIterator) ClickRow(ctx context.Context, row Element) error {
	var err error
	for attempt := 1; attempt <= clickAttempts; attempt++ {
		it.logger.Info("Attempting to click job", zap.Stringer("row", row), zap.Int("attempt", attempt))
		if err = it.page.Click(ctx, row); err == nil {
			it.logger.Info("Clicked job", zap.Stringer("row", row))
			return nil
		}
		if attempt == clickAttempts {
			break
		}
		it.logger.Warn("Click failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		if serr := sleep(ctx, it.cfg.Timeouts.ClickRetryPause); serr != nil {
			return serr
		}
	}
	return fmt.Errorf("click %s failed after %d attempts: %w", row, clickAttempts, err)
}
