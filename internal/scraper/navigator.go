package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coppinaphil/job-scraper/internal/config"
	"go.uber.org/zap"
)

// SettleState reports how a wait for network quiet ended.
type SettleState int

const (
	Settled SettleState = iota
	QuietTimedOut
)

func (s SettleState) String() string {
	if s == Settled {
		return "settled"
	}
	return "quiet_timed_out"
}

// Navigator loads pages and waits, within a bound, for them to go quiet.
// A quiet period that never arrives is not an error.
type Navigator struct {
	page   Page
	cfg    *config.Config
	logger *zap.Logger
}

func NewNavigator(page Page, cfg *config.Config, logger *zap.Logger) *Navigator {
	return &Navigator{page: page, cfg: cfg, logger: logger}
}

// NavigateAndSettle loads url and then waits up to quiet for network idle.
// Only the navigation itself can fail.
func (n *Navigator) NavigateAndSettle(ctx context.Context, url string, quiet time.Duration) (SettleState, error) {
	if err := n.page.Navigate(ctx, url, n.cfg.Timeouts.Navigation); err != nil {
		return QuietTimedOut, err
	}
	return n.Settle(ctx, quiet), nil
}

// Settle waits up to quiet for the current page to report network idle.
func (n *Navigator) Settle(ctx context.Context, quiet time.Duration) SettleState {
	waitCtx, cancel := context.WithTimeout(ctx, quiet)
	defer cancel()

	if err := n.page.WaitNetworkIdle(waitCtx); err != nil {
		n.logger.Debug("Network did not go quiet", zap.Duration("waited", quiet), zap.Error(err))
		return QuietTimedOut
	}
	return Settled
}

// ReturnToSearch reloads the search results page.
func (n *Navigator) ReturnToSearch(ctx context.Context) error {
	if _, err := n.NavigateAndSettle(ctx, n.cfg.SearchURL(), n.cfg.Timeouts.Settle); err != nil {
		return fmt.Errorf("return to search page: %w", err)
	}
	return nil
}

// OnSearchPage reports whether the current URL is the search results page.
func (n *Navigator) OnSearchPage(ctx context.Context) (bool, error) {
	current, err := n.page.URL(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(current, n.cfg.SearchPath), nil
}
