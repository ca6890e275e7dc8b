package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/coppinaphil/job-scraper/internal/config"
	"github.com/coppinaphil/job-scraper/pkg/models"
	"go.uber.org/zap"
)

// JobCode extracts the job identifier that follows marker in a detail page
// URL. The code ends at the next path, query or fragment delimiter.
func JobCode(detailURL, marker string) (string, bool) {
	idx := strings.Index(detailURL, marker)
	if idx < 0 {
		return "", false
	}
	code := detailURL[idx+len(marker):]
	if cut := strings.IndexAny(code, "/?#"); cut >= 0 {
		code = code[:cut]
	}
	return code, code != ""
}

// RedirectResolver follows a job's apply link to the employer's page.
type RedirectResolver struct {
	page   Page
	nav    *Navigator
	cfg    *config.Config
	logger *zap.Logger
}

func NewRedirectResolver(page Page, nav *Navigator, cfg *config.Config, logger *zap.Logger) *RedirectResolver {
	return &RedirectResolver{page: page, nav: nav, cfg: cfg, logger: logger}
}

// Resolve navigates to the apply trigger for detailURL and reports where the
// browser ended up. It never returns an error; every failure is an Outcome.
func (r *RedirectResolver) Resolve(ctx context.Context, detailURL string) models.Outcome {
	code, ok := JobCode(detailURL, r.cfg.JobPathMarker)
	if !ok {
		r.logger.Warn("No job code in URL", zap.String("url", detailURL))
		return models.NotApplicable("no job code in " + detailURL)
	}

	trigger := r.cfg.ApplyBaseURL() + "/" + code
	r.logger.Info("Following apply link", zap.String("code", code), zap.String("url", trigger))

	if err := r.page.Navigate(ctx, trigger, r.cfg.Timeouts.Navigation); err != nil {
		r.logger.Error("Error during redirect", zap.Error(err))
		return models.Failed(err.Error())
	}

	r.logger.Info("Waiting for redirect")
	settled, err := r.waitForRedirect(ctx)
	if err != nil {
		r.logger.Warn("Redirect wait interrupted", zap.Error(err))
		return models.Failed(err.Error())
	}

	final, err := r.page.URL(ctx)
	if err != nil {
		r.logger.Error("Could not read URL after redirect", zap.Error(err))
		return models.Failed(err.Error())
	}

	if !settled || final == trigger {
		r.logger.Warn("Redirect failed", zap.Bool("deadline_hit", !settled), zap.String("url", final))
		out := models.TimedOut("still at " + final)
		r.logger.Info("Returning to search page after failed redirect")
		if err := r.nav.ReturnToSearch(ctx); err != nil {
			r.logger.Error("Failed to return to search page", zap.Error(err))
		}
		return out
	}

	r.logger.Info("Redirect successful", zap.String("url", final))
	return models.Resolved(final)
}

// waitForRedirect races a bounded settle against the hard deadline and
// reports whether the settle finished first. The losing wait is cancelled.
// Cancellation of ctx is returned as an error, not as a lost race.
func (r *RedirectResolver) waitForRedirect(ctx context.Context) (bool, error) {
	settleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.nav.Settle(settleCtx, r.cfg.Timeouts.RedirectSettle)
	}()

	deadline := time.NewTimer(r.cfg.Timeouts.RedirectDeadline)
	defer deadline.Stop()

	select {
	case <-done:
	case <-deadline.C:
		return false, nil
	case <-ctx.Done():
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}
