package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coppinaphil/job-scraper/internal/config"
	"github.com/coppinaphil/job-scraper/internal/store"
	"github.com/coppinaphil/job-scraper/pkg/models"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrRunAborted wraps any error that stopped a run before all rows were
// attempted. Records written up to that point stay on disk.
var ErrRunAborted = errors.New("extraction run aborted")

// Scraper runs the login, listing and redirect workflow against one page.
type Scraper struct {
	cfg    *config.Config
	page   Page
	fs     afero.Fs
	logger *zap.Logger
}

func New(cfg *config.Config, page Page, fs afero.Fs, logger *zap.Logger) *Scraper {
	return &Scraper{cfg: cfg, page: page, fs: fs, logger: logger}
}

// run holds the collaborators for a single Run.
type run struct {
	*Scraper
	logger   *zap.Logger
	summary  *models.RunSummary
	results  *store.ResultLog
	nav      *Navigator
	diag     *Diagnostics
	auth     *Authenticator
	listing  *ListingIterator
	resolver *RedirectResolver
}

// Run processes startURL. When it is the search results page the scraper
// logs in, walks the listing rows and checkpoints a record for every row to
// the output file. Any other start page is a no-op.
func (s *Scraper) Run(ctx context.Context, startURL string) (*models.RunSummary, error) {
	summary := &models.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Records:   []models.JobRecord{},
	}
	logger := s.logger.With(zap.String("run_id", summary.RunID))

	r := &run{
		Scraper: s,
		logger:  logger,
		summary: summary,
		results: store.NewResultLog(s.fs, s.cfg.OutputFile),
	}
	r.nav = NewNavigator(s.page, s.cfg, logger.Named("navigator"))
	r.diag = NewDiagnostics(s.page, s.fs, s.cfg.ArtifactDir, logger.Named("diagnostics"))
	r.auth = NewAuthenticator(s.page, r.nav, r.diag, s.cfg, logger.Named("login"))
	r.listing = NewListingIterator(s.page, r.nav, s.cfg, logger.Named("listing"))
	r.resolver = NewRedirectResolver(s.page, r.nav, s.cfg, logger.Named("redirect"))

	err := r.handle(ctx, startURL)

	summary.FinishedAt = time.Now()
	summary.Records = r.results.Records()

	if err != nil {
		logger.Error("Error in request handler", zap.Error(err))
		r.diag.Capture(context.WithoutCancel(ctx), ErrorStateScreenshot)
		return summary, fmt.Errorf("%w: %w", ErrRunAborted, err)
	}

	r.logFinalResults()
	return summary, nil
}

func (r *run) handle(ctx context.Context, startURL string) error {
	r.page.SetDefaultTimeout(r.cfg.Timeouts.Operation)

	r.logger.Info("Processing", zap.String("url", startURL))
	if _, err := r.nav.NavigateAndSettle(ctx, startURL, r.cfg.Timeouts.Settle); err != nil {
		return fmt.Errorf("load start page: %w", err)
	}
	if title, err := r.page.Title(ctx); err == nil {
		r.logger.Info("Page loaded", zap.String("title", title))
	}

	if !strings.Contains(startURL, r.cfg.SearchPath) {
		r.logger.Info("Not on search page, no action needed")
		return nil
	}

	r.logger.Info("On search results page, logging in first")
	result := r.auth.Login(ctx, Credentials{Email: r.cfg.Email, Password: r.cfg.Password})
	r.logger.Info("Login finished", zap.Stringer("result", result))

	r.logger.Info("Navigating back to search page")
	if err := r.nav.ReturnToSearch(ctx); err != nil {
		return err
	}
	r.logger.Info("Waiting for job listings to load")
	if err := sleep(ctx, r.cfg.Timeouts.ListingRender); err != nil {
		return err
	}

	total, _, err := r.listing.ForEach(ctx, r.cfg.MaxJobs, r.visit, r.fail)
	r.summary.Total = total
	return err
}

// visit opens the row's detail page and resolves its apply link.
func (r *run) visit(ctx context.Context, index int, row Element) error {
	if err := r.listing.ClickRow(ctx, row); err != nil {
		return err
	}

	r.logger.Info("Waiting for job details page to load")
	r.nav.Settle(ctx, r.cfg.Timeouts.DetailSettle)

	jobURL, err := r.page.URL(ctx)
	if err != nil {
		return fmt.Errorf("read job URL: %w", err)
	}
	r.logger.Info("Job details URL", zap.String("url", jobURL))

	outcome := r.resolver.Resolve(ctx, jobURL)
	if err := ctx.Err(); err != nil {
		// Interrupted mid-row: leave the row unrecorded.
		return err
	}
	r.record(models.JobRecord{
		JobIndex:        index + 1,
		JobURL:          jobURL,
		CompanyApplyURL: outcome.ApplyURL(),
	}, outcome.Kind)
	return nil
}

func (r *run) fail(ctx context.Context, index int, err error) {
	r.logger.Error("Error processing job", zap.Int("job", index+1), zap.Error(err))
	r.record(models.FailedRecord(index+1), models.OutcomeFailed)
	r.diag.Capture(ctx, JobErrorScreenshot(index+1))
}

// record appends rec and checkpoints the whole result list. A failed write
// is logged and the run continues.
func (r *run) record(rec models.JobRecord, kind models.OutcomeKind) {
	r.summary.Tally(kind)
	if err := r.results.Append(rec); err != nil {
		r.logger.Error("Failed to save progress", zap.String("file", r.results.Path()), zap.Error(err))
	} else {
		r.logger.Info("Progress saved",
			zap.String("file", r.results.Path()),
			zap.Int("records", r.results.Len()),
		)
	}
	r.logger.Info("Job processed",
		zap.Int("job", rec.JobIndex),
		zap.Stringer("outcome", kind),
		zap.String("apply_url", rec.CompanyApplyURL),
		zap.Int("resolved", r.summary.Resolved),
		zap.Int("failed", r.summary.Failed+r.summary.TimedOut),
	)
}

func (r *run) logFinalResults() {
	r.logger.Info("Extraction complete",
		zap.Int("found", r.summary.Total),
		zap.Int("attempted", r.summary.Attempted),
		zap.Int("resolved", r.summary.Resolved),
		zap.Int("not_applicable", r.summary.NotApplicable),
		zap.Int("timed_out", r.summary.TimedOut),
		zap.Int("failed", r.summary.Failed),
	)
	for _, rec := range r.summary.Records {
		r.logger.Info("Result",
			zap.Int("job", rec.JobIndex),
			zap.String("job_url", rec.JobURL),
			zap.String("apply_url", rec.CompanyApplyURL),
		)
	}
}
