package scraper

import (
	"context"

	"github.com/coppinaphil/job-scraper/internal/config"
	"go.uber.org/zap"
)

// LoginResult is the outcome of one login attempt. None of them stop the run.
type LoginResult int

const (
	LoginSucceeded LoginResult = iota
	LoginFieldsNotFound
	LoginSubmitNotFound
	LoginFailed // navigation, fill or click error
)

func (r LoginResult) String() string {
	switch r {
	case LoginSucceeded:
		return "succeeded"
	case LoginFieldsNotFound:
		return "fields_not_found"
	case LoginSubmitNotFound:
		return "submit_not_found"
	case LoginFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Credentials for the job board account.
type Credentials struct {
	Email    string
	Password string
}

// Authenticator signs in through the login form, probing ordered selector
// candidates for each field.
type Authenticator struct {
	page   Page
	nav    *Navigator
	diag   *Diagnostics
	cfg    *config.Config
	logger *zap.Logger
}

func NewAuthenticator(page Page, nav *Navigator, diag *Diagnostics, cfg *config.Config, logger *zap.Logger) *Authenticator {
	return &Authenticator{page: page, nav: nav, diag: diag, cfg: cfg, logger: logger}
}

// Login makes a single attempt. Whether the site accepted the credentials is
// not checked.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) LoginResult {
	loginURL := a.cfg.LoginURL()
	a.logger.Info("Navigating to login page", zap.String("url", loginURL))
	if _, err := a.nav.NavigateAndSettle(ctx, loginURL, a.cfg.Timeouts.Settle); err != nil {
		a.logger.Error("Could not load login page", zap.Error(err))
		return LoginFailed
	}
	a.logCurrentURL(ctx, "On login page")

	email, emailOK := a.findFirst(ctx, "email", a.cfg.Selectors.Email)
	password, passwordOK := a.findFirst(ctx, "password", a.cfg.Selectors.Password)
	if !emailOK || !passwordOK {
		a.logger.Error("Could not find login fields",
			zap.Bool("email_found", emailOK),
			zap.Bool("password_found", passwordOK),
		)
		a.diag.Capture(ctx, LoginDebugScreenshot)
		return LoginFieldsNotFound
	}

	a.logger.Info("Filling login form")
	if err := a.page.Fill(ctx, email, creds.Email); err != nil {
		a.logger.Error("Could not fill email", zap.Stringer("field", email), zap.Error(err))
		return LoginFailed
	}
	if err := a.page.Fill(ctx, password, creds.Password); err != nil {
		a.logger.Error("Could not fill password", zap.Stringer("field", password), zap.Error(err))
		return LoginFailed
	}

	submit, ok := a.findFirst(ctx, "submit", a.cfg.Selectors.Submit)
	if !ok {
		a.logger.Error("Could not find submit button")
		return LoginSubmitNotFound
	}

	a.logger.Info("Clicking login button")
	if err := a.page.Click(ctx, submit); err != nil {
		a.logger.Error("Could not click login button", zap.Error(err))
		return LoginFailed
	}
	a.nav.Settle(ctx, a.cfg.Timeouts.SubmitSettle)
	a.logCurrentURL(ctx, "After login click")

	return LoginSucceeded
}

// findFirst returns the first match of the first candidate that matches
// anything. A probe error counts as no match.
func (a *Authenticator) findFirst(ctx context.Context, role string, candidates []string) (Element, bool) {
	for _, sel := range candidates {
		n, err := a.page.Count(ctx, sel)
		if err != nil {
			a.logger.Debug("Selector probe failed", zap.String("role", role), zap.String("selector", sel), zap.Error(err))
			continue
		}
		if n > 0 {
			a.logger.Info("Found login field", zap.String("role", role), zap.String("selector", sel))
			return Element{Selector: sel}, true
		}
	}
	return Element{}, false
}

func (a *Authenticator) logCurrentURL(ctx context.Context, msg string) {
	current, err := a.page.URL(ctx)
	if err != nil {
		a.logger.Warn(msg, zap.Error(err))
		return
	}
	a.logger.Info(msg, zap.String("url", current))
}
