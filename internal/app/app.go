package app

import (
	"context"
	"fmt"

	"github.com/coppinaphil/job-scraper/internal/browser"
	"github.com/coppinaphil/job-scraper/internal/config"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// App is the dependency container for the CLI application
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Fs     afero.Fs
}

// NewApp initializes and returns a new App instance
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &App{
		Config: cfg,
		Logger: logger,
		Fs:     afero.NewOsFs(),
	}, nil
}

// OpenBrowser launches the browser session used by a run. The caller owns
// the returned session and must Close it.
func (a *App) OpenBrowser(ctx context.Context) (*browser.Chrome, error) {
	chrome, err := browser.New(ctx, browser.Options{
		Headless: a.Config.Headless,
	}, a.Logger.Named("browser"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}
	return chrome, nil
}

// Close closes all resources
func (a *App) Close() error {
	if a.Logger != nil {
		// Sync fails on non-file sinks such as a terminal; nothing to do about it.
		_ = a.Logger.Sync()
	}
	return nil
}
