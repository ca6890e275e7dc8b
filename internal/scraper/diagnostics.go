package scraper

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	LoginDebugScreenshot = "login-debug.png"
	ErrorStateScreenshot = "error-state.png"
)

// JobErrorScreenshot names the capture taken when row index (1-based) fails.
func JobErrorScreenshot(index int) string {
	return fmt.Sprintf("error-job-%d.png", index)
}

// Diagnostics writes screenshots of the current page. Captures are best
// effort: failures are logged and never returned.
type Diagnostics struct {
	page   Page
	fs     afero.Fs
	dir    string
	logger *zap.Logger
}

func NewDiagnostics(page Page, fs afero.Fs, dir string, logger *zap.Logger) *Diagnostics {
	return &Diagnostics{page: page, fs: fs, dir: dir, logger: logger}
}

// Capture saves a screenshot under name and returns the path written, or ""
// if nothing was saved.
func (d *Diagnostics) Capture(ctx context.Context, name string) string {
	png, err := d.page.CaptureScreenshot(ctx)
	if err != nil {
		d.logger.Warn("Could not take screenshot", zap.String("file", name), zap.Error(err))
		return ""
	}

	if d.dir != "" && d.dir != "." {
		if err := d.fs.MkdirAll(d.dir, 0755); err != nil {
			d.logger.Warn("Could not create artifact directory", zap.String("dir", d.dir), zap.Error(err))
			return ""
		}
	}

	path := filepath.Join(d.dir, name)
	if err := afero.WriteFile(d.fs, path, png, 0644); err != nil {
		d.logger.Warn("Could not save screenshot", zap.String("file", path), zap.Error(err))
		return ""
	}
	d.logger.Info("Screenshot saved", zap.String("file", path))
	return path
}
