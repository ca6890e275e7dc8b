package app

import "errors"

// Sentinel errors for common application errors
var (
	ErrNotInitialized     = errors.New("application not initialized")
	ErrBrowserUnavailable = errors.New("browser could not be started")
)
