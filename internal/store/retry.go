package store

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	openAttempts     = 3
	openInitialDelay = 200 * time.Millisecond
)

// OpenWithRetry runs fn up to openAttempts times with exponential backoff
// between attempts. After the last failure it surfaces ErrConnectivity
// carrying the underlying error text, so callers can map connectivity
// problems without knowing the backend.
func OpenWithRetry(log *slog.Logger, what string, fn func() error) error {
	delay := openInitialDelay
	var lastErr error
	for attempt := 1; attempt <= openAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt < openAttempts {
			log.Warn("store open failed, retrying",
				"target", what, "attempt", attempt, "backoff", delay, "error", lastErr)
			time.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrConnectivity, what, lastErr)
}
