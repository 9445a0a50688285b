package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Janitor periodically purges expired cache entries so an idle cache does not
// retain dead results between scans.
type Janitor struct {
	cache    *Cache
	interval time.Duration
	logger   *slog.Logger
}

// JanitorOption configures the Janitor.
type JanitorOption func(*Janitor)

// WithJanitorInterval overrides the purge interval when greater than zero.
func WithJanitorInterval(interval time.Duration) JanitorOption {
	return func(j *Janitor) {
		if interval > 0 {
			j.interval = interval
		}
	}
}

// WithJanitorLogger overrides the logger.
func WithJanitorLogger(logger *slog.Logger) JanitorOption {
	return func(j *Janitor) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// NewJanitor constructs a Janitor for the given cache.
func NewJanitor(c *Cache, opts ...JanitorOption) (*Janitor, error) {
	if c == nil {
		return nil, fmt.Errorf("cache is required")
	}
	j := &Janitor{
		cache:    c,
		interval: time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Run purges on the configured interval until the context is cancelled.
// Cancellation is the normal way to stop the janitor and is not an error.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if purged := j.cache.PurgeExpired(); purged > 0 {
				j.logger.Debug("purged expired cache entries", "count", purged)
			}
		}
	}
}
