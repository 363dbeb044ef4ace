package worker

import (
	"context"
	"log/slog"
	"time"
)

// TokenPurger removes expired token blacklist rows.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// BlacklistJanitor periodically drops blacklist rows whose tokens have
// expired on their own.
type BlacklistJanitor struct {
	purger   TokenPurger
	interval time.Duration
}

func NewBlacklistJanitor(purger TokenPurger, interval time.Duration) *BlacklistJanitor {
	return &BlacklistJanitor{
		purger:   purger,
		interval: interval,
	}
}

// Run purges on start and then on every tick until ctx ends.
func (j *BlacklistJanitor) Run(ctx context.Context) error {
	j.purgeOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.purgeOnce(ctx)
		}
	}
}

func (j *BlacklistJanitor) purgeOnce(ctx context.Context) {
	purged, err := j.purger.PurgeExpiredTokens(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Token blacklist purge failed", "error", err)
		return
	}
	if purged > 0 {
		slog.InfoContext(ctx, "Purged expired blacklist tokens", "count", purged)
	}
}
