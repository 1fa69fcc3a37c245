package main

import (
	"context"
	"log/slog"
	"time"
)

// expiredDeleter is the retention half of the refresh token store.
type expiredDeleter interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// purger deletes refresh tokens that expired or were revoked.
type purger struct {
	store    expiredDeleter
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// purgeOnce runs one purge and logs its result. Errors are logged, not returned,
// so that one failed pass does not stop the loop.
func (p *purger) purgeOnce(ctx context.Context) {
	start := p.now().UTC()
	n, err := p.store.DeleteExpired(ctx, start)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.ErrorContext(ctx, "refresh token purge failed", "error", err)
		return
	}
	p.logger.InfoContext(ctx, "refresh token purge",
		"deleted", n,
		"before", start.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// run purges immediately and then every interval until ctx is done.
func (p *purger) run(ctx context.Context) {
	p.purgeOnce(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.purgeOnce(ctx)
		}
	}
}
