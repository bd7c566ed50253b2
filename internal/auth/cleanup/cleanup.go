package cleanup

import (
	"context"
	"time"

	"github.com/routeledger/backend/internal/common/clock"
	"github.com/routeledger/backend/internal/common/logger"
	"github.com/routeledger/backend/internal/observability/metrics"
)

// DeadTokenDeleter removes refresh records that were revoked or expired
// before the given instant.
type DeadTokenDeleter interface {
	DeleteDead(ctx context.Context, before time.Time) (int64, error)
}

type Config struct {
	Interval  time.Duration
	Retention time.Duration
}

type Cleaner struct {
	repo  DeadTokenDeleter
	cfg   Config
	clock clock.Clock
	log   *logger.Logger
}

func NewCleaner(repo DeadTokenDeleter, cfg Config, c clock.Clock, log *logger.Logger) *Cleaner {
	if c == nil {
		c = clock.NewRealClock()
	}
	return &Cleaner{repo: repo, cfg: cfg, clock: c, log: log}
}

func (c *Cleaner) Enabled() bool {
	return c.cfg.Retention > 0 && c.cfg.Interval > 0
}

// Start blocks until ctx is done, purging dead records every interval.
func (c *Cleaner) Start(ctx context.Context) {
	if !c.Enabled() {
		c.log.Infof("refresh token cleanup disabled")
		return
	}

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = c.RunOnce(ctx)
		}
	}
}

func (c *Cleaner) RunOnce(ctx context.Context) (int64, error) {
	before := c.clock.Now().Add(-c.cfg.Retention)
	deleted, err := c.repo.DeleteDead(ctx, before)
	if err != nil {
		c.log.WithFields(ctx, logger.Fields{
			"action": "refresh_token_cleanup_failed",
		}).Errorf("refresh token cleanup failed: %v", err)
		return 0, err
	}
	if deleted > 0 {
		metrics.RefreshTokensCleanupDeleted.Add(float64(deleted))
		c.log.WithFields(ctx, logger.Fields{
			"deleted": deleted,
			"action":  "refresh_token_cleanup",
		}).Infof("refresh token cleanup: deleted %d dead tokens", deleted)
	}
	return deleted, nil
}
