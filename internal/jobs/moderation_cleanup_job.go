package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/autoposter/internal/service"
)

// ModerationCleanupJob drops pending posts nobody approved or discarded in time.
type ModerationCleanupJob struct {
	ms      service.ModerationService
	ttl     time.Duration
	timeout time.Duration
}

func NewModerationCleanupJob(ms service.ModerationService, ttl time.Duration) *ModerationCleanupJob {
	return &ModerationCleanupJob{
		ms:      ms,
		ttl:     ttl,
		timeout: time.Minute,
	}
}

func (c *ModerationCleanupJob) PurgeExpired() {
	if c.ttl <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	n, err := c.ms.PurgeExpired(ctx, c.ttl)
	if err != nil {
		slog.Error("purging expired moderation posts failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("expired moderation posts purged", "count", n, "ttl", c.ttl.String())
	}
}
