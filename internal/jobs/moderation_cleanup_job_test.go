package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/stretchr/testify/assert"
)

type purgingModeration struct {
	service.ModerationService
	ttls []time.Duration
	err  error
}

func (p *purgingModeration) PurgeExpired(_ context.Context, ttl time.Duration) (int64, error) {
	p.ttls = append(p.ttls, ttl)
	return 2, p.err
}

func TestModerationCleanupJob(t *testing.T) {
	ms := &purgingModeration{}
	NewModerationCleanupJob(ms, 48*time.Hour).PurgeExpired()
	assert.Equal(t, []time.Duration{48 * time.Hour}, ms.ttls)

	ms.err = errors.New("db down")
	assert.NotPanics(t, NewModerationCleanupJob(ms, time.Hour).PurgeExpired)
}

func TestModerationCleanupJobDisabled(t *testing.T) {
	ms := &purgingModeration{}
	NewModerationCleanupJob(ms, 0).PurgeExpired()
	assert.Empty(t, ms.ttls)
}
