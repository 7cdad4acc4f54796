package job

import (
	"context"
	"fmt"
	"time"

	"github.com/maheshrc27/autoposter/pkg/utils"
	"github.com/redis/go-redis/v9"
)

// RunLocker serializes runs of the same scenario across workers.
type RunLocker interface {
	Acquire(ctx context.Context, scenarioID int64, ttl time.Duration) (release func(), ok bool, err error)
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisRunLocker struct {
	rdb redis.UniversalClient
}

func NewRedisRunLocker(rdb redis.UniversalClient) *RedisRunLocker {
	return &RedisRunLocker{rdb: rdb}
}

func runLockKey(scenarioID int64) string {
	return fmt.Sprintf("autoposter:scenario:%d:lock", scenarioID)
}

func (l *RedisRunLocker) Acquire(ctx context.Context, scenarioID int64, ttl time.Duration) (func(), bool, error) {
	token, err := utils.RandomToken(16)
	if err != nil {
		return nil, false, err
	}

	key := runLockKey(scenarioID)
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("taking run lock failed: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// The run context may already be done; release on a fresh one.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
	}
	return release, true, nil
}

// NoopRunLocker always grants the lock. Used when no Redis is configured
// for locking; the published_posts unique key still prevents double posts.
type NoopRunLocker struct{}

func (NoopRunLocker) Acquire(context.Context, int64, time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}
