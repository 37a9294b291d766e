package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Guard holds a short-lived lock per key so concurrent duplicate requests are
// turned away while the first one is still running.
type Guard struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewGuard(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{rdb: rdb, ttl: ttl, logger: logger}
}

func lockKey(key string) string {
	return "lock:" + key
}

// Acquire returns true if the caller holds the lock for key. When redis is
// unavailable the request is let through.
func (g *Guard) Acquire(ctx context.Context, key string) bool {
	if g == nil || g.rdb == nil {
		return true
	}

	ok, err := g.rdb.SetNX(ctx, lockKey(key), 1, g.ttl).Result()
	if err != nil {
		g.logger.Warn("Redis lock failed, allowing request", zap.String("key", key), zap.Error(err))
		return true
	}
	if !ok {
		g.logger.Info("Rejected duplicate request", zap.String("key", key))
	}
	return ok
}

// Release drops the lock for key
func (g *Guard) Release(ctx context.Context, key string) {
	if g == nil || g.rdb == nil {
		return
	}
	if err := g.rdb.Del(ctx, lockKey(key)).Err(); err != nil {
		g.logger.Warn("Redis unlock failed", zap.String("key", key), zap.Error(err))
	}
}
