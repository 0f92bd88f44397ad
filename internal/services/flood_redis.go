package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/models"
	"github.com/prefeitura-rio/app-callback/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const floodKeyPrefix = "callback:flood:"

// floodScript prunes, counts and conditionally registers in one round trip.
// KEYS[1] sorted set, ARGV: now ms, window ms, threshold, member.
// Returns {allowed, count, retry_after_ms}.
var floodScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local threshold = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

if count < threshold then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	return {1, count + 1, 0}
end

local retry = 0
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
	retry = tonumber(oldest[2]) + window - now
end
return {0, count, retry}
`)

// RedisFlood keeps flood registrations in Redis sorted sets, shared by every
// instance of the service
type RedisFlood struct {
	redis  *redisclient.Client
	now    func() time.Time
	logger *logging.SafeLogger
}

// NewRedisFlood creates a Redis flood store. A nil clock uses time.Now.
func NewRedisFlood(redis *redisclient.Client, now func() time.Time, logger *logging.SafeLogger) *RedisFlood {
	if now == nil {
		now = time.Now
	}
	return &RedisFlood{
		redis:  redis,
		now:    now,
		logger: logger,
	}
}

// Attempt implements FloodControl
func (f *RedisFlood) Attempt(ctx context.Context, event string, threshold int, window time.Duration, identifier string) (models.FloodDecision, error) {
	key := floodKeyPrefix + floodKey(event, identifier)
	now := f.now().UnixMilli()

	res, err := f.redis.RunScript(ctx, floodScript, []string{key},
		now, window.Milliseconds(), threshold, uuid.NewString()).Int64Slice()
	if err != nil {
		return models.FloodDecision{}, fmt.Errorf("failed to run flood script: %w", err)
	}
	if len(res) != 3 {
		return models.FloodDecision{}, fmt.Errorf("unexpected flood script result: %v", res)
	}

	decision := models.FloodDecision{
		Allowed:    res[0] == 1,
		Count:      int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}
	recordFloodDecision(event, decision.Allowed)

	f.logger.Debug("flood control decision",
		zap.String("event", event),
		zap.Bool("allowed", decision.Allowed),
		zap.Int("count", decision.Count),
		zap.Int("threshold", threshold))

	return decision, nil
}

// Clear implements FloodControl
func (f *RedisFlood) Clear(ctx context.Context, event, identifier string) error {
	if err := f.redis.Del(ctx, floodKeyPrefix+floodKey(event, identifier)).Err(); err != nil {
		return fmt.Errorf("failed to clear flood key: %w", err)
	}
	return nil
}
