package config

import (
	"context"
	"time"

	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// Redis client, nil unless a component needs it
	Redis *redisclient.Client
)

// InitRedis initializes the Redis connection. A failed ping is logged and
// the client is still returned so the store can recover once Redis is up.
func InitRedis(cfg *Config) *redisclient.Client {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisURI,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	// Wrap with traced client
	Redis = redisclient.NewClient(redisClient)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Redis.Ping(ctx).Err(); err != nil {
		logging.Logger.Error("failed to connect to Redis",
			zap.String("uri", cfg.RedisURI),
			zap.Error(err))
		return Redis
	}

	logging.Logger.Info("connected to Redis",
		zap.String("uri", cfg.RedisURI),
		zap.Int("db", cfg.RedisDB))
	return Redis
}

// CloseRedis closes the Redis connection pool if it was opened
func CloseRedis() {
	if Redis == nil {
		return
	}
	if err := Redis.Close(); err != nil {
		logging.Logger.Warn("failed to close Redis client", zap.Error(err))
	}
	Redis = nil
}
