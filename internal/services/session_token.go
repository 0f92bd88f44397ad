package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/observability"
	"github.com/prefeitura-rio/app-callback/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionTokenKeyPrefix = "callback:session_token:"

// SessionTokenStore issues one-time anti-forgery tokens
type SessionTokenStore interface {
	// Issue creates a new token valid for the store TTL
	Issue(ctx context.Context) (string, error)
	// Consume reports whether token was issued and not yet used or expired.
	// A token is accepted at most once.
	Consume(ctx context.Context, token string) (bool, error)
}

func recordTokenOperation(operation, result string) {
	observability.SessionTokens.WithLabelValues(operation, result).Inc()
}

// MemorySessionTokens keeps tokens in process memory
type MemorySessionTokens struct {
	tokens map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
	mutex  sync.Mutex
	logger *logging.SafeLogger
}

// NewMemorySessionTokens creates an in-memory token store. A nil clock uses
// time.Now.
func NewMemorySessionTokens(ttl time.Duration, now func() time.Time, logger *logging.SafeLogger) *MemorySessionTokens {
	if now == nil {
		now = time.Now
	}
	return &MemorySessionTokens{
		tokens: make(map[string]time.Time),
		ttl:    ttl,
		now:    now,
		logger: logger,
	}
}

// Issue implements SessionTokenStore
func (s *MemorySessionTokens) Issue(ctx context.Context) (string, error) {
	token := uuid.NewString()

	s.mutex.Lock()
	s.tokens[token] = s.now().Add(s.ttl)
	s.mutex.Unlock()

	recordTokenOperation("issue", "ok")
	return token, nil
}

// Consume implements SessionTokenStore
func (s *MemorySessionTokens) Consume(ctx context.Context, token string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	expiresAt, ok := s.tokens[token]
	if !ok {
		recordTokenOperation("consume", "unknown")
		return false, nil
	}
	delete(s.tokens, token)

	if !s.now().Before(expiresAt) {
		recordTokenOperation("consume", "expired")
		s.logger.Debug("expired session token presented")
		return false, nil
	}

	recordTokenOperation("consume", "ok")
	return true, nil
}

// CleanupExpired drops expired tokens and returns how many were removed
func (s *MemorySessionTokens) CleanupExpired() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	removed := 0
	for token, expiresAt := range s.tokens {
		if !now.Before(expiresAt) {
			delete(s.tokens, token)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug("cleaned up expired session tokens", zap.Int("removed", removed))
	}
	return removed
}

// Size returns the number of outstanding tokens
func (s *MemorySessionTokens) Size() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.tokens)
}

// StartCleanup runs CleanupExpired every interval until ctx is done
func (s *MemorySessionTokens) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.CleanupExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RedisSessionTokens keeps tokens in Redis so any instance can verify them
type RedisSessionTokens struct {
	redis  *redisclient.Client
	ttl    time.Duration
	logger *logging.SafeLogger
}

// NewRedisSessionTokens creates a Redis backed token store
func NewRedisSessionTokens(redis *redisclient.Client, ttl time.Duration, logger *logging.SafeLogger) *RedisSessionTokens {
	return &RedisSessionTokens{
		redis:  redis,
		ttl:    ttl,
		logger: logger,
	}
}

// Issue implements SessionTokenStore
func (s *RedisSessionTokens) Issue(ctx context.Context) (string, error) {
	token := uuid.NewString()

	if err := s.redis.Set(ctx, sessionTokenKeyPrefix+token, "1", s.ttl).Err(); err != nil {
		recordTokenOperation("issue", "error")
		return "", fmt.Errorf("failed to store session token: %w", err)
	}

	recordTokenOperation("issue", "ok")
	return token, nil
}

// Consume implements SessionTokenStore
func (s *RedisSessionTokens) Consume(ctx context.Context, token string) (bool, error) {
	err := s.redis.GetDel(ctx, sessionTokenKeyPrefix+token).Err()
	if errors.Is(err, redis.Nil) {
		recordTokenOperation("consume", "unknown")
		return false, nil
	}
	if err != nil {
		recordTokenOperation("consume", "error")
		s.logger.Error("failed to consume session token", zap.Error(err))
		return false, fmt.Errorf("failed to consume session token: %w", err)
	}

	recordTokenOperation("consume", "ok")
	return true, nil
}
