package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/models"
	"github.com/prefeitura-rio/app-callback/internal/observability"
	"github.com/prefeitura-rio/app-callback/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProviderStatusKey mirrors the last connection check for other instances
const ProviderStatusKey = "callback:provider:connected"

const (
	connectionCheckTimeout = 10 * time.Second
	statusReadTimeout      = 500 * time.Millisecond
)

// ConnectionMonitor periodically checks that the provider accepts our
// credentials by reading the account balance
type ConnectionMonitor struct {
	provider  BalanceProvider
	redis     *redisclient.Client
	interval  time.Duration
	connected bool
	checkedAt time.Time
	mu        sync.RWMutex
	stopOnce  sync.Once
	stopChan  chan struct{}
	logger    *logging.SafeLogger
}

// NewConnectionMonitor creates a monitor. provider may be nil when the API
// is not configured; redis may be nil when no mirror is wanted.
func NewConnectionMonitor(provider BalanceProvider, redis *redisclient.Client, interval time.Duration, logger *logging.SafeLogger) *ConnectionMonitor {
	return &ConnectionMonitor{
		provider: provider,
		redis:    redis,
		interval: interval,
		stopChan: make(chan struct{}),
		logger:   logger,
	}
}

// Start checks the connection once and then every interval until ctx is
// done or Stop is called
func (m *ConnectionMonitor) Start(ctx context.Context) {
	m.logger.Info("starting provider connection monitoring", zap.Duration("interval", m.interval))
	m.Check(ctx)

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Check(ctx)
			case <-ctx.Done():
				m.logger.Info("provider connection monitoring stopped")
				return
			case <-m.stopChan:
				m.logger.Info("provider connection monitoring stopped")
				return
			}
		}
	}()
}

// Stop stops the monitoring loop
func (m *ConnectionMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// Check queries the provider balance and records the result
func (m *ConnectionMonitor) Check(ctx context.Context) bool {
	if m.provider == nil {
		m.setStatus(ctx, false)
		return false
	}

	checkCtx, cancel := context.WithTimeout(ctx, connectionCheckTimeout)
	defer cancel()

	balance, err := m.provider.Balance(checkCtx)
	if err != nil {
		m.logger.Error("Zadarma connection check failed",
			zap.String("message", ProviderErrorMessage(err)),
			zap.Error(err))
		m.setStatus(ctx, false)
		return false
	}

	m.logger.Info("Zadarma connection check succeeded",
		zap.Float64("balance", balance.Balance),
		zap.String("currency", balance.Currency))
	m.setStatus(ctx, true)
	return true
}

// Configured reports whether a provider client exists
func (m *ConnectionMonitor) Configured() bool {
	return m.provider != nil
}

// Connected reports the result of the last check. With redis configured the
// shared mirror wins, so every instance reports the same status; the local
// result is used when the mirror is missing or unreachable.
func (m *ConnectionMonitor) Connected() bool {
	m.mu.RLock()
	local := m.connected
	m.mu.RUnlock()
	return m.sharedStatus(local)
}

// Status returns the connection status for the status endpoint
func (m *ConnectionMonitor) Status() models.ProviderStatusResponse {
	m.mu.RLock()
	local := m.connected
	checkedAt := m.checkedAt
	m.mu.RUnlock()

	status := models.ProviderStatusResponse{
		Configured: m.provider != nil,
		Connected:  m.sharedStatus(local),
	}
	if !checkedAt.IsZero() {
		status.CheckedAt = checkedAt.UTC().Format(time.RFC3339)
	}
	return status
}

func (m *ConnectionMonitor) sharedStatus(local bool) bool {
	if m.redis == nil {
		return local
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusReadTimeout)
	defer cancel()

	value, err := m.redis.Get(ctx, ProviderStatusKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			m.logger.Warn("failed to read provider status from redis", zap.Error(err))
		}
		return local
	}
	return value == "1"
}

func (m *ConnectionMonitor) setStatus(ctx context.Context, connected bool) {
	m.mu.Lock()
	changed := m.connected != connected
	m.connected = connected
	m.checkedAt = time.Now()
	m.mu.Unlock()

	if connected {
		observability.ProviderConnected.Set(1)
	} else {
		observability.ProviderConnected.Set(0)
	}

	if changed && connected {
		m.logger.Info("provider connection established")
	} else if changed {
		m.logger.Warn("provider connection lost")
	}

	if m.redis == nil {
		return
	}
	value := "0"
	if connected {
		value = "1"
	}
	if err := m.redis.Set(ctx, ProviderStatusKey, value, 2*m.interval).Err(); err != nil {
		m.logger.Warn("failed to mirror provider status to redis", zap.Error(err))
	}
}
