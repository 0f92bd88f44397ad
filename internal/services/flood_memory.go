package services

import (
	"context"
	"sync"
	"time"

	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/models"
	"go.uber.org/zap"
)

type floodEntry struct {
	registrations []time.Time
	window        time.Duration
}

// MemoryFlood keeps flood registrations in process memory. Suitable for a
// single instance only.
type MemoryFlood struct {
	entries map[string]*floodEntry
	now     func() time.Time
	mutex   sync.Mutex
	logger  *logging.SafeLogger
}

// NewMemoryFlood creates an in-memory flood store. A nil clock uses time.Now.
func NewMemoryFlood(now func() time.Time, logger *logging.SafeLogger) *MemoryFlood {
	if now == nil {
		now = time.Now
	}
	return &MemoryFlood{
		entries: make(map[string]*floodEntry),
		now:     now,
		logger:  logger,
	}
}

// Attempt implements FloodControl
func (f *MemoryFlood) Attempt(ctx context.Context, event string, threshold int, window time.Duration, identifier string) (models.FloodDecision, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	now := f.now()
	key := floodKey(event, identifier)

	entry, ok := f.entries[key]
	if !ok {
		entry = &floodEntry{}
		f.entries[key] = entry
	}
	entry.window = window
	entry.registrations = pruneRegistrations(entry.registrations, now.Add(-window))

	if len(entry.registrations) >= threshold {
		retryAfter := entry.registrations[0].Add(window).Sub(now)
		recordFloodDecision(event, false)
		f.logger.Debug("flood control throttled attempt",
			zap.String("event", event),
			zap.Int("count", len(entry.registrations)),
			zap.Int("threshold", threshold),
			zap.Duration("retry_after", retryAfter))
		return models.FloodDecision{
			Allowed:    false,
			Count:      len(entry.registrations),
			RetryAfter: retryAfter,
		}, nil
	}

	entry.registrations = append(entry.registrations, now)
	recordFloodDecision(event, true)
	f.logger.Debug("flood control registered attempt",
		zap.String("event", event),
		zap.Int("count", len(entry.registrations)),
		zap.Int("threshold", threshold))

	return models.FloodDecision{
		Allowed: true,
		Count:   len(entry.registrations),
	}, nil
}

// Clear implements FloodControl
func (f *MemoryFlood) Clear(ctx context.Context, event, identifier string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	delete(f.entries, floodKey(event, identifier))
	return nil
}

// CleanupExpired drops registrations that left their window and removes
// keys with none left. It returns the number of removed keys.
func (f *MemoryFlood) CleanupExpired() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	now := f.now()
	removed := 0
	for key, entry := range f.entries {
		entry.registrations = pruneRegistrations(entry.registrations, now.Add(-entry.window))
		if len(entry.registrations) == 0 {
			delete(f.entries, key)
			removed++
		}
	}

	if removed > 0 {
		f.logger.Debug("cleaned up expired flood entries", zap.Int("removed", removed))
	}
	return removed
}

// Size returns the number of tracked keys
func (f *MemoryFlood) Size() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.entries)
}

// StartCleanup runs CleanupExpired every interval until ctx is done
func (f *MemoryFlood) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				f.CleanupExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// pruneRegistrations keeps the registrations strictly after cutoff.
// Registrations are appended in order, so the slice stays sorted.
func pruneRegistrations(registrations []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(registrations) && !registrations[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return registrations
	}
	return append(registrations[:0], registrations[i:]...)
}
