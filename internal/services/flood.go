package services

import (
	"context"
	"time"

	"github.com/prefeitura-rio/app-callback/internal/models"
	"github.com/prefeitura-rio/app-callback/internal/observability"
)

// Flood control defaults for the callback endpoint
const (
	CallbackFloodEvent     = "kp_zadarma.callback"
	DefaultFloodThreshold  = 10
	DefaultFloodWindow     = time.Hour
	floodDecisionAllowed   = "allowed"
	floodDecisionThrottled = "throttled"
)

// FloodControl bounds how often an identifier may trigger an event inside a
// trailing window
type FloodControl interface {
	// Attempt counts the registrations of (event, identifier) newer than
	// now-window and, when fewer than threshold, registers now. The check
	// and the registration happen atomically.
	Attempt(ctx context.Context, event string, threshold int, window time.Duration, identifier string) (models.FloodDecision, error)
	// Clear forgets every registration of (event, identifier)
	Clear(ctx context.Context, event, identifier string) error
}

func floodKey(event, identifier string) string {
	return event + ":" + identifier
}

func recordFloodDecision(event string, allowed bool) {
	decision := floodDecisionThrottled
	if allowed {
		decision = floodDecisionAllowed
	}
	observability.FloodDecisions.WithLabelValues(event, decision).Inc()
}
