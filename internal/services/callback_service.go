package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/models"
	"github.com/prefeitura-rio/app-callback/internal/observability"
	"github.com/prefeitura-rio/app-callback/internal/utils"
	"go.uber.org/zap"
)

// CallbackSettings is the server-held part of every provider request
type CallbackSettings struct {
	From           string
	Predicted      bool
	FloodThreshold int
	FloodWindow    time.Duration
}

// CallbackService rate limits, validates and forwards callback requests
type CallbackService struct {
	flood     FloodControl
	provider  CallbackProvider
	validator *PhoneValidator
	settings  CallbackSettings
	logger    *logging.SafeLogger
}

// NewCallbackService creates the service. provider may be nil when the API
// is not configured; every request then ends as ProviderUnavailable.
func NewCallbackService(flood FloodControl, provider CallbackProvider, validator *PhoneValidator, settings CallbackSettings, logger *logging.SafeLogger) *CallbackService {
	if client, ok := provider.(*ZadarmaClient); ok && client == nil {
		provider = nil
	}
	if settings.FloodThreshold <= 0 {
		settings.FloodThreshold = DefaultFloodThreshold
	}
	if settings.FloodWindow <= 0 {
		settings.FloodWindow = DefaultFloodWindow
	}

	return &CallbackService{
		flood:     flood,
		provider:  provider,
		validator: validator,
		settings:  settings,
		logger:    logger,
	}
}

// Handle runs one callback request through flood control, provider
// availability, validation and the provider call. Every failure is turned
// into an outcome; Handle never returns an error.
func (s *CallbackService) Handle(ctx context.Context, req models.CallbackRequest) models.CallbackOutcome {
	ctx, span, cleanup := utils.TraceOperation(ctx, "callback.handle", map[string]interface{}{
		"client.ip": req.ClientIP,
	})
	defer cleanup()

	outcome := s.handle(ctx, req)

	observability.CallbackRequests.WithLabelValues(string(outcome.Kind)).Inc()
	utils.AddSpanAttribute(span, "callback.outcome", string(outcome.Kind))

	return outcome
}

func (s *CallbackService) handle(ctx context.Context, req models.CallbackRequest) models.CallbackOutcome {
	if !s.allow(ctx, req.ClientIP) {
		s.logger.Warn("callback request rate limited",
			zap.String("ip", req.ClientIP),
			zap.String("phone", req.PhoneNumber))
		return models.CallbackOutcome{Kind: models.OutcomeRateLimited}
	}

	if s.provider == nil {
		s.logger.Error("callback provider is not configured",
			zap.String("ip", req.ClientIP),
			zap.String("phone", req.PhoneNumber))
		return models.CallbackOutcome{Kind: models.OutcomeProviderUnavailable}
	}

	_, validationSpan := utils.TraceInputValidation(ctx, "phone", "zadarma_phone_number")
	result := s.validator.Validate(req.PhoneNumber, "")
	utils.AddSpanAttribute(validationSpan, "validation.valid", result.IsValid)
	validationSpan.End()

	if !result.IsValid {
		s.logger.Warn("callback request with invalid phone number",
			zap.String("ip", req.ClientIP),
			zap.String("phone", req.PhoneNumber))
		return models.CallbackOutcome{Kind: models.OutcomeInvalidPhone}
	}

	body, err := s.provider.RequestCallback(ctx, models.ProviderCallbackRequest{
		To:        req.PhoneNumber,
		From:      s.settings.From,
		Predicted: s.settings.Predicted,
	})
	if err != nil {
		message := ProviderErrorMessage(err)
		s.logger.Error("callback provider request failed",
			zap.String("ip", req.ClientIP),
			zap.String("phone", req.PhoneNumber),
			zap.String("provider_message", message),
			zap.Error(err))
		return models.ProviderErrorOutcome(message)
	}

	s.logger.Info("callback requested",
		zap.String("ip", req.ClientIP),
		zap.String("phone", req.PhoneNumber),
		zap.String("from", s.settings.From))

	return models.SuccessOutcome(decodePayload(body))
}

// allow registers the attempt with flood control. Store failures let the
// request through.
func (s *CallbackService) allow(ctx context.Context, ip string) bool {
	ctx, span := utils.TraceBusinessLogic(ctx, "flood_control")
	defer span.End()

	decision, err := s.flood.Attempt(ctx, CallbackFloodEvent, s.settings.FloodThreshold, s.settings.FloodWindow, ip)
	if err != nil {
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"flood.event": CallbackFloodEvent})
		s.logger.Error("flood control unavailable, allowing request",
			zap.String("ip", ip),
			zap.Error(err))
		return true
	}

	utils.AddSpanAttribute(span, "flood.allowed", decision.Allowed)
	utils.AddSpanAttribute(span, "flood.count", decision.Count)
	return decision.Allowed
}

// decodePayload returns the decoded body when it is JSON and the raw text
// otherwise
func decodePayload(body []byte) interface{} {
	var payload interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		return payload
	}
	return string(body)
}
