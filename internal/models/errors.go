package models

import "errors"

// Error taxonomy of the callback pipeline
var (
	ErrInvalidPhone        = errors.New("invalid phone number")
	ErrRateLimitExceeded   = errors.New("rate limit exceeded")
	ErrProviderUnavailable = errors.New("callback provider unavailable")
	ErrProviderFailure     = errors.New("callback provider request failed")
	ErrTransport           = errors.New("transport error")
	ErrSubmitDisabled      = errors.New("submit is disabled")
	ErrInvalidSession      = errors.New("invalid session token")
)
