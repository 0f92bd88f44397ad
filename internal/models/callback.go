package models

import (
	"encoding/json"
	"net/http"
)

// Callback response statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Messages returned to the caller for each failure outcome
const (
	MessageInvalidPhone        = "Invalid phone number."
	MessageRateLimited         = "Too many requests. Please try again later."
	MessageProviderUnavailable = "Zadarma API library is missing."
	MessageProviderErrorPrefix = "API request failed: "
)

// PhoneKey is the request body field carrying the phone number
const PhoneKey = "zadarma_phone_number"

// CallbackRequest is one submission handled by the callback endpoint
type CallbackRequest struct {
	PhoneNumber string
	ClientIP    string
}

// OutcomeKind tags a CallbackOutcome
type OutcomeKind string

const (
	OutcomeSuccess             OutcomeKind = "success"
	OutcomeInvalidPhone        OutcomeKind = "invalid_phone"
	OutcomeRateLimited         OutcomeKind = "rate_limited"
	OutcomeProviderUnavailable OutcomeKind = "provider_unavailable"
	OutcomeProviderError       OutcomeKind = "provider_error"
)

// CallbackOutcome is the terminal result of handling a CallbackRequest
type CallbackOutcome struct {
	Kind OutcomeKind
	// ProviderPayload is set on success: decoded JSON or the raw body string
	ProviderPayload interface{}
	// Message is the provider error text on OutcomeProviderError
	Message string
}

// SuccessOutcome builds a success outcome carrying the provider payload
func SuccessOutcome(payload interface{}) CallbackOutcome {
	return CallbackOutcome{Kind: OutcomeSuccess, ProviderPayload: payload}
}

// ProviderErrorOutcome builds a provider error outcome
func ProviderErrorOutcome(message string) CallbackOutcome {
	return CallbackOutcome{Kind: OutcomeProviderError, Message: message}
}

// HTTPStatus maps the outcome to its response status code
func (o CallbackOutcome) HTTPStatus() int {
	switch o.Kind {
	case OutcomeSuccess:
		return http.StatusOK
	case OutcomeInvalidPhone:
		return http.StatusBadRequest
	case OutcomeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Body maps the outcome to its JSON response body
func (o CallbackOutcome) Body() CallbackResponse {
	switch o.Kind {
	case OutcomeSuccess:
		return CallbackResponse{Status: StatusSuccess, Data: o.ProviderPayload}
	case OutcomeInvalidPhone:
		return CallbackResponse{Status: StatusError, Message: MessageInvalidPhone}
	case OutcomeRateLimited:
		return CallbackResponse{Status: StatusError, Message: MessageRateLimited}
	case OutcomeProviderUnavailable:
		return CallbackResponse{Status: StatusError, Message: MessageProviderUnavailable}
	default:
		return CallbackResponse{Status: StatusError, Message: MessageProviderErrorPrefix + o.Message}
	}
}

// CallbackResponse is the JSON body of the callback endpoint
type CallbackResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// MarshalJSON always writes data on success, as an empty string when the
// provider replied with an empty body. Error bodies carry no data.
func (r CallbackResponse) MarshalJSON() ([]byte, error) {
	type body CallbackResponse
	if r.Status != StatusSuccess {
		return json.Marshal(body(r))
	}

	data := r.Data
	if data == nil {
		data = ""
	}
	return json.Marshal(struct {
		Status  string      `json:"status"`
		Message string      `json:"message,omitempty"`
		Data    interface{} `json:"data"`
	}{r.Status, r.Message, data})
}
