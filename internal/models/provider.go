package models

// ProviderCallbackRequest is the request sent to the telephony provider
type ProviderCallbackRequest struct {
	To        string
	From      string
	Predicted bool
}

// PredictedFlag serializes Predicted the way the provider expects it
func (r ProviderCallbackRequest) PredictedFlag() string {
	if r.Predicted {
		return "1"
	}
	return "0"
}

// ProviderBalance is the account balance reported by the provider
type ProviderBalance struct {
	Status   string  `json:"status"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// ProviderStatusResponse is returned by the status endpoints
type ProviderStatusResponse struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	CheckedAt  string `json:"checked_at,omitempty"`
}
