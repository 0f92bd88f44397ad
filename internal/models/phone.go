package models

// ValidationResult is the verdict of the phone validator
type ValidationResult struct {
	IsValid          bool   `json:"is_valid"`
	NormalizedNumber string `json:"normalized_number,omitempty"`
}
