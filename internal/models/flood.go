package models

import "time"

// FloodDecision is the result of a flood control attempt
type FloodDecision struct {
	Allowed bool `json:"allowed"`
	// Count is the number of registrations inside the window, including
	// the current one when it was allowed.
	Count int `json:"count"`
	// RetryAfter is how long until the oldest registration leaves the
	// window. Zero when allowed.
	RetryAfter time.Duration `json:"retry_after"`
}
