package observability

import (
	"github.com/prefeitura-rio/app-callback/internal/logging"
)

// Logger returns the global safe logger instance
func Logger() *logging.SafeLogger {
	return logging.Logger
}

// MaskPhone masks a phone number for request logs, keeping the country
// prefix and the last two digits.
func MaskPhone(phone string) string {
	if len(phone) < 7 {
		return "********"
	}
	return phone[:4] + "*****" + phone[len(phone)-2:]
}
