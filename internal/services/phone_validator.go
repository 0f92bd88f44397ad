package services

import (
	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/models"
	"github.com/prefeitura-rio/app-callback/internal/utils"
	"go.uber.org/zap"
)

// PhoneValidator decides whether a string is a valid, dialable phone number
type PhoneValidator struct {
	verbose bool
	logger  *logging.SafeLogger
}

// NewPhoneValidator creates a validator. Parse failures are logged at debug
// level only when verbose is set.
func NewPhoneValidator(verbose bool, logger *logging.SafeLogger) *PhoneValidator {
	return &PhoneValidator{
		verbose: verbose,
		logger:  logger,
	}
}

// IsValid reports whether phone is a valid number. An empty region means the
// number must carry its own + country calling code.
func (v *PhoneValidator) IsValid(phone, region string) bool {
	return v.Validate(phone, region).IsValid
}

// Validate parses phone and returns the verdict with its E.164 form
func (v *PhoneValidator) Validate(phone, region string) models.ValidationResult {
	if phone == "" {
		return models.ValidationResult{}
	}

	components, err := utils.ParsePhoneNumber(phone, region)
	if err != nil {
		if v.verbose {
			v.logger.Debug("phone number parse failed",
				zap.String("phone", phone),
				zap.String("region", region),
				zap.Error(err))
		}
		return models.ValidationResult{}
	}

	if !components.Valid {
		return models.ValidationResult{}
	}

	return models.ValidationResult{
		IsValid:          true,
		NormalizedNumber: components.E164,
	}
}
