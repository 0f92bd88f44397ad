package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// MaxPhoneInputLength mirrors the parser's own input bound; longer strings
// are rejected before parsing.
const MaxPhoneInputLength = 250

var (
	ErrEmptyPhone   = errors.New("empty phone number")
	ErrPhoneTooLong = errors.New("phone number input too long")
)

// PhoneComponents represents the parsed components of a phone number
type PhoneComponents struct {
	CountryCode    int32  `json:"country_code"`
	NationalNumber string `json:"national_number"`
	Region         string `json:"region"`
	E164           string `json:"e164"`
	Valid          bool   `json:"valid"`
}

// ParsePhoneNumber parses a phone number using an optional region hint. With
// no hint the region is detected from a leading + country calling code.
// Valid carries the library's verdict for the detected region.
func ParsePhoneNumber(phoneString, region string) (components *PhoneComponents, err error) {
	if phoneString == "" {
		return nil, ErrEmptyPhone
	}
	if len(phoneString) > MaxPhoneInputLength {
		return nil, ErrPhoneTooLong
	}

	defer func() {
		if r := recover(); r != nil {
			components = nil
			err = fmt.Errorf("failed to parse phone number: %v", r)
		}
	}()

	num, err := phonenumbers.Parse(strings.TrimSpace(phoneString), strings.ToUpper(strings.TrimSpace(region)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse phone number: %w", err)
	}

	components = &PhoneComponents{
		CountryCode:    num.GetCountryCode(),
		NationalNumber: phonenumbers.GetNationalSignificantNumber(num),
		Region:         phonenumbers.GetRegionCodeForNumber(num),
		Valid:          phonenumbers.IsValidNumber(num),
	}
	if components.Valid {
		components.E164 = phonenumbers.Format(num, phonenumbers.E164)
	}

	return components, nil
}
