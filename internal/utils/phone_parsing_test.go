package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhoneNumber(t *testing.T) {
	tests := []struct {
		name        string
		phoneString string
		region      string
		wantCode    int32
		wantRegion  string
		wantE164    string
		wantValid   bool
		wantErr     bool
	}{
		{
			name:        "Ukrainian mobile",
			phoneString: "+380501234567",
			wantCode:    380,
			wantRegion:  "UA",
			wantE164:    "+380501234567",
			wantValid:   true,
		},
		{
			name:        "US number",
			phoneString: "+12025551234",
			wantCode:    1,
			wantRegion:  "US",
			wantE164:    "+12025551234",
			wantValid:   true,
		},
		{
			name:        "national number with region hint",
			phoneString: "0501234567",
			region:      "ua",
			wantCode:    380,
			wantRegion:  "UA",
			wantE164:    "+380501234567",
			wantValid:   true,
		},
		{
			name:        "surrounding whitespace",
			phoneString: "  +380501234567 ",
			wantCode:    380,
			wantRegion:  "UA",
			wantE164:    "+380501234567",
			wantValid:   true,
		},
		{
			name:        "national number without region",
			phoneString: "0501234567",
			wantErr:     true,
		},
		{
			name:        "letters only",
			phoneString: "not-a-phone",
			wantErr:     true,
		},
		{
			name:        "plus only",
			phoneString: "+",
			wantErr:     true,
		},
		{
			name:        "empty",
			phoneString: "",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePhoneNumber(tt.phoneString, tt.region)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.wantCode, got.CountryCode)
			if tt.wantValid {
				assert.Equal(t, tt.wantRegion, got.Region)
				assert.Equal(t, tt.wantE164, got.E164)
			} else {
				assert.Empty(t, got.E164)
			}
		})
	}
}

func TestParsePhoneNumber_NotValid(t *testing.T) {
	inputs := []string{"+123", "+1234567890123456789", "+380abc1234567", "+38050"}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			got, err := ParsePhoneNumber(input, "")
			if err != nil {
				assert.Nil(t, got)
				return
			}
			assert.False(t, got.Valid)
			assert.Empty(t, got.E164)
		})
	}
}

func TestParsePhoneNumber_Sentinels(t *testing.T) {
	_, err := ParsePhoneNumber("", "")
	assert.ErrorIs(t, err, ErrEmptyPhone)

	_, err = ParsePhoneNumber("+"+strings.Repeat("1", MaxPhoneInputLength), "")
	assert.ErrorIs(t, err, ErrPhoneTooLong)
}

func TestParsePhoneNumber_AdversarialInput(t *testing.T) {
	inputs := []string{
		"+380\x00501234567",
		"+380abc1234567",
		"+1234567890123456789",
		"☎️ +380 50 123 45 67 ☎️",
		"‮+380501234567",
		strings.Repeat("+", MaxPhoneInputLength),
		"+\t\n\r",
	}

	for _, input := range inputs {
		assert.NotPanics(t, func() {
			got, err := ParsePhoneNumber(input, "")
			if err == nil {
				assert.NotNil(t, got)
			}
		})
	}
}
