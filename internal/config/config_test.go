package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        *string
		defaultValue string
		want         string
	}{
		{"unset uses default", "TEST_CALLBACK_UNSET", nil, "fallback", "fallback"},
		{"set returns value", "TEST_CALLBACK_SET", strPtr("value"), "fallback", "value"},
		{"empty is kept", "TEST_CALLBACK_EMPTY", strPtr(""), "fallback", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != nil {
				t.Setenv(tt.key, *tt.value)
			}
			if got := getEnvOrDefault(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnvOrDefault() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{"empty uses default", "", 42, false},
		{"valid", "8081", 8081, false},
		{"negative", "-1", -1, false},
		{"invalid", "abc", 0, true},
		{"float", "1.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_CALLBACK_INT", tt.value)

			got, err := getEnvAsIntOrDefault("TEST_CALLBACK_INT", 42)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid TEST_CALLBACK_INT")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Duration
		wantErr bool
	}{
		{"empty uses default", "", time.Hour, false},
		{"minutes", "30m", 30 * time.Minute, false},
		{"complex", "1h30m15s", time.Hour + 30*time.Minute + 15*time.Second, false},
		{"zero", "0s", 0, true},
		{"negative", "-5m", 0, true},
		{"missing unit", "60", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_CALLBACK_DURATION", tt.value)

			got, err := getEnvAsDurationOrDefault("TEST_CALLBACK_DURATION", time.Hour)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsBoolOrDefault(t *testing.T) {
	tests := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{"", true, true},
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"0", true, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_CALLBACK_BOOL", tt.value)
			assert.Equal(t, tt.want, getEnvAsBoolOrDefault("TEST_CALLBACK_BOOL", tt.defaultValue))
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a"}, splitAndTrim("a"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitAndTrim(" https://a.example , https://b.example "))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim("a,,b,"))
}

// clearEnv unsets every variable LoadConfig reads for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "ENVIRONMENT", "CORS_ALLOWED_ORIGINS", "TRUSTED_PROXIES", "LOG_ERROR_LEVEL",
		"REDIS_URI", "REDIS_PASSWORD", "REDIS_DB",
		"RATE_LIMIT_STORE", "FLOOD_LIMIT", "FLOOD_WINDOW",
		"ZADARMA_API_KEY", "ZADARMA_API_SECRET", "ZADARMA_API_FROM", "ZADARMA_API_PREDICTED",
		"ZADARMA_BASE_URL", "ZADARMA_TIMEOUT", "ZADARMA_STATUS_INTERVAL",
		"CSRF_ENABLED", "SESSION_TOKEN_TTL", "WIDGET_CONFIG_PATH",
		"TRACING_ENABLED", "TRACING_ENDPOINT",
	}
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			t.Setenv(key, value)
			os.Unsetenv(key)
		}
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	originalConfig := AppConfig
	defer func() { AppConfig = originalConfig }()

	require.NoError(t, LoadConfig())
	require.NotNil(t, AppConfig)

	assert.Equal(t, 8080, AppConfig.Port)
	assert.Equal(t, "development", AppConfig.Environment)
	assert.Equal(t, RateLimitStoreMemory, AppConfig.RateLimitStore)
	assert.Equal(t, 10, AppConfig.FloodLimit)
	assert.Equal(t, time.Hour, AppConfig.FloodWindow)
	assert.Equal(t, "https://api.zadarma.com", AppConfig.ZadarmaBaseURL)
	assert.Equal(t, 10*time.Second, AppConfig.ZadarmaTimeout)
	assert.Equal(t, 15*time.Minute, AppConfig.ZadarmaStatusInterval)
	assert.True(t, AppConfig.CSRFEnabled)
	assert.Equal(t, 30*time.Minute, AppConfig.SessionTokenTTL)
	assert.False(t, AppConfig.ZadarmaAPIPredicted)
	assert.False(t, AppConfig.TracingEnabled)
	assert.Empty(t, AppConfig.TrustedProxies)

	assert.False(t, AppConfig.ProviderConfigured())
	assert.False(t, AppConfig.VerboseErrors())
	assert.False(t, AppConfig.UsesRedis())
}

func TestLoadConfig_Success(t *testing.T) {
	clearEnv(t)
	originalConfig := AppConfig
	defer func() { AppConfig = originalConfig }()

	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example, https://www.shop.example")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12")
	t.Setenv("LOG_ERROR_LEVEL", "VERBOSE")
	t.Setenv("RATE_LIMIT_STORE", "Redis")
	t.Setenv("FLOOD_LIMIT", "5")
	t.Setenv("FLOOD_WINDOW", "10m")
	t.Setenv("ZADARMA_API_KEY", "key")
	t.Setenv("ZADARMA_API_SECRET", "secret")
	t.Setenv("ZADARMA_API_FROM", "+380441234567")
	t.Setenv("ZADARMA_API_PREDICTED", "true")
	t.Setenv("ZADARMA_BASE_URL", "https://sandbox.zadarma.test/")
	t.Setenv("CSRF_ENABLED", "false")

	require.NoError(t, LoadConfig())

	assert.Equal(t, 9090, AppConfig.Port)
	assert.Equal(t, "production", AppConfig.Environment)
	assert.Equal(t, []string{"https://shop.example", "https://www.shop.example"}, AppConfig.CORSAllowedOrigins)
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, AppConfig.TrustedProxies)
	assert.True(t, AppConfig.VerboseErrors())
	assert.Equal(t, RateLimitStoreRedis, AppConfig.RateLimitStore)
	assert.True(t, AppConfig.UsesRedis())
	assert.Equal(t, 5, AppConfig.FloodLimit)
	assert.Equal(t, 10*time.Minute, AppConfig.FloodWindow)
	assert.True(t, AppConfig.ProviderConfigured())
	assert.Equal(t, "+380441234567", AppConfig.ZadarmaAPIFrom)
	assert.True(t, AppConfig.ZadarmaAPIPredicted)
	assert.Equal(t, "https://sandbox.zadarma.test", AppConfig.ZadarmaBaseURL)
	assert.False(t, AppConfig.CSRFEnabled)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr string
	}{
		{"PORT", "invalid", "invalid PORT"},
		{"REDIS_DB", "invalid", "invalid REDIS_DB"},
		{"FLOOD_LIMIT", "0", "invalid FLOOD_LIMIT"},
		{"FLOOD_LIMIT", "many", "invalid FLOOD_LIMIT"},
		{"FLOOD_WINDOW", "1 hour", "invalid FLOOD_WINDOW"},
		{"ZADARMA_TIMEOUT", "-1s", "invalid ZADARMA_TIMEOUT"},
		{"ZADARMA_STATUS_INTERVAL", "soon", "invalid ZADARMA_STATUS_INTERVAL"},
		{"SESSION_TOKEN_TTL", "0", "invalid SESSION_TOKEN_TTL"},
		{"RATE_LIMIT_STORE", "memcached", "invalid RATE_LIMIT_STORE"},
		{"TRUSTED_PROXIES", "10.0.0.1,proxy.local", "invalid TRUSTED_PROXIES"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			originalConfig := AppConfig
			defer func() { AppConfig = originalConfig }()

			t.Setenv(tt.key, tt.value)

			err := LoadConfig()
			if err == nil {
				t.Fatalf("LoadConfig() should return error for %s=%q", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want error containing %q", err, tt.wantErr)
			}
			assert.Equal(t, originalConfig, AppConfig)
		})
	}
}

func TestConfig_ProviderConfigured(t *testing.T) {
	assert.False(t, (&Config{ZadarmaAPIKey: "key"}).ProviderConfigured())
	assert.False(t, (&Config{ZadarmaAPISecret: "secret"}).ProviderConfigured())
	assert.True(t, (&Config{ZadarmaAPIKey: "key", ZadarmaAPISecret: "secret"}).ProviderConfigured())
}

func strPtr(s string) *string { return &s }
