package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate limit store backends
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port               int      `json:"port"`
	Environment        string   `json:"environment"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins"`
	// TrustedProxies lists the proxy IPs or CIDRs whose forwarding headers
	// are honored when resolving the client IP. Empty trusts none.
	TrustedProxies []string `json:"trusted_proxies"`

	// LogErrorLevel mirrors the host's error verbosity; "verbose" enables
	// diagnostic logging of phone parse failures.
	LogErrorLevel string `json:"log_error_level"`

	// Redis configuration
	RedisURI      string `json:"redis_uri"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	// Flood control configuration
	RateLimitStore string        `json:"rate_limit_store"`
	FloodLimit     int           `json:"flood_limit"`
	FloodWindow    time.Duration `json:"flood_window"`

	// Zadarma API configuration
	ZadarmaAPIKey         string        `json:"zadarma_api_key"`
	ZadarmaAPISecret      string        `json:"-"`
	ZadarmaAPIFrom        string        `json:"zadarma_api_from"`
	ZadarmaAPIPredicted   bool          `json:"zadarma_api_predicted"`
	ZadarmaBaseURL        string        `json:"zadarma_base_url"`
	ZadarmaTimeout        time.Duration `json:"zadarma_timeout"`
	ZadarmaStatusInterval time.Duration `json:"zadarma_status_interval"`

	// Anti-forgery configuration
	CSRFEnabled     bool          `json:"csrf_enabled"`
	SessionTokenTTL time.Duration `json:"session_token_ttl"`

	// Widget configuration
	WidgetConfigPath string `json:"widget_config_path"`

	// Tracing configuration
	TracingEnabled  bool   `json:"tracing_enabled"`
	TracingEndpoint string `json:"tracing_endpoint"`
}

var (
	AppConfig *Config
)

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present; real environment
// variables take precedence over it.
func LoadConfig() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg, err := loadFromEnv()
	if err != nil {
		return err
	}

	AppConfig = cfg
	return nil
}

func loadFromEnv() (*Config, error) {
	port, err := getEnvAsIntOrDefault("PORT", 8080)
	if err != nil {
		return nil, err
	}

	redisDB, err := getEnvAsIntOrDefault("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	floodLimit, err := getEnvAsIntOrDefault("FLOOD_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	if floodLimit <= 0 {
		return nil, fmt.Errorf("invalid FLOOD_LIMIT: must be positive")
	}

	floodWindow, err := getEnvAsDurationOrDefault("FLOOD_WINDOW", time.Hour)
	if err != nil {
		return nil, err
	}

	zadarmaTimeout, err := getEnvAsDurationOrDefault("ZADARMA_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	statusInterval, err := getEnvAsDurationOrDefault("ZADARMA_STATUS_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	tokenTTL, err := getEnvAsDurationOrDefault("SESSION_TOKEN_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	trustedProxies := splitAndTrim(getEnvOrDefault("TRUSTED_PROXIES", ""))
	for _, proxy := range trustedProxies {
		if !validProxy(proxy) {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: must be an IP or CIDR", proxy)
		}
	}

	store := strings.ToLower(getEnvOrDefault("RATE_LIMIT_STORE", RateLimitStoreMemory))
	if store != RateLimitStoreMemory && store != RateLimitStoreRedis {
		return nil, fmt.Errorf("invalid RATE_LIMIT_STORE %q: must be %q or %q", store, RateLimitStoreMemory, RateLimitStoreRedis)
	}

	return &Config{
		// Server configuration
		Port:               port,
		Environment:        getEnvOrDefault("ENVIRONMENT", "development"),
		CORSAllowedOrigins: splitAndTrim(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),
		TrustedProxies:     trustedProxies,
		LogErrorLevel:      getEnvOrDefault("LOG_ERROR_LEVEL", "hide"),

		// Redis configuration
		RedisURI:      getEnvOrDefault("REDIS_URI", "localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		// Flood control configuration
		RateLimitStore: store,
		FloodLimit:     floodLimit,
		FloodWindow:    floodWindow,

		// Zadarma API configuration
		ZadarmaAPIKey:         getEnvOrDefault("ZADARMA_API_KEY", ""),
		ZadarmaAPISecret:      getEnvOrDefault("ZADARMA_API_SECRET", ""),
		ZadarmaAPIFrom:        getEnvOrDefault("ZADARMA_API_FROM", ""),
		ZadarmaAPIPredicted:   getEnvAsBoolOrDefault("ZADARMA_API_PREDICTED", false),
		ZadarmaBaseURL:        strings.TrimRight(getEnvOrDefault("ZADARMA_BASE_URL", "https://api.zadarma.com"), "/"),
		ZadarmaTimeout:        zadarmaTimeout,
		ZadarmaStatusInterval: statusInterval,

		// Anti-forgery configuration
		CSRFEnabled:     getEnvAsBoolOrDefault("CSRF_ENABLED", true),
		SessionTokenTTL: tokenTTL,

		// Widget configuration
		WidgetConfigPath: getEnvOrDefault("WIDGET_CONFIG_PATH", ""),

		// Tracing configuration
		TracingEnabled:  getEnvAsBoolOrDefault("TRACING_ENABLED", false),
		TracingEndpoint: getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),
	}, nil
}

// ProviderConfigured reports whether both Zadarma credentials are present
func (c *Config) ProviderConfigured() bool {
	return c.ZadarmaAPIKey != "" && c.ZadarmaAPISecret != ""
}

// VerboseErrors reports whether diagnostic error logging is enabled
func (c *Config) VerboseErrors() bool {
	return strings.EqualFold(c.LogErrorLevel, "verbose")
}

// UsesRedis reports whether any component needs the Redis connection
func (c *Config) UsesRedis() bool {
	return c.RateLimitStore == RateLimitStoreRedis
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault parses an integer environment variable
func getEnvAsIntOrDefault(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// getEnvAsDurationOrDefault parses a duration environment variable
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return parsed, nil
}

// getEnvAsBoolOrDefault parses a boolean environment variable, falling back
// to the default on unparseable values
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func validProxy(proxy string) bool {
	if net.ParseIP(proxy) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(proxy)
	return err == nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
