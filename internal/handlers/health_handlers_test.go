package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/redisclient"
	"github.com/prefeitura-rio/app-callback/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeHealth(t *testing.T, body []byte) HealthResponse {
	t.Helper()
	var health HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	return health
}

func TestHealthCheck_WithoutRedis(t *testing.T) {
	app := newTestApp(t, testAppOptions{})

	w := app.do("GET", "/health", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	health := decodeHealth(t, w.Body.Bytes())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "not_configured", health.Services["zadarma"])
	assert.NotContains(t, health.Services, "redis")
}

func TestHealthCheck_ProviderStatus(t *testing.T) {
	app := newTestApp(t, testAppOptions{zadarma: zadarmaStub(`{"status":"success"}`)})

	w := app.do("GET", "/health", nil, nil)
	assert.Equal(t, "disconnected", decodeHealth(t, w.Body.Bytes()).Services["zadarma"])

	app.connect(t)
	w = app.do("GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "connected", decodeHealth(t, w.Body.Bytes()).Services["zadarma"])
}

func TestHealthCheck_RedisDown(t *testing.T) {
	client := redisclient.NewClient(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	}))
	defer client.Close()

	monitor := services.NewConnectionMonitor(nil, nil, time.Minute, logging.Logger)
	router := gin.New()
	router.GET("/health", NewHealthHandlers(client, monitor).HealthCheck)

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	health := decodeHealth(t, w.Body.Bytes())
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "unhealthy", health.Services["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, testAppOptions{})
	app.postPhone("+380971234567")

	w := app.do("GET", "/metrics", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "app_callback_requests_total")
}
