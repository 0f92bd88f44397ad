package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsExist(t *testing.T) {
	assert.NotNil(t, RequestDuration)
	assert.NotNil(t, ActiveConnections)
	assert.NotNil(t, CallbackRequests)
	assert.NotNil(t, ProviderDuration)
	assert.NotNil(t, FloodDecisions)
	assert.NotNil(t, ProviderConnected)
	assert.NotNil(t, SessionTokens)
}

func TestCallbackRequests(t *testing.T) {
	counter := CallbackRequests.WithLabelValues("rate_limited")
	before := testutil.ToFloat64(counter)

	counter.Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestFloodDecisions(t *testing.T) {
	allowed := FloodDecisions.WithLabelValues("test.event", "allowed")
	blocked := FloodDecisions.WithLabelValues("test.event", "blocked")

	allowed.Inc()
	allowed.Inc()
	blocked.Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(allowed))
	assert.Equal(t, float64(1), testutil.ToFloat64(blocked))
}

func TestProviderConnected(t *testing.T) {
	ProviderConnected.Set(1)
	assert.Equal(t, float64(1), testutil.ToFloat64(ProviderConnected))

	ProviderConnected.Set(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(ProviderConnected))
}

func TestHistograms(t *testing.T) {
	RequestDuration.WithLabelValues("/api/kp_zadarma/callback", "POST", "200").Observe(0.05)
	ProviderDuration.WithLabelValues("callback", "success").Observe(0.3)

	assert.GreaterOrEqual(t, testutil.CollectAndCount(RequestDuration), 1)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(ProviderDuration), 1)
}
