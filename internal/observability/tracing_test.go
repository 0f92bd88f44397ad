package observability

import (
	"os"
	"testing"

	"github.com/prefeitura-rio/app-callback/internal/config"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
)

func TestInitTracer_Disabled(t *testing.T) {
	InitTracer(&config.Config{TracingEnabled: false})
	assert.Nil(t, tracerProvider)

	InitTracer(nil)
	assert.Nil(t, tracerProvider)
}

func TestInitTracer_Enabled(t *testing.T) {
	defer ShutdownTracer()

	// The exporter connects lazily, so an unreachable endpoint still
	// yields a provider
	InitTracer(&config.Config{
		TracingEnabled:  true,
		TracingEndpoint: "127.0.0.1:1",
		Environment:     "test",
	})

	assert.NotNil(t, tracerProvider)
	assert.Equal(t, tracerProvider, otel.GetTracerProvider())
}

func TestShutdownTracer_NilProvider(t *testing.T) {
	tracerProvider = nil
	ShutdownTracer()
	assert.Nil(t, tracerProvider)
}

func TestShutdownTracer_ResetsProvider(t *testing.T) {
	InitTracer(&config.Config{TracingEnabled: true, TracingEndpoint: "127.0.0.1:1"})
	ShutdownTracer()

	assert.Nil(t, tracerProvider)
}

func TestTracingIntegration(t *testing.T) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping tracing integration test: no OTLP endpoint configured")
	}

	InitTracer(&config.Config{TracingEnabled: true, TracingEndpoint: endpoint})
	assert.NotNil(t, tracerProvider)
	ShutdownTracer()
}
