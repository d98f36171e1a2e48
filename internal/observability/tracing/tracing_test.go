package tracing

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestSafeAttributesDropsCredentials(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/auth/login"),
		attribute.String("http.request.header.authorization", "Bearer x"),
		attribute.String("password", "hunter2"),
	)
	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorKeepsOutermostMessage(t *testing.T) {
	err := fmt.Errorf("persist session: %w", errors.New("pq: connection refused to 10.0.0.1"))
	assert.EqualError(t, SafeError(err), "persist session")
	assert.Nil(t, SafeError(nil))
}

func TestDisabledProviderDoesNotSample(t *testing.T) {
	provider, err := NewProvider(nil, Config{ServiceName: "taskflow"}, zap.NewNop())
	require.NoError(t, err)
	_, span := provider.Tracer("test").Start(t.Context(), "op")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()
}

func TestGinMiddlewareRecordsServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("store down: details"))
		c.Status(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP GET /boom", spans[0].Name())
	assert.Len(t, spans[0].Events(), 1)
}
