package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func tracedRouter(t *testing.T, status int) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	router := gin.New()
	router.Use(RequestID(), TracingWithConfig(TracingConfig{
		ServiceName:    "invsaas-test",
		Enabled:        true,
		TracerProvider: tp,
	}), SpanAttributes())
	router.GET("/api/v1/admin/coupons/:id", func(c *gin.Context) {
		c.Set(JWTTenantIDKey, "tenant-1")
		c.Set(JWTUserIDKey, "user-1")
		c.Status(status)
	})
	return router, sr
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTracing_SpanAttributes(t *testing.T) {
	router, sr := tracedRouter(t, http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/coupons/42", nil)
	req.Header.Set(RequestIDHeader, "req-trace-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/v1/admin/coupons/:id", spans[0].Name())

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "req-trace-1", attrs["request_id"].AsString())
	assert.Equal(t, "tenant-1", attrs["tenant_id"].AsString())
	assert.Equal(t, "user-1", attrs["user_id"].AsString())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestTracing_ClientErrorMarksSpan(t *testing.T) {
	router, sr := tracedRouter(t, http.StatusUnprocessableEntity)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/admin/coupons/42", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "Unprocessable Entity", spans[0].Status().Description)
}
