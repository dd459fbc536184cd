package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/eduforge/lms-backend/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/x", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.NotNil(t, seen)
	require.Equal(t, "req-123", seen.RequestID)
	require.NotEmpty(t, seen.TraceID)
	require.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
	require.Equal(t, seen.TraceID, rec.Header().Get("X-Trace-Id"))
}

func TestAttachTraceContextTagsSpanWithRouteResource(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	r := gin.New()
	r.Use(otelgin.Middleware("lms-test", otelgin.WithTracerProvider(tp)))
	r.Use(AttachTraceContext())
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/api/lessons/reviews/:id", ok)
	r.GET("/api/lessons/:id", ok)
	r.GET("/api/attempts/:id", ok)
	r.GET("/healthz", ok)

	cases := []struct {
		path string
		key  string
		want string
	}{
		{"/api/lessons/reviews/draft-1", "lms.draft_id", "draft-1"},
		{"/api/lessons/lesson-7", "lms.lesson_id", "lesson-7"},
		{"/api/attempts/att-3", "lms.attempt_id", "att-3"},
		{"/healthz", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			exporter.Reset()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Header.Set("X-Request-Id", "req-9")
			r.ServeHTTP(httptest.NewRecorder(), req)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			attrs := map[attribute.Key]string{}
			for _, kv := range spans[0].Attributes {
				attrs[kv.Key] = kv.Value.Emit()
			}
			require.Equal(t, "req-9", attrs["lms.request_id"])
			for _, k := range []attribute.Key{"lms.draft_id", "lms.lesson_id", "lms.attempt_id"} {
				if string(k) == tc.key {
					require.Equal(t, tc.want, attrs[k])
				} else {
					require.NotContains(t, attrs, k)
				}
			}
		})
	}
}
