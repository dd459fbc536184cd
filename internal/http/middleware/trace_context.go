package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/eduforge/lms-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// routeResources names the :id param of each route prefix. Longest prefix
// first so review routes are not read as lesson routes.
var routeResources = []struct {
	prefix string
	attr   string
}{
	{"/api/lessons/reviews/", "lms.draft_id"},
	{"/api/lessons/", "lms.lesson_id"},
	{"/api/assessments/", "lms.assessment_id"},
	{"/api/attempts/", "lms.attempt_id"},
	{"/api/subjects/", "lms.subject_id"},
}

// AttachTraceContext stores trace and request ids on the request context,
// echoes them as headers and tags the active span with the request id and
// the resource the route addresses.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		spanCtx := trace.SpanContextFromContext(c.Request.Context())
		traceID := strings.TrimSpace(c.GetHeader(headerTraceID))
		if traceID == "" && spanCtx.HasTraceID() {
			traceID = spanCtx.TraceID().String()
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			attrs := []attribute.KeyValue{attribute.String("lms.request_id", reqID)}
			if key, id := routeResource(c); key != "" {
				attrs = append(attrs, attribute.String(key, id))
			}
			span.SetAttributes(attrs...)
		}

		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set("trace_id", traceID)
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

// routeResource returns the span attribute for the matched route's :id, or
// "" when the route has none.
func routeResource(c *gin.Context) (string, string) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return "", ""
	}
	route := c.FullPath()
	for _, r := range routeResources {
		if strings.HasPrefix(route, r.prefix) {
			return r.attr, id
		}
	}
	return "", ""
}
