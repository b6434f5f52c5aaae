package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"newsdesk/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("test")
	t.Cleanup(func() { observability.Tracer = prev })
	return rec
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracingMiddleware_NamesSpanAfterRoute(t *testing.T) {
	rec := recordSpans(t)

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Post("/comments/:commentId/reaction", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(5))
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/comments/42/reaction", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /comments/:commentId/reaction", spans[0].Name())

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "/comments/:commentId/reaction", attrs["http.route"].AsString())
	assert.Equal(t, int64(42), attrs["newsdesk.comment_id"].AsInt64())
	assert.Equal(t, int64(200), attrs["http.response.status_code"].AsInt64())
	assert.Equal(t, int64(5), attrs["enduser.id"].AsInt64())
	_, hasArticle := attrs["newsdesk.article_id"]
	assert.False(t, hasArticle)
}

func TestTracingMiddleware_ErrorsAndUnmatchedRoutes(t *testing.T) {
	rec := recordSpans(t)

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/articles/:articleId", func(c *fiber.Ctx) error {
		return fiber.ErrServiceUnavailable
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/articles/abc", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()

	spans := rec.Ended()
	require.Len(t, spans, 2)

	failed := spans[0]
	assert.Equal(t, "GET /articles/:articleId", failed.Name())
	assert.Equal(t, codes.Error, failed.Status().Code)
	attrs := spanAttrs(failed)
	assert.Equal(t, int64(503), attrs["http.response.status_code"].AsInt64())
	_, hasArticle := attrs["newsdesk.article_id"]
	assert.False(t, hasArticle, "non-numeric ids are not recorded")

	assert.Equal(t, "HTTP GET", spans[1].Name())
}
