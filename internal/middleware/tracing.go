package middleware

import (
	"errors"
	"strconv"

	"newsdesk/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Route parameters recorded on request spans, keyed by span attribute.
var tracedParams = map[string]string{
	"articleId": "newsdesk.article_id",
	"commentId": "newsdesk.comment_id",
	"blockId":   "newsdesk.block_id",
}

// TracingMiddleware opens a server span per request. The span is renamed to
// the matched route pattern once routing is done, so /articles/7 and
// /articles/8 aggregate under "GET /articles/:articleId".
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx, "HTTP "+c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Method()),
				attribute.String("url.path", c.Path()),
				attribute.String("client.address", c.IP()),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		if requestID, ok := c.Locals("requestid").(string); ok && requestID != "" {
			span.SetAttributes(attribute.String("request.id", requestID))
		}
		c.SetUserContext(ctx)

		err := c.Next()

		annotateRoute(c, span)

		status := c.Response().StatusCode()
		if err != nil {
			// The app error handler writes the response after the chain unwinds.
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if userID, ok := c.Locals("userID").(uint); ok && userID != 0 {
			span.SetAttributes(attribute.Int64("enduser.id", int64(userID)))
		}
		if err != nil {
			span.RecordError(err)
		}
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, strconv.Itoa(status))
		}

		return err
	}
}

// annotateRoute names the span after the matched route and records the
// content ids it addresses. Unmatched requests keep the generic name.
func annotateRoute(c *fiber.Ctx, span trace.Span) {
	route := c.Route()
	if route == nil || route.Path == "" || (route.Path == "/" && c.Path() != "/") {
		return
	}
	span.SetName(c.Method() + " " + route.Path)
	span.SetAttributes(attribute.String("http.route", route.Path))

	for _, param := range route.Params {
		key, ok := tracedParams[param]
		if !ok {
			continue
		}
		if id, err := strconv.ParseUint(c.Params(param), 10, 32); err == nil {
			span.SetAttributes(attribute.Int64(key, int64(id)))
		}
	}
}
