package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasapos/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records a request counter and a latency histogram per route pattern.
// Streaming routes are recorded when the stream ends.
func Metrics(meter metric.Meter) (gin.HandlerFunc, error) {
	in := telemetry.NewInstruments(meter)
	requests := in.Counter("http_server_request_total", "Total number of HTTP requests", "{request}")
	latency := in.Seconds("http_server_request_duration_seconds",
		"HTTP request latency distribution in seconds", telemetry.HTTPDurationBuckets)
	if err := in.Err(); err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.String("http.status_code", strconv.Itoa(c.Writer.Status())),
		)
		ctx := c.Request.Context()
		requests.Add(ctx, 1, attrs)
		latency.Record(ctx, time.Since(start).Seconds(), attrs)
	}, nil
}
