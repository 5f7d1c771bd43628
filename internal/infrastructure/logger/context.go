package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	// LoggerKey is the context key for the request-scoped logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for the HTTP request ID
	RequestIDKey contextKey = "request_id"
	// ImportIDKey is the context key for the active import session ID
	ImportIDKey contextKey = "import_id"
)

// WithContext stores a logger in the context
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// Lookup returns the logger stored in ctx, if any
func Lookup(ctx context.Context) (*zap.Logger, bool) {
	logger, ok := ctx.Value(LoggerKey).(*zap.Logger)
	return logger, ok
}

// WithRequestID stores the request ID and a logger carrying it
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithImportID stores the import session ID and a logger carrying it
func WithImportID(ctx context.Context, logger *zap.Logger, importID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, ImportIDKey, importID)
	enriched := logger.With(zap.String("import_id", importID))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID returns the request ID from ctx, or ""
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetImportID returns the import session ID from ctx, or ""
func GetImportID(ctx context.Context) string {
	if importID, ok := ctx.Value(ImportIDKey).(string); ok {
		return importID
	}
	return ""
}

// WithTraceContext adds trace_id and span_id fields when ctx carries a valid span
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}
