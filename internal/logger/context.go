package logger

import (
	"context"

	"go.uber.org/zap"
)

type requestLoggerKey struct{}

// ContextWithLogger attaches the per-request logger, already carrying the
// request id, so use cases log with the same fields as the access log.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, requestLoggerKey{}, l)
}

// FromContextOr returns the request logger, or fallback outside a request.
func FromContextOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, _ := ctx.Value(requestLoggerKey{}).(*zap.Logger); l != nil {
		return l
	}
	return fallback
}
