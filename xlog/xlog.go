// Package xlog provides context-aware logging for toolsight.
//
// It stores a *log.Logger on a context.Context so that deeply nested
// calls (a candidate binary being verified three call frames down in
// the discovery engine, say) can log without threading a logger
// through every signature. toolsight is a local tool, so
// charmbracelet/log is the only sink.
package xlog

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

type contextKey struct{}

// discard is used when no logger has been attached to the context, so
// that library code never needs to nil-check before logging.
var discard = log.NewWithOptions(io.Discard, log.Options{})

// NewContext returns a context carrying logger.
func NewContext(ctx context.Context, logger *log.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger attached to ctx, or a discarding
// logger if none was attached.
func FromContext(ctx context.Context) *log.Logger {
	logger, ok := ctx.Value(contextKey{}).(*log.Logger)
	if !ok || logger == nil {
		return discard
	}
	return logger
}

// Infof logs at info level using the logger attached to ctx.
func Infof(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Infof(format, args...)
}

// Warnf logs at warn level using the logger attached to ctx.
func Warnf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Warnf(format, args...)
}

// Errorf logs at error level using the logger attached to ctx.
func Errorf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Errorf(format, args...)
}

// Debugf logs at debug level using the logger attached to ctx.
func Debugf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Debugf(format, args...)
}
