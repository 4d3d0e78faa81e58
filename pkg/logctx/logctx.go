// Package logctx threads a *zap.SugaredLogger through a context.Context so
// engines deep in the call graph (digest, store, wot, verify, syncrepo) can
// log without taking a logger parameter on every call.
package logctx

import (
	"context"

	"go.uber.org/zap"
)

type key struct{}

// WithLogger returns a child context carrying l.
func WithLogger(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, key{}, l)
}

// FromContext returns the logger attached to ctx, or a no-op logger if none
// was attached.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(key{}).(*zap.SugaredLogger); ok && l != nil {
		return l
	}
	return zap.NewNop().Sugar()
}

// NewDevelopment builds a development-mode logger, the same defaults the
// teacher used for its cmd/tester entrypoint (console encoding, debug level,
// stacktraces on warn+).
func NewDevelopment() (*zap.SugaredLogger, error) {
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
