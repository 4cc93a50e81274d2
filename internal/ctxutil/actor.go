// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import (
	"context"
	"log/slog"
)

// ActorKey is the context key for the acting agent ID.
type ActorKey struct{}

type loggerKey struct{}

// WithActorID returns a context with the acting agent ID embedded.
func WithActorID(ctx context.Context, agentID string) context.Context {
	return context.WithValue(ctx, ActorKey{}, agentID)
}

// ActorFromContext returns the acting agent ID from context, or empty string if not set.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ActorKey{}).(string); ok {
		return v
	}
	return ""
}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the logger carried by ctx, or slog.Default().
func Logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// WithLogAttrs returns a context whose logger carries the given attributes.
func WithLogAttrs(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, Logger(ctx).With(args...))
}
