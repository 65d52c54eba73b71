package log

import "context"

// loggerKey is the key for the logger in the context.
type loggerKey struct{}

// ToContext returns a new context with the given logger attached.
func ToContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger attached to ctx, or nil if none was attached.
func FromContext(ctx context.Context) Logger {
	logger, ok := ctx.Value(loggerKey{}).(Logger)
	if !ok {
		return nil
	}

	return logger
}

// FromContextOrNoop returns the logger attached to ctx, or a no-op logger if
// none was attached. Every entry point in this module that accepts a context
// should use this instead of FromContext so call sites never need a nil check.
func FromContextOrNoop(ctx context.Context) Logger {
	if logger := FromContext(ctx); logger != nil {
		return logger
	}

	return &noopLogger{}
}
