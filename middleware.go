package capkit

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps an Operation to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
//
// Example usage:
//
//	tracing := func(next capkit.Operation) capkit.Operation {
//	    return func(ctx context.Context, args ...any) (any, error) {
//	        inv, _ := capkit.InvocationFromContext(ctx)
//	        log.Printf("invoking %s.%s", inv.Capability, inv.Operation)
//	        return next(ctx, args...)
//	    }
//	}
type Middleware func(next Operation) Operation

// Chain applies middlewares to op so that the first middleware is outermost.
func Chain(op Operation, middlewares ...Middleware) Operation {
	for i := len(middlewares) - 1; i >= 0; i-- {
		op = middlewares[i](op)
	}
	return op
}

// PanicRecoveryMiddleware returns a middleware that converts panics raised by
// an operation into a *PanicError instead of crashing the caller.
func PanicRecoveryMiddleware() Middleware {
	return func(next Operation) Operation {
		return func(ctx context.Context, args ...any) (res any, err error) {
			defer func() {
				if r := recover(); r != nil {
					inv, _ := InvocationFromContext(ctx)
					res = nil
					err = &PanicError{Value: r, Invocation: inv}
				}
			}()
			return next(ctx, args...)
		}
	}
}

// LoggingMiddleware returns a middleware that logs every invocation with its
// capability, implementation and operation as structured attributes.
func LoggingMiddleware(logger *slog.Logger, level slog.Level) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Operation) Operation {
		return func(ctx context.Context, args ...any) (any, error) {
			inv, _ := InvocationFromContext(ctx)
			attrs := []slog.Attr{
				slog.String("capability", inv.Capability),
				slog.String("implementation", inv.Implementation),
				slog.String("operation", inv.Operation),
				slog.String("handle", inv.HandleID.String()),
			}

			start := time.Now()
			res, err := next(ctx, args...)
			attrs = append(attrs, slog.Duration("duration", time.Since(start)))

			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
				logger.LogAttrs(ctx, slog.LevelError, "capability invocation failed", attrs...)
				return res, err
			}
			logger.LogAttrs(ctx, level, "capability invoked", attrs...)
			return res, nil
		}
	}
}
