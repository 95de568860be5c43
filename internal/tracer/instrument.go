package tracer

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Instrument wraps fn so each call becomes a child span under the ambient
// trace. Without an active trace the wrapped function runs unchanged. The
// wrapped function's error is recorded on the span and returned to the
// caller untouched.
func Instrument(t *Tracer, name, nodeType string, fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, span := t.StartSpan(ctx, name, nodeType)
		err := fn(ctx)
		span.End(err)
		return err
	}
}

// InstrumentFunc wraps a value-returning function the same way Instrument
// does, additionally recording the return value as the span's output data
// under the key "return_value" (subject to the configured capture level and
// sanitization).
func InstrumentFunc[T any](t *Tracer, name, nodeType string, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		ctx, span := t.StartSpan(ctx, name, nodeType)
		result, err := fn(ctx)
		if err == nil {
			span.Output(map[string]any{"return_value": result})
		}
		span.End(err)
		return result, err
	}
}

// Parallel runs the branches concurrently and waits for all of them. Each
// branch receives the forked ambient snapshot of ctx, so spans opened inside
// one branch never become parents of a sibling's spans. The first error
// cancels the group context and is returned.
func Parallel(ctx context.Context, branches ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, branch := range branches {
		g.Go(func() error { return branch(gctx) })
	}
	return g.Wait()
}
