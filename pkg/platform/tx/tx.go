package tx

import (
	"context"
)

type ctxKey[T any] struct{}

// WithTx stores an open unit of work in context so nested calls join it
// instead of starting their own.
func WithTx[T any](ctx context.Context, tx T) context.Context {
	return context.WithValue(ctx, ctxKey[T]{}, tx)
}

// From extracts an open unit of work of type T from context if present.
func From[T any](ctx context.Context) (T, bool) {
	tx, ok := ctx.Value(ctxKey[T]{}).(T)
	return tx, ok
}
