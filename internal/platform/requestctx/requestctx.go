// Package requestctx carries per-request identity through context.
package requestctx

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

type callerContextKey struct{}

type requestIDContextKey struct{}

// WithCaller stores the authenticated caller address in context.
func WithCaller(ctx context.Context, caller common.Address) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext returns the caller address stored in context. The
// second result is false when no caller was attached.
func CallerFromContext(ctx context.Context) (common.Address, bool) {
	if ctx == nil {
		return common.Address{}, false
	}
	caller, ok := ctx.Value(callerContextKey{}).(common.Address)
	return caller, ok
}

// WithRequestID stores a request identifier in context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFromContext returns the request identifier stored in context.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDContextKey{}).(string)
	return value
}
