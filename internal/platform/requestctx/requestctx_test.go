package requestctx

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestCallerRoundTrip(t *testing.T) {
	caller := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	ctx := WithCaller(context.Background(), caller)

	got, ok := CallerFromContext(ctx)
	if !ok {
		t.Fatal("expected caller in context")
	}
	if got != caller {
		t.Fatalf("caller = %s, want %s", got, caller)
	}
}

func TestCallerMissing(t *testing.T) {
	if _, ok := CallerFromContext(context.Background()); ok {
		t.Fatal("expected no caller")
	}
	if _, ok := CallerFromContext(nil); ok {
		t.Fatal("expected no caller for nil context")
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("request id = %q, want req-1", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}
