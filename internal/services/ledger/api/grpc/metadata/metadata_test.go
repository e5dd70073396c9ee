package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/goldtoken/internal/platform/requestctx"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestIsPrintableASCII(t *testing.T) {
	tests := map[string]bool{
		"":       false,
		"req-1":  true,
		"line\n": false,
		"\x7f":   false,
		"café":   false,
	}
	for value, want := range tests {
		if got := IsPrintableASCII(value); got != want {
			t.Fatalf("IsPrintableASCII(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestFirstMetadataValueSkipsControlCharacters(t *testing.T) {
	md := metadata.MD{"X-Goldtoken-Request-Id": {"\n", "req-1"}}
	if got := FirstMetadataValue(md, RequestIDHeader); got != "req-1" {
		t.Fatalf("value = %q, want req-1", got)
	}
	if FirstMetadataValue(metadata.MD{}, RequestIDHeader) != "" {
		t.Fatal("expected empty value for empty metadata")
	}
}

func TestCallerFromIncoming(t *testing.T) {
	if _, ok, err := CallerFromIncoming(context.Background()); ok || err != nil {
		t.Fatalf("no metadata: ok=%v err=%v", ok, err)
	}

	want := address.MustParse("0x00000000000000000000000000000000000000a1")
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(CallerHeader, "0x00000000000000000000000000000000000000A1"))
	got, ok, err := CallerFromIncoming(ctx)
	if err != nil || !ok || got != want {
		t.Fatalf("caller = %s ok=%v err=%v", got, ok, err)
	}

	bad := metadata.NewIncomingContext(context.Background(), metadata.Pairs(CallerHeader, "alice"))
	if _, ok, err := CallerFromIncoming(bad); !ok || err == nil {
		t.Fatalf("malformed caller: ok=%v err=%v", ok, err)
	}
}

type headerStream struct {
	grpc.ServerTransportStream
	header metadata.MD
}

func (s *headerStream) Method() string { return "/test" }

func (s *headerStream) SetHeader(md metadata.MD) error {
	s.header = metadata.Join(s.header, md)
	return nil
}

func TestUnaryServerInterceptor(t *testing.T) {
	tests := []struct {
		name     string
		incoming metadata.MD
		want     string
	}{
		{name: "generated", want: "gen-1"},
		{name: "propagated", incoming: metadata.Pairs(RequestIDHeader, "req-9"), want: "req-9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := &headerStream{}
			ctx := grpc.NewContextWithServerTransportStream(context.Background(), stream)
			if tt.incoming != nil {
				ctx = metadata.NewIncomingContext(ctx, tt.incoming)
			}
			interceptor := UnaryServerInterceptor(func() (string, error) { return "gen-1", nil })
			var seen string
			_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
				seen = requestctx.RequestIDFromContext(ctx)
				return nil, nil
			})
			if err != nil {
				t.Fatalf("interceptor: %v", err)
			}
			if seen != tt.want {
				t.Fatalf("request id = %q, want %q", seen, tt.want)
			}
			if got := FirstMetadataValue(stream.header, RequestIDHeader); got != tt.want {
				t.Fatalf("response header = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnaryServerInterceptorGeneratorFailure(t *testing.T) {
	interceptor := UnaryServerInterceptor(func() (string, error) { return "", errors.New("entropy") })
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler must not run")
		return nil, nil
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("code = %s, want Internal", status.Code(err))
	}
}
