// Package metadata defines the headers that carry request correlation and
// caller identity across gRPC boundaries.
package metadata

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/louisbranch/goldtoken/internal/platform/id"
	"github.com/louisbranch/goldtoken/internal/platform/requestctx"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	// RequestIDHeader is the gRPC metadata key for request correlation ids.
	RequestIDHeader = "x-goldtoken-request-id"
	// CallerHeader names the calling account when the execution environment
	// has already authenticated it.
	CallerHeader = "x-goldtoken-caller"
	// LocaleHeader selects the language of user-facing error messages.
	LocaleHeader = "accept-language"
)

// IsPrintableASCII reports whether a string contains only printable ASCII characters.
func IsPrintableASCII(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return false
		}
	}
	return true
}

// FirstMetadataValue returns the first printable ASCII metadata value for a key.
func FirstMetadataValue(md metadata.MD, key string) string {
	for mdKey, values := range md {
		if !strings.EqualFold(mdKey, key) {
			continue
		}
		for _, value := range values {
			if IsPrintableASCII(value) {
				return value
			}
		}
	}
	return ""
}

// IncomingValue returns the first printable value of header on an inbound call.
func IncomingValue(ctx context.Context, header string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	return FirstMetadataValue(md, header)
}

// CallerFromIncoming parses the caller header. ok is false when the header
// is absent.
func CallerFromIncoming(ctx context.Context) (caller common.Address, ok bool, err error) {
	raw := IncomingValue(ctx, CallerHeader)
	if raw == "" {
		return common.Address{}, false, nil
	}
	caller, err = address.Parse(raw)
	if err != nil {
		return common.Address{}, true, err
	}
	return caller, true, nil
}

// WithOutgoingCaller attaches the caller header to an outbound call.
func WithOutgoingCaller(ctx context.Context, caller common.Address) context.Context {
	return metadata.AppendToOutgoingContext(ctx, CallerHeader, address.Key(caller))
}

// WithOutgoingRequestID attaches a request id to an outbound call.
func WithOutgoingRequestID(ctx context.Context, requestID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, RequestIDHeader, requestID)
}

// UnaryServerInterceptor guarantees every inbound call carries a request id,
// generating one when the client sent none, and echoes it in the response
// headers.
func UnaryServerInterceptor(idGenerator func() (string, error)) grpc.UnaryServerInterceptor {
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := IncomingValue(ctx, RequestIDHeader)
		if requestID == "" {
			generated, err := idGenerator()
			if err != nil {
				return nil, status.Errorf(codes.Internal, "generate request id: %v", err)
			}
			requestID = generated
		}
		ctx = requestctx.WithRequestID(ctx, requestID)
		if err := grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID)); err != nil {
			return nil, status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		return handler(ctx, req)
	}
}
