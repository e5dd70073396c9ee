package ledgerctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/louisbranch/goldtoken/internal/platform/config"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	platformgrpc "github.com/louisbranch/goldtoken/internal/platform/grpc"
	"github.com/louisbranch/goldtoken/internal/platform/timeouts"
	"github.com/louisbranch/goldtoken/internal/services/ledger/api/grpc/auth"
	ledgergrpc "github.com/louisbranch/goldtoken/internal/services/ledger/api/grpc/ledger"
	grpcmeta "github.com/louisbranch/goldtoken/internal/services/ledger/api/grpc/metadata"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Run dials the ledger and executes the configured command.
func Run(ctx context.Context, cfg Config, out io.Writer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	cmd, ok := lookup(cfg.Command)
	if !ok {
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
	if err := cmd.checkArgs(cfg.Args); err != nil {
		return err
	}
	conn, err := platformgrpc.DialWithHealth(ctx, nil, cfg.Addr, timeouts.GRPCDial, logger,
		platformgrpc.DefaultClientDialOptions()...)
	if err != nil {
		return fmt.Errorf("dial ledger %s: %w", cfg.Addr, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Warn("close ledger connection", zap.Error(err))
		}
	}()
	return Execute(ctx, ledgergrpc.NewClient(conn), cfg, out)
}

// Execute runs the configured command against client and prints the result.
func Execute(ctx context.Context, client *ledgergrpc.Client, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	cmd, ok := lookup(cfg.Command)
	if !ok {
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
	if err := cmd.checkArgs(cfg.Args); err != nil {
		return err
	}
	callCtx, callOpts, err := callContext(ctx, cfg)
	if err != nil {
		return err
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, cfg.Timeout)
		defer cancel()
	}

	s := &session{ctx: callCtx, client: client, opts: callOpts, units: units{raw: cfg.Raw}}
	if !cfg.Raw {
		info, err := client.TokenInfo(callCtx, &ledgergrpc.Empty{}, callOpts...)
		if err != nil {
			return describeError(err)
		}
		s.units.decimals = int32(info.Decimals)
	}

	res, err := cmd.run(s, cfg.Args)
	if err != nil {
		return describeError(err)
	}
	if cfg.JSONOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.raw)
	}
	for _, line := range res.lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

// callContext attaches the caller identity, request id and locale. A
// configured private key signs a caller token; otherwise the caller header
// is sent for servers running in trusted mode.
func callContext(ctx context.Context, cfg Config) (context.Context, []grpc.CallOption, error) {
	var opts []grpc.CallOption
	if caller := strings.TrimSpace(cfg.Caller); caller != "" {
		account, err := address.Parse(caller)
		if err != nil {
			return nil, nil, fmt.Errorf("-as: %w", err)
		}
		if key := strings.TrimSpace(cfg.PrivateKey); key != "" {
			raw, err := auth.DecodeKey(key)
			if err != nil {
				return nil, nil, fmt.Errorf("decode caller token key: %w", err)
			}
			token, err := auth.Signer{Issuer: cfg.Issuer, Audience: cfg.Audience, Key: raw, Now: time.Now}.Sign(account)
			if err != nil {
				return nil, nil, err
			}
			opts = append(opts, grpc.PerRPCCredentials(platformgrpc.BearerToken(token)))
		} else {
			ctx = grpcmeta.WithOutgoingCaller(ctx, account)
		}
	}
	if id := strings.TrimSpace(cfg.RequestID); id != "" {
		ctx = grpcmeta.WithOutgoingRequestID(ctx, id)
	}
	if locale := strings.TrimSpace(cfg.Locale); locale != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, grpcmeta.LocaleHeader, locale)
	}
	return ctx, opts, nil
}

// describeError prefers the server's localized message and appends the
// domain reason.
func describeError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	message := st.Message()
	for _, detail := range st.Details() {
		if localized, ok := detail.(*errdetails.LocalizedMessage); ok && localized.GetMessage() != "" {
			message = localized.GetMessage()
		}
	}
	if domainErr, ok := apperrors.FromGRPCStatus(err); ok {
		return fmt.Errorf("%s (%s)", message, domainErr.Code)
	}
	return fmt.Errorf("%s (%s)", message, st.Code())
}

// Exit reports err the way every goldtoken binary does.
func Exit(err error) {
	var usage *usageError
	if errors.As(err, &usage) {
		config.Exitf("Error: %v\nusage: ledgerctl [flags] %s %s", err, usage.cmd.name, usage.cmd.usage)
	}
	config.Exitf("Error: %v", err)
}
