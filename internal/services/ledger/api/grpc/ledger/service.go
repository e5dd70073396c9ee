// Package ledger implements the goldtoken.ledger.v1.LedgerService gRPC API
// over a ledger state machine.
package ledger

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/platform/requestctx"
	grpcmeta "github.com/louisbranch/goldtoken/internal/services/ledger/api/grpc/metadata"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	ledgerdomain "github.com/louisbranch/goldtoken/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage"
	"go.uber.org/zap"
	"google.golang.org/grpc/status"
)

// IntegrityVerifier re-checks the journal hash chain and signatures.
type IntegrityVerifier interface {
	VerifyEventIntegrity(ctx context.Context) error
}

// Option configures a Service.
type Option func(*Service)

// WithTraceStore enables AIP-160 filters on QueryTrace.
func WithTraceStore(store storage.TraceStore) Option {
	return func(s *Service) { s.traces = store }
}

// WithIntegrityVerifier lets VerifyLedger walk the durable journal.
func WithIntegrityVerifier(verifier IntegrityVerifier) Option {
	return func(s *Service) { s.verifier = verifier }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service implements LedgerServiceServer.
type Service struct {
	ledger   *ledgerdomain.Ledger
	traces   storage.TraceStore
	verifier IntegrityVerifier
	logger   *zap.Logger
}

// NewService creates a Service backed by l.
func NewService(l *ledgerdomain.Ledger, opts ...Option) *Service {
	s := &Service{ledger: l, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ LedgerServiceServer = (*Service)(nil)

func (s *Service) Transfer(ctx context.Context, in *TransferRequest) (*CommandResponse, error) {
	return s.command(ctx, func(caller common.Address) ([]event.Event, error) {
		to, err := parseAccount("to", in.To)
		if err != nil {
			return nil, err
		}
		amt, err := amount.Parse(in.Amount)
		if err != nil {
			return nil, err
		}
		return s.ledger.Transfer(ctx, caller, to, amt)
	})
}

func (s *Service) TransferFrom(ctx context.Context, in *TransferFromRequest) (*CommandResponse, error) {
	return s.command(ctx, func(caller common.Address) ([]event.Event, error) {
		from, err := parseAccount("from", in.From)
		if err != nil {
			return nil, err
		}
		to, err := parseAccount("to", in.To)
		if err != nil {
			return nil, err
		}
		amt, err := amount.Parse(in.Amount)
		if err != nil {
			return nil, err
		}
		return s.ledger.TransferFrom(ctx, caller, from, to, amt)
	})
}

type allowanceOp func(ctx context.Context, caller, spender common.Address, amt amount.Amount) ([]event.Event, error)

func (s *Service) allowance(ctx context.Context, in *AllowanceRequest, op allowanceOp) (*CommandResponse, error) {
	return s.command(ctx, func(caller common.Address) ([]event.Event, error) {
		spender, err := parseAccount("spender", in.Spender)
		if err != nil {
			return nil, err
		}
		amt, err := amount.Parse(in.Amount)
		if err != nil {
			return nil, err
		}
		return op(ctx, caller, spender, amt)
	})
}

func (s *Service) Approve(ctx context.Context, in *AllowanceRequest) (*CommandResponse, error) {
	return s.allowance(ctx, in, s.ledger.Approve)
}

func (s *Service) IncreaseAllowance(ctx context.Context, in *AllowanceRequest) (*CommandResponse, error) {
	return s.allowance(ctx, in, s.ledger.IncreaseAllowance)
}

func (s *Service) DecreaseAllowance(ctx context.Context, in *AllowanceRequest) (*CommandResponse, error) {
	return s.allowance(ctx, in, s.ledger.DecreaseAllowance)
}

func (s *Service) Mint(ctx context.Context, in *MintRequest) (*CommandResponse, error) {
	return s.command(ctx, func(caller common.Address) ([]event.Event, error) {
		to, err := parseAccount("to", in.To)
		if err != nil {
			return nil, err
		}
		amt, err := amount.Parse(in.Amount)
		if err != nil {
			return nil, err
		}
		return s.ledger.Mint(ctx, caller, to, amt)
	})
}

// Burn burns the caller's balance. A non-empty reference selects
// burnWithReference.
func (s *Service) Burn(ctx context.Context, in *BurnRequest) (*CommandResponse, error) {
	return s.command(ctx, func(caller common.Address) ([]event.Event, error) {
		amt, err := amount.Parse(in.Amount)
		if err != nil {
			return nil, err
		}
		if in.Reference != "" {
			return s.ledger.BurnWithReference(ctx, caller, amt, in.Reference)
		}
		return s.ledger.Burn(ctx, caller, amt)
	})
}

func (s *Service) Reclaim(ctx context.Context, _ *Empty) (*CommandResponse, error) {
	return s.command(ctx, func(caller common.Address) ([]event.Event, error) {
		return s.ledger.Reclaim(ctx, caller)
	})
}

type accountOp func(ctx context.Context, caller, account common.Address) ([]event.Event, error)

func (s *Service) account(ctx context.Context, in *AccountRequest, op accountOp) (*CommandResponse, error) {
	return s.command(ctx, func(caller common.Address) ([]event.Event, error) {
		account, err := address.Parse(in.Account)
		if err != nil {
			return nil, err
		}
		return op(ctx, caller, account)
	})
}

func (s *Service) ProposeOwner(ctx context.Context, in *AccountRequest) (*CommandResponse, error) {
	return s.account(ctx, in, s.ledger.ProposeOwner)
}

func (s *Service) SetSystemWallet(ctx context.Context, in *AccountRequest) (*CommandResponse, error) {
	return s.account(ctx, in, s.ledger.SetSystemWallet)
}

func (s *Service) AddMinter(ctx context.Context, in *AccountRequest) (*CommandResponse, error) {
	return s.account(ctx, in, s.ledger.AddMinter)
}

func (s *Service) RemoveMinter(ctx context.Context, in *AccountRequest) (*CommandResponse, error) {
	return s.account(ctx, in, s.ledger.RemoveMinter)
}

func (s *Service) SetComplianceAuthority(ctx context.Context, in *AccountRequest) (*CommandResponse, error) {
	return s.account(ctx, in, s.ledger.SetComplianceAuthority)
}

func (s *Service) ApproveSuccessor(ctx context.Context, in *AccountRequest) (*CommandResponse, error) {
	return s.account(ctx, in, s.ledger.ApproveSuccessor)
}

type callerOp func(ctx context.Context, caller common.Address) ([]event.Event, error)

func (s *Service) callerOnly(ctx context.Context, op callerOp) (*CommandResponse, error) {
	return s.command(ctx, func(caller common.Address) ([]event.Event, error) {
		return op(ctx, caller)
	})
}

func (s *Service) AcceptOwnership(ctx context.Context, _ *Empty) (*CommandResponse, error) {
	return s.callerOnly(ctx, s.ledger.AcceptOwnership)
}

func (s *Service) RevokeProposal(ctx context.Context, _ *Empty) (*CommandResponse, error) {
	return s.callerOnly(ctx, s.ledger.RevokeProposal)
}

func (s *Service) Pause(ctx context.Context, _ *Empty) (*CommandResponse, error) {
	return s.callerOnly(ctx, s.ledger.Pause)
}

func (s *Service) Unpause(ctx context.Context, _ *Empty) (*CommandResponse, error) {
	return s.callerOnly(ctx, s.ledger.Unpause)
}

func (s *Service) DelegateLedger(ctx context.Context, _ *Empty) (*CommandResponse, error) {
	return s.callerOnly(ctx, s.ledger.DelegateLedger)
}

func (s *Service) SetComplianceStatus(ctx context.Context, in *SetComplianceStatusRequest) (*CommandResponse, error) {
	return s.command(ctx, func(caller common.Address) ([]event.Event, error) {
		account, err := address.Parse(in.Account)
		if err != nil {
			return nil, err
		}
		st, err := parseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		return s.ledger.SetComplianceStatus(ctx, caller, account, st)
	})
}

func (s *Service) SetFeeSchedule(ctx context.Context, in *SetFeeScheduleRequest) (*CommandResponse, error) {
	return s.command(ctx, func(caller common.Address) ([]event.Event, error) {
		schedule, err := feeScheduleFromMessage(in.Schedule)
		if err != nil {
			return nil, err
		}
		return s.ledger.SetFeeSchedule(ctx, caller, schedule, applicabilityFromMessage(in.Applicability))
	})
}

func (s *Service) ChangeTokenName(ctx context.Context, in *ChangeTokenNameRequest) (*CommandResponse, error) {
	return s.command(ctx, func(caller common.Address) ([]event.Event, error) {
		return s.ledger.ChangeTokenName(ctx, caller, in.Name, in.Symbol)
	})
}

func (s *Service) SetPublicDocument(ctx context.Context, in *TextRequest) (*CommandResponse, error) {
	return s.command(ctx, func(caller common.Address) ([]event.Event, error) {
		return s.ledger.SetPublicDocument(ctx, caller, in.Text)
	})
}

func (s *Service) SetContactInformation(ctx context.Context, in *TextRequest) (*CommandResponse, error) {
	return s.command(ctx, func(caller common.Address) ([]event.Event, error) {
		return s.ledger.SetContactInformation(ctx, caller, in.Text)
	})
}

func (s *Service) DelegateBalance(ctx context.Context, in *DelegateBalanceRequest) (*CommandResponse, error) {
	return s.command(ctx, func(caller common.Address) ([]event.Event, error) {
		account, err := parseAccount("account", in.Account)
		if err != nil {
			return nil, err
		}
		amt, err := amount.Parse(in.Amount)
		if err != nil {
			return nil, err
		}
		successor, err := parseAccount("successor", in.Successor)
		if err != nil {
			return nil, err
		}
		return s.ledger.DelegateBalance(ctx, caller, account, amt, successor)
	})
}

// command resolves the caller, runs fn and converts its outcome.
func (s *Service) command(ctx context.Context, fn func(caller common.Address) ([]event.Event, error)) (*CommandResponse, error) {
	caller, ok := requestctx.CallerFromContext(ctx)
	if !ok || address.IsZero(caller) {
		return nil, s.fail(ctx, apperrors.New(apperrors.CodeUnauthenticated, "caller identity is required"))
	}
	events, err := fn(caller)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	resp := &CommandResponse{Events: make([]Event, 0, len(events))}
	for _, evt := range events {
		resp.Events = append(resp.Events, eventToMessage(evt))
	}
	return resp, nil
}

// fail renders err for the client. Errors outside the domain taxonomy are
// logged since the client only sees a generic message.
func (s *Service) fail(ctx context.Context, err error) error {
	if apperrors.CodeOf(err) == apperrors.CodeUnknown {
		if _, isStatus := status.FromError(err); !isStatus {
			s.logger.Error("ledger request failed",
				zap.String("request_id", requestctx.RequestIDFromContext(ctx)),
				zap.Error(err))
		}
	}
	return apperrors.HandleError(err, grpcmeta.IncomingValue(ctx, grpcmeta.LocaleHeader))
}

// parseAccount parses a non-zero address.
func parseAccount(field, raw string) (common.Address, error) {
	addr, err := address.Parse(raw)
	if err != nil {
		return common.Address{}, err
	}
	if err := address.RequireNonZero(field, addr); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// parseOptionalAmount treats an empty string as zero.
func parseOptionalAmount(raw string) (amount.Amount, error) {
	if strings.TrimSpace(raw) == "" {
		return amount.Zero(), nil
	}
	return amount.Parse(raw)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func eventToMessage(evt event.Event) Event {
	payload := json.RawMessage(evt.PayloadJSON)
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return Event{
		Seq:         evt.Seq,
		Type:        string(evt.Type),
		Timestamp:   formatTime(evt.Timestamp),
		ActorID:     evt.ActorID,
		RequestID:   evt.RequestID,
		CommandType: evt.CommandType,
		Payload:     payload,
		ChainHash:   evt.ChainHash,
	}
}
