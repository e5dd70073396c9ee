package ledger

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/platform/grpc/pagination"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/compliance"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/fees"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/migration"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/trace"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage/filter"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

var pageSizes = pagination.PageSizeConfig{Default: defaultPageSize, Max: maxPageSize}

func (s *Service) BalanceOf(ctx context.Context, in *AccountRequest) (*AmountResponse, error) {
	account, err := address.Parse(in.Account)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &AmountResponse{Amount: s.ledger.BalanceOf(account).String()}, nil
}

func (s *Service) Allowance(ctx context.Context, in *AllowanceQuery) (*AmountResponse, error) {
	owner, err := address.Parse(in.Owner)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	spender, err := address.Parse(in.Spender)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &AmountResponse{Amount: s.ledger.Allowance(owner, spender).String()}, nil
}

func (s *Service) TotalSupply(ctx context.Context, _ *Empty) (*TotalSupplyResponse, error) {
	resp := &TotalSupplyResponse{TotalSupply: s.ledger.TotalSupply().String()}
	if ceiling, ok := s.ledger.SupplyCeiling(); ok {
		resp.Ceiling = ceiling.String()
	}
	return resp, nil
}

func (s *Service) TokenInfo(ctx context.Context, _ *Empty) (*TokenInfoResponse, error) {
	info := s.ledger.TokenInfo()
	return &TokenInfoResponse{
		Name:               info.Name,
		Symbol:             info.Symbol,
		Decimals:           info.Decimals,
		PublicDocument:     info.PublicDocument,
		ContactInformation: info.ContactInformation,
		LedgerAddress:      address.Key(info.LedgerAddress),
	}, nil
}

func (s *Service) Roles(ctx context.Context, _ *Empty) (*RolesResponse, error) {
	resp := &RolesResponse{
		Owner:               address.Key(s.ledger.Owner()),
		SystemWallet:        address.Key(s.ledger.SystemWallet()),
		ComplianceAuthority: address.Key(s.ledger.ComplianceAuthority()),
		Minters:             []string{},
	}
	if pending, ok := s.ledger.PendingOwner(); ok {
		resp.PendingOwner = address.Key(pending)
	}
	for _, minter := range s.ledger.Minters() {
		resp.Minters = append(resp.Minters, address.Key(minter))
	}
	return resp, nil
}

func (s *Service) Lifecycle(ctx context.Context, _ *Empty) (*LifecycleResponse, error) {
	resp := &LifecycleResponse{
		State:     string(s.ledger.Lifecycle()),
		Paused:    s.ledger.Paused(),
		Delegated: s.ledger.Delegated(),
		LastSeq:   s.ledger.LastSeq(),
	}
	if successor, ok := s.ledger.ApprovedSuccessor(); ok {
		resp.ApprovedSuccessor = address.Key(successor)
	}
	return resp, nil
}

func (s *Service) ComplianceStatus(ctx context.Context, in *AccountRequest) (*ComplianceStatusResponse, error) {
	account, err := address.Parse(in.Account)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &ComplianceStatusResponse{
		Account: address.Key(account),
		Status:  string(s.ledger.ComplianceStatus(account)),
	}, nil
}

func (s *Service) CheckTransferEligible(ctx context.Context, in *EligibilityRequest) (*EligibilityResponse, error) {
	from, err := address.Parse(in.From)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	to, err := address.Parse(in.To)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	err = s.ledger.CheckTransferEligible(from, to)
	if err == nil {
		return &EligibilityResponse{Eligible: true}, nil
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeNotEligible {
		return nil, s.fail(ctx, err)
	}
	return &EligibilityResponse{Eligible: false, Side: appErr.Metadata["side"]}, nil
}

func (s *Service) ComputeFee(ctx context.Context, in *ComputeFeeRequest) (*ComputeFeeResponse, error) {
	gross, err := amount.Parse(in.Amount)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	net, fee, err := s.ledger.ComputeFee(gross)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &ComputeFeeResponse{Net: net.String(), Fee: fee.String()}, nil
}

func (s *Service) FeeSchedule(ctx context.Context, _ *Empty) (*FeeScheduleResponse, error) {
	schedule, applicability := s.ledger.FeeSchedule()
	return &FeeScheduleResponse{
		Schedule:      feeScheduleToMessage(schedule),
		Applicability: FeeApplicability(applicability),
	}, nil
}

// QueryTrace pages through trace records. Filters need a durable trace
// store; unfiltered queries read the in-memory log.
func (s *Service) QueryTrace(ctx context.Context, in *QueryTraceRequest) (*QueryTraceResponse, error) {
	var account common.Address
	if strings.TrimSpace(in.Account) != "" {
		parsed, err := address.Parse(in.Account)
		if err != nil {
			return nil, s.fail(ctx, err)
		}
		account = parsed
	}
	after, err := pagination.DecodeSeqToken(in.PageToken)
	if err != nil {
		return nil, s.fail(ctx, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid page token", err))
	}
	from := in.FromSeq
	if after >= from {
		from = after + 1
	}
	pageSize := pagination.ClampPageSize(in.PageSize, pageSizes)
	to := trace.Latest
	if in.ToSeq != nil {
		to = *in.ToSeq
	}

	var records []trace.Record
	if strings.TrimSpace(in.Filter) != "" {
		if s.traces == nil {
			return nil, s.fail(ctx, apperrors.New(apperrors.CodeInvalidArgument, "trace filters require a durable journal"))
		}
		if _, err := filter.ParseTraceFilter(in.Filter); err != nil {
			return nil, s.fail(ctx, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid filter: "+err.Error(), err))
		}
		records, err = s.traces.QueryTrace(ctx, storage.TraceQuery{
			Account: account,
			FromSeq: from,
			ToSeq:   to,
			Filter:  in.Filter,
			Limit:   pageSize + 1,
		})
		if err != nil {
			return nil, s.fail(ctx, err)
		}
	} else {
		seq := s.ledger.Records(from, to)
		if !address.IsZero(account) {
			seq = s.ledger.Query(account, from, to)
		}
		for rec := range seq {
			records = append(records, rec)
			if len(records) > pageSize {
				break
			}
		}
	}

	resp := &QueryTraceResponse{Records: make([]TraceRecord, 0, min(len(records), pageSize))}
	if len(records) > pageSize {
		records = records[:pageSize]
		resp.NextPageToken = pagination.EncodeSeqToken(records[len(records)-1].Seq)
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, traceRecordToMessage(rec))
	}
	return resp, nil
}

func (s *Service) GetTraceRecord(ctx context.Context, in *GetTraceRecordRequest) (*TraceRecord, error) {
	rec, ok := s.ledger.Record(in.Seq)
	if !ok {
		return nil, s.fail(ctx, apperrors.WithMetadata(apperrors.CodeNotFound, "no trace record at sequence",
			map[string]string{"seq": strconv.FormatUint(in.Seq, 10)}))
	}
	msg := traceRecordToMessage(rec)
	return &msg, nil
}

// ListMigrations lists the migration records of an account, or every
// record when the account is empty.
func (s *Service) ListMigrations(ctx context.Context, in *AccountRequest) (*ListMigrationsResponse, error) {
	var account common.Address
	if strings.TrimSpace(in.Account) != "" {
		parsed, err := address.Parse(in.Account)
		if err != nil {
			return nil, s.fail(ctx, err)
		}
		account = parsed
	}
	records := s.ledger.Migrations(account)
	resp := &ListMigrationsResponse{Migrations: make([]MigrationRecord, 0, len(records))}
	for _, rec := range records {
		resp.Migrations = append(resp.Migrations, migrationToMessage(rec))
	}
	return resp, nil
}

// ListEvents pages through committed journal events for indexers.
func (s *Service) ListEvents(ctx context.Context, in *ListEventsRequest) (*ListEventsResponse, error) {
	after, err := pagination.DecodeSeqToken(in.PageToken)
	if err != nil {
		return nil, s.fail(ctx, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid page token", err))
	}
	after = max(after, in.AfterSeq)
	pageSize := pagination.ClampPageSize(in.PageSize, pageSizes)

	resp := &ListEventsResponse{Events: []Event{}}
	for evt := range s.ledger.Events(after) {
		if len(resp.Events) == pageSize {
			resp.NextPageToken = pagination.EncodeSeqToken(resp.Events[pageSize-1].Seq)
			break
		}
		resp.Events = append(resp.Events, eventToMessage(evt))
	}
	return resp, nil
}

// VerifyLedger reconciles balances against total supply and, when the
// journal is durable, re-verifies its hash chain and signatures.
func (s *Service) VerifyLedger(ctx context.Context, _ *Empty) (*VerifyLedgerResponse, error) {
	if err := s.ledger.Reconcile(); err != nil {
		return nil, s.fail(ctx, err)
	}
	resp := &VerifyLedgerResponse{LastSeq: s.ledger.LastSeq()}
	if s.verifier != nil {
		if err := s.verifier.VerifyEventIntegrity(ctx); err != nil {
			return nil, s.fail(ctx, err)
		}
		resp.JournalVerified = true
	}
	return resp, nil
}

func parseStatus(raw string) (compliance.Status, error) {
	return compliance.ParseStatus(strings.ToLower(strings.TrimSpace(raw)))
}

func feeScheduleFromMessage(msg FeeSchedule) (fees.Schedule, error) {
	fixed, err := parseOptionalAmount(msg.Fixed)
	if err != nil {
		return fees.Schedule{}, err
	}
	minFee, err := parseOptionalAmount(msg.Min)
	if err != nil {
		return fees.Schedule{}, err
	}
	maxFee, err := parseOptionalAmount(msg.Max)
	if err != nil {
		return fees.Schedule{}, err
	}
	return fees.Schedule{RateBps: msg.RateBps, Fixed: fixed, Min: minFee, Max: maxFee}, nil
}

func feeScheduleToMessage(schedule fees.Schedule) FeeSchedule {
	return FeeSchedule{
		RateBps: schedule.RateBps,
		Fixed:   schedule.Fixed.String(),
		Min:     schedule.Min.String(),
		Max:     schedule.Max.String(),
	}
}

func applicabilityFromMessage(msg *FeeApplicability) *fees.Applicability {
	if msg == nil {
		return nil
	}
	a := fees.Applicability(*msg)
	return &a
}

func traceRecordToMessage(rec trace.Record) TraceRecord {
	msg := TraceRecord{
		Seq:               rec.Seq,
		Kind:              string(rec.Kind),
		From:              address.Key(rec.From),
		To:                address.Key(rec.To),
		Amount:            rec.Amount.String(),
		ExternalReference: rec.ExternalReference,
		Timestamp:         formatTime(rec.Timestamp),
	}
	if rec.Successor != nil {
		msg.Successor = address.Key(*rec.Successor)
	}
	return msg
}

func migrationToMessage(rec migration.Record) MigrationRecord {
	return MigrationRecord{
		Seq:       rec.Seq,
		Account:   address.Key(rec.Account),
		Amount:    rec.Amount.String(),
		Successor: address.Key(rec.Successor),
		Timestamp: formatTime(rec.Timestamp),
	}
}
