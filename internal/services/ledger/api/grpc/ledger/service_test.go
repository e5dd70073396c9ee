package ledger

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/api/grpc/auth"
	grpcmeta "github.com/louisbranch/goldtoken/internal/services/ledger/api/grpc/metadata"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/fees"
	ledgerdomain "github.com/louisbranch/goldtoken/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/token"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage/integrity"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage/memory"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage/sqlite"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

var (
	owner     = address.MustParse("0x0000000000000000000000000000000000000001")
	wallet    = address.MustParse("0x0000000000000000000000000000000000000002")
	authority = address.MustParse("0x0000000000000000000000000000000000000003")
	minter    = address.MustParse("0x0000000000000000000000000000000000000004")
	alice     = address.MustParse("0x00000000000000000000000000000000000000a1")
	bob       = address.MustParse("0x00000000000000000000000000000000000000b2")
	carol     = address.MustParse("0x00000000000000000000000000000000000000c3")
	successor = address.MustParse("0x00000000000000000000000000000000000000d4")
)

var fixedNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func testBootstrap() ledgerdomain.Bootstrap {
	return ledgerdomain.Bootstrap{
		Token:               token.Info{Name: "Gold Token", Symbol: "gold", Decimals: 18},
		Owner:               owner,
		SystemWallet:        wallet,
		ComplianceAuthority: authority,
		Minters:             []common.Address{minter},
		FeeSchedule:         fees.Schedule{RateBps: 100},
	}
}

func newLedger(t *testing.T, journal ledgerdomain.Journal) *ledgerdomain.Ledger {
	t.Helper()
	l, err := ledgerdomain.New(context.Background(), journal, testBootstrap(),
		ledgerdomain.WithLogger(zaptest.NewLogger(t)),
		ledgerdomain.WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return l
}

// startServer serves svc over an in-memory listener in trusted caller mode.
func startServer(t *testing.T, svc *Service) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcmeta.UnaryServerInterceptor(nil),
		auth.UnaryServerInterceptor(auth.Config{}),
	))
	RegisterLedgerServiceServer(server, svc)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func as(account common.Address) context.Context {
	return grpcmeta.WithOutgoingCaller(context.Background(), account)
}

func key(account common.Address) string { return address.Key(account) }

// fundedClient returns a client whose ledger has alice and bob eligible and
// alice holding 1000 units.
func fundedClient(t *testing.T, opts ...Option) (*Client, *ledgerdomain.Ledger) {
	t.Helper()
	l := newLedger(t, memory.NewJournal())
	client := startServer(t, NewService(l, append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...))
	fund(t, client)
	return client, l
}

func fund(t *testing.T, client *Client) {
	t.Helper()
	for _, account := range []common.Address{alice, bob} {
		if _, err := client.SetComplianceStatus(as(authority), &SetComplianceStatusRequest{Account: key(account), Status: "eligible"}); err != nil {
			t.Fatalf("set status: %v", err)
		}
	}
	if _, err := client.Mint(as(minter), &MintRequest{To: key(alice), Amount: "1000"}); err != nil {
		t.Fatalf("mint: %v", err)
	}
}

func balance(t *testing.T, client *Client, account common.Address) string {
	t.Helper()
	resp, err := client.BalanceOf(context.Background(), &AccountRequest{Account: key(account)})
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	return resp.Amount
}

func wantStatus(t *testing.T, err error, code codes.Code, reason apperrors.Code) {
	t.Helper()
	if status.Code(err) != code {
		t.Fatalf("code = %s, want %s (%v)", status.Code(err), code, err)
	}
	if reason == "" {
		return
	}
	appErr, ok := apperrors.FromGRPCStatus(err)
	if !ok {
		t.Fatalf("expected ErrorInfo detail on %v", err)
	}
	if appErr.Code != reason {
		t.Fatalf("reason = %s, want %s", appErr.Code, reason)
	}
}

func TestTransferWithFeeOverGRPC(t *testing.T) {
	client, _ := fundedClient(t)

	var header metadata.MD
	ctx := grpcmeta.WithOutgoingRequestID(as(alice), "req-42")
	resp, err := client.Transfer(ctx, &TransferRequest{To: key(bob), Amount: "300"}, grpc.Header(&header))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := grpcmeta.FirstMetadataValue(header, grpcmeta.RequestIDHeader); got != "req-42" {
		t.Fatalf("response request id = %q", got)
	}

	var types []string
	for _, evt := range resp.Events {
		types = append(types, evt.Type)
		if evt.RequestID != "req-42" || evt.ActorID != key(alice) {
			t.Fatalf("event envelope = %+v", evt)
		}
	}
	if diff := cmp.Diff([]string{"balance.transferred", "fee.charged"}, types); diff != "" {
		t.Fatalf("event types mismatch (-want +got):\n%s", diff)
	}
	if resp.Events[1].Seq != resp.Events[0].Seq+1 {
		t.Fatalf("seqs = %d, %d, want consecutive", resp.Events[0].Seq, resp.Events[1].Seq)
	}

	for account, want := range map[common.Address]string{alice: "700", bob: "297", wallet: "3"} {
		if got := balance(t, client, account); got != want {
			t.Fatalf("balance of %s = %s, want %s", key(account), got, want)
		}
	}
}

func TestCommandsRequireCaller(t *testing.T) {
	client, _ := fundedClient(t)
	_, err := client.Transfer(context.Background(), &TransferRequest{To: key(bob), Amount: "1"})
	wantStatus(t, err, codes.Unauthenticated, apperrors.CodeUnauthenticated)
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	client, _ := fundedClient(t)

	tests := []struct {
		name   string
		call   func() error
		code   codes.Code
		reason apperrors.Code
	}{
		{
			name:   "not owner",
			call:   func() error { _, err := client.Pause(as(alice), &Empty{}); return err },
			code:   codes.PermissionDenied,
			reason: apperrors.CodeNotOwner,
		},
		{
			name: "insufficient balance",
			call: func() error {
				_, err := client.Transfer(as(bob), &TransferRequest{To: key(alice), Amount: "5"})
				return err
			},
			code:   codes.FailedPrecondition,
			reason: apperrors.CodeInsufficientBalance,
		},
		{
			name: "not eligible",
			call: func() error {
				_, err := client.Transfer(as(alice), &TransferRequest{To: key(carol), Amount: "5"})
				return err
			},
			code:   codes.PermissionDenied,
			reason: apperrors.CodeNotEligible,
		},
		{
			name: "negative amount",
			call: func() error {
				_, err := client.Transfer(as(alice), &TransferRequest{To: key(bob), Amount: "-5"})
				return err
			},
			code:   codes.InvalidArgument,
			reason: apperrors.CodeInvalidAmount,
		},
		{
			name: "malformed address",
			call: func() error {
				_, err := client.Transfer(as(alice), &TransferRequest{To: "bob", Amount: "5"})
				return err
			},
			code:   codes.InvalidArgument,
			reason: apperrors.CodeInvalidArgument,
		},
		{
			name: "unknown status",
			call: func() error {
				_, err := client.SetComplianceStatus(as(authority), &SetComplianceStatusRequest{Account: key(carol), Status: "frozen"})
				return err
			},
			code:   codes.InvalidArgument,
			reason: apperrors.CodeInvalidArgument,
		},
		{
			name: "missing record",
			call: func() error {
				_, err := client.GetTraceRecord(context.Background(), &GetTraceRecordRequest{Seq: 999})
				return err
			},
			code:   codes.NotFound,
			reason: apperrors.CodeNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantStatus(t, tt.call(), tt.code, tt.reason)
		})
	}
}

func TestErrorsAreLocalized(t *testing.T) {
	client, _ := fundedClient(t)
	ctx := metadata.AppendToOutgoingContext(as(alice), grpcmeta.LocaleHeader, "pt-BR")
	_, err := client.Pause(ctx, &Empty{})

	var localized *errdetails.LocalizedMessage
	for _, detail := range status.Convert(err).Details() {
		if m, ok := detail.(*errdetails.LocalizedMessage); ok {
			localized = m
		}
	}
	if localized == nil {
		t.Fatalf("expected localized message on %v", err)
	}
	if localized.GetLocale() != "pt-BR" {
		t.Fatalf("locale = %q, want pt-BR", localized.GetLocale())
	}
}

func TestReadQueries(t *testing.T) {
	client, _ := fundedClient(t)
	ctx := context.Background()

	supply, err := client.TotalSupply(ctx, &Empty{})
	if err != nil {
		t.Fatalf("total supply: %v", err)
	}
	if diff := cmp.Diff(&TotalSupplyResponse{TotalSupply: "1000"}, supply); diff != "" {
		t.Fatalf("total supply mismatch (-want +got):\n%s", diff)
	}

	info, err := client.TokenInfo(ctx, &Empty{})
	if err != nil {
		t.Fatalf("token info: %v", err)
	}
	if info.Symbol != "GOLD" || info.Decimals != 18 {
		t.Fatalf("token info = %+v", info)
	}

	if _, err := client.ProposeOwner(as(owner), &AccountRequest{Account: key(bob)}); err != nil {
		t.Fatalf("propose owner: %v", err)
	}
	roles, err := client.Roles(ctx, &Empty{})
	if err != nil {
		t.Fatalf("roles: %v", err)
	}
	wantRoles := &RolesResponse{
		Owner:               key(owner),
		PendingOwner:        key(bob),
		SystemWallet:        key(wallet),
		ComplianceAuthority: key(authority),
		Minters:             []string{key(minter)},
	}
	if diff := cmp.Diff(wantRoles, roles); diff != "" {
		t.Fatalf("roles mismatch (-want +got):\n%s", diff)
	}

	eligibility, err := client.CheckTransferEligible(ctx, &EligibilityRequest{From: key(alice), To: key(carol)})
	if err != nil {
		t.Fatalf("check eligible: %v", err)
	}
	if diff := cmp.Diff(&EligibilityResponse{Eligible: false, Side: "recipient"}, eligibility); diff != "" {
		t.Fatalf("eligibility mismatch (-want +got):\n%s", diff)
	}
	carolStatus, err := client.ComplianceStatus(ctx, &AccountRequest{Account: key(carol)})
	if err != nil {
		t.Fatalf("compliance status: %v", err)
	}
	if carolStatus.Status != "unverified" {
		t.Fatalf("carol status = %q", carolStatus.Status)
	}

	fee, err := client.ComputeFee(ctx, &ComputeFeeRequest{Amount: "300"})
	if err != nil {
		t.Fatalf("compute fee: %v", err)
	}
	if diff := cmp.Diff(&ComputeFeeResponse{Net: "297", Fee: "3"}, fee); diff != "" {
		t.Fatalf("fee mismatch (-want +got):\n%s", diff)
	}

	if _, err := client.Approve(as(alice), &AllowanceRequest{Spender: key(bob), Amount: "40"}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	allowance, err := client.Allowance(ctx, &AllowanceQuery{Owner: key(alice), Spender: key(bob)})
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if allowance.Amount != "40" {
		t.Fatalf("allowance = %s, want 40", allowance.Amount)
	}
}

func TestFeeScheduleOverGRPC(t *testing.T) {
	client, _ := fundedClient(t)
	_, err := client.SetFeeSchedule(as(owner), &SetFeeScheduleRequest{
		Schedule:      FeeSchedule{RateBps: 50, Fixed: "1"},
		Applicability: &FeeApplicability{Transfer: true, Burn: true},
	})
	if err != nil {
		t.Fatalf("set fee schedule: %v", err)
	}
	got, err := client.FeeSchedule(context.Background(), &Empty{})
	if err != nil {
		t.Fatalf("fee schedule: %v", err)
	}
	want := &FeeScheduleResponse{
		Schedule:      FeeSchedule{RateBps: 50, Fixed: "1", Min: "0", Max: "0"},
		Applicability: FeeApplicability{Transfer: true, Burn: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("fee schedule mismatch (-want +got):\n%s", diff)
	}
}

func TestLifecycleAndMigrationOverGRPC(t *testing.T) {
	client, _ := fundedClient(t)
	ctx := context.Background()

	if _, err := client.Pause(as(owner), &Empty{}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	_, err := client.Transfer(as(alice), &TransferRequest{To: key(bob), Amount: "1"})
	wantStatus(t, err, codes.FailedPrecondition, apperrors.CodeContractPaused)
	lifecycle, err := client.Lifecycle(ctx, &Empty{})
	if err != nil {
		t.Fatalf("lifecycle: %v", err)
	}
	if !lifecycle.Paused || lifecycle.State != "paused" {
		t.Fatalf("lifecycle = %+v", lifecycle)
	}
	if _, err := client.Unpause(as(owner), &Empty{}); err != nil {
		t.Fatalf("unpause: %v", err)
	}

	if _, err := client.ApproveSuccessor(as(owner), &AccountRequest{Account: key(successor)}); err != nil {
		t.Fatalf("approve successor: %v", err)
	}
	if _, err := client.DelegateBalance(as(alice), &DelegateBalanceRequest{Account: key(alice), Amount: "1000", Successor: key(successor)}); err != nil {
		t.Fatalf("delegate balance: %v", err)
	}
	migrations, err := client.ListMigrations(ctx, &AccountRequest{Account: key(alice)})
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	if len(migrations.Migrations) != 1 {
		t.Fatalf("migrations = %+v", migrations.Migrations)
	}
	got := migrations.Migrations[0]
	if got.Amount != "1000" || got.Successor != key(successor) || got.Account != key(alice) {
		t.Fatalf("migration = %+v", got)
	}
	if balance(t, client, alice) != "0" {
		t.Fatal("expected alice balance migrated")
	}
	_, err = client.Transfer(as(alice), &TransferRequest{To: key(bob), Amount: "1"})
	wantStatus(t, err, codes.FailedPrecondition, apperrors.CodeInsufficientBalance)
}

func TestQueryTracePagesInMemory(t *testing.T) {
	client, _ := fundedClient(t)
	for range 2 {
		if _, err := client.Transfer(as(alice), &TransferRequest{To: key(bob), Amount: "100"}); err != nil {
			t.Fatalf("transfer: %v", err)
		}
	}

	var kinds []string
	req := &QueryTraceRequest{Account: key(alice), PageSize: 2}
	for pages := 0; ; pages++ {
		if pages > 5 {
			t.Fatal("pagination did not terminate")
		}
		resp, err := client.QueryTrace(context.Background(), req)
		if err != nil {
			t.Fatalf("query trace: %v", err)
		}
		for _, rec := range resp.Records {
			kinds = append(kinds, rec.Kind)
		}
		if resp.NextPageToken == "" {
			break
		}
		req.PageToken = resp.NextPageToken
	}
	want := []string{"Mint", "Transfer", "FeeCharge", "Transfer", "FeeCharge"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("trace kinds mismatch (-want +got):\n%s", diff)
	}

	_, err := client.QueryTrace(context.Background(), &QueryTraceRequest{Filter: `kind = "Burn"`})
	wantStatus(t, err, codes.InvalidArgument, apperrors.CodeInvalidArgument)
	_, err = client.QueryTrace(context.Background(), &QueryTraceRequest{PageToken: "%%%"})
	wantStatus(t, err, codes.InvalidArgument, apperrors.CodeInvalidArgument)
}

func TestQueryTraceToSeqIsInclusive(t *testing.T) {
	client, _ := fundedClient(t)
	resp, err := client.Transfer(as(alice), &TransferRequest{To: key(bob), Amount: "100"})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	transferSeq := resp.Events[0].Seq

	bounded, err := client.QueryTrace(context.Background(), &QueryTraceRequest{Account: key(alice), ToSeq: &transferSeq})
	if err != nil {
		t.Fatalf("query trace: %v", err)
	}
	if n := len(bounded.Records); n != 2 || bounded.Records[1].Seq != transferSeq {
		t.Fatalf("bounded records = %+v", bounded.Records)
	}

	zero := uint64(0)
	empty, err := client.QueryTrace(context.Background(), &QueryTraceRequest{Account: key(alice), ToSeq: &zero})
	if err != nil {
		t.Fatalf("query trace: %v", err)
	}
	if len(empty.Records) != 0 {
		t.Fatalf("records up to seq 0 = %+v", empty.Records)
	}

	open, err := client.QueryTrace(context.Background(), &QueryTraceRequest{Account: key(alice)})
	if err != nil {
		t.Fatalf("query trace: %v", err)
	}
	if len(open.Records) != 3 {
		t.Fatalf("open records = %+v", open.Records)
	}
}

func TestListEventsPages(t *testing.T) {
	client, l := fundedClient(t)
	total := l.LastSeq()

	var seqs []uint64
	req := &ListEventsRequest{PageSize: 2}
	for {
		resp, err := client.ListEvents(context.Background(), req)
		if err != nil {
			t.Fatalf("list events: %v", err)
		}
		for _, evt := range resp.Events {
			seqs = append(seqs, evt.Seq)
		}
		if resp.NextPageToken == "" {
			break
		}
		req.PageToken = resp.NextPageToken
	}
	if uint64(len(seqs)) != total {
		t.Fatalf("listed %d events, want %d", len(seqs), total)
	}
	for i, seq := range seqs {
		if seq != uint64(i+1) {
			t.Fatalf("seqs = %v, want 1..%d", seqs, total)
		}
	}
}

func TestSQLiteBackedQueriesAndVerification(t *testing.T) {
	ring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("test-secret")}, "v1")
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"), ring, "gold")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	l := newLedger(t, store)
	client := startServer(t, NewService(l, WithTraceStore(store), WithIntegrityVerifier(store)))
	fund(t, client)
	if _, err := client.Transfer(as(alice), &TransferRequest{To: key(bob), Amount: "300"}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := client.Burn(as(bob), &BurnRequest{Amount: "50", Reference: "redeem-42"}); err != nil {
		t.Fatalf("burn with reference: %v", err)
	}

	resp, err := client.QueryTrace(context.Background(), &QueryTraceRequest{Filter: `kind = "Burn" AND reference = "redeem-42"`})
	if err != nil {
		t.Fatalf("query trace: %v", err)
	}
	if len(resp.Records) != 1 {
		t.Fatalf("records = %+v", resp.Records)
	}
	burn := resp.Records[0]
	if burn.From != key(bob) || burn.Amount != "50" || burn.To != key(address.Zero) {
		t.Fatalf("burn record = %+v", burn)
	}

	_, err = client.QueryTrace(context.Background(), &QueryTraceRequest{Filter: `colour = "gold"`})
	wantStatus(t, err, codes.InvalidArgument, apperrors.CodeInvalidArgument)

	verified, err := client.VerifyLedger(context.Background(), &Empty{})
	if err != nil {
		t.Fatalf("verify ledger: %v", err)
	}
	if !verified.JournalVerified || verified.LastSeq != l.LastSeq() {
		t.Fatalf("verify = %+v", verified)
	}
}
