package ledger

import (
	"context"
	"iter"
	"slices"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/platform/requestctx"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/command"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/compliance"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/fees"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/token"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/trace"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage/memory"
)

func TestNewWritesGenesis(t *testing.T) {
	journal := memory.NewJournal()
	l := newTestLedger(t, journal, testBootstrap(0))

	if l.LastSeq() != 1 || journal.Len() != 1 {
		t.Fatalf("last seq = %d, journal len = %d", l.LastSeq(), journal.Len())
	}
	info := l.TokenInfo()
	if info.Name != "Gold Token" || info.Symbol != "GOLD" || info.Decimals != 18 {
		t.Fatalf("token info = %+v", info)
	}
	if l.Owner() != owner || l.SystemWallet() != wallet || l.ComplianceAuthority() != authority {
		t.Fatal("roles not seeded from bootstrap")
	}
	if !slices.Equal(l.Minters(), []common.Address{minter}) {
		t.Fatalf("minters = %v", l.Minters())
	}
	if l.Paused() || !l.TotalSupply().IsZero() {
		t.Fatal("new ledger must be active and empty")
	}
}

func TestNewRejectsInvalidBootstrap(t *testing.T) {
	bootstrap := testBootstrap(0)
	bootstrap.SystemWallet = address.Zero
	if _, err := New(context.Background(), memory.NewJournal(), bootstrap); !apperrors.HasCode(err, apperrors.CodeInvalidArgument) {
		t.Fatalf("error = %v", err)
	}
	if _, err := New(context.Background(), nil, testBootstrap(0)); err != ErrJournalRequired {
		t.Fatalf("nil journal = %v", err)
	}
}

func TestTransferWithFee(t *testing.T) {
	l, _ := funded(t, 100)
	events := mustOK(t)(l.Transfer(context.Background(), alice, bob, units(300)))

	wantBalance(t, l, alice, 700)
	wantBalance(t, l, bob, 297)
	wantBalance(t, l, wallet, 3)
	if len(events) != 2 || events[1].Seq != events[0].Seq+1 {
		t.Fatalf("events = %+v", events)
	}

	principal, ok := l.Record(events[0].Seq)
	if !ok || principal.Kind != trace.KindTransfer || principal.Amount.Cmp(units(297)) != 0 {
		t.Fatalf("principal record = %+v", principal)
	}
	if principal.From != alice || principal.To != bob {
		t.Fatalf("principal legs = %s -> %s", principal.From, principal.To)
	}
	feeRec, ok := l.Record(events[1].Seq)
	if !ok || feeRec.Kind != trace.KindFeeCharge || feeRec.Amount.Cmp(units(3)) != 0 || feeRec.To != wallet {
		t.Fatalf("fee record = %+v", feeRec)
	}
	if l.TotalSupply().Cmp(units(1000)) != 0 {
		t.Fatalf("supply = %s", l.TotalSupply())
	}
}

func TestTransferRejectsFeeConsumingWholeAmount(t *testing.T) {
	l, _ := funded(t, 0)
	ctx := context.Background()
	mustOK(t)(l.SetFeeSchedule(ctx, owner, fees.Schedule{Fixed: units(10)}, nil))
	mustOK(t)(l.Approve(ctx, alice, bob, units(50)))
	before := l.LastSeq()

	wantCode(t, apperrors.CodeFeeExceedsAmount)(l.Transfer(ctx, alice, bob, units(10)))
	wantCode(t, apperrors.CodeFeeExceedsAmount)(l.TransferFrom(ctx, bob, alice, bob, units(10)))

	if l.LastSeq() != before {
		t.Fatalf("last seq = %d, want %d", l.LastSeq(), before)
	}
	wantBalance(t, l, alice, 1000)
	wantBalance(t, l, bob, 0)
	wantBalance(t, l, wallet, 0)
	if l.Allowance(alice, bob).Cmp(units(50)) != 0 {
		t.Fatalf("allowance = %s, want 50", l.Allowance(alice, bob))
	}

	events := mustOK(t)(l.Transfer(ctx, alice, bob, units(11)))
	if len(events) != 2 {
		t.Fatalf("events = %+v", events)
	}
	wantBalance(t, l, bob, 1)
	wantBalance(t, l, wallet, 10)
}

func TestTransferStampsEnvelope(t *testing.T) {
	l, _ := funded(t, 0)
	ctx := requestctx.WithRequestID(context.Background(), "req-7")
	events := mustOK(t)(l.Transfer(ctx, alice, bob, units(1)))
	evt := events[0]
	if evt.RequestID != "req-7" || evt.ActorType != event.ActorTypeAccount || evt.ActorID != address.Key(alice) {
		t.Fatalf("envelope = %+v", evt)
	}
	if evt.CommandType != string(CommandTransfer) || !evt.Timestamp.Equal(fixedNow) || evt.ChainHash == "" {
		t.Fatalf("envelope = %+v", evt)
	}
}

func TestOwnershipClaim(t *testing.T) {
	l, _ := funded(t, 0)
	ctx := context.Background()

	mustOK(t)(l.ProposeOwner(ctx, owner, bob))
	wantCode(t, apperrors.CodeNotCandidate)(l.AcceptOwnership(ctx, carol))
	mustOK(t)(l.AcceptOwnership(ctx, bob))

	if l.Owner() != bob {
		t.Fatalf("owner = %s", l.Owner())
	}
	if _, pending := l.PendingOwner(); pending {
		t.Fatal("pending claim must be cleared")
	}
	wantCode(t, apperrors.CodeNotOwner)(l.Pause(ctx, owner))
	wantCode(t, apperrors.CodeNoPendingClaim)(l.RevokeProposal(ctx, bob))
}

func TestBurnWithReference(t *testing.T) {
	l, _ := funded(t, 100)
	events := mustOK(t)(l.BurnWithReference(context.Background(), alice, units(50), "redeem-42"))

	wantBalance(t, l, alice, 950)
	if l.TotalSupply().Cmp(units(950)) != 0 {
		t.Fatalf("supply = %s", l.TotalSupply())
	}
	if len(events) != 1 {
		t.Fatalf("burns carry no fee by default, events = %d", len(events))
	}
	rec, ok := l.Record(events[0].Seq)
	if !ok || rec.Kind != trace.KindBurn || rec.ExternalReference != "redeem-42" || rec.To != address.Zero {
		t.Fatalf("record = %+v", rec)
	}
}

func TestBurnReferenceRules(t *testing.T) {
	l, _ := funded(t, 0)
	ctx := context.Background()
	wantCode(t, apperrors.CodeInvalidArgument)(l.BurnWithReference(ctx, alice, units(1), ""))
	wantCode(t, apperrors.CodeInsufficientBalance)(l.Burn(ctx, alice, units(1001)))
	wantCode(t, apperrors.CodeInvalidAmount)(l.Burn(ctx, alice, amount.Zero()))
}

func TestDelegateBalance(t *testing.T) {
	l, _ := funded(t, 0)
	ctx := context.Background()
	mustOK(t)(l.Transfer(ctx, alice, bob, units(300)))

	wantCode(t, apperrors.CodeSuccessorNotApproved)(l.DelegateBalance(ctx, alice, alice, units(700), successor))
	mustOK(t)(l.ApproveSuccessor(ctx, owner, successor))
	wantCode(t, apperrors.CodeNotHolder)(l.DelegateBalance(ctx, bob, alice, units(700), successor))

	events := mustOK(t)(l.DelegateBalance(ctx, alice, alice, units(700), successor))
	wantBalance(t, l, alice, 0)

	records := l.Migrations(alice)
	if len(records) != 1 {
		t.Fatalf("migrations = %d", len(records))
	}
	r := records[0]
	if r.Amount.Cmp(units(700)) != 0 || r.Successor != successor || r.Seq != events[0].Seq || !r.Timestamp.Equal(fixedNow) {
		t.Fatalf("migration = %+v", r)
	}
	if rec, _ := l.Record(events[0].Seq); rec.Kind != trace.KindMigrate || rec.Successor == nil || *rec.Successor != successor {
		t.Fatalf("trace = %+v", rec)
	}
	wantCode(t, apperrors.CodeInsufficientBalance)(l.Transfer(ctx, alice, bob, units(1)))
	if l.TotalSupply().Cmp(units(300)) != 0 {
		t.Fatalf("supply = %s", l.TotalSupply())
	}
}

func TestOwnerAssistedMigrationAndPolicy(t *testing.T) {
	bootstrap := testBootstrap(0)
	bootstrap.Migration.RequireFullBalance = true
	l := newTestLedger(t, memory.NewJournal(), bootstrap)
	ctx := context.Background()
	mustOK(t)(l.SetComplianceStatus(ctx, authority, alice, compliance.StatusEligible))
	mustOK(t)(l.Mint(ctx, minter, alice, units(10)))
	mustOK(t)(l.ApproveSuccessor(ctx, owner, successor))

	wantCode(t, apperrors.CodePartialMigrationDisabled)(l.DelegateBalance(ctx, owner, alice, units(4), successor))
	mustOK(t)(l.SetComplianceStatus(ctx, authority, alice, compliance.StatusRestricted))
	wantCode(t, apperrors.CodeNotEligible)(l.DelegateBalance(ctx, alice, alice, units(10), successor))
	mustOK(t)(l.DelegateBalance(ctx, owner, alice, units(10), successor))
	wantBalance(t, l, alice, 0)
}

func TestDelegateLedger(t *testing.T) {
	l, _ := funded(t, 0)
	ctx := context.Background()
	wantCode(t, apperrors.CodeSuccessorNotApproved)(l.DelegateLedger(ctx, owner))
	mustOK(t)(l.ApproveSuccessor(ctx, owner, successor))
	mustOK(t)(l.DelegateLedger(ctx, owner))

	if !l.Delegated() {
		t.Fatal("expected delegated ledger")
	}
	wantCode(t, apperrors.CodeLedgerDelegated)(l.Transfer(ctx, alice, bob, units(1)))
	wantCode(t, apperrors.CodeLedgerDelegated)(l.Mint(ctx, minter, alice, units(1)))
	wantCode(t, apperrors.CodeLedgerDelegated)(l.ApproveSuccessor(ctx, owner, carol))
	mustOK(t)(l.DelegateBalance(ctx, alice, alice, units(1000), successor))
	mustOK(t)(l.SetContactInformation(ctx, owner, "migrated, see successor"))
}

func TestPausedLeavesStateUnchanged(t *testing.T) {
	l, _ := funded(t, 100)
	ctx := context.Background()
	mustOK(t)(l.Approve(ctx, alice, bob, units(10)))
	mustOK(t)(l.Pause(ctx, owner))
	before := l.LastSeq()

	attempts := []struct {
		name string
		run  func() ([]event.Event, error)
	}{
		{"transfer", func() ([]event.Event, error) { return l.Transfer(ctx, alice, bob, units(1)) }},
		{"transfer from", func() ([]event.Event, error) { return l.TransferFrom(ctx, bob, alice, bob, units(1)) }},
		{"approve", func() ([]event.Event, error) { return l.Approve(ctx, alice, bob, units(5)) }},
		{"increase", func() ([]event.Event, error) { return l.IncreaseAllowance(ctx, alice, bob, units(5)) }},
		{"mint", func() ([]event.Event, error) { return l.Mint(ctx, minter, alice, units(1)) }},
		{"burn", func() ([]event.Event, error) { return l.Burn(ctx, alice, units(1)) }},
		{"reclaim", func() ([]event.Event, error) { return l.Reclaim(ctx, owner) }},
	}
	for _, a := range attempts {
		t.Run(a.name, func(t *testing.T) {
			wantCode(t, apperrors.CodeContractPaused)(a.run())
		})
	}
	if l.LastSeq() != before {
		t.Fatalf("seq moved while paused: %d -> %d", before, l.LastSeq())
	}
	wantBalance(t, l, alice, 1000)
	if got := l.Allowance(alice, bob); got.Cmp(units(10)) != 0 {
		t.Fatalf("allowance = %s", got)
	}

	wantCode(t, apperrors.CodeAlreadyInState)(l.Pause(ctx, owner))
	mustOK(t)(l.SetComplianceStatus(ctx, authority, carol, compliance.StatusEligible))
	mustOK(t)(l.ProposeOwner(ctx, owner, carol))
	wantCode(t, apperrors.CodeNotOwner)(l.Unpause(ctx, alice))
	mustOK(t)(l.Unpause(ctx, owner))
	mustOK(t)(l.Transfer(ctx, alice, bob, units(100)))
}

func TestApproveOverwrites(t *testing.T) {
	l, _ := funded(t, 0)
	ctx := context.Background()
	mustOK(t)(l.Approve(ctx, alice, bob, units(100)))
	mustOK(t)(l.Approve(ctx, alice, bob, units(40)))
	if got := l.Allowance(alice, bob); got.Cmp(units(40)) != 0 {
		t.Fatalf("allowance = %s, want 40", got)
	}
	mustOK(t)(l.IncreaseAllowance(ctx, alice, bob, units(5)))
	wantCode(t, apperrors.CodeAllowanceUnderflow)(l.DecreaseAllowance(ctx, alice, bob, units(46)))
	mustOK(t)(l.DecreaseAllowance(ctx, alice, bob, units(45)))
	mustOK(t)(l.Approve(ctx, alice, bob, amount.Zero()))
	if !l.Allowance(alice, bob).IsZero() {
		t.Fatal("zero approve must clear the allowance")
	}
}

func TestTransferFrom(t *testing.T) {
	l, _ := funded(t, 100)
	ctx := context.Background()
	mustOK(t)(l.Approve(ctx, alice, carol, units(200)))

	wantCode(t, apperrors.CodeInsufficientAllowance)(l.TransferFrom(ctx, carol, alice, bob, units(201)))
	events := mustOK(t)(l.TransferFrom(ctx, carol, alice, bob, units(200)))

	wantBalance(t, l, alice, 800)
	wantBalance(t, l, bob, 198)
	wantBalance(t, l, wallet, 2)
	if !l.Allowance(alice, carol).IsZero() {
		t.Fatalf("allowance = %s", l.Allowance(alice, carol))
	}
	types := make([]event.Type, 0, len(events))
	for _, evt := range events {
		types = append(types, evt.Type)
	}
	want := []event.Type{trace.EventTypeTransferred, trace.EventTypeFeeCharged, "allowance.approved"}
	if !slices.Equal(types, want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}

	// Allowance is checked before balance.
	mustOK(t)(l.Approve(ctx, bob, carol, units(1)))
	wantCode(t, apperrors.CodeInsufficientAllowance)(l.TransferFrom(ctx, carol, bob, alice, units(500)))
}

func TestRoundTripRestoresBalances(t *testing.T) {
	l, _ := funded(t, 0)
	ctx := context.Background()
	mustOK(t)(l.Transfer(ctx, alice, bob, units(250)))
	mustOK(t)(l.Transfer(ctx, bob, alice, units(250)))
	wantBalance(t, l, alice, 1000)
	wantBalance(t, l, bob, 0)
}

func TestRoundTripNetOfFees(t *testing.T) {
	l, _ := funded(t, 100)
	ctx := context.Background()
	mustOK(t)(l.Transfer(ctx, alice, bob, units(500)))
	mustOK(t)(l.Transfer(ctx, bob, alice, units(495)))
	// 5 on the way out, 4 on the way back.
	wantBalance(t, l, alice, 991)
	wantBalance(t, l, bob, 0)
	wantBalance(t, l, wallet, 9)
}

func TestNotEligibleProducesNoRecord(t *testing.T) {
	l, _ := funded(t, 100)
	ctx := context.Background()
	before := l.LastSeq()

	wantCode(t, apperrors.CodeNotEligible)(l.Transfer(ctx, alice, carol, units(10)))
	mustOK(t)(l.SetComplianceStatus(ctx, authority, alice, compliance.StatusRestricted))
	wantCode(t, apperrors.CodeNotEligible)(l.Transfer(ctx, alice, bob, units(10)))

	if err := l.CheckTransferEligible(alice, bob); !apperrors.HasCode(err, apperrors.CodeNotEligible) {
		t.Fatalf("eligibility = %v", err)
	}
	for rec := range l.Records(before+1, trace.Latest) {
		t.Fatalf("unexpected trace record %+v", rec)
	}
	wantBalance(t, l, alice, 1000)
}

func TestComplianceAuthority(t *testing.T) {
	l, _ := funded(t, 0)
	ctx := context.Background()
	wantCode(t, apperrors.CodeNotAuthority)(l.SetComplianceStatus(ctx, owner, carol, compliance.StatusEligible))
	wantCode(t, apperrors.CodeNotOwner)(l.SetComplianceAuthority(ctx, authority, carol))
	mustOK(t)(l.SetComplianceAuthority(ctx, owner, carol))
	mustOK(t)(l.SetComplianceStatus(ctx, carol, carol, compliance.StatusEligible))
	wantCode(t, apperrors.CodeAlreadyInState)(l.SetComplianceStatus(ctx, carol, carol, compliance.StatusEligible))
	if l.ComplianceStatus(carol) != compliance.StatusEligible {
		t.Fatalf("status = %s", l.ComplianceStatus(carol))
	}
}

func TestMintRules(t *testing.T) {
	bootstrap := testBootstrap(0)
	bootstrap.SupplyCeiling = units(1500)
	l := newTestLedger(t, memory.NewJournal(), bootstrap)
	ctx := context.Background()
	mustOK(t)(l.SetComplianceStatus(ctx, authority, alice, compliance.StatusEligible))

	wantCode(t, apperrors.CodeNotMinter)(l.Mint(ctx, alice, alice, units(1)))
	wantCode(t, apperrors.CodeNotEligible)(l.Mint(ctx, minter, bob, units(1)))
	mustOK(t)(l.Mint(ctx, minter, alice, units(1000)))
	wantCode(t, apperrors.CodeSupplyCeilingExceeded)(l.Mint(ctx, minter, alice, units(501)))
	mustOK(t)(l.Mint(ctx, minter, alice, units(500)))

	mustOK(t)(l.AddMinter(ctx, owner, bob))
	wantCode(t, apperrors.CodeAlreadyInState)(l.AddMinter(ctx, owner, bob))
	mustOK(t)(l.RemoveMinter(ctx, owner, bob))
	wantCode(t, apperrors.CodeNotFound)(l.RemoveMinter(ctx, owner, bob))
}

func TestMintToUnverifiedWhenAllowed(t *testing.T) {
	bootstrap := testBootstrap(0)
	bootstrap.Compliance.AllowMintToUnverified = true
	l := newTestLedger(t, memory.NewJournal(), bootstrap)
	mustOK(t)(l.Mint(context.Background(), minter, carol, units(5)))
	wantBalance(t, l, carol, 5)
	wantCode(t, apperrors.CodeNotEligible)(l.Transfer(context.Background(), carol, alice, units(1)))
}

func TestFeeScheduleChangeAppliesForward(t *testing.T) {
	l, _ := funded(t, 0)
	ctx := context.Background()
	mustOK(t)(l.Transfer(ctx, alice, bob, units(100)))
	wantBalance(t, l, wallet, 0)

	wantCode(t, apperrors.CodeNotOwner)(l.SetFeeSchedule(ctx, alice, fees.Schedule{RateBps: 100}, nil))
	wantCode(t, apperrors.CodeInvalidArgument)(l.SetFeeSchedule(ctx, owner, fees.Schedule{RateBps: 10_001}, nil))
	all := fees.Applicability{Transfer: true, Mint: true}
	mustOK(t)(l.SetFeeSchedule(ctx, owner, fees.Schedule{RateBps: 200, Min: units(1)}, &all))

	mustOK(t)(l.Transfer(ctx, alice, bob, units(100)))
	wantBalance(t, l, wallet, 2)
	mustOK(t)(l.Mint(ctx, minter, alice, units(100)))
	wantBalance(t, l, wallet, 4)

	net, fee, err := l.ComputeFee(units(10))
	if err != nil || net.Cmp(units(9)) != 0 || fee.Cmp(units(1)) != 0 {
		t.Fatalf("compute fee = %s, %s, %v", net, fee, err)
	}
	schedule, applicability := l.FeeSchedule()
	if schedule.RateBps != 200 || applicability != all {
		t.Fatalf("schedule = %+v, %+v", schedule, applicability)
	}
}

func TestTokenMetadata(t *testing.T) {
	l, _ := funded(t, 0)
	ctx := context.Background()
	wantCode(t, apperrors.CodeNotOwner)(l.ChangeTokenName(ctx, alice, "X", "X"))
	wantCode(t, apperrors.CodeInvalidArgument)(l.ChangeTokenName(ctx, owner, "  ", "GLD"))
	wantCode(t, apperrors.CodeInvalidArgument)(l.ChangeTokenName(ctx, owner, "Gold", ""))
	events := mustOK(t)(l.ChangeTokenName(ctx, owner, " Gold Reserve", "gold"))
	if events[0].Type != token.EventTypeRenamed {
		t.Fatalf("event = %s", events[0].Type)
	}
	renamed, err := event.DecodePayload[token.RenamedPayload](events[0].PayloadJSON)
	if err != nil {
		t.Fatalf("decode renamed: %v", err)
	}
	if renamed.Name != " Gold Reserve" || renamed.Symbol != "gold" || renamed.PreviousName != "Gold Token" || renamed.PreviousSymbol != "GOLD" {
		t.Fatalf("renamed = %+v", renamed)
	}
	// Renaming to the current values is still recorded.
	again := mustOK(t)(l.ChangeTokenName(ctx, owner, " Gold Reserve", "gold"))
	if len(again) != 1 || again[0].Type != token.EventTypeRenamed {
		t.Fatalf("repeat rename events = %+v", again)
	}
	mustOK(t)(l.SetPublicDocument(ctx, owner, "ipfs://terms-v2"))
	mustOK(t)(l.SetContactInformation(ctx, owner, "ops@example.com"))

	info := l.TokenInfo()
	if info.Name != " Gold Reserve" || info.Symbol != "gold" || info.PublicDocument != "ipfs://terms-v2" || info.ContactInformation != "ops@example.com" {
		t.Fatalf("info = %+v", info)
	}
}

func TestReclaim(t *testing.T) {
	l, _ := funded(t, 0)
	ctx := context.Background()
	wantCode(t, apperrors.CodeInsufficientBalance)(l.Reclaim(ctx, owner))
	mustOK(t)(l.SetComplianceStatus(ctx, authority, ledgerAcc, compliance.StatusEligible))
	mustOK(t)(l.Transfer(ctx, alice, ledgerAcc, units(25)))
	wantCode(t, apperrors.CodeNotOwner)(l.Reclaim(ctx, alice))
	mustOK(t)(l.Reclaim(ctx, owner))
	wantBalance(t, l, ledgerAcc, 0)
	wantBalance(t, l, owner, 25)
}

func TestSetSystemWalletRoutesFees(t *testing.T) {
	l, _ := funded(t, 100)
	ctx := context.Background()
	wantCode(t, apperrors.CodeAlreadyInState)(l.SetSystemWallet(ctx, owner, wallet))
	mustOK(t)(l.SetSystemWallet(ctx, owner, carol))
	mustOK(t)(l.Transfer(ctx, alice, bob, units(100)))
	wantBalance(t, l, carol, 1)
	wantBalance(t, l, wallet, 0)
}

func TestSupplyInvariantAcrossHistory(t *testing.T) {
	l, _ := funded(t, 100)
	ctx := context.Background()
	mustOK(t)(l.ApproveSuccessor(ctx, owner, successor))

	steps := []func() ([]event.Event, error){
		func() ([]event.Event, error) { return l.Transfer(ctx, alice, bob, units(300)) },
		func() ([]event.Event, error) { return l.Mint(ctx, minter, bob, units(77)) },
		func() ([]event.Event, error) { return l.Burn(ctx, bob, units(20)) },
		func() ([]event.Event, error) { return l.BurnWithReference(ctx, alice, units(5), "w-1") },
		func() ([]event.Event, error) { return l.DelegateBalance(ctx, bob, bob, units(100), successor) },
		func() ([]event.Event, error) { return l.Transfer(ctx, bob, alice, units(50)) },
	}
	for i, step := range steps {
		mustOK(t)(step())
		if err := l.Reconcile(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	minted, removed := amount.Zero(), amount.Zero()
	var err error
	for rec := range l.Records(0, trace.Latest) {
		switch {
		case rec.From == address.Zero:
			minted, err = minted.Add(rec.Amount)
		case rec.To == address.Zero:
			removed, err = removed.Add(rec.Amount)
		}
		if err != nil {
			t.Fatalf("sum: %v", err)
		}
	}
	want, ok := minted.Sub(removed)
	if !ok || l.TotalSupply().Cmp(want) != 0 {
		t.Fatalf("supply %s != minted %s - removed %s", l.TotalSupply(), minted, removed)
	}
}

func TestQueryIsLazyAndFiltered(t *testing.T) {
	l, _ := funded(t, 100)
	ctx := context.Background()
	mustOK(t)(l.SetComplianceStatus(ctx, authority, carol, compliance.StatusEligible))
	first := mustOK(t)(l.Transfer(ctx, alice, bob, units(300)))
	mustOK(t)(l.Transfer(ctx, alice, carol, units(1)))
	last := mustOK(t)(l.Transfer(ctx, bob, carol, units(200)))
	if len(last) != 2 {
		t.Fatalf("expected transfer and fee events, got %+v", last)
	}

	bobRecords := l.Query(bob, first[0].Seq, trace.Latest)
	var seqs []uint64
	for rec := range bobRecords {
		if !rec.Touches(bob) {
			t.Fatalf("record %+v does not touch bob", rec)
		}
		seqs = append(seqs, rec.Seq)
	}
	want := []uint64{first[0].Seq, last[0].Seq, last[1].Seq}
	if !slices.Equal(seqs, want) {
		t.Fatalf("seqs = %v, want %v", seqs, want)
	}
	if again := seqsOf(bobRecords); !slices.Equal(again, want) {
		t.Fatalf("second range = %v, want %v", again, want)
	}

	// A later range sees records committed after the sequence was built.
	more := mustOK(t)(l.Transfer(ctx, alice, bob, units(100)))
	if got := seqsOf(bobRecords); !slices.Equal(got, append(want, more[0].Seq)) {
		t.Fatalf("range after commit = %v", got)
	}

	bounded := slices.Collect(l.Query(bob, 0, first[0].Seq))
	if len(bounded) != 1 || bounded[0].Seq != first[0].Seq {
		t.Fatalf("bounded = %+v", bounded)
	}
}

func seqsOf(records iter.Seq[trace.Record]) []uint64 {
	var seqs []uint64
	for rec := range records {
		seqs = append(seqs, rec.Seq)
	}
	return seqs
}

func TestJournalFailureHaltsLedger(t *testing.T) {
	journal := &faultyJournal{Journal: memory.NewJournal()}
	l := newTestLedger(t, journal, testBootstrap(0))
	ctx := context.Background()
	mustOK(t)(l.SetComplianceStatus(ctx, authority, alice, compliance.StatusEligible))
	mustOK(t)(l.Mint(ctx, minter, alice, units(10)))
	before := l.LastSeq()

	journal.setFail(true)
	wantCode(t, apperrors.CodeLedgerHalted)(l.Burn(ctx, alice, units(1)))
	journal.setFail(false)
	wantCode(t, apperrors.CodeLedgerHalted)(l.Burn(ctx, alice, units(1)))
	wantCode(t, apperrors.CodeLedgerHalted)(l.Pause(ctx, owner))

	if l.LastSeq() != before {
		t.Fatalf("seq moved: %d -> %d", before, l.LastSeq())
	}
	wantBalance(t, l, alice, 10)
	if err := l.Halted(); !apperrors.HasCode(err, apperrors.CodeLedgerHalted) {
		t.Fatalf("halted = %v", err)
	}

	reopened := newTestLedger(t, journal, testBootstrap(0))
	if reopened.Halted() != nil {
		t.Fatal("restart must clear the halt")
	}
	mustOK(t)(reopened.Burn(ctx, alice, units(1)))
}

func TestCanceledContextIsNotAFault(t *testing.T) {
	l, _ := funded(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Transfer(ctx, alice, bob, units(1)); err != context.Canceled {
		t.Fatalf("error = %v", err)
	}
	if l.Halted() != nil {
		t.Fatal("cancellation must not halt the ledger")
	}
}

func TestReplayRebuildsState(t *testing.T) {
	l, journal := funded(t, 100)
	ctx := context.Background()
	mustOK(t)(l.Transfer(ctx, alice, bob, units(300)))
	mustOK(t)(l.Approve(ctx, alice, carol, units(9)))
	mustOK(t)(l.BurnWithReference(ctx, bob, units(7), "redeem-1"))
	mustOK(t)(l.ProposeOwner(ctx, owner, carol))
	mustOK(t)(l.ChangeTokenName(ctx, owner, "Gold Two", "gld2"))
	mustOK(t)(l.Pause(ctx, owner))

	different := testBootstrap(0)
	different.Token.Name = "Ignored"
	replayed := newTestLedger(t, journal, different)

	if replayed.LastSeq() != l.LastSeq() {
		t.Fatalf("last seq = %d, want %d", replayed.LastSeq(), l.LastSeq())
	}
	for _, account := range []common.Address{alice, bob, carol, wallet} {
		if replayed.BalanceOf(account).Cmp(l.BalanceOf(account)) != 0 {
			t.Fatalf("balance of %s differs", address.Key(account))
		}
	}
	if replayed.Allowance(alice, carol).Cmp(units(9)) != 0 {
		t.Fatal("allowance not replayed")
	}
	if pending, ok := replayed.PendingOwner(); !ok || pending != carol {
		t.Fatal("pending owner not replayed")
	}
	if !replayed.Paused() || replayed.TokenInfo().Name != "Gold Two" {
		t.Fatalf("state not replayed: paused=%v info=%+v", replayed.Paused(), replayed.TokenInfo())
	}
	original := slices.Collect(l.Records(0, trace.Latest))
	rebuilt := slices.Collect(replayed.Records(0, trace.Latest))
	if len(original) != len(rebuilt) {
		t.Fatalf("records = %d, want %d", len(rebuilt), len(original))
	}
	_, schedule := replayed.FeeSchedule()
	if schedule != fees.DefaultApplicability() {
		t.Fatalf("applicability = %+v", schedule)
	}
}

func TestExecuteValidatesEnvelope(t *testing.T) {
	l, _ := funded(t, 0)
	ctx := context.Background()
	tests := []struct {
		name string
		cmd  command.Command
		code apperrors.Code
	}{
		{name: "unknown type", cmd: command.Command{Type: "balance.steal", Caller: alice}, code: apperrors.CodeInvalidArgument},
		{name: "zero caller", cmd: command.Command{Type: CommandTransfer, PayloadJSON: []byte(`{"to":"0x00000000000000000000000000000000000000b2","amount":"1"}`)}, code: apperrors.CodeInvalidArgument},
		{name: "unknown field", cmd: command.Command{Type: CommandTransfer, Caller: alice, PayloadJSON: []byte(`{"to":"0x00000000000000000000000000000000000000b2","amount":"1","memo":"x"}`)}, code: apperrors.CodeInvalidArgument},
		{name: "zero amount", cmd: command.Command{Type: CommandTransfer, Caller: alice, PayloadJSON: []byte(`{"to":"0x00000000000000000000000000000000000000b2","amount":"0"}`)}, code: apperrors.CodeInvalidAmount},
		{name: "negative amount", cmd: command.Command{Type: CommandTransfer, Caller: alice, PayloadJSON: []byte(`{"to":"0x00000000000000000000000000000000000000b2","amount":"-5"}`)}, code: apperrors.CodeInvalidAmount},
		{name: "transfer to zero", cmd: command.Command{Type: CommandTransfer, Caller: alice, PayloadJSON: []byte(`{"to":"0x0000000000000000000000000000000000000000","amount":"1"}`)}, code: apperrors.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantCode(t, tt.code)(l.Execute(ctx, tt.cmd))
		})
	}
}

func TestConcurrentCommandsSerialize(t *testing.T) {
	l, journal := funded(t, 100)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			from, to := alice, bob
			if i%2 == 1 {
				from, to = bob, alice
			}
			for range 25 {
				_, _ = l.Transfer(ctx, from, to, units(3))
				_ = l.BalanceOf(from)
				for range l.Query(from, 0, trace.Latest) {
					break
				}
			}
		}()
	}
	wg.Wait()

	if err := l.Reconcile(); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if l.LastSeq() != uint64(journal.Len()) {
		t.Fatalf("last seq %d != journal len %d", l.LastSeq(), journal.Len())
	}
	var prev uint64
	for evt := range l.Events(0) {
		if evt.Seq != prev+1 {
			t.Fatalf("gap after seq %d", prev)
		}
		prev = evt.Seq
	}
}
