package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/compliance"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/fees"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/token"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage/memory"
	"go.uber.org/zap/zaptest"
)

var (
	owner     = address.MustParse("0x0000000000000000000000000000000000000001")
	wallet    = address.MustParse("0x0000000000000000000000000000000000000002")
	authority = address.MustParse("0x0000000000000000000000000000000000000003")
	minter    = address.MustParse("0x0000000000000000000000000000000000000004")
	ledgerAcc = address.MustParse("0x0000000000000000000000000000000000000005")
	alice     = address.MustParse("0x00000000000000000000000000000000000000a1")
	bob       = address.MustParse("0x00000000000000000000000000000000000000b2")
	carol     = address.MustParse("0x00000000000000000000000000000000000000c3")
	successor = address.MustParse("0x00000000000000000000000000000000000000d4")
)

var fixedNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func units(n uint64) amount.Amount { return amount.New(n) }

func testBootstrap(rateBps uint64) Bootstrap {
	return Bootstrap{
		Token: token.Info{
			Name:           "Gold Token",
			Symbol:         "gold",
			Decimals:       18,
			PublicDocument: "https://example.com/terms.pdf",
			LedgerAddress:  ledgerAcc,
		},
		Owner:               owner,
		SystemWallet:        wallet,
		ComplianceAuthority: authority,
		Minters:             []common.Address{minter},
		FeeSchedule:         fees.Schedule{RateBps: rateBps},
	}
}

func newTestLedger(t *testing.T, journal Journal, bootstrap Bootstrap) *Ledger {
	t.Helper()
	l, err := New(context.Background(), journal, bootstrap,
		WithLogger(zaptest.NewLogger(t)),
		WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return l
}

// funded returns a ledger with alice and bob eligible and alice holding
// 1000 units.
func funded(t *testing.T, rateBps uint64) (*Ledger, *memory.Journal) {
	t.Helper()
	journal := memory.NewJournal()
	l := newTestLedger(t, journal, testBootstrap(rateBps))
	ctx := context.Background()
	for _, account := range []common.Address{alice, bob} {
		mustOK(t)(l.SetComplianceStatus(ctx, authority, account, compliance.StatusEligible))
	}
	mustOK(t)(l.Mint(ctx, minter, alice, units(1000)))
	return l, journal
}

func mustOK(t *testing.T) func([]event.Event, error) []event.Event {
	t.Helper()
	return func(events []event.Event, err error) []event.Event {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return events
	}
}

func wantCode(t *testing.T, code apperrors.Code) func([]event.Event, error) {
	t.Helper()
	return func(events []event.Event, err error) {
		t.Helper()
		if !apperrors.HasCode(err, code) {
			t.Fatalf("error = %v, want %s", err, code)
		}
		if len(events) != 0 {
			t.Fatalf("rejected command returned events: %v", events)
		}
	}
}

func wantBalance(t *testing.T, l *Ledger, account common.Address, want uint64) {
	t.Helper()
	if got := l.BalanceOf(account); got.Cmp(units(want)) != 0 {
		t.Fatalf("balance of %s = %s, want %d", address.Key(account), got, want)
	}
}

// faultyJournal fails appends on demand.
type faultyJournal struct {
	*memory.Journal
	mu   sync.Mutex
	fail bool
}

var errDiskFull = errors.New("disk full")

func (j *faultyJournal) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	j.mu.Lock()
	fail := j.fail
	j.mu.Unlock()
	if fail {
		return nil, errDiskFull
	}
	return j.Journal.AppendEvents(ctx, events)
}

func (j *faultyJournal) setFail(fail bool) {
	j.mu.Lock()
	j.fail = fail
	j.mu.Unlock()
}
