package accountbook

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/trace"
)

var (
	alice = address.MustParse("0x00000000000000000000000000000000000000a1")
	bob   = address.MustParse("0x00000000000000000000000000000000000000b2")
	carol = address.MustParse("0x00000000000000000000000000000000000000c3")
)

func seeded(t *testing.T, units uint64) *Book {
	t.Helper()
	book := New()
	d := book.Draft()
	if err := d.Move(address.Zero, alice, amount.New(units)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	d.Commit()
	return book
}

func TestMoveKeepsSupplyInvariant(t *testing.T) {
	book := seeded(t, 1000)
	d := book.Draft()
	if err := d.Move(alice, bob, amount.New(297)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := d.Move(alice, carol, amount.New(3)); err != nil {
		t.Fatalf("fee: %v", err)
	}
	if err := d.Move(bob, address.Zero, amount.New(97)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	d.Commit()

	checks := []struct {
		name string
		got  amount.Amount
		want uint64
	}{
		{"alice", book.BalanceOf(alice), 700},
		{"bob", book.BalanceOf(bob), 200},
		{"carol", book.BalanceOf(carol), 3},
		{"supply", book.TotalSupply(), 903},
	}
	for _, c := range checks {
		if c.got.Cmp(amount.New(c.want)) != 0 {
			t.Fatalf("%s = %s, want %d", c.name, c.got, c.want)
		}
	}
	if err := book.Reconcile(); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
}

func TestDraftIsolatedUntilCommit(t *testing.T) {
	book := seeded(t, 10)
	d := book.Draft()
	if err := d.Move(alice, bob, amount.New(4)); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := d.BalanceOf(bob); got.Cmp(amount.New(4)) != 0 {
		t.Fatalf("draft bob = %s", got)
	}
	if !book.BalanceOf(bob).IsZero() {
		t.Fatal("book changed before commit")
	}
}

func TestMoveErrors(t *testing.T) {
	tests := []struct {
		name     string
		from, to common.Address
		amt      amount.Amount
		code     apperrors.Code
	}{
		{name: "insufficient", from: alice, to: bob, amt: amount.New(11), code: apperrors.CodeInsufficientBalance},
		{name: "unknown sender", from: bob, to: alice, amt: amount.New(1), code: apperrors.CodeInsufficientBalance},
		{name: "zero amount", from: alice, to: bob, amt: amount.Zero(), code: apperrors.CodeInvalidAmount},
		{name: "zero to zero", amt: amount.New(1), code: apperrors.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := seeded(t, 10)
			err := book.Draft().Move(tt.from, tt.to, tt.amt)
			if !apperrors.HasCode(err, tt.code) {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestMintOverflow(t *testing.T) {
	book := New()
	largest := amount.MustParse("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	d := book.Draft()
	if err := d.Move(address.Zero, alice, largest); err != nil {
		t.Fatalf("mint max: %v", err)
	}
	d.Commit()
	err := book.Draft().Move(address.Zero, bob, amount.New(1))
	if !apperrors.HasCode(err, apperrors.CodeAmountOverflow) {
		t.Fatalf("error = %v, want overflow", err)
	}
}

func TestAllowanceOperations(t *testing.T) {
	book := New()
	d := book.Draft()
	d.SetAllowance(alice, bob, amount.New(100))
	d.SetAllowance(alice, bob, amount.New(50))
	if got := d.Allowance(alice, bob); got.Cmp(amount.New(50)) != 0 {
		t.Fatalf("approve overwrites: got %s", got)
	}
	if err := d.IncreaseAllowance(alice, bob, amount.New(25)); err != nil {
		t.Fatalf("increase: %v", err)
	}
	if err := d.SpendAllowance(alice, bob, amount.New(70)); err != nil {
		t.Fatalf("spend: %v", err)
	}
	if err := d.SpendAllowance(alice, bob, amount.New(6)); !apperrors.HasCode(err, apperrors.CodeInsufficientAllowance) {
		t.Fatalf("overspend error = %v", err)
	}
	if err := d.DecreaseAllowance(alice, bob, amount.New(6)); !apperrors.HasCode(err, apperrors.CodeAllowanceUnderflow) {
		t.Fatalf("underflow error = %v", err)
	}
	if err := d.DecreaseAllowance(alice, bob, amount.New(5)); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	d.Commit()
	if !book.Allowance(alice, bob).IsZero() {
		t.Fatalf("allowance = %s, want 0", book.Allowance(alice, bob))
	}
	if !book.Allowance(bob, alice).IsZero() {
		t.Fatal("allowances are directional")
	}
}

func TestReconcileDetectsMismatch(t *testing.T) {
	book := seeded(t, 10)
	book.supply = amount.New(11)
	if err := book.Reconcile(); err == nil {
		t.Fatal("expected mismatch")
	}
}

func TestApplyFoldsEvents(t *testing.T) {
	book := New()
	events := []struct {
		eventType event.Type
		payload   any
	}{
		{trace.EventTypeMinted, trace.Movement{To: alice, Amount: amount.New(1000)}},
		{trace.EventTypeTransferred, trace.Movement{From: alice, To: bob, Amount: amount.New(297)}},
		{trace.EventTypeFeeCharged, trace.Movement{From: alice, To: carol, Amount: amount.New(3)}},
		{EventTypeAllowanceApproved, AllowancePayload{Owner: bob, Spender: carol, Amount: amount.New(40)}},
		{"lifecycle.paused", struct{}{}},
	}
	for i, e := range events {
		payload, err := json.Marshal(e.payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		evt := event.Event{Seq: uint64(i + 1), Type: e.eventType, Timestamp: time.Now(), PayloadJSON: payload}
		if err := book.Apply(evt); err != nil {
			t.Fatalf("apply %s: %v", e.eventType, err)
		}
	}
	if got := book.BalanceOf(alice); got.Cmp(amount.New(700)) != 0 {
		t.Fatalf("alice = %s", got)
	}
	if got := book.Allowance(bob, carol); got.Cmp(amount.New(40)) != 0 {
		t.Fatalf("allowance = %s", got)
	}
	if got := book.TotalSupply(); got.Cmp(amount.New(1000)) != 0 {
		t.Fatalf("supply = %s", got)
	}
	if book.Holders() != 3 {
		t.Fatalf("holders = %d", book.Holders())
	}
}
