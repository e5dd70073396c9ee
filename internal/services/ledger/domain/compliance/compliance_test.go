package compliance

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
)

var (
	alice = address.MustParse("0x00000000000000000000000000000000000000a1")
	bob   = address.MustParse("0x00000000000000000000000000000000000000b2")
	carol = address.MustParse("0x00000000000000000000000000000000000000c3")
)

func setStatus(t *testing.T, g *Gate, account common.Address, status Status) {
	t.Helper()
	raw, _ := json.Marshal(StatusChangedPayload{Account: account, Status: status, Previous: g.Status(account)})
	if err := g.Apply(event.Event{Type: EventTypeStatusChanged, PayloadJSON: raw}); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func TestCheckTransferEligible(t *testing.T) {
	g := New(Policy{})
	setStatus(t, g, alice, StatusEligible)
	setStatus(t, g, bob, StatusEligible)
	setStatus(t, g, carol, StatusRestricted)

	tests := []struct {
		name     string
		from, to common.Address
		wantSide Side
	}{
		{name: "both eligible", from: alice, to: bob},
		{name: "mint source exempt", from: address.Zero, to: alice},
		{name: "burn sink exempt", from: alice, to: address.Zero},
		{name: "restricted sender", from: carol, to: alice, wantSide: SideSender},
		{name: "restricted recipient", from: alice, to: carol, wantSide: SideRecipient},
		{name: "unverified recipient", from: alice, to: address.MustParse("0x00000000000000000000000000000000000000e5"), wantSide: SideRecipient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.CheckTransferEligible(tt.from, tt.to)
			if tt.wantSide == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var domainErr *apperrors.Error
			if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeNotEligible {
				t.Fatalf("error = %v, want NOT_ELIGIBLE", err)
			}
			if domainErr.Metadata["side"] != string(tt.wantSide) {
				t.Fatalf("side = %q, want %q", domainErr.Metadata["side"], tt.wantSide)
			}
		})
	}
}

func TestCheckMintRecipient(t *testing.T) {
	strict := New(Policy{})
	if err := strict.CheckMintRecipient(alice); !apperrors.HasCode(err, apperrors.CodeNotEligible) {
		t.Fatalf("strict unverified = %v", err)
	}

	lenient := New(Policy{AllowMintToUnverified: true})
	if err := lenient.CheckMintRecipient(alice); err != nil {
		t.Fatalf("lenient unverified: %v", err)
	}
	setStatus(t, lenient, carol, StatusRestricted)
	if err := lenient.CheckMintRecipient(carol); !apperrors.HasCode(err, apperrors.CodeNotEligible) {
		t.Fatalf("lenient restricted = %v", err)
	}
}

func TestCheckSetStatus(t *testing.T) {
	g := New(Policy{})
	if err := g.CheckSetStatus(alice, StatusUnverified); !apperrors.HasCode(err, apperrors.CodeAlreadyInState) {
		t.Fatalf("same status = %v", err)
	}
	if err := g.CheckSetStatus(address.Zero, StatusEligible); !apperrors.HasCode(err, apperrors.CodeInvalidArgument) {
		t.Fatalf("zero account = %v", err)
	}
	if err := g.CheckSetStatus(alice, "frozen"); !apperrors.HasCode(err, apperrors.CodeInvalidArgument) {
		t.Fatalf("unknown status = %v", err)
	}
	if err := g.CheckSetStatus(alice, StatusEligible); err != nil {
		t.Fatalf("set eligible: %v", err)
	}
}

func TestRestrictingKeepsStatusPerAccount(t *testing.T) {
	g := New(Policy{})
	setStatus(t, g, alice, StatusEligible)
	setStatus(t, g, alice, StatusRestricted)
	if g.Status(alice) != StatusRestricted || g.Status(bob) != StatusUnverified {
		t.Fatalf("statuses = %s, %s", g.Status(alice), g.Status(bob))
	}
	setStatus(t, g, alice, StatusUnverified)
	if g.Status(alice) != StatusUnverified {
		t.Fatalf("status = %s", g.Status(alice))
	}
}
