// Package compliance gates which accounts may send or receive units.
//
// Status is kept per account and checked at the transfer boundary, so
// restricting an account blocks its future movements without touching the
// balance it already holds.
package compliance

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
)

// Status is an account's compliance status.
type Status string

const (
	StatusUnverified Status = "unverified"
	StatusEligible   Status = "eligible"
	StatusRestricted Status = "restricted"
)

// ParseStatus accepts the lowercase status names.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusUnverified, StatusEligible, StatusRestricted:
		return s, nil
	}
	return "", apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("unknown compliance status %q", raw))
}

// Side names the party that failed an eligibility check.
type Side string

const (
	SideSender    Side = "sender"
	SideRecipient Side = "recipient"
)

// Policy holds the configurable parts of the gate.
type Policy struct {
	// AllowMintToUnverified lets minters seed accounts that have not been
	// verified yet. Restricted accounts are never mint targets.
	AllowMintToUnverified bool `json:"allow_mint_to_unverified" toml:"allow_mint_to_unverified"`
}

// EventTypeStatusChanged records a status change.
const EventTypeStatusChanged event.Type = "compliance.status_changed"

// StatusChangedPayload is the compliance.status_changed payload.
type StatusChangedPayload struct {
	Account  common.Address `json:"account"`
	Status   Status         `json:"status"`
	Previous Status         `json:"previous"`
}

// Gate is the folded compliance state.
type Gate struct {
	policy   Policy
	statuses map[common.Address]Status
}

// New returns a gate where every account starts unverified.
func New(policy Policy) *Gate {
	return &Gate{policy: policy, statuses: make(map[common.Address]Status)}
}

func (g *Gate) Policy() Policy { return g.policy }

// Status returns the account's status.
func (g *Gate) Status(account common.Address) Status {
	if s, ok := g.statuses[account]; ok {
		return s
	}
	return StatusUnverified
}

// CheckTransferEligible requires both parties to be eligible. The zero
// address stands for supply and is exempt on either side.
func (g *Gate) CheckTransferEligible(from, to common.Address) error {
	if err := g.checkSide(from, SideSender); err != nil {
		return err
	}
	return g.checkSide(to, SideRecipient)
}

// CheckMintRecipient checks the recipient of newly issued units.
func (g *Gate) CheckMintRecipient(to common.Address) error {
	if g.policy.AllowMintToUnverified && g.Status(to) == StatusUnverified {
		return nil
	}
	return g.checkSide(to, SideRecipient)
}

func (g *Gate) checkSide(account common.Address, side Side) error {
	if address.IsZero(account) {
		return nil
	}
	status := g.Status(account)
	if status == StatusEligible {
		return nil
	}
	return apperrors.WithMetadata(apperrors.CodeNotEligible,
		fmt.Sprintf("%s %s is %s", side, address.Key(account), status),
		map[string]string{"side": string(side), "account": address.Key(account), "status": string(status)})
}

// CheckSetStatus validates a status change. The caller's authority is
// checked by the role registry.
func (g *Gate) CheckSetStatus(account common.Address, status Status) error {
	if err := address.RequireNonZero("account", account); err != nil {
		return err
	}
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	if g.Status(account) == status {
		return apperrors.WithMetadata(apperrors.CodeAlreadyInState,
			fmt.Sprintf("%s is already %s", address.Key(account), status), map[string]string{"state": string(status)})
	}
	return nil
}

// RegisterEvents registers compliance events.
func RegisterEvents(registry *event.Registry) error {
	return registry.Register(event.Definition{
		Type: EventTypeStatusChanged,
		ValidatePayload: event.ValidatorFor(func(p StatusChangedPayload) error {
			if err := address.RequireNonZero("account", p.Account); err != nil {
				return err
			}
			_, err := ParseStatus(string(p.Status))
			return err
		}),
	})
}

// Apply folds compliance events.
func (g *Gate) Apply(evt event.Event) error {
	if evt.Type != EventTypeStatusChanged {
		return nil
	}
	p, err := event.DecodePayload[StatusChangedPayload](evt.PayloadJSON)
	if err != nil {
		return fmt.Errorf("apply seq %d: %w", evt.Seq, err)
	}
	if p.Status == StatusUnverified {
		delete(g.statuses, p.Account)
	} else {
		g.statuses[p.Account] = p.Status
	}
	return nil
}
