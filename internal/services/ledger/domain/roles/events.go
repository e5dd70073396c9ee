package roles

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
)

const (
	EventTypeOwnershipProposed event.Type = "ownership.proposed"
	EventTypeOwnershipAccepted event.Type = "ownership.accepted"
	EventTypeProposalRevoked   event.Type = "ownership.proposal_revoked"
	EventTypeSystemWallet      event.Type = "roles.system_wallet_changed"
	EventTypeMinterAdded       event.Type = "roles.minter_added"
	EventTypeMinterRemoved     event.Type = "roles.minter_removed"
	EventTypeAuthorityChanged  event.Type = "compliance.authority_changed"
)

type OwnershipProposedPayload struct {
	Owner     common.Address `json:"owner"`
	Candidate common.Address `json:"candidate"`
}

type OwnershipAcceptedPayload struct {
	PreviousOwner common.Address `json:"previous_owner"`
	Owner         common.Address `json:"owner"`
}

type ProposalRevokedPayload struct {
	Candidate common.Address `json:"candidate"`
}

type SystemWalletPayload struct {
	Previous common.Address `json:"previous"`
	Wallet   common.Address `json:"wallet"`
}

type MinterPayload struct {
	Minter common.Address `json:"minter"`
}

type AuthorityPayload struct {
	Previous  common.Address `json:"previous"`
	Authority common.Address `json:"authority"`
}

// RegisterEvents registers role events.
func RegisterEvents(registry *event.Registry) error {
	defs := []event.Definition{
		{Type: EventTypeOwnershipProposed, ValidatePayload: event.ValidatorFor(func(p OwnershipProposedPayload) error {
			return address.RequireNonZero("candidate", p.Candidate)
		})},
		{Type: EventTypeOwnershipAccepted, ValidatePayload: event.ValidatorFor(func(p OwnershipAcceptedPayload) error {
			return address.RequireNonZero("owner", p.Owner)
		})},
		{Type: EventTypeProposalRevoked, ValidatePayload: event.ValidatorFor[ProposalRevokedPayload](nil)},
		{Type: EventTypeSystemWallet, ValidatePayload: event.ValidatorFor(func(p SystemWalletPayload) error {
			return address.RequireNonZero("wallet", p.Wallet)
		})},
		{Type: EventTypeMinterAdded, ValidatePayload: event.ValidatorFor(func(p MinterPayload) error {
			return address.RequireNonZero("minter", p.Minter)
		})},
		{Type: EventTypeMinterRemoved, ValidatePayload: event.ValidatorFor[MinterPayload](nil)},
		{Type: EventTypeAuthorityChanged, ValidatePayload: event.ValidatorFor[AuthorityPayload](nil)},
	}
	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Apply folds a committed role event.
func (r *Registry) Apply(evt event.Event) error {
	var err error
	switch evt.Type {
	case EventTypeOwnershipProposed:
		var p OwnershipProposedPayload
		if p, err = event.DecodePayload[OwnershipProposedPayload](evt.PayloadJSON); err == nil {
			r.pending = &p.Candidate
		}
	case EventTypeOwnershipAccepted:
		var p OwnershipAcceptedPayload
		if p, err = event.DecodePayload[OwnershipAcceptedPayload](evt.PayloadJSON); err == nil {
			r.owner = p.Owner
			r.pending = nil
		}
	case EventTypeProposalRevoked:
		r.pending = nil
	case EventTypeSystemWallet:
		var p SystemWalletPayload
		if p, err = event.DecodePayload[SystemWalletPayload](evt.PayloadJSON); err == nil {
			r.wallet = p.Wallet
		}
	case EventTypeMinterAdded:
		var p MinterPayload
		if p, err = event.DecodePayload[MinterPayload](evt.PayloadJSON); err == nil {
			r.minters[p.Minter] = struct{}{}
		}
	case EventTypeMinterRemoved:
		var p MinterPayload
		if p, err = event.DecodePayload[MinterPayload](evt.PayloadJSON); err == nil {
			delete(r.minters, p.Minter)
		}
	case EventTypeAuthorityChanged:
		var p AuthorityPayload
		if p, err = event.DecodePayload[AuthorityPayload](evt.PayloadJSON); err == nil {
			r.authority = p.Authority
		}
	}
	if err != nil {
		return fmt.Errorf("apply seq %d: %w", evt.Seq, err)
	}
	return nil
}
