// Package migration coordinates the one-way move of balances to a successor
// ledger approved by the owner.
//
// The successor is an opaque identifier. This ledger never calls it; the
// successor reads the migration records and credits accounts on its own.
package migration

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/trace"
)

const (
	EventTypeSuccessorApproved event.Type = "migration.successor_approved"
	EventTypeLedgerDelegated   event.Type = "migration.ledger_delegated"
)

// Policy holds the configurable parts of migration.
type Policy struct {
	RequireFullBalance bool `json:"require_full_balance" toml:"require_full_balance"`
}

type SuccessorApprovedPayload struct {
	Successor common.Address  `json:"successor"`
	Previous  *common.Address `json:"previous,omitempty"`
}

type LedgerDelegatedPayload struct {
	Successor common.Address `json:"successor"`
}

// Record is a completed migration. Records are never removed.
type Record struct {
	Seq       uint64         `json:"seq"`
	Account   common.Address `json:"account"`
	Amount    amount.Amount  `json:"amount"`
	Successor common.Address `json:"successor"`
	Timestamp time.Time      `json:"timestamp"`
}

// Coordinator is the folded migration state.
type Coordinator struct {
	policy      Policy
	approved    *common.Address
	delegatedTo *common.Address
	records     []Record
}

// New returns a coordinator with no approved successor.
func New(policy Policy) *Coordinator {
	return &Coordinator{policy: policy}
}

func (c *Coordinator) Policy() Policy  { return c.policy }
func (c *Coordinator) Delegated() bool { return c.delegatedTo != nil }

// ApprovedSuccessor returns the approved successor, if any.
func (c *Coordinator) ApprovedSuccessor() (common.Address, bool) {
	if c.approved == nil {
		return common.Address{}, false
	}
	return *c.approved, true
}

// Records returns the migrations of account, or all when account is zero.
func (c *Coordinator) Records(account common.Address) []Record {
	out := make([]Record, 0)
	for _, r := range c.records {
		if address.IsZero(account) || r.Account == account {
			out = append(out, r)
		}
	}
	return out
}

// CheckOpen fails with LEDGER_DELEGATED once the whole ledger has moved.
func (c *Coordinator) CheckOpen() error {
	if c.delegatedTo != nil {
		successor := *c.delegatedTo
		return apperrors.WithMetadata(apperrors.CodeLedgerDelegated,
			fmt.Sprintf("ledger delegated to %s", address.Key(successor)),
			map[string]string{"successor": address.Key(successor)})
	}
	return nil
}

// CheckApprove validates approving successor.
func (c *Coordinator) CheckApprove(successor common.Address) error {
	if err := address.RequireNonZero("successor", successor); err != nil {
		return err
	}
	if c.approved != nil && *c.approved == successor {
		return apperrors.WithMetadata(apperrors.CodeAlreadyInState,
			fmt.Sprintf("%s is already the approved successor", address.Key(successor)),
			map[string]string{"state": "approved"})
	}
	return nil
}

// CheckDelegateBalance validates a balance migration. Checks run in order:
// holder, successor, balance, then policy.
func (c *Coordinator) CheckDelegateBalance(caller, owner, account common.Address, amt, balance amount.Amount, successor common.Address) error {
	if caller != account && caller != owner {
		return apperrors.New(apperrors.CodeNotHolder, "caller may not migrate this account")
	}
	if err := address.RequireNonZero("account", account); err != nil {
		return err
	}
	if amt.IsZero() {
		return apperrors.New(apperrors.CodeInvalidAmount, "migration amount must be positive")
	}
	if c.approved == nil || *c.approved != successor {
		return apperrors.WithMetadata(apperrors.CodeSuccessorNotApproved,
			fmt.Sprintf("%s is not the approved successor", address.Key(successor)),
			map[string]string{"successor": address.Key(successor)})
	}
	if amt.Gt(balance) {
		return apperrors.WithMetadata(apperrors.CodeInsufficientBalance,
			fmt.Sprintf("balance %s is less than %s", balance, amt),
			map[string]string{"account": address.Key(account), "balance": balance.String()})
	}
	if c.policy.RequireFullBalance && amt.Cmp(balance) != 0 {
		return apperrors.WithMetadata(apperrors.CodePartialMigrationDisabled,
			fmt.Sprintf("migration must move the full balance %s", balance),
			map[string]string{"balance": balance.String()})
	}
	return nil
}

// CheckDelegateLedger validates delegating the whole ledger.
func (c *Coordinator) CheckDelegateLedger() error {
	if c.approved == nil {
		return apperrors.New(apperrors.CodeSuccessorNotApproved, "no successor is approved")
	}
	if c.delegatedTo != nil {
		return apperrors.WithMetadata(apperrors.CodeAlreadyInState, "ledger is already delegated",
			map[string]string{"state": "delegated"})
	}
	return nil
}

// RegisterEvents registers migration state events. balance.migrated is
// registered by the trace package.
func RegisterEvents(registry *event.Registry) error {
	if err := registry.Register(event.Definition{
		Type: EventTypeSuccessorApproved,
		ValidatePayload: event.ValidatorFor(func(p SuccessorApprovedPayload) error {
			return address.RequireNonZero("successor", p.Successor)
		}),
	}); err != nil {
		return err
	}
	return registry.Register(event.Definition{
		Type: EventTypeLedgerDelegated,
		ValidatePayload: event.ValidatorFor(func(p LedgerDelegatedPayload) error {
			return address.RequireNonZero("successor", p.Successor)
		}),
	})
}

// Apply folds migration events, including balance.migrated.
func (c *Coordinator) Apply(evt event.Event) error {
	switch evt.Type {
	case EventTypeSuccessorApproved:
		p, err := event.DecodePayload[SuccessorApprovedPayload](evt.PayloadJSON)
		if err != nil {
			return fmt.Errorf("apply seq %d: %w", evt.Seq, err)
		}
		c.approved = &p.Successor
	case EventTypeLedgerDelegated:
		p, err := event.DecodePayload[LedgerDelegatedPayload](evt.PayloadJSON)
		if err != nil {
			return fmt.Errorf("apply seq %d: %w", evt.Seq, err)
		}
		c.delegatedTo = &p.Successor
	case trace.EventTypeMigrated:
		m, err := event.DecodePayload[trace.Movement](evt.PayloadJSON)
		if err != nil {
			return fmt.Errorf("apply seq %d: %w", evt.Seq, err)
		}
		if m.Successor == nil {
			return fmt.Errorf("apply seq %d: migration without successor", evt.Seq)
		}
		c.records = append(c.records, Record{
			Seq:       evt.Seq,
			Account:   m.From,
			Amount:    m.Amount,
			Successor: *m.Successor,
			Timestamp: evt.Timestamp,
		})
	}
	return nil
}
