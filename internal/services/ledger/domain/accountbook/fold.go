package accountbook

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/trace"
)

// EventTypeAllowanceApproved records the new allowance value.
const EventTypeAllowanceApproved event.Type = "allowance.approved"

// AllowancePayload is the allowance.approved payload. Amount is the value
// after the change, not a delta.
type AllowancePayload struct {
	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
	Amount  amount.Amount  `json:"amount"`
}

// RegisterEvents registers the events owned by the account book.
func RegisterEvents(registry *event.Registry) error {
	return registry.Register(event.Definition{
		Type: EventTypeAllowanceApproved,
		ValidatePayload: event.ValidatorFor(func(p AllowancePayload) error {
			if err := address.RequireNonZero("owner", p.Owner); err != nil {
				return err
			}
			return address.RequireNonZero("spender", p.Spender)
		}),
	})
}

// Apply folds a committed event into the book. Events the book does not own
// are ignored.
func (b *Book) Apply(evt event.Event) error {
	if evt.Type == EventTypeAllowanceApproved {
		p, err := event.DecodePayload[AllowancePayload](evt.PayloadJSON)
		if err != nil {
			return fmt.Errorf("apply seq %d: %w", evt.Seq, err)
		}
		d := b.Draft()
		d.SetAllowance(p.Owner, p.Spender, p.Amount)
		d.Commit()
		return nil
	}
	if _, ok := trace.KindOf(evt.Type); !ok {
		return nil
	}
	m, err := event.DecodePayload[trace.Movement](evt.PayloadJSON)
	if err != nil {
		return fmt.Errorf("apply seq %d: %w", evt.Seq, err)
	}
	d := b.Draft()
	if err := d.Move(m.From, m.To, m.Amount); err != nil {
		return fmt.Errorf("apply seq %d: %w", evt.Seq, err)
	}
	d.Commit()
	return nil
}
