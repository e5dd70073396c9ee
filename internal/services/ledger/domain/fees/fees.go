// Package fees computes the fee leg of qualifying operations.
//
// All arithmetic is integer: the rate part is gross*bps/10000 truncated
// toward zero, a fixed part is added, and the sum is clamped to [Min, Max].
package fees

import (
	"fmt"

	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
)

// Operation names the kinds of movement a fee can apply to.
type Operation string

const (
	OpTransfer Operation = "transfer"
	OpMint     Operation = "mint"
	OpBurn     Operation = "burn"
	OpMigrate  Operation = "migrate"
)

// Schedule is the fee configuration. The zero value charges nothing.
type Schedule struct {
	RateBps uint64        `json:"rate_bps" toml:"rate_bps"`
	Fixed   amount.Amount `json:"fixed" toml:"fixed"`
	Min     amount.Amount `json:"min" toml:"min"`
	// Max of zero means no upper bound.
	Max amount.Amount `json:"max" toml:"max"`
}

// Validate checks the schedule bounds.
func (s Schedule) Validate() error {
	if s.RateBps > amount.BasisPointsDenominator {
		return apperrors.New(apperrors.CodeInvalidArgument,
			fmt.Sprintf("fee rate %d bps exceeds %d", s.RateBps, amount.BasisPointsDenominator))
	}
	if !s.Max.IsZero() && s.Min.Gt(s.Max) {
		return apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("fee min %s exceeds max %s", s.Min, s.Max))
	}
	return nil
}

// Applicability selects which operations are charged.
type Applicability struct {
	Transfer bool `json:"transfer" toml:"transfer"`
	Mint     bool `json:"mint" toml:"mint"`
	Burn     bool `json:"burn" toml:"burn"`
	Migrate  bool `json:"migrate" toml:"migrate"`
}

// DefaultApplicability charges transfers only.
func DefaultApplicability() Applicability {
	return Applicability{Transfer: true}
}

// Applies reports whether op is charged.
func (a Applicability) Applies(op Operation) bool {
	switch op {
	case OpTransfer:
		return a.Transfer
	case OpMint:
		return a.Mint
	case OpBurn:
		return a.Burn
	case OpMigrate:
		return a.Migrate
	}
	return false
}

// Engine holds the active schedule.
type Engine struct {
	schedule      Schedule
	applicability Applicability
}

// New returns an engine with the given configuration.
func New(schedule Schedule, applicability Applicability) *Engine {
	return &Engine{schedule: schedule, applicability: applicability}
}

func (e *Engine) Schedule() Schedule           { return e.schedule }
func (e *Engine) Applicability() Applicability { return e.applicability }

// Compute splits gross into net and fee under the current schedule.
func (e *Engine) Compute(gross amount.Amount) (net, fee amount.Amount, err error) {
	return Compute(e.schedule, gross)
}

// ComputeFor is Compute for op, returning a zero fee when op is exempt.
func (e *Engine) ComputeFor(op Operation, gross amount.Amount) (net, fee amount.Amount, err error) {
	if !e.applicability.Applies(op) {
		return gross, amount.Zero(), nil
	}
	return Compute(e.schedule, gross)
}

// Compute splits gross into net and fee. It fails with FEE_EXCEEDS_AMOUNT
// rather than produce a negative net.
func Compute(s Schedule, gross amount.Amount) (net, fee amount.Amount, err error) {
	fee, err = gross.MulDiv(s.RateBps, amount.BasisPointsDenominator)
	if err != nil {
		return amount.Zero(), amount.Zero(), err
	}
	if fee, err = fee.Add(s.Fixed); err != nil {
		return amount.Zero(), amount.Zero(), err
	}
	fee = amount.Max(fee, s.Min)
	if !s.Max.IsZero() {
		fee = amount.Min(fee, s.Max)
	}
	net, ok := gross.Sub(fee)
	if !ok {
		return amount.Zero(), amount.Zero(), apperrors.WithMetadata(apperrors.CodeFeeExceedsAmount,
			fmt.Sprintf("fee %s exceeds amount %s", fee, gross),
			map[string]string{"fee": fee.String(), "amount": gross.String()})
	}
	return net, fee, nil
}

// EventTypeScheduleChanged records a schedule change.
const EventTypeScheduleChanged event.Type = "fee.schedule_changed"

// ScheduleChangedPayload is the fee.schedule_changed payload.
type ScheduleChangedPayload struct {
	Schedule      Schedule      `json:"schedule"`
	Applicability Applicability `json:"applicability"`
}

// RegisterEvents registers fee events.
func RegisterEvents(registry *event.Registry) error {
	return registry.Register(event.Definition{
		Type: EventTypeScheduleChanged,
		ValidatePayload: event.ValidatorFor(func(p ScheduleChangedPayload) error {
			return p.Schedule.Validate()
		}),
	})
}

// Apply folds fee events. A change affects only later operations.
func (e *Engine) Apply(evt event.Event) error {
	if evt.Type != EventTypeScheduleChanged {
		return nil
	}
	p, err := event.DecodePayload[ScheduleChangedPayload](evt.PayloadJSON)
	if err != nil {
		return fmt.Errorf("apply seq %d: %w", evt.Seq, err)
	}
	e.schedule = p.Schedule
	e.applicability = p.Applicability
	return nil
}
