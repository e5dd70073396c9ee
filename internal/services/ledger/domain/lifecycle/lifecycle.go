// Package lifecycle holds the Active/Paused switch.
package lifecycle

import (
	"fmt"

	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
)

// State is the ledger lifecycle state.
type State string

const (
	StateActive State = "active"
	StatePaused State = "paused"
)

const (
	EventTypePaused   event.Type = "lifecycle.paused"
	EventTypeUnpaused event.Type = "lifecycle.unpaused"
)

// Guard tracks whether balance-mutating operations are accepted.
type Guard struct {
	state State
}

// New returns a guard in the given state; an empty state means active.
func New(state State) *Guard {
	if state == "" {
		state = StateActive
	}
	return &Guard{state: state}
}

func (g *Guard) State() State { return g.state }
func (g *Guard) Paused() bool { return g.state == StatePaused }

// CheckOpen fails with CONTRACT_PAUSED while paused.
func (g *Guard) CheckOpen() error {
	if g.Paused() {
		return apperrors.New(apperrors.CodeContractPaused, "ledger is paused")
	}
	return nil
}

// CheckTransition fails with ALREADY_IN_STATE when target is current.
func (g *Guard) CheckTransition(target State) error {
	if target != StateActive && target != StatePaused {
		return apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("unknown lifecycle state %q", target))
	}
	if g.state == target {
		return apperrors.WithMetadata(apperrors.CodeAlreadyInState,
			fmt.Sprintf("ledger is already %s", target), map[string]string{"state": string(target)})
	}
	return nil
}

// EventFor returns the event type that moves the guard into target.
func EventFor(target State) event.Type {
	if target == StatePaused {
		return EventTypePaused
	}
	return EventTypeUnpaused
}

// RegisterEvents registers lifecycle events. Both carry an empty payload.
func RegisterEvents(registry *event.Registry) error {
	for _, t := range []event.Type{EventTypePaused, EventTypeUnpaused} {
		if err := registry.Register(event.Definition{Type: t, ValidatePayload: event.ValidatorFor[struct{}](nil)}); err != nil {
			return err
		}
	}
	return nil
}

// Apply folds lifecycle events.
func (g *Guard) Apply(evt event.Event) error {
	switch evt.Type {
	case EventTypePaused:
		g.state = StatePaused
	case EventTypeUnpaused:
		g.state = StateActive
	}
	return nil
}
