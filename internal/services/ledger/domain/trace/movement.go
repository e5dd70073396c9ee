package trace

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
)

// Kind classifies a trace record.
type Kind string

const (
	KindTransfer  Kind = "Transfer"
	KindMint      Kind = "Mint"
	KindBurn      Kind = "Burn"
	KindMigrate   Kind = "Migrate"
	KindFeeCharge Kind = "FeeCharge"
)

// Balance-affecting event types. Each carries a Movement payload.
const (
	EventTypeTransferred event.Type = "balance.transferred"
	EventTypeMinted      event.Type = "supply.minted"
	EventTypeBurned      event.Type = "supply.burned"
	EventTypeMigrated    event.Type = "balance.migrated"
	EventTypeFeeCharged  event.Type = "fee.charged"
)

var kindByType = map[event.Type]Kind{
	EventTypeTransferred: KindTransfer,
	EventTypeMinted:      KindMint,
	EventTypeBurned:      KindBurn,
	EventTypeMigrated:    KindMigrate,
	EventTypeFeeCharged:  KindFeeCharge,
}

// KindOf maps an event type to its trace kind.
func KindOf(t event.Type) (Kind, bool) {
	kind, ok := kindByType[t]
	return kind, ok
}

// Movement is the payload of every balance-affecting event. The zero
// address on either side stands for supply: From zero mints, To zero burns
// or migrates.
type Movement struct {
	From              common.Address  `json:"from"`
	To                common.Address  `json:"to"`
	Amount            amount.Amount   `json:"amount"`
	ExternalReference string          `json:"external_reference,omitempty"`
	Successor         *common.Address `json:"successor,omitempty"`
}

// Validate checks the movement shape for the given kind.
func (m Movement) Validate(kind Kind) error {
	if m.Amount.IsZero() {
		return apperrors.New(apperrors.CodeInvalidAmount, "movement amount must be positive")
	}
	fromZero, toZero := address.IsZero(m.From), address.IsZero(m.To)
	switch kind {
	case KindTransfer:
		if fromZero || toZero {
			return shapeError(kind, "transfer legs must be non-zero accounts")
		}
	case KindMint:
		if !fromZero || toZero {
			return shapeError(kind, "mint must come from the zero address")
		}
	case KindBurn:
		if fromZero || !toZero {
			return shapeError(kind, "burn must go to the zero address")
		}
	case KindMigrate:
		if fromZero || !toZero {
			return shapeError(kind, "migration must go to the zero address")
		}
		if m.Successor == nil || address.IsZero(*m.Successor) {
			return shapeError(kind, "migration requires a successor")
		}
	case KindFeeCharge:
		if toZero {
			return shapeError(kind, "fee must be credited to the system wallet")
		}
	default:
		return shapeError(kind, "unknown kind")
	}
	if kind != KindMigrate && m.Successor != nil {
		return shapeError(kind, "successor is only valid for migrations")
	}
	if kind != KindBurn && m.ExternalReference != "" {
		return shapeError(kind, "external reference is only valid for burns")
	}
	return nil
}

func shapeError(kind Kind, msg string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidArgument,
		fmt.Sprintf("%s: %s", kind, msg), map[string]string{"kind": string(kind)})
}

// RegisterEvents registers the balance-affecting event types.
func RegisterEvents(registry *event.Registry) error {
	for eventType, kind := range kindByType {
		if err := registry.Register(event.Definition{
			Type:   eventType,
			Intent: event.IntentBalance,
			ValidatePayload: event.ValidatorFor(func(m Movement) error {
				return m.Validate(kind)
			}),
		}); err != nil {
			return err
		}
	}
	return nil
}

// Record is an immutable audit entry for a balance-affecting event.
type Record struct {
	Seq               uint64          `json:"seq"`
	Kind              Kind            `json:"kind"`
	From              common.Address  `json:"from"`
	To                common.Address  `json:"to"`
	Amount            amount.Amount   `json:"amount"`
	ExternalReference string          `json:"external_reference,omitempty"`
	Successor         *common.Address `json:"successor,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
}

// Touches reports whether the record debits or credits account.
func (r Record) Touches(account common.Address) bool {
	return r.From == account || r.To == account
}

// Project converts a journal event into a trace record. ok is false for
// events that do not move balances.
func Project(evt event.Event) (rec Record, ok bool, err error) {
	kind, ok := KindOf(evt.Type)
	if !ok {
		return Record{}, false, nil
	}
	movement, err := event.DecodePayload[Movement](evt.PayloadJSON)
	if err != nil {
		return Record{}, false, fmt.Errorf("project seq %d: %w", evt.Seq, err)
	}
	return Record{
		Seq:               evt.Seq,
		Kind:              kind,
		From:              movement.From,
		To:                movement.To,
		Amount:            movement.Amount,
		ExternalReference: movement.ExternalReference,
		Successor:         movement.Successor,
		Timestamp:         evt.Timestamp,
	}, true, nil
}
