package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/accountbook"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/compliance"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/fees"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/lifecycle"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/migration"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/roles"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/supply"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/token"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/trace"
)

// EventTypeInitialized is the genesis event. Its payload is the Bootstrap.
const EventTypeInitialized event.Type = "ledger.initialized"

// Bootstrap is the configuration a new ledger starts from. It is written to
// the journal as the genesis event, so later restarts ignore the value
// passed to New and rebuild from the journal instead.
type Bootstrap struct {
	Token               token.Info          `json:"token"`
	Owner               common.Address      `json:"owner"`
	SystemWallet        common.Address      `json:"system_wallet"`
	ComplianceAuthority common.Address      `json:"compliance_authority"`
	Minters             []common.Address    `json:"minters"`
	SupplyCeiling       amount.Amount       `json:"supply_ceiling"`
	FeeSchedule         fees.Schedule       `json:"fee_schedule"`
	FeeApplicability    *fees.Applicability `json:"fee_applicability,omitempty"`
	Compliance          compliance.Policy   `json:"compliance"`
	Migration           migration.Policy    `json:"migration"`
}

// Normalize validates the bootstrap and fills defaults.
func (b Bootstrap) Normalize() (Bootstrap, error) {
	info, err := b.Token.Normalize()
	if err != nil {
		return Bootstrap{}, err
	}
	b.Token = info
	if err := b.roleConfig().Validate(); err != nil {
		return Bootstrap{}, err
	}
	if err := b.FeeSchedule.Validate(); err != nil {
		return Bootstrap{}, err
	}
	if b.FeeApplicability == nil {
		def := fees.DefaultApplicability()
		b.FeeApplicability = &def
	}
	if b.Minters == nil {
		b.Minters = []common.Address{}
	}
	return b, nil
}

func (b Bootstrap) roleConfig() roles.Config {
	return roles.Config{
		Owner:               b.Owner,
		SystemWallet:        b.SystemWallet,
		ComplianceAuthority: b.ComplianceAuthority,
		Minters:             b.Minters,
	}
}

// state is the folded ledger state. Each component owns its slice of it and
// folds the events it recognizes.
type state struct {
	book      *accountbook.Book
	roles     *roles.Registry
	guard     *lifecycle.Guard
	gate      *compliance.Gate
	fees      *fees.Engine
	supply    *supply.Controller
	migration *migration.Coordinator
	token     *token.Metadata
}

func newState(b Bootstrap) *state {
	applicability := fees.DefaultApplicability()
	if b.FeeApplicability != nil {
		applicability = *b.FeeApplicability
	}
	return &state{
		book:      accountbook.New(),
		roles:     roles.New(b.roleConfig()),
		guard:     lifecycle.New(lifecycle.StateActive),
		gate:      compliance.New(b.Compliance),
		fees:      fees.New(b.FeeSchedule, applicability),
		supply:    supply.New(b.SupplyCeiling),
		migration: migration.New(b.Migration),
		token:     token.New(b.Token),
	}
}

type applier interface {
	Apply(evt event.Event) error
}

func (s *state) appliers() []applier {
	return []applier{s.book, s.roles, s.guard, s.gate, s.fees, s.migration, s.token}
}

// apply folds one committed event into every component.
func (s *state) apply(evt event.Event) error {
	for _, a := range s.appliers() {
		if err := a.Apply(evt); err != nil {
			return err
		}
	}
	return nil
}

func registerEvents(registry *event.Registry) error {
	if err := registry.Register(event.Definition{
		Type: EventTypeInitialized,
		ValidatePayload: event.ValidatorFor(func(b Bootstrap) error {
			_, err := b.Normalize()
			return err
		}),
	}); err != nil {
		return err
	}
	registrars := []func(*event.Registry) error{
		accountbook.RegisterEvents,
		roles.RegisterEvents,
		lifecycle.RegisterEvents,
		compliance.RegisterEvents,
		fees.RegisterEvents,
		migration.RegisterEvents,
		token.RegisterEvents,
		trace.RegisterEvents,
	}
	for _, register := range registrars {
		if err := register(registry); err != nil {
			return err
		}
	}
	return nil
}
