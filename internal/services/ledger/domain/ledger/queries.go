package ledger

import (
	"iter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/compliance"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/fees"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/lifecycle"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/migration"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/token"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/trace"
)

// read runs fn against committed state.
func read[T any](l *Ledger, fn func(s *state) T) T {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return fn(l.state)
}

func (l *Ledger) BalanceOf(account common.Address) amount.Amount {
	return read(l, func(s *state) amount.Amount { return s.book.BalanceOf(account) })
}

func (l *Ledger) Allowance(owner, spender common.Address) amount.Amount {
	return read(l, func(s *state) amount.Amount { return s.book.Allowance(owner, spender) })
}

func (l *Ledger) TotalSupply() amount.Amount {
	return read(l, func(s *state) amount.Amount { return s.book.TotalSupply() })
}

// SupplyCeiling returns the cap and whether one is configured.
func (l *Ledger) SupplyCeiling() (amount.Amount, bool) {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.state.supply.Ceiling()
}

// Reconcile checks that balances sum to the total supply.
func (l *Ledger) Reconcile() error {
	return read(l, func(s *state) error { return s.book.Reconcile() })
}

func (l *Ledger) Owner() common.Address {
	return read(l, func(s *state) common.Address { return s.roles.Owner() })
}

func (l *Ledger) PendingOwner() (common.Address, bool) {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.state.roles.PendingOwner()
}

func (l *Ledger) SystemWallet() common.Address {
	return read(l, func(s *state) common.Address { return s.roles.SystemWallet() })
}

func (l *Ledger) Minters() []common.Address {
	return read(l, func(s *state) []common.Address { return s.roles.Minters() })
}

func (l *Ledger) ComplianceAuthority() common.Address {
	return read(l, func(s *state) common.Address { return s.roles.Authority() })
}

func (l *Ledger) Lifecycle() lifecycle.State {
	return read(l, func(s *state) lifecycle.State { return s.guard.State() })
}

func (l *Ledger) Paused() bool {
	return l.Lifecycle() == lifecycle.StatePaused
}

func (l *Ledger) ComplianceStatus(account common.Address) compliance.Status {
	return read(l, func(s *state) compliance.Status { return s.gate.Status(account) })
}

// CheckTransferEligible reports whether from may send to to. It returns a
// NOT_ELIGIBLE error naming the failing side.
func (l *Ledger) CheckTransferEligible(from, to common.Address) error {
	return read(l, func(s *state) error { return s.gate.CheckTransferEligible(from, to) })
}

// ComputeFee splits gross under the current transfer fee schedule.
func (l *Ledger) ComputeFee(gross amount.Amount) (net, fee amount.Amount, err error) {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.state.fees.ComputeFor(fees.OpTransfer, gross)
}

// FeeSchedule returns the schedule and which operations it applies to.
func (l *Ledger) FeeSchedule() (fees.Schedule, fees.Applicability) {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.state.fees.Schedule(), l.state.fees.Applicability()
}

func (l *Ledger) TokenInfo() token.Info {
	return read(l, func(s *state) token.Info { return s.token.Info() })
}

func (l *Ledger) ApprovedSuccessor() (common.Address, bool) {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.state.migration.ApprovedSuccessor()
}

func (l *Ledger) Delegated() bool {
	return read(l, func(s *state) bool { return s.migration.Delegated() })
}

// Migrations returns the migration records of account, or all records for
// the zero address.
func (l *Ledger) Migrations(account common.Address) []migration.Record {
	return read(l, func(s *state) []migration.Record { return s.migration.Records(account) })
}

// LastSeq returns the last committed sequence number.
func (l *Ledger) LastSeq() uint64 {
	return l.log.LastSeq()
}

// Query yields the trace records touching account with fromSeq <= Seq <=
// toSeq in ascending order; trace.Latest leaves the range open. The sequence
// is lazy and may be ranged over more than once.
func (l *Ledger) Query(account common.Address, fromSeq, toSeq uint64) iter.Seq[trace.Record] {
	return l.log.Query(account, fromSeq, toSeq)
}

// Records yields every trace record in the range, across accounts.
func (l *Ledger) Records(fromSeq, toSeq uint64) iter.Seq[trace.Record] {
	return l.log.Records(fromSeq, toSeq)
}

// Record returns the trace record at seq.
func (l *Ledger) Record(seq uint64) (trace.Record, bool) {
	return l.log.Record(seq)
}

// Events yields committed journal events after afterSeq. Indexers use it
// to consume notifications.
func (l *Ledger) Events(afterSeq uint64) iter.Seq[event.Event] {
	return l.log.Events(afterSeq)
}
