package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/accountbook"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/command"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/compliance"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/fees"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/lifecycle"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/migration"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/roles"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/token"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/trace"
)

// legs is a principal movement plus its optional fee leg.
type legs struct {
	kind      trace.Kind
	principal trace.Movement
	fee       trace.Movement
}

var eventTypeByKind = map[trace.Kind]event.Type{
	trace.KindTransfer: trace.EventTypeTransferred,
	trace.KindMint:     trace.EventTypeMinted,
	trace.KindBurn:     trace.EventTypeBurned,
	trace.KindMigrate:  trace.EventTypeMigrated,
}

// split computes the fee for op and applies both legs to the draft. payer is
// the fee source: the holder for transfers, burns and migrations, the zero
// address for mints.
func (s *state) split(d *accountbook.Draft, op fees.Operation, kind trace.Kind, principal trace.Movement, payer common.Address) (legs, error) {
	net, fee, err := s.fees.ComputeFor(op, principal.Amount)
	if err != nil {
		return legs{}, err
	}
	principal.Amount = net
	out := legs{kind: kind, principal: principal}
	if !net.IsZero() {
		if err := d.Move(principal.From, principal.To, net); err != nil {
			return legs{}, err
		}
	}
	if !fee.IsZero() {
		out.fee = trace.Movement{From: payer, To: s.roles.SystemWallet(), Amount: fee}
		if err := d.Move(payer, s.roles.SystemWallet(), fee); err != nil {
			return legs{}, err
		}
	}
	return out, nil
}

func (l legs) emit(e *emitter) *emitter {
	if !l.principal.Amount.IsZero() {
		e.emit(eventTypeByKind[l.kind], l.principal)
	}
	if !l.fee.Amount.IsZero() {
		e.emit(trace.EventTypeFeeCharged, l.fee)
	}
	return e
}

func decideTransfer(s *state, caller common.Address, p TransferPayload) command.Decision {
	if err := s.gate.CheckTransferEligible(caller, p.To); err != nil {
		return command.RejectErr(err)
	}
	d := s.book.Draft()
	moved, err := s.split(d, fees.OpTransfer, trace.KindTransfer, trace.Movement{From: caller, To: p.To, Amount: p.Amount}, caller)
	if err != nil {
		return command.RejectErr(err)
	}
	if moved.principal.Amount.IsZero() {
		return command.RejectErr(apperrors.New(apperrors.CodeFeeExceedsAmount, "fee consumes the whole transfer"))
	}
	return moved.emit(&emitter{}).decision()
}

func decideTransferFrom(s *state, caller common.Address, p TransferFromPayload) command.Decision {
	if err := s.gate.CheckTransferEligible(p.From, p.To); err != nil {
		return command.RejectErr(err)
	}
	d := s.book.Draft()
	if err := d.SpendAllowance(p.From, caller, p.Amount); err != nil {
		return command.RejectErr(err)
	}
	moved, err := s.split(d, fees.OpTransfer, trace.KindTransfer, trace.Movement{From: p.From, To: p.To, Amount: p.Amount}, p.From)
	if err != nil {
		return command.RejectErr(err)
	}
	if moved.principal.Amount.IsZero() {
		return command.RejectErr(apperrors.New(apperrors.CodeFeeExceedsAmount, "fee consumes the whole transfer"))
	}
	e := moved.emit(&emitter{})
	e.emit(accountbook.EventTypeAllowanceApproved, accountbook.AllowancePayload{
		Owner:   p.From,
		Spender: caller,
		Amount:  d.Allowance(p.From, caller),
	})
	return e.decision()
}

func decideReclaim(s *state, caller common.Address, _ emptyPayload) command.Decision {
	if err := s.roles.RequireOwner(caller); err != nil {
		return command.RejectErr(err)
	}
	ledgerAddress := s.token.Info().LedgerAddress
	if address.IsZero(ledgerAddress) {
		return command.RejectErr(apperrors.New(apperrors.CodeInvalidArgument, "no ledger address is configured"))
	}
	held := s.book.BalanceOf(ledgerAddress)
	if held.IsZero() {
		return command.RejectErr(apperrors.WithMetadata(apperrors.CodeInsufficientBalance,
			"ledger address holds no balance", map[string]string{"account": address.Key(ledgerAddress), "balance": "0"}))
	}
	return (&emitter{}).emit(trace.EventTypeTransferred, trace.Movement{From: ledgerAddress, To: caller, Amount: held}).decision()
}

func decideApprove(s *state, caller common.Address, p AllowancePayload) command.Decision {
	return (&emitter{}).emit(accountbook.EventTypeAllowanceApproved, accountbook.AllowancePayload{
		Owner: caller, Spender: p.Spender, Amount: p.Amount,
	}).decision()
}

func decideIncreaseAllowance(s *state, caller common.Address, p AllowancePayload) command.Decision {
	d := s.book.Draft()
	if err := d.IncreaseAllowance(caller, p.Spender, p.Amount); err != nil {
		return command.RejectErr(err)
	}
	return (&emitter{}).emit(accountbook.EventTypeAllowanceApproved, accountbook.AllowancePayload{
		Owner: caller, Spender: p.Spender, Amount: d.Allowance(caller, p.Spender),
	}).decision()
}

func decideDecreaseAllowance(s *state, caller common.Address, p AllowancePayload) command.Decision {
	d := s.book.Draft()
	if err := d.DecreaseAllowance(caller, p.Spender, p.Amount); err != nil {
		return command.RejectErr(err)
	}
	return (&emitter{}).emit(accountbook.EventTypeAllowanceApproved, accountbook.AllowancePayload{
		Owner: caller, Spender: p.Spender, Amount: d.Allowance(caller, p.Spender),
	}).decision()
}

func decideMint(s *state, caller common.Address, p MintPayload) command.Decision {
	if err := s.roles.RequireMinter(caller); err != nil {
		return command.RejectErr(err)
	}
	if err := s.gate.CheckMintRecipient(p.To); err != nil {
		return command.RejectErr(err)
	}
	if err := s.supply.CheckMint(s.book.TotalSupply(), p.Amount); err != nil {
		return command.RejectErr(err)
	}
	d := s.book.Draft()
	moved, err := s.split(d, fees.OpMint, trace.KindMint, trace.Movement{From: address.Zero, To: p.To, Amount: p.Amount}, address.Zero)
	if err != nil {
		return command.RejectErr(err)
	}
	if moved.principal.Amount.IsZero() {
		return command.RejectErr(apperrors.New(apperrors.CodeFeeExceedsAmount, "fee consumes the whole mint"))
	}
	return moved.emit(&emitter{}).decision()
}

func decideBurn(s *state, caller common.Address, p BurnPayload) command.Decision {
	if err := s.gate.CheckTransferEligible(caller, address.Zero); err != nil {
		return command.RejectErr(err)
	}
	d := s.book.Draft()
	principal := trace.Movement{From: caller, To: address.Zero, Amount: p.Amount, ExternalReference: p.Reference}
	moved, err := s.split(d, fees.OpBurn, trace.KindBurn, principal, caller)
	if err != nil {
		return command.RejectErr(err)
	}
	if moved.principal.Amount.IsZero() {
		return command.RejectErr(apperrors.New(apperrors.CodeFeeExceedsAmount, "fee consumes the whole burn"))
	}
	return moved.emit(&emitter{}).decision()
}

func decideProposeOwner(s *state, caller common.Address, p AccountPayload) command.Decision {
	if err := s.roles.CheckPropose(caller, p.Account); err != nil {
		return command.RejectErr(err)
	}
	return (&emitter{}).emit(roles.EventTypeOwnershipProposed, roles.OwnershipProposedPayload{
		Owner: caller, Candidate: p.Account,
	}).decision()
}

func decideAcceptOwnership(s *state, caller common.Address, _ emptyPayload) command.Decision {
	if err := s.roles.CheckAccept(caller); err != nil {
		return command.RejectErr(err)
	}
	return (&emitter{}).emit(roles.EventTypeOwnershipAccepted, roles.OwnershipAcceptedPayload{
		PreviousOwner: s.roles.Owner(), Owner: caller,
	}).decision()
}

func decideRevokeProposal(s *state, caller common.Address, _ emptyPayload) command.Decision {
	if err := s.roles.CheckRevoke(caller); err != nil {
		return command.RejectErr(err)
	}
	candidate, _ := s.roles.PendingOwner()
	return (&emitter{}).emit(roles.EventTypeProposalRevoked, roles.ProposalRevokedPayload{Candidate: candidate}).decision()
}

func alreadyInState(what string) error {
	return apperrors.WithMetadata(apperrors.CodeAlreadyInState, fmt.Sprintf("%s is unchanged", what),
		map[string]string{"state": what})
}

func decideSetSystemWallet(s *state, caller common.Address, p AccountPayload) command.Decision {
	if err := s.roles.RequireOwner(caller); err != nil {
		return command.RejectErr(err)
	}
	if p.Account == s.roles.SystemWallet() {
		return command.RejectErr(alreadyInState("system_wallet"))
	}
	return (&emitter{}).emit(roles.EventTypeSystemWallet, roles.SystemWalletPayload{
		Previous: s.roles.SystemWallet(), Wallet: p.Account,
	}).decision()
}

func decideAddMinter(s *state, caller common.Address, p AccountPayload) command.Decision {
	if err := s.roles.CheckAddMinter(caller, p.Account); err != nil {
		return command.RejectErr(err)
	}
	return (&emitter{}).emit(roles.EventTypeMinterAdded, roles.MinterPayload{Minter: p.Account}).decision()
}

func decideRemoveMinter(s *state, caller common.Address, p AccountPayload) command.Decision {
	if err := s.roles.CheckRemoveMinter(caller, p.Account); err != nil {
		return command.RejectErr(err)
	}
	return (&emitter{}).emit(roles.EventTypeMinterRemoved, roles.MinterPayload{Minter: p.Account}).decision()
}

// decideSetAuthority accepts the zero address, which leaves compliance
// status frozen until a new authority is set.
func decideSetAuthority(s *state, caller common.Address, p AccountPayload) command.Decision {
	if err := s.roles.RequireOwner(caller); err != nil {
		return command.RejectErr(err)
	}
	if p.Account == s.roles.Authority() {
		return command.RejectErr(alreadyInState("compliance_authority"))
	}
	return (&emitter{}).emit(roles.EventTypeAuthorityChanged, roles.AuthorityPayload{
		Previous: s.roles.Authority(), Authority: p.Account,
	}).decision()
}

func decideSetStatus(s *state, caller common.Address, p StatusPayload) command.Decision {
	if err := s.roles.RequireAuthority(caller); err != nil {
		return command.RejectErr(err)
	}
	if err := s.gate.CheckSetStatus(p.Account, p.Status); err != nil {
		return command.RejectErr(err)
	}
	return (&emitter{}).emit(compliance.EventTypeStatusChanged, compliance.StatusChangedPayload{
		Account: p.Account, Status: p.Status, Previous: s.gate.Status(p.Account),
	}).decision()
}

func decideLifecycle(s *state, caller common.Address, target lifecycle.State) command.Decision {
	if err := s.roles.RequireOwner(caller); err != nil {
		return command.RejectErr(err)
	}
	if err := s.guard.CheckTransition(target); err != nil {
		return command.RejectErr(err)
	}
	return (&emitter{}).emit(lifecycle.EventFor(target), emptyPayload{}).decision()
}

func decidePause(s *state, caller common.Address, _ emptyPayload) command.Decision {
	return decideLifecycle(s, caller, lifecycle.StatePaused)
}

func decideUnpause(s *state, caller common.Address, _ emptyPayload) command.Decision {
	return decideLifecycle(s, caller, lifecycle.StateActive)
}

func decideSetFeeSchedule(s *state, caller common.Address, p FeeSchedulePayload) command.Decision {
	if err := s.roles.RequireOwner(caller); err != nil {
		return command.RejectErr(err)
	}
	applicability := s.fees.Applicability()
	if p.Applicability != nil {
		applicability = *p.Applicability
	}
	return (&emitter{}).emit(fees.EventTypeScheduleChanged, fees.ScheduleChangedPayload{
		Schedule: p.Schedule, Applicability: applicability,
	}).decision()
}

func decideRename(s *state, caller common.Address, p RenamePayload) command.Decision {
	if err := s.roles.RequireOwner(caller); err != nil {
		return command.RejectErr(err)
	}
	if err := token.ValidateName(p.Name); err != nil {
		return command.RejectErr(err)
	}
	if err := token.ValidateSymbol(p.Symbol); err != nil {
		return command.RejectErr(err)
	}
	current := s.token.Info()
	return (&emitter{}).emit(token.EventTypeRenamed, token.RenamedPayload{
		Name: p.Name, Symbol: p.Symbol, PreviousName: current.Name, PreviousSymbol: current.Symbol,
	}).decision()
}

func decideSetDocument(s *state, caller common.Address, p TextPayload) command.Decision {
	if err := s.roles.RequireOwner(caller); err != nil {
		return command.RejectErr(err)
	}
	return (&emitter{}).emit(token.EventTypeDocumentUpdated, token.DocumentPayload{Document: p.Text}).decision()
}

func decideSetContact(s *state, caller common.Address, p TextPayload) command.Decision {
	if err := s.roles.RequireOwner(caller); err != nil {
		return command.RejectErr(err)
	}
	return (&emitter{}).emit(token.EventTypeContactUpdated, token.ContactPayload{Contact: p.Text}).decision()
}

func decideApproveSuccessor(s *state, caller common.Address, p AccountPayload) command.Decision {
	if err := s.roles.RequireOwner(caller); err != nil {
		return command.RejectErr(err)
	}
	if err := s.migration.CheckApprove(p.Account); err != nil {
		return command.RejectErr(err)
	}
	payload := migration.SuccessorApprovedPayload{Successor: p.Account}
	if previous, ok := s.migration.ApprovedSuccessor(); ok {
		payload.Previous = &previous
	}
	return (&emitter{}).emit(migration.EventTypeSuccessorApproved, payload).decision()
}

func decideDelegateLedger(s *state, caller common.Address, _ emptyPayload) command.Decision {
	if err := s.roles.RequireOwner(caller); err != nil {
		return command.RejectErr(err)
	}
	if err := s.migration.CheckDelegateLedger(); err != nil {
		return command.RejectErr(err)
	}
	successor, _ := s.migration.ApprovedSuccessor()
	return (&emitter{}).emit(migration.EventTypeLedgerDelegated, migration.LedgerDelegatedPayload{Successor: successor}).decision()
}

// decideDelegateBalance migrates part or all of an account's balance. The
// holder may migrate their own balance; the owner may migrate any account
// for recovery, bypassing the compliance check.
func decideDelegateBalance(s *state, caller common.Address, p DelegateBalancePayload) command.Decision {
	balance := s.book.BalanceOf(p.Account)
	if err := s.migration.CheckDelegateBalance(caller, s.roles.Owner(), p.Account, p.Amount, balance, p.Successor); err != nil {
		return command.RejectErr(err)
	}
	if caller == p.Account {
		if err := s.gate.CheckTransferEligible(p.Account, address.Zero); err != nil {
			return command.RejectErr(err)
		}
	}
	successor := p.Successor
	d := s.book.Draft()
	principal := trace.Movement{From: p.Account, To: address.Zero, Amount: p.Amount, Successor: &successor}
	moved, err := s.split(d, fees.OpMigrate, trace.KindMigrate, principal, p.Account)
	if err != nil {
		return command.RejectErr(err)
	}
	if moved.principal.Amount.IsZero() {
		return command.RejectErr(apperrors.New(apperrors.CodeFeeExceedsAmount, "fee consumes the whole migration"))
	}
	return moved.emit(&emitter{}).decision()
}
