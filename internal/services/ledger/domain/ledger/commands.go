package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/command"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/compliance"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/fees"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/supply"
)

// Command types.
const (
	CommandTransfer          command.Type = "balance.transfer"
	CommandTransferFrom      command.Type = "balance.transfer_from"
	CommandReclaim           command.Type = "balance.reclaim"
	CommandApprove           command.Type = "allowance.approve"
	CommandIncreaseAllowance command.Type = "allowance.increase"
	CommandDecreaseAllowance command.Type = "allowance.decrease"
	CommandMint              command.Type = "supply.mint"
	CommandBurn              command.Type = "supply.burn"
	CommandBurnWithReference command.Type = "supply.burn_with_reference"

	CommandProposeOwner    command.Type = "ownership.propose"
	CommandAcceptOwnership command.Type = "ownership.accept"
	CommandRevokeProposal  command.Type = "ownership.revoke"
	CommandSetSystemWallet command.Type = "roles.set_system_wallet"
	CommandAddMinter       command.Type = "roles.add_minter"
	CommandRemoveMinter    command.Type = "roles.remove_minter"
	CommandSetAuthority    command.Type = "compliance.set_authority"
	CommandSetStatus       command.Type = "compliance.set_status"
	CommandPause           command.Type = "lifecycle.pause"
	CommandUnpause         command.Type = "lifecycle.unpause"
	CommandSetFeeSchedule  command.Type = "fee.set_schedule"
	CommandRename          command.Type = "token.rename"
	CommandSetDocument     command.Type = "token.set_document"
	CommandSetContact      command.Type = "token.set_contact"

	CommandApproveSuccessor command.Type = "migration.approve_successor"
	CommandDelegateBalance  command.Type = "migration.delegate_balance"
	CommandDelegateLedger   command.Type = "migration.delegate_ledger"
)

// Command payloads. The caller is carried by the command envelope.
type (
	TransferPayload struct {
		To     common.Address `json:"to"`
		Amount amount.Amount  `json:"amount"`
	}
	TransferFromPayload struct {
		From   common.Address `json:"from"`
		To     common.Address `json:"to"`
		Amount amount.Amount  `json:"amount"`
	}
	AllowancePayload struct {
		Spender common.Address `json:"spender"`
		Amount  amount.Amount  `json:"amount"`
	}
	MintPayload struct {
		To     common.Address `json:"to"`
		Amount amount.Amount  `json:"amount"`
	}
	BurnPayload struct {
		Amount    amount.Amount `json:"amount"`
		Reference string        `json:"reference,omitempty"`
	}
	AccountPayload struct {
		Account common.Address `json:"account"`
	}
	StatusPayload struct {
		Account common.Address    `json:"account"`
		Status  compliance.Status `json:"status"`
	}
	FeeSchedulePayload struct {
		Schedule fees.Schedule `json:"schedule"`
		// Applicability keeps the current selection when omitted.
		Applicability *fees.Applicability `json:"applicability,omitempty"`
	}
	RenamePayload struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	}
	TextPayload struct {
		Text string `json:"text"`
	}
	DelegateBalancePayload struct {
		Account   common.Address `json:"account"`
		Amount    amount.Amount  `json:"amount"`
		Successor common.Address `json:"successor"`
	}
	emptyPayload struct{}
)

var (
	gateClosed      = command.GatePolicy{}
	gateAdmin       = command.GatePolicy{AllowWhenPaused: true, AllowWhenDelegated: true}
	gateMigration   = command.GatePolicy{AllowWhenPaused: true}
	gateSelfMigrate = command.GatePolicy{AllowWhenDelegated: true}
)

// decideFunc decides a command against the current state.
type decideFunc func(s *state, cmd command.Command) command.Decision

type handler struct {
	def    command.Definition
	decide decideFunc
}

// handle binds a typed decider and payload validator to a command type.
func handle[P any](t command.Type, gate command.GatePolicy, check func(P) error, decide func(s *state, caller common.Address, p P) command.Decision) handler {
	return handler{
		def: command.Definition{
			Type:            t,
			Gate:            gate,
			ValidatePayload: command.PayloadValidator(event.ValidatorFor(check)),
		},
		decide: func(s *state, cmd command.Command) command.Decision {
			p, err := event.DecodePayload[P](cmd.PayloadJSON)
			if err != nil {
				return command.RejectErr(apperrors.Wrap(apperrors.CodeInvalidArgument, err.Error(), err))
			}
			return decide(s, cmd.Caller, p)
		},
	}
}

func handlers() []handler {
	return []handler{
		handle(CommandTransfer, gateClosed, checkTransfer, decideTransfer),
		handle(CommandTransferFrom, gateClosed, checkTransferFrom, decideTransferFrom),
		handle(CommandReclaim, gateClosed, nil, decideReclaim),
		handle(CommandApprove, gateClosed, checkSpender(true), decideApprove),
		handle(CommandIncreaseAllowance, gateClosed, checkSpender(false), decideIncreaseAllowance),
		handle(CommandDecreaseAllowance, gateClosed, checkSpender(false), decideDecreaseAllowance),
		handle(CommandMint, gateClosed, checkMint, decideMint),
		handle(CommandBurn, gateClosed, checkBurn(false), decideBurn),
		handle(CommandBurnWithReference, gateClosed, checkBurn(true), decideBurn),

		handle(CommandProposeOwner, gateAdmin, checkAccount("candidate"), decideProposeOwner),
		handle(CommandAcceptOwnership, gateAdmin, nil, decideAcceptOwnership),
		handle(CommandRevokeProposal, gateAdmin, nil, decideRevokeProposal),
		handle(CommandSetSystemWallet, gateAdmin, checkAccount("wallet"), decideSetSystemWallet),
		handle(CommandAddMinter, gateAdmin, checkAccount("minter"), decideAddMinter),
		handle(CommandRemoveMinter, gateAdmin, nil, decideRemoveMinter),
		handle(CommandSetAuthority, gateAdmin, nil, decideSetAuthority),
		handle(CommandSetStatus, gateAdmin, checkStatus, decideSetStatus),
		handle(CommandPause, gateAdmin, nil, decidePause),
		handle(CommandUnpause, gateAdmin, nil, decideUnpause),
		handle(CommandSetFeeSchedule, gateAdmin, checkFeeSchedule, decideSetFeeSchedule),
		handle(CommandRename, gateAdmin, nil, decideRename),
		handle(CommandSetDocument, gateAdmin, nil, decideSetDocument),
		handle(CommandSetContact, gateAdmin, nil, decideSetContact),

		handle(CommandApproveSuccessor, gateMigration, checkAccount("successor"), decideApproveSuccessor),
		handle(CommandDelegateLedger, gateMigration, nil, decideDelegateLedger),
		handle(CommandDelegateBalance, gateSelfMigrate, checkDelegateBalance, decideDelegateBalance),
	}
}

func requirePositive(amt amount.Amount) error {
	if amt.IsZero() {
		return apperrors.New(apperrors.CodeInvalidAmount, "amount must be positive")
	}
	return nil
}

func checkTransfer(p TransferPayload) error {
	if err := address.RequireNonZero("to", p.To); err != nil {
		return err
	}
	return requirePositive(p.Amount)
}

func checkTransferFrom(p TransferFromPayload) error {
	if err := address.RequireNonZero("from", p.From); err != nil {
		return err
	}
	if err := address.RequireNonZero("to", p.To); err != nil {
		return err
	}
	return requirePositive(p.Amount)
}

func checkSpender(allowZero bool) func(AllowancePayload) error {
	return func(p AllowancePayload) error {
		if err := address.RequireNonZero("spender", p.Spender); err != nil {
			return err
		}
		if allowZero {
			return nil
		}
		return requirePositive(p.Amount)
	}
}

func checkMint(p MintPayload) error {
	if err := address.RequireNonZero("to", p.To); err != nil {
		return err
	}
	return requirePositive(p.Amount)
}

func checkBurn(withReference bool) func(BurnPayload) error {
	return func(p BurnPayload) error {
		if err := requirePositive(p.Amount); err != nil {
			return err
		}
		if withReference {
			return supply.CheckReference(p.Reference)
		}
		if p.Reference != "" {
			return apperrors.New(apperrors.CodeInvalidArgument, "plain burn does not take a reference")
		}
		return nil
	}
}

func checkAccount(field string) func(AccountPayload) error {
	return func(p AccountPayload) error {
		return address.RequireNonZero(field, p.Account)
	}
}

func checkStatus(p StatusPayload) error {
	if err := address.RequireNonZero("account", p.Account); err != nil {
		return err
	}
	_, err := compliance.ParseStatus(string(p.Status))
	return err
}

func checkFeeSchedule(p FeeSchedulePayload) error {
	return p.Schedule.Validate()
}

func checkDelegateBalance(p DelegateBalancePayload) error {
	if err := address.RequireNonZero("account", p.Account); err != nil {
		return err
	}
	if err := address.RequireNonZero("successor", p.Successor); err != nil {
		return err
	}
	return requirePositive(p.Amount)
}

// emitter collects the events of one decision.
type emitter struct {
	events []event.Event
	err    error
}

func (e *emitter) emit(t event.Type, payload any) *emitter {
	if e.err != nil {
		return e
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		e.err = fmt.Errorf("encode %s payload: %w", t, err)
		return e
	}
	e.events = append(e.events, event.Event{Type: t, PayloadJSON: raw})
	return e
}

func (e *emitter) decision() command.Decision {
	if e.err != nil {
		return command.RejectErr(e.err)
	}
	return command.Accept(e.events...)
}
