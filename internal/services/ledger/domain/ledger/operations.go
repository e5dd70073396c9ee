package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/command"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/compliance"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/fees"
)

func (l *Ledger) run(ctx context.Context, caller common.Address, t command.Type, payload any) ([]event.Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return l.Execute(ctx, command.Command{Type: t, Caller: caller, PayloadJSON: raw})
}

// Transfer moves amt from caller to to, less any fee.
func (l *Ledger) Transfer(ctx context.Context, caller, to common.Address, amt amount.Amount) ([]event.Event, error) {
	return l.run(ctx, caller, CommandTransfer, TransferPayload{To: to, Amount: amt})
}

// TransferFrom moves amt from from to to against caller's allowance.
func (l *Ledger) TransferFrom(ctx context.Context, caller, from, to common.Address, amt amount.Amount) ([]event.Event, error) {
	return l.run(ctx, caller, CommandTransferFrom, TransferFromPayload{From: from, To: to, Amount: amt})
}

// Approve sets the allowance of spender over caller's balance to amt.
func (l *Ledger) Approve(ctx context.Context, caller, spender common.Address, amt amount.Amount) ([]event.Event, error) {
	return l.run(ctx, caller, CommandApprove, AllowancePayload{Spender: spender, Amount: amt})
}

func (l *Ledger) IncreaseAllowance(ctx context.Context, caller, spender common.Address, delta amount.Amount) ([]event.Event, error) {
	return l.run(ctx, caller, CommandIncreaseAllowance, AllowancePayload{Spender: spender, Amount: delta})
}

func (l *Ledger) DecreaseAllowance(ctx context.Context, caller, spender common.Address, delta amount.Amount) ([]event.Event, error) {
	return l.run(ctx, caller, CommandDecreaseAllowance, AllowancePayload{Spender: spender, Amount: delta})
}

func (l *Ledger) ProposeOwner(ctx context.Context, caller, candidate common.Address) ([]event.Event, error) {
	return l.run(ctx, caller, CommandProposeOwner, AccountPayload{Account: candidate})
}

func (l *Ledger) AcceptOwnership(ctx context.Context, caller common.Address) ([]event.Event, error) {
	return l.run(ctx, caller, CommandAcceptOwnership, emptyPayload{})
}

func (l *Ledger) RevokeProposal(ctx context.Context, caller common.Address) ([]event.Event, error) {
	return l.run(ctx, caller, CommandRevokeProposal, emptyPayload{})
}

func (l *Ledger) SetSystemWallet(ctx context.Context, caller, wallet common.Address) ([]event.Event, error) {
	return l.run(ctx, caller, CommandSetSystemWallet, AccountPayload{Account: wallet})
}

func (l *Ledger) AddMinter(ctx context.Context, caller, minter common.Address) ([]event.Event, error) {
	return l.run(ctx, caller, CommandAddMinter, AccountPayload{Account: minter})
}

func (l *Ledger) RemoveMinter(ctx context.Context, caller, minter common.Address) ([]event.Event, error) {
	return l.run(ctx, caller, CommandRemoveMinter, AccountPayload{Account: minter})
}

func (l *Ledger) SetComplianceAuthority(ctx context.Context, caller, authority common.Address) ([]event.Event, error) {
	return l.run(ctx, caller, CommandSetAuthority, AccountPayload{Account: authority})
}

func (l *Ledger) SetComplianceStatus(ctx context.Context, caller, account common.Address, status compliance.Status) ([]event.Event, error) {
	return l.run(ctx, caller, CommandSetStatus, StatusPayload{Account: account, Status: status})
}

func (l *Ledger) Pause(ctx context.Context, caller common.Address) ([]event.Event, error) {
	return l.run(ctx, caller, CommandPause, emptyPayload{})
}

func (l *Ledger) Unpause(ctx context.Context, caller common.Address) ([]event.Event, error) {
	return l.run(ctx, caller, CommandUnpause, emptyPayload{})
}

// SetFeeSchedule replaces the schedule. A nil applicability keeps the
// current one.
func (l *Ledger) SetFeeSchedule(ctx context.Context, caller common.Address, schedule fees.Schedule, applicability *fees.Applicability) ([]event.Event, error) {
	return l.run(ctx, caller, CommandSetFeeSchedule, FeeSchedulePayload{Schedule: schedule, Applicability: applicability})
}

func (l *Ledger) Mint(ctx context.Context, caller, to common.Address, amt amount.Amount) ([]event.Event, error) {
	return l.run(ctx, caller, CommandMint, MintPayload{To: to, Amount: amt})
}

// Burn destroys amt of caller's balance.
func (l *Ledger) Burn(ctx context.Context, caller common.Address, amt amount.Amount) ([]event.Event, error) {
	return l.run(ctx, caller, CommandBurn, BurnPayload{Amount: amt})
}

// BurnWithReference burns and stores reference verbatim on the trace record.
func (l *Ledger) BurnWithReference(ctx context.Context, caller common.Address, amt amount.Amount, reference string) ([]event.Event, error) {
	return l.run(ctx, caller, CommandBurnWithReference, BurnPayload{Amount: amt, Reference: reference})
}

func (l *Ledger) ApproveSuccessor(ctx context.Context, caller, successor common.Address) ([]event.Event, error) {
	return l.run(ctx, caller, CommandApproveSuccessor, AccountPayload{Account: successor})
}

// DelegateBalance migrates amt of account's balance to successor. The
// migration cannot be undone.
func (l *Ledger) DelegateBalance(ctx context.Context, caller, account common.Address, amt amount.Amount, successor common.Address) ([]event.Event, error) {
	return l.run(ctx, caller, CommandDelegateBalance, DelegateBalancePayload{Account: account, Amount: amt, Successor: successor})
}

// DelegateLedger hands the whole ledger to the approved successor. Only
// administrative commands and balance migrations are accepted afterwards.
func (l *Ledger) DelegateLedger(ctx context.Context, caller common.Address) ([]event.Event, error) {
	return l.run(ctx, caller, CommandDelegateLedger, emptyPayload{})
}

func (l *Ledger) ChangeTokenName(ctx context.Context, caller common.Address, name, symbol string) ([]event.Event, error) {
	return l.run(ctx, caller, CommandRename, RenamePayload{Name: name, Symbol: symbol})
}

func (l *Ledger) SetPublicDocument(ctx context.Context, caller common.Address, document string) ([]event.Event, error) {
	return l.run(ctx, caller, CommandSetDocument, TextPayload{Text: document})
}

func (l *Ledger) SetContactInformation(ctx context.Context, caller common.Address, contact string) ([]event.Event, error) {
	return l.run(ctx, caller, CommandSetContact, TextPayload{Text: contact})
}

// Reclaim moves any balance held by the ledger's own address to the owner.
func (l *Ledger) Reclaim(ctx context.Context, caller common.Address) ([]event.Event, error) {
	return l.run(ctx, caller, CommandReclaim, emptyPayload{})
}
