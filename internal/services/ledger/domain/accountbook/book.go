// Package accountbook holds balances, allowances and total supply.
//
// Deciders work on a Draft so a multi-leg operation (transfer plus fee, or
// spend plus allowance update) is checked as a unit before any event is
// emitted. The fold applies committed events through the same Draft, which
// keeps validation and application on one code path.
package accountbook

import (
	"fmt"
	"maps"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
)

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

// Book is the folded accounting state.
type Book struct {
	balances   map[common.Address]amount.Amount
	allowances map[allowanceKey]amount.Amount
	supply     amount.Amount
}

// New returns an empty book.
func New() *Book {
	return &Book{
		balances:   make(map[common.Address]amount.Amount),
		allowances: make(map[allowanceKey]amount.Amount),
	}
}

// BalanceOf returns the balance of account, zero when never credited.
func (b *Book) BalanceOf(account common.Address) amount.Amount {
	return b.balances[account]
}

// Allowance returns what spender may still move on behalf of owner.
func (b *Book) Allowance(owner, spender common.Address) amount.Amount {
	return b.allowances[allowanceKey{owner: owner, spender: spender}]
}

// TotalSupply returns the sum of all balances.
func (b *Book) TotalSupply() amount.Amount {
	return b.supply
}

// Holders returns the number of accounts with a non-zero balance.
func (b *Book) Holders() int {
	return len(b.balances)
}

// Reconcile recomputes the sum of balances and compares it to the supply.
func (b *Book) Reconcile() error {
	sum := amount.Zero()
	for account, balance := range b.balances {
		next, err := sum.Add(balance)
		if err != nil {
			return fmt.Errorf("reconcile %s: %w", address.Key(account), err)
		}
		sum = next
	}
	if sum.Cmp(b.supply) != 0 {
		return fmt.Errorf("supply mismatch: balances sum to %s, supply is %s", sum, b.supply)
	}
	return nil
}

// Draft returns an overlay on the book. Nothing changes until Commit.
func (b *Book) Draft() *Draft {
	return &Draft{
		book:       b,
		balances:   make(map[common.Address]amount.Amount),
		allowances: make(map[allowanceKey]amount.Amount),
		supply:     b.supply,
	}
}

// Draft stages balance and allowance changes against a Book.
type Draft struct {
	book       *Book
	balances   map[common.Address]amount.Amount
	allowances map[allowanceKey]amount.Amount
	supply     amount.Amount
}

// BalanceOf returns the staged balance of account.
func (d *Draft) BalanceOf(account common.Address) amount.Amount {
	if v, ok := d.balances[account]; ok {
		return v
	}
	return d.book.BalanceOf(account)
}

// Allowance returns the staged allowance.
func (d *Draft) Allowance(owner, spender common.Address) amount.Amount {
	key := allowanceKey{owner: owner, spender: spender}
	if v, ok := d.allowances[key]; ok {
		return v
	}
	return d.book.allowances[key]
}

// TotalSupply returns the staged supply.
func (d *Draft) TotalSupply() amount.Amount {
	return d.supply
}

// Move debits from and credits to. A zero from issues new units and a zero
// to destroys them; supply changes accordingly.
func (d *Draft) Move(from, to common.Address, amt amount.Amount) error {
	if amt.IsZero() {
		return apperrors.New(apperrors.CodeInvalidAmount, "amount must be positive")
	}
	if address.IsZero(from) && address.IsZero(to) {
		return apperrors.New(apperrors.CodeInvalidArgument, "movement needs at least one account")
	}

	supply := d.supply
	if address.IsZero(from) {
		next, err := supply.Add(amt)
		if err != nil {
			return err
		}
		supply = next
	} else {
		balance := d.BalanceOf(from)
		remaining, ok := balance.Sub(amt)
		if !ok {
			return apperrors.WithMetadata(apperrors.CodeInsufficientBalance,
				fmt.Sprintf("balance %s is less than %s", balance, amt),
				map[string]string{"account": address.Key(from), "balance": balance.String()})
		}
		d.balances[from] = remaining
	}

	if address.IsZero(to) {
		// Balances are bounded by supply, so this cannot underflow.
		supply, _ = supply.Sub(amt)
	} else {
		credited, err := d.BalanceOf(to).Add(amt)
		if err != nil {
			return err
		}
		d.balances[to] = credited
	}
	d.supply = supply
	return nil
}

// SetAllowance overwrites the allowance. Zero clears it.
func (d *Draft) SetAllowance(owner, spender common.Address, amt amount.Amount) {
	d.allowances[allowanceKey{owner: owner, spender: spender}] = amt
}

// SpendAllowance consumes amt from the allowance.
func (d *Draft) SpendAllowance(owner, spender common.Address, amt amount.Amount) error {
	current := d.Allowance(owner, spender)
	remaining, ok := current.Sub(amt)
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeInsufficientAllowance,
			fmt.Sprintf("allowance %s is less than %s", current, amt),
			map[string]string{"owner": address.Key(owner), "spender": address.Key(spender)})
	}
	d.SetAllowance(owner, spender, remaining)
	return nil
}

// IncreaseAllowance adds delta to the allowance.
func (d *Draft) IncreaseAllowance(owner, spender common.Address, delta amount.Amount) error {
	next, err := d.Allowance(owner, spender).Add(delta)
	if err != nil {
		return err
	}
	d.SetAllowance(owner, spender, next)
	return nil
}

// DecreaseAllowance subtracts delta from the allowance. Unlike SpendAllowance
// the owner is lowering their own grant, so failing reports an underflow.
func (d *Draft) DecreaseAllowance(owner, spender common.Address, delta amount.Amount) error {
	current := d.Allowance(owner, spender)
	next, ok := current.Sub(delta)
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeAllowanceUnderflow,
			fmt.Sprintf("allowance %s is less than %s", current, delta),
			map[string]string{"owner": address.Key(owner), "spender": address.Key(spender)})
	}
	d.SetAllowance(owner, spender, next)
	return nil
}

// Commit writes the staged changes into the book.
func (d *Draft) Commit() {
	for account, balance := range d.balances {
		if balance.IsZero() {
			delete(d.book.balances, account)
			continue
		}
		d.book.balances[account] = balance
	}
	for key, allowance := range d.allowances {
		if allowance.IsZero() {
			delete(d.book.allowances, key)
			continue
		}
		d.book.allowances[key] = allowance
	}
	d.book.supply = d.supply
	clear(d.balances)
	clear(d.allowances)
}

// Snapshot returns a copy of all non-zero balances.
func (b *Book) Snapshot() map[common.Address]amount.Amount {
	return maps.Clone(b.balances)
}
