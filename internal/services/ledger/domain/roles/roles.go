// Package roles tracks the owner, pending owner, system wallet, compliance
// authority and minter set.
package roles

import (
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
)

// Config seeds a registry at genesis.
type Config struct {
	Owner               common.Address
	SystemWallet        common.Address
	ComplianceAuthority common.Address
	Minters             []common.Address
}

// Registry is the folded role state.
type Registry struct {
	owner     common.Address
	pending   *common.Address
	wallet    common.Address
	authority common.Address
	minters   map[common.Address]struct{}
}

// New builds a registry from genesis configuration.
func New(cfg Config) *Registry {
	r := &Registry{
		owner:     cfg.Owner,
		wallet:    cfg.SystemWallet,
		authority: cfg.ComplianceAuthority,
		minters:   make(map[common.Address]struct{}, len(cfg.Minters)),
	}
	for _, m := range cfg.Minters {
		r.minters[m] = struct{}{}
	}
	return r
}

// Validate checks genesis configuration.
func (c Config) Validate() error {
	if err := address.RequireNonZero("owner", c.Owner); err != nil {
		return err
	}
	if err := address.RequireNonZero("system_wallet", c.SystemWallet); err != nil {
		return err
	}
	for _, m := range c.Minters {
		if err := address.RequireNonZero("minter", m); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Owner() common.Address        { return r.owner }
func (r *Registry) SystemWallet() common.Address { return r.wallet }
func (r *Registry) Authority() common.Address    { return r.authority }

// PendingOwner returns the proposed owner, if any.
func (r *Registry) PendingOwner() (common.Address, bool) {
	if r.pending == nil {
		return common.Address{}, false
	}
	return *r.pending, true
}

// IsMinter reports minter membership.
func (r *Registry) IsMinter(account common.Address) bool {
	_, ok := r.minters[account]
	return ok
}

// Minters returns the minter set in address order.
func (r *Registry) Minters() []common.Address {
	out := make([]common.Address, 0, len(r.minters))
	for m := range r.minters {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b common.Address) int { return a.Cmp(b) })
	return out
}

// RequireOwner fails with NOT_OWNER unless caller is the owner.
func (r *Registry) RequireOwner(caller common.Address) error {
	if caller != r.owner {
		return apperrors.New(apperrors.CodeNotOwner, "caller is not the owner")
	}
	return nil
}

// RequireMinter fails with NOT_MINTER unless caller is a minter.
func (r *Registry) RequireMinter(caller common.Address) error {
	if !r.IsMinter(caller) {
		return apperrors.New(apperrors.CodeNotMinter, "caller is not a minter")
	}
	return nil
}

// RequireAuthority fails with NOT_AUTHORITY unless caller is the compliance
// authority. An unset authority matches nobody.
func (r *Registry) RequireAuthority(caller common.Address) error {
	if address.IsZero(r.authority) || caller != r.authority {
		return apperrors.New(apperrors.CodeNotAuthority, "caller is not the compliance authority")
	}
	return nil
}

// CheckPropose validates a proposal. A new proposal replaces a pending one.
func (r *Registry) CheckPropose(caller, candidate common.Address) error {
	if err := r.RequireOwner(caller); err != nil {
		return err
	}
	if err := address.RequireNonZero("candidate", candidate); err != nil {
		return err
	}
	if candidate == r.owner {
		return apperrors.New(apperrors.CodeInvalidArgument, "candidate is already the owner")
	}
	return nil
}

// CheckAccept validates a claim by caller.
func (r *Registry) CheckAccept(caller common.Address) error {
	if r.pending == nil {
		return apperrors.New(apperrors.CodeNoPendingClaim, "no ownership claim is pending")
	}
	if caller != *r.pending {
		return apperrors.New(apperrors.CodeNotCandidate, "caller is not the pending owner")
	}
	return nil
}

// CheckRevoke validates that the owner may cancel the pending claim.
func (r *Registry) CheckRevoke(caller common.Address) error {
	if err := r.RequireOwner(caller); err != nil {
		return err
	}
	if r.pending == nil {
		return apperrors.New(apperrors.CodeNoPendingClaim, "no ownership claim is pending")
	}
	return nil
}

// CheckAddMinter validates adding minter.
func (r *Registry) CheckAddMinter(caller, minter common.Address) error {
	if err := r.RequireOwner(caller); err != nil {
		return err
	}
	if err := address.RequireNonZero("minter", minter); err != nil {
		return err
	}
	if r.IsMinter(minter) {
		return apperrors.WithMetadata(apperrors.CodeAlreadyInState,
			fmt.Sprintf("%s is already a minter", address.Key(minter)), map[string]string{"state": "minter"})
	}
	return nil
}

// CheckRemoveMinter validates removing minter.
func (r *Registry) CheckRemoveMinter(caller, minter common.Address) error {
	if err := r.RequireOwner(caller); err != nil {
		return err
	}
	if !r.IsMinter(minter) {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("%s is not a minter", address.Key(minter)))
	}
	return nil
}
