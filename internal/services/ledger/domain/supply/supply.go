// Package supply enforces issuance limits and burn references.
package supply

import (
	"fmt"
	"unicode/utf8"

	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
)

// Controller holds the optional supply ceiling.
type Controller struct {
	ceiling amount.Amount
}

// New returns a controller. A zero ceiling disables the cap.
func New(ceiling amount.Amount) *Controller {
	return &Controller{ceiling: ceiling}
}

// Ceiling returns the cap and whether one is configured.
func (c *Controller) Ceiling() (amount.Amount, bool) {
	return c.ceiling, !c.ceiling.IsZero()
}

// Headroom returns how much may still be issued. ok is false when uncapped.
func (c *Controller) Headroom(current amount.Amount) (headroom amount.Amount, ok bool) {
	if c.ceiling.IsZero() {
		return amount.Zero(), false
	}
	headroom, _ = c.ceiling.Sub(current)
	return headroom, true
}

// CheckMint fails with SUPPLY_CEILING_EXCEEDED if issuing gross on top of
// current would breach the cap.
func (c *Controller) CheckMint(current, gross amount.Amount) error {
	if gross.IsZero() {
		return apperrors.New(apperrors.CodeInvalidAmount, "mint amount must be positive")
	}
	headroom, capped := c.Headroom(current)
	if !capped || !gross.Gt(headroom) {
		return nil
	}
	return apperrors.WithMetadata(apperrors.CodeSupplyCeilingExceeded,
		fmt.Sprintf("minting %s exceeds remaining headroom %s", gross, headroom),
		map[string]string{"ceiling": c.ceiling.String(), "headroom": headroom.String()})
}

// CheckReference accepts any non-empty UTF-8 string. The ledger stores the
// reference verbatim and attaches no meaning to it.
func CheckReference(reference string) error {
	if reference == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "external reference is required")
	}
	if !utf8.ValidString(reference) {
		return apperrors.New(apperrors.CodeInvalidArgument, "external reference must be valid UTF-8")
	}
	return nil
}
