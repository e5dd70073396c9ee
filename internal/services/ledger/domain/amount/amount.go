// Package amount implements overflow-checked unsigned token quantities.
package amount

import (
	"errors"
	"strings"

	"github.com/holiman/uint256"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
)

// BasisPointsDenominator is 100% expressed in basis points.
const BasisPointsDenominator = 10_000

// Amount is an unsigned 256-bit quantity of base units. The zero value is 0.
// Amounts are values: every operation returns a new Amount.
type Amount struct {
	v uint256.Int
}

// Zero returns the zero amount.
func Zero() Amount {
	return Amount{}
}

// New returns an amount from a uint64.
func New(units uint64) Amount {
	var a Amount
	a.v.SetUint64(units)
	return a
}

// Parse reads a base-10 string of base units.
func Parse(raw string) (Amount, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Amount{}, apperrors.New(apperrors.CodeInvalidAmount, "amount is required")
	}
	if raw[0] == '+' || raw[0] == '-' {
		return Amount{}, apperrors.WithMetadata(apperrors.CodeInvalidAmount,
			"amount must be an unsigned integer", map[string]string{"value": raw})
	}
	v, err := uint256.FromDecimal(raw)
	if err != nil {
		code := apperrors.CodeInvalidAmount
		if errors.Is(err, uint256.ErrBig256Range) {
			code = apperrors.CodeAmountOverflow
		}
		return Amount{}, &apperrors.Error{
			Code:     code,
			Message:  "amount must be an unsigned 256-bit integer",
			Metadata: map[string]string{"value": raw},
			Cause:    err,
		}
	}
	return Amount{v: *v}, nil
}

// MustParse is Parse for constants and tests. It panics on invalid input.
func MustParse(raw string) Amount {
	a, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether a is 0.
func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// Cmp returns -1, 0 or +1 comparing a to b.
func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

// Lt reports a < b.
func (a Amount) Lt(b Amount) bool {
	return a.v.Lt(&b.v)
}

// Gt reports a > b.
func (a Amount) Gt(b Amount) bool {
	return a.v.Gt(&b.v)
}

// Add returns a+b, failing with AMOUNT_OVERFLOW past 2^256-1.
func (a Amount) Add(b Amount) (Amount, error) {
	var out Amount
	if _, overflow := out.v.AddOverflow(&a.v, &b.v); overflow {
		return Amount{}, apperrors.New(apperrors.CodeAmountOverflow, "amount overflow")
	}
	return out, nil
}

// Sub returns a-b. ok is false when b > a; the caller picks the error code
// that names the shortfall (balance, allowance, supply).
func (a Amount) Sub(b Amount) (out Amount, ok bool) {
	if _, underflow := out.v.SubOverflow(&a.v, &b.v); underflow {
		return Amount{}, false
	}
	return out, true
}

// MulDiv returns a*num/den truncated toward zero, using a 512-bit
// intermediate product. den must be non-zero.
func (a Amount) MulDiv(num, den uint64) (Amount, error) {
	if den == 0 {
		return Amount{}, apperrors.New(apperrors.CodeInvalidArgument, "division by zero")
	}
	var out Amount
	n := uint256.NewInt(num)
	d := uint256.NewInt(den)
	if _, overflow := out.v.MulDivOverflow(&a.v, n, d); overflow {
		return Amount{}, apperrors.New(apperrors.CodeAmountOverflow, "amount overflow")
	}
	return out, nil
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.Lt(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Amount) Amount {
	if a.Gt(b) {
		return a
	}
	return b
}

// String renders the decimal form.
func (a Amount) String() string {
	return a.v.Dec()
}

// MarshalText encodes the amount as a decimal string.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.Dec()), nil
}

// UnmarshalText decodes a decimal string.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
