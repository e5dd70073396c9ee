package ledgerctl

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// units converts between token units typed by people and the base-unit
// strings the ledger speaks.
type units struct {
	decimals int32
	raw      bool
}

// toBase converts a token amount such as "12.5" into base units.
func (u units) toBase(value string) (string, error) {
	value = strings.TrimSpace(value)
	if u.raw {
		return value, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return "", fmt.Errorf("amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return "", fmt.Errorf("amount %q must not be negative", value)
	}
	shifted := d.Shift(u.decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return "", fmt.Errorf("amount %q has more than %d decimal places", value, u.decimals)
	}
	return shifted.BigInt().String(), nil
}

// format renders a base-unit amount in token units. Values the ledger
// never produces are printed as received.
func (u units) format(base string) string {
	if u.raw || base == "" {
		return base
	}
	d, err := decimal.NewFromString(base)
	if err != nil {
		return base
	}
	return decimal.NewFromBigInt(d.BigInt(), -u.decimals).String()
}
