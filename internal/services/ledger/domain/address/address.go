// Package address parses and formats ledger account identities.
//
// Identities are opaque 20-byte values. The zero address never holds a
// balance: it is the source of minted supply and the sink of burned and
// migrated supply.
package address

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
)

// Zero is the mint source and burn sink.
var Zero = common.Address{}

// Parse accepts a 0x-prefixed, 40 hex digit address in any letter case.
func Parse(raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "0x") && !strings.HasPrefix(raw, "0X") {
		return common.Address{}, apperrors.WithMetadata(apperrors.CodeInvalidArgument,
			"address must be 0x-prefixed", map[string]string{"value": raw})
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, apperrors.WithMetadata(apperrors.CodeInvalidArgument,
			"address must be 40 hex digits", map[string]string{"value": raw})
	}
	return common.HexToAddress(raw), nil
}

// MustParse is Parse for constants and tests. It panics on invalid input.
func MustParse(raw string) common.Address {
	addr, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return addr
}

// IsZero reports whether addr is the zero address.
func IsZero(addr common.Address) bool {
	return addr == Zero
}

// Key returns the lowercase hex form used for storage columns and actor ids.
func Key(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// RequireNonZero rejects the zero address for the named field.
func RequireNonZero(field string, addr common.Address) error {
	if IsZero(addr) {
		return apperrors.WithMetadata(apperrors.CodeInvalidArgument,
			field+" must not be the zero address", map[string]string{"field": field})
	}
	return nil
}
