package server

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/compliance"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/fees"
	ledgerdomain "github.com/louisbranch/goldtoken/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/migration"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/token"
)

const defaultDecimals = 18

// bootstrapFile is the TOML layout of a ledger bootstrap. Amounts are
// decimal strings so values above 2^63 survive the TOML integer range.
type bootstrapFile struct {
	Owner               string            `toml:"owner"`
	SystemWallet        string            `toml:"system_wallet"`
	ComplianceAuthority string            `toml:"compliance_authority"`
	Minters             []string          `toml:"minters"`
	SupplyCeiling       string            `toml:"supply_ceiling"`
	Token               tokenFile         `toml:"token"`
	Fees                feesFile          `toml:"fees"`
	Compliance          compliance.Policy `toml:"compliance"`
	Migration           migration.Policy  `toml:"migration"`
}

type tokenFile struct {
	Name               string `toml:"name"`
	Symbol             string `toml:"symbol"`
	Decimals           uint8  `toml:"decimals"`
	PublicDocument     string `toml:"public_document"`
	ContactInformation string `toml:"contact_information"`
	LedgerAddress      string `toml:"ledger_address"`
}

type feesFile struct {
	RateBps   uint64             `toml:"rate_bps"`
	Fixed     string             `toml:"fixed"`
	Min       string             `toml:"min"`
	Max       string             `toml:"max"`
	AppliesTo fees.Applicability `toml:"applies_to"`
}

// LoadBootstrap reads a ledger bootstrap from a TOML file. Keys the file
// does not define keep their defaults: 18 decimals, no supply ceiling, no
// fee, and transfer-only fee applicability. Unknown keys are rejected.
func LoadBootstrap(path string) (ledgerdomain.Bootstrap, error) {
	var raw bootstrapFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ledgerdomain.Bootstrap{}, fmt.Errorf("load bootstrap: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return ledgerdomain.Bootstrap{}, fmt.Errorf("load bootstrap: unknown keys %s", strings.Join(keys, ", "))
	}

	b := ledgerdomain.Bootstrap{
		Compliance: raw.Compliance,
		Migration:  raw.Migration,
	}
	if b.Owner, err = parseAddress("owner", raw.Owner); err != nil {
		return ledgerdomain.Bootstrap{}, err
	}
	if b.SystemWallet, err = parseAddress("system_wallet", raw.SystemWallet); err != nil {
		return ledgerdomain.Bootstrap{}, err
	}
	if meta.IsDefined("compliance_authority") {
		if b.ComplianceAuthority, err = parseAddress("compliance_authority", raw.ComplianceAuthority); err != nil {
			return ledgerdomain.Bootstrap{}, err
		}
	}
	b.Minters = make([]common.Address, 0, len(raw.Minters))
	for i, value := range raw.Minters {
		minter, err := parseAddress(fmt.Sprintf("minters[%d]", i), value)
		if err != nil {
			return ledgerdomain.Bootstrap{}, err
		}
		b.Minters = append(b.Minters, minter)
	}
	if b.SupplyCeiling, err = parseAmount("supply_ceiling", raw.SupplyCeiling); err != nil {
		return ledgerdomain.Bootstrap{}, err
	}

	b.Token = token.Info{
		Name:               raw.Token.Name,
		Symbol:             raw.Token.Symbol,
		Decimals:           defaultDecimals,
		PublicDocument:     raw.Token.PublicDocument,
		ContactInformation: raw.Token.ContactInformation,
	}
	if meta.IsDefined("token", "decimals") {
		b.Token.Decimals = raw.Token.Decimals
	}
	if meta.IsDefined("token", "ledger_address") {
		if b.Token.LedgerAddress, err = parseAddress("token.ledger_address", raw.Token.LedgerAddress); err != nil {
			return ledgerdomain.Bootstrap{}, err
		}
	}

	b.FeeSchedule.RateBps = raw.Fees.RateBps
	if b.FeeSchedule.Fixed, err = parseAmount("fees.fixed", raw.Fees.Fixed); err != nil {
		return ledgerdomain.Bootstrap{}, err
	}
	if b.FeeSchedule.Min, err = parseAmount("fees.min", raw.Fees.Min); err != nil {
		return ledgerdomain.Bootstrap{}, err
	}
	if b.FeeSchedule.Max, err = parseAmount("fees.max", raw.Fees.Max); err != nil {
		return ledgerdomain.Bootstrap{}, err
	}
	if meta.IsDefined("fees", "applies_to") {
		applicability := raw.Fees.AppliesTo
		b.FeeApplicability = &applicability
	}

	normalized, err := b.Normalize()
	if err != nil {
		return ledgerdomain.Bootstrap{}, fmt.Errorf("load bootstrap: %w", err)
	}
	return normalized, nil
}

func parseAddress(key, value string) (common.Address, error) {
	addr, err := address.Parse(strings.TrimSpace(value))
	if err != nil {
		return common.Address{}, fmt.Errorf("load bootstrap: %s: %w", key, err)
	}
	return addr, nil
}

// parseAmount treats an absent value as zero.
func parseAmount(key, value string) (amount.Amount, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return amount.Zero(), nil
	}
	v, err := amount.Parse(value)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("load bootstrap: %s: %w", key, err)
	}
	return v, nil
}
