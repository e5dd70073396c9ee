// Package token holds descriptive metadata: name, symbol, decimals, the
// public document and contact information.
package token

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const (
	maxNameRunes   = 64
	maxSymbolRunes = 16
)

const (
	EventTypeRenamed         event.Type = "token.renamed"
	EventTypeDocumentUpdated event.Type = "token.document_updated"
	EventTypeContactUpdated  event.Type = "token.contact_updated"
)

// Info is the token metadata.
type Info struct {
	Name               string         `json:"name"`
	Symbol             string         `json:"symbol"`
	Decimals           uint8          `json:"decimals"`
	PublicDocument     string         `json:"public_document"`
	ContactInformation string         `json:"contact_information"`
	LedgerAddress      common.Address `json:"ledger_address"`
}

type RenamedPayload struct {
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	PreviousName   string `json:"previous_name"`
	PreviousSymbol string `json:"previous_symbol"`
}

type DocumentPayload struct {
	Document string `json:"document"`
}

type ContactPayload struct {
	Contact string `json:"contact"`
}

var upper = cases.Upper(language.Und)

// ValidateName checks a name as given: it must not be blank and must fit
// maxNameRunes.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "token name is required")
	}
	if utf8.RuneCountInString(name) > maxNameRunes {
		return apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("token name exceeds %d characters", maxNameRunes))
	}
	return nil
}

// ValidateSymbol checks a symbol as given: it must not be blank and must
// fit maxSymbolRunes.
func ValidateSymbol(symbol string) error {
	if strings.TrimSpace(symbol) == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "token symbol is required")
	}
	if utf8.RuneCountInString(symbol) > maxSymbolRunes {
		return apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("token symbol exceeds %d characters", maxSymbolRunes))
	}
	return nil
}

// NormalizeName returns the NFC form of name without surrounding space.
// Only bootstrap configuration is normalized; renames are kept verbatim.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(norm.NFC.String(name))
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// NormalizeSymbol upper-cases symbol and rejects embedded whitespace.
func NormalizeSymbol(symbol string) (string, error) {
	symbol = upper.String(strings.TrimSpace(norm.NFC.String(symbol)))
	if err := ValidateSymbol(symbol); err != nil {
		return "", err
	}
	if strings.IndexFunc(symbol, unicode.IsSpace) >= 0 {
		return "", apperrors.New(apperrors.CodeInvalidArgument, "token symbol must not contain spaces")
	}
	return symbol, nil
}

// Normalize returns info with a normalized name and symbol.
func (i Info) Normalize() (Info, error) {
	name, err := NormalizeName(i.Name)
	if err != nil {
		return Info{}, err
	}
	symbol, err := NormalizeSymbol(i.Symbol)
	if err != nil {
		return Info{}, err
	}
	i.Name, i.Symbol = name, symbol
	i.PublicDocument = strings.TrimSpace(i.PublicDocument)
	i.ContactInformation = strings.TrimSpace(i.ContactInformation)
	return i, nil
}

// Metadata is the folded token metadata.
type Metadata struct {
	info Info
}

// New returns metadata seeded from genesis.
func New(info Info) *Metadata {
	return &Metadata{info: info}
}

func (m *Metadata) Info() Info { return m.info }

// RegisterEvents registers token metadata events.
func RegisterEvents(registry *event.Registry) error {
	defs := []event.Definition{
		{Type: EventTypeRenamed, ValidatePayload: event.ValidatorFor(func(p RenamedPayload) error {
			if err := ValidateName(p.Name); err != nil {
				return err
			}
			return ValidateSymbol(p.Symbol)
		})},
		{Type: EventTypeDocumentUpdated, ValidatePayload: event.ValidatorFor[DocumentPayload](nil)},
		{Type: EventTypeContactUpdated, ValidatePayload: event.ValidatorFor[ContactPayload](nil)},
	}
	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Apply folds token metadata events.
func (m *Metadata) Apply(evt event.Event) error {
	var err error
	switch evt.Type {
	case EventTypeRenamed:
		var p RenamedPayload
		if p, err = event.DecodePayload[RenamedPayload](evt.PayloadJSON); err == nil {
			m.info.Name, m.info.Symbol = p.Name, p.Symbol
		}
	case EventTypeDocumentUpdated:
		var p DocumentPayload
		if p, err = event.DecodePayload[DocumentPayload](evt.PayloadJSON); err == nil {
			m.info.PublicDocument = p.Document
		}
	case EventTypeContactUpdated:
		var p ContactPayload
		if p, err = event.DecodePayload[ContactPayload](evt.PayloadJSON); err == nil {
			m.info.ContactInformation = p.Contact
		}
	}
	if err != nil {
		return fmt.Errorf("apply seq %d: %w", evt.Seq, err)
	}
	return nil
}
