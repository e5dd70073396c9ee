package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/encoding"
)

var (
	// ErrTypeRequired indicates a missing command type.
	ErrTypeRequired = errors.New("command type is required")
	// ErrTypeUnknown indicates an unregistered command type.
	ErrTypeUnknown = errors.New("command type is not registered")
	// ErrCallerRequired indicates a missing or zero caller.
	ErrCallerRequired = errors.New("caller is required")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// Type identifies the command type string.
type Type string

// GatePolicy declares whether a command may run while the ledger is paused
// or after the whole ledger was delegated to a successor.
type GatePolicy struct {
	AllowWhenPaused    bool
	AllowWhenDelegated bool
}

// Command captures the canonical command envelope.
type Command struct {
	Type        Type
	Caller      common.Address
	RequestID   string
	PayloadJSON []byte
}

// Definition registers metadata for a command type.
type Definition struct {
	Type            Type
	ValidatePayload PayloadValidator
	Gate            GatePolicy
}

// PayloadValidator validates a payload JSON document.
type PayloadValidator func(json.RawMessage) error

// Registry stores command definitions and validates commands.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// Register adds a new command type definition to the registry.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return errors.New("registry is required")
	}
	def.Type = Type(strings.TrimSpace(string(def.Type)))
	if def.Type == "" {
		return ErrTypeRequired
	}
	if r.definitions == nil {
		r.definitions = make(map[Type]Definition)
	}
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("command type already registered: %s", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// Definition returns the registered definition for t.
func (r *Registry) Definition(t Type) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	def, ok := r.definitions[t]
	return def, ok
}

// ListDefinitions returns all definitions sorted by type.
func (r *Registry) ListDefinitions() []Definition {
	if r == nil {
		return nil
	}
	defs := make([]Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	slices.SortFunc(defs, func(a, b Definition) int {
		return strings.Compare(string(a.Type), string(b.Type))
	})
	return defs
}

// ValidateForDecision validates and normalizes a command before decision
// handling. Envelope problems are reported as INVALID_ARGUMENT; payload
// validators may return more specific codes, which are preserved.
func (r *Registry) ValidateForDecision(cmd Command) (Command, Definition, error) {
	cmd.Type = Type(strings.TrimSpace(string(cmd.Type)))
	if cmd.Type == "" {
		return Command{}, Definition{}, invalid(ErrTypeRequired)
	}
	def, ok := r.Definition(cmd.Type)
	if !ok {
		return Command{}, Definition{}, invalid(fmt.Errorf("%w: %s", ErrTypeUnknown, cmd.Type))
	}
	if cmd.Caller == (common.Address{}) {
		return Command{}, Definition{}, invalid(ErrCallerRequired)
	}
	cmd.RequestID = strings.TrimSpace(cmd.RequestID)

	if len(cmd.PayloadJSON) == 0 {
		cmd.PayloadJSON = []byte("{}")
	}
	if !json.Valid(cmd.PayloadJSON) {
		return Command{}, Definition{}, invalid(ErrPayloadInvalid)
	}
	canonical, err := encoding.CanonicalJSON(json.RawMessage(cmd.PayloadJSON))
	if err != nil {
		return Command{}, Definition{}, invalid(fmt.Errorf("canonical payload json: %w", err))
	}
	cmd.PayloadJSON = canonical
	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(json.RawMessage(cmd.PayloadJSON)); err != nil {
			if apperrors.CodeOf(err) != apperrors.CodeUnknown {
				return Command{}, Definition{}, err
			}
			return Command{}, Definition{}, invalid(fmt.Errorf("payload invalid: %w", err))
		}
	}
	return cmd, def, nil
}

func invalid(err error) error {
	return apperrors.Wrap(apperrors.CodeInvalidArgument, err.Error(), err)
}
