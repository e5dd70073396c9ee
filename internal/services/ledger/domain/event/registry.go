package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/encoding"
)

var (
	// ErrTypeRequired indicates a missing event type.
	ErrTypeRequired = errors.New("event type is required")
	// ErrTypeUnknown indicates an unregistered event type.
	ErrTypeUnknown = errors.New("event type is not registered")
	// ErrActorTypeInvalid indicates an unknown actor type.
	ErrActorTypeInvalid = errors.New("actor type is invalid")
	// ErrActorIDRequired indicates a missing actor id for account events.
	ErrActorIDRequired = errors.New("actor id is required for account events")
	// ErrTimestampRequired indicates a missing event timestamp.
	ErrTimestampRequired = errors.New("event timestamp is required")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// Intent classifies how an event affects ledger state.
type Intent string

const (
	// IntentBalance marks events that move balances; they project into trace
	// records.
	IntentBalance Intent = "balance"
	// IntentState marks events that change non-balance state.
	IntentState Intent = "state"
)

// PayloadValidator validates a payload JSON document.
type PayloadValidator func(json.RawMessage) error

// Definition registers metadata for an event type.
type Definition struct {
	Type            Type
	Intent          Intent
	ValidatePayload PayloadValidator
}

// Registry stores event definitions and validates events before append.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// Register adds a new event type definition to the registry.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return errors.New("registry is required")
	}
	def.Type = Type(strings.TrimSpace(string(def.Type)))
	if def.Type == "" {
		return ErrTypeRequired
	}
	if def.Intent == "" {
		def.Intent = IntentState
	}
	if r.definitions == nil {
		r.definitions = make(map[Type]Definition)
	}
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("event type already registered: %s", def.Type)
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

// ValidateForAppend validates and normalizes an event before it is staged.
func (r *Registry) ValidateForAppend(evt Event) (Event, error) {
	evt.Type = Type(strings.TrimSpace(string(evt.Type)))
	if evt.Type == "" {
		return Event{}, ErrTypeRequired
	}
	def, ok := r.Definition(evt.Type)
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrTypeUnknown, evt.Type)
	}
	if evt.Timestamp.IsZero() {
		return Event{}, ErrTimestampRequired
	}
	evt.Timestamp = evt.Timestamp.UTC()

	switch evt.ActorType {
	case ActorTypeSystem:
	case ActorTypeAccount:
		evt.ActorID = strings.ToLower(strings.TrimSpace(evt.ActorID))
		if evt.ActorID == "" {
			return Event{}, ErrActorIDRequired
		}
	default:
		return Event{}, ErrActorTypeInvalid
	}

	if len(evt.PayloadJSON) == 0 {
		evt.PayloadJSON = []byte("{}")
	}
	if !json.Valid(evt.PayloadJSON) {
		return Event{}, ErrPayloadInvalid
	}
	canonical, err := encoding.CanonicalJSON(json.RawMessage(evt.PayloadJSON))
	if err != nil {
		return Event{}, fmt.Errorf("canonical payload json: %w", err)
	}
	evt.PayloadJSON = canonical
	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(json.RawMessage(evt.PayloadJSON)); err != nil {
			return Event{}, fmt.Errorf("payload invalid for %s: %w", evt.Type, err)
		}
	}
	return evt, nil
}

// IsBalanceEvent reports whether t was registered with IntentBalance.
func (r *Registry) IsBalanceEvent(t Type) bool {
	def, ok := r.Definition(t)
	return ok && def.Intent == IntentBalance
}
