package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/encoding"
)

// ErrHashRequired indicates a chain hash was requested before the event hash
// was assigned.
var ErrHashRequired = errors.New("event hash is required")

// EventHash computes the content hash of the event envelope, excluding the
// sequence number and integrity fields.
func EventHash(evt Event) (string, error) {
	payload := evt.PayloadJSON
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	envelope := map[string]any{
		"type":         string(evt.Type),
		"timestamp":    evt.Timestamp.UTC().Format(time.RFC3339Nano),
		"actor_type":   string(evt.ActorType),
		"actor_id":     evt.ActorID,
		"request_id":   evt.RequestID,
		"command_type": evt.CommandType,
		"payload":      json.RawMessage(payload),
	}
	hash, err := encoding.Hash(envelope)
	if err != nil {
		return "", fmt.Errorf("event hash: %w", err)
	}
	return hash, nil
}

// ChainHash links an event to its predecessor's chain hash. The first event
// chains to the empty string.
func ChainHash(evt Event, prevChainHash string) (string, error) {
	if strings.TrimSpace(evt.Hash) == "" {
		return "", ErrHashRequired
	}
	hash, err := encoding.Hash(map[string]any{
		"seq":        evt.Seq,
		"event_hash": evt.Hash,
		"prev_hash":  prevChainHash,
	})
	if err != nil {
		return "", fmt.Errorf("chain hash: %w", err)
	}
	return hash, nil
}

// Seal assigns Hash, PrevHash and ChainHash in place.
func Seal(evt *Event, prevChainHash string) error {
	hash, err := EventHash(*evt)
	if err != nil {
		return err
	}
	evt.Hash = hash
	evt.PrevHash = prevChainHash
	chain, err := ChainHash(*evt, prevChainHash)
	if err != nil {
		return err
	}
	evt.ChainHash = chain
	return nil
}
