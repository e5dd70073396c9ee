package event

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodePayload strictly decodes a payload document into T.
func DecodePayload[T any](payload []byte) (T, error) {
	var out T
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}

// ValidatorFor builds a PayloadValidator that decodes into T and applies
// check. A nil check only enforces the shape.
func ValidatorFor[T any](check func(T) error) PayloadValidator {
	return func(raw json.RawMessage) error {
		payload, err := DecodePayload[T](raw)
		if err != nil {
			return err
		}
		if check == nil {
			return nil
		}
		return check(payload)
	}
}
