package event

import "time"

// Type identifies the event type string.
type Type string

// ActorType identifies who caused the event.
type ActorType string

const (
	// ActorTypeSystem marks events produced by the ledger itself (genesis).
	ActorTypeSystem ActorType = "system"
	// ActorTypeAccount marks events caused by an authenticated caller.
	ActorTypeAccount ActorType = "account"
)

// Event is the canonical journal envelope.
type Event struct {
	// Seq is the journal-wide sequence number, starting at 1.
	Seq       uint64
	Type      Type
	Timestamp time.Time
	ActorType ActorType
	// ActorID is the caller address in lowercase hex, empty for system events.
	ActorID string
	// RequestID correlates the event with the transport request that caused it.
	RequestID string
	// CommandType names the command whose decision emitted the event.
	CommandType string
	PayloadJSON []byte

	// Integrity fields, assigned by the journal on append.
	Hash           string
	PrevHash       string
	ChainHash      string
	Signature      string
	SignatureKeyID string
}
