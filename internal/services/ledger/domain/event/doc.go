// Package event defines the journal event envelope and the event-type
// registry used by the ledger write path.
//
// Events are immutable facts emitted by accepted decisions. They double as
// the ledger's external notifications: indexers and successor ledgers read
// them in sequence order. The registry checks actor metadata and payload
// validity before the trace log assigns sequence numbers and the journal
// assigns integrity fields.
package event
