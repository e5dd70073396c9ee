// Package ledger composes the accounting components into one serialized
// state machine.
//
// Every mutation runs the same path: the command is validated against the
// command registry, the lifecycle and delegation gates are consulted, a
// decider checks the command against current state and emits events, the
// events are staged with contiguous sequence numbers, appended to the journal
// in one atomic batch and only then folded into the components and the trace
// log. A rejected command changes nothing. A journal fault halts the ledger
// because in-memory state can no longer be trusted to match storage.
package ledger
