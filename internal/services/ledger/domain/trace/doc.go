// Package trace owns the append-only log of journal events and the trace
// records projected from the balance-affecting ones.
//
// The log is an arena: entry i holds the event with sequence number i+1, so
// lookups by sequence are O(1) and account queries walk a per-account list of
// sequence numbers. The log is the only place sequence numbers are assigned.
package trace
