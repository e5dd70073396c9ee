// Package command defines the command envelope, gate policies and the
// command registry used by the ledger write path.
//
// A command is a caller's request to change ledger state. It is validated
// and normalized here, gated by lifecycle policy, and then decided against
// current state. Accepted decisions emit events; rejected ones carry a coded
// reason and leave no trace.
package command
