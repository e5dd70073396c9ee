// Package sqlite stores the ledger journal in SQLite.
//
// Each append runs in one transaction: events are sealed into the hash chain,
// signed with the integrity keyring and written together with their trace
// columns, so a batch is either fully durable or absent.
package sqlite
