// Package integrity signs and verifies the journal's hash chain.
//
// Every stored event carries a content hash and a chain hash linking it to its
// predecessor (see the event package). This package adds an HMAC over the
// chain hash, keyed per ledger, so a rewritten journal is detected even when
// the rewriter recomputes the hashes.
package integrity
