package integrity

import (
	"fmt"

	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
)

// SealAndSign hashes evt, links it to prevChainHash and signs the chain hash.
func SealAndSign(k *Keyring, ledgerID string, evt *event.Event, prevChainHash string) error {
	if err := event.Seal(evt, prevChainHash); err != nil {
		return err
	}
	sig, keyID, err := k.Sign(ledgerID, evt.ChainHash)
	if err != nil {
		return fmt.Errorf("sign seq %d: %w", evt.Seq, err)
	}
	evt.Signature = sig
	evt.SignatureKeyID = keyID
	return nil
}

// Verifier checks a journal in order, one event at a time.
type Verifier struct {
	keyring  *Keyring
	ledgerID string
	prevSeq  uint64
	prevHash string
}

// NewVerifier starts verification at the beginning of the journal.
func NewVerifier(k *Keyring, ledgerID string) *Verifier {
	return &Verifier{keyring: k, ledgerID: ledgerID}
}

// Check verifies that evt is the next contiguous event, that its hashes
// match its content and predecessor, and that its signature is valid.
func (v *Verifier) Check(evt event.Event) error {
	if evt.Seq != v.prevSeq+1 {
		return fmt.Errorf("seq %d follows %d", evt.Seq, v.prevSeq)
	}
	if evt.PrevHash != v.prevHash {
		return fmt.Errorf("seq %d: prev hash does not link to seq %d", evt.Seq, v.prevSeq)
	}
	hash, err := event.EventHash(evt)
	if err != nil {
		return fmt.Errorf("seq %d: %w", evt.Seq, err)
	}
	if hash != evt.Hash {
		return fmt.Errorf("seq %d: content hash mismatch", evt.Seq)
	}
	chain, err := event.ChainHash(evt, v.prevHash)
	if err != nil {
		return fmt.Errorf("seq %d: %w", evt.Seq, err)
	}
	if chain != evt.ChainHash {
		return fmt.Errorf("seq %d: chain hash mismatch", evt.Seq)
	}
	if err := v.keyring.Verify(v.ledgerID, evt.ChainHash, evt.Signature, evt.SignatureKeyID); err != nil {
		return fmt.Errorf("seq %d: %w", evt.Seq, err)
	}
	v.prevSeq = evt.Seq
	v.prevHash = evt.ChainHash
	return nil
}

// LastSeq returns the last verified sequence number.
func (v *Verifier) LastSeq() uint64 {
	return v.prevSeq
}
