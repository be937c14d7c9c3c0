package chainhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// GenesisHash is the previous-hash of the first entry of every chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Compute returns the uppercase hex SHA-256 of previousHash followed by payload.
func Compute(previousHash string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(previousHash))
	h.Write(payload)
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}

// Link is the part of a stored entry that verification looks at.
type Link struct {
	RegistryNumber int64
	PreviousHash   string
	Hash           string
	Payload        []byte
}

// Failure reasons reported by Verify.
const (
	ReasonGenesis      = "first entry does not link to the genesis hash"
	ReasonSequenceGap  = "registry numbers are not contiguous"
	ReasonBrokenLink   = "previous hash does not match the preceding entry"
	ReasonHashMismatch = "stored hash does not match the recomputed hash"
)

// Result describes the outcome of verifying a chain.
type Result struct {
	OK       bool
	Checked  int
	BrokenAt int // index into the verified slice, -1 when OK
	Reason   string
}

// Verify walks links in registry order and stops at the first inconsistency.
func Verify(links []Link) Result {
	prev := GenesisHash
	for i, l := range links {
		if i == 0 && (l.PreviousHash != GenesisHash || l.RegistryNumber != 1) {
			return Result{Checked: i, BrokenAt: i, Reason: ReasonGenesis}
		}
		if i > 0 && l.RegistryNumber != links[i-1].RegistryNumber+1 {
			return Result{Checked: i, BrokenAt: i, Reason: ReasonSequenceGap}
		}
		if l.PreviousHash != prev {
			return Result{Checked: i, BrokenAt: i, Reason: ReasonBrokenLink}
		}
		if Compute(prev, l.Payload) != l.Hash {
			return Result{Checked: i, BrokenAt: i, Reason: ReasonHashMismatch}
		}
		prev = l.Hash
	}
	return Result{OK: true, Checked: len(links), BrokenAt: -1}
}
