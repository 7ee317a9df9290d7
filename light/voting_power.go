package light

import (
	"fmt"
	"time"
)

// VotingPowerTally is the result of tallying signed voting power against a
// reference validator set.
type VotingPowerTally struct {
	// Signed is the power contributed by valid commit signatures whose
	// validator is a member of the reference set.
	Signed int64
	// Total is the reference set's total voting power.
	Total int64
}

func (t VotingPowerTally) String() string {
	return fmt.Sprintf("%d/%d", t.Signed, t.Total)
}

// SignatureVerifier verifies a single commit signature against a public
// key. It is the narrowest cryptographic capability the core consumes,
// leaving Ed25519 signing/verification to the implementation in light/crypto.
type SignatureVerifier interface {
	VerifySignCommitSig(chainID string, height Height, round int32, blockID BlockID,
		timestamp time.Time, validator *Validator, sig []byte) bool
}
