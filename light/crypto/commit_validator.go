package crypto

import (
	"github.com/coinexchain/tm-light/light"
)

// ProdCommitValidator implements light.CommitValidator by delegating
// structural and cryptographic commit checks to tendermint's own
// ValidatorSet.VerifyCommit, the same routine full nodes use to accept a
// block: every non-absent signature must come from a set member, be
// well-formed, and verify against the canonical vote sign-bytes for this
// chain, height, and round.
type ProdCommitValidator struct{}

// Validate implements light.CommitValidator.
func (ProdCommitValidator) Validate(sh *light.SignedHeader, validators *light.ValidatorSet) error {
	tmValidators := toTMValidatorSet(validators)
	tmCommit := toTMCommit(sh)
	return tmValidators.VerifyCommit(sh.Header.ChainID, toTMBlockID(sh.Commit.BlockID), sh.Header.Height, tmCommit)
}
