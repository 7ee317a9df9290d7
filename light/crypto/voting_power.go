package crypto

import (
	"fmt"
	"time"

	tmtypes "github.com/tendermint/tendermint/types"

	"github.com/coinexchain/tm-light/light"
)

// ProdSignatureVerifier implements light.SignatureVerifier by reconstructing
// the canonical precommit vote sign-bytes tendermint uses and checking them
// against the validator's public key. It never touches Ed25519 (or any
// other curve) math directly; that lives entirely inside validator.PubKey.
type ProdSignatureVerifier struct{}

// VerifySignCommitSig implements light.SignatureVerifier.
func (ProdSignatureVerifier) VerifySignCommitSig(chainID string, height light.Height, round int32,
	blockID light.BlockID, timestamp time.Time, validator *light.Validator, sig []byte) bool {

	vote := tmtypes.Vote{
		Type:      tmtypes.PrecommitType,
		Height:    height,
		Round:     round,
		BlockID:   toTMBlockID(blockID),
		Timestamp: timestamp,
	}
	return validator.PubKey.VerifyBytes(vote.SignBytes(chainID), sig)
}

// ProdVotingPowerCalculator implements light.VotingPowerCalculator by
// tallying, over a reference validator set, the power of every commit
// signer who is a member of that set. A present, non-absent signature that
// fails to verify is a hard failure, not silent non-membership: a
// commit carrying a forged signature must not be allowed to pass as if the
// signer had simply not voted.
type ProdVotingPowerCalculator struct {
	Verifier light.SignatureVerifier
}

// NewProdVotingPowerCalculator constructs a ProdVotingPowerCalculator using
// ProdSignatureVerifier.
func NewProdVotingPowerCalculator() *ProdVotingPowerCalculator {
	return &ProdVotingPowerCalculator{Verifier: ProdSignatureVerifier{}}
}

// VotingPowerIn implements light.VotingPowerCalculator.
func (c *ProdVotingPowerCalculator) VotingPowerIn(sh *light.SignedHeader,
	validators *light.ValidatorSet) (light.VotingPowerTally, error) {

	var signed int64
	seen := make(map[string]struct{}, len(sh.Commit.Signatures))

	for _, sig := range sh.Commit.Signatures {
		if sig.Kind != light.SignatureCommit {
			continue
		}

		key := string(sig.ValidatorAddress)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		validator := validators.GetByAddress(sig.ValidatorAddress)
		if validator == nil {
			continue
		}

		if !c.Verifier.VerifySignCommitSig(sh.Header.ChainID, sh.Commit.Height, sh.Commit.Round,
			sh.Commit.BlockID, sig.Timestamp, validator, sig.Signature) {
			return light.VotingPowerTally{}, fmt.Errorf(
				"invalid commit signature from validator %X at height %d", sig.ValidatorAddress, sh.Commit.Height)
		}

		signed += validator.VotingPower
	}

	return light.VotingPowerTally{Signed: signed, Total: validators.TotalVotingPower()}, nil
}
