package light

import "github.com/tendermint/tendermint/libs/log"

// LightClientAttackEvidence is a structured record of an attack, suitable
// for submission to the chain's evidence pool.
type LightClientAttackEvidence struct {
	// ConflictingBlock is the divergent block attributed to the accused
	// peer.
	ConflictingBlock *LightBlock
	// CommonHeight is the height of the last block both peers agreed on.
	CommonHeight Height
	// TrustedBlock is the accuser's own block at ConflictingBlock's height,
	// used as ground truth when this evidence is verified on-chain.
	TrustedBlock *LightBlock
}

// BuildAttackEvidence assembles the two symmetric evidence records for a
// FaultForked Fork: one against the primary (using the witness as ground
// truth) and one against the witness (using the primary as ground truth).
// It panics if fork.Kind != FaultForked.
func BuildAttackEvidence(fork Fork) (againstPrimary, againstWitness *LightClientAttackEvidence) {
	if fork.Kind != FaultForked {
		panic("light: BuildAttackEvidence called on a non-forked Fork")
	}

	againstPrimary = &LightClientAttackEvidence{
		ConflictingBlock: fork.Primary,
		CommonHeight:     fork.Common.Height(),
		TrustedBlock:     fork.Witness,
	}
	againstWitness = &LightClientAttackEvidence{
		ConflictingBlock: fork.Witness,
		CommonHeight:     fork.Common.Height(),
		TrustedBlock:     fork.Primary,
	}
	return againstPrimary, againstWitness
}

// IsAmnesiaAttack reports whether the two divergent blocks in a FaultForked
// Fork were committed in different rounds for what would otherwise be
// matching height — a distinct, rarer attack shape worth logging
// separately from ordinary lunatic/equivocation forks.
func IsAmnesiaAttack(fork Fork) bool {
	if fork.Kind != FaultForked {
		return false
	}
	return fork.Primary.SignedHeader.Commit.Round != fork.Witness.SignedHeader.Commit.Round
}

// SubmitEvidence reports both halves of a forked evidence pair to their
// respective opposite peer: the evidence against the primary goes to the
// witness (which holds the conflicting ground truth), and vice versa.
func SubmitEvidence(reporter EvidenceReporter, fork Fork, primaryPeer PeerID, logger log.Logger) error {
	againstPrimary, againstWitness := BuildAttackEvidence(fork)

	if IsAmnesiaAttack(fork) {
		logger.Info("detected amnesia attack: conflicting blocks committed in different rounds",
			"primary_round", fork.Primary.SignedHeader.Commit.Round,
			"witness_round", fork.Witness.SignedHeader.Commit.Round)
	}

	if _, err := reporter.Report(againstPrimary, fork.Peer); err != nil {
		return err
	}
	if _, err := reporter.Report(againstWitness, primaryPeer); err != nil {
		return err
	}
	return nil
}
