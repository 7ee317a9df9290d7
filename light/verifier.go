package light

import "time"

// VerdictKind distinguishes the three possible outcomes of Verifier.Verify.
type VerdictKind uint8

const (
	// VerdictSuccess means all predicates passed and the trust link holds.
	VerdictSuccess VerdictKind = iota
	// VerdictNotEnoughTrust means the overlap predicate failed but nothing
	// else; recoverable by bisection.
	VerdictNotEnoughTrust
	// VerdictInvalid means some other predicate failed; the block is
	// permanently rejected.
	VerdictInvalid
)

// Verdict is the outcome of verifying one untrusted block against one
// trusted block.
type Verdict struct {
	Kind  VerdictKind
	Tally VotingPowerTally // only meaningful when Kind == VerdictNotEnoughTrust
	Err   error            // only meaningful when Kind == VerdictInvalid
}

func verdictFromError(err error) Verdict {
	if err == nil {
		return Verdict{Kind: VerdictSuccess}
	}
	if ve, ok := err.(*VerificationError); ok && ve.Detail == notEnoughTrustTag {
		return Verdict{Kind: VerdictNotEnoughTrust, Tally: *ve.Tally}
	}
	return Verdict{Kind: VerdictInvalid, Err: err}
}

// Verifier renders a verdict for a single untrusted block given a trusted
// anchor.
type Verifier interface {
	Verify(untrusted, trusted *LightBlock, options Options, now time.Time) Verdict
}

// PredicateVerifier is the production Verifier: it runs the nine-step
// predicate chain in a fixed contractual order, short circuiting on the
// first failure.
type PredicateVerifier struct {
	Hasher                 Hasher
	CommitValidator         CommitValidator
	VotingPowerCalculator   VotingPowerCalculator
}

// NewPredicateVerifier constructs a PredicateVerifier from its three
// capability ports.
func NewPredicateVerifier(hasher Hasher, cv CommitValidator, vpc VotingPowerCalculator) *PredicateVerifier {
	return &PredicateVerifier{Hasher: hasher, CommitValidator: cv, VotingPowerCalculator: vpc}
}

// Verify runs the contractual nine-step predicate chain.
//
// 1. is_within_trust_period(trusted.header, ..., now)
// 2. is_header_from_past(untrusted.header, ..., now)
// 3. validator_sets_match
// 4. next_validators_match
// 5. header_matches_commit
// 6. valid_commit
// 7. is_monotonic_bft_time
// 8. adjacent: valid_next_validator_set; skip: is_monotonic_height + has_sufficient_validators_overlap
// 9. has_sufficient_signers_overlap
//
// The adjacent branch bypasses the trust-overlap check because
// trusted.NextValidatorsHash binds the set directly.
func (pv *PredicateVerifier) Verify(untrusted, trusted *LightBlock, options Options, now time.Time) Verdict {
	uh := untrusted.SignedHeader.Header
	th := trusted.SignedHeader.Header

	if err := isWithinTrustPeriod(th, options.TrustingPeriod, now); err != nil {
		return verdictFromError(err)
	}
	if err := isHeaderFromPast(uh, options.ClockDrift, now); err != nil {
		return verdictFromError(err)
	}
	if err := validatorSetsMatch(untrusted.Validators, uh.ValidatorsHash, pv.Hasher); err != nil {
		return verdictFromError(err)
	}
	if err := nextValidatorsMatch(untrusted.NextValidators, uh.NextValidatorsHash, pv.Hasher); err != nil {
		return verdictFromError(err)
	}
	if err := headerMatchesCommit(uh, untrusted.SignedHeader.Commit.BlockID.Hash, pv.Hasher); err != nil {
		return verdictFromError(err)
	}
	if err := validCommit(untrusted.SignedHeader, untrusted.Validators, pv.CommitValidator); err != nil {
		return verdictFromError(err)
	}
	if err := isMonotonicBFTTime(uh, th); err != nil {
		return verdictFromError(err)
	}

	if uh.Height == th.Height+1 {
		if err := validNextValidatorSet(uh, th); err != nil {
			return verdictFromError(err)
		}
	} else {
		if err := isMonotonicHeight(uh, th); err != nil {
			return verdictFromError(err)
		}
		if err := hasSufficientValidatorsOverlap(untrusted.SignedHeader, trusted.NextValidators,
			options.TrustThreshold, pv.VotingPowerCalculator); err != nil {
			return verdictFromError(err)
		}
	}

	if err := hasSufficientSignersOverlap(untrusted.SignedHeader, untrusted.Validators, pv.VotingPowerCalculator); err != nil {
		return verdictFromError(err)
	}

	return Verdict{Kind: VerdictSuccess}
}
