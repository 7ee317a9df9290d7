package light

import (
	"fmt"
	"time"
)

// VerificationError describes which invariant a predicate found violated.
// Every predicate in this file returns either nil or a VerificationError;
// the Verifier (verifier.go) is the only place these get turned into a
// Verdict.
type VerificationError struct {
	// Detail is a short machine-distinguishable tag, e.g. "not_enough_trust",
	// used by the Verifier to decide between Verdict::Invalid and
	// Verdict::NotEnoughTrust.
	Detail string
	// Tally carries the voting-power tally when Detail == notEnoughTrustTag;
	// nil otherwise.
	Tally *VotingPowerTally
	msg    string
}

func (e *VerificationError) Error() string { return e.msg }

const notEnoughTrustTag = "not_enough_trust"

func newVerificationError(detail, msg string) *VerificationError {
	return &VerificationError{Detail: detail, msg: msg}
}

// Hasher computes content hashes of headers and validator sets. It is a
// capability the core consumes rather than implements; see light/crypto for
// the production implementation.
type Hasher interface {
	HashHeader(*Header) []byte
	HashValidatorSet(*ValidatorSet) []byte
}

// isWithinTrustPeriod fails if now - header.Time >= trustingPeriod or
// header.Time > now.
func isWithinTrustPeriod(header *Header, trustingPeriod time.Duration, now time.Time) error {
	if header.Time.After(now) {
		return newVerificationError("header_from_future",
			fmt.Sprintf("trusted header time %s is after now %s", header.Time, now))
	}
	if now.Sub(header.Time) >= trustingPeriod {
		return newVerificationError("expired",
			fmt.Sprintf("trusted header at height %d (time %s) is outside the %s trusting period",
				header.Height, header.Time, trustingPeriod))
	}
	return nil
}

// isHeaderFromPast fails if header.Time >= now + clockDrift.
func isHeaderFromPast(header *Header, clockDrift time.Duration, now time.Time) error {
	if !header.Time.Before(now.Add(clockDrift)) {
		return newVerificationError("header_from_future",
			fmt.Sprintf("untrusted header time %s is not before now+drift %s", header.Time, now.Add(clockDrift)))
	}
	return nil
}

// validatorSetsMatch fails if hash(set) != expectedHash.
func validatorSetsMatch(set *ValidatorSet, expectedHash []byte, hasher Hasher) error {
	got := hasher.HashValidatorSet(set)
	if !bytesEqual(got, expectedHash) {
		return newVerificationError("invalid_validator_set",
			fmt.Sprintf("validators hash mismatch: header says %X, set hashes to %X", expectedHash, got))
	}
	return nil
}

// nextValidatorsMatch is the symmetric check on the next validator set.
func nextValidatorsMatch(set *ValidatorSet, expectedHash []byte, hasher Hasher) error {
	got := hasher.HashValidatorSet(set)
	if !bytesEqual(got, expectedHash) {
		return newVerificationError("invalid_next_validator_set",
			fmt.Sprintf("next_validators hash mismatch: header says %X, set hashes to %X", expectedHash, got))
	}
	return nil
}

// headerMatchesCommit fails if the commit is for a different header.
func headerMatchesCommit(header *Header, commitBlockIDHash []byte, hasher Hasher) error {
	got := hasher.HashHeader(header)
	if !bytesEqual(got, commitBlockIDHash) {
		return newVerificationError("header_commit_mismatch",
			fmt.Sprintf("header hash %X does not match commit's block id hash %X", got, commitBlockIDHash))
	}
	return nil
}

// CommitValidator checks structural and cryptographic validity of a commit
// against a validator set. It is a capability the core consumes.
type CommitValidator interface {
	Validate(sh *SignedHeader, validators *ValidatorSet) error
}

// validCommit delegates to the CommitValidator capability: each non-absent
// signature must reference a member of the set, be structurally
// well-formed, and verify against the canonical sign-bytes.
func validCommit(sh *SignedHeader, validators *ValidatorSet, cv CommitValidator) error {
	if err := cv.Validate(sh, validators); err != nil {
		return newVerificationError("invalid_commit", err.Error())
	}
	return nil
}

// isMonotonicBFTTime fails if untrusted.Time <= trusted.Time.
func isMonotonicBFTTime(untrusted, trusted *Header) error {
	if !untrusted.Time.After(trusted.Time) {
		return newVerificationError("non_monotonic_bft_time",
			fmt.Sprintf("untrusted header time %s is not after trusted header time %s", untrusted.Time, trusted.Time))
	}
	return nil
}

// isMonotonicHeight fails if untrusted.Height <= trusted.Height.
func isMonotonicHeight(untrusted, trusted *Header) error {
	if untrusted.Height <= trusted.Height {
		return newVerificationError("non_monotonic_height",
			fmt.Sprintf("untrusted height %d is not greater than trusted height %d", untrusted.Height, trusted.Height))
	}
	return nil
}

// validNextValidatorSet applies when untrusted.Height == trusted.Height+1:
// fails if untrusted.ValidatorsHash != trusted.NextValidatorsHash.
func validNextValidatorSet(untrusted, trusted *Header) error {
	if !bytesEqual(untrusted.ValidatorsHash, trusted.NextValidatorsHash) {
		return newVerificationError("invalid_adjacent_validator_set",
			fmt.Sprintf("untrusted validators_hash %X does not match trusted next_validators_hash %X",
				untrusted.ValidatorsHash, trusted.NextValidatorsHash))
	}
	return nil
}

// VotingPowerCalculator tallies the voting power contributed by valid
// commit signatures whose validators are members of a reference set. It is
// a capability the core consumes; see light/crypto for the production
// implementation and voting_power.go for the tally type.
type VotingPowerCalculator interface {
	VotingPowerIn(sh *SignedHeader, validators *ValidatorSet) (VotingPowerTally, error)
}

// hasSufficientValidatorsOverlap checks that the signers of untrusted that
// are also members of trustedNextValidators have power exceeding the trust
// threshold of trustedNextValidators' total power.
func hasSufficientValidatorsOverlap(untrusted *SignedHeader, trustedNextValidators *ValidatorSet,
	threshold TrustThreshold, calc VotingPowerCalculator) error {

	tally, err := calc.VotingPowerIn(untrusted, trustedNextValidators)
	if err != nil {
		return newVerificationError("invalid_commit", err.Error())
	}

	if !threshold.Exceeds(tally.Signed, tally.Total) {
		return &VerificationError{
			Detail: notEnoughTrustTag,
			Tally:  &tally,
			msg: fmt.Sprintf("signers common to the trusted next validator set carry %d/%d power, "+
				"below threshold %d/%d", tally.Signed, tally.Total, threshold.Numerator, threshold.Denominator),
		}
	}
	return nil
}

// hasSufficientSignersOverlap checks that signers who are members of
// untrustedValidators carry a strict majority (>2/3) of its total power.
func hasSufficientSignersOverlap(untrusted *SignedHeader, untrustedValidators *ValidatorSet,
	calc VotingPowerCalculator) error {

	tally, err := calc.VotingPowerIn(untrusted, untrustedValidators)
	if err != nil {
		return newVerificationError("invalid_commit", err.Error())
	}

	twoThirds := TrustThreshold{Numerator: 2, Denominator: 3}
	if !twoThirds.Exceeds(tally.Signed, tally.Total) {
		return newVerificationError("insufficient_commit_power",
			fmt.Sprintf("commit carries %d/%d power, which is not >2/3", tally.Signed, tally.Total))
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
