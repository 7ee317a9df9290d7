// Package light implements the core of a Tendermint-style light client: the
// skipping verification engine, bisection scheduling, multi-peer fork
// detection, and attack evidence generation.
//
// Transport to full nodes, on-disk persistence, CLI/configuration, and
// protobuf codecs are out of scope for this package; they are named
// collaborators consumed through the ports in io.go.
package light

import (
	"fmt"
	"time"

	"github.com/tendermint/tendermint/crypto"
)

// Height identifies a block. Heights are monotonically increasing and
// strictly positive for any block that has been produced.
type Height = int64

// PeerID identifies a full node this client talks to.
type PeerID string

// BlockID uniquely identifies a block by the hash of its header.
type BlockID struct {
	Hash []byte
}

// Validator is a single member of a validator set.
type Validator struct {
	Address         []byte
	PubKey          crypto.PubKey
	VotingPower     int64
	ProposerPriority int64
}

// ValidatorSet is an ordered collection of Validators.
type ValidatorSet struct {
	Validators []*Validator
}

// TotalVotingPower returns the sum of the voting power of all members.
func (vs *ValidatorSet) TotalVotingPower() int64 {
	var total int64
	for _, v := range vs.Validators {
		total += v.VotingPower
	}
	return total
}

// GetByAddress returns the validator with the given address, or nil if it is
// not a member of the set.
func (vs *ValidatorSet) GetByAddress(address []byte) *Validator {
	for _, v := range vs.Validators {
		if string(v.Address) == string(address) {
			return v
		}
	}
	return nil
}

// Size returns the number of validators in the set.
func (vs *ValidatorSet) Size() int {
	return len(vs.Validators)
}

// Header is the subset of block-header fields the light client depends on.
type Header struct {
	ChainID            string
	Height             Height
	Time               time.Time
	LastBlockID        BlockID
	ValidatorsHash     []byte
	NextValidatorsHash []byte
	ConsensusHash      []byte
	AppHash            []byte
	ProposerAddress    []byte
}

// SignatureKind distinguishes the three forms a per-validator commit entry
// can take.
type SignatureKind uint8

const (
	// SignatureAbsent means the validator did not sign this commit round.
	SignatureAbsent SignatureKind = iota
	// SignatureCommit is a precommit vote for the committed block.
	SignatureCommit
	// SignatureNil is a precommit vote for nil (the validator voted, but not
	// for this block).
	SignatureNil
)

// CommitSig is one validator's contribution (or lack thereof) to a Commit.
type CommitSig struct {
	Kind             SignatureKind
	ValidatorAddress []byte
	Timestamp        time.Time
	Signature        []byte
}

// Commit is the set of signatures attesting to a block at a given height and
// round.
type Commit struct {
	Height     Height
	Round      int32
	BlockID    BlockID
	Signatures []CommitSig
}

// SignedHeader pairs a Header with the Commit that attests to it.
type SignedHeader struct {
	Header *Header
	Commit *Commit
}

// Height returns the header's height.
func (sh SignedHeader) Height() Height { return sh.Header.Height }

// Time returns the header's time.
func (sh SignedHeader) Time() time.Time { return sh.Header.Time }

// Status tags the trust state of a LightBlock held in a LightStore.
type Status uint8

const (
	// StatusFailed marks a block that failed verification. Terminal.
	StatusFailed Status = iota
	// StatusUnverified marks a block fetched but not yet verified.
	StatusUnverified
	// StatusVerified marks a block that passed the Verifier.
	StatusVerified
	// StatusTrusted marks a block promoted to an anchor of trust, by
	// operator seeding, fork-detection promotion, or backward hash-chain
	// verification from a Trusted block.
	StatusTrusted
)

func (s Status) String() string {
	switch s {
	case StatusFailed:
		return "failed"
	case StatusUnverified:
		return "unverified"
	case StatusVerified:
		return "verified"
	case StatusTrusted:
		return "trusted"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// MostTrusted returns the greater of a and b under Failed < Unverified <
// Verified < Trusted. It panics if either side is Failed: Failed is a
// terminal sink for that block identity and callers must not compare it as
// if it could still gain trust.
func MostTrusted(a, b Status) Status {
	if a == StatusFailed || b == StatusFailed {
		panic("light: MostTrusted called with a Failed status")
	}
	if a > b {
		return a
	}
	return b
}

// LightBlock bundles a SignedHeader with the validator sets that sign it and
// succeed it, plus the peer it was obtained from.
type LightBlock struct {
	SignedHeader    *SignedHeader
	Validators      *ValidatorSet
	NextValidators  *ValidatorSet
	Provider        PeerID
}

// Height returns the underlying header's height.
func (lb *LightBlock) Height() Height { return lb.SignedHeader.Height() }

// Time returns the underlying header's time.
func (lb *LightBlock) Time() time.Time { return lb.SignedHeader.Time() }

// TrustThreshold is a rational p/q, 1/3 <= p/q <= 1, the minimum fraction of
// a trusted validator set's voting power that must carry over to an
// untrusted header for a skip to be accepted.
type TrustThreshold struct {
	Numerator   int64
	Denominator int64
}

// DefaultTrustThreshold is the 1/3 BFT safety threshold.
var DefaultTrustThreshold = TrustThreshold{Numerator: 1, Denominator: 3}

// Validate checks den > 0 and 1/3 <= num/den <= 1 (num*3 >= den, num <= den).
func (t TrustThreshold) Validate() error {
	if t.Denominator <= 0 {
		return fmt.Errorf("light: trust threshold denominator must be positive, got %d", t.Denominator)
	}
	if t.Numerator*3 < t.Denominator || t.Numerator*3 > t.Denominator*3 {
		return fmt.Errorf("light: trust threshold %d/%d must lie within [1/3, 1]", t.Numerator, t.Denominator)
	}
	if t.Numerator > t.Denominator {
		return fmt.Errorf("light: trust threshold %d/%d must not exceed 1", t.Numerator, t.Denominator)
	}
	return nil
}

// Exceeds reports whether power*den > threshold.Numerator*total (strict
// majority of the threshold fraction), i.e. power/total > num/den.
func (t TrustThreshold) Exceeds(power, total int64) bool {
	return power*t.Denominator > t.Numerator*total
}

// Options is the sole core-relevant configuration surface.
type Options struct {
	TrustThreshold TrustThreshold
	TrustingPeriod time.Duration
	ClockDrift     time.Duration
}
