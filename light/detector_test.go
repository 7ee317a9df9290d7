package light

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coinexchain/tm-light/light/provider/mock"
)

// detectorTime gives every fixture block a distinct, height-monotonic
// timestamp, independent of the client_test.go fixtures.
func detectorTime(height Height) time.Time { return time.Unix(5000+int64(height), 0) }

// detectorBlock builds a block whose hash is entirely determined by tag,
// letting a test construct two chains that share a height but diverge: the
// primary's block at a height and a witness's block at the same height need
// only carry different tags to look like a fork to detectorHasher.
func detectorBlock(height Height, tag, lastTag string) *LightBlock {
	header := &Header{
		Height:             height,
		Time:               detectorTime(height),
		ValidatorsHash:     []byte(tag),
		NextValidatorsHash: []byte(tag),
		LastBlockID:        BlockID{Hash: []byte(lastTag)},
	}
	valSet := &ValidatorSet{Validators: []*Validator{{Address: []byte(tag), VotingPower: 10}}}
	return &LightBlock{
		SignedHeader: &SignedHeader{
			Header: header,
			Commit: &Commit{Height: height, BlockID: BlockID{Hash: []byte(tag)}},
		},
		Validators:     valSet,
		NextValidators: valSet,
	}
}

// detectorHasher keys everything off the tag a fixture block was built
// with, so validator-set and header/commit checks pass automatically and a
// test only has to vary the tag to make two same-height blocks look like a
// fork (or not).
var detectorHasher = fakeHasher{
	headerHash: func(h *Header) []byte { return h.ValidatorsHash },
	valSetHash: func(vs *ValidatorSet) []byte {
		if len(vs.Validators) == 0 {
			return nil
		}
		return vs.Validators[0].Address
	},
}

func newDetector(t *testing.T) *DefaultForkDetector {
	t.Helper()
	verifier := NewPredicateVerifier(detectorHasher, fakeCommitValidator{}, fakeVotingPowerCalculator{tally: VotingPowerTally{Signed: 10, Total: 10}})
	return NewDefaultForkDetector("test-chain",
		Options{TrustThreshold: DefaultTrustThreshold, TrustingPeriod: time.Hour, ClockDrift: time.Minute},
		fixedClock{now: detectorTime(100).Add(time.Second)},
		BisectingScheduler{}, verifier, detectorHasher)
}

func TestDetect_WitnessAgrees(t *testing.T) {
	anchor := detectorBlock(10, "A", "genesis")
	verified := detectorBlock(100, "P", "A")
	trace := []*LightBlock{anchor, verified}

	witnessIo := mock.New("witness", detectorBlock(10, "A", "genesis"), detectorBlock(100, "P", "A"))

	detection := newDetector(t).Detect(verified, anchor, trace, map[PeerID]Io{"witness": witnessIo})
	require.Equal(t, NotDetected, detection.Kind)
	require.Empty(t, detection.Forks)
}

func TestDetect_WitnessTimesOut(t *testing.T) {
	anchor := detectorBlock(10, "A", "genesis")
	verified := detectorBlock(100, "P", "A")
	trace := []*LightBlock{anchor, verified}

	// The mock provider has no block at height 100, so the fetch fails.
	witnessIo := mock.New("witness", detectorBlock(10, "A", "genesis"))

	detection := newDetector(t).Detect(verified, anchor, trace, map[PeerID]Io{"witness": witnessIo})
	require.Equal(t, Detected, detection.Kind)
	require.Len(t, detection.Forks, 1)
	require.Equal(t, FaultTimeout, detection.Forks[0].Kind)
	require.Equal(t, PeerID("witness"), detection.Forks[0].Peer)
	require.Error(t, detection.Forks[0].Err)
}

// TestDetect_ConflictingHeaderIsForked mirrors scenario S6: the witness
// agrees with the primary at the trusted anchor but produces a different,
// independently verifiable header at the verified height.
func TestDetect_ConflictingHeaderIsForked(t *testing.T) {
	anchor := detectorBlock(10, "A", "genesis")
	verified := detectorBlock(100, "P", "A")
	trace := []*LightBlock{anchor, verified}

	witnessIo := mock.New("witness", detectorBlock(10, "A", "genesis"), detectorBlock(100, "W", "A"))

	detection := newDetector(t).Detect(verified, anchor, trace, map[PeerID]Io{"witness": witnessIo})
	require.Equal(t, Detected, detection.Kind)
	require.Len(t, detection.Forks, 1)

	fork := detection.Forks[0]
	require.Equal(t, FaultForked, fork.Kind)
	require.Equal(t, PeerID("witness"), fork.Peer)
	require.Equal(t, Height(100), fork.Primary.Height())
	require.Equal(t, Height(100), fork.Witness.Height())
	require.Equal(t, Height(10), fork.Common.Height())
}

// TestDetect_WitnessDivergesFromAnchorIsFaulty covers the case where the
// witness itself disagrees with the trusted anchor: it, not the primary, is
// broken or malicious, so no evidence-worthy fork is produced.
func TestDetect_WitnessDivergesFromAnchorIsFaulty(t *testing.T) {
	anchor := detectorBlock(10, "A", "genesis")
	verified := detectorBlock(100, "P", "A")
	trace := []*LightBlock{anchor, verified}

	witnessIo := mock.New("witness", detectorBlock(10, "X", "genesis"), detectorBlock(100, "W", "X"))

	detection := newDetector(t).Detect(verified, anchor, trace, map[PeerID]Io{"witness": witnessIo})
	require.Equal(t, Detected, detection.Kind)
	require.Len(t, detection.Forks, 1)
	require.Equal(t, FaultFaulty, detection.Forks[0].Kind)
	require.Equal(t, PeerID("witness"), detection.Forks[0].Peer)
	require.Error(t, detection.Forks[0].Err)
}

func TestDetect_MultipleWitnessesVisitedInSortedOrder(t *testing.T) {
	anchor := detectorBlock(10, "A", "genesis")
	verified := detectorBlock(100, "P", "A")
	trace := []*LightBlock{anchor, verified}

	agreeing := mock.New("b-witness", detectorBlock(10, "A", "genesis"), detectorBlock(100, "P", "A"))
	forked := mock.New("a-witness", detectorBlock(10, "A", "genesis"), detectorBlock(100, "W", "A"))

	detection := newDetector(t).Detect(verified, anchor, trace, map[PeerID]Io{
		"b-witness": agreeing,
		"a-witness": forked,
	})
	require.Equal(t, Detected, detection.Kind)
	require.Len(t, detection.Forks, 1)
	require.Equal(t, PeerID("a-witness"), detection.Forks[0].Peer)
}
