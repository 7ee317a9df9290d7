package light

import (
	"sort"

	"github.com/tendermint/tendermint/libs/log"
)

// FaultKind distinguishes the three outcomes of cross-checking one witness.
type FaultKind uint8

const (
	// FaultNone means the witness agreed; no Fork entry is emitted for it.
	FaultNone FaultKind = iota
	// FaultForked means an actual conflicting-header attack was found:
	// primary and witness produced different, independently verifiable
	// chains from a common anchor.
	FaultForked
	// FaultTimeout means fetching the witness's block failed (a timeout or
	// any other Io fault); it should be removed without producing evidence.
	FaultTimeout
	// FaultFaulty means the witness itself produced a header that could not
	// be reconciled with the trusted anchor (the witness, not the primary,
	// is the attacker, or it is simply broken).
	FaultFaulty
)

// Fork is one divergence found while cross-checking a witness.
type Fork struct {
	Kind FaultKind
	Peer PeerID

	// Populated when Kind == FaultForked.
	Primary *LightBlock
	Witness *LightBlock
	Common  *LightBlock

	// Populated when Kind == FaultTimeout or FaultFaulty.
	Err error
}

// ForkDetectionKind distinguishes whether any witness disagreed.
type ForkDetectionKind uint8

const (
	// NotDetected means every witness agreed with the primary.
	NotDetected ForkDetectionKind = iota
	// Detected means at least one Fork was produced.
	Detected
)

// ForkDetection is the result of cross-checking a verified block against a
// set of witnesses.
type ForkDetection struct {
	Kind  ForkDetectionKind
	Forks []Fork
}

// ForkDetector cross-checks a just-verified header against witness peers.
type ForkDetector interface {
	Detect(verified, trusted *LightBlock, trace []*LightBlock, witnesses map[PeerID]Io) ForkDetection
}

// DefaultForkDetector implements ForkDetector by re-running skipping
// verification against each witness's own chain of blocks, walking the
// primary's trace from the trusted anchor upward until a hash divergence is
// found.
type DefaultForkDetector struct {
	ChainID   string
	Options   Options
	Clock     Clock
	Scheduler Scheduler
	Verifier  Verifier
	Hasher    Hasher

	logger log.Logger
}

// NewDefaultForkDetector constructs a DefaultForkDetector sharing the same
// algorithmic components (Verifier, Scheduler, Hasher) the primary
// LightClient uses, since cross-checking a witness means re-running the
// same skipping-verification algorithm against a different Io source.
func NewDefaultForkDetector(chainID string, options Options, clock Clock, scheduler Scheduler,
	verifier Verifier, hasher Hasher) *DefaultForkDetector {

	return &DefaultForkDetector{
		ChainID: chainID, Options: options, Clock: clock,
		Scheduler: scheduler, Verifier: verifier, Hasher: hasher,
		logger: log.NewNopLogger(),
	}
}

// SetLogger sets the logger used for diagnostic output.
func (d *DefaultForkDetector) SetLogger(logger log.Logger) { d.logger = logger }

// Detect implements ForkDetector. Witnesses are visited in ascending peer
// id order so that fork reporting is reproducible.
func (d *DefaultForkDetector) Detect(verified, trusted *LightBlock, trace []*LightBlock,
	witnesses map[PeerID]Io) ForkDetection {

	ids := make([]PeerID, 0, len(witnesses))
	for id := range witnesses {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	// A State trace records the heights visited while verifying, not the
	// anchor verification started from, so the anchor is put in front.
	if len(trace) == 0 || trace[0].Height() > trusted.Height() {
		trace = append([]*LightBlock{trusted}, trace...)
	}

	var forks []Fork
	for _, id := range ids {
		if fork := d.examineWitness(id, witnesses[id], verified, trace); fork.Kind != FaultNone {
			forks = append(forks, fork)
		}
	}

	if len(forks) == 0 {
		return ForkDetection{Kind: NotDetected}
	}
	return ForkDetection{Kind: Detected, Forks: forks}
}

func (d *DefaultForkDetector) examineWitness(id PeerID, io Io, verified *LightBlock, trace []*LightBlock) Fork {
	witnessBlock, err := io.FetchLightBlock(At(verified.Height()))
	if err != nil {
		// Any fetch fault, not only a timeout, drops the witness from
		// rotation without generating evidence: an unresponsive or
		// misbehaving-at-the-transport-level peer hasn't produced a
		// conflicting header to prove anything against.
		return Fork{Kind: FaultTimeout, Peer: id, Err: err}
	}

	if bytesEqual(d.Hasher.HashHeader(witnessBlock.SignedHeader.Header), d.Hasher.HashHeader(verified.SignedHeader.Header)) {
		return Fork{Kind: FaultNone, Peer: id}
	}

	divergentPrimary, divergentWitness, commonBlock, err := d.examineConflictingHeaderAgainstTrace(trace, verified, witnessBlock, io)
	if err != nil {
		return Fork{Kind: FaultFaulty, Peer: id, Err: err}
	}

	return Fork{
		Kind:    FaultForked,
		Peer:    id,
		Primary: divergentPrimary,
		Witness: divergentWitness,
		Common:  commonBlock,
	}
}

// examineConflictingHeaderAgainstTrace walks the primary's trace, from the
// trusted anchor upward, fetching the witness's block at each height and
// comparing hashes. On the first divergence it returns the primary's
// divergent block (from the trace), the witness's block at that same height,
// and the common ancestor block the witness agreed on. If the witness's
// first block (the trusted anchor) already diverges, the witness itself is
// malicious.
func (d *DefaultForkDetector) examineConflictingHeaderAgainstTrace(trace []*LightBlock,
	verified, challenger *LightBlock, witnessIo Io) (divergentPrimary, divergentWitness, common *LightBlock, err error) {

	if len(trace) == 0 {
		return nil, nil, nil, newVerificationError("empty_trace", "primary trace is empty, cannot cross-check witness")
	}

	var lastAgreed *LightBlock

	for i, traceBlock := range trace {
		var witnessBlock *LightBlock
		if traceBlock.Height() == challenger.Height() {
			witnessBlock = challenger
		} else {
			witnessBlock, err = witnessIo.FetchLightBlock(At(traceBlock.Height()))
			if err != nil {
				return nil, nil, nil, ErrIoFault(err.Error())
			}
		}

		if i == 0 {
			// The first trace block is the trusted anchor; the witness must
			// agree with it verbatim or it is the one at fault.
			if !bytesEqual(d.Hasher.HashHeader(witnessBlock.SignedHeader.Header), d.Hasher.HashHeader(traceBlock.SignedHeader.Header)) {
				return nil, nil, nil, newVerificationError("witness_diverges_from_anchor",
					"witness's block at the trusted anchor height does not match the trusted hash")
			}
			lastAgreed = witnessBlock
			continue
		}

		if err := d.verifySkipping(witnessIo, lastAgreed, witnessBlock); err != nil {
			return nil, nil, nil, err
		}

		if bytesEqual(d.Hasher.HashHeader(witnessBlock.SignedHeader.Header), d.Hasher.HashHeader(traceBlock.SignedHeader.Header)) {
			lastAgreed = witnessBlock
			continue
		}

		return traceBlock, witnessBlock, lastAgreed, nil
	}

	// The witness's trace reached the challenger's height without
	// diverging from the primary's trace blocks: the hash mismatch at the
	// top (already established by the caller) is itself the divergence.
	return verified, challenger, lastAgreed, nil
}

// verifySkipping verifies target against trusted purely using the given
// Io, in a disposable in-memory store, to confirm the witness's own chain
// independently produces target. It is used only to confirm that a witness
// block at an intermediate trace height is itself the product of a valid
// skip from the previously agreed block, not to mutate any real state.
func (d *DefaultForkDetector) verifySkipping(io Io, trusted, target *LightBlock) error {
	store := NewMemoryStore()
	store.Insert(trusted, StatusTrusted)
	store.Insert(target, StatusUnverified)

	state := NewState(store)
	client := NewLightClient(d.ChainID, target.Provider, d.Options, d.Clock, d.Scheduler, d.Verifier, d.Hasher, io, state)
	client.SetLogger(d.logger)

	_, err := client.VerifyToTarget(target.Height())
	return err
}
