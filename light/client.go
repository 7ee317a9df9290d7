package light

import (
	"github.com/tendermint/tendermint/libs/log"
)

// LightClient drives the forward skipping-verification loop and, when
// enabled, the backward hash-chain walk.
type LightClient struct {
	ChainID string
	Primary PeerID

	Options   Options
	Clock     Clock
	Scheduler Scheduler
	Verifier  Verifier
	Hasher    Hasher
	Io        Io

	// AllowBackward enables the optional backward hash-chain verification
	// path for target heights below the highest trusted block. When false,
	// such requests fail with ErrTargetLowerThanTrustedState.
	AllowBackward bool

	State *State

	logger log.Logger
}

// NewLightClient constructs a LightClient over the given state.
func NewLightClient(chainID string, primary PeerID, options Options, clock Clock,
	scheduler Scheduler, verifier Verifier, hasher Hasher, io Io, state *State) *LightClient {

	return &LightClient{
		ChainID:   chainID,
		Primary:   primary,
		Options:   options,
		Clock:     clock,
		Scheduler: scheduler,
		Verifier:  verifier,
		Hasher:    hasher,
		Io:        io,
		State:     state,
		logger:    log.NewNopLogger(),
	}
}

// SetLogger sets the logger used for diagnostic output.
func (lc *LightClient) SetLogger(logger log.Logger) { lc.logger = logger }

// VerifyToHighest fetches the primary's latest block, then verifies to its
// height.
func (lc *LightClient) VerifyToHighest() (*LightBlock, error) {
	latest, err := lc.Io.FetchLightBlock(Highest())
	if err != nil {
		return nil, ErrIoFault(err.Error())
	}
	return lc.VerifyToTarget(latest.Height())
}

// VerifyToTarget runs the forward (and, if enabled and necessary, backward)
// verification algorithm to reach target.
func (lc *LightClient) VerifyToTarget(target Height) (*LightBlock, error) {
	trusted, ok := lc.State.Store.HighestTrustedOrVerified()
	if !ok {
		return nil, ErrNoInitialTrustedState()
	}

	if target < trusted.Height() {
		if !lc.AllowBackward {
			return nil, ErrTargetLowerThanTrustedState(target, trusted.Height())
		}
		return lc.verifyBackward(target, trusted)
	}

	return lc.verifyForward(target)
}

// verifyForward drives the skipping-verification loop: `current`
// starts at `target` and the scheduler only ever moves it down toward the
// highest verified height (bisection) or forces it back up to `target` once
// progress is exhausted; meanwhile each Success grows the set of Verified
// heights. Both monotone processes meet in finitely many steps.
func (lc *LightClient) verifyForward(target Height) (*LightBlock, error) {
	current := target

	for {
		now := lc.Clock.Now()

		trusted, ok := lc.State.Store.HighestTrustedOrVerified()
		if !ok {
			return nil, ErrNoInitialTrustedState()
		}
		if target < trusted.Height() {
			// The scheduler never moves current below the trusted height, and
			// trusted height never exceeds target once we've entered the
			// forward loop (checked by VerifyToTarget), so this would be a
			// contract violation in Scheduler.
			panic("light: scheduler violated the forward-loop invariant target >= trusted.Height()")
		}

		if err := isWithinTrustPeriod(trusted.SignedHeader.Header, lc.Options.TrustingPeriod, now); err != nil {
			return nil, ErrTrustedStateOutsideTrustingPeriod(trusted.Height(), trusted.Time())
		}

		lc.State.TraceBlock(target, current)

		if target == trusted.Height() {
			return trusted, nil
		}

		currentBlock, err := lc.getOrFetch(current)
		if err != nil {
			return nil, err
		}

		verdict := lc.Verifier.Verify(currentBlock, trusted, lc.Options, now)

		switch verdict.Kind {
		case VerdictSuccess:
			// Update is monotonic: this only raises the block's status, it
			// never demotes an already-Trusted block back to Verified.
			lc.State.Store.Update(currentBlock, StatusVerified)
			if current == target {
				// We just verified the target itself: done, without
				// consulting the scheduler. Deferring this to the next
				// loop iteration's top-of-loop check would require the
				// scheduler to report progress even though none is
				// needed, misfiring ErrNoProgress.
				return currentBlock, nil
			}
		case VerdictInvalid:
			lc.State.Store.Update(currentBlock, StatusFailed)
			return nil, ErrInvalidLightBlock(verdict.Err)
		case VerdictNotEnoughTrust:
			lc.State.Store.Update(currentBlock, StatusUnverified)
		}

		next := lc.Scheduler.Schedule(lc.State.Store, current, target)
		if next == current {
			return nil, ErrNoProgress()
		}
		current = next
	}
}

// verifyBackward walks from the highest trusted block down to target,
// verifying each hop purely via the hash-linking last_block_id. It does
// not consult the Verifier: each link is either an exact hash match or a
// hard failure.
func (lc *LightClient) verifyBackward(target Height, latest *LightBlock) (*LightBlock, error) {
	for h := latest.Height() - 1; h >= target; h-- {
		current, err := lc.getOrFetch(h)
		if err != nil {
			return nil, err
		}

		lastBlockID := latest.SignedHeader.Header.LastBlockID
		if lastBlockID.Hash == nil {
			return nil, ErrInvalidLightBlock(
				newVerificationError("missing_last_block_id", "trusted header is missing a last_block_id"))
		}

		currentHash := lc.Hasher.HashHeader(current.SignedHeader.Header)
		if !bytesEqual(currentHash, lastBlockID.Hash) {
			lc.State.Store.Update(current, StatusFailed)
			return nil, ErrHashMismatch(lastBlockID.Hash, currentHash)
		}

		lc.State.Store.Update(current, StatusTrusted)
		lc.State.Store.Update(latest, StatusTrusted)
		lc.State.TraceBlock(target, h)

		latest = current
	}
	return latest, nil
}

// getOrFetch looks in the light store for a block from the primary at the
// given height; on a miss (including a Failed entry, which is never served
// from cache) it fetches the block from Io and inserts it as Unverified.
func (lc *LightClient) getOrFetch(height Height) (*LightBlock, error) {
	if block, status, ok := lc.State.Store.Get(height); ok && status != StatusFailed {
		return block, nil
	}

	block, err := lc.Io.FetchLightBlock(At(height))
	if err != nil {
		return nil, ErrIoFault(err.Error())
	}

	lc.State.Store.Insert(block, StatusUnverified)
	return block, nil
}
