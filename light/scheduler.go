package light

// Scheduler picks the next height to fetch and verify after a
// NotEnoughTrust verdict, or after a Success below the target height.
type Scheduler interface {
	Schedule(store LightStore, current, target Height) Height
}

// BisectingScheduler implements the "basic bisecting" policy: return the
// rounded-up midpoint between the highest Verified-or-better block at or
// below current and current itself, forcing progress to target when the
// midpoint would not move.
type BisectingScheduler struct{}

// Schedule returns the next height to try.
//
// Let H be the highest block in the store with status >= Verified and
// height <= current. Return the midpoint of (H.height, current), rounding
// up. If the midpoint equals current or H.height, return target to force
// progress or termination.
func (BisectingScheduler) Schedule(store LightStore, current, target Height) Height {
	h := store.HighestVerifiedOrBetterAtOrBelow(current)
	if h == nil {
		return target
	}

	start := h.Height()
	mid := start + (current-start+1)/2 // rounds up

	if mid == current || mid == start {
		return target
	}
	return mid
}
