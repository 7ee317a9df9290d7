package light

import "sort"

// State bundles a LightStore with the VerificationTrace accumulated while
// driving verification toward one or more target heights.
type State struct {
	Store LightStore
	trace map[Height]map[Height]struct{} // target height -> set of intermediate heights
}

// NewState constructs a State around the given store.
func NewState(store LightStore) *State {
	return &State{Store: store, trace: make(map[Height]map[Height]struct{})}
}

// TraceBlock records that the block at height was needed to verify target.
func (s *State) TraceBlock(target, height Height) {
	set, ok := s.trace[target]
	if !ok {
		set = make(map[Height]struct{})
		s.trace[target] = set
	}
	set[height] = struct{}{}
}

// GetTrace returns, in ascending height order, the blocks whose
// verification was necessary to reach target. Only blocks still present in
// the store (by height) and not Failed are returned.
func (s *State) GetTrace(target Height) []*LightBlock {
	set, ok := s.trace[target]
	if !ok {
		return nil
	}

	heights := make([]Height, 0, len(set))
	for h := range set {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })

	blocks := make([]*LightBlock, 0, len(heights))
	for _, h := range heights {
		if block, _, ok := s.Store.GetNonFailed(h); ok {
			blocks = append(blocks, block)
		}
	}
	return blocks
}
