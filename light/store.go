package light

import (
	"sort"
	"sync"
)

// LightStore is an ordered map from Height to (LightBlock,
// Status). No block is ever deleted; status only moves monotonically,
// except that Failed is terminal for that block identity.
type LightStore interface {
	// Insert adds a block at its height with the given status. The first
	// write for a height wins; subsequent writes for the same height must
	// go through Update.
	Insert(block *LightBlock, status Status)
	// Update transitions the status of the block already stored at
	// block.Height(). If no block is stored there yet, it stores block with
	// the given status, as Insert would.
	Update(block *LightBlock, status Status)
	// Get returns the block and status at height, whatever the status
	// (Failed included); GetNonFailed and GetTrustedOrVerified are the
	// status-filtered lookups.
	Get(height Height) (*LightBlock, Status, bool)
	// GetNonFailed returns the block at height unless its status is Failed.
	GetNonFailed(height Height) (*LightBlock, Status, bool)
	// GetTrustedOrVerified returns the block at height if its status is
	// Verified or Trusted.
	GetTrustedOrVerified(height Height) (*LightBlock, bool)
	// HighestTrustedOrVerified returns the block of greatest height whose
	// status is Verified or Trusted.
	HighestTrustedOrVerified() (*LightBlock, bool)
	// HighestVerifiedOrBetterAtOrBelow returns the block of greatest height
	// <= height whose status is Verified or Trusted. Used by Scheduler.
	HighestVerifiedOrBetterAtOrBelow(height Height) *LightBlock
	// All returns every stored block with at least the given status, in
	// ascending height order.
	All(minStatus Status) []*LightBlock
}

type storeEntry struct {
	block  *LightBlock
	status Status
}

// MemoryStore is the default in-memory LightStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Height]storeEntry
	heights []Height // kept sorted ascending
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Height]storeEntry)}
}

func (s *MemoryStore) insertHeightLocked(h Height) {
	i := sort.Search(len(s.heights), func(i int) bool { return s.heights[i] >= h })
	if i < len(s.heights) && s.heights[i] == h {
		return
	}
	s.heights = append(s.heights, 0)
	copy(s.heights[i+1:], s.heights[i:])
	s.heights[i] = h
}

// Insert implements LightStore.
func (s *MemoryStore) Insert(block *LightBlock, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := block.Height()
	if _, ok := s.entries[h]; ok {
		return // first write wins
	}
	s.entries[h] = storeEntry{block: block, status: status}
	s.insertHeightLocked(h)
}

// Update implements LightStore. Status only moves forward, except that
// Failed is a terminal sink: an update that would move a block out of
// Failed is rejected.
func (s *MemoryStore) Update(block *LightBlock, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := block.Height()
	existing, ok := s.entries[h]
	if !ok {
		s.entries[h] = storeEntry{block: block, status: status}
		s.insertHeightLocked(h)
		return
	}
	if existing.status == StatusFailed {
		return
	}
	if status == StatusFailed {
		s.entries[h] = storeEntry{block: block, status: StatusFailed}
		return
	}
	if status > existing.status {
		s.entries[h] = storeEntry{block: block, status: status}
	} else {
		// keep the existing status, but refresh the stored block contents
		s.entries[h] = storeEntry{block: block, status: existing.status}
	}
}

// Get implements LightStore.
func (s *MemoryStore) Get(height Height) (*LightBlock, Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[height]
	if !ok {
		return nil, 0, false
	}
	return e.block, e.status, true
}

// GetNonFailed implements LightStore.
func (s *MemoryStore) GetNonFailed(height Height) (*LightBlock, Status, bool) {
	block, status, ok := s.Get(height)
	if !ok || status == StatusFailed {
		return nil, 0, false
	}
	return block, status, true
}

// GetTrustedOrVerified implements LightStore.
func (s *MemoryStore) GetTrustedOrVerified(height Height) (*LightBlock, bool) {
	block, status, ok := s.Get(height)
	if !ok || status < StatusVerified {
		return nil, false
	}
	return block, true
}

// HighestTrustedOrVerified implements LightStore.
func (s *MemoryStore) HighestTrustedOrVerified() (*LightBlock, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.heights) - 1; i >= 0; i-- {
		e := s.entries[s.heights[i]]
		if e.status >= StatusVerified {
			return e.block, true
		}
	}
	return nil, false
}

// HighestVerifiedOrBetterAtOrBelow implements LightStore.
func (s *MemoryStore) HighestVerifiedOrBetterAtOrBelow(height Height) *LightBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := sort.Search(len(s.heights), func(i int) bool { return s.heights[i] > height })
	for i--; i >= 0; i-- {
		e := s.entries[s.heights[i]]
		if e.status >= StatusVerified {
			return e.block
		}
	}
	return nil
}

// All implements LightStore.
func (s *MemoryStore) All(minStatus Status) []*LightBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*LightBlock
	for _, h := range s.heights {
		e := s.entries[h]
		if e.status >= minStatus {
			out = append(out, e.block)
		}
	}
	return out
}
