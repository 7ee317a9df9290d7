package light

import "sort"

// CachingStore layers a fast in-memory MemoryStore in front of a slower
// persistent LightStore (typically light/store/db.Store). Writes go to
// both; reads are served from the cache first and fall through to the
// persistent store on a miss, populating the cache as they go.
type CachingStore struct {
	cache      *MemoryStore
	persistent LightStore
}

// NewCachingStore wraps persistent with a MemoryStore cache.
func NewCachingStore(persistent LightStore) *CachingStore {
	return &CachingStore{cache: NewMemoryStore(), persistent: persistent}
}

// Insert implements LightStore.
func (c *CachingStore) Insert(block *LightBlock, status Status) {
	c.cache.Insert(block, status)
	c.persistent.Insert(block, status)
}

// Update implements LightStore.
func (c *CachingStore) Update(block *LightBlock, status Status) {
	c.cache.Update(block, status)
	c.persistent.Update(block, status)
}

// Get implements LightStore.
func (c *CachingStore) Get(height Height) (*LightBlock, Status, bool) {
	if block, status, ok := c.cache.Get(height); ok {
		return block, status, ok
	}
	block, status, ok := c.persistent.Get(height)
	if ok {
		c.cache.Insert(block, status)
	}
	return block, status, ok
}

// GetNonFailed implements LightStore.
func (c *CachingStore) GetNonFailed(height Height) (*LightBlock, Status, bool) {
	block, status, ok := c.Get(height)
	if !ok || status == StatusFailed {
		return nil, 0, false
	}
	return block, status, ok
}

// GetTrustedOrVerified implements LightStore.
func (c *CachingStore) GetTrustedOrVerified(height Height) (*LightBlock, bool) {
	block, status, ok := c.Get(height)
	if !ok || status < StatusVerified {
		return nil, false
	}
	return block, true
}

// HighestTrustedOrVerified implements LightStore, returning whichever of
// the cache or the persistent store holds the greater height rather than
// trusting whichever layer was queried first.
func (c *CachingStore) HighestTrustedOrVerified() (*LightBlock, bool) {
	cacheBlock, cacheOK := c.cache.HighestTrustedOrVerified()
	persistentBlock, persistentOK := c.persistent.HighestTrustedOrVerified()

	switch {
	case cacheOK && persistentOK:
		if persistentBlock.Height() > cacheBlock.Height() {
			return persistentBlock, true
		}
		return cacheBlock, true
	case cacheOK:
		return cacheBlock, true
	case persistentOK:
		return persistentBlock, true
	default:
		return nil, false
	}
}

// HighestVerifiedOrBetterAtOrBelow implements LightStore.
func (c *CachingStore) HighestVerifiedOrBetterAtOrBelow(height Height) *LightBlock {
	cacheBlock := c.cache.HighestVerifiedOrBetterAtOrBelow(height)
	persistentBlock := c.persistent.HighestVerifiedOrBetterAtOrBelow(height)

	switch {
	case cacheBlock != nil && persistentBlock != nil:
		if persistentBlock.Height() > cacheBlock.Height() {
			return persistentBlock
		}
		return cacheBlock
	case cacheBlock != nil:
		return cacheBlock
	default:
		return persistentBlock
	}
}

// All implements LightStore by merging cache and persistent entries,
// preferring the persistent store's copy on height collisions since it is
// the system of record.
func (c *CachingStore) All(minStatus Status) []*LightBlock {
	byHeight := make(map[Height]*LightBlock)
	for _, b := range c.cache.All(minStatus) {
		byHeight[b.Height()] = b
	}
	for _, b := range c.persistent.All(minStatus) {
		byHeight[b.Height()] = b
	}

	out := make([]*LightBlock, 0, len(byHeight))
	for _, b := range byHeight {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height() < out[j].Height() })
	return out
}
