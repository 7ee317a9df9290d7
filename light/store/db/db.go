// Package db implements light.LightStore on top of a tm-db key/value
// store, keyed and amino-encoded the way the original provider's db.go
// keyed commits and validator sets.
package db

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"

	amino "github.com/tendermint/go-amino"
	cryptoAmino "github.com/tendermint/tendermint/crypto/encoding/amino"
	log "github.com/tendermint/tendermint/libs/log"
	dbm "github.com/tendermint/tm-db"

	"github.com/coinexchain/tm-light/light"
)

// entry is the wire-encoded record for one height: the block plus its
// trust status, kept together so a single get/put pair covers a height.
type entry struct {
	Block  *light.LightBlock
	Status light.Status
}

// Store is a light.LightStore backed by a tm-db handle. No block is ever
// deleted except by an optional retention limit (SetLimit), mirroring the
// provider's own deleteAfterN garbage collection.
type Store struct {
	mu      sync.Mutex
	chainID string
	db      dbm.DB
	cdc     *amino.Codec
	limit   int

	logger log.Logger
}

// New returns a Store persisting into db under chainID's key namespace.
func New(chainID string, db dbm.DB) *Store {
	cdc := amino.NewCodec()
	cryptoAmino.RegisterAmino(cdc)
	return &Store{
		chainID: chainID,
		db:      db,
		cdc:     cdc,
		logger:  log.NewNopLogger(),
	}
}

// SetLimit limits the number of heights retained; 0 (the default) means
// unlimited.
func (s *Store) SetLimit(limit int) *Store {
	s.limit = limit
	return s
}

// SetLogger sets the logger used for diagnostic output.
func (s *Store) SetLogger(logger log.Logger) { s.logger = logger }

func (s *Store) entryKey(height light.Height) []byte {
	return []byte(fmt.Sprintf("%s/%020d/lb", s.chainID, height))
}

var keyPattern = regexp.MustCompile(`^([^/]+)/([0-9]+)/lb$`)

func parseEntryKey(key []byte) (height light.Height, ok bool) {
	m := keyPattern.FindSubmatch(key)
	if m == nil {
		return 0, false
	}
	h, err := strconv.ParseInt(string(m[2]), 10, 64)
	if err != nil {
		return 0, false
	}
	return h, true
}

func (s *Store) get(height light.Height) (entry, bool) {
	bz := s.db.Get(s.entryKey(height))
	if bz == nil {
		return entry{}, false
	}
	var e entry
	if err := s.cdc.UnmarshalBinaryLengthPrefixed(bz, &e); err != nil {
		s.logger.Error("db.Store: failed to decode entry", "height", height, "err", err)
		return entry{}, false
	}
	return e, true
}

func (s *Store) put(e entry) error {
	bz, err := s.cdc.MarshalBinaryLengthPrefixed(e)
	if err != nil {
		return err
	}
	s.db.SetSync(s.entryKey(e.Block.Height()), bz)
	if s.limit > 0 {
		s.deleteAfterN(s.limit)
	}
	return nil
}

// Insert implements light.LightStore.
func (s *Store) Insert(block *light.LightBlock, status light.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.get(block.Height()); ok {
		return // first write wins, same as MemoryStore
	}
	if err := s.put(entry{Block: block, Status: status}); err != nil {
		s.logger.Error("db.Store: failed to insert", "height", block.Height(), "err", err)
	}
}

// Update implements light.LightStore.
func (s *Store) Update(block *light.LightBlock, status light.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.get(block.Height())
	if !ok {
		if err := s.put(entry{Block: block, Status: status}); err != nil {
			s.logger.Error("db.Store: failed to update", "height", block.Height(), "err", err)
		}
		return
	}
	if existing.Status == light.StatusFailed {
		return
	}
	next := entry{Block: block, Status: existing.Status}
	if status == light.StatusFailed {
		next.Status = light.StatusFailed
	} else if status > existing.Status {
		next.Status = status
	}
	if err := s.put(next); err != nil {
		s.logger.Error("db.Store: failed to persist update", "height", block.Height(), "err", err)
	}
}

// Get implements light.LightStore.
func (s *Store) Get(height light.Height) (*light.LightBlock, light.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.get(height)
	if !ok {
		return nil, 0, false
	}
	return e.Block, e.Status, true
}

// GetNonFailed implements light.LightStore.
func (s *Store) GetNonFailed(height light.Height) (*light.LightBlock, light.Status, bool) {
	block, status, ok := s.Get(height)
	if !ok || status == light.StatusFailed {
		return nil, 0, false
	}
	return block, status, true
}

// GetTrustedOrVerified implements light.LightStore.
func (s *Store) GetTrustedOrVerified(height light.Height) (*light.LightBlock, bool) {
	block, status, ok := s.Get(height)
	if !ok || status < light.StatusVerified {
		return nil, false
	}
	return block, true
}

// HighestTrustedOrVerified implements light.LightStore. It scans heights in
// descending order via a reverse iterator, the same pattern the provider
// used for LatestFullCommit.
func (s *Store) HighestTrustedOrVerified() (*light.LightBlock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	itr, err := s.db.ReverseIterator(s.entryKey(0), s.endKey())
	if err != nil {
		s.logger.Error("db.Store: failed to open reverse iterator", "err", err)
		return nil, false
	}
	defer itr.Close()

	for ; itr.Valid(); itr.Next() {
		if _, ok := parseEntryKey(itr.Key()); !ok {
			continue
		}
		var e entry
		if err := s.cdc.UnmarshalBinaryLengthPrefixed(itr.Value(), &e); err != nil {
			continue
		}
		if e.Status >= light.StatusVerified {
			return e.Block, true
		}
	}
	return nil, false
}

// HighestVerifiedOrBetterAtOrBelow implements light.LightStore.
func (s *Store) HighestVerifiedOrBetterAtOrBelow(height light.Height) *light.LightBlock {
	s.mu.Lock()
	defer s.mu.Unlock()

	itr, err := s.db.ReverseIterator(s.entryKey(0), s.entryKeyExclusiveUpperBound(height))
	if err != nil {
		s.logger.Error("db.Store: failed to open reverse iterator", "err", err)
		return nil
	}
	defer itr.Close()

	for ; itr.Valid(); itr.Next() {
		if _, ok := parseEntryKey(itr.Key()); !ok {
			continue
		}
		var e entry
		if err := s.cdc.UnmarshalBinaryLengthPrefixed(itr.Value(), &e); err != nil {
			continue
		}
		if e.Status >= light.StatusVerified {
			return e.Block
		}
	}
	return nil
}

// All implements light.LightStore.
func (s *Store) All(minStatus light.Status) []*light.LightBlock {
	s.mu.Lock()
	defer s.mu.Unlock()

	itr, err := s.db.Iterator(s.entryKey(0), s.endKey())
	if err != nil {
		s.logger.Error("db.Store: failed to open iterator", "err", err)
		return nil
	}
	defer itr.Close()

	var out []*light.LightBlock
	for ; itr.Valid(); itr.Next() {
		if _, ok := parseEntryKey(itr.Key()); !ok {
			continue
		}
		var e entry
		if err := s.cdc.UnmarshalBinaryLengthPrefixed(itr.Value(), &e); err != nil {
			continue
		}
		if e.Status >= minStatus {
			out = append(out, e.Block)
		}
	}
	return out
}

func (s *Store) endKey() []byte {
	return append(s.entryKey(1<<62 - 1))
}

func (s *Store) entryKeyExclusiveUpperBound(height light.Height) []byte {
	return append(s.entryKey(height), byte(0x00))
}

// deleteAfterN deletes all entries below the limit-th highest height,
// mirroring the provider's own deleteAfterN garbage collection.
func (s *Store) deleteAfterN(limit int) {
	itr, err := s.db.ReverseIterator(s.entryKey(0), s.endKey())
	if err != nil {
		s.logger.Error("db.Store: failed to open reverse iterator for gc", "err", err)
		return
	}
	defer itr.Close()

	seen := 0
	var toDelete [][]byte
	for ; itr.Valid(); itr.Next() {
		if _, ok := parseEntryKey(itr.Key()); !ok {
			continue
		}
		seen++
		if seen > limit {
			key := make([]byte, len(itr.Key()))
			copy(key, itr.Key())
			toDelete = append(toDelete, key)
		}
	}
	for _, key := range toDelete {
		s.db.Delete(key)
	}
}
