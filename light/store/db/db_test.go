package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/coinexchain/tm-light/light"
)

func dbBlock(height light.Height) *light.LightBlock {
	return &light.LightBlock{
		SignedHeader: &light.SignedHeader{
			Header: &light.Header{Height: height, Time: time.Unix(1000+height, 0)},
			Commit: &light.Commit{Height: height},
		},
		Validators:     &light.ValidatorSet{},
		NextValidators: &light.ValidatorSet{},
	}
}

func TestStore_InsertGetRoundTrip(t *testing.T) {
	store := New("test-chain", dbm.NewMemDB())
	store.Insert(dbBlock(10), light.StatusTrusted)

	block, status, ok := store.Get(10)
	require.True(t, ok)
	require.Equal(t, light.StatusTrusted, status)
	require.Equal(t, light.Height(10), block.Height())
	require.True(t, block.Time().Equal(time.Unix(1010, 0)))

	_, _, ok = store.Get(11)
	require.False(t, ok)
}

func TestStore_InsertFirstWriteWins(t *testing.T) {
	store := New("test-chain", dbm.NewMemDB())
	store.Insert(dbBlock(10), light.StatusUnverified)
	store.Insert(dbBlock(10), light.StatusTrusted)

	_, status, ok := store.Get(10)
	require.True(t, ok)
	require.Equal(t, light.StatusUnverified, status)
}

func TestStore_UpdateIsMonotonicExceptFailed(t *testing.T) {
	store := New("test-chain", dbm.NewMemDB())
	store.Insert(dbBlock(10), light.StatusUnverified)

	store.Update(dbBlock(10), light.StatusVerified)
	_, status, _ := store.Get(10)
	require.Equal(t, light.StatusVerified, status)

	// A lower status must not demote an already-higher one.
	store.Update(dbBlock(10), light.StatusUnverified)
	_, status, _ = store.Get(10)
	require.Equal(t, light.StatusVerified, status)

	store.Update(dbBlock(10), light.StatusFailed)
	_, status, _ = store.Get(10)
	require.Equal(t, light.StatusFailed, status)

	// Failed is terminal: even Trusted cannot revive it.
	store.Update(dbBlock(10), light.StatusTrusted)
	_, status, _ = store.Get(10)
	require.Equal(t, light.StatusFailed, status)
}

func TestStore_HighestTrustedOrVerified(t *testing.T) {
	store := New("test-chain", dbm.NewMemDB())
	store.Insert(dbBlock(10), light.StatusTrusted)
	store.Insert(dbBlock(20), light.StatusVerified)
	store.Insert(dbBlock(30), light.StatusUnverified)

	block, ok := store.HighestTrustedOrVerified()
	require.True(t, ok)
	require.Equal(t, light.Height(20), block.Height())
}

func TestStore_HighestVerifiedOrBetterAtOrBelow(t *testing.T) {
	store := New("test-chain", dbm.NewMemDB())
	store.Insert(dbBlock(10), light.StatusTrusted)
	store.Insert(dbBlock(20), light.StatusVerified)
	store.Insert(dbBlock(30), light.StatusUnverified)

	block := store.HighestVerifiedOrBetterAtOrBelow(25)
	require.Equal(t, light.Height(20), block.Height())

	block = store.HighestVerifiedOrBetterAtOrBelow(15)
	require.Equal(t, light.Height(10), block.Height())

	require.Nil(t, store.HighestVerifiedOrBetterAtOrBelow(5))
}

func TestStore_All(t *testing.T) {
	store := New("test-chain", dbm.NewMemDB())
	store.Insert(dbBlock(10), light.StatusTrusted)
	store.Insert(dbBlock(20), light.StatusVerified)
	store.Insert(dbBlock(30), light.StatusUnverified)

	all := store.All(light.StatusVerified)
	require.Len(t, all, 2)
	require.Equal(t, light.Height(10), all[0].Height())
	require.Equal(t, light.Height(20), all[1].Height())
}

func TestStore_SetLimitPrunesOldestHeights(t *testing.T) {
	store := New("test-chain", dbm.NewMemDB()).SetLimit(2)
	store.Insert(dbBlock(10), light.StatusTrusted)
	store.Insert(dbBlock(20), light.StatusTrusted)
	store.Insert(dbBlock(30), light.StatusTrusted)

	_, _, ok := store.Get(10)
	require.False(t, ok, "oldest height should have been garbage collected")

	_, _, ok = store.Get(20)
	require.True(t, ok)
	_, _, ok = store.Get(30)
	require.True(t, ok)
}

func TestStore_DifferentChainIDsAreIsolated(t *testing.T) {
	memDB := dbm.NewMemDB()
	a := New("chain-a", memDB)
	b := New("chain-b", memDB)

	a.Insert(dbBlock(10), light.StatusTrusted)

	_, _, ok := b.Get(10)
	require.False(t, ok)
}
