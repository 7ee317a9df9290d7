package light

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestState_TraceBlockAndGetTrace(t *testing.T) {
	store := NewMemoryStore()
	store.Insert(blockAt(10), StatusTrusted)
	store.Insert(blockAt(55), StatusVerified)
	store.Insert(blockAt(100), StatusUnverified)
	state := NewState(store)

	state.TraceBlock(100, 100)
	state.TraceBlock(100, 55)
	state.TraceBlock(100, 10)

	trace := state.GetTrace(100)
	require.Len(t, trace, 3)
	require.Equal(t, Height(10), trace[0].Height())
	require.Equal(t, Height(55), trace[1].Height())
	require.Equal(t, Height(100), trace[2].Height())
}

func TestState_GetTraceOmitsHeightsNoLongerInStore(t *testing.T) {
	store := NewMemoryStore()
	store.Insert(blockAt(10), StatusTrusted)
	state := NewState(store)

	state.TraceBlock(50, 10)
	state.TraceBlock(50, 30) // never inserted into the store

	trace := state.GetTrace(50)
	require.Len(t, trace, 1)
	require.Equal(t, Height(10), trace[0].Height())
}

func TestState_GetTraceUnknownTargetReturnsNil(t *testing.T) {
	state := NewState(NewMemoryStore())
	require.Nil(t, state.GetTrace(999))
}

func TestVotingPowerTally_String(t *testing.T) {
	require.Equal(t, "4/10", VotingPowerTally{Signed: 4, Total: 10}.String())
}
