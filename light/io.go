package light

import "time"

// AtHeightKind distinguishes the two ways a fetch can be addressed.
type AtHeightKind uint8

const (
	// AtHeightHighest requests the latest available block.
	AtHeightHighest AtHeightKind = iota
	// AtHeightExact requests the block at a specific height.
	AtHeightExact
)

// AtHeight addresses an Io.FetchLightBlock call: either the latest block,
// or one at a specific height.
type AtHeight struct {
	Kind   AtHeightKind
	Height Height // only meaningful when Kind == AtHeightExact
}

// Highest addresses the latest block available from a peer.
func Highest() AtHeight { return AtHeight{Kind: AtHeightHighest} }

// At addresses the block at the given height.
func At(h Height) AtHeight { return AtHeight{Kind: AtHeightExact, Height: h} }

// Io fetches light blocks from a single full node. Implementations must
// return a block whose Provider field equals the peer associated with this
// Io instance, and must surface timeouts as ErrTimeout rather than a bare
// ErrIoFault.
type Io interface {
	FetchLightBlock(at AtHeight) (*LightBlock, error)
}

// Clock reads wall time. Monotonic behavior across a single verification
// call is sufficient.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// EvidenceReporter submits attack evidence to a peer.
type EvidenceReporter interface {
	Report(evidence *LightClientAttackEvidence, peer PeerID) ([]byte, error)
}
