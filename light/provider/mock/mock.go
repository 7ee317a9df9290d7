// Package mock provides a deterministic, in-memory light.Io double for
// tests: a fixed chain of LightBlocks addressed by height, with no network
// or clock dependency.
package mock

import (
	"fmt"
	"sort"

	"github.com/coinexchain/tm-light/light"
)

// Provider is an in-memory light.Io backed by a fixed set of blocks.
type Provider struct {
	peer   light.PeerID
	blocks map[light.Height]*light.LightBlock
}

// New constructs a Provider serving the given blocks, keyed by height. Each
// block's Provider field is overwritten to peer so callers don't have to
// set it on every fixture.
func New(peer light.PeerID, blocks ...*light.LightBlock) *Provider {
	p := &Provider{peer: peer, blocks: make(map[light.Height]*light.LightBlock, len(blocks))}
	for _, b := range blocks {
		cp := *b
		cp.Provider = peer
		p.blocks[cp.Height()] = &cp
	}
	return p
}

// FetchLightBlock implements light.Io.
func (p *Provider) FetchLightBlock(at light.AtHeight) (*light.LightBlock, error) {
	if at.Kind == light.AtHeightHighest {
		return p.highest()
	}

	block, ok := p.blocks[at.Height]
	if !ok {
		return nil, light.ErrIoFault(fmt.Sprintf("mock provider %s has no block at height %d", p.peer, at.Height))
	}
	return block, nil
}

func (p *Provider) highest() (*light.LightBlock, error) {
	if len(p.blocks) == 0 {
		return nil, light.ErrIoFault(fmt.Sprintf("mock provider %s has no blocks", p.peer))
	}

	heights := make([]light.Height, 0, len(p.blocks))
	for h := range p.blocks {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })

	return p.blocks[heights[len(heights)-1]], nil
}

// Report implements light.EvidenceReporter by recording the evidence for
// later assertions instead of submitting it anywhere.
type EvidenceReporter struct {
	Reports []ReportedEvidence
}

// ReportedEvidence is one call captured by EvidenceReporter.Report.
type ReportedEvidence struct {
	Evidence *light.LightClientAttackEvidence
	Peer     light.PeerID
}

// Report implements light.EvidenceReporter.
func (r *EvidenceReporter) Report(evidence *light.LightClientAttackEvidence, peer light.PeerID) ([]byte, error) {
	r.Reports = append(r.Reports, ReportedEvidence{Evidence: evidence, Peer: peer})
	return []byte(fmt.Sprintf("mock-evidence-%d", len(r.Reports))), nil
}
