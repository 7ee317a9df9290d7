// Package http implements light.Io and light.EvidenceReporter against a
// single full node's RPC endpoint, grounded on the HTTP provider pattern:
// fetch a signed header, then independently fetch the validator set and
// next validator set for that height over the same connection.
package http

import (
	"fmt"

	"github.com/pkg/errors"
	ctypes "github.com/tendermint/tendermint/rpc/core/types"

	log "github.com/tendermint/tendermint/libs/log"
	rpcclient "github.com/tendermint/tendermint/rpc/client"
	tmtypes "github.com/tendermint/tendermint/types"

	"github.com/coinexchain/tm-light/light"
)

// SignStatusClient is the slice of the full tendermint RPC client this
// provider needs: commits, validator sets, and evidence submission.
type SignStatusClient interface {
	rpcclient.SignClient
	rpcclient.StatusClient
	BroadcastEvidence(ev tmtypes.Evidence) (*ctypes.ResultBroadcastEvidence, error)
}

// Provider is a light.Io and light.EvidenceReporter backed by one full
// node's RPC endpoint.
type Provider struct {
	chainID string
	peer    light.PeerID
	client  SignStatusClient

	logger log.Logger
}

// New constructs a Provider dialing remote over the standard tendermint
// RPC+websocket transport.
func New(chainID string, peer light.PeerID, remote string) *Provider {
	return NewWithClient(chainID, peer, rpcclient.NewHTTP(remote, "/websocket"))
}

// NewWithClient constructs a Provider around an already-configured RPC
// client, e.g. for tests or non-default transports.
func NewWithClient(chainID string, peer light.PeerID, client SignStatusClient) *Provider {
	return &Provider{chainID: chainID, peer: peer, client: client, logger: log.NewNopLogger()}
}

// SetLogger sets the logger used for diagnostic output.
func (p *Provider) SetLogger(logger log.Logger) { p.logger = logger }

// FetchLightBlock implements light.Io.
func (p *Provider) FetchLightBlock(at light.AtHeight) (*light.LightBlock, error) {
	var height int64
	if at.Kind == light.AtHeightExact {
		height = at.Height
	}

	result, err := p.client.Commit(heightPtr(height))
	if err != nil {
		return nil, light.ErrIoFault(err.Error())
	}

	if p.chainID != result.Header.ChainID {
		return nil, light.ErrIoFault(
			fmt.Sprintf("expected chain id %s, got %s from peer %s", p.chainID, result.Header.ChainID, p.peer))
	}

	signedHeader := fromTMSignedHeader(&result.SignedHeader)

	validators, err := p.fetchValidatorSet(signedHeader.Height())
	if err != nil {
		return nil, err
	}
	nextValidators, err := p.fetchValidatorSet(signedHeader.Height() + 1)
	if err != nil {
		return nil, err
	}

	return &light.LightBlock{
		SignedHeader:   signedHeader,
		Validators:     validators,
		NextValidators: nextValidators,
		Provider:       p.peer,
	}, nil
}

func (p *Provider) fetchValidatorSet(height light.Height) (*light.ValidatorSet, error) {
	if height < 1 {
		return nil, light.ErrIoFault(fmt.Sprintf("expected height >= 1, got %d", height))
	}

	result, err := p.client.Validators(heightPtr(height), 1, 0)
	if err != nil {
		return nil, light.ErrIoFault(errors.Wrapf(err, "fetching validators at height %d", height).Error())
	}

	return fromTMValidatorSet(tmtypes.NewValidatorSet(result.Validators)), nil
}

// Report implements light.EvidenceReporter. It packages the conflicting
// pair of signed headers as a ConflictingHeadersEvidence, tendermint's own
// wire evidence kind for exactly this light-client fork-detection scenario,
// and hands it to the peer's evidence pool for validation.
func (p *Provider) Report(evidence *light.LightClientAttackEvidence, peer light.PeerID) ([]byte, error) {
	_ = peer // the RPC client is already bound to a single peer connection

	ev := &tmtypes.ConflictingHeadersEvidence{
		H1: toTMSignedHeader(evidence.TrustedBlock.SignedHeader),
		H2: toTMSignedHeader(evidence.ConflictingBlock.SignedHeader),
	}

	result, err := p.client.BroadcastEvidence(ev)
	if err != nil {
		return nil, light.ErrIoFault(errors.Wrap(err, "broadcasting evidence").Error())
	}
	return result.Hash, nil
}

func heightPtr(h int64) *int64 {
	if h == 0 {
		return nil
	}
	return &h
}
