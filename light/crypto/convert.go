// Package crypto wires the light package's Hasher, CommitValidator, and
// VotingPowerCalculator ports to the real tendermint hashing, encoding, and
// signature-verification stack, so the core never has to know what a
// merkle tree or an Ed25519 signature looks like.
package crypto

import (
	tmbytes "github.com/tendermint/tendermint/libs/bytes"
	tmtypes "github.com/tendermint/tendermint/types"

	"github.com/coinexchain/tm-light/light"
)

// toTMValidatorSet converts a light.ValidatorSet into the shape the
// tendermint types package knows how to hash and verify commits against.
//
// The light package models only the fields skipping verification needs, so
// this is necessarily a projection: any chain-format field tendermint's own
// ValidatorSet carries but light.Validator does not (e.g. a second,
// implementation-specific pubkey encoding) is not reconstructed here.
func toTMValidatorSet(vs *light.ValidatorSet) *tmtypes.ValidatorSet {
	validators := make([]*tmtypes.Validator, len(vs.Validators))
	for i, v := range vs.Validators {
		validators[i] = &tmtypes.Validator{
			Address:          v.Address,
			PubKey:           v.PubKey,
			VotingPower:      v.VotingPower,
			ProposerPriority: v.ProposerPriority,
		}
	}
	return tmtypes.NewValidatorSet(validators)
}

func toTMBlockID(id light.BlockID) tmtypes.BlockID {
	return tmtypes.BlockID{Hash: tmbytes.HexBytes(id.Hash)}
}

func toTMHeader(h *light.Header) tmtypes.Header {
	return tmtypes.Header{
		ChainID:            h.ChainID,
		Height:             h.Height,
		Time:               h.Time,
		LastBlockID:        toTMBlockID(h.LastBlockID),
		ValidatorsHash:     tmbytes.HexBytes(h.ValidatorsHash),
		NextValidatorsHash: tmbytes.HexBytes(h.NextValidatorsHash),
		ConsensusHash:      tmbytes.HexBytes(h.ConsensusHash),
		AppHash:            tmbytes.HexBytes(h.AppHash),
		ProposerAddress:    h.ProposerAddress,
	}
}

func tmSignatureKind(kind light.SignatureKind) tmtypes.BlockIDFlag {
	switch kind {
	case light.SignatureAbsent:
		return tmtypes.BlockIDFlagAbsent
	case light.SignatureNil:
		return tmtypes.BlockIDFlagNil
	default:
		return tmtypes.BlockIDFlagCommit
	}
}

func toTMCommit(sh *light.SignedHeader) *tmtypes.Commit {
	sigs := make([]tmtypes.CommitSig, len(sh.Commit.Signatures))
	for i, s := range sh.Commit.Signatures {
		sigs[i] = tmtypes.CommitSig{
			BlockIDFlag:      tmSignatureKind(s.Kind),
			ValidatorAddress: s.ValidatorAddress,
			Timestamp:        s.Timestamp,
			Signature:        s.Signature,
		}
	}
	return &tmtypes.Commit{
		Height:     sh.Commit.Height,
		Round:      sh.Commit.Round,
		BlockID:    toTMBlockID(sh.Commit.BlockID),
		Signatures: sigs,
	}
}
