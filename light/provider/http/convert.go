package http

import (
	tmtypes "github.com/tendermint/tendermint/types"

	"github.com/coinexchain/tm-light/light"
)

func fromTMBlockID(id tmtypes.BlockID) light.BlockID {
	return light.BlockID{Hash: []byte(id.Hash)}
}

func fromTMHeader(h *tmtypes.Header) *light.Header {
	return &light.Header{
		ChainID:            h.ChainID,
		Height:             h.Height,
		Time:               h.Time,
		LastBlockID:        fromTMBlockID(h.LastBlockID),
		ValidatorsHash:     []byte(h.ValidatorsHash),
		NextValidatorsHash: []byte(h.NextValidatorsHash),
		ConsensusHash:      []byte(h.ConsensusHash),
		AppHash:            []byte(h.AppHash),
		ProposerAddress:    []byte(h.ProposerAddress),
	}
}

func fromTMSignatureKind(flag tmtypes.BlockIDFlag) light.SignatureKind {
	switch flag {
	case tmtypes.BlockIDFlagAbsent:
		return light.SignatureAbsent
	case tmtypes.BlockIDFlagNil:
		return light.SignatureNil
	default:
		return light.SignatureCommit
	}
}

func fromTMCommit(c *tmtypes.Commit) *light.Commit {
	sigs := make([]light.CommitSig, len(c.Signatures))
	for i, s := range c.Signatures {
		sigs[i] = light.CommitSig{
			Kind:             fromTMSignatureKind(s.BlockIDFlag),
			ValidatorAddress: []byte(s.ValidatorAddress),
			Timestamp:        s.Timestamp,
			Signature:        s.Signature,
		}
	}
	return &light.Commit{
		Height:     c.Height,
		Round:      c.Round,
		BlockID:    fromTMBlockID(c.BlockID),
		Signatures: sigs,
	}
}

func fromTMSignedHeader(sh *tmtypes.SignedHeader) *light.SignedHeader {
	return &light.SignedHeader{
		Header: fromTMHeader(sh.Header),
		Commit: fromTMCommit(sh.Commit),
	}
}

func fromTMValidatorSet(vs *tmtypes.ValidatorSet) *light.ValidatorSet {
	validators := make([]*light.Validator, len(vs.Validators))
	for i, v := range vs.Validators {
		validators[i] = &light.Validator{
			Address:          []byte(v.Address),
			PubKey:           v.PubKey,
			VotingPower:      v.VotingPower,
			ProposerPriority: v.ProposerPriority,
		}
	}
	return &light.ValidatorSet{Validators: validators}
}

func toTMBlockID(id light.BlockID) tmtypes.BlockID {
	return tmtypes.BlockID{Hash: id.Hash}
}

func toTMSignatureKind(kind light.SignatureKind) tmtypes.BlockIDFlag {
	switch kind {
	case light.SignatureAbsent:
		return tmtypes.BlockIDFlagAbsent
	case light.SignatureNil:
		return tmtypes.BlockIDFlagNil
	default:
		return tmtypes.BlockIDFlagCommit
	}
}

func toTMHeader(h *light.Header) *tmtypes.Header {
	return &tmtypes.Header{
		ChainID:            h.ChainID,
		Height:             h.Height,
		Time:               h.Time,
		LastBlockID:        toTMBlockID(h.LastBlockID),
		ValidatorsHash:     h.ValidatorsHash,
		NextValidatorsHash: h.NextValidatorsHash,
		ConsensusHash:      h.ConsensusHash,
		AppHash:            h.AppHash,
		ProposerAddress:    h.ProposerAddress,
	}
}

func toTMCommit(c *light.Commit) *tmtypes.Commit {
	sigs := make([]tmtypes.CommitSig, len(c.Signatures))
	for i, s := range c.Signatures {
		sigs[i] = tmtypes.CommitSig{
			BlockIDFlag:      toTMSignatureKind(s.Kind),
			ValidatorAddress: s.ValidatorAddress,
			Timestamp:        s.Timestamp,
			Signature:        s.Signature,
		}
	}
	return &tmtypes.Commit{
		Height:     c.Height,
		Round:      c.Round,
		BlockID:    toTMBlockID(c.BlockID),
		Signatures: sigs,
	}
}

func toTMSignedHeader(sh *light.SignedHeader) *tmtypes.SignedHeader {
	return &tmtypes.SignedHeader{
		Header: toTMHeader(sh.Header),
		Commit: toTMCommit(sh.Commit),
	}
}
