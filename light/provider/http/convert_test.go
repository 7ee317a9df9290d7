package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tmbytes "github.com/tendermint/tendermint/libs/bytes"
	tmtypes "github.com/tendermint/tendermint/types"

	"github.com/coinexchain/tm-light/light"
)

func TestBlockIDRoundTrip(t *testing.T) {
	tm := tmtypes.BlockID{Hash: tmbytes.HexBytes("a-hash")}
	back := toTMBlockID(fromTMBlockID(tm))
	require.Equal(t, []byte(tm.Hash), []byte(back.Hash))
}

func TestHeaderRoundTrip(t *testing.T) {
	tm := &tmtypes.Header{
		ChainID:            "test-chain",
		Height:             42,
		Time:               time.Unix(1000, 0).UTC(),
		LastBlockID:        tmtypes.BlockID{Hash: tmbytes.HexBytes("last")},
		ValidatorsHash:     tmbytes.HexBytes("vals"),
		NextValidatorsHash: tmbytes.HexBytes("nextvals"),
		ConsensusHash:      tmbytes.HexBytes("consensus"),
		AppHash:            tmbytes.HexBytes("app"),
		ProposerAddress:    tmbytes.HexBytes("proposer"),
	}

	lightHeader := fromTMHeader(tm)
	require.Equal(t, tm.ChainID, lightHeader.ChainID)
	require.Equal(t, light.Height(42), lightHeader.Height)
	require.True(t, tm.Time.Equal(lightHeader.Time))
	require.Equal(t, []byte(tm.ValidatorsHash), lightHeader.ValidatorsHash)

	back := toTMHeader(lightHeader)
	require.Equal(t, tm.ChainID, back.ChainID)
	require.Equal(t, tm.Height, back.Height)
	require.Equal(t, []byte(tm.ValidatorsHash), []byte(back.ValidatorsHash))
	require.Equal(t, []byte(tm.LastBlockID.Hash), []byte(back.LastBlockID.Hash))
}

func TestSignatureKindRoundTrip(t *testing.T) {
	cases := []tmtypes.BlockIDFlag{tmtypes.BlockIDFlagAbsent, tmtypes.BlockIDFlagNil, tmtypes.BlockIDFlagCommit}
	expected := []light.SignatureKind{light.SignatureAbsent, light.SignatureNil, light.SignatureCommit}

	for i, flag := range cases {
		require.Equal(t, expected[i], fromTMSignatureKind(flag))
		require.Equal(t, flag, toTMSignatureKind(expected[i]))
	}
}

func TestCommitRoundTrip(t *testing.T) {
	now := time.Unix(1000, 0).UTC()
	tm := &tmtypes.Commit{
		Height:  10,
		Round:   1,
		BlockID: tmtypes.BlockID{Hash: tmbytes.HexBytes("block")},
		Signatures: []tmtypes.CommitSig{
			{BlockIDFlag: tmtypes.BlockIDFlagCommit, ValidatorAddress: tmbytes.HexBytes("addr1"), Timestamp: now, Signature: []byte("sig1")},
			{BlockIDFlag: tmtypes.BlockIDFlagAbsent},
		},
	}

	lightCommit := fromTMCommit(tm)
	require.Equal(t, light.Height(10), lightCommit.Height)
	require.Len(t, lightCommit.Signatures, 2)
	require.Equal(t, light.SignatureCommit, lightCommit.Signatures[0].Kind)
	require.Equal(t, light.SignatureAbsent, lightCommit.Signatures[1].Kind)

	back := toTMCommit(lightCommit)
	require.Equal(t, tm.Height, back.Height)
	require.Equal(t, tm.Round, back.Round)
	require.Equal(t, tm.Signatures[0].BlockIDFlag, back.Signatures[0].BlockIDFlag)
	require.Equal(t, []byte(tm.Signatures[0].Signature), []byte(back.Signatures[0].Signature))
}

func TestValidatorSetConversion(t *testing.T) {
	priv := tmtypes.NewMockPV()
	pub, err := priv.GetPubKey()
	require.NoError(t, err)

	tmVal := tmtypes.NewValidator(pub, 10)
	tmVs := tmtypes.NewValidatorSet([]*tmtypes.Validator{tmVal})

	lightVs := fromTMValidatorSet(tmVs)
	require.Len(t, lightVs.Validators, 1)
	require.Equal(t, int64(10), lightVs.Validators[0].VotingPower)
	require.Equal(t, []byte(tmVal.Address), lightVs.Validators[0].Address)
	require.Equal(t, int64(10), lightVs.TotalVotingPower())
}
