package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tmcrypto "github.com/tendermint/tendermint/crypto"
	"github.com/tendermint/tendermint/crypto/ed25519"
	tmtypes "github.com/tendermint/tendermint/types"

	"github.com/coinexchain/tm-light/light"
)

func newValidator(power int64) (*light.Validator, tmcrypto.PrivKey) {
	priv := ed25519.GenPrivKey()
	pub := priv.PubKey()
	return &light.Validator{
		Address:     []byte(pub.Address()),
		PubKey:      pub,
		VotingPower: power,
	}, priv
}

// signPrecommit reproduces exactly the vote shape ProdSignatureVerifier
// reconstructs, so a signature produced here verifies under it (and under
// tendermint's own ValidatorSet.VerifyCommit).
func signPrecommit(t *testing.T, priv tmcrypto.PrivKey, chainID string, height light.Height,
	round int32, blockID light.BlockID, timestamp time.Time) []byte {
	t.Helper()

	vote := tmtypes.Vote{
		Type:      tmtypes.PrecommitType,
		Height:    height,
		Round:     round,
		BlockID:   toTMBlockID(blockID),
		Timestamp: timestamp,
	}
	sig, err := priv.Sign(vote.SignBytes(chainID))
	require.NoError(t, err)
	return sig
}

func TestProdHasher_HashHeaderIsDeterministicAndContentSensitive(t *testing.T) {
	h1 := &light.Header{ChainID: "test-chain", Height: 10, Time: time.Unix(100, 0)}
	h2 := &light.Header{ChainID: "test-chain", Height: 11, Time: time.Unix(100, 0)}

	hasher := ProdHasher{}
	hash1 := hasher.HashHeader(h1)
	require.NotEmpty(t, hash1)
	require.Equal(t, hash1, hasher.HashHeader(h1))
	require.NotEqual(t, hash1, hasher.HashHeader(h2))
}

func TestProdHasher_HashValidatorSetIsDeterministicAndContentSensitive(t *testing.T) {
	v1, _ := newValidator(10)
	v2, _ := newValidator(5)

	hasher := ProdHasher{}
	vs1 := &light.ValidatorSet{Validators: []*light.Validator{v1}}
	vs2 := &light.ValidatorSet{Validators: []*light.Validator{v2}}

	hash1 := hasher.HashValidatorSet(vs1)
	require.NotEmpty(t, hash1)
	require.Equal(t, hash1, hasher.HashValidatorSet(vs1))
	require.NotEqual(t, hash1, hasher.HashValidatorSet(vs2))
}

func TestProdCommitValidator_ValidateAcceptsGenuineCommit(t *testing.T) {
	const chainID = "test-chain"
	v1, p1 := newValidator(10)
	v2, p2 := newValidator(10)
	vs := &light.ValidatorSet{Validators: []*light.Validator{v1, v2}}

	blockID := light.BlockID{Hash: []byte("block-hash-bytes")}
	now := time.Unix(1000, 0)

	commit := &light.Commit{
		Height: 5, Round: 0, BlockID: blockID,
		Signatures: []light.CommitSig{
			{Kind: light.SignatureCommit, ValidatorAddress: v1.Address, Timestamp: now,
				Signature: signPrecommit(t, p1, chainID, 5, 0, blockID, now)},
			{Kind: light.SignatureCommit, ValidatorAddress: v2.Address, Timestamp: now,
				Signature: signPrecommit(t, p2, chainID, 5, 0, blockID, now)},
		},
	}
	sh := &light.SignedHeader{Header: &light.Header{ChainID: chainID, Height: 5}, Commit: commit}

	require.NoError(t, ProdCommitValidator{}.Validate(sh, vs))
}

func TestProdCommitValidator_ValidateRejectsTamperedSignature(t *testing.T) {
	const chainID = "test-chain"
	v1, p1 := newValidator(10)
	v2, p2 := newValidator(10)
	vs := &light.ValidatorSet{Validators: []*light.Validator{v1, v2}}

	blockID := light.BlockID{Hash: []byte("block-hash-bytes")}
	now := time.Unix(1000, 0)

	sig1 := signPrecommit(t, p1, chainID, 5, 0, blockID, now)
	sig1[0] ^= 0xFF // flip a bit: the signature no longer verifies

	commit := &light.Commit{
		Height: 5, Round: 0, BlockID: blockID,
		Signatures: []light.CommitSig{
			{Kind: light.SignatureCommit, ValidatorAddress: v1.Address, Timestamp: now, Signature: sig1},
			{Kind: light.SignatureCommit, ValidatorAddress: v2.Address, Timestamp: now,
				Signature: signPrecommit(t, p2, chainID, 5, 0, blockID, now)},
		},
	}
	sh := &light.SignedHeader{Header: &light.Header{ChainID: chainID, Height: 5}, Commit: commit}

	require.Error(t, ProdCommitValidator{}.Validate(sh, vs))
}

// TestProdVotingPowerCalculator_TalliesOnlyValidSignedMembers exercises the
// two ways a commit signature can be excluded from the tally without
// failing outright: a nil vote, and not a member of the reference set.
func TestProdVotingPowerCalculator_TalliesOnlyValidSignedMembers(t *testing.T) {
	const chainID = "test-chain"
	v1, p1 := newValidator(10)
	v2, _ := newValidator(20) // votes nil: left out of the tally
	v3, p3 := newValidator(30)
	vs := &light.ValidatorSet{Validators: []*light.Validator{v1, v2, v3}}

	outsider, pOutsider := newValidator(999) // signs, but is not in vs

	blockID := light.BlockID{Hash: []byte("block-hash-bytes")}
	now := time.Unix(1000, 0)

	sh := &light.SignedHeader{
		Header: &light.Header{ChainID: chainID, Height: 5},
		Commit: &light.Commit{
			Height: 5, Round: 0, BlockID: blockID,
			Signatures: []light.CommitSig{
				{Kind: light.SignatureCommit, ValidatorAddress: v1.Address, Timestamp: now,
					Signature: signPrecommit(t, p1, chainID, 5, 0, blockID, now)},
				{Kind: light.SignatureNil, ValidatorAddress: v2.Address, Timestamp: now},
				{Kind: light.SignatureCommit, ValidatorAddress: outsider.Address, Timestamp: now,
					Signature: signPrecommit(t, pOutsider, chainID, 5, 0, blockID, now)},
			},
		},
	}
	_ = p3 // v3 never signs in this scenario; it only contributes to Total

	calc := NewProdVotingPowerCalculator()
	tally, err := calc.VotingPowerIn(sh, vs)
	require.NoError(t, err)
	require.Equal(t, int64(10), tally.Signed, "only v1's signature is a verifying member signature")
	require.Equal(t, int64(60), tally.Total)
}

// TestProdVotingPowerCalculator_InvalidSignatureIsHardFailure confirms that
// a present, non-absent signature which fails to verify against the
// reference set aborts the tally with an error rather than being silently
// treated as if that validator had not voted.
func TestProdVotingPowerCalculator_InvalidSignatureIsHardFailure(t *testing.T) {
	const chainID = "test-chain"
	v1, p1 := newValidator(10)
	v2, p2 := newValidator(30)
	vs := &light.ValidatorSet{Validators: []*light.Validator{v1, v2}}

	blockID := light.BlockID{Hash: []byte("block-hash-bytes")}
	now := time.Unix(1000, 0)

	badSig := signPrecommit(t, p2, chainID, 5, 0, blockID, now)
	badSig[0] ^= 0xFF

	sh := &light.SignedHeader{
		Header: &light.Header{ChainID: chainID, Height: 5},
		Commit: &light.Commit{
			Height: 5, Round: 0, BlockID: blockID,
			Signatures: []light.CommitSig{
				{Kind: light.SignatureCommit, ValidatorAddress: v1.Address, Timestamp: now,
					Signature: signPrecommit(t, p1, chainID, 5, 0, blockID, now)},
				{Kind: light.SignatureCommit, ValidatorAddress: v2.Address, Timestamp: now, Signature: badSig},
			},
		},
	}

	calc := NewProdVotingPowerCalculator()
	_, err := calc.VotingPowerIn(sh, vs)
	require.Error(t, err)
}
