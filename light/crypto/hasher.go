package crypto

import (
	"github.com/coinexchain/tm-light/light"
)

// ProdHasher implements light.Hasher on top of tendermint's own header and
// validator-set hashing, so the content-addressing scheme the predicates
// rely on (headerMatchesCommit, validatorSetsMatch, ...) is exactly the one
// full nodes use, not a reimplementation of it.
//
// Header.Hash and ValidatorSet.Hash merkleize over whichever fields the
// caller populated; light.Header only carries the subset skipping
// verification needs, so the resulting hash is self-consistent within this
// module, not bit-identical to a full node's header hash (see DESIGN.md).
type ProdHasher struct{}

// HashHeader implements light.Hasher.
func (ProdHasher) HashHeader(h *light.Header) []byte {
	header := toTMHeader(h)
	return header.Hash()
}

// HashValidatorSet implements light.Hasher.
func (ProdHasher) HashValidatorSet(vs *light.ValidatorSet) []byte {
	return toTMValidatorSet(vs).Hash()
}
