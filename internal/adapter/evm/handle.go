package evm

import (
	"encoding/binary"

	"multisig-registry/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// HandleDeriver computes wallet handles the way a CREATE2 factory would:
// keccak256(0xff ++ factory ++ salt ++ initCodeHash)[12:], where
// salt = keccak256(creator ++ uint256(seed)).
type HandleDeriver struct {
	factory      common.Address
	initCodeHash common.Hash
}

func NewHandleDeriver(factory common.Address, initCodeHash common.Hash) *HandleDeriver {
	return &HandleDeriver{factory: factory, initCodeHash: initCodeHash}
}

// Derive is deterministic: the same (creator, seed) always yields the same handle.
func (d *HandleDeriver) Derive(creator domain.Member, seed uint64) common.Address {
	return crypto.CreateAddress2(d.factory, Salt(creator, seed), d.initCodeHash.Bytes())
}

// Salt binds a handle to its creator so two creators can reuse a seed.
func Salt(creator domain.Member, seed uint64) [32]byte {
	var word [32]byte
	binary.BigEndian.PutUint64(word[24:], seed)

	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(creator.Bytes())
	hasher.Write(word[:])

	var salt [32]byte
	copy(salt[:], hasher.Sum(nil))
	return salt
}
