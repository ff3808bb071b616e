package ethash

import (
	"errors"

	"github.com/dynm/kawpow-core/bits"
	"github.com/dynm/kawpow-core/hashtypes"
	"github.com/dynm/kawpow-core/keccak"
)

// NumDatasetAccesses is the number of dataset lookups the plain ethash
// mixing loop performs per hash, distinct from ProgPoW's CntDag.
const NumDatasetAccesses = 64

// Result holds the (final, mix) pair a plain ethash hash produces.
type Result struct {
	Final hashtypes.H256
	Mix   hashtypes.H256
}

// ErrInvalidNonce and ErrInvalidMixHash mirror progpow's verification
// outcomes for the plain ethash path.
var (
	ErrInvalidNonce   = errors.New("ethash: final hash exceeds boundary")
	ErrInvalidMixHash = errors.New("ethash: mix hash disagreement")
)

// HashSeed derives the 512-bit seed from the header hash and
// little-endian nonce.
func HashSeed(header hashtypes.H256, nonce uint64) hashtypes.H512 {
	buf := make([]byte, 0, 40)
	buf = append(buf, header[:]...)
	var nb [8]byte
	nb[0] = byte(nonce)
	nb[1] = byte(nonce >> 8)
	nb[2] = byte(nonce >> 16)
	nb[3] = byte(nonce >> 24)
	nb[4] = byte(nonce >> 32)
	nb[5] = byte(nonce >> 40)
	nb[6] = byte(nonce >> 48)
	nb[7] = byte(nonce >> 56)
	buf = append(buf, nb[:]...)
	return keccak.Keccak512(buf)
}

// HashMix replicates seed into a 128-byte mix and repeatedly folds in
// dataset items selected by an FNV-1 walk, producing the 256-bit mix
// hash the final compression consumes.
func (ctx *EpochContext) HashMix(seed hashtypes.H512) hashtypes.H256 {
	const numWords = 32 // sizeof(H1024) / 4

	var mix hashtypes.H1024
	for i := 0; i < 16; i++ {
		mix.SetWord32(i, seed.Word32(i))
		mix.SetWord32(i+16, seed.Word32(i))
	}

	indexLimit := ctx.FullDatasetNumItems
	seedInit := seed.Word32(0)

	for i := uint32(0); i < NumDatasetAccesses; i++ {
		p := bits.Fnv1(i^seedInit, mix.Word32(int(i%numWords))) % indexLimit
		newData := ctx.DatasetItem1024(p)
		for j := 0; j < numWords; j++ {
			mix.SetWord32(j, bits.Fnv1(mix.Word32(j), newData.Word32(j)))
		}
	}

	var mixHash hashtypes.H256
	for i := 0; i < numWords; i += 4 {
		h1 := bits.Fnv1(mix.Word32(i), mix.Word32(i+1))
		h2 := bits.Fnv1(h1, mix.Word32(i+2))
		h3 := bits.Fnv1(h2, mix.Word32(i+3))
		mixHash.SetWord32(i/4, h3)
	}
	return mixHash
}

// HashFinal compresses the 512-bit seed and the 256-bit mix into the
// final 256-bit result via a single Keccak-256 pass.
func HashFinal(seed hashtypes.H512, mix hashtypes.H256) hashtypes.H256 {
	buf := make([]byte, 0, 96)
	buf = append(buf, seed[:]...)
	buf = append(buf, mix[:]...)
	return keccak.Keccak256(buf)
}

// Hash computes the plain-ethash (final, mix) pair for header+nonce
// against ctx's DAG.
func (ctx *EpochContext) Hash(header hashtypes.H256, nonce uint64) Result {
	seed := HashSeed(header, nonce)
	mix := ctx.HashMix(seed)
	final := HashFinal(seed, mix)
	return Result{Final: final, Mix: mix}
}

// Verify recomputes the plain-ethash hash and checks it against the
// boundary and caller-provided mix hash.
func (ctx *EpochContext) Verify(header, mixHash hashtypes.H256, nonce uint64, boundary hashtypes.H256) error {
	result := ctx.Hash(header, nonce)
	if !result.Final.LessOrEqual(boundary) {
		return ErrInvalidNonce
	}
	if result.Mix != mixHash {
		return ErrInvalidMixHash
	}
	return nil
}
