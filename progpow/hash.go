package progpow

import (
	"encoding/binary"
	"errors"

	"github.com/dynm/kawpow-core/bits"
	"github.com/dynm/kawpow-core/ethash"
	"github.com/dynm/kawpow-core/hashtypes"
	"github.com/dynm/kawpow-core/keccak"
)

// Sentinel verification outcomes. A successful verify returns a nil
// error, so there is no separate OK value to compare against.
var (
	ErrInvalidNonce   = errors.New("progpow: final hash exceeds boundary")
	ErrInvalidMixHash = errors.New("progpow: mix hash disagreement")
)

// Result holds the pair a full hash computation produces.
type Result struct {
	Final hashtypes.H256
	Mix   hashtypes.H256
}

// HashSeed runs keccak-f[800] over the header hash and little-endian
// nonce, returning the 256-bit seed whose low 64 bits Hash passes to
// InitMix and which HashFinal compresses together with the mix hash.
func HashSeed(headerHash hashtypes.H256, nonce uint64) hashtypes.H256 {
	var state [25]uint32
	for i := 0; i < 8; i++ {
		state[i] = headerHash.Word32(i)
	}
	state[8] = uint32(nonce)
	state[9] = uint32(nonce >> 32)
	state[10] = 0x00000001
	state[18] = 0x80008081

	keccak.F800(&state)

	var out hashtypes.H256
	for i := 0; i < 8; i++ {
		out.SetWord32(i, state[i])
	}
	return out
}

// HashMix runs the CntDag-round inner loop over ctx's DAG and folds the
// resulting mix matrix down to a 256-bit mix hash.
func HashMix(ctx *ethash.EpochContext, period uint32, seed uint64) hashtypes.H256 {
	mix := InitMix(seed)
	state := NewMixRNGState(uint64(period))

	for r := uint32(0); r < CntDag; r++ {
		round(ctx, r, &mix, state)
	}

	var laneHash [Lanes]uint32
	for l := 0; l < Lanes; l++ {
		h := bits.FNVOffsetBasis
		for r := 0; r < Regs; r++ {
			h = bits.Fnv1a(h, mix[l][r])
		}
		laneHash[l] = h
	}

	var out hashtypes.H256
	for i := 0; i < 8; i++ {
		out.SetWord32(i, bits.FNVOffsetBasis)
	}
	for l := 0; l < Lanes; l++ {
		idx := l % 8
		out.SetWord32(idx, bits.Fnv1a(out.Word32(idx), laneHash[l]))
	}
	return out
}

// HashFinal compresses the seed and the mix hash into the final 256-bit
// result via a second keccak-f[800] pass.
func HashFinal(seedHash, mixHash hashtypes.H256) hashtypes.H256 {
	var state [25]uint32
	for i := 0; i < 8; i++ {
		state[i] = seedHash.Word32(i)
	}
	for i := 0; i < 8; i++ {
		state[8+i] = mixHash.Word32(i)
	}
	state[17] = 0x00000001
	state[24] = 0x80008081

	keccak.F800(&state)

	var out hashtypes.H256
	for i := 0; i < 8; i++ {
		out.SetWord32(i, state[i])
	}
	return out
}

// Hash computes the full (final, mix) pair for header+nonce against the
// given epoch context and program period.
func Hash(ctx *ethash.EpochContext, period uint32, headerHash hashtypes.H256, nonce uint64) Result {
	seedHash := HashSeed(headerHash, nonce)
	seed64 := binary.LittleEndian.Uint64(seedHash[:8])
	mixHash := HashMix(ctx, period, seed64)
	finalHash := HashFinal(seedHash, mixHash)
	return Result{Final: finalHash, Mix: mixHash}
}

// Verify recomputes the hash for header+nonce and checks it against the
// boundary and the caller-provided mix hash, returning nil on success or
// one of ErrInvalidNonce / ErrInvalidMixHash.
func Verify(ctx *ethash.EpochContext, period uint32, headerHash, mixHash hashtypes.H256, nonce uint64, boundary hashtypes.H256) error {
	result := Hash(ctx, period, headerHash, nonce)
	if !result.Final.LessOrEqual(boundary) {
		return ErrInvalidNonce
	}
	if result.Mix != mixHash {
		return ErrInvalidMixHash
	}
	return nil
}

// HashByBlock resolves the epoch context and program period from a
// block number before delegating to Hash, following EthashAux's
// pattern of taking a block number directly.
func HashByBlock(cache *ethash.ContextCache, block uint64, headerHash hashtypes.H256, nonce uint64) (Result, error) {
	epoch := ethash.EpochFromBlock(block)
	ctx, err := cache.Get(epoch, false)
	if err != nil {
		return Result{}, err
	}
	period := uint32(block / Period)
	return Hash(ctx, period, headerHash, nonce), nil
}

// VerifyByBlock resolves the epoch context and program period from a
// block number before delegating to Verify.
func VerifyByBlock(cache *ethash.ContextCache, block uint64, headerHash, mixHash hashtypes.H256, nonce uint64, boundary hashtypes.H256) error {
	epoch := ethash.EpochFromBlock(block)
	ctx, err := cache.Get(epoch, false)
	if err != nil {
		return err
	}
	period := uint32(block / Period)
	return Verify(ctx, period, headerHash, mixHash, nonce, boundary)
}
