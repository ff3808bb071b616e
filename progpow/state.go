// Package progpow implements the ProgPoW hashing engine: program-state
// PRNG, per-round register mixing over the ethash DAG, the seed/final
// keccak-f[800] compression, CPU verification, and a GPU kernel-source
// emitter whose instruction stream walks the identical RNG sequence as
// the CPU round function.
package progpow

import (
	"github.com/dynm/kawpow-core/bits"
	"github.com/dynm/kawpow-core/kiss99"
)

// KawPoW program constants (spec §3 invariants).
const (
	Period      = 3
	Lanes       = 16
	Regs        = 32
	DagLoads    = 4
	CacheBytes  = 16 * 1024
	CntDag      = 64
	CntCache    = 11
	CntMath     = 18
	WordsPerLane = 2048 / (32 * Lanes)
)

// MixRNGState encapsulates the KISS99 stream plus the precomputed
// Fisher-Yates permutations of register indexes the round function
// draws dst/src operands from.
type MixRNGState struct {
	RNG        kiss99.State
	DstCounter uint32
	SrcCounter uint32
	DstSeq     [Regs]uint32
	SrcSeq     [Regs]uint32
}

// NewMixRNGState derives the KISS99 seed from a 64-bit program seed and
// builds the interleaved Fisher-Yates register permutations.
func NewMixRNGState(seed uint64) MixRNGState {
	seedLo := uint32(seed)
	seedHi := uint32(seed >> 32)

	z := bits.Fnv1a(bits.FNVOffsetBasis, seedLo)
	w := bits.Fnv1a(z, seedHi)
	jsr := bits.Fnv1a(w, seedLo)
	jcong := bits.Fnv1a(jsr, seedHi)

	st := MixRNGState{RNG: kiss99.NewSeeded(z, w, jsr, jcong)}
	for i := range st.DstSeq {
		st.DstSeq[i] = uint32(i)
		st.SrcSeq[i] = uint32(i)
	}

	for i := Regs; i > 1; i-- {
		j := st.RNG.Uint32() % uint32(i)
		st.DstSeq[i-1], st.DstSeq[j] = st.DstSeq[j], st.DstSeq[i-1]
		k := st.RNG.Uint32() % uint32(i)
		st.SrcSeq[i-1], st.SrcSeq[k] = st.SrcSeq[k], st.SrcSeq[i-1]
	}
	return st
}

// NextDst returns the next destination register index, advancing the
// round-robin cursor over the dst permutation.
func (st *MixRNGState) NextDst() uint32 {
	v := st.DstSeq[st.DstCounter%Regs]
	st.DstCounter++
	return v
}

// NextSrc returns the next source register index, advancing the
// round-robin cursor over the src permutation.
func (st *MixRNGState) NextSrc() uint32 {
	v := st.SrcSeq[st.SrcCounter%Regs]
	st.SrcCounter++
	return v
}

// RandomMerge folds b into *a in place, chosen by sel%4; x is the
// rotation amount for the rotate variants, always in [1, 31].
func RandomMerge(a *uint32, b, sel uint32) {
	x := (sel>>16)%31 + 1
	switch sel % 4 {
	case 0:
		*a = (*a * 33) + b
	case 1:
		*a = (*a ^ b) * 33
	case 2:
		*a = bits.RotL32(*a, x) ^ b
	case 3:
		*a = bits.RotR32(*a, x) ^ b
	}
}

// WalkMixProgram drives the CntCache/CntMath operand sequence every
// ProgPoW round is built from: state.NextSrc/NextDst/RNG.Uint32 calls
// in the exact order round() in mix.go and GetKernel in kernel.go both
// need to agree on. onCache fires for each of the first CntCache
// iterations with the cache-load operand indexes and selector; onMath
// fires for each of the first CntMath iterations with the random-math
// operand indexes and selectors. i is the shared iteration number
// both callbacks see on the same pass, matching the reference
// implementation's single interleaved loop. Driving both the CPU
// round and the kernel-source emitter through this one walker is what
// keeps their opcode sequences from drifting apart.
func WalkMixProgram(state *MixRNGState, onCache func(i int, src, dst, sel uint32), onMath func(i int, src1, src2, dst, sel1, sel2 uint32)) {
	maxOps := CntCache
	if CntMath > maxOps {
		maxOps = CntMath
	}
	for i := 0; i < maxOps; i++ {
		if i < CntCache {
			src := state.NextSrc()
			dst := state.NextDst()
			sel := state.RNG.Uint32()
			onCache(i, src, dst, sel)
		}
		if i < CntMath {
			srcRnd := state.RNG.Uint32() % (Regs * (Regs - 1))
			src1 := srcRnd % Regs
			src2 := srcRnd / Regs
			if src2 >= src1 {
				src2++
			}
			sel1 := state.RNG.Uint32()
			dst := state.NextDst()
			sel2 := state.RNG.Uint32()
			onMath(i, src1, src2, dst, sel1, sel2)
		}
	}
}

// RandomMath returns a fresh value derived from a and b, chosen by
// sel%11.
func RandomMath(a, b, sel uint32) uint32 {
	switch sel % 11 {
	case 0:
		return a + b
	case 1:
		return a * b
	case 2:
		return bits.MulHi32(a, b)
	case 3:
		if a < b {
			return a
		}
		return b
	case 4:
		return bits.RotL32(a, b)
	case 5:
		return bits.RotR32(a, b)
	case 6:
		return a & b
	case 7:
		return a | b
	case 8:
		return a ^ b
	case 9:
		return bits.Clz32(a) + bits.Clz32(b)
	default: // 10
		return bits.Popcnt32(a) + bits.Popcnt32(b)
	}
}
