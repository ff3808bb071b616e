package progpow

import (
	"github.com/jinzhu/copier"

	"github.com/dynm/kawpow-core/bits"
	"github.com/dynm/kawpow-core/ethash"
	"github.com/dynm/kawpow-core/kiss99"
)

// MixMatrix is the LANES x REGS working set a single hash's inner loop
// mutates in place.
type MixMatrix [Lanes][Regs]uint32

// InitMix seeds every lane's register file from its own KISS99 stream,
// all Lanes streams themselves derived from the same 64-bit seed.
func InitMix(seed uint64) MixMatrix {
	z := bits.Fnv1a(bits.FNVOffsetBasis, uint32(seed))
	w := bits.Fnv1a(z, uint32(seed>>32))

	var mix MixMatrix
	for l := 0; l < Lanes; l++ {
		jsr := bits.Fnv1a(w, uint32(l))
		jcong := bits.Fnv1a(jsr, uint32(l))
		rng := kiss99.NewSeeded(z, w, jsr, jcong)
		for r := 0; r < Regs; r++ {
			mix[l][r] = rng.Uint32()
		}
	}
	return mix
}

// round applies one of CntDag inner-loop iterations against mix in
// place, reading the 2048-bit DAG item selected by mix[r%Lanes][0] from
// ctx. It receives state by value: the
// reference implementation's round() takes mix_rng_state by value too,
// so every round restarts dst_counter/src_counter at zero from a fresh
// copy of the caller's permutation and KISS99 stream rather than
// advancing it across rounds. copier.Copy makes that value-semantics
// choice explicit at the one call site it matters.
func round(ctx *ethash.EpochContext, r uint32, mix *MixMatrix, outer MixRNGState) {
	var state MixRNGState
	if err := copier.Copy(&state, &outer); err != nil {
		state = outer
	}

	numItems := ctx.FullDatasetNumItems / 2
	itemIndex := mix[r%Lanes][0] % numItems

	item := ctx.DatasetItem2048(itemIndex)
	l1Words := uint32(len(ctx.L1Cache))

	WalkMixProgram(&state,
		func(_ int, src, dst, sel uint32) {
			for l := 0; l < Lanes; l++ {
				offset := mix[l][src] % l1Words
				RandomMerge(&mix[l][dst], ctx.L1CacheWord(offset), sel)
			}
		},
		func(_ int, src1, src2, dst, sel1, sel2 uint32) {
			for l := 0; l < Lanes; l++ {
				data := RandomMath(mix[l][src1], mix[l][src2], sel1)
				RandomMerge(&mix[l][dst], data, sel2)
			}
		},
	)

	var dsts, sels [WordsPerLane]uint32
	for i := 0; i < WordsPerLane; i++ {
		if i == 0 {
			dsts[i] = 0
		} else {
			dsts[i] = state.NextDst()
		}
		sels[i] = state.RNG.Uint32()
	}

	for l := 0; l < Lanes; l++ {
		offset := ((uint32(l) ^ r) % Lanes) * WordsPerLane
		for i := 0; i < WordsPerLane; i++ {
			word := item.Word32(int(offset) + i)
			RandomMerge(&mix[l][dsts[i]], word, sels[i])
		}
	}
}
