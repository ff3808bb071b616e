package progpow

import "testing"

func TestNewMixRNGStatePermutationIsComplete(t *testing.T) {
	st := NewMixRNGState(42)
	seenDst := map[uint32]bool{}
	seenSrc := map[uint32]bool{}
	for _, v := range st.DstSeq {
		seenDst[v] = true
	}
	for _, v := range st.SrcSeq {
		seenSrc[v] = true
	}
	if len(seenDst) != Regs || len(seenSrc) != Regs {
		t.Fatalf("Fisher-Yates permutation dropped indexes: dst=%d src=%d want %d", len(seenDst), len(seenSrc), Regs)
	}
}

func TestNewMixRNGStateDeterministic(t *testing.T) {
	a := NewMixRNGState(7)
	b := NewMixRNGState(7)
	if a.DstSeq != b.DstSeq || a.SrcSeq != b.SrcSeq {
		t.Fatal("same seed produced different permutations")
	}
}

func TestNextDstSrcCycle(t *testing.T) {
	st := NewMixRNGState(1)
	first := make([]uint32, Regs)
	for i := range first {
		first[i] = st.NextDst()
	}
	second := make([]uint32, Regs)
	for i := range second {
		second[i] = st.NextDst()
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("dst cursor did not wrap cleanly at index %d", i)
		}
	}

	firstSrc := make([]uint32, Regs)
	for i := range firstSrc {
		firstSrc[i] = st.NextSrc()
	}
	secondSrc := make([]uint32, Regs)
	for i := range secondSrc {
		secondSrc[i] = st.NextSrc()
	}
	for i := range firstSrc {
		if firstSrc[i] != secondSrc[i] {
			t.Fatalf("src cursor did not wrap cleanly at index %d", i)
		}
	}
}

func TestRandomMergeVariants(t *testing.T) {
	a := uint32(5)
	RandomMerge(&a, 7, 0)
	if a != 5*33+7 {
		t.Fatalf("sel=0: got %d, want %d", a, 5*33+7)
	}

	b := uint32(5)
	RandomMerge(&b, 7, 1)
	if b != (5^7)*33 {
		t.Fatalf("sel=1: got %d, want %d", b, (5^7)*33)
	}
}

func TestWalkMixProgramCallCounts(t *testing.T) {
	st := NewMixRNGState(0)
	cacheCalls, mathCalls := 0, 0
	WalkMixProgram(&st,
		func(i int, src, dst, sel uint32) { cacheCalls++ },
		func(i int, src1, src2, dst, sel1, sel2 uint32) { mathCalls++ },
	)
	if cacheCalls != CntCache {
		t.Fatalf("cache callback fired %d times, want %d", cacheCalls, CntCache)
	}
	if mathCalls != CntMath {
		t.Fatalf("math callback fired %d times, want %d", mathCalls, CntMath)
	}
}

func TestRandomMathVariants(t *testing.T) {
	if got := RandomMath(3, 4, 0); got != 7 {
		t.Fatalf("add: got %d, want 7", got)
	}
	if got := RandomMath(3, 4, 1); got != 12 {
		t.Fatalf("mul: got %d, want 12", got)
	}
	if got := RandomMath(3, 4, 3); got != 3 {
		t.Fatalf("min: got %d, want 3", got)
	}
	if got := RandomMath(0xf0, 0x0f, 6); got != 0 {
		t.Fatalf("and: got %d, want 0", got)
	}
	if got := RandomMath(0xf0, 0x0f, 7); got != 0xff {
		t.Fatalf("or: got %#x, want 0xff", got)
	}
}
