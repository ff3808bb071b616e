package progpow

import (
	"fmt"
	"strings"
	"testing"
)

func TestGetKernelCUDAContainsConstants(t *testing.T) {
	src := GetKernel(1, KernelCUDA)
	for _, want := range []string{"PROGPOW_LANES", "PROGPOW_REGS", "progPowLoop", "__device__"} {
		if !strings.Contains(src, want) {
			t.Fatalf("CUDA kernel source missing %q", want)
		}
	}
}

func TestGetKernelOpenCLContainsConstants(t *testing.T) {
	src := GetKernel(1, KernelOpenCL)
	for _, want := range []string{"PROGPOW_LANES", "PROGPOW_REGS", "progPowLoop", "__global"} {
		if !strings.Contains(src, want) {
			t.Fatalf("OpenCL kernel source missing %q", want)
		}
	}
}

func TestGetKernelDeterministic(t *testing.T) {
	a := GetKernel(123, KernelCUDA)
	b := GetKernel(123, KernelCUDA)
	if a != b {
		t.Fatal("GetKernel is not deterministic for a fixed seed")
	}
}

func TestGetKernelVariesWithSeed(t *testing.T) {
	a := GetKernel(1, KernelCUDA)
	b := GetKernel(2, KernelCUDA)
	if a == b {
		t.Fatal("GetKernel produced identical source for two different program seeds")
	}
}

// TestGetKernelMatchesMixRNGStateTrace checks that GetKernel's cache-load
// and random-math operand sequence, for program_seed 0, is exactly the
// register-index trace WalkMixProgram produces from a fresh
// NewMixRNGState(0) — the same walker round() drives in mix.go. This is
// what keeps the GPU kernel source and the CPU verifier from silently
// drifting apart on the shared portion of their instruction streams.
func TestGetKernelMatchesMixRNGStateTrace(t *testing.T) {
	state := NewMixRNGState(0)

	var wantLines []string
	WalkMixProgram(&state,
		func(i int, src, dst, sel uint32) {
			wantLines = append(wantLines, fmt.Sprintf("// cache load %d\noffset = mix[%d] %% PROGPOW_CACHE_WORDS;\ndata = c_dag[offset];\n", i, src)+
				randomMergeSrc(fmt.Sprintf("mix[%d]", dst), "data", sel))
		},
		func(i int, src1, src2, dst, sel1, sel2 uint32) {
			wantLines = append(wantLines, fmt.Sprintf("// random math %d\n", i)+
				randomMathSrc("data", fmt.Sprintf("mix[%d]", src1), fmt.Sprintf("mix[%d]", src2), sel1)+
				randomMergeSrc(fmt.Sprintf("mix[%d]", dst), "data", sel2))
		},
	)

	for _, kind := range []KernelKind{KernelCUDA, KernelOpenCL} {
		src := GetKernel(0, kind)
		lastIdx := -1
		for _, want := range wantLines {
			idx := strings.Index(src, want)
			if idx < 0 {
				t.Fatalf("kind %v: kernel source missing expected trace fragment %q", kind, want)
			}
			if idx < lastIdx {
				t.Fatalf("kind %v: trace fragment %q out of order", kind, want)
			}
			lastIdx = idx
		}
	}
}
