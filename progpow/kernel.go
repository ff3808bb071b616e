package progpow

import (
	"fmt"
	"strconv"
	"strings"
)

// KernelKind selects the GPU dialect GetKernel emits.
type KernelKind int

const (
	KernelCUDA KernelKind = iota
	KernelOpenCL
)

// GetKernel produces the GPU kernel source text for the inner loop
// specialized to programSeed. Its cache-load/random-math instruction
// stream is driven by the same WalkMixProgram round() in mix.go uses,
// so the printed kernel and the CPU verifier always agree on a given
// program seed's opcode sequence. The final DAG-consume phase is written
// separately in each: round() merges WordsPerLane words of the 2048-bit
// item at lane offset (l ^ r) % Lanes, and the kernel emits the same
// access as one PROGPOW_DAG_LOADS-word dag_t load per lane.
func GetKernel(programSeed uint64, kind KernelKind) string {
	var b strings.Builder
	state := NewMixRNGState(programSeed)

	writePrelude(&b, kind)

	fmt.Fprintf(&b, "#define PROGPOW_LANES           %d\n", Lanes)
	fmt.Fprintf(&b, "#define PROGPOW_REGS            %d\n", Regs)
	fmt.Fprintf(&b, "#define PROGPOW_DAG_LOADS       %d\n", DagLoads)
	fmt.Fprintf(&b, "#define PROGPOW_CACHE_WORDS     %d\n", CacheBytes/4)
	fmt.Fprintf(&b, "#define PROGPOW_CNT_DAG         %d\n", CntDag)
	fmt.Fprintf(&b, "#define PROGPOW_CNT_MATH        %d\n\n", CntMath)

	if kind == KernelCUDA {
		b.WriteString("typedef struct __align__(16) {uint32_t s[PROGPOW_DAG_LOADS];} dag_t;\n\n")
		fmt.Fprintf(&b, "// Inner loop for prog_seed %d\n", programSeed)
		b.WriteString("__device__ __forceinline__ void progPowLoop(const uint32_t loop,\n" +
			"        uint32_t mix[PROGPOW_REGS],\n" +
			"        const dag_t *g_dag,\n" +
			"        const uint32_t c_dag[PROGPOW_CACHE_WORDS],\n" +
			"        const bool hack_false)\n")
	} else {
		b.WriteString("typedef struct __attribute__ ((aligned (16))) {uint32_t s[PROGPOW_DAG_LOADS];} dag_t;\n\n")
		fmt.Fprintf(&b, "// Inner loop for prog_seed %d\n", programSeed)
		b.WriteString("inline void progPowLoop(const uint32_t loop,\n" +
			"        volatile uint32_t mix_arg[PROGPOW_REGS],\n" +
			"        __global const dag_t *g_dag,\n" +
			"        __local const uint32_t c_dag[PROGPOW_CACHE_WORDS],\n" +
			"        __local uint64_t share[GROUP_SHARE],\n" +
			"        const bool hack_false)\n")
	}
	b.WriteString("{\n")
	b.WriteString("dag_t data_dag;\n")
	b.WriteString("uint32_t offset, data;\n")

	if kind == KernelOpenCL {
		b.WriteString("uint32_t mix[PROGPOW_REGS];\n")
		b.WriteString("for(int i=0; i<PROGPOW_REGS; i++)\n    mix[i] = mix_arg[i];\n")
	}

	if kind == KernelCUDA {
		b.WriteString("const uint32_t lane_id = threadIdx.x & (PROGPOW_LANES-1);\n")
	} else {
		b.WriteString("const uint32_t lane_id = get_local_id(0) & (PROGPOW_LANES-1);\n")
		b.WriteString("const uint32_t group_id = get_local_id(0) / PROGPOW_LANES;\n")
	}

	b.WriteString("// global load\n")
	if kind == KernelCUDA {
		b.WriteString("offset = SHFL(mix[0], loop%PROGPOW_LANES, PROGPOW_LANES);\n")
	} else {
		b.WriteString("if(lane_id == (loop % PROGPOW_LANES))\n    share[group_id] = mix[0];\n")
		b.WriteString("barrier(CLK_LOCAL_MEM_FENCE);\n")
		b.WriteString("offset = share[group_id];\n")
	}
	b.WriteString("offset %= PROGPOW_DAG_ELEMENTS;\n")
	b.WriteString("offset = offset * PROGPOW_LANES + (lane_id ^ loop) % PROGPOW_LANES;\n")
	b.WriteString("data_dag = g_dag[offset];\n")
	b.WriteString("// hack to prevent compiler from reordering LD and usage\n")
	if kind == KernelCUDA {
		b.WriteString("if (hack_false) __threadfence_block();\n")
	} else {
		b.WriteString("if (hack_false) barrier(CLK_LOCAL_MEM_FENCE);\n")
	}

	WalkMixProgram(&state,
		func(i int, src, dst, sel uint32) {
			srcStr := fmt.Sprintf("mix[%d]", src)
			dstStr := fmt.Sprintf("mix[%d]", dst)

			fmt.Fprintf(&b, "// cache load %d\n", i)
			fmt.Fprintf(&b, "offset = %s %% PROGPOW_CACHE_WORDS;\n", srcStr)
			b.WriteString("data = c_dag[offset];\n")
			b.WriteString(randomMergeSrc(dstStr, "data", sel))
		},
		func(i int, src1, src2, dst, sel1, sel2 uint32) {
			src1Str := fmt.Sprintf("mix[%d]", src1)
			src2Str := fmt.Sprintf("mix[%d]", src2)
			dstStr := fmt.Sprintf("mix[%d]", dst)

			fmt.Fprintf(&b, "// random math %d\n", i)
			b.WriteString(randomMathSrc("data", src1Str, src2Str, sel1))
			b.WriteString(randomMergeSrc(dstStr, "data", sel2))
		},
	)

	b.WriteString("// consume global load data\n")
	b.WriteString("// hack to prevent compiler from reordering LD and usage\n")
	if kind == KernelCUDA {
		b.WriteString("if (hack_false) __threadfence_block();\n")
	} else {
		b.WriteString("if (hack_false) barrier(CLK_LOCAL_MEM_FENCE);\n")
	}

	b.WriteString(randomMergeSrc("mix[0]", "data_dag.s[0]", state.RNG.Uint32()))
	for i := 1; i < DagLoads; i++ {
		dst := fmt.Sprintf("mix[%d]", state.NextDst())
		src := fmt.Sprintf("data_dag.s[%d]", i)
		b.WriteString(randomMergeSrc(dst, src, state.RNG.Uint32()))
	}

	if kind == KernelOpenCL {
		b.WriteString("for(int i=0; i<PROGPOW_REGS; i++)\n    mix_arg[i] = mix[i];\n")
	}
	b.WriteString("}\n")

	return b.String()
}

func writePrelude(b *strings.Builder, kind KernelKind) {
	if kind == KernelCUDA {
		b.WriteString("typedef unsigned int       uint32_t;\n")
		b.WriteString("typedef unsigned long long uint64_t;\n")
		b.WriteString("#if __CUDA_ARCH__ < 350\n")
		b.WriteString("#define ROTL32(x,n) (((x) << (n % 32)) | ((x) >> (32 - (n % 32))))\n")
		b.WriteString("#define ROTR32(x,n) (((x) >> (n % 32)) | ((x) << (32 - (n % 32))))\n")
		b.WriteString("#else\n")
		b.WriteString("#define ROTL32(x,n) __funnelshift_l((x), (x), (n))\n")
		b.WriteString("#define ROTR32(x,n) __funnelshift_r((x), (x), (n))\n")
		b.WriteString("#endif\n")
		b.WriteString("#define min(a,b) ((a<b) ? a : b)\n")
		b.WriteString("#define mul_hi(a, b) __umulhi(a, b)\n")
		b.WriteString("#define clz(a) __clz(a)\n")
		b.WriteString("#define popcount(a) __popc(a)\n\n")
		b.WriteString("#define DEV_INLINE __device__ __forceinline__\n")
		b.WriteString("#if (__CUDACC_VER_MAJOR__ > 8)\n")
		b.WriteString("#define SHFL(x, y, z) __shfl_sync(0xFFFFFFFF, (x), (y), (z))\n")
		b.WriteString("#else\n")
		b.WriteString("#define SHFL(x, y, z) __shfl((x), (y), (z))\n")
		b.WriteString("#endif\n\n")
		return
	}

	b.WriteString("#ifndef GROUP_SIZE\n#define GROUP_SIZE 128\n#endif\n")
	fmt.Fprintf(b, "#define GROUP_SHARE (GROUP_SIZE / %d)\n\n", Lanes)
	b.WriteString("typedef unsigned int       uint32_t;\n")
	b.WriteString("typedef unsigned long      uint64_t;\n")
	b.WriteString("#define ROTL32(x, n) rotate((x), (uint32_t)(n))\n")
	b.WriteString("#define ROTR32(x, n) rotate((x), (uint32_t)(32-n))\n\n")
}

// randomMergeSrc renders the textual equivalent of RandomMerge(a, b, sel).
func randomMergeSrc(a, b string, sel uint32) string {
	x := (sel>>16)%31 + 1
	switch sel % 4 {
	case 0:
		return a + " = (" + a + " * 33) + " + b + ";\n"
	case 1:
		return a + " = (" + a + " ^ " + b + ") * 33;\n"
	case 2:
		return a + " = ROTL32(" + a + ", " + strconv.FormatUint(uint64(x), 10) + ") ^ " + b + ";\n"
	default:
		return a + " = ROTR32(" + a + ", " + strconv.FormatUint(uint64(x), 10) + ") ^ " + b + ";\n"
	}
}

// randomMathSrc renders the textual equivalent of
// d = RandomMath(a, b, sel).
func randomMathSrc(d, a, b string, sel uint32) string {
	switch sel % 11 {
	case 0:
		return d + " = " + a + " + " + b + ";\n"
	case 1:
		return d + " = " + a + " * " + b + ";\n"
	case 2:
		return d + " = mul_hi(" + a + ", " + b + ");\n"
	case 3:
		return d + " = min(" + a + ", " + b + ");\n"
	case 4:
		return d + " = ROTL32(" + a + ", " + b + " % 32);\n"
	case 5:
		return d + " = ROTR32(" + a + ", " + b + " % 32);\n"
	case 6:
		return d + " = " + a + " & " + b + ";\n"
	case 7:
		return d + " = " + a + " | " + b + ";\n"
	case 8:
		return d + " = " + a + " ^ " + b + ";\n"
	case 9:
		return d + " = clz(" + a + ") + clz(" + b + ");\n"
	default: // 10
		return d + " = popcount(" + a + ") + popcount(" + b + ");\n"
	}
}
