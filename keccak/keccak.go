// Package keccak implements the keccak-f[1600] and keccak-f[800]
// permutations and their sponge-mode wrappers (Keccak-256, Keccak-512).
// This is the Keccak of the original submission, not NIST SHA-3: the
// padding byte is 0x01, not 0x06.
package keccak

import (
	"encoding/binary"

	"github.com/dynm/kawpow-core/hashtypes"
)

func rotl64(x uint64, n uint) uint64 {
	n &= 63
	return (x << n) | (x >> (64 - n))
}

var roundConstants64 = [24]uint64{
	0x0000000000000001, 0x0000000000008082, 0x800000000000808a, 0x8000000080008000,
	0x000000000000808b, 0x0000000080000001, 0x8000000080008081, 0x8000000000008009,
	0x000000000000008a, 0x0000000000000088, 0x0000000080008009, 0x000000008000000a,
	0x000000008000808b, 0x800000000000008b, 0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080, 0x000000000000800a, 0x800000008000000a,
	0x8000000080008081, 0x8000000000008080, 0x0000000080000001, 0x8000000080008008,
}

var roundConstants32 = [24]uint32{
	0x00000001, 0x00008082, 0x0000808a, 0x80008000,
	0x0000808b, 0x80000001, 0x80008081, 0x00008009,
	0x0000008a, 0x00000088, 0x80008009, 0x8000000a,
	0x8000808b, 0x0000008b, 0x00008089, 0x00008003,
	0x00008002, 0x00000080, 0x0000800a, 0x8000000a,
	0x80008081, 0x00008080, 0x80000001, 0x80008008,
}

// theta/rho/pi/chi/iota step indices, shared between f1600 and f800.
var piLanes = [24]int{10, 7, 11, 17, 18, 3, 5, 16, 8, 21, 24, 4, 15, 23, 19, 13, 12, 2, 20, 14, 22, 9, 6, 1}

// F1600 applies the 24-round keccak-f[1600] permutation in place over 25
// 64-bit lanes.
func F1600(state *[25]uint64) {
	var bc [5]uint64
	for round := 0; round < 24; round++ {
		// Theta
		for i := 0; i < 5; i++ {
			bc[i] = state[i] ^ state[i+5] ^ state[i+10] ^ state[i+15] ^ state[i+20]
		}
		for i := 0; i < 5; i++ {
			t := bc[(i+4)%5] ^ rotl64(bc[(i+1)%5], 1)
			for j := 0; j < 25; j += 5 {
				state[j+i] ^= t
			}
		}

		// Rho and Pi
		t := state[1]
		for i := 0; i < 24; i++ {
			j := piLanes[i]
			bc[0] = state[j]
			state[j] = rotl64(t, keccakfROTC1600[i])
			t = bc[0]
		}

		// Chi
		for j := 0; j < 25; j += 5 {
			for i := 0; i < 5; i++ {
				bc[i] = state[j+i]
			}
			for i := 0; i < 5; i++ {
				state[j+i] ^= (^bc[(i+1)%5]) & bc[(i+2)%5]
			}
		}

		// Iota
		state[0] ^= roundConstants64[round]
	}
}

// keccakfROTC1600 are the canonical rho rotation offsets for keccak-f[1600],
// indexed in the same traversal order as piLanes.
var keccakfROTC1600 = [24]uint{1, 3, 6, 10, 15, 21, 28, 36, 45, 55, 2, 14, 27, 41, 56, 8, 25, 43, 62, 18, 39, 61, 20, 44}

// F800 applies the 22-round keccak-f[800] permutation in place over 25
// 32-bit lanes, as used by ProgPoW's final compression.
func F800(state *[25]uint32) {
	var bc [5]uint32
	for round := 0; round < 22; round++ {
		for i := 0; i < 5; i++ {
			bc[i] = state[i] ^ state[i+5] ^ state[i+10] ^ state[i+15] ^ state[i+20]
		}
		for i := 0; i < 5; i++ {
			t := bc[(i+4)%5] ^ rotl32(bc[(i+1)%5], 1)
			for j := 0; j < 25; j += 5 {
				state[j+i] ^= t
			}
		}

		t := state[1]
		for i := 0; i < 24; i++ {
			j := piLanes[i]
			bc[0] = state[j]
			state[j] = rotl32(t, uint(keccakfROTC1600[i]))
			t = bc[0]
		}

		for j := 0; j < 25; j += 5 {
			for i := 0; i < 5; i++ {
				bc[i] = state[j+i]
			}
			for i := 0; i < 5; i++ {
				state[j+i] ^= (^bc[(i+1)%5]) & bc[(i+2)%5]
			}
		}

		state[0] ^= roundConstants32[round]
	}
}

func rotl32(x uint32, n uint) uint32 {
	n &= 31
	return (x << n) | (x >> (32 - n))
}

// keccak runs the sponge construction for the given output width in bits
// (256 or 512), writing little-endian words to out.
func keccak(out []uint64, bits int, input []byte) {
	hashSize := bits / 8
	blockSize := (1600 - bits*2) / 8
	blockWords := blockSize / 8

	var state [25]uint64
	wordIdx := 0

	for len(input) >= blockSize {
		for i := 0; i < blockWords; i++ {
			state[i] ^= binary.LittleEndian.Uint64(input[i*8:])
		}
		input = input[blockSize:]
		F1600(&state)
	}

	for len(input) >= 8 {
		state[wordIdx] ^= binary.LittleEndian.Uint64(input[:8])
		wordIdx++
		input = input[8:]
	}

	var lastWord [8]byte
	copy(lastWord[:], input)
	lastWord[len(input)] = 0x01
	state[wordIdx] ^= binary.LittleEndian.Uint64(lastWord[:])
	state[blockWords-1] ^= 0x8000000000000000

	F1600(&state)

	for i := 0; i < hashSize/8; i++ {
		out[i] = state[i]
	}
}

// Keccak256 computes the 256-bit Keccak digest of data.
func Keccak256(data []byte) hashtypes.H256 {
	var words [4]uint64
	keccak(words[:], 256, data)
	var out hashtypes.H256
	for i, w := range words {
		binary.LittleEndian.PutUint64(out[i*8:], w)
	}
	return out
}

// Keccak512 computes the 512-bit Keccak digest of data.
func Keccak512(data []byte) hashtypes.H512 {
	var words [8]uint64
	keccak(words[:], 512, data)
	var out hashtypes.H512
	for i, w := range words {
		binary.LittleEndian.PutUint64(out[i*8:], w)
	}
	return out
}

// Keccak256H hashes the bytes of an H256 digest.
func Keccak256H(h hashtypes.H256) hashtypes.H256 { return Keccak256(h[:]) }

// Keccak512H hashes the bytes of an H512 digest.
func Keccak512H(h hashtypes.H512) hashtypes.H512 { return Keccak512(h[:]) }
