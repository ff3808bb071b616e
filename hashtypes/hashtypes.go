// Package hashtypes defines the fixed-size digests shared by keccak,
// ethash and progpow: H256, H512, H1024 and H2048. They are value types
// copied by assignment; little-endian word views are exposed through
// methods rather than unions, since Go has no union type.
package hashtypes

import "encoding/binary"

// H256 is a 32-byte digest.
type H256 [32]byte

// H512 is a 64-byte digest.
type H512 [64]byte

// H1024 is a 128-byte digest, the concatenation of two H512s.
type H1024 [128]byte

// H2048 is a 256-byte digest, the concatenation of four H512s.
type H2048 [256]byte

// Word32 returns the little-endian 32-bit word at word index i.
func (h H256) Word32(i int) uint32 { return binary.LittleEndian.Uint32(h[i*4:]) }

// Word32s returns all eight little-endian 32-bit words.
func (h H256) Word32s() [8]uint32 {
	var out [8]uint32
	for i := range out {
		out[i] = h.Word32(i)
	}
	return out
}

// SetWord32 stores v at little-endian word index i.
func (h *H256) SetWord32(i int, v uint32) { binary.LittleEndian.PutUint32(h[i*4:], v) }

// Bytes returns the digest as a byte slice.
func (h H256) Bytes() []byte { b := h; return b[:] }

// Equal reports whether two H256 digests are byte-identical.
func (h H256) Equal(o H256) bool { return h == o }

// LessOrEqual compares two H256 values as big-endian 256-bit unsigned
// integers, as required when checking a final hash against a boundary.
func (h H256) LessOrEqual(boundary H256) bool {
	for i := 0; i < 32; i++ {
		if h[i] != boundary[i] {
			return h[i] < boundary[i]
		}
	}
	return true
}

// Word32 returns the little-endian 32-bit word at word index i.
func (h H512) Word32(i int) uint32 { return binary.LittleEndian.Uint32(h[i*4:]) }

// SetWord32 stores v at little-endian word index i.
func (h *H512) SetWord32(i int, v uint32) { binary.LittleEndian.PutUint32(h[i*4:], v) }

// Word64 returns the little-endian 64-bit word at word index i.
func (h H512) Word64(i int) uint64 { return binary.LittleEndian.Uint64(h[i*8:]) }

// SetWord64 stores v at little-endian word index i.
func (h *H512) SetWord64(i int, v uint64) { binary.LittleEndian.PutUint64(h[i*8:], v) }

// Bytes returns the digest as a byte slice.
func (h H512) Bytes() []byte { b := h; return b[:] }

// XOR512 returns the byte-wise XOR of two H512 digests.
func XOR512(a, b H512) H512 {
	var out H512
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// Fnv1_512 combines a and b word-wise using bits.Fnv1 across all sixteen
// 32-bit lanes — 16 parallel FNV-1 mixes over the two 512-bit digests.
func Fnv1_512(a, b H512, fnv1 func(u, v uint32) uint32) H512 {
	var out H512
	for i := 0; i < 16; i++ {
		out.SetWord32(i, fnv1(a.Word32(i), b.Word32(i)))
	}
	return out
}

// Word32 returns the little-endian 32-bit word at word index i.
func (h H1024) Word32(i int) uint32 { return binary.LittleEndian.Uint32(h[i*4:]) }

// SetWord32 stores v at little-endian word index i.
func (h *H1024) SetWord32(i int, v uint32) { binary.LittleEndian.PutUint32(h[i*4:], v) }

// Word64 returns the little-endian 64-bit word at word index i.
func (h H1024) Word64(i int) uint64 { return binary.LittleEndian.Uint64(h[i*8:]) }

// Bytes returns the digest as a byte slice.
func (h H1024) Bytes() []byte { b := h; return b[:] }

// FromHalves builds an H1024 from two H512 sub-items.
func FromHalves(a, b H512) H1024 {
	var out H1024
	copy(out[:64], a[:])
	copy(out[64:], b[:])
	return out
}

// Halves splits an H1024 back into its two H512 sub-items.
func (h H1024) Halves() (a, b H512) {
	copy(a[:], h[:64])
	copy(b[:], h[64:])
	return
}

// Word32 returns the little-endian 32-bit word at word index i.
func (h H2048) Word32(i int) uint32 { return binary.LittleEndian.Uint32(h[i*4:]) }

// Bytes returns the digest as a byte slice.
func (h H2048) Bytes() []byte { b := h; return b[:] }

// FromQuarters builds an H2048 from four H512 sub-items.
func FromQuarters(a, b, c, d H512) H2048 {
	var out H2048
	copy(out[0:64], a[:])
	copy(out[64:128], b[:])
	copy(out[128:192], c[:])
	copy(out[192:256], d[:])
	return out
}

// FromHalves1024 builds an H2048 from two H1024 sub-items.
func FromHalves1024(a, b H1024) H2048 {
	var out H2048
	copy(out[:128], a[:])
	copy(out[128:], b[:])
	return out
}
