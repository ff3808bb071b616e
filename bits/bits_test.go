package bits

import "testing"

func TestRotateRoundTrip(t *testing.T) {
	x := uint32(0x12345678)
	for n := uint32(0); n < 32; n++ {
		if got := RotR32(RotL32(x, n), n); got != x {
			t.Fatalf("RotR32(RotL32(x,%d),%d) = %#x, want %#x", n, n, got, x)
		}
	}
}

func TestClz32(t *testing.T) {
	cases := map[uint32]uint32{
		0:          32,
		1:          31,
		0x80000000: 0,
		0x00800000: 8,
	}
	for in, want := range cases {
		if got := Clz32(in); got != want {
			t.Errorf("Clz32(%#x) = %d, want %d", in, got, want)
		}
	}
}

func TestPopcnt32(t *testing.T) {
	if got := Popcnt32(0xffffffff); got != 32 {
		t.Errorf("Popcnt32(all-ones) = %d, want 32", got)
	}
	if got := Popcnt32(0); got != 0 {
		t.Errorf("Popcnt32(0) = %d, want 0", got)
	}
}

func TestMulHi32(t *testing.T) {
	if got := MulHi32(0xffffffff, 0xffffffff); got != 0xfffffffe {
		t.Errorf("MulHi32(max,max) = %#x, want 0xfffffffe", got)
	}
}

func TestFnv1AndFnv1a(t *testing.T) {
	if got := Fnv1(0, 0); got != 0 {
		t.Errorf("Fnv1(0,0) = %#x, want 0", got)
	}
	base := uint32(0x811c9dc5)
	want := base * FNVPrime
	if got := Fnv1a(0x811c9dc5, 0); got != want {
		t.Errorf("Fnv1a offset mismatch")
	}
}

func TestByteSwap(t *testing.T) {
	if got := ByteSwap32(0x01020304); got != 0x04030201 {
		t.Errorf("ByteSwap32 = %#x", got)
	}
	if got := ByteSwap64(0x0102030405060708); got != 0x0807060504030201 {
		t.Errorf("ByteSwap64 = %#x", got)
	}
}
