package ethash

import (
	"testing"

	"github.com/dynm/kawpow-core/hashtypes"
)

func isPrimeRef(n uint32) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for d := uint32(3); d*d <= n; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}

func TestLightCacheNumItemsIsOddPrime(t *testing.T) {
	for epoch := uint32(0); epoch <= 64; epoch++ {
		n := CalcLightCacheNumItems(epoch)
		if n&1 == 0 {
			t.Fatalf("epoch %d: L(e)=%d is even", epoch, n)
		}
		if !isPrimeRef(n) {
			t.Fatalf("epoch %d: L(e)=%d is not prime", epoch, n)
		}
		bound := uint32(LightCacheInitBytes/LightCacheItemSize) + epoch*uint32(LightCacheGrowthBytes/LightCacheItemSize)
		if n > bound {
			t.Fatalf("epoch %d: L(e)=%d exceeds upper bound %d", epoch, n, bound)
		}
	}
}

func TestFullDatasetNumItemsIsOddPrime(t *testing.T) {
	for epoch := uint32(0); epoch <= 16; epoch++ {
		n := CalcFullDatasetNumItems(epoch)
		if n&1 == 0 {
			t.Fatalf("epoch %d: F(e)=%d is even", epoch, n)
		}
		if !isPrimeRef(n) {
			t.Fatalf("epoch %d: F(e)=%d is not prime", epoch, n)
		}
	}
}

func TestSeedChain(t *testing.T) {
	seed0 := CalculateSeed(0)
	if seed0 != (hashtypes.H256{}) {
		t.Fatal("seed(0) must be all zeros")
	}
	seed1 := CalculateSeed(1)
	seed2 := CalculateSeed(2)
	if seed1 == seed2 {
		t.Fatal("seed(1) and seed(2) must differ")
	}
}

func TestEpochFromSeedRoundTrip(t *testing.T) {
	for _, e := range []uint32{0, 1, 5, 37} {
		seed := CalculateSeed(e)
		got, ok := CalculateEpochFromSeed(seed)
		if !ok {
			t.Fatalf("epoch %d: round trip not found", e)
		}
		if got != e {
			t.Fatalf("epoch %d: round trip returned %d", e, got)
		}
	}
}

func TestEpochFromSeedNotFound(t *testing.T) {
	var bogus hashtypes.H256
	for i := range bogus {
		bogus[i] = 0xff
	}
	if _, err := EpochFromSeed(bogus); err != ErrEpochNotFound {
		t.Fatalf("got %v, want ErrEpochNotFound", err)
	}
}

func TestEpochSeedCacheHitsOnRepeatedSeed(t *testing.T) {
	var c EpochSeedCache
	seed := CalculateSeed(5)

	got, ok := c.Lookup(seed)
	if !ok || got != 5 {
		t.Fatalf("first lookup: got (%d, %v), want (5, true)", got, ok)
	}
	got, ok = c.Lookup(seed)
	if !ok || got != 5 {
		t.Fatalf("repeated lookup: got (%d, %v), want (5, true)", got, ok)
	}
}

func TestEpochSeedCacheAdvancesOnNextSeed(t *testing.T) {
	var c EpochSeedCache
	seed5 := CalculateSeed(5)
	seed6 := CalculateSeed(6)

	if got, ok := c.Lookup(seed5); !ok || got != 5 {
		t.Fatalf("seed(5) lookup: got (%d, %v), want (5, true)", got, ok)
	}
	// seed(6) = keccak256(seed(5)): must resolve via the one-entry cache
	// hit, not a fresh linear scan, and land on epoch 6.
	if got, ok := c.Lookup(seed6); !ok || got != 6 {
		t.Fatalf("seed(6) lookup: got (%d, %v), want (6, true)", got, ok)
	}
}

func TestEpochSeedCacheFallsBackOnMiss(t *testing.T) {
	var c EpochSeedCache
	if _, ok := c.Lookup(CalculateSeed(5)); !ok {
		t.Fatal("seed(5) lookup failed")
	}
	// Neither equal to nor the successor of the cached entry: must fall
	// back to a full scan instead of reporting a false miss.
	got, ok := c.Lookup(CalculateSeed(20))
	if !ok || got != 20 {
		t.Fatalf("seed(20) lookup: got (%d, %v), want (20, true)", got, ok)
	}
}

func TestEpochSeedCacheEpochFromSeedNotFound(t *testing.T) {
	var c EpochSeedCache
	var bogus hashtypes.H256
	for i := range bogus {
		bogus[i] = 0xff
	}
	if _, err := c.EpochFromSeed(bogus); err != ErrEpochNotFound {
		t.Fatalf("got %v, want ErrEpochNotFound", err)
	}
}

func TestEpochFromBlock(t *testing.T) {
	cases := map[uint64]uint32{0: 0, 1: 0, 7499: 0, 7500: 1, 15000: 2}
	for block, want := range cases {
		if got := EpochFromBlock(block); got != want {
			t.Fatalf("block %d: got epoch %d, want %d", block, got, want)
		}
	}
}

func TestBuildLightCacheDeterministic(t *testing.T) {
	seed := CalculateSeed(3)
	n := CalcLightCacheNumItems(3)

	a := make([]hashtypes.H512, n)
	b := make([]hashtypes.H512, n)
	BuildLightCache(a, seed)
	BuildLightCache(b, seed)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("item %d: light cache build is not deterministic", i)
		}
	}
}

func TestDatasetItem1024Deterministic(t *testing.T) {
	seed := CalculateSeed(0)
	n := CalcLightCacheNumItems(0)
	cache := make([]hashtypes.H512, n)
	BuildLightCache(cache, seed)

	item0 := CalculateDatasetItem1024(cache, 0)
	item0b := CalculateDatasetItem1024(cache, 0)
	if item0 != item0b {
		t.Fatal("dataset item computation is not deterministic")
	}

	item1 := CalculateDatasetItem1024(cache, 1)
	if item0 == item1 {
		t.Fatal("adjacent dataset items collided")
	}
}

func TestDatasetItem2048MatchesQuarters(t *testing.T) {
	seed := CalculateSeed(0)
	n := CalcLightCacheNumItems(0)
	cache := make([]hashtypes.H512, n)
	BuildLightCache(cache, seed)

	item2048 := CalculateDatasetItem2048(cache, 0)
	item1024Lo := CalculateDatasetItem1024(cache, 0)
	item1024Hi := CalculateDatasetItem1024(cache, 1)

	want := hashtypes.FromHalves1024(item1024Lo, item1024Hi)
	if item2048 != want {
		t.Fatal("2048-bit item does not match concatenation of its two 1024-bit halves")
	}
}

func TestContextCacheReusesSharedSlot(t *testing.T) {
	c := NewContextCache()
	ctx1, err := c.Get(0, false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	ctx2, err := c.Get(0, false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ctx1 != ctx2 {
		t.Fatal("ContextCache rebuilt a context for an already-cached (epoch, full) pair")
	}
}

func TestContextCacheRebuildsOnEpochChange(t *testing.T) {
	c := NewContextCache()
	ctx1, _ := c.Get(0, false)
	ctx2, _ := c.Get(1, false)
	if ctx1 == ctx2 {
		t.Fatal("ContextCache returned the same context for two different epochs")
	}
	if ctx2.Epoch != 1 {
		t.Fatalf("got epoch %d, want 1", ctx2.Epoch)
	}
}

func TestLazyDatasetMatchesEager(t *testing.T) {
	eager, err := NewEpochContext(0, false)
	if err != nil {
		t.Fatalf("NewEpochContext: %v", err)
	}
	lazy, err := NewEpochContext(0, true)
	if err != nil {
		t.Fatalf("NewEpochContext: %v", err)
	}
	for _, idx := range []uint32{0, 1, 2, 100} {
		a := eager.DatasetItem1024(idx)
		b := lazy.DatasetItem1024(idx)
		if a != b {
			t.Fatalf("item %d: lazy and eager dataset disagree", idx)
		}
		// second access must hit the filled slot and return the same bytes
		b2 := lazy.DatasetItem1024(idx)
		if b != b2 {
			t.Fatalf("item %d: lazy dataset second access diverged", idx)
		}
	}
}

func TestL1CacheSize(t *testing.T) {
	ctx, err := NewEpochContext(0, false)
	if err != nil {
		t.Fatalf("NewEpochContext: %v", err)
	}
	if len(ctx.L1Cache) != L1CacheNumWords {
		t.Fatalf("L1 cache has %d words, want %d", len(ctx.L1Cache), L1CacheNumWords)
	}
}
