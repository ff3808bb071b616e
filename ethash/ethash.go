// Package ethash builds the per-epoch derivation that underlies both
// plain ethash and ProgPoW: the light cache, the lazily-materialized
// full dataset, and the preloaded L1 cache ProgPoW reads from on every
// cache-access phase of its inner loop.
package ethash

import (
	"github.com/dynm/kawpow-core/bits"
	"github.com/dynm/kawpow-core/hashtypes"
	"github.com/dynm/kawpow-core/keccak"
)

// KawPoW epoch parameters (spec §4.D, §3 invariants).
const (
	LightCacheInitBytes   = 16 * 1024 * 1024
	LightCacheGrowthBytes = 128 * 1024
	DatasetInitBytes      = 1 << 30
	DatasetGrowthBytes    = 8 * 1024 * 1024

	LightCacheItemSize  = 64  // sizeof(H512)
	FullDatasetItemSize = 128 // sizeof(H1024)

	LightCacheRounds      = 3
	FullDatasetItemParents = 256

	L1CacheSizeBytes = 16 * 1024
	L1CacheNumWords  = L1CacheSizeBytes / 4

	EpochLength = 7500
)

// CalcLightCacheNumItems returns L(e): the largest odd prime not greater
// than the epoch's light-cache item upper bound.
func CalcLightCacheNumItems(epoch uint32) uint32 {
	upperBound := uint32(LightCacheInitBytes/LightCacheItemSize) + epoch*uint32(LightCacheGrowthBytes/LightCacheItemSize)
	return findLargestPrime(upperBound)
}

// CalcFullDatasetNumItems returns F(e): the largest odd prime not greater
// than the epoch's full-dataset item upper bound.
func CalcFullDatasetNumItems(epoch uint32) uint32 {
	upperBound := uint32(DatasetInitBytes/FullDatasetItemSize) + epoch*uint32(DatasetGrowthBytes/FullDatasetItemSize)
	return findLargestPrime(upperBound)
}

func isOddPrime(n uint64) bool {
	if n&1 == 0 {
		return false
	}
	for d := uint64(3); d*d <= n; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}

// findLargestPrime returns the largest odd prime <= upperBound, or 0 if
// none exists below 2.
func findLargestPrime(upperBound uint32) uint32 {
	if upperBound < 2 {
		return 0
	}
	n := upperBound
	if n&1 == 0 {
		n--
	}
	for !isOddPrime(uint64(n)) {
		n -= 2
	}
	return n
}

// CalculateSeed computes seed(e): seed(0) is all zeros, and
// seed(e) = keccak256(seed(e-1)).
func CalculateSeed(epoch uint32) hashtypes.H256 {
	var seed hashtypes.H256
	for i := uint32(0); i < epoch; i++ {
		seed = keccak.Keccak256H(seed)
	}
	return seed
}

// EpochFromBlock returns block / EpochLength.
func EpochFromBlock(block uint64) uint32 {
	return uint32(block / EpochLength)
}

const epochLookupLimit = 30000

// CalculateEpochFromSeed performs a bounded linear search for the epoch
// number whose seed equals the given hash, trying up to 30000 epochs.
// The boolean result reports whether a match was found. This is the
// fallback path EpochSeedCache drops to on a cache miss.
func CalculateEpochFromSeed(seed hashtypes.H256) (uint32, bool) {
	cur := hashtypes.H256{}
	for i := uint32(0); i < epochLookupLimit; i++ {
		if cur == seed {
			return i, true
		}
		cur = keccak.Keccak256H(cur)
	}
	return 0, false
}

// EpochFromSeed is the error-returning form of CalculateEpochFromSeed
// for the public epoch_from_seed boundary operation.
func EpochFromSeed(seed hashtypes.H256) (uint32, error) {
	epoch, ok := CalculateEpochFromSeed(seed)
	if !ok {
		return 0, ErrEpochNotFound
	}
	return epoch, nil
}

// EpochSeedCache is the explicit, caller-owned one-entry cache spec
// §4.D requires for epoch_from_seed: a hit on the last-queried seed, or
// on keccak256(last_seed) matching the query, resolves in O(1); any
// other query falls back to CalculateEpochFromSeed's full bounded scan.
// Callers that want the spec's "thread-local" fast path keep one
// EpochSeedCache per goroutine, the same explicit-ownership style
// ContextCache uses in place of a hidden global.
type EpochSeedCache struct {
	hasLast   bool
	lastEpoch uint32
	lastSeed  hashtypes.H256
}

// Lookup resolves seed to an epoch number, consulting the one-entry
// cache before falling back to a full linear scan. A successful lookup
// (cached or scanned) updates the cache to (epoch, seed).
func (c *EpochSeedCache) Lookup(seed hashtypes.H256) (uint32, bool) {
	if c.hasLast {
		if c.lastSeed == seed {
			return c.lastEpoch, true
		}
		if keccak.Keccak256H(c.lastSeed) == seed {
			c.lastEpoch++
			c.lastSeed = seed
			return c.lastEpoch, true
		}
	}
	epoch, ok := CalculateEpochFromSeed(seed)
	if !ok {
		return 0, false
	}
	c.hasLast = true
	c.lastEpoch = epoch
	c.lastSeed = seed
	return epoch, true
}

// EpochFromSeed is EpochSeedCache.Lookup's error-returning form, mirroring
// the package-level EpochFromSeed.
func (c *EpochSeedCache) EpochFromSeed(seed hashtypes.H256) (uint32, error) {
	epoch, ok := c.Lookup(seed)
	if !ok {
		return 0, ErrEpochNotFound
	}
	return epoch, nil
}

// BuildLightCache fills cache (already sized to numItems) following the
// keccak512 parent chain and three RandMemoHash mixing rounds.
func BuildLightCache(cache []hashtypes.H512, seed hashtypes.H256) {
	numItems := uint32(len(cache))
	cache[0] = keccak.Keccak512(seed[:])
	for i := uint32(1); i < numItems; i++ {
		cache[i] = keccak.Keccak512(cache[i-1][:])
	}

	for round := 0; round < LightCacheRounds; round++ {
		for i := uint32(0); i < numItems; i++ {
			v := cache[i].Word32(0) % numItems
			w := (numItems + i - 1) % numItems
			x := hashtypes.XOR512(cache[v], cache[w])
			cache[i] = keccak.Keccak512(x[:])
		}
	}
}

// itemState tracks the mixing state of a single 512-bit dataset sub-item
// as it is derived from the light cache, mirroring libcrypto/ethash.cpp's
// item_state.
type itemState struct {
	cache        []hashtypes.H512
	numCacheItems uint32
	seed         uint32
	mix          hashtypes.H512
}

func newItemState(cache []hashtypes.H512, index uint32) itemState {
	numCacheItems := uint32(len(cache))
	st := itemState{cache: cache, numCacheItems: numCacheItems, seed: index}
	st.mix = cache[index%numCacheItems]
	st.mix.SetWord32(0, st.mix.Word32(0)^index)
	st.mix = keccak.Keccak512(st.mix[:])
	return st
}

func (st *itemState) update(round uint32) {
	const numWords = 16
	t := bits.Fnv1(st.seed^round, st.mix.Word32(int(round%numWords)))
	parentIndex := t % st.numCacheItems
	st.mix = hashtypes.Fnv1_512(st.mix, st.cache[parentIndex], bits.Fnv1)
}

func (st *itemState) final() hashtypes.H512 {
	return keccak.Keccak512(st.mix[:])
}

// CalculateDatasetItem1024 computes the H1024 dataset item at index,
// made of the two 512-bit sub-items at 2*index and 2*index+1.
func CalculateDatasetItem1024(cache []hashtypes.H512, index uint32) hashtypes.H1024 {
	item0 := newItemState(cache, index*2)
	item1 := newItemState(cache, index*2+1)

	for r := uint32(0); r < FullDatasetItemParents; r++ {
		item0.update(r)
		item1.update(r)
	}

	return hashtypes.FromHalves(item0.final(), item1.final())
}

// CalculateDatasetItem2048 computes the H2048 dataset item at index, made
// of the four 512-bit sub-items at 4*index .. 4*index+3.
func CalculateDatasetItem2048(cache []hashtypes.H512, index uint32) hashtypes.H2048 {
	item0 := newItemState(cache, index*4)
	item1 := newItemState(cache, index*4+1)
	item2 := newItemState(cache, index*4+2)
	item3 := newItemState(cache, index*4+3)

	for r := uint32(0); r < FullDatasetItemParents; r++ {
		item0.update(r)
		item1.update(r)
		item2.update(r)
		item3.update(r)
	}

	return hashtypes.FromQuarters(item0.final(), item1.final(), item2.final(), item3.final())
}
