package ethash

import (
	"encoding/binary"
	"errors"
	"sync"

	"go.uber.org/atomic"

	"github.com/dynm/kawpow-core/hashtypes"
)

// ErrOutOfMemory is returned by NewEpochContext when the epoch's light
// cache item count comes out as zero. A failed allocation of the light
// cache or dataset slices is not turned into this error.
var ErrOutOfMemory = errors.New("ethash: out of memory building epoch context")

// ErrEpochNotFound is returned by EpochFromSeed when no epoch within
// the bounded search window produces the queried seed.
var ErrEpochNotFound = errors.New("ethash: epoch lookup past search bound")

// L1CacheNumItems2048 is the number of H2048 items whose sub-items seed
// the 16 KiB L1 cache (64 items * 256 bytes == L1CacheSizeBytes).
const L1CacheNumItems2048 = L1CacheSizeBytes / 256

// EpochContext is the immutable per-epoch derivation ProgPoW and ethash
// read DAG items and light-cache bytes from. Callers obtain one from a
// ContextCache rather than constructing it directly, mirroring the
// registry's "no mutation after construction" contract.
type EpochContext struct {
	Epoch               uint32
	LightCache          []hashtypes.H512
	L1Cache             []uint32 // L1CacheNumWords little-endian 32-bit words
	FullDatasetNumItems uint32

	full        bool
	dataset     []hashtypes.H1024 // nil unless full; lazily filled
	firstWords  []atomic.Uint64   // guards the benign race on dataset[i] word64[0]
}

// NewEpochContext builds the light cache, L1 cache and (if full) the
// zeroed lazy dataset backing store for the given epoch.
func NewEpochContext(epoch uint32, full bool) (*EpochContext, error) {
	numLight := CalcLightCacheNumItems(epoch)
	if numLight == 0 {
		return nil, ErrOutOfMemory
	}
	cache := make([]hashtypes.H512, numLight)
	BuildLightCache(cache, CalculateSeed(epoch))

	ctx := &EpochContext{
		Epoch:               epoch,
		LightCache:          cache,
		FullDatasetNumItems: CalcFullDatasetNumItems(epoch),
		full:                full,
	}
	ctx.buildL1Cache()

	if full {
		n := ctx.FullDatasetNumItems
		ctx.dataset = make([]hashtypes.H1024, n)
		ctx.firstWords = make([]atomic.Uint64, n)
	}
	return ctx, nil
}

func (ctx *EpochContext) buildL1Cache() {
	words := make([]uint32, L1CacheNumWords)
	for i := uint32(0); i < L1CacheNumItems2048; i++ {
		item := CalculateDatasetItem2048(ctx.LightCache, i)
		base := i * (256 / 4)
		for w := uint32(0); w < 256/4; w++ {
			words[base+w] = item.Word32(int(w))
		}
	}
	ctx.L1Cache = words
}

// L1CacheWord returns the little-endian 32-bit word at wordIndex mod
// L1CacheNumWords, the addressing ProgPoW's cache-load operation uses.
func (ctx *EpochContext) L1CacheWord(wordIndex uint32) uint32 {
	return ctx.L1Cache[wordIndex%L1CacheNumWords]
}

// DatasetItem1024 returns the H1024 dataset item at index, computing and
// caching it on first access when the context was built with full=true;
// recomputing every call when full=false.
func (ctx *EpochContext) DatasetItem1024(index uint32) hashtypes.H1024 {
	if !ctx.full {
		return CalculateDatasetItem1024(ctx.LightCache, index)
	}
	if ctx.firstWords[index].Load() != 0 {
		return ctx.dataset[index]
	}
	item := CalculateDatasetItem1024(ctx.LightCache, index)
	ctx.dataset[index] = item
	first := binary.LittleEndian.Uint64(item[:8])
	if first == 0 {
		first = 1 // preserve the "zero means unfilled" sentinel on a genuine zero result
	}
	ctx.firstWords[index].Store(first)
	return item
}

// DatasetItem2048 returns the H2048 item at index, assembled from the
// two H1024 sub-items at 2*index and 2*index+1, going through the same
// lazy-fill path as DatasetItem1024.
func (ctx *EpochContext) DatasetItem2048(index uint32) hashtypes.H2048 {
	a := ctx.DatasetItem1024(index * 2)
	b := ctx.DatasetItem1024(index*2 + 1)
	return hashtypes.FromHalves1024(a, b)
}

// ContextCache is the explicit, caller-owned replacement for the
// reference implementation's hidden process-wide mutex plus thread-local
// slot: one mutex-guarded "shared" slot holding the most recently built
// context, handed out by reference to every caller that asks for the
// same (epoch, full) pair. Callers that want thread-local-style
// lock-free reuse keep the *EpochContext they were handed and only
// consult the cache again when they need a different epoch.
type ContextCache struct {
	mu     sync.Mutex
	shared *EpochContext
}

// NewContextCache returns an empty cache.
func NewContextCache() *ContextCache {
	return &ContextCache{}
}

// Get returns the cached context for (epoch, full) if the shared slot
// already holds it, else builds, stores and returns a fresh one.
// Building a large epoch's light cache can take seconds; the mutex is
// held for the duration, matching the reference's documented blocking
// behavior.
func (c *ContextCache) Get(epoch uint32, full bool) (*EpochContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shared != nil && c.shared.Epoch == epoch && c.shared.full == full {
		return c.shared, nil
	}
	ctx, err := NewEpochContext(epoch, full)
	if err != nil {
		return nil, err
	}
	c.shared = ctx
	return ctx, nil
}

// Eval resolves the epoch context for block and computes the plain
// ethash hash for header+nonce against it, following EthashAux's
// pattern of taking a block number directly rather than a pre-resolved
// context.
func (c *ContextCache) Eval(block uint64, header hashtypes.H256, nonce uint64) (Result, error) {
	ctx, err := c.Get(EpochFromBlock(block), true)
	if err != nil {
		return Result{}, err
	}
	return ctx.Hash(header, nonce), nil
}
