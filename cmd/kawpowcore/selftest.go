package main

import (
	"encoding/hex"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dynm/kawpow-core/ethash"
	"github.com/dynm/kawpow-core/hashtypes"
	"github.com/dynm/kawpow-core/progpow"
)

// selfTestCase is a known-good (header, nonce, epoch, period) fixture
// and the (final, mix) the core must reproduce, in the spirit of
// SimulateClient's canned share table.
type selfTestCase struct {
	name       string
	headerHex  string
	nonce      uint64
	epoch      uint32
	period     uint32
	wantFinal  string // hex H256, empty if this fixture has no pinned vector
	wantMix    string // hex H256, empty if this fixture has no pinned vector
}

// selfTestCases covers epoch 0 so it runs in well under a second; a
// fixture table deep enough to exercise non-trivial light-cache sizes
// would need a much larger epoch and is left to integration testing
// against a live network. epoch0-nonce0 carries a pinned (final, mix)
// vector cross-checked against an independent reimplementation of the
// pipeline (see DESIGN.md); the rest only assert determinism.
var selfTestCases = []selfTestCase{
	{
		name:      "epoch0-nonce0",
		headerHex: "0000000000000000000000000000000000000000000000000000000000000000",
		nonce:     0, epoch: 0, period: 0,
		wantFinal: "3b61229db8bc9e3f0633a6fc990e9d686ce68b2cf286fa793aaabcce2959dd56",
		wantMix:   "59403625edd0faa7727e3520934302ed0d103a7aeca4aa3f7885106fe2ecc69d",
	},
	{name: "epoch0-nonce1", headerHex: "0101010101010101010101010101010101010101010101010101010101010101", nonce: 1, epoch: 0, period: 0},
}

// runSelfTest computes each fixture's hash, checks it reproduces on a
// second run with a freshly built context, and for fixtures carrying a
// pinned vector, checks it against that literal value.
func runSelfTest(logger *zap.Logger) error {
	cache := ethash.NewContextCache()
	var errs error

	for _, tc := range selfTestCases {
		headerBytes, err := hex.DecodeString(tc.headerHex)
		if err != nil || len(headerBytes) < 32 {
			errs = multierr.Append(errs, fmt.Errorf("%s: bad fixture header: %w", tc.name, err))
			continue
		}
		var header hashtypes.H256
		copy(header[:], headerBytes)

		ctx, err := cache.Get(tc.epoch, false)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: building epoch context: %w", tc.name, err))
			continue
		}

		fresh, err := ethash.NewEpochContext(tc.epoch, false)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: building second epoch context: %w", tc.name, err))
			continue
		}

		a := progpow.Hash(ctx, tc.period, header, tc.nonce)
		b := progpow.Hash(fresh, tc.period, header, tc.nonce)
		if a != b {
			logger.Error("non-deterministic hash", zap.String("case", tc.name), zap.String("dump", spew.Sdump(a, b)))
			errs = multierr.Append(errs, fmt.Errorf("%s: hash is not deterministic", tc.name))
			continue
		}

		if tc.wantFinal != "" {
			if got := hex.EncodeToString(a.Final.Bytes()); got != tc.wantFinal {
				logger.Error("final hash mismatch", zap.String("case", tc.name), zap.String("got", got), zap.String("want", tc.wantFinal))
				errs = multierr.Append(errs, fmt.Errorf("%s: final hash mismatch", tc.name))
				continue
			}
		}
		if tc.wantMix != "" {
			if got := hex.EncodeToString(a.Mix.Bytes()); got != tc.wantMix {
				logger.Error("mix hash mismatch", zap.String("case", tc.name), zap.String("got", got), zap.String("want", tc.wantMix))
				errs = multierr.Append(errs, fmt.Errorf("%s: mix hash mismatch", tc.name))
				continue
			}
		}

		logger.Info("selftest case passed",
			zap.String("case", tc.name),
			zap.String("final", hex.EncodeToString(a.Final.Bytes())),
			zap.String("mix", hex.EncodeToString(a.Mix.Bytes())),
		)
	}

	return errs
}
