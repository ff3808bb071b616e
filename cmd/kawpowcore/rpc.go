package main

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/dynm/kawpow-core/ethash"
	"github.com/dynm/kawpow-core/hashtypes"
	"github.com/dynm/kawpow-core/progpow"
)

// debugRPCService is a thin JSON-RPC wrapper around Hash for poking the
// core interactively; it has no Verify method. It is not a stratum/pool
// protocol implementation.
type debugRPCService struct{}

// HashArgs is the request payload for debugRPCService.Hash.
type HashArgs struct {
	HeaderHex string `json:"header"`
	Nonce     uint64 `json:"nonce"`
	Block     uint64 `json:"block"`
}

// HashReply is the response payload for debugRPCService.Hash.
type HashReply struct {
	FinalHex string `json:"final"`
	MixHex   string `json:"mix"`
}

func (s *debugRPCService) Hash(r *http.Request, args *HashArgs, reply *HashReply) error {
	headerBytes, err := hex.DecodeString(strings.TrimPrefix(args.HeaderHex, "0x"))
	if err != nil {
		return fmt.Errorf("decoding header hash: %w", err)
	}
	var header hashtypes.H256
	copy(header[:], headerBytes)

	epoch := ethash.EpochFromBlock(args.Block)
	ctx, err := sharedCache.Get(epoch, false)
	if err != nil {
		return err
	}
	period := uint32(args.Block / progpow.Period)
	result := progpow.Hash(ctx, period, header, args.Nonce)

	reply.FinalHex = hex.EncodeToString(result.Final.Bytes())
	reply.MixHex = hex.EncodeToString(result.Mix.Bytes())
	return nil
}
