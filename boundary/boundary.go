// Package boundary converts a network difficulty into the 256-bit
// big-endian threshold ProgPoW verification compares a final hash
// against.
package boundary

import (
	"math/big"

	"github.com/dynm/kawpow-core/hashtypes"
)

var maxTarget = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// FromDifficulty computes floor((2^256-1) / diff) and serializes it as a
// big-endian 256-bit value.
func FromDifficulty(diff *big.Int) hashtypes.H256 {
	boundary := new(big.Int).Div(maxTarget, diff)

	var out hashtypes.H256
	b := boundary.Bytes()
	copy(out[32-len(b):], b)
	return out
}
