package crypto

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/udisondev/rsalab/internal/bigmath"
)

// ErrBlockOutOfRange is returned when a plaintext block is not in [0, n).
var ErrBlockOutOfRange = errors.New("block out of range")

// EncryptBlocks computes m^e mod n for every block. Each block must lie in
// [0, n); a larger code point would silently wrap and be unrecoverable.
func EncryptBlocks(blocks []*big.Int, pub PublicKey) ([]*big.Int, error) {
	out := make([]*big.Int, len(blocks))
	for i, m := range blocks {
		if m.Sign() < 0 || m.Cmp(pub.N) >= 0 {
			return nil, fmt.Errorf("encrypting block %d: %w: %s not in [0, %s)", i, ErrBlockOutOfRange, m, pub.N)
		}
		c, err := bigmath.ModPow(m, pub.E, pub.N)
		if err != nil {
			return nil, fmt.Errorf("encrypting block %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

// DecryptBlocks computes c^d mod n for every block (raw RSA, no padding).
// Ciphertext produced under another key decrypts to garbage, not an error.
func DecryptBlocks(blocks []*big.Int, key *KeyMaterial) ([]*big.Int, error) {
	out := make([]*big.Int, len(blocks))
	for i, c := range blocks {
		m, err := bigmath.ModPow(c, key.d, key.n)
		if err != nil {
			return nil, fmt.Errorf("decrypting block %d: %w", i, err)
		}
		out[i] = m
	}
	return out, nil
}
