package knapsack

import (
	"errors"
	"fmt"
	"math/bits"

	cipherlab "github.com/BackendStack21/cipherlab-go"
	"github.com/BackendStack21/cipherlab-go/modarith"
	"github.com/BackendStack21/cipherlab-go/utils"
)

var (
	// ErrPlaintextTooLarge is returned when a plaintext has more bits than the block size.
	ErrPlaintextTooLarge = errors.New("plaintext exceeds block size")

	// ErrInvalidCiphertext is returned when a ciphertext is not a subset sum of the key.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// Encrypt encrypts a single block. The bits of p are right-aligned against
// pub.B, so pub.B[L-1] is selected by the least significant bit.
func Encrypt(pub *cipherlab.PublicKey, p uint64) (uint64, error) {
	if err := ValidatePublicKey(pub); err != nil {
		return 0, err
	}
	l := len(pub.B)
	if bits.Len64(p) > l {
		return 0, fmt.Errorf("%w: %d bits, block size %d", ErrPlaintextTooLarge, bits.Len64(p), l)
	}

	var c uint64
	for i, b := range pub.B {
		if p>>(l-1-i)&1 == 0 {
			continue
		}
		var err error
		c, err = utils.SafeAdd(c, b)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
	}
	return c, nil
}

// Decrypt recovers the plaintext block from c. The ciphertext is mapped back
// into the superincreasing domain with R^-1 mod Q and solved greedily.
func Decrypt(priv *cipherlab.PrivateKey, c uint64) (uint64, error) {
	if err := ValidatePrivateKey(priv); err != nil {
		return 0, err
	}
	return decrypt(priv, modarith.ModInverse(int64(priv.R), int64(priv.Q)), c)
}

// decrypt assumes priv is valid and rInv = R^-1 mod Q.
func decrypt(priv *cipherlab.PrivateKey, rInv int64, c uint64) (uint64, error) {
	target := modarith.MulMod(c, uint64(rInv), priv.Q)
	selected, rest := GreedySolve(priv.W, target)
	if rest != 0 {
		return 0, fmt.Errorf("%w: %d left over after greedy solve", ErrInvalidCiphertext, rest)
	}

	var p uint64
	for _, bit := range selected {
		p = p<<1 | uint64(bit)
	}
	return p, nil
}

// GreedySolve solves the subset-sum problem for a superincreasing w. It scans
// from the largest element down, taking every element that still fits.
// The returned bits are in the index order of w; rest is what remains of the
// target and is zero exactly when target is a subset sum of w.
func GreedySolve(w []uint64, target uint64) (selected []uint8, rest uint64) {
	selected = make([]uint8, len(w))
	for i := len(w) - 1; i >= 0; i-- {
		if w[i] <= target {
			selected[i] = 1
			target -= w[i]
		}
	}
	return selected, target
}
