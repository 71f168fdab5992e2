package knapsack

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	cipherlab "github.com/BackendStack21/cipherlab-go"
	"github.com/BackendStack21/cipherlab-go/modarith"
	"github.com/BackendStack21/cipherlab-go/utils"
)

// ErrMessageTooLarge is returned for messages longer than utils.MaxMessageSize.
var ErrMessageTooLarge = errors.New("message too large")

// parallelBlockThreshold is the message length from which blocks are
// processed concurrently.
const parallelBlockThreshold = 256

// EncryptMessage encrypts msg one byte per block. The key must have at least
// 8 elements.
func EncryptMessage(pub *cipherlab.PublicKey, msg []byte) ([]uint64, error) {
	if err := ValidatePublicKey(pub); err != nil {
		return nil, err
	}
	if len(pub.B) < 8 {
		return nil, fmt.Errorf("%w: block size %d cannot hold a byte", ErrPlaintextTooLarge, len(pub.B))
	}
	if err := utils.CheckLength(len(msg), utils.MaxMessageSize); err != nil {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(msg))
	}

	out := make([]uint64, len(msg))
	err := forEachBlock(len(msg), func(i int) error {
		c, err := Encrypt(pub, uint64(msg[i]))
		if err != nil {
			return err
		}
		out[i] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DecryptMessage reverses EncryptMessage.
func DecryptMessage(priv *cipherlab.PrivateKey, cts []uint64) ([]byte, error) {
	if err := ValidatePrivateKey(priv); err != nil {
		return nil, err
	}
	if err := utils.CheckLength(len(cts), utils.MaxMessageSize); err != nil {
		return nil, fmt.Errorf("%w: %d blocks", ErrMessageTooLarge, len(cts))
	}

	rInv := modarith.ModInverse(int64(priv.R), int64(priv.Q))
	out := make([]byte, len(cts))
	err := forEachBlock(len(cts), func(i int) error {
		p, err := decrypt(priv, rInv, cts[i])
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		if p > 0xff {
			return fmt.Errorf("block %d: %w: decrypts to %d, not a byte", i, ErrInvalidCiphertext, p)
		}
		out[i] = byte(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// forEachBlock runs fn for every index in [0, n). Large inputs are split across
// GOMAXPROCS workers. The error for the lowest failing index is returned.
func forEachBlock(n int, fn func(i int) error) error {
	numWorkers := runtime.GOMAXPROCS(0)
	if n < parallelBlockThreshold || numWorkers <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, numWorkers)
	var wg sync.WaitGroup
	perWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * perWorker
		end := start + perWorker
		if end > n {
			end = n
		}
		if start >= n {
			break
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				if err := fn(i); err != nil {
					errs[w] = err
					return
				}
			}
		}(w, start, end)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
