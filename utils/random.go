package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"runtime"
)

// DomainSeededSource separates seeded random streams from other SHAKE256 uses.
const DomainSeededSource = "cipherlab-seeded-source-v1"

var RandReader io.Reader = rand.Reader

// ErrEmptyRange indicates an inclusive range with lo > hi.
var ErrEmptyRange = errors.New("empty range")

// Source draws uniform integers from inclusive ranges.
// Implementations are not required to be safe for concurrent use.
type Source interface {
	Uint64Range(lo, hi uint64) (uint64, error)
}

// readerSource turns a byte stream into uniform integers.
type readerSource struct {
	r   io.Reader
	buf [8]byte
}

// NewReaderSource returns a Source that consumes bytes from r.
func NewReaderSource(r io.Reader) Source {
	return &readerSource{r: r}
}

// CryptoSource returns a Source backed by RandReader (crypto/rand by default).
func CryptoSource() Source {
	return NewReaderSource(RandReader)
}

// NewSeededSource returns a deterministic Source that reads a domain-separated
// SHAKE256 stream of seed. The same seed always yields the same draws.
func NewSeededSource(seed []byte) Source {
	return NewReaderSource(NewShake256WithDomain(DomainSeededSource, seed))
}

// Uint64Range returns a uniform integer in [lo, hi].
// It uses rejection sampling on a bit mask to avoid modulo bias.
func (s *readerSource) Uint64Range(lo, hi uint64) (uint64, error) {
	if lo > hi {
		return 0, fmt.Errorf("%w: [%d, %d]", ErrEmptyRange, lo, hi)
	}
	span := hi - lo
	if span == 0 {
		return lo, nil
	}

	bitsNeeded := bits.Len64(span)
	bytesNeeded := (bitsNeeded + 7) / 8
	mask := uint64(1)<<bitsNeeded - 1
	if bitsNeeded == 64 {
		mask = ^uint64(0)
	}

	for {
		if _, err := io.ReadFull(s.r, s.buf[:bytesNeeded]); err != nil {
			return 0, err
		}
		var value uint64
		for i := 0; i < bytesNeeded; i++ {
			value = (value << 8) | uint64(s.buf[i])
		}
		value &= mask

		if value <= span {
			return lo + value, nil
		}
	}
}

// SecureRandomBytes generates n cryptographically secure random bytes.
// It uses crypto/rand, which relies on the operating system's CSPRNG.
func SecureRandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(RandReader, buf)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// ValidateSeedEntropy checks if a seed has sufficient entropy.
// It performs basic statistical tests to reject obviously weak seeds (e.g., all zeros, sequential).
// This is a sanity check, not a rigorous randomness test.
func ValidateSeedEntropy(seed []byte) error {
	if len(seed) < 32 {
		return errors.New("seed must be at least 32 bytes")
	}

	first := seed[0]
	allSame := true
	for i := 1; i < len(seed); i++ {
		if seed[i] != first {
			allSame = false
			break
		}
	}
	if allSame {
		return errors.New("seed has low entropy: all bytes are identical")
	}

	isAscending := true
	isDescending := true
	for i := 1; i < len(seed); i++ {
		if seed[i] != seed[i-1]+1 {
			isAscending = false
		}
		if seed[i] != seed[i-1]-1 {
			isDescending = false
		}
		if !isAscending && !isDescending {
			break
		}
	}
	if isAscending || isDescending {
		return errors.New("seed has low entropy: sequential pattern detected")
	}

	unique := make(map[byte]struct{})
	for _, b := range seed {
		unique[b] = struct{}{}
		if len(unique) >= 8 {
			break
		}
	}
	if len(unique) < 8 {
		return errors.New("seed has low entropy: insufficient byte diversity")
	}

	return nil
}

// ConstantTimeEqual compares two byte slices in constant time.
// It returns true if the slices are equal, false otherwise.
// This function leaks only the length of the slices.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Zeroize overwrites a byte slice with zeros.
// Uses runtime.KeepAlive to prevent compiler optimization from eliminating the stores.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ZeroizeUint64 overwrites a uint64 slice with zeros.
func ZeroizeUint64(s []uint64) {
	for i := range s {
		s[i] = 0
	}
	runtime.KeepAlive(s)
}
