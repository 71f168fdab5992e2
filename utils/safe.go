// Package utils provides utility functions for cipherlab.
// This file contains safe arithmetic and length helpers to prevent
// integer overflow and denial-of-service via large allocations.

package utils

import (
	"encoding/binary"
	"errors"
	"math/bits"
)

// Maximum allowed lengths for various data types to prevent DoS via large allocations.
const (
	// MaxKeyLength is the largest knapsack block size. Every sum drawn during key
	// generation stays below 3^32, so all key values and ciphertexts fit in a uint64.
	MaxKeyLength = 32

	// MaxMessageSize is the maximum allowed message size in bytes.
	MaxMessageSize = 1 << 20 // 1MB
)

var (
	// ErrOverflow indicates an integer overflow occurred.
	ErrOverflow = errors.New("integer overflow")

	// ErrExceedsLimit indicates a value exceeds the allowed limit.
	ErrExceedsLimit = errors.New("value exceeds allowed limit")

	// ErrInvalidLength indicates an invalid length value.
	ErrInvalidLength = errors.New("invalid length")
)

// SafeAdd adds two unsigned integers and returns an error if the sum wraps.
func SafeAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// SafeSum adds up values and returns an error if the total overflows.
func SafeSum(values []uint64) (uint64, error) {
	var total uint64
	for _, v := range values {
		var err error
		total, err = SafeAdd(total, v)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// CheckLength validates that length is within [0, maxAllowed].
func CheckLength(length, maxAllowed int) error {
	if length < 0 {
		return ErrInvalidLength
	}
	if length > maxAllowed {
		return ErrExceedsLimit
	}
	return nil
}

// CheckPositive validates that value is > 0.
func CheckPositive(value int, name string) error {
	if value <= 0 {
		return errors.New(name + " must be positive")
	}
	return nil
}

// SafeReadLength reads a uint32 length from data at offset, validates it, and returns the value.
// Returns error if not enough bytes available or length exceeds maxAllowed.
func SafeReadLength(data []byte, offset, maxAllowed int) (length int, newOffset int, err error) {
	if offset < 0 || offset+4 > len(data) {
		return 0, offset, errors.New("truncated length field")
	}
	raw := binary.LittleEndian.Uint32(data[offset:])
	if uint64(raw) > uint64(maxAllowed) {
		return 0, offset, ErrExceedsLimit
	}
	return int(raw), offset + 4, nil
}

// SafeReadUint64 reads a little-endian uint64 from data at offset.
func SafeReadUint64(data []byte, offset int) (value uint64, newOffset int, err error) {
	if err := ValidateSliceAccess(data, offset, 8); err != nil {
		return 0, offset, err
	}
	return binary.LittleEndian.Uint64(data[offset:]), offset + 8, nil
}

// ValidateSliceAccess checks that accessing data[offset:offset+size] is safe.
func ValidateSliceAccess(data []byte, offset, size int) error {
	if offset < 0 || size < 0 {
		return ErrInvalidLength
	}
	if offset+size < offset {
		return ErrOverflow
	}
	if offset+size > len(data) {
		return errors.New("slice access out of bounds")
	}
	return nil
}
