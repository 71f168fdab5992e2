package knapsack

import (
	"encoding/binary"
	"errors"
	"fmt"

	cipherlab "github.com/BackendStack21/cipherlab-go"
	"github.com/BackendStack21/cipherlab-go/utils"
)

// DomainFingerprint separates public key fingerprints from other SHA3 uses.
const DomainFingerprint = "cipherlab-knapsack-fingerprint-v1"

// SerializePublicKey serializes a public key as a little-endian uint32 element
// count followed by the elements as little-endian uint64 values.
func SerializePublicKey(pk *cipherlab.PublicKey) []byte {
	result := make([]byte, 0, 4+8*len(pk.B))
	result = binary.LittleEndian.AppendUint32(result, uint32(len(pk.B)))
	for _, b := range pk.B {
		result = binary.LittleEndian.AppendUint64(result, b)
	}
	return result
}

// DeserializePublicKey parses the output of SerializePublicKey.
func DeserializePublicKey(data []byte) (*cipherlab.PublicKey, error) {
	n, offset, err := utils.SafeReadLength(data, 0, utils.MaxKeyLength)
	if err != nil {
		return nil, fmt.Errorf("invalid knapsack public key: %w", err)
	}
	if err := utils.ValidateSliceAccess(data, offset, 8*n); err != nil {
		return nil, errors.New("invalid knapsack public key: data truncated")
	}

	pk := &cipherlab.PublicKey{B: make([]uint64, n)}
	for i := range pk.B {
		pk.B[i], offset, _ = utils.SafeReadUint64(data, offset)
	}
	if offset != len(data) {
		return nil, errors.New("invalid knapsack public key: trailing data")
	}
	if err := ValidatePublicKey(pk); err != nil {
		return nil, err
	}
	return pk, nil
}

// SerializePrivateKey serializes a private key as Q and R (little-endian
// uint64) followed by W in the public key layout.
func SerializePrivateKey(sk *cipherlab.PrivateKey) []byte {
	result := make([]byte, 0, 20+8*len(sk.W))
	result = binary.LittleEndian.AppendUint64(result, sk.Q)
	result = binary.LittleEndian.AppendUint64(result, sk.R)
	result = binary.LittleEndian.AppendUint32(result, uint32(len(sk.W)))
	for _, w := range sk.W {
		result = binary.LittleEndian.AppendUint64(result, w)
	}
	return result
}

// DeserializePrivateKey parses the output of SerializePrivateKey and checks
// every private key invariant, so a corrupted key is rejected here rather
// than producing wrong plaintexts later.
func DeserializePrivateKey(data []byte) (*cipherlab.PrivateKey, error) {
	q, offset, err := utils.SafeReadUint64(data, 0)
	if err != nil {
		return nil, errors.New("invalid knapsack private key: missing modulus")
	}
	r, offset, err := utils.SafeReadUint64(data, offset)
	if err != nil {
		return nil, errors.New("invalid knapsack private key: missing multiplier")
	}
	n, offset, err := utils.SafeReadLength(data, offset, utils.MaxKeyLength)
	if err != nil {
		return nil, fmt.Errorf("invalid knapsack private key: %w", err)
	}
	if err := utils.ValidateSliceAccess(data, offset, 8*n); err != nil {
		return nil, errors.New("invalid knapsack private key: data truncated")
	}

	sk := &cipherlab.PrivateKey{Q: q, R: r, W: make([]uint64, n)}
	for i := range sk.W {
		sk.W[i], offset, _ = utils.SafeReadUint64(data, offset)
	}
	if offset != len(data) {
		return nil, errors.New("invalid knapsack private key: trailing data")
	}
	if err := ValidatePrivateKey(sk); err != nil {
		return nil, err
	}
	return sk, nil
}

// Fingerprint returns a domain-separated SHA3-256 hash of the serialized public key.
func Fingerprint(pk *cipherlab.PublicKey) []byte {
	return utils.HashWithDomain(DomainFingerprint, SerializePublicKey(pk))
}
