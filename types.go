// Package cipherlab implements educational cryptographic primitives.
//
// WARNING: Nothing in this module is secure. The knapsack cryptosystem was
// broken in 1982 and the classical ciphers fall to frequency analysis. DO NOT
// use any of it to protect real data.
package cipherlab

// =============================================================================
// Alphabet
// =============================================================================

// Alphabet is the ordered symbol set shared by the classical ciphers and the
// cryptanalysis routines. Symbol i has ordinal code i.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// AlphabetSize is the period of the modular letter arithmetic.
const AlphabetSize = 26

// FrequencyTable holds one probability per alphabet symbol, in alphabet order.
type FrequencyTable [AlphabetSize]float64

// Language identifies a reference letter-frequency table.
type Language string

const (
	// English is the classroom English table.
	English Language = "en"
	// EnglishCorpus is a table measured on a large English corpus.
	EnglishCorpus Language = "en-corpus"
)

// =============================================================================
// Knapsack Parameter Types
// =============================================================================

// Level names a knapsack parameter preset.
type Level string

const (
	// KS8 uses 8-bit blocks, one block per byte.
	KS8 Level = "KS-8"
	// KS16 uses 16-bit blocks.
	KS16 Level = "KS-16"
	// KS32 uses 32-bit blocks, the largest supported size.
	KS32 Level = "KS-32"
)

// KnapsackParams contains the parameters for knapsack key generation.
type KnapsackParams struct {
	Level                 Level `json:"level"`
	Length                int   `json:"length"`                  // Block size in bits, len(W)
	MaxMultiplierAttempts int   `json:"max_multiplier_attempts"` // Bound on the coprime search for R
}

// =============================================================================
// Knapsack Key Types
// =============================================================================

// PrivateKey is the Merkle–Hellman private key.
// W is superincreasing, Q exceeds the sum of W, and gcd(R, Q) = 1.
type PrivateKey struct {
	Q uint64   // Modulus
	W []uint64 // Superincreasing sequence
	R uint64   // Multiplier
}

// PublicKey is the Merkle–Hellman public key, B[i] = W[i]*R mod Q.
type PublicKey struct {
	B []uint64
}

// KeyPair contains both public and private keys.
type KeyPair struct {
	PublicKey  PublicKey
	PrivateKey PrivateKey
}

// Length returns the block size in bits.
func (pk *PublicKey) Length() int {
	return len(pk.B)
}

// Length returns the block size in bits.
func (sk *PrivateKey) Length() int {
	return len(sk.W)
}
