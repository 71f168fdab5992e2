// Package knapsack implements the Merkle–Hellman knapsack public-key cryptosystem.
//
// A private key is a superincreasing sequence W, a modulus Q larger than its
// sum and a multiplier R coprime to Q. The public key scales W by R modulo Q,
// hiding the superincreasing structure. A block of L bits encrypts to the sum
// of the public elements its set bits select; decryption undoes the scaling and
// solves the now easy subset-sum greedily.
//
// WARNING: Merkle–Hellman is broken (Shamir, 1982). This package exists for
// teaching only.
package knapsack

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	cipherlab "github.com/BackendStack21/cipherlab-go"
	"github.com/BackendStack21/cipherlab-go/core"
	"github.com/BackendStack21/cipherlab-go/logging"
	"github.com/BackendStack21/cipherlab-go/modarith"
	"github.com/BackendStack21/cipherlab-go/utils"
)

var (
	// ErrKeyGeneration is returned when no multiplier coprime to the modulus
	// was found within the attempt bound.
	ErrKeyGeneration = errors.New("key generation failed")

	// ErrInvalidKey is returned for keys that break a structural invariant.
	ErrInvalidKey = errors.New("invalid knapsack key")
)

// Option configures key generation.
type Option func(*genConfig)

type genConfig struct {
	logger logging.Logger
}

// WithLogger routes key generation diagnostics to logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *genConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// GenerateKeyPair generates a key pair for the given level from crypto/rand.
func GenerateKeyPair(level cipherlab.Level, opts ...Option) (*cipherlab.KeyPair, error) {
	params, err := core.GetParams(level)
	if err != nil {
		return nil, err
	}
	return GenerateKeyPairWithSource(params, utils.CryptoSource(), opts...)
}

// GenerateKeyPairFromSeed generates a deterministic key pair from seed.
// The seed must be at least 32 bytes and pass a basic entropy check.
func GenerateKeyPairFromSeed(params cipherlab.KnapsackParams, seed []byte, opts ...Option) (*cipherlab.KeyPair, error) {
	if err := utils.ValidateSeedEntropy(seed); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	return GenerateKeyPairWithSource(params, utils.NewSeededSource(seed), opts...)
}

// GenerateKeyPairWithSource generates a key pair drawing every random value from src.
func GenerateKeyPairWithSource(params cipherlab.KnapsackParams, src utils.Source, opts ...Option) (*cipherlab.KeyPair, error) {
	cfg := genConfig{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger.With("level", string(params.Level), "length", params.Length)
	ctx := context.Background()

	priv, err := generatePrivateKey(ctx, src, params, logger)
	if err != nil {
		logger.Error(ctx, "knapsack key generation failed", "error", err)
		return nil, err
	}
	pub := GeneratePublicKey(priv)

	logger.Info(ctx, "knapsack key pair generated",
		"fingerprint", hex.EncodeToString(Fingerprint(&pub)),
		logging.Redacted("private_key"),
	)
	return &cipherlab.KeyPair{PublicKey: pub, PrivateKey: *priv}, nil
}

// GeneratePrivateKey draws a private key with params.Length elements from src.
func GeneratePrivateKey(src utils.Source, params cipherlab.KnapsackParams) (*cipherlab.PrivateKey, error) {
	return generatePrivateKey(context.Background(), src, params, logging.Discard())
}

func generatePrivateKey(ctx context.Context, src utils.Source, params cipherlab.KnapsackParams, logger logging.Logger) (*cipherlab.PrivateKey, error) {
	if err := core.ValidateParams(params); err != nil {
		return nil, err
	}

	w, err := SuperincreasingSequence(src, params.Length)
	if err != nil {
		return nil, err
	}
	s, err := utils.SafeSum(w)
	if err != nil {
		return nil, err
	}

	q, err := src.Uint64Range(s+1, 2*(s+1))
	if err != nil {
		return nil, err
	}

	var r uint64
	found := false
	for attempt := 1; attempt <= params.MaxMultiplierAttempts; attempt++ {
		r, err = src.Uint64Range(q/2, q-1)
		if err != nil {
			return nil, err
		}
		if modarith.Coprime(int64(r), int64(q)) {
			found = true
			break
		}
		logger.Debug(ctx, "multiplier rejected, not coprime to modulus", "attempt", attempt)
	}
	if !found {
		return nil, fmt.Errorf("%w: no multiplier coprime to modulus after %d attempts", ErrKeyGeneration, params.MaxMultiplierAttempts)
	}

	priv := &cipherlab.PrivateKey{Q: q, W: w, R: r}
	if err := ValidatePrivateKey(priv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	return priv, nil
}

// SuperincreasingSequence draws length elements, each uniform in
// [s+1, 2(s+1)] where s is the sum of the elements before it.
func SuperincreasingSequence(src utils.Source, length int) ([]uint64, error) {
	if err := utils.CheckLength(length, utils.MaxKeyLength); err != nil {
		return nil, fmt.Errorf("sequence length %d: %w", length, err)
	}
	w := make([]uint64, length)
	var s uint64
	for i := range w {
		next, err := src.Uint64Range(s+1, 2*(s+1))
		if err != nil {
			return nil, err
		}
		w[i] = next
		s += next
	}
	return w, nil
}

// GeneratePublicKey derives the public key B[i] = W[i]*R mod Q.
func GeneratePublicKey(priv *cipherlab.PrivateKey) cipherlab.PublicKey {
	b := make([]uint64, len(priv.W))
	for i, w := range priv.W {
		b[i] = modarith.MulMod(w, priv.R, priv.Q)
	}
	return cipherlab.PublicKey{B: b}
}

// IsSuperincreasing reports whether every element of w exceeds the sum of all
// elements before it.
func IsSuperincreasing(w []uint64) bool {
	var s uint64
	for _, v := range w {
		if v <= s {
			return false
		}
		next, err := utils.SafeAdd(s, v)
		if err != nil {
			return false
		}
		s = next
	}
	return true
}

// ValidatePrivateKey checks every invariant decryption relies on: the length
// bound, the superincreasing property, Q > sum(W), and gcd(R, Q) = 1.
func ValidatePrivateKey(priv *cipherlab.PrivateKey) error {
	if priv == nil {
		return fmt.Errorf("%w: nil key", ErrInvalidKey)
	}
	if len(priv.W) == 0 || len(priv.W) > utils.MaxKeyLength {
		return fmt.Errorf("%w: length %d outside [1, %d]", ErrInvalidKey, len(priv.W), utils.MaxKeyLength)
	}
	if !IsSuperincreasing(priv.W) {
		return fmt.Errorf("%w: sequence is not superincreasing", ErrInvalidKey)
	}
	s, err := utils.SafeSum(priv.W)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if priv.Q <= s {
		return fmt.Errorf("%w: modulus does not exceed sequence sum", ErrInvalidKey)
	}
	// Generated moduli stay below 2*3^32. The bound keeps Q an int64 and every
	// subset sum of the public key inside a uint64.
	if priv.Q > math.MaxInt64 || priv.Q > math.MaxUint64/uint64(len(priv.W)) {
		return fmt.Errorf("%w: modulus too large", ErrInvalidKey)
	}
	if priv.R == 0 || priv.R >= priv.Q || !modarith.Coprime(int64(priv.R), int64(priv.Q)) {
		return fmt.Errorf("%w: multiplier not coprime to modulus", ErrInvalidKey)
	}
	return nil
}

// ValidatePublicKey checks the public key's length bound.
func ValidatePublicKey(pub *cipherlab.PublicKey) error {
	if pub == nil {
		return fmt.Errorf("%w: nil key", ErrInvalidKey)
	}
	if len(pub.B) == 0 || len(pub.B) > utils.MaxKeyLength {
		return fmt.Errorf("%w: length %d outside [1, %d]", ErrInvalidKey, len(pub.B), utils.MaxKeyLength)
	}
	return nil
}
