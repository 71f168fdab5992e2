// Package core provides parameter sets, reference letter frequencies and
// validation for cipherlab.
package core

import (
	"errors"
	"fmt"

	cipherlab "github.com/BackendStack21/cipherlab-go"
	"github.com/BackendStack21/cipherlab-go/utils"
)

// DefaultMaxMultiplierAttempts bounds the search for a multiplier coprime to
// the modulus.
const DefaultMaxMultiplierAttempts = 1000

// KS8Params encrypts one byte per block.
var KS8Params = cipherlab.KnapsackParams{
	Level:                 cipherlab.KS8,
	Length:                8,
	MaxMultiplierAttempts: DefaultMaxMultiplierAttempts,
}

// KS16Params encrypts two bytes per block.
var KS16Params = cipherlab.KnapsackParams{
	Level:                 cipherlab.KS16,
	Length:                16,
	MaxMultiplierAttempts: DefaultMaxMultiplierAttempts,
}

// KS32Params uses the largest block size whose arithmetic fits in 64 bits.
var KS32Params = cipherlab.KnapsackParams{
	Level:                 cipherlab.KS32,
	Length:                utils.MaxKeyLength,
	MaxMultiplierAttempts: DefaultMaxMultiplierAttempts,
}

// GetParams returns the parameter set for the given level.
func GetParams(level cipherlab.Level) (cipherlab.KnapsackParams, error) {
	switch level {
	case cipherlab.KS8:
		return KS8Params, nil
	case cipherlab.KS16:
		return KS16Params, nil
	case cipherlab.KS32:
		return KS32Params, nil
	default:
		return cipherlab.KnapsackParams{}, fmt.Errorf("unknown knapsack level: %s", level)
	}
}

// CustomParams returns parameters for an arbitrary block size.
func CustomParams(length int) (cipherlab.KnapsackParams, error) {
	params := cipherlab.KnapsackParams{
		Level:                 cipherlab.Level(fmt.Sprintf("KS-%d", length)),
		Length:                length,
		MaxMultiplierAttempts: DefaultMaxMultiplierAttempts,
	}
	if err := ValidateParams(params); err != nil {
		return cipherlab.KnapsackParams{}, err
	}
	return params, nil
}

// ValidateParams validates the parameter set for consistency.
func ValidateParams(params cipherlab.KnapsackParams) error {
	if err := utils.CheckPositive(params.Length, "knapsack length"); err != nil {
		return err
	}
	if params.Length > utils.MaxKeyLength {
		return fmt.Errorf("knapsack length %d exceeds maximum %d", params.Length, utils.MaxKeyLength)
	}
	if params.MaxMultiplierAttempts <= 0 {
		return errors.New("multiplier attempt bound must be positive")
	}
	return nil
}
