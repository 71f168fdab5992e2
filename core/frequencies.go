package core

import (
	"fmt"
	"math"

	cipherlab "github.com/BackendStack21/cipherlab-go"
)

// FrequencySumTolerance is how far a reference table's total may drift from 1
// after rounding of the published percentages.
const FrequencySumTolerance = 0.01

// English holds the letter frequencies used by the classroom cryptanalysis
// exercises, A through Z.
var English = cipherlab.FrequencyTable{
	0.0812, 0.0149, 0.0271, 0.0432, 0.1202, 0.0230, 0.0203, // A-G
	0.0592, 0.0731, 0.0010, 0.0069, 0.0398, 0.0261, 0.0695, // H-N
	0.0768, 0.0182, 0.0011, 0.0602, 0.0628, 0.0910, 0.0288, // O-U
	0.0111, 0.0209, 0.0017, 0.0211, 0.0007, // V-Z
}

// EnglishCorpus holds English letter frequencies obtained from a large corpus.
var EnglishCorpus = cipherlab.FrequencyTable{
	0.08167, 0.01492, 0.02782, 0.04253, 0.12702, 0.02228, 0.02015, // A-G
	0.06094, 0.06966, 0.00153, 0.00772, 0.04025, 0.02406, 0.06749, // H-N
	0.07507, 0.01929, 0.00095, 0.05987, 0.06327, 0.09056, 0.02758, // O-U
	0.00978, 0.02360, 0.00150, 0.01974, 0.00074, // V-Z
}

// GetFrequencies returns the reference table for the given language.
func GetFrequencies(lang cipherlab.Language) (cipherlab.FrequencyTable, error) {
	switch lang {
	case cipherlab.English:
		return English, nil
	case cipherlab.EnglishCorpus:
		return EnglishCorpus, nil
	default:
		return cipherlab.FrequencyTable{}, fmt.Errorf("unknown language: %s", lang)
	}
}

// ValidateFrequencies checks that every entry is a probability and that the
// table sums to 1 within FrequencySumTolerance.
func ValidateFrequencies(table cipherlab.FrequencyTable) error {
	var sum float64
	for i, f := range table {
		if math.IsNaN(f) || f < 0 || f > 1 {
			return fmt.Errorf("frequency of %c out of range: %v", cipherlab.Alphabet[i], f)
		}
		sum += f
	}
	if math.Abs(sum-1) > FrequencySumTolerance {
		return fmt.Errorf("frequencies sum to %.4f, want 1", sum)
	}
	return nil
}
