package cryptanalysis

import (
	"fmt"

	cipherlab "github.com/BackendStack21/cipherlab-go"
	"github.com/BackendStack21/cipherlab-go/classical"
)

// randomIndexOfCoincidence is the index of coincidence of uniformly random letters.
const randomIndexOfCoincidence = 1.0 / cipherlab.AlphabetSize

// IndexOfCoincidence returns the probability that two letters drawn without
// replacement from sample are equal. Characters outside the alphabet are
// ignored; samples shorter than two letters score 0.
func IndexOfCoincidence(sample string) float64 {
	sample = normalize(sample)
	n := len(sample)
	if n < 2 {
		return 0
	}
	var counts [cipherlab.AlphabetSize]int
	for i := 0; i < n; i++ {
		counts[classical.ToNum(sample[i])]++
	}
	var sum int
	for _, c := range counts {
		sum += c * (c - 1)
	}
	return float64(sum) / float64(n*(n-1))
}

// ExpectedIndexOfCoincidence is the index of coincidence of text whose letters
// follow the distribution ref.
func ExpectedIndexOfCoincidence(ref cipherlab.FrequencyTable) float64 {
	var sum float64
	for _, p := range ref {
		sum += p * p
	}
	return sum
}

// AverageIndexOfCoincidence is the mean index of coincidence of the cosets of
// msg for the given key length.
func AverageIndexOfCoincidence(msg string, keyLen int) float64 {
	cosets := Cosets(msg, keyLen)
	if len(cosets) == 0 {
		return 0
	}
	var total float64
	for _, c := range cosets {
		total += IndexOfCoincidence(c)
	}
	return total / float64(len(cosets))
}

// EstimateKeyLength guesses the Vigenère key length of ciphertext among
// 1..maxLen. target is the index of coincidence of the plaintext language.
//
// The shortest length whose cosets look like plaintext, meaning their average
// index of coincidence is closer to target than to random text, wins; this
// prefers the true length over its multiples. If no length qualifies the one
// with the highest average is returned.
func EstimateKeyLength(ciphertext string, maxLen int, target float64) (int, error) {
	if maxLen <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidKeyLength, maxLen)
	}
	msg := classical.Normalize(ciphertext)
	// Every coset needs two letters for its index of coincidence to mean anything.
	if limit := len(msg) / 2; maxLen > limit {
		maxLen = limit
	}
	if maxLen == 0 {
		return 0, fmt.Errorf("%w: %d letters of ciphertext", ErrCosetTooShort, len(msg))
	}

	threshold := (target + randomIndexOfCoincidence) / 2
	best, bestIoC := 1, -1.0
	for l := 1; l <= maxLen; l++ {
		ioc := AverageIndexOfCoincidence(msg, l)
		if ioc >= threshold {
			return l, nil
		}
		if ioc > bestIoC {
			best, bestIoC = l, ioc
		}
	}
	return best, nil
}

// FindRepeats returns the starting positions of every n-letter chunk of msg
// that occurs more than once. Distances between repeats are multiples of the
// key length more often than chance would suggest.
func FindRepeats(msg string, n int) map[string][]int {
	msg = classical.Normalize(msg)
	repeats := make(map[string][]int)
	if n <= 0 {
		return repeats
	}
	for i := 0; i+n <= len(msg); i++ {
		chunk := msg[i : i+n]
		repeats[chunk] = append(repeats[chunk], i)
	}
	for chunk, positions := range repeats {
		if len(positions) < 2 {
			delete(repeats, chunk)
		}
	}
	return repeats
}

// Crack estimates the key length (up to maxLen), recovers the key against ref
// and decodes the ciphertext.
func Crack(ciphertext string, maxLen int, ref cipherlab.FrequencyTable) (key, plaintext string, err error) {
	keyLen, err := EstimateKeyLength(ciphertext, maxLen, ExpectedIndexOfCoincidence(ref))
	if err != nil {
		return "", "", err
	}
	key, err = FindKey(ciphertext, keyLen, ref)
	if err != nil {
		return "", "", err
	}
	plaintext, err = classical.VigenereDecode(ciphertext, key)
	if err != nil {
		return "", "", err
	}
	return key, plaintext, nil
}
