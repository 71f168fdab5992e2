// Package cryptanalysis recovers Vigenère keys from ciphertext alone using
// letter-frequency analysis.
package cryptanalysis

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	cipherlab "github.com/BackendStack21/cipherlab-go"
	"github.com/BackendStack21/cipherlab-go/classical"
	"github.com/BackendStack21/cipherlab-go/core"
)

var (
	// ErrCosetTooShort is returned when a coset has no letters to count.
	ErrCosetTooShort = errors.New("coset too short")

	// ErrInvalidKeyLength is returned for a key length below 1.
	ErrInvalidKeyLength = errors.New("key length must be positive")
)

// parallelCosetThreshold is the key length from which cosets are scored concurrently.
const parallelCosetThreshold = 16

// Cosets splits msg into keyLen subsequences; coset k holds the letters at
// positions congruent to k modulo keyLen. Positions count letters only.
func Cosets(msg string, keyLen int) []string {
	if keyLen <= 0 {
		return nil
	}
	msg = normalize(msg)
	cosets := make([][]byte, keyLen)
	for k := range cosets {
		cosets[k] = make([]byte, 0, len(msg)/keyLen+1)
	}
	for i := 0; i < len(msg); i++ {
		cosets[i%keyLen] = append(cosets[i%keyLen], msg[i])
	}
	out := make([]string, keyLen)
	for k, c := range cosets {
		out[k] = string(c)
	}
	return out
}

// Frequencies returns the relative frequency of each letter in sample.
// Characters outside the alphabet are ignored.
func Frequencies(sample string) (cipherlab.FrequencyTable, error) {
	var table cipherlab.FrequencyTable
	sample = normalize(sample)
	if len(sample) == 0 {
		return table, ErrCosetTooShort
	}
	var counts [cipherlab.AlphabetSize]int
	for i := 0; i < len(sample); i++ {
		counts[classical.ToNum(sample[i])]++
	}
	n := float64(len(sample))
	for i, c := range counts {
		table[i] = float64(c) / n
	}
	return table, nil
}

// Loss is the squared error between the reference distribution and the sample
// distribution rotated back by shift.
func Loss(ref, sample cipherlab.FrequencyTable, shift int) float64 {
	var loss float64
	for j := 0; j < cipherlab.AlphabetSize; j++ {
		d := ref[j] - sample[(shift+j)%cipherlab.AlphabetSize]
		loss += d * d
	}
	return loss
}

// BestShift tries all 26 rotations and returns the one with the smallest loss.
// Ties go to the smallest shift.
func BestShift(ref, sample cipherlab.FrequencyTable) (int, float64) {
	best := 0
	bestLoss := Loss(ref, sample, 0)
	for s := 1; s < cipherlab.AlphabetSize; s++ {
		if l := Loss(ref, sample, s); l < bestLoss {
			best, bestLoss = s, l
		}
	}
	return best, bestLoss
}

// FindKey recovers a Vigenère key of length keyLen from ciphertext, scoring
// each coset against the reference frequencies ref.
func FindKey(ciphertext string, keyLen int, ref cipherlab.FrequencyTable) (string, error) {
	if keyLen <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidKeyLength, keyLen)
	}
	msg := classical.Normalize(ciphertext)
	if keyLen > len(msg) {
		return "", fmt.Errorf("%w: key length %d exceeds %d letters of ciphertext", ErrCosetTooShort, keyLen, len(msg))
	}

	cosets := Cosets(msg, keyLen)
	key := make([]byte, keyLen)
	errs := make([]error, keyLen)

	solve := func(k int) {
		freqs, err := Frequencies(cosets[k])
		if err != nil {
			errs[k] = fmt.Errorf("coset %d: %w", k, err)
			return
		}
		s, _ := BestShift(ref, freqs)
		key[k] = classical.ToChr(s)
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if keyLen < parallelCosetThreshold || numWorkers <= 1 {
		for k := range cosets {
			solve(k)
		}
	} else {
		var wg sync.WaitGroup
		perWorker := (keyLen + numWorkers - 1) / numWorkers
		for w := 0; w < numWorkers; w++ {
			start := w * perWorker
			end := start + perWorker
			if end > keyLen {
				end = keyLen
			}
			if start >= keyLen {
				break
			}

			wg.Add(1)
			go func(start, end int) {
				defer wg.Done()
				for k := start; k < end; k++ {
					solve(k)
				}
			}(start, end)
		}
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return "", err
		}
	}
	return string(key), nil
}

// normalize skips the copy for text that is already normalized.
func normalize(s string) string {
	if classical.IsNormalized(s) {
		return s
	}
	return classical.Normalize(s)
}

// FindEnglishKey is FindKey against the classroom English table.
func FindEnglishKey(ciphertext string, keyLen int) (string, error) {
	return FindKey(ciphertext, keyLen, core.English)
}
