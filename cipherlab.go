// Package cipherlab implements educational cryptographic primitives.
// This package holds the shared types; the algorithms live in sub-packages:
// classical substitution ciphers (Caesar, Vigenère), frequency-analysis
// cryptanalysis of Vigenère ciphertext, and the Merkle–Hellman knapsack
// public-key cryptosystem.
package cipherlab

// Version of the cipherlab Go implementation.
const Version = "1.0.0"

// API summary:
//
// Classical ciphers:
//   - classical.Normalize(text) - Uppercase and strip non-letters
//   - classical.CaesarEncode(msg, shift) / classical.CaesarDecode(msg, shift)
//   - classical.VigenereEncode(msg, key) / classical.VigenereDecode(msg, key)
//
// Cryptanalysis:
//   - cryptanalysis.FindKey(ciphertext, keyLen, ref) - Recover a Vigenère key of known length
//   - cryptanalysis.EstimateKeyLength(ciphertext, maxLen, target) - Guess the key length
//   - cryptanalysis.Crack(ciphertext, maxLen, ref) - Estimate, recover and decode
//
// Knapsack (Merkle–Hellman):
//   - knapsack.GenerateKeyPair(level) - Generate a key pair for the given level
//   - knapsack.Encrypt(pub, p) / knapsack.Decrypt(priv, c) - Single block
//   - knapsack.EncryptMessage(pub, msg) / knapsack.DecryptMessage(priv, cts) - One block per byte
//
// Parameters:
//   - core.GetParams(level) - Get parameters for a knapsack level
//   - core.GetFrequencies(lang) - Get a reference letter-frequency table
