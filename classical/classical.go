// Package classical implements the Caesar and Vigenère substitution ciphers
// over the 26-letter uppercase alphabet.
//
// Every function normalizes its text inputs first, so callers may pass raw
// text: "Hello, World!" is processed as "HELLOWORLD".
package classical

import (
	"errors"
	"strings"

	cipherlab "github.com/BackendStack21/cipherlab-go"
)

// ErrEmptyKey is returned when a Vigenère key has no letters.
var ErrEmptyKey = errors.New("key contains no letters")

// Normalize uppercases text and drops every character outside A-Z.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case 'A' <= c && c <= 'Z':
			b.WriteByte(c)
		case 'a' <= c && c <= 'z':
			b.WriteByte(c - 'a' + 'A')
		}
	}
	return b.String()
}

// IsNormalized reports whether s contains only A-Z, so Normalize would
// return it unchanged.
func IsNormalized(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// ToNum converts an uppercase letter to its ordinal (A = 0, B = 1, ...).
func ToNum(c byte) int {
	return int(c - 'A')
}

// ToChr converts an ordinal to its letter, wrapping modulo 26.
func ToChr(n int) byte {
	n %= cipherlab.AlphabetSize
	if n < 0 {
		n += cipherlab.AlphabetSize
	}
	return cipherlab.Alphabet[n]
}

// shift adds delta to every letter of msg modulo 26.
func shift(msg string, delta int) string {
	out := make([]byte, len(msg))
	for i := 0; i < len(msg); i++ {
		out[i] = ToChr(ToNum(msg[i]) + delta)
	}
	return string(out)
}

// CaesarEncode encodes msg with the Caesar cipher. Any shift is accepted and
// reduced modulo 26.
func CaesarEncode(msg string, n int) string {
	return shift(Normalize(msg), n%cipherlab.AlphabetSize)
}

// CaesarDecode reverses CaesarEncode for the same shift.
func CaesarDecode(msg string, n int) string {
	return shift(Normalize(msg), -(n % cipherlab.AlphabetSize))
}

// vigenere shifts letter i of msg by sign * key[i mod len(key)].
func vigenere(msg, key string, sign int) (string, error) {
	msg = Normalize(msg)
	key = Normalize(key)
	if key == "" {
		return "", ErrEmptyKey
	}

	out := make([]byte, len(msg))
	keyLen := len(key)
	for i := 0; i < len(msg); i++ {
		out[i] = ToChr(ToNum(msg[i]) + sign*ToNum(key[i%keyLen]))
	}
	return string(out), nil
}

// VigenereEncode encodes msg with the Vigenère cipher under key.
func VigenereEncode(msg, key string) (string, error) {
	return vigenere(msg, key, 1)
}

// VigenereDecode reverses VigenereEncode for the same key.
func VigenereDecode(msg, key string) (string, error) {
	return vigenere(msg, key, -1)
}
