// Package modarith implements the modular arithmetic used by the knapsack
// cryptosystem: gcd, extended gcd, modular inverse and overflow-free mulmod.
//
// Preconditions on these functions are programmer errors. Violations panic
// rather than returning an error.
package modarith

import (
	"math/bits"
)

// Mod returns x mod m, ensuring the result is always non-negative in [0, m).
func Mod(x, m int64) int64 {
	r := x % m
	if r < 0 {
		r += m
	}
	return r
}

// Gcd returns the greatest common divisor of a and b using the Euclidean algorithm.
// Panics unless a >= 0 and b > 0.
func Gcd(a, b int64) int64 {
	checkOperands(a, b)
	for r := a % b; r > 0; r = a % b {
		a, b = b, r
	}
	return b
}

// ExtendedGCD returns g = gcd(a, b) together with Bézout coefficients x, y
// satisfying a*x + b*y = g.
// Panics unless a >= 0 and b > 0.
func ExtendedGCD(a, b int64) (g, x, y int64) {
	checkOperands(a, b)
	oldR, r := a, b
	oldS, s := int64(1), int64(0)
	oldT, t := int64(0), int64(1)

	for r != 0 {
		q := oldR / r
		oldR, r = r, oldR-q*r
		oldS, s = s, oldS-q*s
		oldT, t = t, oldT-q*t
	}
	return oldR, oldS, oldT
}

// ModInverse computes the modular multiplicative inverse of x mod n, in [0, n).
// x may be negative; it is reduced mod n first.
// If gcd(x, n) != 1 the result is meaningless. Panics if n <= 0.
func ModInverse(x, n int64) int64 {
	if n <= 0 {
		panic("modarith: modulus must be positive")
	}
	_, s, _ := ExtendedGCD(Mod(x, n), n)
	return Mod(s, n)
}

// Coprime reports whether gcd(a, b) = 1. Panics unless a >= 0 and b > 0.
func Coprime(a, b int64) bool {
	return Gcd(a, b) == 1
}

// MulMod returns a*b mod m using a 128-bit intermediate product, so it never
// overflows. Panics if m == 0.
func MulMod(a, b, m uint64) uint64 {
	if m == 0 {
		panic("modarith: modulus must be positive")
	}
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, m)
}

func checkOperands(a, b int64) {
	if b <= 0 {
		panic("modarith: divisor must be positive")
	}
	if a < 0 {
		panic("modarith: operand must be non-negative")
	}
}
