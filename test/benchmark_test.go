package test

import (
	"strings"
	"testing"

	cipherlab "github.com/BackendStack21/cipherlab-go"
	"github.com/BackendStack21/cipherlab-go/classical"
	"github.com/BackendStack21/cipherlab-go/core"
	"github.com/BackendStack21/cipherlab-go/cryptanalysis"
	"github.com/BackendStack21/cipherlab-go/knapsack"
)

// =============================================================================
// Knapsack Benchmarks
// =============================================================================

func benchmarkGenerateKeyPair(b *testing.B, level cipherlab.Level) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err := knapsack.GenerateKeyPair(level)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkKnapsack_GenerateKeyPair_KS8(b *testing.B)  { benchmarkGenerateKeyPair(b, cipherlab.KS8) }
func BenchmarkKnapsack_GenerateKeyPair_KS16(b *testing.B) { benchmarkGenerateKeyPair(b, cipherlab.KS16) }
func BenchmarkKnapsack_GenerateKeyPair_KS32(b *testing.B) { benchmarkGenerateKeyPair(b, cipherlab.KS32) }

func BenchmarkKnapsack_EncryptMessage(b *testing.B) {
	kp, err := knapsack.GenerateKeyPair(cipherlab.KS8)
	if err != nil {
		b.Fatal(err)
	}
	msg := []byte(strings.Repeat(orwell, 4))

	b.ResetTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(msg)))
	for i := 0; i < b.N; i++ {
		_, err := knapsack.EncryptMessage(&kp.PublicKey, msg)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkKnapsack_DecryptMessage(b *testing.B) {
	kp, err := knapsack.GenerateKeyPair(cipherlab.KS8)
	if err != nil {
		b.Fatal(err)
	}
	msg := []byte(strings.Repeat(orwell, 4))
	cts, err := knapsack.EncryptMessage(&kp.PublicKey, msg)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(msg)))
	for i := 0; i < b.N; i++ {
		_, err := knapsack.DecryptMessage(&kp.PrivateKey, cts)
		if err != nil {
			b.Fatal(err)
		}
	}
}

// =============================================================================
// Cryptanalysis Benchmarks
// =============================================================================

func BenchmarkCryptanalysis_Crack(b *testing.B) {
	ciphertext, err := classical.VigenereEncode(strings.Repeat(orwell, 2), "KEY")
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := cryptanalysis.Crack(ciphertext, 12, core.English)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkClassical_VigenereEncode(b *testing.B) {
	msg := strings.Repeat(orwell, 4)
	b.ReportAllocs()
	b.SetBytes(int64(len(msg)))
	for i := 0; i < b.N; i++ {
		_, err := classical.VigenereEncode(msg, "LEMON")
		if err != nil {
			b.Fatal(err)
		}
	}
}
