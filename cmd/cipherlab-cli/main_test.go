package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BackendStack21/cipherlab-go/classical"
	"github.com/BackendStack21/cipherlab-go/utils"
)

const taleOfTwoCities = `It was the best of times, it was the worst of times, it was the age of
wisdom, it was the age of foolishness, it was the epoch of belief, it was the epoch of
incredulity, it was the season of Light, it was the season of Darkness, it was the spring
of hope, it was the winter of despair, we had everything before us, we had nothing before
us, we were all going direct to Heaven, we were all going direct the other way`

// runCLI executes the CLI in-process and returns its exit code and output.
func runCLI(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

// mustRun runs the CLI and fails the test unless it exits 0.
func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	code, stdout, stderr := runCLI(t, stdin, args...)
	require.Equal(t, 0, code, "%v failed: %s", args, stderr)
	return stdout
}

func readKeyPair(t *testing.T, data []byte) KeyPairExport {
	t.Helper()
	var kp KeyPairExport
	require.NoError(t, json.Unmarshal(data, &kp))
	return kp
}

func TestHelpAndVersion(t *testing.T) {
	stdout := mustRun(t, "", "help")
	assert.Contains(t, stdout, "cipherlab-cli - classical and knapsack cipher toolkit")

	stdout = mustRun(t, "", "version")
	assert.Contains(t, stdout, "cipherlab-cli version")

	code, _, _ := runCLI(t, "")
	assert.Equal(t, 1, code, "no arguments")
}

func TestUnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, "", "rot13")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestCaesar(t *testing.T) {
	stdout := mustRun(t, "", "caesar", "encode", "--shift", "3", "--message", "Hello, World!")
	assert.Equal(t, "KHOORZRUOG", strings.TrimSpace(stdout))

	stdout = mustRun(t, "", "caesar", "decode", "--shift", "-23", "--message", "KHOORZRUOG")
	assert.Equal(t, "HELLOWORLD", strings.TrimSpace(stdout))
}

func TestCaesarErrors(t *testing.T) {
	for name, args := range map[string][]string{
		"missing shift":      {"caesar", "encode", "--message", "abc"},
		"non-numeric shift":  {"caesar", "encode", "--shift", "x", "--message", "abc"},
		"unknown subcommand": {"caesar", "rotate", "--shift", "1", "--message", "abc"},
	} {
		code, _, _ := runCLI(t, "", args...)
		assert.Equal(t, 1, code, name)
	}
}

func TestVigenereStdin(t *testing.T) {
	stdout := mustRun(t, "attack at dawn", "vigenere", "encode", "--key", "lemon")
	assert.Equal(t, "LXFOPVEFRNHR", strings.TrimSpace(stdout))

	stdout = mustRun(t, "", "vigenere", "decode", "--key", "LEMON", "--message", "LXFOPVEFRNHR")
	assert.Equal(t, "ATTACKATDAWN", strings.TrimSpace(stdout))

	code, _, stderr := runCLI(t, "", "vigenere", "encode", "--key", "123", "--message", "abc")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "key contains no letters")
}

func TestCrack(t *testing.T) {
	ciphertext, err := classical.VigenereEncode(taleOfTwoCities, "KEY")
	require.NoError(t, err)

	input := filepath.Join(t.TempDir(), "ct.txt")
	require.NoError(t, os.WriteFile(input, []byte(ciphertext), 0600))

	stdout := mustRun(t, "", "crack", "--input", input)
	assert.Contains(t, stdout, "Key: KEY\n")
	assert.Contains(t, stdout, "Plaintext: ITWASTHEBESTOFTIMES")

	stdout = mustRun(t, "", "crack", "--message", ciphertext, "--key-length", "3", "--language", "en-corpus")
	assert.Contains(t, stdout, "Key: KEY\n")
}

func TestCrackErrors(t *testing.T) {
	for name, args := range map[string][]string{
		"unknown language":        {"crack", "--message", "ABC", "--language", "klingon"},
		"zero key length":         {"crack", "--message", "ABC", "--key-length", "0"},
		"key longer than letters": {"crack", "--message", "AB", "--key-length", "5"},
	} {
		code, _, _ := runCLI(t, "", args...)
		assert.Equal(t, 1, code, name)
	}
}

func TestKnapsackKeygenEncryptDecrypt(t *testing.T) {
	dir := t.TempDir()
	kpFile := filepath.Join(dir, "keypair.json")
	ctFile := filepath.Join(dir, "ct.json")
	ptFile := filepath.Join(dir, "pt.txt")

	mustRun(t, "", "knapsack", "keygen", "--level", "16", "--output", kpFile)
	info, err := os.Stat(kpFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(kpFile)
	require.NoError(t, err)
	kp := readKeyPair(t, data)
	assert.Equal(t, "KS-16", kp.Level)
	assert.Equal(t, 16, kp.Length)
	require.NotEmpty(t, kp.PublicKey)
	require.NotEmpty(t, kp.SecretKey)
	require.NotEmpty(t, kp.Fingerprint)
	assert.Empty(t, kp.Seed, "unseeded keys export no seed")

	mustRun(t, "", "knapsack", "encrypt", "--public-key", kpFile, "--message", "CRYPTOGRAPHY", "--output", ctFile)
	data, err = os.ReadFile(ctFile)
	require.NoError(t, err)
	var enc EncryptedExport
	require.NoError(t, json.Unmarshal(data, &enc))
	assert.Len(t, enc.Ciphertext, len("CRYPTOGRAPHY"))

	stdout := mustRun(t, "", "knapsack", "decrypt", "--secret-key", kpFile, "--ciphertext", ctFile)
	assert.Equal(t, "CRYPTOGRAPHY", strings.TrimSpace(stdout))

	mustRun(t, "", "knapsack", "decrypt", "-sk", kpFile, "-ct", ctFile, "--output", ptFile)
	pt, err := os.ReadFile(ptFile)
	require.NoError(t, err)
	assert.Equal(t, "CRYPTOGRAPHY", string(pt))
}

func TestKnapsackKeygenFromSeedFile(t *testing.T) {
	seed, err := utils.SecureRandomBytes(32)
	require.NoError(t, err)
	seedFile := filepath.Join(t.TempDir(), "seed.hex")
	require.NoError(t, os.WriteFile(seedFile, []byte(hex.EncodeToString(seed)+"\n"), 0600))

	first := readKeyPair(t, []byte(mustRun(t, "", "knapsack", "keygen", "--level", "32", "--seed-file", seedFile)))
	second := readKeyPair(t, []byte(mustRun(t, "", "knapsack", "keygen", "--level", "32", "--seed-file", seedFile)))
	assert.Equal(t, first.SecretKey, second.SecretKey)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Empty(t, first.Seed, "a seed file is not echoed back")

	other := readKeyPair(t, []byte(mustRun(t, "", "knapsack", "keygen", "--level", "32")))
	assert.NotEqual(t, first.Fingerprint, other.Fingerprint)
}

func TestKnapsackKeygenDeterministic(t *testing.T) {
	kp := readKeyPair(t, []byte(mustRun(t, "", "knapsack", "keygen", "--deterministic")))
	require.Len(t, kp.Seed, 64)

	seedFile := filepath.Join(t.TempDir(), "seed.hex")
	require.NoError(t, os.WriteFile(seedFile, []byte(kp.Seed), 0600))
	again := readKeyPair(t, []byte(mustRun(t, "", "knapsack", "keygen", "--seed-file", seedFile)))
	assert.Equal(t, kp.SecretKey, again.SecretKey)
}

func TestKnapsackKeygenBadSeed(t *testing.T) {
	dir := t.TempDir()
	weak := filepath.Join(dir, "weak.hex")
	require.NoError(t, os.WriteFile(weak, []byte(strings.Repeat("00", 32)), 0600))
	notHex := filepath.Join(dir, "bad.hex")
	require.NoError(t, os.WriteFile(notHex, []byte("not a seed"), 0600))

	code, _, stderr := runCLI(t, "", "knapsack", "keygen", "--seed-file", weak)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid seed")

	code, _, stderr = runCLI(t, "", "knapsack", "keygen", "--seed-file", notHex)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "seed file must hold hex")

	code, _, _ = runCLI(t, "", "knapsack", "keygen", "--seed-file", filepath.Join(dir, "missing"))
	assert.Equal(t, 1, code)
}

func TestKnapsackDecryptWrongKey(t *testing.T) {
	dir := t.TempDir()
	kp1 := filepath.Join(dir, "kp1.json")
	kp2 := filepath.Join(dir, "kp2.json")
	ctFile := filepath.Join(dir, "ct.json")

	mustRun(t, "", "knapsack", "keygen", "--output", kp1)
	mustRun(t, "", "knapsack", "keygen", "--output", kp2)
	mustRun(t, "secret", "knapsack", "encrypt", "--public-key", kp1, "--output", ctFile)

	code, _, stderr := runCLI(t, "", "knapsack", "decrypt", "--secret-key", kp2, "--ciphertext", ctFile)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not produced for this key")
}

func TestKnapsackTamperedPublicKey(t *testing.T) {
	kpFile := filepath.Join(t.TempDir(), "kp.json")
	mustRun(t, "", "knapsack", "keygen", "--output", kpFile)

	data, err := os.ReadFile(kpFile)
	require.NoError(t, err)
	kp := readKeyPair(t, data)
	last := kp.PublicKey[len(kp.PublicKey)-1]
	flipped := byte('0')
	if last == '0' {
		flipped = '1'
	}
	kp.PublicKey = kp.PublicKey[:len(kp.PublicKey)-1] + string(flipped)
	data, err = json.Marshal(kp)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(kpFile, data, 0600))

	code, _, stderr := runCLI(t, "", "knapsack", "encrypt", "--public-key", kpFile, "--message", "hi")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "fingerprint")
}

func TestMissingRequiredFlag(t *testing.T) {
	for name, args := range map[string][]string{
		"encrypt without public key":  {"knapsack", "encrypt", "--message", "hi"},
		"decrypt without ciphertext":  {"knapsack", "decrypt", "--secret-key", "x.json"},
		"knapsack without subcommand": {"knapsack"},
	} {
		code, _, _ := runCLI(t, "", args...)
		assert.Equal(t, 1, code, name)
	}
}

func TestInvalidLevel(t *testing.T) {
	code, _, stderr := runCLI(t, "", "knapsack", "keygen", "--level", "64")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid level")
}

func TestLevelFromEnvironment(t *testing.T) {
	t.Setenv(EnvLevel, "KS-32")
	kp := readKeyPair(t, []byte(mustRun(t, "", "knapsack", "keygen")))
	assert.Equal(t, 32, kp.Length)
}

func TestVerboseLogsKeyGeneration(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "knapsack", "keygen", "--verbose", "--timing")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "knapsack key pair generated")
	assert.Contains(t, stderr, "Key generation took")

	kp := readKeyPair(t, []byte(stdout))
	assert.NotContains(t, stderr, kp.SecretKey, "secret key leaked into logs")
}

func TestInvalidLogLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "chatty")
	code, _, _ := runCLI(t, "", "caesar", "encode", "--shift", "1", "--message", "a")
	assert.Equal(t, 1, code)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")), "missing .env is ignored")

	t.Setenv(EnvLanguage, "")
	require.NoError(t, os.Unsetenv(EnvLanguage))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(EnvLanguage+"=en-corpus\n"), 0600))
	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "en-corpus", os.Getenv(EnvLanguage))
}
