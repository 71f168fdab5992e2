// Package main provides the cipherlab-cli command line interface.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	cipherlab "github.com/BackendStack21/cipherlab-go"
	"github.com/BackendStack21/cipherlab-go/classical"
	"github.com/BackendStack21/cipherlab-go/core"
	"github.com/BackendStack21/cipherlab-go/cryptanalysis"
	"github.com/BackendStack21/cipherlab-go/knapsack"
	"github.com/BackendStack21/cipherlab-go/logging"
	"github.com/BackendStack21/cipherlab-go/utils"
)

const (
	version = "1.0.0"
	appName = "cipherlab-cli"

	// MaxInputFileSize bounds every file the CLI reads.
	MaxInputFileSize = 16 * 1024 * 1024

	defaultMaxKeyLength = 20
)

// Environment variables providing defaults for flags.
const (
	EnvLevel    = "CIPHERLAB_LEVEL"
	EnvLanguage = "CIPHERLAB_LANGUAGE"
	EnvLogLevel = "CIPHERLAB_LOG_LEVEL"
)

// errUsage marks errors caused by a bad command line.
var errUsage = errors.New("usage error")

// CLIConfig holds CLI configuration
type CLIConfig struct {
	Level      cipherlab.Level
	Language   cipherlab.Language
	OutputFile string
	InputFile  string
	Verbose    bool
	Timing     bool
	Logger     logging.Logger
}

// KeyPairExport represents an exported knapsack key pair
type KeyPairExport struct {
	Level       string `json:"level"`
	Length      int    `json:"length"`
	PublicKey   string `json:"public_key"`
	SecretKey   string `json:"secret_key,omitempty"`
	Seed        string `json:"seed,omitempty"`
	Fingerprint string `json:"fingerprint"`
	CreatedAt   string `json:"created_at"`
}

// EncryptedExport represents an exported knapsack ciphertext
type EncryptedExport struct {
	Fingerprint string   `json:"fingerprint"`
	Ciphertext  []uint64 `json:"ciphertext"`
}

// app carries the process streams so commands can run in tests.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	if err := loadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// loadEnvFile loads variables from path without overriding the environment.
// A missing file is not an error.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	if len(args) < 1 {
		a.printUsage()
		return 1
	}

	var err error
	switch args[0] {
	case "help", "--help", "-h":
		a.printUsage()
		return 0
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "%s version %s\n", appName, version)
		fmt.Fprintf(stdout, "cipherlab library version %s\n", cipherlab.Version)
		return 0
	case "caesar":
		err = a.handleCaesar(args[1:])
	case "vigenere":
		err = a.handleVigenere(args[1:])
	case "crack":
		err = a.crack(args[1:])
	case "knapsack":
		err = a.handleKnapsack(args[1:])
	default:
		err = fmt.Errorf("%w: unknown command: %s", errUsage, args[0])
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Run \"%s help\" for usage.\n", appName)
		}
		return 1
	}
	return 0
}

func (a *app) printUsage() {
	fmt.Fprintf(a.stdout, `%s - classical and knapsack cipher toolkit

USAGE:
    %s <COMMAND> [OPTIONS]

COMMANDS:
    caesar      encode|decode with a Caesar shift
    vigenere    encode|decode with a Vigenère key
    crack       Recover a Vigenère key by frequency analysis
    knapsack    keygen|encrypt|decrypt with Merkle–Hellman
    version     Show version information
    help        Show this help message

OPTIONS:
    --message, -m TEXT       Input text (otherwise --input FILE, or stdin)
    --input, -i FILE         Read input from FILE ("-" for stdin)
    --output, -o FILE        Write output to FILE
    --shift N                Caesar shift (negative allowed)
    --key, -k KEY            Vigenère key
    --key-length N           Known key length for crack
    --max-key-length N       Longest key length crack tries (default %d)
    --language LANG          Reference frequencies: en, en-corpus (env %s)
    --level 8|16|32          Knapsack block size (env %s, default 8)
    --deterministic          Derive the key pair from a fresh seed and export it
    --seed-file FILE         Derive the key pair from the hex seed in FILE
    --public-key, -pk FILE   Knapsack public key or key pair JSON
    --secret-key, -sk FILE   Knapsack key pair JSON
    --ciphertext, -ct FILE   Knapsack ciphertext JSON
    --verbose                Debug logging (env %s sets the level otherwise)
    --timing, -t             Print timings to stderr

EXAMPLES:
    %s caesar encode --shift 3 --message "Hello, World!"
    %s vigenere decode --key LEMON --message LXFOPVEFRNHR
    %s crack --input ciphertext.txt --max-key-length 12
    %s knapsack keygen --level 8 --output keypair.json
    %s knapsack keygen --seed-file seed.hex
    %s knapsack encrypt --public-key keypair.json --message "CRYPTOGRAPHY" --output ct.json
    %s knapsack decrypt --secret-key keypair.json --ciphertext ct.json
`, appName, appName, defaultMaxKeyLength, EnvLanguage, EnvLevel, EnvLogLevel,
		appName, appName, appName, appName, appName, appName, appName)
}

// ============================================================================
// Classical Commands
// ============================================================================

func (a *app) handleCaesar(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: caesar requires encode or decode", errUsage)
	}
	config, err := a.parseConfig(args[1:])
	if err != nil {
		return err
	}
	shiftStr := getArg(args, "--shift", "-s")
	if shiftStr == "" {
		return fmt.Errorf("%w: --shift is required", errUsage)
	}
	shift, err := strconv.Atoi(shiftStr)
	if err != nil {
		return fmt.Errorf("%w: invalid shift %q", errUsage, shiftStr)
	}
	msg, err := a.readMessage(args, config)
	if err != nil {
		return err
	}

	var out string
	switch args[0] {
	case "encode", "enc":
		out = classical.CaesarEncode(msg, shift)
	case "decode", "dec":
		out = classical.CaesarDecode(msg, shift)
	default:
		return fmt.Errorf("%w: unknown caesar subcommand: %s", errUsage, args[0])
	}
	return a.writeOutput([]byte(out), config.OutputFile)
}

func (a *app) handleVigenere(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: vigenere requires encode or decode", errUsage)
	}
	config, err := a.parseConfig(args[1:])
	if err != nil {
		return err
	}
	key := getArg(args, "--key", "-k")
	if key == "" {
		return fmt.Errorf("%w: --key is required", errUsage)
	}
	msg, err := a.readMessage(args, config)
	if err != nil {
		return err
	}

	var out string
	switch args[0] {
	case "encode", "enc":
		out, err = classical.VigenereEncode(msg, key)
	case "decode", "dec":
		out, err = classical.VigenereDecode(msg, key)
	default:
		return fmt.Errorf("%w: unknown vigenere subcommand: %s", errUsage, args[0])
	}
	if err != nil {
		return err
	}
	return a.writeOutput([]byte(out), config.OutputFile)
}

func (a *app) crack(args []string) error {
	config, err := a.parseConfig(args)
	if err != nil {
		return err
	}
	msg, err := a.readMessage(args, config)
	if err != nil {
		return err
	}
	ref, err := core.GetFrequencies(config.Language)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	keyLen, err := getIntArg(args, "--key-length", "-n", 0)
	if err != nil {
		return err
	}
	maxLen, err := getIntArg(args, "--max-key-length", "", defaultMaxKeyLength)
	if err != nil {
		return err
	}

	start := time.Now()
	var key, plaintext string
	if keyLen > 0 {
		key, err = cryptanalysis.FindKey(msg, keyLen, ref)
		if err == nil {
			plaintext, err = classical.VigenereDecode(msg, key)
		}
	} else {
		key, plaintext, err = cryptanalysis.Crack(msg, maxLen, ref)
	}
	if err != nil {
		return err
	}
	if config.Timing {
		fmt.Fprintf(a.stderr, "Cryptanalysis took: %v\n", time.Since(start))
	}
	config.Logger.Debug(context.Background(), "vigenere key recovered", "key_length", len(key), "language", string(config.Language))

	return a.writeOutput([]byte(fmt.Sprintf("Key: %s\nPlaintext: %s", key, plaintext)), config.OutputFile)
}

// ============================================================================
// Knapsack Commands
// ============================================================================

func (a *app) handleKnapsack(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: knapsack requires keygen, encrypt or decrypt", errUsage)
	}
	switch args[0] {
	case "keygen":
		return a.knapsackKeygen(args[1:])
	case "encrypt", "enc":
		return a.knapsackEncrypt(args[1:])
	case "decrypt", "dec":
		return a.knapsackDecrypt(args[1:])
	default:
		return fmt.Errorf("%w: unknown knapsack subcommand: %s", errUsage, args[0])
	}
}

func (a *app) knapsackKeygen(args []string) error {
	config, err := a.parseConfig(args)
	if err != nil {
		return err
	}
	seed, err := keygenSeed(args)
	if err != nil {
		return err
	}
	defer utils.Zeroize(seed)

	start := time.Now()
	var kp *cipherlab.KeyPair
	if seed != nil {
		params, err := core.GetParams(config.Level)
		if err != nil {
			return err
		}
		kp, err = knapsack.GenerateKeyPairFromSeed(params, seed, knapsack.WithLogger(config.Logger))
		if err != nil {
			return fmt.Errorf("generating key pair: %w", err)
		}
	} else {
		kp, err = knapsack.GenerateKeyPair(config.Level, knapsack.WithLogger(config.Logger))
		if err != nil {
			return fmt.Errorf("generating key pair: %w", err)
		}
	}
	if config.Timing {
		fmt.Fprintf(a.stderr, "Key generation took: %v\n", time.Since(start))
	}

	pkBytes := knapsack.SerializePublicKey(&kp.PublicKey)
	skBytes := knapsack.SerializePrivateKey(&kp.PrivateKey)
	defer utils.Zeroize(skBytes)
	defer utils.ZeroizeUint64(kp.PrivateKey.W)

	export := KeyPairExport{
		Level:       string(config.Level),
		Length:      kp.PublicKey.Length(),
		PublicKey:   hex.EncodeToString(pkBytes),
		SecretKey:   hex.EncodeToString(skBytes),
		Fingerprint: hex.EncodeToString(knapsack.Fingerprint(&kp.PublicKey)),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	// A fresh seed is the only way to regenerate the key; a seed file is kept by the caller.
	if hasFlag(args, "--deterministic", "") && getArg(args, "--seed-file", "") == "" {
		export.Seed = hex.EncodeToString(seed)
	}
	output, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	return a.writeOutput(output, config.OutputFile)
}

// keygenSeed returns the hex seed from --seed-file, a fresh 32-byte seed for
// --deterministic, or nil for an unseeded key.
func keygenSeed(args []string) ([]byte, error) {
	if seedFile := getArg(args, "--seed-file", ""); seedFile != "" {
		data, err := readFileLimited(seedFile)
		if err != nil {
			return nil, fmt.Errorf("reading seed file: %w", err)
		}
		seed, err := hex.DecodeString(strings.TrimSpace(string(data)))
		utils.Zeroize(data)
		if err != nil {
			return nil, fmt.Errorf("seed file must hold hex: %w", err)
		}
		return seed, nil
	}
	if hasFlag(args, "--deterministic", "") {
		seed, err := utils.SecureRandomBytes(32)
		if err != nil {
			return nil, fmt.Errorf("drawing seed: %w", err)
		}
		return seed, nil
	}
	return nil, nil
}

func (a *app) knapsackEncrypt(args []string) error {
	config, err := a.parseConfig(args)
	if err != nil {
		return err
	}
	pkFile := getArg(args, "--public-key", "-pk")
	if pkFile == "" {
		return fmt.Errorf("%w: --public-key is required", errUsage)
	}
	msg, err := a.readInput(args, config)
	if err != nil {
		return err
	}

	export, err := loadKeyExport(pkFile)
	if err != nil {
		return fmt.Errorf("loading public key: %w", err)
	}
	pk, err := publicKeyFromExport(export)
	if err != nil {
		return fmt.Errorf("loading public key: %w", err)
	}

	start := time.Now()
	cts, err := knapsack.EncryptMessage(pk, msg)
	if err != nil {
		return fmt.Errorf("encrypting: %w", err)
	}
	if config.Timing {
		fmt.Fprintf(a.stderr, "Encryption took: %v\n", time.Since(start))
	}

	output, err := json.MarshalIndent(EncryptedExport{
		Fingerprint: hex.EncodeToString(knapsack.Fingerprint(pk)),
		Ciphertext:  cts,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	config.Logger.Info(context.Background(), "message encrypted", "blocks", len(cts))
	return a.writeOutput(output, config.OutputFile)
}

func (a *app) knapsackDecrypt(args []string) error {
	config, err := a.parseConfig(args)
	if err != nil {
		return err
	}
	skFile := getArg(args, "--secret-key", "-sk")
	ctFile := getArg(args, "--ciphertext", "-ct")
	if skFile == "" || ctFile == "" {
		return fmt.Errorf("%w: --secret-key and --ciphertext are required", errUsage)
	}

	export, err := loadKeyExport(skFile)
	if err != nil {
		return fmt.Errorf("loading secret key: %w", err)
	}
	if export.SecretKey == "" {
		return errors.New("loading secret key: file has no secret_key")
	}
	skBytes, err := hex.DecodeString(export.SecretKey)
	if err != nil {
		return fmt.Errorf("loading secret key: %w", err)
	}
	sk, err := knapsack.DeserializePrivateKey(skBytes)
	utils.Zeroize(skBytes)
	if err != nil {
		return fmt.Errorf("loading secret key: %w", err)
	}
	defer utils.ZeroizeUint64(sk.W)

	data, err := readFileLimited(ctFile)
	if err != nil {
		return fmt.Errorf("loading ciphertext: %w", err)
	}
	var enc EncryptedExport
	if err := json.Unmarshal(data, &enc); err != nil {
		return fmt.Errorf("loading ciphertext: %w", err)
	}

	pk := knapsack.GeneratePublicKey(sk)
	if enc.Fingerprint != "" {
		want, err := hex.DecodeString(enc.Fingerprint)
		if err != nil || !utils.ConstantTimeEqual(want, knapsack.Fingerprint(&pk)) {
			return errors.New("ciphertext was not produced for this key")
		}
	}

	start := time.Now()
	plaintext, err := knapsack.DecryptMessage(sk, enc.Ciphertext)
	if err != nil {
		return fmt.Errorf("decrypting: %w", err)
	}
	if config.Timing {
		fmt.Fprintf(a.stderr, "Decryption took: %v\n", time.Since(start))
	}
	return a.writeOutput(plaintext, config.OutputFile)
}

// ============================================================================
// Configuration and I/O
// ============================================================================

func (a *app) parseConfig(args []string) (CLIConfig, error) {
	config := CLIConfig{
		Level:    cipherlab.KS8,
		Language: cipherlab.English,
	}

	level := getArg(args, "--level", "-l")
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	if level != "" {
		parsed, err := parseLevel(level)
		if err != nil {
			return config, err
		}
		config.Level = parsed
	}

	lang := getArg(args, "--language", "")
	if lang == "" {
		lang = os.Getenv(EnvLanguage)
	}
	if lang != "" {
		config.Language = cipherlab.Language(strings.ToLower(lang))
	}

	config.OutputFile = getArg(args, "--output", "-o")
	config.InputFile = getArg(args, "--input", "-i")
	config.Verbose = hasFlag(args, "--verbose", "")
	config.Timing = hasFlag(args, "--timing", "-t")

	logLevel, err := logging.ParseLevel(os.Getenv(EnvLogLevel))
	if err != nil {
		return config, fmt.Errorf("%w: %s: %v", errUsage, EnvLogLevel, err)
	}
	if os.Getenv(EnvLogLevel) == "" {
		logLevel = slog.LevelWarn
	}
	if config.Verbose {
		logLevel = slog.LevelDebug
	}
	config.Logger = logging.NewText(a.stderr, logLevel)

	return config, nil
}

func parseLevel(s string) (cipherlab.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "8", "KS-8", "KS8", "KS_8":
		return cipherlab.KS8, nil
	case "16", "KS-16", "KS16", "KS_16":
		return cipherlab.KS16, nil
	case "32", "KS-32", "KS32", "KS_32":
		return cipherlab.KS32, nil
	default:
		return "", fmt.Errorf("%w: invalid level '%s'. Must be one of: 8, 16, 32", errUsage, s)
	}
}

func getArg(args []string, long, short string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == long || (short != "" && args[i] == short) {
			return args[i+1]
		}
	}
	return ""
}

func hasFlag(args []string, long, short string) bool {
	for _, arg := range args {
		if arg == long || (short != "" && arg == short) {
			return true
		}
	}
	return false
}

func getIntArg(args []string, long, short string, def int) (int, error) {
	s := getArg(args, long, short)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", errUsage, long, s)
	}
	return n, nil
}

// readInput returns --message, the --input file, or stdin, in that order.
func (a *app) readInput(args []string, config CLIConfig) ([]byte, error) {
	if msg := getArg(args, "--message", "-m"); msg != "" {
		return []byte(msg), nil
	}
	if config.InputFile != "" && config.InputFile != "-" {
		data, err := readFileLimited(config.InputFile)
		if err != nil {
			return nil, fmt.Errorf("reading input file: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(a.stdin, MaxInputFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading from stdin: %w", err)
	}
	if len(data) > MaxInputFileSize {
		return nil, fmt.Errorf("input too large: more than %d bytes", MaxInputFileSize)
	}
	return data, nil
}

func (a *app) readMessage(args []string, config CLIConfig) (string, error) {
	data, err := a.readInput(args, config)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func readFileLimited(filename string) ([]byte, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > MaxInputFileSize {
		return nil, fmt.Errorf("input file too large: %d > %d bytes", info.Size(), MaxInputFileSize)
	}
	return os.ReadFile(filename)
}

func loadKeyExport(filename string) (*KeyPairExport, error) {
	data, err := readFileLimited(filename)
	if err != nil {
		return nil, err
	}
	var export KeyPairExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("unable to parse key file: %w", err)
	}
	return &export, nil
}

// publicKeyFromExport decodes the public key and checks it against the
// recorded fingerprint, if any.
func publicKeyFromExport(export *KeyPairExport) (*cipherlab.PublicKey, error) {
	if export.PublicKey == "" {
		return nil, errors.New("file has no public_key")
	}
	pkBytes, err := hex.DecodeString(export.PublicKey)
	if err != nil {
		return nil, err
	}
	pk, err := knapsack.DeserializePublicKey(pkBytes)
	if err != nil {
		return nil, err
	}
	if export.Fingerprint != "" {
		want, err := hex.DecodeString(export.Fingerprint)
		if err != nil || !utils.ConstantTimeEqual(want, knapsack.Fingerprint(pk)) {
			return nil, errors.New("public key does not match its fingerprint")
		}
	}
	return pk, nil
}

func (a *app) writeOutput(data []byte, filename string) error {
	if filename == "" {
		fmt.Fprintln(a.stdout, string(data))
		return nil
	}
	// Output may hold key material.
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if err := os.Chmod(filename, 0600); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}
	return nil
}
