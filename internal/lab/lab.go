// Package lab exposes the toy RSA operations a classroom session performs:
// key generation, encryption, decryption with the private key, and the
// statistical decode that works from the public key alone.
//
// No key state lives here. Every call takes the key it operates on.
package lab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/rsalab/internal/attack"
	"github.com/udisondev/rsalab/internal/codec"
	"github.com/udisondev/rsalab/internal/crypto"
	"github.com/udisondev/rsalab/internal/freq"
)

// ErrEmptyCiphertext is returned when there is nothing to decrypt or decode.
var ErrEmptyCiphertext = errors.New("empty ciphertext")

// Operation names a recorded lab action.
type Operation string

const (
	OpGenerateKeys      Operation = "generate_keys"
	OpEncrypt           Operation = "encrypt"
	OpDecrypt           Operation = "decrypt"
	OpStatisticalDecode Operation = "statistical_decode"
)

// Run is one recorded operation.
type Run struct {
	ID             uuid.UUID
	Operation      Operation
	KeyFingerprint string
	Input          string
	Output         string
	CreatedAt      time.Time
}

// History persists keys and runs. Only public key parts are ever passed in.
type History interface {
	SaveKey(ctx context.Context, pub crypto.PublicKey, size crypto.PrimeSize) error
	SaveRun(ctx context.Context, run Run) error
}

// Service runs lab operations.
type Service struct {
	exponents []int64
	table     freq.Table
	opts      []attack.Option
	workers   int
	history   History
	log       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithExponents overrides crypto.DefaultExponents for key generation.
func WithExponents(exps []int64) Option {
	return func(s *Service) { s.exponents = append([]int64(nil), exps...) }
}

// WithTable replaces the English reference table.
func WithTable(t freq.Table) Option {
	return func(s *Service) { s.table = t }
}

// WithDecoderOptions passes options to every decoder the service builds.
func WithDecoderOptions(opts ...attack.Option) Option {
	return func(s *Service) { s.opts = append(s.opts, opts...) }
}

// WithWorkers bounds batch decode concurrency.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithHistory records every successful operation.
func WithHistory(h History) Option {
	return func(s *Service) { s.history = h }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a Service.
func NewService(opts ...Option) *Service {
	s := &Service{
		exponents: crypto.DefaultExponents,
		table:     freq.English(),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateKeys derives key material from the curated primes for size.
func (s *Service) GenerateKeys(ctx context.Context, size crypto.PrimeSize) (*crypto.KeyMaterial, error) {
	pair, err := crypto.GenerateKeysWithExponents(size, s.exponents)
	if err != nil {
		return nil, fmt.Errorf("generating keys: %w", err)
	}

	pub := pair.Public()
	s.log.Info("keys generated", "size", size, "public", pub, "fingerprint", pub.Fingerprint())

	if s.history != nil {
		if err := s.history.SaveKey(ctx, pub, size); err != nil {
			return nil, fmt.Errorf("recording key: %w", err)
		}
	}
	if err := s.record(ctx, pub, OpGenerateKeys, string(size), pub.String()); err != nil {
		return nil, err
	}
	return pair, nil
}

// EncryptMessage encrypts plaintext one character per block and returns the
// hex wire form.
func (s *Service) EncryptMessage(ctx context.Context, plaintext string, key *crypto.KeyMaterial) (string, error) {
	blocks, err := crypto.EncryptBlocks(codec.Encode(plaintext), key.Public())
	if err != nil {
		return "", fmt.Errorf("encrypting message: %w", err)
	}
	ciphertext := codec.SerializeHex(blocks)

	s.log.Debug("message encrypted", "blocks", len(blocks), "fingerprint", key.Public().Fingerprint())

	if err := s.record(ctx, key.Public(), OpEncrypt, plaintext, ciphertext); err != nil {
		return "", err
	}
	return ciphertext, nil
}

// DecryptWithPrivate decrypts the hex wire form with the private exponent.
func (s *Service) DecryptWithPrivate(ctx context.Context, ciphertext string, key *crypto.KeyMaterial) (string, error) {
	if strings.TrimSpace(ciphertext) == "" {
		return "", ErrEmptyCiphertext
	}
	blocks, err := codec.ParseHex(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decrypting message: %w", err)
	}
	plain, err := crypto.DecryptBlocks(blocks, key)
	if err != nil {
		return "", fmt.Errorf("decrypting message: %w", err)
	}
	text, err := codec.Decode(plain)
	if err != nil {
		return "", fmt.Errorf("decrypting message: %w", err)
	}

	s.log.Debug("message decrypted", "blocks", len(blocks), "fingerprint", key.Public().Fingerprint())

	if err := s.record(ctx, key.Public(), OpDecrypt, ciphertext, text); err != nil {
		return "", err
	}
	return text, nil
}

// StatisticalDecode attacks ciphertext with only the public key.
func (s *Service) StatisticalDecode(ctx context.Context, ciphertext string, pub crypto.PublicKey) (attack.Result, error) {
	if strings.TrimSpace(ciphertext) == "" {
		return attack.Result{}, ErrEmptyCiphertext
	}
	dec, err := s.decoder(pub)
	if err != nil {
		return attack.Result{}, err
	}
	res, err := dec.DecodeHex(ciphertext)
	if err != nil {
		return attack.Result{}, fmt.Errorf("statistical decode: %w", err)
	}

	s.log.Info("statistical decode finished",
		"blocks", len(res.Blocks),
		"ambiguous", res.Ambiguous(),
		"unresolved", res.Unresolved(),
		"fingerprint", pub.Fingerprint(),
	)

	if err := s.record(ctx, pub, OpStatisticalDecode, ciphertext, res.Text); err != nil {
		return attack.Result{}, err
	}
	return res, nil
}

// StatisticalDecodeBatch decodes several ciphertext messages under one key
// concurrently. Results keep input order.
func (s *Service) StatisticalDecodeBatch(ctx context.Context, ciphertexts []string, pub crypto.PublicKey) ([]attack.Result, error) {
	for i, ct := range ciphertexts {
		if strings.TrimSpace(ct) == "" {
			return nil, fmt.Errorf("message %d: %w", i, ErrEmptyCiphertext)
		}
	}
	dec, err := s.decoder(pub)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := attack.DecodeBatch(ctx, dec, ciphertexts, s.workers)
	if err != nil {
		return nil, fmt.Errorf("statistical decode: %w", err)
	}
	s.log.Info("batch decode finished", "messages", len(results), "workers", s.workers, "elapsed", time.Since(start))

	for i, res := range results {
		if err := s.record(ctx, pub, OpStatisticalDecode, ciphertexts[i], res.Text); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// FrequencyOf counts letters in text; see freq.Of.
func FrequencyOf(text string) []freq.LetterCount {
	return freq.Of(text)
}

func (s *Service) decoder(pub crypto.PublicKey) (*attack.Decoder, error) {
	dec, err := attack.NewDecoder(pub, s.table, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("building decoder: %w", err)
	}
	return dec, nil
}

// record stores a run. Recording failures fail the operation.
func (s *Service) record(ctx context.Context, pub crypto.PublicKey, op Operation, input, output string) error {
	if s.history == nil {
		return nil
	}
	if op != OpGenerateKeys {
		// Keys used without a prior generate (e.g. a bare public key) still
		// need a row for the run to reference.
		if err := s.history.SaveKey(ctx, pub, ""); err != nil {
			return fmt.Errorf("recording key: %w", err)
		}
	}
	run := Run{
		ID:             uuid.New(),
		Operation:      op,
		KeyFingerprint: pub.Fingerprint(),
		Input:          input,
		Output:         output,
		CreatedAt:      time.Now(),
	}
	if err := s.history.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("recording %s run: %w", op, err)
	}
	return nil
}
