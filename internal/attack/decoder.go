// Package attack recovers plaintext from toy RSA ciphertext using only the
// public key.
//
// The modulus is tiny, so every value of a small plaintext alphabet can be
// encrypted up front; a ciphertext block then maps back to the alphabet
// values that produce it. When several values collide under the same
// modulus, the reference letter-frequency table picks the most likely one.
// The result is a statistical guess, not a guaranteed decryption.
package attack

import (
	"errors"
	"fmt"
	"math/big"
	"unicode"

	"github.com/udisondev/rsalab/internal/bigmath"
	"github.com/udisondev/rsalab/internal/codec"
	"github.com/udisondev/rsalab/internal/crypto"
	"github.com/udisondev/rsalab/internal/freq"
)

// Unresolved is emitted for a block with no candidate.
const Unresolved = '?'

// DefaultFallbackWeight scores candidates that are not letters. It is below
// every letter of the English table so letters always win.
const DefaultFallbackWeight = 0.001

var (
	ErrInvalidDomain    = errors.New("invalid search domain")
	ErrFallbackTooHeavy = errors.New("fallback weight must be below every letter weight")
	ErrInvalidPublicKey = errors.New("invalid public key")
)

// Domain is the inclusive range of plaintext code points searched.
type Domain struct {
	Min, Max int64
}

// PrintableASCII is the default domain: space through tilde, 95 values.
var PrintableASCII = Domain{Min: 32, Max: 126}

// Size returns the number of values in the domain.
func (d Domain) Size() int {
	return int(d.Max - d.Min + 1)
}

func (d Domain) validate() error {
	if d.Min < 0 || d.Max < d.Min || d.Max > unicode.MaxRune {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidDomain, d.Min, d.Max)
	}
	return nil
}

// CandidateSet lists, in ascending order, every domain value whose
// encryption equals one observed ciphertext block.
type CandidateSet []int64

// Ambiguous reports whether more than one plaintext value collides.
func (s CandidateSet) Ambiguous() bool { return len(s) > 1 }

// Option configures a Decoder.
type Option func(*Decoder)

// WithDomain overrides PrintableASCII.
func WithDomain(d Domain) Option {
	return func(dec *Decoder) { dec.domain = d }
}

// WithFallbackWeight overrides DefaultFallbackWeight.
func WithFallbackWeight(w float64) Option {
	return func(dec *Decoder) { dec.fallback = w }
}

// Decoder attacks ciphertext produced under one public key. It is read-only
// after construction and safe for concurrent use.
type Decoder struct {
	table    freq.Table
	domain   Domain
	fallback float64

	// codebook maps the hex image m^e mod n to every m in the domain that
	// produces it.
	codebook map[string]CandidateSet
}

// NewDecoder runs the exhaustive search over the domain once and returns a
// decoder for pub. It never needs, and cannot receive, the private exponent.
func NewDecoder(pub crypto.PublicKey, table freq.Table, opts ...Option) (*Decoder, error) {
	dec := &Decoder{
		table:    table,
		domain:   PrintableASCII,
		fallback: DefaultFallbackWeight,
	}
	for _, opt := range opts {
		opt(dec)
	}

	if pub.E == nil || pub.N == nil || pub.N.Sign() <= 0 || pub.E.Sign() < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, pub)
	}
	if err := dec.domain.validate(); err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if !(dec.fallback < table.Min()) {
		return nil, fmt.Errorf("%w: fallback %v, lightest letter %v", ErrFallbackTooHeavy, dec.fallback, table.Min())
	}

	dec.codebook = make(map[string]CandidateSet)
	for m := dec.domain.Min; m <= dec.domain.Max; m++ {
		c, err := bigmath.ModPow(big.NewInt(m), pub.E, pub.N)
		if err != nil {
			return nil, fmt.Errorf("encrypting candidate %d: %w", m, err)
		}
		key := c.Text(16)
		dec.codebook[key] = append(dec.codebook[key], m)
	}
	return dec, nil
}

// Domain returns the searched plaintext range.
func (d *Decoder) Domain() Domain { return d.domain }

// Candidates returns every domain value m with m^e mod n == c.
// The returned slice is a copy.
func (d *Decoder) Candidates(c *big.Int) CandidateSet {
	set := d.codebook[c.Text(16)]
	if len(set) == 0 {
		return nil
	}
	return append(CandidateSet(nil), set...)
}

// Score returns the frequency weight used to rank candidate m.
func (d *Decoder) Score(m int64) float64 {
	r := rune(m)
	if !isLetter(r) {
		return d.fallback
	}
	if w, ok := d.table.Weight(r); ok {
		return w
	}
	return d.fallback
}

// Choose picks the candidate with the strictly highest score; the earliest
// one wins a tie. An empty set yields Unresolved and false.
func (d *Decoder) Choose(set CandidateSet) (rune, bool) {
	if len(set) == 0 {
		return Unresolved, false
	}
	best := set[0]
	bestScore := d.Score(best)
	for _, m := range set[1:] {
		if s := d.Score(m); s > bestScore {
			best, bestScore = m, s
		}
	}
	return rune(best), true
}

// Decode attacks a sequence of ciphertext blocks. It always completes:
// blocks without a candidate become Unresolved in the text.
func (d *Decoder) Decode(blocks []*big.Int) Result {
	res := Result{Blocks: make([]BlockResult, len(blocks))}
	text := make([]rune, len(blocks))
	for i, c := range blocks {
		set := d.Candidates(c)
		choice, _ := d.Choose(set)
		text[i] = choice
		res.Blocks[i] = BlockResult{
			Cipher:     new(big.Int).Set(c),
			Candidates: set,
			Choice:     choice,
			Status:     statusOf(set),
		}
	}
	res.Text = string(text)
	return res
}

// DecodeHex parses the wire form and decodes it. A malformed token fails the
// whole call; nothing is decoded partially.
func (d *Decoder) DecodeHex(ciphertext string) (Result, error) {
	blocks, err := codec.ParseHex(ciphertext)
	if err != nil {
		return Result{}, fmt.Errorf("parsing ciphertext: %w", err)
	}
	return d.Decode(blocks), nil
}

// isLetter matches what upper-casing a single code point and looking it up
// in an A-Z table can hit.
func isLetter(r rune) bool {
	u := unicode.ToUpper(r)
	return 'A' <= u && u <= 'Z'
}
