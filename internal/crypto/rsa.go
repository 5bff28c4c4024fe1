package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/sha3"

	"github.com/udisondev/rsalab/internal/bigmath"
)

var (
	ErrUnknownPrimeSize    = errors.New("unknown prime size")
	ErrInvalidPrime        = errors.New("prime must be greater than 1")
	ErrNoValidExponent     = errors.New("no public exponent is coprime to phi")
	ErrKeyGenerationFailed = errors.New("key generation failed")
)

// DefaultExponents is the public exponent preference list; the first one
// coprime to phi is used.
var DefaultExponents = []int64{65537, 17, 3}

// PrimeSize selects one of the curated prime pairs.
type PrimeSize string

const (
	SizeSmall  PrimeSize = "small"
	SizeMedium PrimeSize = "medium"
)

// curatedPrimes are fixed so that a demo run always produces usable keys.
// They are small on purpose: the statistical decoder relies on it.
var curatedPrimes = map[PrimeSize][2]int64{
	SizeSmall:  {103, 107},
	SizeMedium: {151, 179},
}

// ParsePrimeSize converts a config or flag value into a PrimeSize.
func ParsePrimeSize(s string) (PrimeSize, error) {
	size := PrimeSize(s)
	if _, ok := curatedPrimes[size]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrimeSize, s)
	}
	return size, nil
}

// PublicKey is the (e, n) pair. It is everything the statistical decoder is
// allowed to see.
type PublicKey struct {
	E *big.Int
	N *big.Int
}

// String formats the key as "(e, n)".
func (pk PublicKey) String() string {
	return fmt.Sprintf("(%s, %s)", pk.E, pk.N)
}

// Fingerprint returns a short SHA3-256 digest of the key, used to refer to
// keys in logs and in the session history.
func (pk PublicKey) Fingerprint() string {
	sum := sha3.Sum256([]byte(pk.N.Text(16) + ":" + pk.E.Text(16)))
	return hex.EncodeToString(sum[:8])
}

// KeyMaterial holds a toy RSA key pair. It is immutable after construction;
// accessors hand out copies so callers cannot alter the key.
type KeyMaterial struct {
	p, q, n, phi, e, d *big.Int
	size               PrimeSize
}

// GenerateKeys derives key material from the curated prime pair for size.
func GenerateKeys(size PrimeSize) (*KeyMaterial, error) {
	return GenerateKeysWithExponents(size, DefaultExponents)
}

// GenerateKeysWithExponents is GenerateKeys with a custom exponent
// preference list.
func GenerateKeysWithExponents(size PrimeSize, exponents []int64) (*KeyMaterial, error) {
	pair, ok := curatedPrimes[size]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrimeSize, size)
	}
	km, err := NewKeyMaterialWithExponents(big.NewInt(pair[0]), big.NewInt(pair[1]), exponents)
	if err != nil {
		return nil, err
	}
	km.size = size
	return km, nil
}

// NewKeyMaterial derives a key pair from p and q using DefaultExponents.
func NewKeyMaterial(p, q *big.Int) (*KeyMaterial, error) {
	return NewKeyMaterialWithExponents(p, q, DefaultExponents)
}

// NewKeyMaterialWithExponents derives a key pair from p and q, choosing the
// first exponent in exponents that is coprime to phi.
// p and q are not checked for primality.
func NewKeyMaterialWithExponents(p, q *big.Int, exponents []int64) (*KeyMaterial, error) {
	one := big.NewInt(1)
	if p.Cmp(one) <= 0 || q.Cmp(one) <= 0 {
		return nil, fmt.Errorf("%w: p=%s q=%s", ErrInvalidPrime, p, q)
	}

	n := new(big.Int).Mul(p, q)
	phi := new(big.Int).Mul(
		new(big.Int).Sub(p, one),
		new(big.Int).Sub(q, one),
	)

	var e *big.Int
	for _, candidate := range exponents {
		c := big.NewInt(candidate)
		if c.Sign() <= 0 {
			continue
		}
		if bigmath.GCD(c, phi).Cmp(one) == 0 {
			e = c
			break
		}
	}
	if e == nil {
		return nil, fmt.Errorf("%w: phi=%s exponents=%v", ErrNoValidExponent, phi, exponents)
	}

	d, ok := bigmath.ModInverse(e, phi)
	if !ok {
		return nil, fmt.Errorf("%w: e=%s has no inverse mod %s", ErrKeyGenerationFailed, e, phi)
	}

	return &KeyMaterial{
		p:   new(big.Int).Set(p),
		q:   new(big.Int).Set(q),
		n:   n,
		phi: phi,
		e:   e,
		d:   d,
	}, nil
}

func (k *KeyMaterial) P() *big.Int   { return new(big.Int).Set(k.p) }
func (k *KeyMaterial) Q() *big.Int   { return new(big.Int).Set(k.q) }
func (k *KeyMaterial) N() *big.Int   { return new(big.Int).Set(k.n) }
func (k *KeyMaterial) Phi() *big.Int { return new(big.Int).Set(k.phi) }
func (k *KeyMaterial) E() *big.Int   { return new(big.Int).Set(k.e) }

// D returns the private exponent. Only DecryptBlocks and key display use it.
func (k *KeyMaterial) D() *big.Int { return new(big.Int).Set(k.d) }

// Size returns the curated size the key came from, or "" for custom primes.
func (k *KeyMaterial) Size() PrimeSize { return k.size }

// Public returns a copy of the (e, n) pair.
func (k *KeyMaterial) Public() PublicKey {
	return PublicKey{E: k.E(), N: k.N()}
}
