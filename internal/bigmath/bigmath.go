// Package bigmath implements the arbitrary-precision modular arithmetic the
// toy RSA is built on: square-and-multiply exponentiation, the extended
// Euclidean algorithm and modular inverses.
//
// Arguments are never mutated; every result is a freshly allocated *big.Int.
package bigmath

import (
	"errors"
	"math/big"
)

var (
	// ErrDivisionByZero is returned when a modulus of zero is supplied.
	ErrDivisionByZero = errors.New("bigmath: division by zero")
	// ErrInvalidModulus is returned for a negative modulus.
	ErrInvalidModulus = errors.New("bigmath: negative modulus")
	// ErrInvalidExponent is returned for a negative exponent.
	ErrInvalidExponent = errors.New("bigmath: negative exponent")
)

var bigOne = big.NewInt(1)

// ModPow computes base^exponent mod modulus by binary (square-and-multiply)
// exponentiation. The base is first reduced into [0, modulus), so negative
// bases are accepted.
func ModPow(base, exponent, modulus *big.Int) (*big.Int, error) {
	switch modulus.Sign() {
	case 0:
		return nil, ErrDivisionByZero
	case -1:
		return nil, ErrInvalidModulus
	}
	if exponent.Sign() < 0 {
		return nil, ErrInvalidExponent
	}
	if modulus.Cmp(bigOne) == 0 {
		return new(big.Int), nil
	}

	result := big.NewInt(1)
	b := new(big.Int).Mod(base, modulus) // Euclidean: always >= 0

	// Walk the exponent from the least significant bit upward.
	for i := 0; i < exponent.BitLen(); i++ {
		if exponent.Bit(i) == 1 {
			result.Mul(result, b)
			result.Mod(result, modulus)
		}
		b.Mul(b, b)
		b.Mod(b, modulus)
	}
	return result, nil
}

// ExtendedGCD returns (g, x, y) with a*x + b*y == g == gcd(a, b).
// For b == 0 the result is (a, 1, 0). Quotients truncate toward zero, so
// the coefficients match the textbook recursive formulation.
func ExtendedGCD(a, b *big.Int) (g, x, y *big.Int) {
	oldR, r := new(big.Int).Set(a), new(big.Int).Set(b)
	oldS, s := big.NewInt(1), big.NewInt(0)
	oldT, t := big.NewInt(0), big.NewInt(1)

	q := new(big.Int)
	tmp := new(big.Int)
	for r.Sign() != 0 {
		q.Quo(oldR, r)

		oldR, r = r, new(big.Int).Sub(oldR, tmp.Mul(q, r))
		oldS, s = s, new(big.Int).Sub(oldS, tmp.Mul(q, s))
		oldT, t = t, new(big.Int).Sub(oldT, tmp.Mul(q, t))
	}
	return oldR, oldS, oldT
}

// GCD returns the non-negative greatest common divisor of a and b.
func GCD(a, b *big.Int) *big.Int {
	g, _, _ := ExtendedGCD(a, b)
	return g.Abs(g)
}

// ModInverse returns the inverse of a modulo m in [0, m).
// ok is false when gcd(a, m) != 1 or m <= 0.
func ModInverse(a, m *big.Int) (inv *big.Int, ok bool) {
	if m.Sign() <= 0 {
		return nil, false
	}
	// With a reduced into [0, m) every remainder stays non-negative, so the
	// gcd comes out as +1 rather than -1.
	g, x, _ := ExtendedGCD(new(big.Int).Mod(a, m), m)
	if g.Cmp(bigOne) != 0 {
		return nil, false
	}
	return x.Mod(x, m), true
}
