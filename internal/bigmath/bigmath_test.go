package bigmath

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModPow(t *testing.T) {
	tests := []struct {
		name     string
		base     int64
		exponent int64
		modulus  int64
		want     int64
	}{
		{"textbook", 4, 13, 497, 445},
		{"rsa encrypt A", 65, 17, 3233, 2790},
		{"rsa decrypt A", 2790, 2753, 3233, 65},
		{"zero exponent", 7, 0, 13, 1},
		{"modulus one", 7, 5, 1, 0},
		{"zero base", 0, 5, 13, 0},
		{"negative base", -2, 3, 7, 6}, // -8 mod 7
		{"base above modulus", 20, 2, 7, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ModPow(big.NewInt(tt.base), big.NewInt(tt.exponent), big.NewInt(tt.modulus))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Int64())
		})
	}
}

func TestModPowMatchesNaive(t *testing.T) {
	for m := int64(2); m <= 40; m++ {
		for a := int64(0); a < 12; a++ {
			for b := int64(0); b < 12; b++ {
				naive := int64(1)
				for range b {
					naive = naive * a % m
				}
				got, err := ModPow(big.NewInt(a), big.NewInt(b), big.NewInt(m))
				require.NoError(t, err)
				require.Equalf(t, naive, got.Int64(), "%d^%d mod %d", a, b, m)
			}
		}
	}
}

func TestModPowMatchesExp(t *testing.T) {
	base, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	exp, _ := new(big.Int).SetString("98765432109876543210", 10)
	mod, _ := new(big.Int).SetString("1000000000000000000000000000057", 10)

	got, err := ModPow(base, exp, mod)
	require.NoError(t, err)
	assert.Zero(t, got.Cmp(new(big.Int).Exp(base, exp, mod)))
}

func TestModPowErrors(t *testing.T) {
	_, err := ModPow(big.NewInt(3), big.NewInt(2), big.NewInt(0))
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = ModPow(big.NewInt(3), big.NewInt(2), big.NewInt(-5))
	assert.ErrorIs(t, err, ErrInvalidModulus)

	_, err = ModPow(big.NewInt(3), big.NewInt(-1), big.NewInt(5))
	assert.ErrorIs(t, err, ErrInvalidExponent)
}

func TestModPowDoesNotMutateArguments(t *testing.T) {
	base, exp, mod := big.NewInt(65), big.NewInt(17), big.NewInt(3233)
	_, err := ModPow(base, exp, mod)
	require.NoError(t, err)

	assert.Equal(t, int64(65), base.Int64())
	assert.Equal(t, int64(17), exp.Int64())
	assert.Equal(t, int64(3233), mod.Int64())
}

func TestExtendedGCD(t *testing.T) {
	t.Run("base case", func(t *testing.T) {
		g, x, y := ExtendedGCD(big.NewInt(42), big.NewInt(0))
		assert.Equal(t, int64(42), g.Int64())
		assert.Equal(t, int64(1), x.Int64())
		assert.Equal(t, int64(0), y.Int64())
	})

	t.Run("bezout identity", func(t *testing.T) {
		for a := int64(-30); a <= 30; a++ {
			for b := int64(-30); b <= 30; b++ {
				if a == 0 || b == 0 {
					continue
				}
				g, x, y := ExtendedGCD(big.NewInt(a), big.NewInt(b))

				lhs := new(big.Int).Mul(big.NewInt(a), x)
				lhs.Add(lhs, new(big.Int).Mul(big.NewInt(b), y))
				require.Zerof(t, lhs.Cmp(g), "a=%d b=%d", a, b)

				want := new(big.Int).GCD(nil, nil, new(big.Int).Abs(big.NewInt(a)), new(big.Int).Abs(big.NewInt(b)))
				require.Zerof(t, new(big.Int).Abs(g).Cmp(want), "gcd(%d, %d)", a, b)
			}
		}
	})

	t.Run("rsa exponent", func(t *testing.T) {
		g, x, _ := ExtendedGCD(big.NewInt(17), big.NewInt(3120))
		assert.Equal(t, int64(1), g.Int64())
		assert.Equal(t, int64(-367), x.Int64()) // -367 + 3120 == 2753
	})
}

func TestGCD(t *testing.T) {
	assert.Equal(t, int64(6), GCD(big.NewInt(-12), big.NewInt(18)).Int64())
	assert.Equal(t, int64(1), GCD(big.NewInt(65537), big.NewInt(10812)).Int64())
	assert.Equal(t, int64(3), GCD(big.NewInt(3), big.NewInt(0)).Int64())
}

func TestModInverse(t *testing.T) {
	inv, ok := ModInverse(big.NewInt(17), big.NewInt(3120))
	require.True(t, ok)
	assert.Equal(t, int64(2753), inv.Int64())

	_, ok = ModInverse(big.NewInt(6), big.NewInt(9))
	assert.False(t, ok)

	_, ok = ModInverse(big.NewInt(3), big.NewInt(0))
	assert.False(t, ok)

	inv, ok = ModInverse(big.NewInt(-1), big.NewInt(7))
	require.True(t, ok)
	assert.Equal(t, int64(6), inv.Int64())
}

func TestModInverseProperty(t *testing.T) {
	for m := int64(2); m <= 60; m++ {
		for a := int64(-20); a <= 80; a++ {
			inv, ok := ModInverse(big.NewInt(a), big.NewInt(m))
			coprime := new(big.Int).GCD(nil, nil, new(big.Int).Abs(big.NewInt(a)), big.NewInt(m)).Int64() == 1
			require.Equalf(t, coprime, ok, "a=%d m=%d", a, m)
			if !ok {
				continue
			}
			require.True(t, inv.Sign() >= 0 && inv.Int64() < m)

			prod := new(big.Int).Mul(big.NewInt(a), inv)
			require.Equalf(t, int64(1), prod.Mod(prod, big.NewInt(m)).Int64(), "a=%d m=%d", a, m)
		}
	}
}

func BenchmarkModPow(b *testing.B) {
	base, exp, mod := big.NewInt(90), big.NewInt(65537), big.NewInt(11021)
	b.ReportAllocs()
	for b.Loop() {
		_, _ = ModPow(base, exp, mod)
	}
}
