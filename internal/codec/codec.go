// Package codec maps text to per-character numeric blocks and blocks to the
// space-separated hexadecimal wire form.
package codec

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidCodePoint = errors.New("invalid code point")
	ErrMalformedToken   = errors.New("malformed hex token")
)

// Encode returns one block per Unicode code point of text, in order.
// No merging and no padding.
func Encode(text string) []*big.Int {
	blocks := make([]*big.Int, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		blocks = append(blocks, big.NewInt(int64(r)))
	}
	return blocks
}

// Decode is the inverse of Encode. Every block must be a valid Unicode
// scalar value; surrogate halves are rejected since a Go string cannot hold
// them.
func Decode(blocks []*big.Int) (string, error) {
	var sb strings.Builder
	sb.Grow(len(blocks))
	for i, b := range blocks {
		if !b.IsInt64() || b.Int64() < 0 || b.Int64() > utf8.MaxRune || !utf8.ValidRune(rune(b.Int64())) {
			return "", fmt.Errorf("%w: block %d = %s", ErrInvalidCodePoint, i, b)
		}
		sb.WriteRune(rune(b.Int64()))
	}
	return sb.String(), nil
}

// SerializeHex renders blocks as lowercase 0x-prefixed tokens separated by
// single spaces.
func SerializeHex(blocks []*big.Int) string {
	tokens := make([]string, len(blocks))
	for i, b := range blocks {
		tokens[i] = "0x" + b.Text(16)
	}
	return strings.Join(tokens, " ")
}

// ParseHex splits s on whitespace and reads every token as hexadecimal.
// The 0x/0X prefix is optional: "10" parses as 16, not 10.
func ParseHex(s string) ([]*big.Int, error) {
	fields := strings.Fields(s)
	blocks := make([]*big.Int, len(fields))
	for i, tok := range fields {
		digits := tok
		if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
			digits = digits[2:]
		}
		if !isHexDigits(digits) {
			return nil, fmt.Errorf("%w: token %d %q", ErrMalformedToken, i, tok)
		}
		v, ok := new(big.Int).SetString(digits, 16)
		if !ok {
			return nil, fmt.Errorf("%w: token %d %q", ErrMalformedToken, i, tok)
		}
		blocks[i] = v
	}
	return blocks, nil
}

// isHexDigits rejects the signs and underscores big.Int.SetString would
// otherwise let through.
func isHexDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		default:
			return false
		}
	}
	return true
}
