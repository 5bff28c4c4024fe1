// Package freq holds the reference English letter distribution and counts
// letter frequencies in text.
package freq

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

var ErrInvalidTable = errors.New("invalid frequency table")

// Table maps an uppercase letter A-Z to a relative weight. It is a heuristic
// prior, never ground truth.
type Table map[rune]float64

// english is the reference distribution in percent.
var english = Table{
	'A': 8.167, 'B': 1.492, 'C': 2.782, 'D': 4.253, 'E': 12.702, 'F': 2.228,
	'G': 2.015, 'H': 6.094, 'I': 6.966, 'J': 0.153, 'K': 0.772, 'L': 4.025,
	'M': 2.406, 'N': 6.749, 'O': 7.507, 'P': 1.929, 'Q': 0.095, 'R': 5.987,
	'S': 6.327, 'T': 9.056, 'U': 2.758, 'V': 0.978, 'W': 2.360, 'X': 0.150,
	'Y': 1.974, 'Z': 0.074,
}

// English returns a fresh copy of the reference English distribution.
func English() Table {
	t := make(Table, len(english))
	for k, v := range english {
		t[k] = v
	}
	return t
}

// Weight returns the weight of r (case-insensitive) and whether the table
// has an entry for it.
func (t Table) Weight(r rune) (float64, bool) {
	w, ok := t[unicode.ToUpper(r)]
	return w, ok
}

// Min returns the smallest weight in the table, or +Inf for an empty table.
func (t Table) Min() float64 {
	m := math.Inf(1)
	for _, w := range t {
		m = min(m, w)
	}
	return m
}

// Validate checks that only A-Z are present and every weight is positive.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidTable)
	}
	for r, w := range t {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("%w: key %q is not an uppercase letter", ErrInvalidTable, r)
		}
		if !(w > 0) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight of %q is %v", ErrInvalidTable, r, w)
		}
	}
	return nil
}

// LoadTable reads a YAML mapping such as {E: 12.7, T: 9.1, ...}.
// Keys are single letters in either case.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading frequency table %s: %w", path, err)
	}
	return ParseTable(data)
}

// ParseTable parses the YAML form accepted by LoadTable.
func ParseTable(data []byte) (Table, error) {
	var raw map[string]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing frequency table: %w", err)
	}

	t := make(Table, len(raw))
	for k, w := range raw {
		runes := []rune(strings.TrimSpace(k))
		if len(runes) != 1 {
			return nil, fmt.Errorf("%w: key %q is not a single letter", ErrInvalidTable, k)
		}
		r := unicode.ToUpper(runes[0])
		if _, dup := t[r]; dup {
			return nil, fmt.Errorf("%w: letter %c listed more than once", ErrInvalidTable, r)
		}
		t[r] = w
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// LetterCount is one row of a frequency report.
type LetterCount struct {
	Letter rune
	Count  int
}

// Of counts the letters A-Z in text, ignoring case and everything else.
// Rows are sorted by descending count; equal counts keep the order in which
// the letters first appeared.
func Of(text string) []LetterCount {
	var counts []LetterCount
	index := make(map[rune]int)
	for _, r := range text {
		r = unicode.ToUpper(r)
		if r < 'A' || r > 'Z' {
			continue
		}
		if i, ok := index[r]; ok {
			counts[i].Count++
			continue
		}
		index[r] = len(counts)
		counts = append(counts, LetterCount{Letter: r, Count: 1})
	}

	slices.SortStableFunc(counts, func(a, b LetterCount) int {
		return b.Count - a.Count
	})
	return counts
}

// Format renders counts one "L: n" line per letter, or "(no letters)".
func Format(counts []LetterCount) string {
	if len(counts) == 0 {
		return "(no letters)"
	}
	lines := make([]string, len(counts))
	for i, c := range counts {
		lines[i] = fmt.Sprintf("%c: %d", c.Letter, c.Count)
	}
	return strings.Join(lines, "\n")
}
