package freq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []LetterCount
	}{
		{"basic", "AAB", []LetterCount{{'A', 2}, {'B', 1}}},
		{"case insensitive", "aAb", []LetterCount{{'A', 2}, {'B', 1}}},
		{"ignores non letters", "a1 b!?-é", []LetterCount{{'A', 1}, {'B', 1}}},
		{"ties keep discovery order", "cabbac", []LetterCount{{'C', 2}, {'A', 2}, {'B', 2}}},
		{"descending", "xyyzzz", []LetterCount{{'Z', 3}, {'Y', 2}, {'X', 1}}},
		{"empty", "", nil},
		{"no letters", "123 !?", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Of(tt.text))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "A: 2\nB: 1", Format(Of("AAB")))
	assert.Equal(t, "(no letters)", Format(nil))
}

func TestEnglish(t *testing.T) {
	en := English()
	require.NoError(t, en.Validate())
	assert.Len(t, en, 26)
	assert.InDelta(t, 12.702, en['E'], 1e-9)
	assert.InDelta(t, 0.074, en.Min(), 1e-9)

	// English hands out copies.
	en['E'] = 0
	assert.InDelta(t, 12.702, English()['E'], 1e-9)
}

func TestWeight(t *testing.T) {
	en := English()

	w, ok := en.Weight('t')
	assert.True(t, ok)
	assert.InDelta(t, 9.056, w, 1e-9)

	_, ok = en.Weight('!')
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Table{}.Validate(), ErrInvalidTable)
	assert.ErrorIs(t, Table{'a': 1}.Validate(), ErrInvalidTable)
	assert.ErrorIs(t, Table{'A': 0}.Validate(), ErrInvalidTable)
	assert.ErrorIs(t, Table{'A': -2}.Validate(), ErrInvalidTable)
	assert.NoError(t, Table{'A': 1, 'B': 0.5}.Validate())
}

func TestParseTable(t *testing.T) {
	tbl, err := ParseTable([]byte("e: 12.5\nT: 9\n"))
	require.NoError(t, err)
	assert.Equal(t, Table{'E': 12.5, 'T': 9}, tbl)

	_, err = ParseTable([]byte("EE: 1\n"))
	assert.ErrorIs(t, err, ErrInvalidTable)

	_, err = ParseTable([]byte("'1': 1\n"))
	assert.ErrorIs(t, err, ErrInvalidTable)

	_, err = ParseTable([]byte("A: [1, 2]\n"))
	assert.Error(t, err)
}

func TestParseTableRejectsCaseDuplicates(t *testing.T) {
	// Map order would otherwise decide which weight survives.
	for range 50 {
		_, err := ParseTable([]byte("a: 1\nA: 2\nB: 3\n"))
		require.ErrorIs(t, err, ErrInvalidTable)
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "freq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("A: 3\nB: 1\n"), 0o600))

	tbl, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, Table{'A': 3, 'B': 1}, tbl)

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
