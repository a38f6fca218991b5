package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamesDistinct(t *testing.T) {
	g := NewSyllable(7)
	got := g.Names(50, City)
	require.Len(t, got, 50)

	seen := map[string]bool{}
	for _, n := range got {
		assert.False(t, seen[n], "duplicate %q", n)
		seen[n] = true
	}
}

func TestNamesExhaustTables(t *testing.T) {
	g := NewSyllable(1)
	tb := byCategory[River]
	total := len(tb.prefixes)*len(tb.suffixes) + 10

	got := g.Names(total, River)
	require.Len(t, got, total)
	seen := map[string]bool{}
	for _, n := range got {
		require.False(t, seen[n], "duplicate %q", n)
		seen[n] = true
	}
}

func TestNamesDeterministic(t *testing.T) {
	a := NewSyllable(99).Names(5, Kingdom)
	b := NewSyllable(99).Names(5, Kingdom)
	assert.Equal(t, a, b)
}
