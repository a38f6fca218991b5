package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsStayInRangeAndAreDeterministic(t *testing.T) {
	for _, alg := range []Algorithm{Simplex, Perlin} {
		for _, style := range []Style{FBM, Ridged, Billow} {
			p := DefaultParams()
			p.Algorithm, p.Style = alg, style

			a, b := New(42, p), New(42, p)
			for i := 0; i < 50; i++ {
				x, y := float64(i)/50, float64(50-i)/50
				v := a.Eval(x, y)
				assert.GreaterOrEqual(t, v, -1.0)
				assert.LessOrEqual(t, v, 1.0)
				assert.Equal(t, v, b.Eval(x, y))
			}
		}
	}
}

func TestSeedsDiffer(t *testing.T) {
	a, b := New(1, DefaultParams()), New(2, DefaultParams())
	diff := 0
	for i := 0; i < 20; i++ {
		x := float64(i) / 20
		if a.Eval(x, 0.37) != b.Eval(x, 0.37) {
			diff++
		}
	}
	assert.Positive(t, diff)
}

func TestParse(t *testing.T) {
	alg, err := ParseAlgorithm("perlin")
	require.NoError(t, err)
	assert.Equal(t, Perlin, alg)

	style, err := ParseStyle("ridged")
	require.NoError(t, err)
	assert.Equal(t, Ridged, style)

	_, err = ParseAlgorithm("value")
	assert.Error(t, err)
	_, err = ParseStyle("terraced")
	assert.Error(t, err)
}
