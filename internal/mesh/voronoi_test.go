package mesh

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/realmgen/internal/geom"
)

func randomPoints(seed int64, n int, w, h float64) []geom.Vec2 {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]geom.Vec2, n)
	for i := range pts {
		pts[i] = geom.Vec2{X: rng.Float64() * w, Y: rng.Float64() * h}
	}
	return pts
}

func TestBuildCellsTileTheDomain(t *testing.T) {
	v, err := Build(randomPoints(1, 400, 200, 100), 200, 100)
	require.NoError(t, err)
	require.Equal(t, 400, v.Len())

	total := 0.0
	for i := 0; i < v.Len(); i++ {
		poly := v.Polygon(i)
		require.GreaterOrEqual(t, len(poly), 3, "cell %d", i)
		a := geom.SignedArea(poly)
		assert.Positive(t, a, "cell %d polygon is not counter-clockwise", i)
		total += a
	}
	assert.InDelta(t, 200*100, total, 1e-6)
}

func TestNeighborsSymmetricAndSorted(t *testing.T) {
	v, err := Build(randomPoints(2, 300, 100, 100), 100, 100)
	require.NoError(t, err)

	for i := 0; i < v.Len(); i++ {
		nbs := v.Neighbors(i)
		assert.True(t, slices.IsSorted(nbs))
		assert.NotContains(t, nbs, i)
		for _, j := range nbs {
			assert.Contains(t, v.Neighbors(j), i, "%d lists %d but not the reverse", i, j)
		}
	}
}

func TestBorderCells(t *testing.T) {
	v, err := Build(randomPoints(3, 300, 100, 100), 100, 100)
	require.NoError(t, err)

	corner, ok := v.Locate(geom.Vec2{X: 0, Y: 0})
	require.True(t, ok)
	assert.True(t, v.OnBorder(corner))

	middle, ok := v.Locate(geom.Vec2{X: 50, Y: 50})
	require.True(t, ok)
	assert.False(t, v.OnBorder(middle))
}

func TestLocateMatchesBruteForce(t *testing.T) {
	v, err := Build(randomPoints(4, 500, 100, 100), 100, 100)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(9))
	for k := 0; k < 200; k++ {
		p := geom.Vec2{X: rng.Float64() * 100, Y: rng.Float64() * 100}
		got, ok := v.Locate(p)
		require.True(t, ok)

		want := 0
		for i := 1; i < v.Len(); i++ {
			if v.Site(i).Dist(p) < v.Site(want).Dist(p) {
				want = i
			}
		}
		assert.InDelta(t, v.Site(want).Dist(p), v.Site(got).Dist(p), 1e-12)
	}

	_, ok := v.Locate(geom.Vec2{X: -1, Y: 5})
	assert.False(t, ok)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build([]geom.Vec2{{X: 1, Y: 1}, {X: 2, Y: 2}}, 10, 10)
	assert.ErrorIs(t, err, ErrTooFewPoints)

	_, err = Build([]geom.Vec2{{X: 1, Y: 1}, {X: 5, Y: 2}, {X: 1, Y: 1}}, 10, 10)
	assert.ErrorIs(t, err, ErrDuplicatePoint)
}
