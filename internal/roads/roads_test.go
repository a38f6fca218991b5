package roads

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/realmgen/internal/geom"
	"github.com/talgya/realmgen/internal/mesh"
	"github.com/talgya/realmgen/internal/politics"
	"github.com/talgya/realmgen/internal/sampler"
)

// twoIslands builds a world with land discs around (30,50) and (75,50).
func twoIslands(t *testing.T) (*mesh.Voronoi, []float64, []bool) {
	t.Helper()
	cfg := sampler.DefaultConfig()
	cfg.Count = 700
	cfg.Width, cfg.Height = 100, 100
	pts, err := sampler.Sample(rand.New(rand.NewSource(11)), cfg)
	require.NoError(t, err)
	g, err := mesh.Build(pts, 100, 100)
	require.NoError(t, err)

	n := g.Len()
	elev := make([]float64, n)
	land := make([]bool, n)
	for i := 0; i < n; i++ {
		p := g.Site(i)
		da := p.Dist(geom.Vec2{X: 30, Y: 50})
		db := p.Dist(geom.Vec2{X: 75, Y: 50})
		switch {
		case da < 22:
			elev[i] = (22 - da) * 50
			land[i] = true
		case db < 14:
			elev[i] = (14 - db) * 50
			land[i] = true
		default:
			elev[i] = -200
		}
	}
	return g, elev, land
}

func assertContiguous(t *testing.T, g mesh.Graph, land []bool, path []int) {
	t.Helper()
	for k, c := range path {
		assert.True(t, land[c], "cell %d is water", c)
		if k > 0 {
			assert.True(t, slices.Contains(g.Neighbors(path[k-1]), c), "%d-%d not adjacent", path[k-1], c)
		}
	}
}

func TestFindPath(t *testing.T) {
	g, elev, land := twoIslands(t)
	p := NewPlanner(g, elev, land, nil, DefaultConfig())

	a, _ := g.Locate(geom.Vec2{X: 15, Y: 50})
	b, _ := g.Locate(geom.Vec2{X: 45, Y: 50})
	path, ok := p.FindPath(a, b)
	require.True(t, ok)
	assert.Equal(t, a, path[0])
	assert.Equal(t, b, path[len(path)-1])
	assertContiguous(t, g, land, path)

	same, ok := p.FindPath(a, a)
	require.True(t, ok)
	assert.Equal(t, []int{a}, same)
}

func TestFindPathAcrossWaterFails(t *testing.T) {
	g, elev, land := twoIslands(t)
	p := NewPlanner(g, elev, land, nil, DefaultConfig())

	a, _ := g.Locate(geom.Vec2{X: 30, Y: 50})
	b, _ := g.Locate(geom.Vec2{X: 75, Y: 50})
	path, ok := p.FindPath(a, b)
	assert.False(t, ok)
	assert.Nil(t, path)

	ocean, _ := g.Locate(geom.Vec2{X: 2, Y: 2})
	_, ok = p.FindPath(a, ocean)
	assert.False(t, ok)
}

func TestPlanConnectsSettlements(t *testing.T) {
	g, elev, land := twoIslands(t)
	in := politics.Input{Graph: g, Elevation: elev, Land: land}
	pcfg := politics.DefaultConfig()
	pcfg.Kingdoms = 4
	res, err := politics.Partition(in, pcfg, nil)
	require.NoError(t, err)
	cities := politics.PlaceCities(in, res, pcfg.Cities, rand.New(rand.NewSource(2)), nil)
	require.NotEmpty(t, cities)

	roads := NewPlanner(g, elev, land, nil, DefaultConfig()).Plan(cities)
	require.NotEmpty(t, roads)

	cellOf := map[int]int{}
	for _, c := range cities {
		cellOf[c.ID] = c.Cell
	}
	touched := map[int]bool{}
	for i, r := range roads {
		assert.Equal(t, i, r.ID)
		assert.Equal(t, cellOf[r.From], r.Cells[0])
		assert.Equal(t, cellOf[r.To], r.Cells[len(r.Cells)-1])
		assertContiguous(t, g, land, r.Cells)
		touched[r.From] = true
		touched[r.To] = true
	}
	// Every non-capital settlement shares a landmass with its capital, so it
	// always finds a route.
	for _, c := range cities {
		if c.Kind != politics.KindCapital {
			assert.True(t, touched[c.ID], "city %d has no road", c.ID)
		}
	}
}
