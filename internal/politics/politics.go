// Package politics partitions land into kingdoms and sites their cities.
//
// Partition runs, in order: landmass detection, per-landmass kingdom
// allocation, capital selection, a cost-weighted multi-source flood fill,
// island annexation, coverage fallback, border smoothing, exclave removal
// and map coloring.
package politics

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/realmgen/internal/geom"
	"github.com/talgya/realmgen/internal/hydro"
	"github.com/talgya/realmgen/internal/mesh"
	"github.com/talgya/realmgen/internal/names"
)

// None marks ocean and not-yet-claimed cells.
const None = -1

// ErrUnclaimedLand reports a land cell without a kingdom, or an ocean cell
// with one, after every fallback pass.
var ErrUnclaimedLand = errors.New("kingdom coverage violated")

// Config holds partitioning and city-siting parameters.
type Config struct {
	Kingdoms          int     // Target kingdom count across all landmasses
	MinKingdomCells   int     // Allocation never gives a kingdom fewer cells than this
	TinyLandmassCells int     // Landmasses below this are annexed instead of founding kingdoms
	RiverCost         float64 // Crossing cost of an edge carrying a river
	SlopeCost         float64 // Added cost per meter of elevation difference
	MountainCost      float64 // Added cost per meter of mean elevation above MountainElevation
	MountainElevation float64
	SmoothIterations  int

	Cities CityConfig
}

// DefaultConfig returns the standard partition configuration.
func DefaultConfig() Config {
	return Config{
		Kingdoms:          8,
		MinKingdomCells:   20,
		TinyLandmassCells: 12,
		RiverCost:         10,
		SlopeCost:         0.004,
		MountainCost:      0.003,
		MountainElevation: 1500,
		SmoothIterations:  3,
		Cities:            DefaultCityConfig(),
	}
}

// Input carries the layers the partitioner reads. Hydro may be nil, in which
// case no edge counts as a river crossing.
type Input struct {
	Graph     mesh.Graph
	Elevation []float64
	Land      []bool
	Hydro     *hydro.Result
}

// Landmass is a maximal connected set of land cells.
type Landmass struct {
	ID       int   `json:"id"`
	Cells    []int `json:"cells"`
	Kingdoms int   `json:"kingdoms"` // Allocated count, 0 when annexed
}

// Kingdom is one political region.
type Kingdom struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Capital   int       `json:"capital"`
	Landmass  int       `json:"landmass"`
	Cells     []int     `json:"cells"`
	Centroid  geom.Vec2 `json:"centroid"` // Mean of member sites
	Color     string    `json:"color"`
	Neighbors []int     `json:"neighbors"`
}

// Result is the political layer of a world.
type Result struct {
	KingdomOf  []int // None for ocean
	Kingdoms   []Kingdom
	Landmasses []Landmass
	Adjacency  [][]int // Kingdom adjacency, sorted ascending
}

// Partition assigns every land cell to exactly one kingdom.
func Partition(in Input, cfg Config, gen names.Generator) (*Result, error) {
	g := in.Graph
	n := g.Len()
	res := &Result{KingdomOf: make([]int, n)}
	for i := range res.KingdomOf {
		res.KingdomOf[i] = None
	}

	res.Landmasses = findLandmasses(g, in.Land)
	if len(res.Landmasses) == 0 {
		slog.Info("no land, no kingdoms")
		return res, nil
	}
	allocate(res.Landmasses, cfg)

	p := &partitioner{in: in, cfg: cfg, res: res, landmassOf: make([]int, n)}
	for i := range p.landmassOf {
		p.landmassOf[i] = None
	}
	for _, lm := range res.Landmasses {
		for _, c := range lm.Cells {
			p.landmassOf[c] = lm.ID
		}
	}

	for _, lm := range res.Landmasses {
		if lm.Kingdoms == 0 {
			continue
		}
		for _, c := range p.chooseCapitals(lm) {
			res.Kingdoms = append(res.Kingdoms, Kingdom{
				ID:       len(res.Kingdoms),
				Capital:  c,
				Landmass: lm.ID,
			})
		}
	}
	p.floodFill()
	p.annexIslands()
	p.claimLeftovers()
	p.smoothBorders()
	p.removeExclaves()

	if err := Validate(in.Land, res.KingdomOf); err != nil {
		return nil, err
	}

	res.collect(g)
	colorKingdoms(res.Kingdoms, res.Adjacency)
	if gen != nil {
		labels := gen.Names(len(res.Kingdoms), names.Kingdom)
		for i := range res.Kingdoms {
			res.Kingdoms[i].Name = labels[i]
		}
	}

	slog.Info("kingdoms partitioned",
		"landmasses", len(res.Landmasses),
		"kingdoms", len(res.Kingdoms),
	)
	return res, nil
}

// Validate checks that every land cell has a kingdom and no ocean cell does.
func Validate(land []bool, kingdomOf []int) error {
	for i, isLand := range land {
		switch {
		case isLand && kingdomOf[i] < 0:
			return fmt.Errorf("%w: land cell %d unclaimed", ErrUnclaimedLand, i)
		case !isLand && kingdomOf[i] != None:
			return fmt.Errorf("%w: ocean cell %d claimed by %d", ErrUnclaimedLand, i, kingdomOf[i])
		}
	}
	return nil
}

// collect rebuilds member lists and the kingdom adjacency from KingdomOf.
func (r *Result) collect(g mesh.Graph) {
	k := len(r.Kingdoms)
	adj := make([]map[int]bool, k)
	for i := range adj {
		adj[i] = make(map[int]bool)
		r.Kingdoms[i].Cells = r.Kingdoms[i].Cells[:0]
	}
	for c, owner := range r.KingdomOf {
		if owner == None {
			continue
		}
		r.Kingdoms[owner].Cells = append(r.Kingdoms[owner].Cells, c)
		for _, nb := range g.Neighbors(c) {
			if other := r.KingdomOf[nb]; other != None && other != owner {
				adj[owner][other] = true
			}
		}
	}
	for i := range r.Kingdoms {
		sites := make([]geom.Vec2, len(r.Kingdoms[i].Cells))
		for j, c := range r.Kingdoms[i].Cells {
			sites[j] = g.Site(c)
		}
		r.Kingdoms[i].Centroid = geom.Mean(sites)
	}
	r.Adjacency = make([][]int, k)
	for i, set := range adj {
		list := make([]int, 0, len(set))
		for j := 0; j < k; j++ {
			if set[j] {
				list = append(list, j)
			}
		}
		r.Adjacency[i] = list
		r.Kingdoms[i].Neighbors = list
	}
}

type partitioner struct {
	in         Input
	cfg        Config
	res        *Result
	landmassOf []int
}
