package hydro

import (
	"log/slog"
	"sort"

	"github.com/talgya/realmgen/internal/mesh"
	"github.com/talgya/realmgen/internal/pq"
)

// formLakes grows a basin from every raw-elevation depression and keeps the
// ones that spill cleanly.
func (r *Result) formLakes(g mesh.Graph, cfg Config) {
	var minima []int
	for i := range r.Elevation {
		if !r.Land[i] || r.Sink[i] || r.Filled[i] <= r.Elevation[i] {
			continue
		}
		lowest := true
		for _, nb := range g.Neighbors(i) {
			if r.Elevation[nb] < r.Elevation[i] {
				lowest = false
				break
			}
		}
		if lowest {
			minima = append(minima, i)
		}
	}
	sort.SliceStable(minima, func(a, b int) bool {
		return r.Elevation[minima[a]] < r.Elevation[minima[b]]
	})

	for _, m := range minima {
		if r.LakeOf[m] != None {
			continue
		}
		lake := r.formLake(g, m, cfg)
		if lake == nil {
			continue
		}
		lake.ID = len(r.Lakes)
		for _, c := range lake.Cells {
			r.LakeOf[c] = lake.ID
		}
		r.redirectOutlet(g, lake)
		r.Lakes = append(r.Lakes, *lake)
	}
}

// formLake expands a basin from seed by absorbing its lowest rim cell until
// water can escape over a rim cell. Returns nil when the basin reaches the
// ocean, rises more than MaxLakeRise, overlaps an existing lake or holds too
// many dry cells.
func (r *Result) formLake(g mesh.Graph, seed int, cfg Config) *Lake {
	inBasin := map[int]bool{seed: true}
	inRim := map[int]bool{}
	basin := []int{seed}
	rim := pq.New(16)

	absorb := func(c int) {
		inBasin[c] = true
		basin = append(basin, c)
		for _, nb := range g.Neighbors(c) {
			if !inBasin[nb] && !inRim[nb] {
				inRim[nb] = true
				rim.Push(nb, r.Elevation[nb])
			}
		}
	}
	basin = basin[:0]
	absorb(seed)

	floor := r.Elevation[seed]
	level := floor
	spill := None
	for iter := 0; rim.Len() > 0 && iter < len(r.Elevation); iter++ {
		c, e := rim.Pop()
		if !r.Land[c] || r.LakeOf[c] != None {
			slog.Debug("lake rejected", "seed", seed, "reason", "contact", "cell", c)
			return nil
		}
		if e < level {
			absorb(c)
			continue
		}
		escapes := false
		for _, nb := range g.Neighbors(c) {
			if !inBasin[nb] && r.Elevation[nb] < e {
				escapes = true
				break
			}
		}
		if escapes {
			spill = c
			break
		}
		if e-floor > cfg.MaxLakeRise {
			slog.Debug("lake rejected", "seed", seed, "reason", "rise", "rise", e-floor)
			return nil
		}
		level = e
		absorb(c)
	}
	if spill == None {
		return nil
	}

	surface := r.Elevation[spill]
	var cells []int
	islands := 0
	for _, c := range basin {
		if r.Elevation[c] < surface {
			cells = append(cells, c)
		} else {
			islands++
		}
	}
	if float64(islands)/float64(len(basin)) > cfg.MaxIslandRatio {
		slog.Debug("lake rejected", "seed", seed, "reason", "islands", "islands", islands)
		return nil
	}
	if len(cells) < max(cfg.MinLakeCells, 1) {
		return nil
	}
	sort.Ints(cells)
	return &Lake{
		Cells:   cells,
		Surface: surface,
		Depth:   surface - floor,
		Outlet:  spill,
	}
}

// redirectOutlet points the spill cell at its lowest neighbor outside the
// lake, provided that neighbor keeps the drainage chain descending.
func (r *Result) redirectOutlet(g mesh.Graph, lake *Lake) {
	out := lake.Outlet
	if r.Sink[out] {
		return
	}
	best, bestF := None, r.Filled[out]
	for _, nb := range g.Neighbors(out) {
		if r.LakeOf[nb] == lake.ID {
			continue
		}
		if r.Filled[nb] < bestF {
			best, bestF = nb, r.Filled[nb]
		}
	}
	if best != None {
		r.Drainage[out] = best
	}
}
