package politics

import (
	"math"
	"sort"

	"github.com/talgya/realmgen/internal/geom"
	"github.com/talgya/realmgen/internal/mesh"
	"github.com/talgya/realmgen/internal/terrain"
)

// findLandmasses labels connected land components by breadth-first search,
// numbered in order of their lowest cell index.
func findLandmasses(g mesh.Graph, land []bool) []Landmass {
	n := g.Len()
	seen := make([]bool, n)
	var out []Landmass
	for start := 0; start < n; start++ {
		if !land[start] || seen[start] {
			continue
		}
		seen[start] = true
		queue := []int{start}
		for head := 0; head < len(queue); head++ {
			for _, nb := range g.Neighbors(queue[head]) {
				if land[nb] && !seen[nb] {
					seen[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		sort.Ints(queue)
		out = append(out, Landmass{ID: len(out), Cells: queue})
	}
	return out
}

// allocate distributes the kingdom target across landmasses by land share.
// Tiny landmasses get none unless nothing larger exists, in which case the
// largest one is promoted.
func allocate(lms []Landmass, cfg Config) {
	total := 0
	largest := 0
	eligible := 0
	for i, lm := range lms {
		total += len(lm.Cells)
		if len(lm.Cells) > len(lms[largest].Cells) {
			largest = i
		}
		if len(lm.Cells) >= cfg.TinyLandmassCells {
			eligible++
		}
	}
	target := max(cfg.Kingdoms, 1)
	minCells := max(cfg.MinKingdomCells, 1)

	for i := range lms {
		size := len(lms[i].Cells)
		if size < cfg.TinyLandmassCells && !(eligible == 0 && i == largest) {
			lms[i].Kingdoms = 0
			continue
		}
		k := int(math.Round(float64(target) * float64(size) / float64(total)))
		k = max(k, 1)
		k = min(k, max(size/minCells, 1))
		lms[i].Kingdoms = k
	}
}

// chooseCapitals picks lm.Kingdoms seed cells favoring central, low-to-mid
// and interior positions, keeping capitals apart. The separation relaxes
// when the landmass cannot fit them all.
func (p *partitioner) chooseCapitals(lm Landmass) []int {
	g := p.in.Graph
	want := min(lm.Kingdoms, len(lm.Cells))
	if want <= 0 {
		return nil
	}

	sites := make([]geom.Vec2, len(lm.Cells))
	for i, c := range lm.Cells {
		sites[i] = g.Site(c)
	}
	center := geom.Mean(sites)
	maxDist := 1e-9
	for _, s := range sites {
		maxDist = math.Max(maxDist, s.Dist(center))
	}

	type scored struct {
		cell  int
		score float64
	}
	candidates := make([]scored, len(lm.Cells))
	for i, c := range lm.Cells {
		central := 1 - sites[i].Dist(center)/maxDist

		e := p.in.Elevation[c] / terrain.MaxLandHeight
		band := 1 - math.Abs(e-0.1)/0.4
		band = math.Max(0, math.Min(1, band))

		nbs := g.Neighbors(c)
		landNbs := 0
		for _, nb := range nbs {
			if p.in.Land[nb] {
				landNbs++
			}
		}
		interior := 0.0
		if len(nbs) > 0 {
			interior = float64(landNbs) / float64(len(nbs))
		}
		candidates[i] = scored{c, central + band + interior}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	w, h := g.Bounds()
	cellArea := w * h / float64(g.Len())
	sep := 0.6 * math.Sqrt(float64(len(lm.Cells))*cellArea/float64(want))

	for attempt := 0; ; attempt++ {
		var chosen []int
		for _, cand := range candidates {
			if len(chosen) == want {
				break
			}
			tooClose := false
			for _, c := range chosen {
				if g.Site(c).Dist(g.Site(cand.cell)) < sep {
					tooClose = true
					break
				}
			}
			if !tooClose {
				chosen = append(chosen, cand.cell)
			}
		}
		if len(chosen) == want || sep == 0 {
			return chosen
		}
		sep /= 2
		if attempt >= 4 {
			sep = 0
		}
	}
}
