package hydro

import (
	"math"

	"github.com/talgya/realmgen/internal/geom"
	"github.com/talgya/realmgen/internal/mesh"
)

// selectSources picks river sources from the highest land cells, keeping a
// minimum distance between any two sources.
func (r *Result) selectSources(g mesh.Graph, cfg Config) []int {
	ranked := r.byFilledDesc(func(i int) bool { return r.Land[i] && !r.Sink[i] })
	if len(ranked) == 0 {
		return nil
	}

	top := int(math.Ceil(float64(len(ranked)) * cfg.SourceFraction))
	top = max(1, min(top, len(ranked)))

	n := g.Len()
	w, h := g.Bounds()
	spacing := cfg.SourceSpacing * math.Sqrt(w*h/float64(n))
	maxRivers := cfg.MaxRivers
	if maxRivers <= 0 {
		maxRivers = max(3, n/150)
	}

	var chosen []int
	var chosenPos []geom.Vec2
	for _, c := range ranked[:top] {
		if len(chosen) >= maxRivers {
			break
		}
		p := g.Site(c)
		tooClose := false
		for _, q := range chosenPos {
			if p.Dist(q) < spacing {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		chosen = append(chosen, c)
		chosenPos = append(chosenPos, p)
	}
	return chosen
}

// Trace follows the lowest unvisited filled neighbor from source until it
// reaches the sea or runs out of unvisited neighbors. A source at or below
// sea level, ocean or low land at 0 m, yields a single-cell path.
func (r *Result) Trace(g mesh.Graph, source int) []int {
	path := []int{source}
	if !r.Land[source] || r.Elevation[source] <= 0 {
		return path
	}
	visited := map[int]bool{source: true}
	cur := source
	for len(path) <= g.Len() {
		if !r.Land[cur] {
			break
		}
		best, bestF := None, math.Inf(1)
		for _, nb := range g.Neighbors(cur) {
			if visited[nb] {
				continue
			}
			if r.Filled[nb] < bestF {
				best, bestF = nb, r.Filled[nb]
			}
		}
		if best == None {
			break
		}
		visited[best] = true
		path = append(path, best)
		cur = best
	}
	return path
}

func (r *Result) traceRivers(g mesh.Graph, sources []int, cfg Config) {
	for _, src := range sources {
		path := r.Trace(g, src)
		if len(path) < cfg.MinRiverLength {
			continue
		}
		mouth := path[len(path)-1]
		for k := len(path) - 1; k >= 0; k-- {
			if r.Land[path[k]] {
				mouth = path[k]
				break
			}
		}
		river := River{ID: len(r.Rivers), Cells: path, Flow: r.Flow[mouth]}
		for k, c := range path {
			if r.Land[c] {
				r.OnRiver[c] = true
			}
			if k > 0 {
				r.riverEdges[edgeKey(path[k-1], c)] = struct{}{}
			}
		}
		r.Rivers = append(r.Rivers, river)
	}
}
