// Package boundary traces the outline of a cell set as closed, smoothed
// loops. Coastlines and kingdom borders both go through Extract.
package boundary

import (
	"math"

	"github.com/talgya/realmgen/internal/geom"
	"github.com/talgya/realmgen/internal/mesh"
)

// quantum is the grid vertices are snapped to when matching shared edges.
const quantum = 1e-6

type vkey [2]int64

func keyOf(p geom.Vec2) vkey {
	return vkey{int64(math.Round(p.X / quantum)), int64(math.Round(p.Y / quantum))}
}

type ekey [2]vkey

func edgeKeyOf(a, b vkey) ekey {
	if b[0] < a[0] || (b[0] == a[0] && b[1] < a[1]) {
		a, b = b, a
	}
	return ekey{a, b}
}

// Extractor indexes the polygon edges of a graph by their endpoints.
type Extractor struct {
	g     mesh.Graph
	cells map[ekey][]int
}

// NewExtractor builds the edge index for g.
func NewExtractor(g mesh.Graph) *Extractor {
	e := &Extractor{g: g, cells: make(map[ekey][]int)}
	for i := 0; i < g.Len(); i++ {
		poly := g.Polygon(i)
		for k := range poly {
			a, b := keyOf(poly[k]), keyOf(poly[(k+1)%len(poly)])
			if a == b {
				continue
			}
			key := edgeKeyOf(a, b)
			e.cells[key] = append(e.cells[key], i)
		}
	}
	return e
}

type segment struct {
	from, to   vkey
	start, end geom.Vec2
}

// Extract returns the closed outlines of the cells for which member is true.
// Every polygon edge whose other side is outside the set, or outside the
// domain, is chained into loops that keep the set on their left. passes
// rounds of Chaikin smoothing are applied to each loop. The result depends
// only on the graph and the set.
func (e *Extractor) Extract(member func(int) bool, passes int) []geom.Loop {
	var segs []segment
	for i := 0; i < e.g.Len(); i++ {
		if !member(i) {
			continue
		}
		poly := e.g.Polygon(i)
		for k := range poly {
			p, q := poly[k], poly[(k+1)%len(poly)]
			a, b := keyOf(p), keyOf(q)
			if a == b {
				continue
			}
			if e.sharedWithMember(i, edgeKeyOf(a, b), member) {
				continue
			}
			segs = append(segs, segment{a, b, p, q})
		}
	}

	outgoing := make(map[vkey][]int, len(segs))
	for idx, s := range segs {
		outgoing[s.from] = append(outgoing[s.from], idx)
	}

	used := make([]bool, len(segs))
	var loops []geom.Loop
	for first := range segs {
		if used[first] {
			continue
		}
		var loop geom.Loop
		cur := first
		for steps := 0; steps <= len(segs); steps++ {
			used[cur] = true
			loop = append(loop, segs[cur].start)
			if segs[cur].to == segs[first].from {
				break
			}
			next := -1
			for _, cand := range outgoing[segs[cur].to] {
				if !used[cand] {
					next = cand
					break
				}
			}
			if next < 0 {
				break
			}
			cur = next
		}
		if len(loop) >= 3 {
			loops = append(loops, geom.Chaikin(loop, passes))
		}
	}
	return loops
}

func (e *Extractor) sharedWithMember(self int, key ekey, member func(int) bool) bool {
	for _, c := range e.cells[key] {
		if c != self && member(c) {
			return true
		}
	}
	return false
}

// Coastlines outlines every landmass.
func (e *Extractor) Coastlines(land []bool, passes int) []geom.Loop {
	return e.Extract(func(i int) bool { return land[i] }, passes)
}

// Border is the outline of one kingdom.
type Border struct {
	Kingdom int         `json:"kingdom"`
	Loops   []geom.Loop `json:"loops"`
}

// KingdomBorders outlines each of count kingdoms given a per-cell owner,
// where negative owners are unclaimed.
func (e *Extractor) KingdomBorders(kingdomOf []int, count, passes int) []Border {
	out := make([]Border, count)
	for k := 0; k < count; k++ {
		out[k] = Border{
			Kingdom: k,
			Loops:   e.Extract(func(i int) bool { return kingdomOf[i] == k }, passes),
		}
	}
	return out
}
