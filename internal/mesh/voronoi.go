// Package mesh is the planar subdivision the generator runs on: it turns a
// flat list of sites into Voronoi cells clipped to the map rectangle, with a
// neighbor list per cell and nearest-site point location.
package mesh

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/talgya/realmgen/internal/geom"
)

// Graph is the read-only view of a subdivision the generation stages use.
type Graph interface {
	Len() int
	Site(i int) geom.Vec2
	Neighbors(i int) []int
	Polygon(i int) []geom.Vec2
	OnBorder(i int) bool
	Locate(p geom.Vec2) (int, bool)
	Bounds() (w, h float64)
}

var (
	ErrTooFewPoints   = errors.New("mesh: need at least 3 points")
	ErrDuplicatePoint = errors.New("mesh: duplicate point")
)

// ghostCount is the number of frame sites placed on a circle around the
// domain so every real site is an interior vertex of the triangulation.
const ghostCount = 24

// Voronoi is a clipped Voronoi diagram over a W×H rectangle.
type Voronoi struct {
	Width, Height float64

	sites     []geom.Vec2
	polygons  [][]geom.Vec2
	neighbors [][]int
	border    []bool
	index     *bucketIndex
}

// Build triangulates points and derives one clipped cell per point.
func Build(points []geom.Vec2, width, height float64) (*Voronoi, error) {
	n := len(points)
	if n < 3 {
		return nil, ErrTooFewPoints
	}
	seen := make(map[geom.Vec2]int, n)
	for i, p := range points {
		if j, ok := seen[p]; ok {
			return nil, fmt.Errorf("%w: %d and %d at (%.3f, %.3f)", ErrDuplicatePoint, j, i, p.X, p.Y)
		}
		seen[p] = i
	}

	all := make([]geom.Vec2, n, n+ghostCount)
	copy(all, points)
	center := geom.Vec2{X: width / 2, Y: height / 2}
	radius := math.Hypot(width, height)
	for k := 0; k < ghostCount; k++ {
		a := 2 * math.Pi * float64(k) / ghostCount
		all = append(all, center.Add(geom.Vec2{X: math.Cos(a), Y: math.Sin(a)}.Mul(radius)))
	}

	tris := triangulate(all)
	if len(tris) == 0 {
		return nil, fmt.Errorf("mesh: degenerate point set (%d points)", n)
	}

	incident := make([][]int, n)
	for ti, t := range tris {
		for _, v := range t {
			if v < n {
				incident[v] = append(incident[v], ti)
			}
		}
	}

	v := &Voronoi{
		Width:     width,
		Height:    height,
		sites:     append([]geom.Vec2(nil), points...),
		polygons:  make([][]geom.Vec2, n),
		neighbors: make([][]int, n),
		border:    make([]bool, n),
	}

	for i := 0; i < n; i++ {
		if len(incident[i]) == 0 {
			return nil, fmt.Errorf("mesh: site %d missing from triangulation", i)
		}
		site := points[i]
		type corner struct {
			p     geom.Vec2
			angle float64
		}
		corners := make([]corner, 0, len(incident[i]))
		nbSet := make(map[int]struct{}, 8)
		for _, ti := range incident[i] {
			t := tris[ti]
			cx, cy, _, ok := circumcircle(all[t[0]], all[t[1]], all[t[2]])
			if !ok {
				continue
			}
			cc := geom.Vec2{X: cx, Y: cy}
			d := cc.Sub(site)
			corners = append(corners, corner{cc, math.Atan2(d.Y, d.X)})
			for _, u := range t {
				if u != i && u < n {
					nbSet[u] = struct{}{}
				}
			}
		}
		sort.Slice(corners, func(a, b int) bool { return corners[a].angle < corners[b].angle })

		raw := make([]geom.Vec2, len(corners))
		for k, c := range corners {
			raw[k] = c.p
		}
		poly := dedupe(geom.ClipRect(raw, width, height))
		v.polygons[i] = poly

		nbs := make([]int, 0, len(nbSet))
		for u := range nbSet {
			nbs = append(nbs, u)
		}
		sort.Ints(nbs)
		v.neighbors[i] = nbs

		const eps = 1e-9
		for _, p := range poly {
			if p.X <= eps || p.Y <= eps || p.X >= width-eps || p.Y >= height-eps {
				v.border[i] = true
				break
			}
		}
	}

	v.index = newBucketIndex(v.sites, width, height)
	return v, nil
}

// dedupe drops consecutive vertices that coincide, including the wrap-around.
func dedupe(poly []geom.Vec2) []geom.Vec2 {
	const eps = 1e-9
	out := make([]geom.Vec2, 0, len(poly))
	for _, p := range poly {
		if len(out) > 0 && out[len(out)-1].Sub(p).Len2() < eps*eps {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0].Sub(out[len(out)-1]).Len2() < eps*eps {
		out = out[:len(out)-1]
	}
	return out
}

func (v *Voronoi) Len() int                       { return len(v.sites) }
func (v *Voronoi) Site(i int) geom.Vec2           { return v.sites[i] }
func (v *Voronoi) Neighbors(i int) []int          { return v.neighbors[i] }
func (v *Voronoi) Polygon(i int) []geom.Vec2      { return v.polygons[i] }
func (v *Voronoi) OnBorder(i int) bool            { return v.border[i] }
func (v *Voronoi) Bounds() (w, h float64)         { return v.Width, v.Height }
func (v *Voronoi) Locate(p geom.Vec2) (int, bool) { return v.index.nearest(p) }

// Sites returns a copy of the site positions.
func (v *Voronoi) Sites() []geom.Vec2 {
	return append([]geom.Vec2(nil), v.sites...)
}
