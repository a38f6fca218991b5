package mesh

import (
	"math"
	"sort"

	"github.com/talgya/realmgen/internal/geom"
)

type triangle struct {
	a, b, c int
	cx, cy  float64
	r2      float64
}

type edge struct{ a, b int }

func makeEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// circumcircle returns the circumcenter and squared radius of (a, b, c).
// ok is false when the points are collinear.
func circumcircle(a, b, c geom.Vec2) (cx, cy, r2 float64, ok bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-12 {
		return 0, 0, 0, false
	}
	a2 := a.X*a.X + a.Y*a.Y
	b2 := b.X*b.X + b.Y*b.Y
	c2 := c.X*c.X + c.Y*c.Y
	cx = (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d
	cy = (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d
	dx, dy := a.X-cx, a.Y-cy
	return cx, cy, dx*dx + dy*dy, true
}

// triangulate runs Bowyer–Watson over pts. Points are inserted in X order so
// triangles whose circumcircle lies entirely left of the sweep line can be
// retired early. The returned triangles reference indices into pts.
func triangulate(pts []geom.Vec2) [][3]int {
	n := len(pts)
	if n < 3 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return pts[order[i]].Less(pts[order[j]]) })

	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	delta := math.Max(maxX-minX, maxY-minY)
	midX, midY := (minX+maxX)/2, (minY+maxY)/2

	all := make([]geom.Vec2, n, n+3)
	copy(all, pts)
	all = append(all,
		geom.Vec2{X: midX - 20*delta, Y: midY - delta},
		geom.Vec2{X: midX, Y: midY + 20*delta},
		geom.Vec2{X: midX + 20*delta, Y: midY - delta},
	)

	mk := func(a, b, c int) (triangle, bool) {
		cx, cy, r2, ok := circumcircle(all[a], all[b], all[c])
		return triangle{a: a, b: b, c: c, cx: cx, cy: cy, r2: r2}, ok
	}

	super, _ := mk(n, n+1, n+2)
	open := []triangle{super}
	closed := make([]triangle, 0, 2*n)

	for _, pi := range order {
		p := all[pi]
		var cavity []edge
		kept := open[:0]
		for _, t := range open {
			dx := p.X - t.cx
			if dx > 0 && dx*dx > t.r2 {
				closed = append(closed, t)
				continue
			}
			dy := p.Y - t.cy
			if dx*dx+dy*dy < t.r2 {
				cavity = append(cavity, edge{t.a, t.b}, edge{t.b, t.c}, edge{t.c, t.a})
				continue
			}
			kept = append(kept, t)
		}
		open = kept

		count := make(map[edge]int, len(cavity))
		for _, e := range cavity {
			count[makeEdge(e.a, e.b)]++
		}
		for _, e := range cavity {
			if count[makeEdge(e.a, e.b)] != 1 {
				continue
			}
			if t, ok := mk(e.a, e.b, pi); ok {
				open = append(open, t)
			}
		}
	}

	closed = append(closed, open...)
	out := make([][3]int, 0, len(closed))
	for _, t := range closed {
		if t.a >= n || t.b >= n || t.c >= n {
			continue
		}
		out = append(out, [3]int{t.a, t.b, t.c})
	}
	return out
}
