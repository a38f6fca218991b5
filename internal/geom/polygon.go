package geom

// Loop is a closed polyline; the last point connects back to the first.
type Loop []Vec2

// SignedArea returns the shoelace area of a polygon, positive when the
// vertices run counter-clockwise.
func SignedArea(poly []Vec2) float64 {
	n := len(poly)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Centroid returns the area-weighted centroid of a simple polygon. Degenerate
// polygons fall back to the vertex mean.
func Centroid(poly []Vec2) Vec2 {
	n := len(poly)
	if n == 0 {
		return Vec2{}
	}
	area := SignedArea(poly)
	if area > -1e-12 && area < 1e-12 {
		return Mean(poly)
	}
	var cx, cy float64
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		cross := a.X*b.Y - b.X*a.Y
		cx += (a.X + b.X) * cross
		cy += (a.Y + b.Y) * cross
	}
	return Vec2{cx / (6 * area), cy / (6 * area)}
}

// Mean returns the arithmetic mean of the points.
func Mean(pts []Vec2) Vec2 {
	if len(pts) == 0 {
		return Vec2{}
	}
	var s Vec2
	for _, p := range pts {
		s = s.Add(p)
	}
	return s.Mul(1 / float64(len(pts)))
}

// ClipRect clips a convex polygon to the rectangle [0,w]×[0,h] using
// Sutherland–Hodgman. Edge intersections are computed from lexicographically
// ordered endpoints so two cells sharing an edge get bit-identical points.
func ClipRect(poly []Vec2, w, h float64) []Vec2 {
	type plane struct {
		inside func(Vec2) bool
		cut    func(a, b Vec2) Vec2
	}
	planes := []plane{
		{func(p Vec2) bool { return p.X >= 0 }, func(a, b Vec2) Vec2 { return cutX(a, b, 0) }},
		{func(p Vec2) bool { return p.X <= w }, func(a, b Vec2) Vec2 { return cutX(a, b, w) }},
		{func(p Vec2) bool { return p.Y >= 0 }, func(a, b Vec2) Vec2 { return cutY(a, b, 0) }},
		{func(p Vec2) bool { return p.Y <= h }, func(a, b Vec2) Vec2 { return cutY(a, b, h) }},
	}

	out := poly
	for _, pl := range planes {
		if len(out) == 0 {
			break
		}
		in := out
		out = make([]Vec2, 0, len(in)+2)
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case pl.inside(cur) && pl.inside(prev):
				out = append(out, cur)
			case pl.inside(cur):
				out = append(out, pl.cut(prev, cur), cur)
			case pl.inside(prev):
				out = append(out, pl.cut(prev, cur))
			}
			prev = cur
		}
	}
	return out
}

func cutX(a, b Vec2, x float64) Vec2 {
	if b.Less(a) {
		a, b = b, a
	}
	t := (x - a.X) / (b.X - a.X)
	return Vec2{x, a.Y + (b.Y-a.Y)*t}
}

func cutY(a, b Vec2, y float64) Vec2 {
	if b.Less(a) {
		a, b = b, a
	}
	t := (y - a.Y) / (b.Y - a.Y)
	return Vec2{a.X + (b.X-a.X)*t, y}
}

// Chaikin applies the given number of corner-cutting passes to a closed
// loop. Each edge (a, b) is replaced by the points at 1/4 and 3/4 along it.
func Chaikin(loop Loop, passes int) Loop {
	out := loop
	for p := 0; p < passes; p++ {
		n := len(out)
		if n < 3 {
			return out
		}
		next := make(Loop, 0, 2*n)
		for i := 0; i < n; i++ {
			a, b := out[i], out[(i+1)%n]
			next = append(next, a.Lerp(b, 0.25), a.Lerp(b, 0.75))
		}
		out = next
	}
	return out
}
