// Package geom holds the small amount of planar geometry shared by the
// generation stages: points, polygon area and centroid, rectangle clipping
// and Chaikin corner cutting.
package geom

import "math"

// Vec2 is a point or direction on the map plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (a Vec2) Add(b Vec2) Vec2      { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2      { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Mul(s float64) Vec2   { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Dot(b Vec2) float64   { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Cross(b Vec2) float64 { return a.X*b.Y - a.Y*b.X }
func (a Vec2) Len2() float64        { return a.Dot(a) }
func (a Vec2) Len() float64         { return math.Sqrt(a.Len2()) }

// Dist returns the Euclidean distance between a and b.
func (a Vec2) Dist(b Vec2) float64 { return a.Sub(b).Len() }

// Lerp returns the point t of the way from a to b.
func (a Vec2) Lerp(b Vec2, t float64) Vec2 {
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// Normalize returns the unit vector in the direction of a, or the zero
// vector when a has no length.
func (a Vec2) Normalize() Vec2 {
	l := a.Len()
	if l < 1e-12 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

// FromAngle returns the unit vector for an angle in degrees, measured
// counter-clockwise from the +X axis.
func FromAngle(deg float64) Vec2 {
	rad := deg * math.Pi / 180
	return Vec2{math.Cos(rad), math.Sin(rad)}
}

// Less orders points lexicographically by X then Y.
func (a Vec2) Less(b Vec2) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}
