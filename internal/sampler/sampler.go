// Package sampler produces the seed points the subdivision is built from.
package sampler

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/talgya/realmgen/internal/geom"
	"github.com/talgya/realmgen/internal/mesh"
)

// Distribution selects a point placement policy.
type Distribution uint8

const (
	Random   Distribution = iota // Uniform random
	Jittered                     // Stratified grid, centers perturbed by up to 40% of a cell
	Poisson                      // Bridson dart throwing with a minimum spacing
	Lloyd                        // Jittered start, then centroidal relaxation
)

var distributionNames = map[Distribution]string{
	Random:   "random",
	Jittered: "jittered",
	Poisson:  "poisson",
	Lloyd:    "lloyd",
}

func (d Distribution) String() string {
	if s, ok := distributionNames[d]; ok {
		return s
	}
	return "unknown"
}

// ParseDistribution maps a config or API string to a Distribution.
func ParseDistribution(s string) (Distribution, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d, name := range distributionNames {
		if name == s {
			return d, nil
		}
	}
	return Random, fmt.Errorf("unknown distribution %q", s)
}

// Config holds sampler parameters.
type Config struct {
	Distribution    Distribution
	Count           int
	Width, Height   float64
	MinDist         float64 // Poisson spacing; 0 derives it from the density
	MaxTries        int     // Poisson attempts per active point before retiring it
	LloydIterations int
}

// DefaultConfig returns a jittered 2000-point sampler over a 1000×1000 plane.
func DefaultConfig() Config {
	return Config{
		Distribution:    Jittered,
		Count:           2000,
		Width:           1000,
		Height:          1000,
		MaxTries:        30,
		LloydIterations: 2,
	}
}

// Sample returns exactly cfg.Count points inside the domain.
func Sample(rng *rand.Rand, cfg Config) ([]geom.Vec2, error) {
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("sampler: count must be positive, got %d", cfg.Count)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("sampler: invalid domain %.1fx%.1f", cfg.Width, cfg.Height)
	}

	switch cfg.Distribution {
	case Random:
		return uniform(rng, cfg.Count, cfg.Width, cfg.Height), nil
	case Jittered:
		return jittered(rng, cfg.Count, cfg.Width, cfg.Height), nil
	case Poisson:
		return poisson(rng, cfg), nil
	case Lloyd:
		return relax(jittered(rng, cfg.Count, cfg.Width, cfg.Height), cfg.Width, cfg.Height, cfg.LloydIterations)
	default:
		return nil, fmt.Errorf("sampler: unknown distribution %d", cfg.Distribution)
	}
}

func uniform(rng *rand.Rand, n int, w, h float64) []geom.Vec2 {
	pts := make([]geom.Vec2, n)
	for i := range pts {
		pts[i] = geom.Vec2{X: rng.Float64() * w, Y: rng.Float64() * h}
	}
	return pts
}

// jittered partitions the domain into a near-square grid with at least n
// cells and perturbs the first n cell centers.
func jittered(rng *rand.Rand, n int, w, h float64) []geom.Vec2 {
	cols := int(math.Ceil(math.Sqrt(float64(n) * w / h)))
	cols = max(cols, 1)
	rows := (n + cols - 1) / cols
	cw, ch := w/float64(cols), h/float64(rows)

	pts := make([]geom.Vec2, 0, n)
	for i := 0; i < n; i++ {
		col, row := i%cols, i/cols
		cx := (float64(col) + 0.5) * cw
		cy := (float64(row) + 0.5) * ch
		pts = append(pts, geom.Vec2{
			X: cx + (rng.Float64()*2-1)*0.4*cw,
			Y: cy + (rng.Float64()*2-1)*0.4*ch,
		})
	}
	return pts
}

// relax moves every point to the centroid of its Voronoi cell, rebuilding the
// subdivision each iteration.
func relax(pts []geom.Vec2, w, h float64, iterations int) ([]geom.Vec2, error) {
	for it := 0; it < iterations; it++ {
		v, err := mesh.Build(pts, w, h)
		if err != nil {
			return nil, fmt.Errorf("lloyd iteration %d: %w", it, err)
		}
		next := make([]geom.Vec2, len(pts))
		for i := range pts {
			poly := v.Polygon(i)
			if len(poly) < 3 {
				next[i] = pts[i]
				continue
			}
			next[i] = geom.Centroid(poly)
		}
		pts = next
	}
	return pts, nil
}
