// Elevation synthesis: samples a noise field per cell, shapes it toward
// island landmasses and splits it at sea level into meters.
package terrain

import (
	"math"

	"github.com/talgya/realmgen/internal/mesh"
	"github.com/talgya/realmgen/internal/noise"
)

// Elevation range in meters.
const (
	MaxOceanDepth = -4000.0
	MaxLandHeight = 6000.0
)

// Falloff biases elevation down toward the map edges.
type Falloff uint8

const (
	FalloffNone   Falloff = iota
	FalloffRadial         // Euclidean distance from center through smoothstep
	FalloffSquare         // Chebyshev distance from center through smoothstep
)

// Config holds elevation parameters.
type Config struct {
	Falloff          Falloff
	FalloffStrength  float64 // 0 = no effect, 1 = edges forced to zero
	SeaLevel         float64 // Fraction of the [0,1] noise range that becomes ocean
	SmoothIterations int
	SmoothStrength   float64 // Blend factor between original and smoothed value
}

// DefaultConfig returns an island-biased configuration.
func DefaultConfig() Config {
	return Config{
		Falloff:          FalloffRadial,
		FalloffStrength:  0.85,
		SeaLevel:         0.4,
		SmoothIterations: 1,
		SmoothStrength:   0.5,
	}
}

// Result holds per-cell elevation and the derived land flag.
type Result struct {
	Elevation  []float64 // meters, signed
	Land       []bool    // elevation >= 0
	LandCells  int
	OceanCells int
}

// Synthesize computes elevation for every cell of g.
func Synthesize(g mesh.Graph, field noise.Field, cfg Config) Result {
	n := g.Len()
	w, h := g.Bounds()
	elev := make([]float64, n)

	for i := 0; i < n; i++ {
		p := g.Site(i)
		nx, ny := p.X/w, p.Y/h

		v := (field.Eval(nx, ny) + 1) / 2
		v *= falloff(cfg, nx, ny)
		elev[i] = toMeters(v, cfg.SeaLevel)
	}

	if cfg.SmoothIterations > 0 && cfg.SmoothStrength > 0 {
		elev = smooth(g, elev, cfg.SmoothIterations, cfg.SmoothStrength)
	}

	res := Result{Elevation: elev, Land: make([]bool, n)}
	for i, e := range elev {
		res.Land[i] = e >= 0
		if res.Land[i] {
			res.LandCells++
		} else {
			res.OceanCells++
		}
	}
	return res
}

// toMeters splits v in [0,1] at seaLevel into two linear ranges:
// [0, seaLevel) maps to [-4000, 0) and [seaLevel, 1] maps to [0, 6000].
func toMeters(v, seaLevel float64) float64 {
	v = math.Max(0, math.Min(1, v))
	if seaLevel >= 1 || v < seaLevel {
		t := 1.0
		if seaLevel > 0 {
			t = v / math.Min(seaLevel, 1)
		}
		e := MaxOceanDepth * (1 - t)
		if e >= 0 {
			e = -1
		}
		return e
	}
	if seaLevel <= 0 {
		return v * MaxLandHeight
	}
	return (v - seaLevel) / (1 - seaLevel) * MaxLandHeight
}

func falloff(cfg Config, nx, ny float64) float64 {
	if cfg.Falloff == FalloffNone || cfg.FalloffStrength <= 0 {
		return 1
	}
	dx, dy := (nx-0.5)*2, (ny-0.5)*2
	var d float64
	switch cfg.Falloff {
	case FalloffSquare:
		d = math.Max(math.Abs(dx), math.Abs(dy))
	default:
		d = math.Min(math.Sqrt(dx*dx+dy*dy), 1)
	}
	f := 1 - smoothstep(0.3, 1, d)
	return 1 - cfg.FalloffStrength*(1-f)
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := math.Max(0, math.Min(1, (x-edge0)/(edge1-edge0)))
	return t * t * (3 - 2*t)
}

// smooth applies inverse-distance-weighted neighbor averaging, blended with
// the previous value by strength.
func smooth(g mesh.Graph, elev []float64, iterations int, strength float64) []float64 {
	cur := append([]float64(nil), elev...)
	next := make([]float64, len(cur))
	for it := 0; it < iterations; it++ {
		for i := range cur {
			p := g.Site(i)
			sum, wsum := 0.0, 0.0
			for _, j := range g.Neighbors(i) {
				d := p.Dist(g.Site(j))
				if d < 1e-9 {
					d = 1e-9
				}
				sum += cur[j] / d
				wsum += 1 / d
			}
			if wsum == 0 {
				next[i] = cur[i]
				continue
			}
			next[i] = cur[i]*(1-strength) + (sum/wsum)*strength
		}
		cur, next = next, cur
	}
	return cur
}
