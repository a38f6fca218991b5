// Package climate computes orographic precipitation from elevation and a
// prevailing wind.
package climate

import (
	"math"

	"github.com/talgya/realmgen/internal/geom"
	"github.com/talgya/realmgen/internal/mesh"
)

// Config holds precipitation parameters.
type Config struct {
	WindDirection float64 // Degrees, 0 blows toward +X, 90 toward +Y
	WindStrength  float64
	Orographic    float64 // Precipitation gained per meter of windward slope
	OceanValue    float64 // Flat moisture over water before normalization
	Threshold     float64 // Minimum cosine between neighbor offset and wind
	SmoothPasses  int
}

// DefaultConfig returns a westerly wind with moderate orographic lift.
func DefaultConfig() Config {
	return Config{
		WindDirection: 0,
		WindStrength:  1,
		Orographic:    0.0005,
		OceanValue:    0.5,
		Threshold:     0.1,
		SmoothPasses:  3,
	}
}

// Precipitation returns a per-cell moisture value normalized to [0,1].
func Precipitation(g mesh.Graph, elevation []float64, land []bool, cfg Config) []float64 {
	n := g.Len()
	wind := geom.FromAngle(cfg.WindDirection)
	precip := make([]float64, n)

	for i := 0; i < n; i++ {
		if !land[i] {
			precip[i] = cfg.OceanValue
			continue
		}
		site := g.Site(i)
		var up, down float64
		var nUp, nDown int
		for _, nb := range g.Neighbors(i) {
			d := g.Site(nb).Sub(site).Normalize()
			// Upwind neighbors sit against the wind direction.
			switch dot := d.Dot(wind); {
			case dot < -cfg.Threshold:
				up += elevation[nb]
				nUp++
			case dot > cfg.Threshold:
				down += elevation[nb]
				nDown++
			}
		}
		slope := 0.0
		if nUp > 0 && nDown > 0 {
			slope = down/float64(nDown) - up/float64(nUp)
		} else if nUp > 0 {
			slope = elevation[i] - up/float64(nUp)
		} else if nDown > 0 {
			slope = down/float64(nDown) - elevation[i]
		}
		precip[i] = cfg.OceanValue + slope*cfg.Orographic*cfg.WindStrength
	}

	for pass := 0; pass < cfg.SmoothPasses; pass++ {
		next := make([]float64, n)
		for i := 0; i < n; i++ {
			sum, cnt := precip[i], 1.0
			for _, nb := range g.Neighbors(i) {
				sum += precip[nb]
				cnt++
			}
			next[i] = sum / cnt
		}
		precip = next
	}

	normalize(precip, cfg.OceanValue)
	return precip
}

// normalize rescales values to fill [0,1]. A flat field becomes fallback.
func normalize(v []float64, fallback float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range v {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if len(v) == 0 || hi-lo < 1e-12 {
		for i := range v {
			v[i] = fallback
		}
		return
	}
	for i := range v {
		v[i] = (v[i] - lo) / (hi - lo)
	}
}
