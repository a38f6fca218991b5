// Package noise provides the continuous scalar fields elevation is sampled
// from. Every Field is deterministic for a given seed and returns values in
// [-1, 1] for normalized (x, y) input.
package noise

import (
	"fmt"
	"math"
	"strings"

	"github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Algorithm selects the base gradient noise.
type Algorithm uint8

const (
	Simplex Algorithm = iota
	Perlin
)

// Style selects how octaves are combined.
type Style uint8

const (
	FBM    Style = iota // Plain fractal sum
	Ridged              // 1-|n|, sharp crests
	Billow              // |n|, rounded hills
)

// Params are the algorithm parameters for a Field.
type Params struct {
	Algorithm   Algorithm
	Style       Style
	Frequency   float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
}

// DefaultParams returns simplex fbm noise tuned for continent-scale features.
func DefaultParams() Params {
	return Params{
		Algorithm:   Simplex,
		Style:       FBM,
		Frequency:   3,
		Octaves:     5,
		Persistence: 0.5,
		Lacunarity:  2,
	}
}

// Field is a continuous 2D scalar field.
type Field interface {
	Eval(x, y float64) float64
}

type source interface {
	eval2(x, y float64) float64
}

type simplexSource struct{ n opensimplex.Noise }

func (s simplexSource) eval2(x, y float64) float64 { return s.n.Eval2(x, y) }

type perlinSource struct{ p *perlin.Perlin }

// go-perlin output is roughly ±0.7; scale it up to use the full range.
func (s perlinSource) eval2(x, y float64) float64 { return clamp(s.p.Noise2D(x, y) * 1.4) }

// fractal layers octaves of a source.
type fractal struct {
	src    source
	params Params
}

// New builds the field for seed and params.
func New(seed int64, p Params) Field {
	if p.Octaves <= 0 {
		p.Octaves = 1
	}
	if p.Lacunarity <= 0 {
		p.Lacunarity = 2
	}
	if p.Persistence <= 0 {
		p.Persistence = 0.5
	}
	if p.Frequency <= 0 {
		p.Frequency = 1
	}

	var src source
	switch p.Algorithm {
	case Perlin:
		src = perlinSource{perlin.NewPerlin(2, 2, 3, seed)}
	default:
		src = simplexSource{opensimplex.New(seed)}
	}
	return &fractal{src: src, params: p}
}

func (f *fractal) Eval(x, y float64) float64 {
	total, amplitude, maxVal := 0.0, 1.0, 0.0
	freq := f.params.Frequency
	for i := 0; i < f.params.Octaves; i++ {
		n := f.src.eval2(x*freq, y*freq)
		switch f.params.Style {
		case Ridged:
			n = 1 - 2*math.Abs(n)
		case Billow:
			n = 2*math.Abs(n) - 1
		}
		total += n * amplitude
		maxVal += amplitude
		amplitude *= f.params.Persistence
		freq *= f.params.Lacunarity
	}
	return clamp(total / maxVal)
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// ParseAlgorithm maps "simplex" or "perlin" to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simplex", "opensimplex":
		return Simplex, nil
	case "perlin":
		return Perlin, nil
	}
	return Simplex, fmt.Errorf("unknown noise algorithm %q", s)
}

// ParseStyle maps "fbm", "ridged" or "billow" to a Style.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fbm":
		return FBM, nil
	case "ridged":
		return Ridged, nil
	case "billow":
		return Billow, nil
	}
	return FBM, fmt.Errorf("unknown noise style %q", s)
}
