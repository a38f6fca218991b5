package sampler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJitteredSeed42IsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	a, err := Sample(rand.New(rand.NewSource(42)), cfg)
	require.NoError(t, err)
	b, err := Sample(rand.New(rand.NewSource(42)), cfg)
	require.NoError(t, err)

	require.Len(t, a, 2000)
	assert.Equal(t, a, b)
}

func TestEveryDistributionFillsDomain(t *testing.T) {
	for _, d := range []Distribution{Random, Jittered, Poisson, Lloyd} {
		t.Run(d.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Distribution = d
			cfg.Count = 300
			cfg.Width, cfg.Height = 400, 200

			pts, err := Sample(rand.New(rand.NewSource(7)), cfg)
			require.NoError(t, err)
			require.Len(t, pts, 300)
			for _, p := range pts {
				assert.True(t, p.X >= 0 && p.X <= 400 && p.Y >= 0 && p.Y <= 200, "%v outside domain", p)
			}
		})
	}
}

func TestPoissonSpacing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = Poisson
	cfg.Count = 50
	cfg.Width, cfg.Height = 100, 100
	cfg.MinDist = 8

	pts, err := Sample(rand.New(rand.NewSource(3)), cfg)
	require.NoError(t, err)
	require.Len(t, pts, 50)
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			assert.GreaterOrEqual(t, pts[i].Dist(pts[j]), 8.0)
		}
	}
}

func TestPoissonShortfallIsPadded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = Poisson
	cfg.Count = 500
	cfg.Width, cfg.Height = 1000, 1000
	cfg.MinDist = 200 // room for a few dozen darts at most

	pts, err := Sample(rand.New(rand.NewSource(8)), cfg)
	require.NoError(t, err)
	require.Len(t, pts, 500)
	for _, p := range pts {
		assert.True(t, p.X >= 0 && p.X <= 1000 && p.Y >= 0 && p.Y <= 1000, "point %v outside domain", p)
	}

	again, err := Sample(rand.New(rand.NewSource(8)), cfg)
	require.NoError(t, err)
	assert.Equal(t, pts, again)
}

func TestSampleRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 0
	_, err := Sample(rand.New(rand.NewSource(1)), cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Width = 0
	_, err = Sample(rand.New(rand.NewSource(1)), cfg)
	assert.Error(t, err)
}

func TestParseDistribution(t *testing.T) {
	d, err := ParseDistribution(" Poisson ")
	require.NoError(t, err)
	assert.Equal(t, Poisson, d)

	_, err = ParseDistribution("hexagonal")
	assert.Error(t, err)
}
