package world

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/realmgen/internal/metrics"
	"github.com/talgya/realmgen/internal/politics"
)

func TestGenerateFullWorld(t *testing.T) {
	s := NewSession(SmallTestConfig(), metrics.NewRecorder())
	w, err := s.Generate(0, 0)
	require.NoError(t, err)
	require.Same(t, w, s.State())

	assert.Equal(t, int64(42), w.Seed)
	assert.Equal(t, StageKingdoms, w.Completed)
	assert.Equal(t, 400, w.CellCount())
	require.NoError(t, w.Hydro.Validate())

	// Every land cell has exactly one kingdom, ocean none.
	require.NoError(t, politics.Validate(w.Land, w.Politics.KingdomOf))
	total := 0
	for _, k := range w.Politics.Kingdoms {
		total += len(k.Cells)
	}
	land := 0
	for _, l := range w.Land {
		if l {
			land++
		}
	}
	assert.Equal(t, land, total)

	assert.Len(t, w.Terrain, w.CellCount())
	assert.Len(t, w.Borders, w.KingdomCount())
	assert.NotEmpty(t, w.Coastlines)
	for _, p := range w.Precipitation {
		assert.True(t, p >= 0 && p <= 1)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := NewSession(SmallTestConfig(), nil).Generate(7, 0)
	require.NoError(t, err)
	b, err := NewSession(SmallTestConfig(), nil).Generate(7, 0)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Points, b.Points)
	assert.Equal(t, a.Elevation, b.Elevation)
	assert.Equal(t, a.Hydro.Drainage, b.Hydro.Drainage)
	assert.Equal(t, a.Politics.KingdomOf, b.Politics.KingdomOf)
	assert.Equal(t, a.Cities, b.Cities)
	assert.Equal(t, a.Coastlines, b.Coastlines)
}

func TestMissingPreconditionsAreNoOps(t *testing.T) {
	s := NewSession(SmallTestConfig(), nil)

	w, err := s.GenerateElevation()
	assert.NoError(t, err)
	assert.Nil(t, w)

	w, err = s.ComputeDrainage()
	assert.NoError(t, err)
	assert.Nil(t, w)

	w, err = s.GenerateKingdoms()
	assert.NoError(t, err)
	assert.Nil(t, w)
	assert.Nil(t, s.State())

	_, err = s.GeneratePoints(3, 0)
	require.NoError(t, err)
	w, err = s.GeneratePrecipitation()
	assert.NoError(t, err)
	assert.Nil(t, w)
	assert.Equal(t, StagePoints, s.State().Completed)
}

func TestStagesClearDownstreamLayers(t *testing.T) {
	s := NewSession(SmallTestConfig(), nil)
	full, err := s.Generate(11, 0)
	require.NoError(t, err)

	w, err := s.GenerateElevation()
	require.NoError(t, err)
	assert.NotNil(t, w.Elevation)
	assert.Nil(t, w.Hydro)
	assert.Nil(t, w.Precipitation)
	assert.Nil(t, w.Politics)
	assert.Nil(t, w.Cities)
	assert.Nil(t, w.Borders)

	// The earlier world is untouched.
	assert.NotNil(t, full.Politics)
	assert.NotNil(t, full.Hydro)

	w, err = s.GeneratePoints(12, 300)
	require.NoError(t, err)
	assert.Equal(t, 300, w.CellCount())
	assert.Nil(t, w.Elevation)
	assert.False(t, w.Has(StageElevation))
}

func TestStepwiseEntryPoints(t *testing.T) {
	s := NewSession(SmallTestConfig(), nil)
	_, err := s.GeneratePoints(5, 0)
	require.NoError(t, err)
	_, err = s.GenerateElevation()
	require.NoError(t, err)
	_, err = s.ComputeDrainage()
	require.NoError(t, err)
	_, err = s.GeneratePrecipitation()
	require.NoError(t, err)
	w, err := s.GenerateKingdoms()
	require.NoError(t, err)

	assert.True(t, w.Has(StageDrainage))
	assert.True(t, w.Has(StagePrecipitation))
	assert.True(t, w.Has(StageKingdoms))
}

func TestGenerateCountAppliesToOneWorld(t *testing.T) {
	s := NewSession(SmallTestConfig(), nil)

	w, err := s.Generate(3, 250)
	require.NoError(t, err)
	assert.Equal(t, 250, w.CellCount())
	assert.Equal(t, 250, w.Config.Sampler.Count)
	assert.Equal(t, SmallTestConfig().Sampler.Count, s.Config().Sampler.Count, "session config untouched")

	w, err = s.Generate(3, 0)
	require.NoError(t, err)
	assert.Equal(t, SmallTestConfig().Sampler.Count, w.CellCount())
}

func TestConcurrentReadersSeeWholeWorlds(t *testing.T) {
	s := NewSession(SmallTestConfig(), nil)
	_, err := s.Generate(1, 0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				w := s.State()
				if w.Politics != nil {
					assert.Len(t, w.Politics.KingdomOf, w.CellCount())
				}
			}
		}()
	}
	for seed := int64(2); seed < 5; seed++ {
		_, err := s.Generate(seed, 0)
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}

func TestDeriveTerrain(t *testing.T) {
	assert.Equal(t, TerrainOcean, deriveTerrain(-10, 0.5, 0.5, 2000))
	assert.Equal(t, TerrainMountain, deriveTerrain(2500, 0.5, 0.5, 2000))
	assert.Equal(t, TerrainTundra, deriveTerrain(100, 0.5, 0.1, 2000))
	assert.Equal(t, TerrainDesert, deriveTerrain(100, 0.1, 0.8, 2000))
	assert.Equal(t, TerrainSwamp, deriveTerrain(100, 0.9, 0.6, 2000))
	assert.Equal(t, TerrainForest, deriveTerrain(900, 0.6, 0.6, 2000))
	assert.Equal(t, TerrainPlains, deriveTerrain(400, 0.4, 0.6, 2000))
	assert.Equal(t, "Plains", TerrainPlains.String())
}
