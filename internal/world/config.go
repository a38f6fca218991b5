package world

import (
	"github.com/talgya/realmgen/internal/climate"
	"github.com/talgya/realmgen/internal/hydro"
	"github.com/talgya/realmgen/internal/noise"
	"github.com/talgya/realmgen/internal/politics"
	"github.com/talgya/realmgen/internal/roads"
	"github.com/talgya/realmgen/internal/sampler"
	"github.com/talgya/realmgen/internal/terrain"
)

// Config holds world generation parameters, one block per stage.
type Config struct {
	Seed int64 // Random seed (0 = random)

	Sampler  sampler.Config
	Noise    noise.Params
	Terrain  terrain.Config
	Hydro    hydro.Config
	Climate  climate.Config
	Politics politics.Config
	Roads    roads.Config

	SmoothingPasses int     // Chaikin passes for coastlines and borders
	MountainLevel   float64 // Meters above which land classifies as mountain
}

// DefaultConfig returns a reasonable starting configuration.
func DefaultConfig() Config {
	return Config{
		Sampler:         sampler.DefaultConfig(),
		Noise:           noise.DefaultParams(),
		Terrain:         terrain.DefaultConfig(),
		Hydro:           hydro.DefaultConfig(),
		Climate:         climate.DefaultConfig(),
		Politics:        politics.DefaultConfig(),
		Roads:           roads.DefaultConfig(),
		SmoothingPasses: 3,
		MountainLevel:   2000,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Sampler.Count = 400
	cfg.Sampler.Width = 200
	cfg.Sampler.Height = 200
	cfg.Politics.Kingdoms = 3
	cfg.Politics.MinKingdomCells = 10
	cfg.Politics.TinyLandmassCells = 4
	cfg.Politics.Cities.PerKingdom = 2
	cfg.SmoothingPasses = 2
	return cfg
}
