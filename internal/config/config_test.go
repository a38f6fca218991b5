package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/realmgen/internal/noise"
	"github.com/talgya/realmgen/internal/sampler"
	"github.com/talgya/realmgen/internal/terrain"
	"github.com/talgya/realmgen/internal/world"
)

const sample = `
world:
  seed: 1234
  points: 500
  distribution: poisson
  noise_algorithm: perlin
  noise_style: ridged
  sea_level: 0
  falloff: square
  lakes: true
  wind_direction: 270
  kingdoms: 5
  smoothing_passes: 0
server:
  port: 9090
  db_path: /tmp/realm.db
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "realmgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAndApply(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	wc, err := cfg.Apply(world.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(1234), wc.Seed)
	assert.Equal(t, 500, wc.Sampler.Count)
	assert.Equal(t, sampler.Poisson, wc.Sampler.Distribution)
	assert.Equal(t, noise.Perlin, wc.Noise.Algorithm)
	assert.Equal(t, noise.Ridged, wc.Noise.Style)
	assert.Equal(t, 0.0, wc.Terrain.SeaLevel, "explicit zero overrides the default")
	assert.Equal(t, terrain.FalloffSquare, wc.Terrain.Falloff)
	assert.True(t, wc.Hydro.Lakes)
	assert.Equal(t, 270.0, wc.Climate.WindDirection)
	assert.Equal(t, 5, wc.Politics.Kingdoms)
	assert.Equal(t, 0, wc.SmoothingPasses)

	// Untouched fields keep defaults.
	def := world.DefaultConfig()
	assert.Equal(t, def.Sampler.Width, wc.Sampler.Width)
	assert.Equal(t, def.Hydro.SourceFraction, wc.Hydro.SourceFraction)

	assert.Equal(t, 9090, cfg.Server.GetPort())
	assert.Equal(t, "/tmp/realm.db", cfg.Server.GetDBPath())
}

func TestLoadWithoutPath(t *testing.T) {
	t.Setenv("REALMGEN_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, cfg)

	wc, err := cfg.Apply(world.SmallTestConfig())
	require.NoError(t, err)
	assert.Equal(t, world.SmallTestConfig(), wc)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("REALMGEN_CONFIG", writeConfig(t, "world:\n  points: 99\n"))
	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 99, cfg.World.Points)
}

func TestApplyRejectsBadValues(t *testing.T) {
	for _, body := range []string{
		"world:\n  distribution: hexagonal\n",
		"world:\n  sea_level: 1.5\n",
		"world:\n  falloff: diamond\n",
		"world:\n  noise_style: terraced\n",
	} {
		cfg, err := Load(writeConfig(t, body))
		require.NoError(t, err)
		_, err = cfg.Apply(world.DefaultConfig())
		assert.Error(t, err, body)
	}
}

func TestServerEnvFallback(t *testing.T) {
	t.Setenv("REALMGEN_PORT", "7001")
	t.Setenv("REALMGEN_DB", "")
	t.Setenv("REALMGEN_ADMIN_KEY", "secret")

	var s *ServerConfig
	assert.Equal(t, 7001, s.GetPort())
	assert.Equal(t, "data/realmgen.db", s.GetDBPath())
	assert.Equal(t, "secret", s.GetAdminKey())
}

func TestGenerateBudgetSettings(t *testing.T) {
	t.Setenv("REALMGEN_GENERATE_BUDGET", "")
	t.Setenv("REALMGEN_GENERATE_WINDOW", "")

	var s *ServerConfig
	assert.Equal(t, 100, s.GetGenerateBudget())
	assert.Equal(t, time.Hour, s.GetGenerateWindow())

	t.Setenv("REALMGEN_GENERATE_BUDGET", "40")
	t.Setenv("REALMGEN_GENERATE_WINDOW", "10m")
	assert.Equal(t, 40, s.GetGenerateBudget())
	assert.Equal(t, 10*time.Minute, s.GetGenerateWindow())

	s = &ServerConfig{GenerateBudget: 7, GenerateWindow: "90s"}
	assert.Equal(t, 7, s.GetGenerateBudget())
	assert.Equal(t, 90*time.Second, s.GetGenerateWindow())

	s.GenerateWindow = "soon"
	assert.Equal(t, 10*time.Minute, s.GetGenerateWindow())
}
