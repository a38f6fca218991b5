// Package config loads the optional YAML configuration file. Every field is
// optional: zero values keep the built-in defaults, and server settings fall
// back to environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/realmgen/internal/noise"
	"github.com/talgya/realmgen/internal/sampler"
	"github.com/talgya/realmgen/internal/terrain"
	"github.com/talgya/realmgen/internal/world"
)

// Config is the file layout.
type Config struct {
	World  WorldConfig  `yaml:"world"`
	Server ServerConfig `yaml:"server"`
}

type WorldConfig struct {
	Seed         int64   `yaml:"seed"`
	Points       int     `yaml:"points"`
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	Distribution string  `yaml:"distribution"`

	NoiseAlgorithm string  `yaml:"noise_algorithm"`
	NoiseStyle     string  `yaml:"noise_style"`
	NoiseFrequency float64 `yaml:"noise_frequency"`
	NoiseOctaves   int     `yaml:"noise_octaves"`

	SeaLevel        *float64 `yaml:"sea_level"`
	Falloff         string   `yaml:"falloff"`
	FalloffStrength *float64 `yaml:"falloff_strength"`

	Lakes     *bool `yaml:"lakes"`
	MaxRivers int   `yaml:"max_rivers"`

	WindDirection *float64 `yaml:"wind_direction"`
	WindStrength  float64  `yaml:"wind_strength"`

	Kingdoms         int      `yaml:"kingdoms"`
	CitiesPerKingdom int      `yaml:"cities_per_kingdom"`
	CrossLinkDensity *float64 `yaml:"cross_link_density"`
	SmoothingPasses  *int     `yaml:"smoothing_passes"`
}

type ServerConfig struct {
	Port       int    `yaml:"port"`
	DBPath     string `yaml:"db_path"`
	ExportPath string `yaml:"export_path"`
	AdminKey   string `yaml:"admin_key"`

	// Stage runs each client may request per window, e.g. "30m".
	GenerateBudget int    `yaml:"generate_budget"`
	GenerateWindow string `yaml:"generate_window"`

	RandomOrgKey string `yaml:"random_org_key"`
}

// Load reads path, or the file named by REALMGEN_CONFIG when path is empty.
// Returns nil without error when neither is set.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("REALMGEN_CONFIG")
		if path == "" {
			return nil, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Apply overlays the file's world settings on base. A nil receiver returns
// base unchanged.
func (c *Config) Apply(base world.Config) (world.Config, error) {
	if c == nil {
		return base, nil
	}
	w := c.World
	out := base

	if w.Seed != 0 {
		out.Seed = w.Seed
	}
	if w.Points > 0 {
		out.Sampler.Count = w.Points
	}
	if w.Width > 0 {
		out.Sampler.Width = w.Width
	}
	if w.Height > 0 {
		out.Sampler.Height = w.Height
	}
	if w.Distribution != "" {
		d, err := sampler.ParseDistribution(w.Distribution)
		if err != nil {
			return base, err
		}
		out.Sampler.Distribution = d
	}

	if w.NoiseAlgorithm != "" {
		a, err := noise.ParseAlgorithm(w.NoiseAlgorithm)
		if err != nil {
			return base, err
		}
		out.Noise.Algorithm = a
	}
	if w.NoiseStyle != "" {
		s, err := noise.ParseStyle(w.NoiseStyle)
		if err != nil {
			return base, err
		}
		out.Noise.Style = s
	}
	if w.NoiseFrequency > 0 {
		out.Noise.Frequency = w.NoiseFrequency
	}
	if w.NoiseOctaves > 0 {
		out.Noise.Octaves = w.NoiseOctaves
	}

	if w.SeaLevel != nil {
		if *w.SeaLevel < 0 || *w.SeaLevel > 1 {
			return base, fmt.Errorf("sea_level %.2f outside [0,1]", *w.SeaLevel)
		}
		out.Terrain.SeaLevel = *w.SeaLevel
	}
	if w.Falloff != "" {
		f, err := parseFalloff(w.Falloff)
		if err != nil {
			return base, err
		}
		out.Terrain.Falloff = f
	}
	if w.FalloffStrength != nil {
		out.Terrain.FalloffStrength = *w.FalloffStrength
	}

	if w.Lakes != nil {
		out.Hydro.Lakes = *w.Lakes
	}
	if w.MaxRivers > 0 {
		out.Hydro.MaxRivers = w.MaxRivers
	}
	if w.WindDirection != nil {
		out.Climate.WindDirection = *w.WindDirection
	}
	if w.WindStrength > 0 {
		out.Climate.WindStrength = w.WindStrength
	}

	if w.Kingdoms > 0 {
		out.Politics.Kingdoms = w.Kingdoms
	}
	if w.CitiesPerKingdom > 0 {
		out.Politics.Cities.PerKingdom = w.CitiesPerKingdom
	}
	if w.CrossLinkDensity != nil {
		out.Roads.CrossLinkDensity = *w.CrossLinkDensity
	}
	if w.SmoothingPasses != nil {
		out.SmoothingPasses = *w.SmoothingPasses
	}
	return out, nil
}

func parseFalloff(s string) (terrain.Falloff, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return terrain.FalloffNone, nil
	case "radial":
		return terrain.FalloffRadial, nil
	case "square":
		return terrain.FalloffSquare, nil
	}
	return terrain.FalloffNone, fmt.Errorf("unknown falloff %q", s)
}

// GetPort returns the API port from the file, REALMGEN_PORT, or 8080.
func (s *ServerConfig) GetPort() int {
	if s != nil && s.Port > 0 {
		return s.Port
	}
	return envIntOrDefault("REALMGEN_PORT", 8080)
}

// GetDBPath returns the database path from the file, REALMGEN_DB, or
// "data/realmgen.db".
func (s *ServerConfig) GetDBPath() string {
	if s != nil && s.DBPath != "" {
		return s.DBPath
	}
	return envOrDefault("REALMGEN_DB", "data/realmgen.db")
}

// GetExportPath returns the snapshot path from the file or REALMGEN_EXPORT.
// Empty disables file export.
func (s *ServerConfig) GetExportPath() string {
	if s != nil && s.ExportPath != "" {
		return s.ExportPath
	}
	return os.Getenv("REALMGEN_EXPORT")
}

// GetAdminKey returns the admin bearer key from the file or REALMGEN_ADMIN_KEY.
func (s *ServerConfig) GetAdminKey() string {
	if s != nil && s.AdminKey != "" {
		return s.AdminKey
	}
	return os.Getenv("REALMGEN_ADMIN_KEY")
}

// GetRandomOrgKey returns the random.org API key from the file or
// RANDOM_ORG_API_KEY. Empty means seeds come from crypto/rand.
func (s *ServerConfig) GetRandomOrgKey() string {
	if s != nil && s.RandomOrgKey != "" {
		return s.RandomOrgKey
	}
	return os.Getenv("RANDOM_ORG_API_KEY")
}

// GetGenerateBudget returns the per-client stage budget from the file,
// REALMGEN_GENERATE_BUDGET, or 100.
func (s *ServerConfig) GetGenerateBudget() int {
	if s != nil && s.GenerateBudget > 0 {
		return s.GenerateBudget
	}
	return envIntOrDefault("REALMGEN_GENERATE_BUDGET", 100)
}

// GetGenerateWindow returns the budget window from the file,
// REALMGEN_GENERATE_WINDOW, or one hour. Unparsable or non-positive values
// are skipped.
func (s *ServerConfig) GetGenerateWindow() time.Duration {
	if s != nil {
		if d, err := time.ParseDuration(s.GenerateWindow); err == nil && d > 0 {
			return d
		}
	}
	if d, err := time.ParseDuration(os.Getenv("REALMGEN_GENERATE_WINDOW")); err == nil && d > 0 {
		return d
	}
	return time.Hour
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
