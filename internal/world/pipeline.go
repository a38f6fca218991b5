package world

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/realmgen/internal/boundary"
	"github.com/talgya/realmgen/internal/climate"
	"github.com/talgya/realmgen/internal/hydro"
	"github.com/talgya/realmgen/internal/mesh"
	"github.com/talgya/realmgen/internal/names"
	"github.com/talgya/realmgen/internal/noise"
	"github.com/talgya/realmgen/internal/politics"
	"github.com/talgya/realmgen/internal/roads"
	"github.com/talgya/realmgen/internal/sampler"
	"github.com/talgya/realmgen/internal/terrain"
)

// buildPoints samples sites and builds the subdivision for a fresh world.
func buildPoints(cfg Config, seed int64) (*WorldState, error) {
	rng := rand.New(rand.NewSource(seed))
	pts, err := sampler.Sample(rng, cfg.Sampler)
	if err != nil {
		return nil, fmt.Errorf("sample points: %w", err)
	}
	v, err := mesh.Build(pts, cfg.Sampler.Width, cfg.Sampler.Height)
	if err != nil {
		return nil, fmt.Errorf("build mesh: %w", err)
	}
	return &WorldState{
		ID:          uuid.New(),
		Seed:        seed,
		Config:      cfg,
		Completed:   StagePoints,
		GeneratedAt: time.Now().UTC(),
		Width:       cfg.Sampler.Width,
		Height:      cfg.Sampler.Height,
		Points:      pts,
		Mesh:        v,
	}, nil
}

func withElevation(prev *WorldState) *WorldState {
	w := prev.derive(StageElevation)
	field := noise.New(w.Seed, w.Config.Noise)
	res := terrain.Synthesize(w.Mesh, field, w.Config.Terrain)
	w.Elevation = res.Elevation
	w.Land = res.Land
	w.SeaLevel = w.Config.Terrain.SeaLevel
	slog.Info("elevation generated", "land", res.LandCells, "ocean", res.OceanCells)
	return w
}

func withDrainage(prev *WorldState) (*WorldState, error) {
	w := prev.derive(StageDrainage)
	h := hydro.Run(w.Mesh, w.Elevation, w.Land, w.Config.Hydro)
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	w.Hydro = h
	w.Elevation = h.Elevation
	w.Land = h.Land
	slog.Info("drainage computed",
		"rivers", len(h.Rivers),
		"lakes", len(h.Lakes),
		"reclassified", h.Reclassified,
	)
	return w, nil
}

func withPrecipitation(prev *WorldState) *WorldState {
	w := prev.derive(StagePrecipitation)
	w.Precipitation = climate.Precipitation(w.Mesh, w.Elevation, w.Land, w.Config.Climate)
	w.Terrain = classifyTerrain(w, w.Config.MountainLevel)
	slog.Info("precipitation generated", "cells", len(w.Precipitation))
	return w
}

// withKingdoms partitions the land, sites cities, plans roads and extracts
// coastlines and borders.
func withKingdoms(prev *WorldState) (*WorldState, error) {
	w := prev.derive(StageKingdoms)
	cfg := w.Config
	gen := names.NewSyllable(w.Seed)

	in := politics.Input{Graph: w.Mesh, Elevation: w.Elevation, Land: w.Land, Hydro: w.Hydro}
	res, err := politics.Partition(in, cfg.Politics, gen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	w.Politics = res

	rng := rand.New(rand.NewSource(w.Seed + 200))
	w.Cities = politics.PlaceCities(in, res, cfg.Politics.Cities, rng, gen)

	planner := roads.NewPlanner(w.Mesh, w.Elevation, w.Land, w.Hydro, cfg.Roads)
	w.Roads = planner.Plan(w.Cities)

	ex := boundary.NewExtractor(w.Mesh)
	w.Coastlines = ex.Coastlines(w.Land, cfg.SmoothingPasses)
	w.Borders = ex.KingdomBorders(res.KingdomOf, len(res.Kingdoms), cfg.SmoothingPasses)

	slog.Info("kingdoms generated",
		"kingdoms", len(res.Kingdoms),
		"cities", len(w.Cities),
		"roads", len(w.Roads),
	)
	return w, nil
}
