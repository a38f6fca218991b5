// Package world holds the generated world model and the session that
// produces it. A WorldState is immutable once published; every regeneration
// builds a new one and swaps it in whole.
package world

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/realmgen/internal/boundary"
	"github.com/talgya/realmgen/internal/geom"
	"github.com/talgya/realmgen/internal/hydro"
	"github.com/talgya/realmgen/internal/mesh"
	"github.com/talgya/realmgen/internal/politics"
	"github.com/talgya/realmgen/internal/roads"
)

// ErrInvariant wraps consistency violations found after a stage: a land cell
// without a kingdom or a drainage chain that fails to descend. These are
// bugs, not bad input.
var ErrInvariant = errors.New("world invariant violated")

// Stage names a step of the pipeline, in execution order.
type Stage uint8

const (
	StagePoints Stage = iota
	StageElevation
	StageDrainage
	StagePrecipitation
	StageKingdoms
)

func (s Stage) String() string {
	switch s {
	case StagePoints:
		return "points"
	case StageElevation:
		return "elevation"
	case StageDrainage:
		return "drainage"
	case StagePrecipitation:
		return "precipitation"
	case StageKingdoms:
		return "kingdoms"
	default:
		return "unknown"
	}
}

// WorldState is one consistent set of layers. Layers after Completed are
// nil.
type WorldState struct {
	ID          uuid.UUID `json:"id"`
	Seed        int64     `json:"seed"`
	Config      Config    `json:"-"`
	Completed   Stage     `json:"completed"`
	GeneratedAt time.Time `json:"generated_at"`

	Width, Height float64
	Points        []geom.Vec2
	Mesh          *mesh.Voronoi

	Elevation []float64 // Meters; inland seas already raised once drainage ran
	Land      []bool
	SeaLevel  float64 // Sea-level fraction the elevation was split at

	Hydro *hydro.Result

	Precipitation []float64
	Terrain       []Terrain

	Politics   *politics.Result
	Cities     []politics.City
	Roads      []roads.Road
	Coastlines []geom.Loop
	Borders    []boundary.Border
}

// Has reports whether stage s has been computed for this state.
func (w *WorldState) Has(s Stage) bool {
	if w == nil {
		return false
	}
	switch s {
	case StagePoints:
		return w.Mesh != nil
	case StageElevation:
		return w.Elevation != nil
	case StageDrainage:
		return w.Hydro != nil
	case StagePrecipitation:
		return w.Precipitation != nil
	case StageKingdoms:
		return w.Politics != nil
	}
	return false
}

// CellCount returns the number of cells, 0 for a nil state.
func (w *WorldState) CellCount() int {
	if w == nil || w.Mesh == nil {
		return 0
	}
	return w.Mesh.Len()
}

// KingdomCount returns the number of kingdoms, 0 before partitioning.
func (w *WorldState) KingdomCount() int {
	if w == nil || w.Politics == nil {
		return 0
	}
	return len(w.Politics.Kingdoms)
}

// ElevationRange returns the lowest and highest cell elevation.
func (w *WorldState) ElevationRange() (lo, hi float64) {
	for i, e := range w.Elevation {
		if i == 0 || e < lo {
			lo = e
		}
		if i == 0 || e > hi {
			hi = e
		}
	}
	return lo, hi
}

// String returns a summary of the world.
func (w *WorldState) String() string {
	if w == nil {
		return "World(empty)"
	}
	return fmt.Sprintf("World(id=%s, seed=%d, cells=%d, stage=%s, kingdoms=%d)",
		w.ID, w.Seed, w.CellCount(), w.Completed, w.KingdomCount())
}

// derive copies w for the next stage, keeps layers up to and including
// keep, and drops everything after it.
func (w *WorldState) derive(keep Stage) *WorldState {
	next := *w
	next.ID = uuid.New()
	next.GeneratedAt = time.Now().UTC()
	next.Completed = keep
	if keep < StageKingdoms {
		next.Politics = nil
		next.Cities = nil
		next.Roads = nil
		next.Coastlines = nil
		next.Borders = nil
	}
	if keep < StagePrecipitation {
		next.Precipitation = nil
		next.Terrain = nil
	}
	if keep < StageDrainage {
		next.Hydro = nil
	}
	if keep < StageElevation {
		next.Elevation = nil
		next.Land = nil
		next.SeaLevel = 0
	}
	return &next
}
