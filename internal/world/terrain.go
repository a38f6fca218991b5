package world

import "github.com/talgya/realmgen/internal/hydro"

// Terrain is the display class of a cell, derived from elevation,
// precipitation, latitude and water features.
type Terrain uint8

const (
	TerrainOcean    Terrain = iota
	TerrainLake             // Accepted lake basin
	TerrainCoast            // Low land next to ocean
	TerrainRiver            // Land cell on a traced river
	TerrainPlains           // Fertile lowland
	TerrainForest           // Wet, higher ground
	TerrainMountain         // Above the mountain level
	TerrainDesert           // Dry and warm
	TerrainSwamp            // Wet lowland
	TerrainTundra           // Cold
)

// deriveTerrain determines terrain type from environmental parameters.
// elev is in meters, rain and temp in [0,1].
func deriveTerrain(elev, rain, temp, mountain float64) Terrain {
	if elev < 0 {
		return TerrainOcean
	}
	if elev > mountain {
		return TerrainMountain
	}
	if temp < 0.25 {
		return TerrainTundra
	}
	if rain < 0.25 && temp > 0.5 {
		return TerrainDesert
	}
	if rain > 0.7 && elev < 300 {
		return TerrainSwamp
	}
	if rain > 0.45 && elev > 600 {
		return TerrainForest
	}
	return TerrainPlains
}

// classifyTerrain derives every cell's terrain. Temperature falls off with
// distance from the horizontal midline and with altitude.
func classifyTerrain(w *WorldState, mountain float64) []Terrain {
	g := w.Mesh
	_, height := g.Bounds()
	out := make([]Terrain, g.Len())
	for i := range out {
		elev := w.Elevation[i]
		lat := g.Site(i).Y / height
		temp := 1 - 2*abs(lat-0.5) - max(elev, 0)/8000
		out[i] = deriveTerrain(elev, w.Precipitation[i], temp, mountain)
	}

	// Water features override climate.
	for i, t := range out {
		switch {
		case t == TerrainOcean:
		case w.Hydro != nil && w.Hydro.LakeOf[i] != hydro.None:
			out[i] = TerrainLake
		case w.Hydro != nil && w.Hydro.OnRiver[i]:
			out[i] = TerrainRiver
		case t == TerrainPlains || t == TerrainForest:
			for _, nb := range g.Neighbors(i) {
				if !w.Land[nb] && w.Elevation[i] < 300 {
					out[i] = TerrainCoast
					break
				}
			}
		}
	}
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(terrain []Terrain) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, t := range terrain {
		counts[t]++
	}
	return counts
}

// String returns a human-readable name for a terrain type.
func (t Terrain) String() string {
	switch t {
	case TerrainOcean:
		return "Ocean"
	case TerrainLake:
		return "Lake"
	case TerrainCoast:
		return "Coast"
	case TerrainRiver:
		return "River"
	case TerrainPlains:
		return "Plains"
	case TerrainForest:
		return "Forest"
	case TerrainMountain:
		return "Mountain"
	case TerrainDesert:
		return "Desert"
	case TerrainSwamp:
		return "Swamp"
	case TerrainTundra:
		return "Tundra"
	default:
		return "Unknown"
	}
}

// MarshalText lets terrain serialize by name.
func (t Terrain) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
