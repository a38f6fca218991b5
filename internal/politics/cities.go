package politics

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/talgya/realmgen/internal/mesh"
	"github.com/talgya/realmgen/internal/names"
	"github.com/talgya/realmgen/internal/terrain"
)

// CityKind categorizes a settlement.
type CityKind uint8

const (
	KindCapital CityKind = iota
	KindPort
	KindTown
	KindFortress
)

func (k CityKind) String() string {
	switch k {
	case KindCapital:
		return "capital"
	case KindPort:
		return "port"
	case KindTown:
		return "town"
	case KindFortress:
		return "fortress"
	default:
		return "unknown"
	}
}

// MarshalText lets kinds serialize by name.
func (k CityKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *CityKind) UnmarshalText(b []byte) error {
	for c := KindCapital; c <= KindFortress; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown city kind %q", b)
}

// CityConfig controls settlement siting.
type CityConfig struct {
	PerKingdom        int     // Non-capital cities per kingdom
	MaxPorts          int     // Across the whole world
	MaxFortresses     int     // Across the whole world
	MinSpacing        float64 // Minimum distance in mean cell spacings
	RiverBonus        float64
	CentralityWeight  float64 // Bonus at the kingdom centroid, fading to 0 at its edge
	CoastalPenalty    float64 // Applied to inland kinds on the coast
	FortressElevation float64 // Meters
}

// DefaultCityConfig returns the standard city siting parameters.
func DefaultCityConfig() CityConfig {
	return CityConfig{
		PerKingdom:        4,
		MaxPorts:          8,
		MaxFortresses:     6,
		MinSpacing:        3,
		RiverBonus:        1,
		CentralityWeight:  0.5,
		CoastalPenalty:    0.5,
		FortressElevation: 1200,
	}
}

// City is a sited settlement.
type City struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Cell    int      `json:"cell"`
	Kind    CityKind `json:"kind"`
	Kingdom int      `json:"kingdom"`
	Score   float64  `json:"score"`
}

// PlaceCities sites one capital per kingdom, then fills each kingdom with
// ports, towns and fortresses at the best scoring cells.
func PlaceCities(in Input, res *Result, cfg CityConfig, rng *rand.Rand, gen names.Generator) []City {
	if res == nil || len(res.Kingdoms) == 0 {
		return nil
	}
	g := in.Graph
	var cities []City
	for _, k := range res.Kingdoms {
		cities = append(cities, City{Cell: k.Capital, Kind: KindCapital, Kingdom: k.ID})
	}

	type scored struct {
		cell  int
		kind  CityKind
		score float64
	}
	var candidates []scored
	for c, k := range res.KingdomOf {
		if k == None || res.Kingdoms[k].Capital == c {
			continue
		}
		if in.Hydro != nil && in.Hydro.OnRiver[c] {
			continue
		}
		// Small jitter keeps equal-scoring plains from siting in index order.
		jitter := rng.Float64() * 0.05
		for _, opt := range cityOptions(in, res, c, cfg) {
			if opt.score > 0 {
				candidates = append(candidates, scored{c, opt.kind, opt.score + jitter})
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	w, h := g.Bounds()
	minDist := cfg.MinSpacing * math.Sqrt(w*h/float64(g.Len()))
	perKingdom := make([]int, len(res.Kingdoms))
	ports, forts := 0, 0
	taken := make(map[int]bool)
	for _, cand := range candidates {
		k := res.KingdomOf[cand.cell]
		if taken[cand.cell] || perKingdom[k] >= cfg.PerKingdom {
			continue
		}
		switch cand.kind {
		case KindPort:
			if ports >= cfg.MaxPorts {
				continue
			}
		case KindFortress:
			if forts >= cfg.MaxFortresses {
				continue
			}
		}
		if tooClose(g, cand.cell, cities, minDist) {
			continue
		}
		switch cand.kind {
		case KindPort:
			ports++
		case KindFortress:
			forts++
		}
		perKingdom[k]++
		taken[cand.cell] = true
		cities = append(cities, City{Cell: cand.cell, Kind: cand.kind, Kingdom: k, Score: cand.score})
	}

	var labels []string
	if gen != nil {
		labels = gen.Names(len(cities), names.City)
	}
	for i := range cities {
		cities[i].ID = i
		if labels != nil {
			cities[i].Name = labels[i]
		}
	}
	return cities
}

type cityOption struct {
	kind  CityKind
	score float64
}

// cityOptions rates cell c for each settlement kind that fits there. Coastal
// cells may host a port or, once ports run out, a penalized town.
func cityOptions(in Input, res *Result, c int, cfg CityConfig) []cityOption {
	g := in.Graph
	elev := in.Elevation[c]

	e := elev / terrain.MaxLandHeight
	score := 1 - math.Abs(e-0.08)/0.3
	score = math.Max(score, 0.1)

	coastal, riverside, frontier := false, false, false
	own := res.KingdomOf[c]
	sameKingdom := 0
	nbs := g.Neighbors(c)
	for _, nb := range nbs {
		if !in.Land[nb] {
			coastal = true
			continue
		}
		if in.Hydro != nil && in.Hydro.OnRiver[nb] {
			riverside = true
		}
		switch res.KingdomOf[nb] {
		case own:
			sameKingdom++
		case None:
		default:
			frontier = true
		}
	}
	if len(nbs) > 0 {
		score += float64(sameKingdom) / float64(len(nbs))
	}
	if riverside {
		score += cfg.RiverBonus
	}
	if own != None {
		score += cfg.CentralityWeight * centrality(g, res.Kingdoms[own], c)
	}

	switch {
	case coastal:
		return []cityOption{
			{KindPort, score + 0.5},
			{KindTown, score - cfg.CoastalPenalty},
		}
	case frontier && elev >= cfg.FortressElevation:
		return []cityOption{{KindFortress, score + 0.3}}
	default:
		return []cityOption{{KindTown, score}}
	}
}

// centrality is 1 at the kingdom centroid and falls linearly to 0 at the
// radius of a disc with the kingdom's area.
func centrality(g mesh.Graph, k Kingdom, c int) float64 {
	w, h := g.Bounds()
	radius := math.Sqrt(float64(len(k.Cells)) * w * h / float64(g.Len()) / math.Pi)
	if radius <= 0 {
		return 0
	}
	return math.Max(0, 1-g.Site(c).Dist(k.Centroid)/radius)
}

func tooClose(g mesh.Graph, cell int, existing []City, minDist float64) bool {
	p := g.Site(cell)
	for _, c := range existing {
		if g.Site(c.Cell).Dist(p) < minDist {
			return true
		}
	}
	return false
}
