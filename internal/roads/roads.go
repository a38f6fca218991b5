// Package roads connects settlements with A* paths over the cell graph.
package roads

import (
	"log/slog"
	"math"
	"sort"

	"github.com/talgya/realmgen/internal/hydro"
	"github.com/talgya/realmgen/internal/mesh"
	"github.com/talgya/realmgen/internal/politics"
)

// Config holds road cost parameters.
type Config struct {
	SlopePenalty       float64 // Cost multiplier added per meter of elevation change
	MountainElevation  float64
	MountainMultiplier float64
	RiverDiscount      float64 // Multiplier for stepping onto a riverside cell
	RiverCrossing      float64 // Multiplier for crossing a river edge
	ReuseDiscount      float64 // Multiplier for stepping onto an existing road
	CrossLinkDensity   float64 // Extra links per settlement, 0 disables
	CrossLinkRange     float64 // Maximum cross-link span in mean cell spacings
}

// DefaultConfig returns the standard road parameters.
func DefaultConfig() Config {
	return Config{
		SlopePenalty:       0.002,
		MountainElevation:  1500,
		MountainMultiplier: 3,
		RiverDiscount:      0.85,
		RiverCrossing:      4,
		ReuseDiscount:      0.3,
		CrossLinkDensity:   0.25,
		CrossLinkRange:     12,
	}
}

// Road is a cell path between two settlements.
type Road struct {
	ID    int   `json:"id"`
	From  int   `json:"from"` // City ID
	To    int   `json:"to"`
	Cells []int `json:"cells"`
	Major bool  `json:"major"` // Capital to capital
}

// Planner finds roads on one world. Roads already planned make later roads
// cheaper, so a Planner should be used for a single network.
type Planner struct {
	g         mesh.Graph
	elevation []float64
	land      []bool
	hydro     *hydro.Result
	cfg       Config

	onRoad    []bool
	riverside []bool
	minMult   float64
}

// NewPlanner prepares a planner. h may be nil.
func NewPlanner(g mesh.Graph, elevation []float64, land []bool, h *hydro.Result, cfg Config) *Planner {
	n := g.Len()
	p := &Planner{
		g:         g,
		elevation: elevation,
		land:      land,
		hydro:     h,
		cfg:       cfg,
		onRoad:    make([]bool, n),
		riverside: make([]bool, n),
		minMult:   1,
	}
	if cfg.RiverDiscount > 0 && cfg.RiverDiscount < 1 {
		p.minMult *= cfg.RiverDiscount
	}
	if cfg.ReuseDiscount > 0 && cfg.ReuseDiscount < 1 {
		p.minMult *= cfg.ReuseDiscount
	}
	if h != nil {
		for c := 0; c < n; c++ {
			if !h.OnRiver[c] {
				continue
			}
			p.riverside[c] = true
			for _, nb := range g.Neighbors(c) {
				p.riverside[nb] = true
			}
		}
	}
	return p
}

func (p *Planner) passable(c int) bool {
	if !p.land[c] {
		return false
	}
	return p.hydro == nil || p.hydro.LakeOf[c] == hydro.None
}

// stepCost is the cost of moving from a to its neighbor b.
func (p *Planner) stepCost(a, b int) float64 {
	cost := p.g.Site(a).Dist(p.g.Site(b))
	ea, eb := p.elevation[a], p.elevation[b]
	cost *= 1 + p.cfg.SlopePenalty*math.Abs(ea-eb)
	if (ea+eb)/2 > p.cfg.MountainElevation && p.cfg.MountainMultiplier > 1 {
		cost *= p.cfg.MountainMultiplier
	}
	if p.riverside[b] && p.cfg.RiverDiscount > 0 {
		cost *= p.cfg.RiverDiscount
	}
	if p.hydro != nil && p.cfg.RiverCrossing > 1 && p.hydro.IsRiverEdge(a, b) {
		cost *= p.cfg.RiverCrossing
	}
	if p.onRoad[b] && p.cfg.ReuseDiscount > 0 {
		cost *= p.cfg.ReuseDiscount
	}
	return cost
}

// Plan connects every settlement into a network. Capitals link to the
// nearest connected capital first, then each other settlement links to the
// nearest connected one, its own capital, or any other connected one, in
// that order of preference. Unreachable settlements are left unlinked.
func (p *Planner) Plan(settlements []politics.City) []Road {
	var roads []Road
	connected := make([]int, 0, len(settlements))
	linked := make(map[[2]int]bool)
	capitalOf := make(map[int]int)

	add := func(a, b int, path []int, major bool) {
		for _, c := range path {
			p.onRoad[c] = true
		}
		roads = append(roads, Road{
			ID:    len(roads),
			From:  settlements[a].ID,
			To:    settlements[b].ID,
			Cells: path,
			Major: major,
		})
		linked[pairKey(a, b)] = true
	}
	link := func(from int, targets []int, major bool) bool {
		for _, to := range targets {
			if path, ok := p.FindPath(settlements[from].Cell, settlements[to].Cell); ok {
				add(from, to, path, major)
				return true
			}
		}
		return false
	}

	for i, s := range settlements {
		if s.Kind != politics.KindCapital {
			continue
		}
		capitalOf[s.Kingdom] = i
		var capitals []int
		for _, c := range connected {
			if settlements[c].Kind == politics.KindCapital {
				capitals = append(capitals, c)
			}
		}
		link(i, p.byDistance(settlements, i, capitals), true)
		connected = append(connected, i)
	}

	unlinked := 0
	for i, s := range settlements {
		if s.Kind == politics.KindCapital {
			continue
		}
		order := p.byDistance(settlements, i, connected)
		var targets []int
		seen := make(map[int]bool)
		push := func(c int) {
			if !seen[c] {
				seen[c] = true
				targets = append(targets, c)
			}
		}
		if len(order) > 0 {
			push(order[0])
		}
		if c, ok := capitalOf[s.Kingdom]; ok {
			push(c)
		}
		for _, c := range order {
			push(c)
		}
		if !link(i, targets, false) && len(targets) > 0 {
			unlinked++
		}
		connected = append(connected, i)
	}

	roads = append(roads, p.crossLinks(settlements, linked, len(roads))...)
	slog.Debug("roads planned", "roads", len(roads), "unlinked", unlinked)
	return roads
}

// crossLinks adds extra roads between nearby settlement pairs not already
// linked directly, closest pairs first.
func (p *Planner) crossLinks(settlements []politics.City, linked map[[2]int]bool, nextID int) []Road {
	limit := int(p.cfg.CrossLinkDensity * float64(len(settlements)))
	if limit <= 0 {
		return nil
	}
	w, h := p.g.Bounds()
	span := p.cfg.CrossLinkRange * math.Sqrt(w*h/float64(p.g.Len()))

	type pair struct {
		a, b int
		d    float64
	}
	var pairs []pair
	for a := range settlements {
		for b := a + 1; b < len(settlements); b++ {
			if linked[pairKey(a, b)] {
				continue
			}
			d := p.g.Site(settlements[a].Cell).Dist(p.g.Site(settlements[b].Cell))
			if d <= span {
				pairs = append(pairs, pair{a, b, d})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].d < pairs[j].d })

	var out []Road
	for _, pr := range pairs {
		if len(out) >= limit {
			break
		}
		path, ok := p.FindPath(settlements[pr.a].Cell, settlements[pr.b].Cell)
		if !ok {
			continue
		}
		for _, c := range path {
			p.onRoad[c] = true
		}
		out = append(out, Road{
			ID:    nextID + len(out),
			From:  settlements[pr.a].ID,
			To:    settlements[pr.b].ID,
			Cells: path,
		})
	}
	return out
}

// byDistance returns candidates sorted by distance from settlement i.
func (p *Planner) byDistance(settlements []politics.City, i int, candidates []int) []int {
	out := append([]int(nil), candidates...)
	from := p.g.Site(settlements[i].Cell)
	sort.SliceStable(out, func(a, b int) bool {
		da := p.g.Site(settlements[out[a]].Cell).Dist(from)
		db := p.g.Site(settlements[out[b]].Cell).Dist(from)
		return da < db
	})
	return out
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
