// Package hydro derives drainage from elevation: inland-sea elimination,
// priority-flood depression filling, drainage pointers, flow accumulation,
// river tracing and optional lake basins.
package hydro

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/realmgen/internal/mesh"
)

// None marks a cell without a drainage target, river or lake.
const None = -1

// ErrDrainageCycle reports a drainage chain that fails to descend.
var ErrDrainageCycle = errors.New("drainage chain does not descend")

// Config holds hydrology parameters.
type Config struct {
	Epsilon        float64 // Minimum filled-elevation step in meters, must be > 0
	SourceFraction float64 // Share of land cells, by filled elevation, eligible as sources
	SourceSpacing  float64 // Minimum source separation in mean cell spacings
	MaxRivers      int     // 0 derives a cap from the cell count
	MinRiverLength int     // Rivers with fewer cells are discarded

	Lakes          bool    // Enables lake basin formation
	MaxLakeRise    float64 // Meters the water level may rise above the basin floor
	MaxIslandRatio float64 // Reject basins whose share of dry cells exceeds this
	MinLakeCells   int
}

// DefaultConfig returns the standard hydrology configuration. Lakes are off,
// matching the primary generation flow.
func DefaultConfig() Config {
	return Config{
		Epsilon:        0.01,
		SourceFraction: 0.15,
		SourceSpacing:  4,
		MinRiverLength: 4,
		Lakes:          false,
		MaxLakeRise:    150,
		MaxIslandRatio: 0.25,
		MinLakeCells:   2,
	}
}

// River is an ordered cell path from a source to the sea.
type River struct {
	ID    int     `json:"id"`
	Cells []int   `json:"cells"`
	Flow  float64 `json:"flow"` // Accumulated upstream cell count at the mouth
}

// Lake is a filled basin below its spill elevation.
type Lake struct {
	ID      int     `json:"id"`
	Cells   []int   `json:"cells"`
	Surface float64 `json:"surface"` // Spill elevation in meters
	Depth   float64 `json:"depth"`
	Outlet  int     `json:"outlet"`
}

// Result is the hydrology layer of a world.
type Result struct {
	Elevation    []float64 // Input elevation after inland-sea elimination
	Land         []bool
	Filled       []float64
	Drainage     []int
	Flow         []float64
	Sink         []bool // Ocean cells, plus border outlets when the world has no ocean
	Rivers       []River
	OnRiver      []bool
	Lakes        []Lake
	LakeOf       []int
	Reclassified int // Inland ocean cells turned into low land

	riverEdges map[[2]int]struct{}
}

// Run executes the hydrology stages in order. The inputs are not modified.
func Run(g mesh.Graph, elevation []float64, land []bool, cfg Config) *Result {
	n := g.Len()
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = 0.01
	}
	r := &Result{
		Elevation:  append([]float64(nil), elevation...),
		Land:       append([]bool(nil), land...),
		Filled:     make([]float64, n),
		Drainage:   make([]int, n),
		Flow:       make([]float64, n),
		Sink:       make([]bool, n),
		OnRiver:    make([]bool, n),
		LakeOf:     make([]int, n),
		riverEdges: make(map[[2]int]struct{}),
	}
	for i := range r.LakeOf {
		r.LakeOf[i] = None
	}

	r.Reclassified = eliminateInlandSeas(g, r.Elevation, r.Land)
	r.fill(g, cfg.Epsilon)
	r.assignDrainage(g)
	r.accumulate()

	sources := r.selectSources(g, cfg)
	r.traceRivers(g, sources, cfg)

	if cfg.Lakes {
		r.formLakes(g, cfg)
	}

	slog.Debug("hydrology complete",
		"reclassified", r.Reclassified,
		"sources", len(sources),
		"rivers", len(r.Rivers),
		"lakes", len(r.Lakes),
	)
	return r
}

// IsRiverEdge reports whether a river runs directly between cells a and b.
func (r *Result) IsRiverEdge(a, b int) bool {
	_, ok := r.riverEdges[edgeKey(a, b)]
	return ok
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Validate checks that every drainage chain strictly descends in filled
// elevation and ends at a sink.
func (r *Result) Validate() error {
	n := len(r.Drainage)
	ok := make([]bool, n)
	for start := 0; start < n; start++ {
		if ok[start] {
			continue
		}
		chain := []int{start}
		cur := start
		for steps := 0; ; steps++ {
			if steps > n {
				return fmt.Errorf("%w: chain from %d exceeds %d steps", ErrDrainageCycle, start, n)
			}
			next := r.Drainage[cur]
			if next == None {
				if r.Land[cur] && !r.Sink[cur] {
					return fmt.Errorf("%w: land cell %d has no drainage target", ErrDrainageCycle, cur)
				}
				break
			}
			if !(r.Filled[next] < r.Filled[cur]) {
				return fmt.Errorf("%w: %d (%.3f) -> %d (%.3f)", ErrDrainageCycle,
					cur, r.Filled[cur], next, r.Filled[next])
			}
			if ok[next] {
				break
			}
			chain = append(chain, next)
			cur = next
		}
		for _, c := range chain {
			ok[c] = true
		}
	}
	return nil
}
