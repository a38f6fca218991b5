package sampler

import (
	"math"
	"math/rand"

	"github.com/talgya/realmgen/internal/geom"
)

// poisson runs Bridson's algorithm and pads any shortfall with uniform
// points so the caller always receives cfg.Count points.
func poisson(rng *rand.Rand, cfg Config) []geom.Vec2 {
	w, h := cfg.Width, cfg.Height
	minDist := cfg.MinDist
	if minDist <= 0 {
		minDist = 0.75 * math.Sqrt(w*h/float64(cfg.Count))
	}
	tries := cfg.MaxTries
	if tries <= 0 {
		tries = 30
	}

	// r/sqrt(2) guarantees at most one point per grid cell.
	cellSize := minDist / math.Sqrt2
	gridW := int(math.Ceil(w / cellSize))
	gridH := int(math.Ceil(h / cellSize))
	grid := make([]int, gridW*gridH)
	for i := range grid {
		grid[i] = -1
	}

	toGrid := func(p geom.Vec2) (int, int) {
		gx := min(max(int(p.X/cellSize), 0), gridW-1)
		gy := min(max(int(p.Y/cellSize), 0), gridH-1)
		return gx, gy
	}

	points := make([]geom.Vec2, 0, cfg.Count)
	active := make([]int, 0, 128)

	valid := func(p geom.Vec2) bool {
		if p.X < 0 || p.X >= w || p.Y < 0 || p.Y >= h {
			return false
		}
		gx, gy := toGrid(p)
		r2 := minDist * minDist
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				nx, ny := gx+dx, gy+dy
				if nx < 0 || nx >= gridW || ny < 0 || ny >= gridH {
					continue
				}
				if idx := grid[ny*gridW+nx]; idx >= 0 && points[idx].Sub(p).Len2() < r2 {
					return false
				}
			}
		}
		return true
	}

	insert := func(p geom.Vec2) {
		idx := len(points)
		points = append(points, p)
		active = append(active, idx)
		gx, gy := toGrid(p)
		grid[gy*gridW+gx] = idx
	}

	insert(geom.Vec2{X: rng.Float64() * w, Y: rng.Float64() * h})

	for len(active) > 0 && len(points) < cfg.Count {
		ai := rng.Intn(len(active))
		p := points[active[ai]]

		found := false
		for k := 0; k < tries; k++ {
			angle := rng.Float64() * 2 * math.Pi
			dist := minDist * (1 + rng.Float64())
			c := geom.Vec2{X: p.X + dist*math.Cos(angle), Y: p.Y + dist*math.Sin(angle)}
			if valid(c) {
				insert(c)
				found = true
				break
			}
		}
		if !found {
			active[ai] = active[len(active)-1]
			active = active[:len(active)-1]
		}
	}

	for len(points) < cfg.Count {
		points = append(points, geom.Vec2{X: rng.Float64() * w, Y: rng.Float64() * h})
	}
	return points
}
