package roads

import (
	"math"

	"github.com/talgya/realmgen/internal/pq"
)

// FindPath returns the cheapest passable cell path from one cell to another,
// inclusive of both ends. ok is false when no route exists or the search
// exceeds its iteration cap.
func (p *Planner) FindPath(from, to int) ([]int, bool) {
	if !p.passable(from) || !p.passable(to) {
		return nil, false
	}
	if from == to {
		return []int{from}, true
	}

	n := p.g.Len()
	goal := p.g.Site(to)
	heuristic := func(c int) float64 {
		return p.g.Site(c).Dist(goal) * p.minMult
	}

	cost := make([]float64, n)
	for i := range cost {
		cost[i] = math.Inf(1)
	}
	prev := make([]int, n)
	closed := make([]bool, n)
	cost[from] = 0
	prev[from] = -1

	open := pq.New(64)
	open.Push(from, heuristic(from))
	for iter := 0; open.Len() > 0 && iter < 8*n; iter++ {
		c, _ := open.Pop()
		if closed[c] {
			continue
		}
		if c == to {
			return reconstruct(prev, to), true
		}
		closed[c] = true
		for _, nb := range p.g.Neighbors(c) {
			if closed[nb] || !p.passable(nb) {
				continue
			}
			g := cost[c] + p.stepCost(c, nb)
			if g < cost[nb] {
				cost[nb] = g
				prev[nb] = c
				open.Push(nb, g+heuristic(nb))
			}
		}
	}
	return nil, false
}

func reconstruct(prev []int, to int) []int {
	var path []int
	for c := to; c != -1; c = prev[c] {
		path = append(path, c)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
