package politics

import (
	"log/slog"
	"math"

	"github.com/talgya/realmgen/internal/geom"
	"github.com/talgya/realmgen/internal/pq"
)

// edgeCost is the price of extending a kingdom from a to b. Rivers and
// mountain ridges are expensive, so borders settle along them.
func (p *partitioner) edgeCost(a, b int) float64 {
	cost := 1.0
	if p.in.Hydro != nil && p.cfg.RiverCost > 0 && p.in.Hydro.IsRiverEdge(a, b) {
		cost = p.cfg.RiverCost
	}
	ea, eb := p.in.Elevation[a], p.in.Elevation[b]
	cost += p.cfg.SlopeCost * math.Abs(ea-eb)
	if avg := (ea + eb) / 2; avg > p.cfg.MountainElevation {
		cost += p.cfg.MountainCost * (avg - p.cfg.MountainElevation)
	}
	return cost
}

// floodFill grows every kingdom from its capital. Each step advances the
// kingdom whose frontier holds the cheapest cell, so territory is split by
// accumulated crossing cost.
func (p *partitioner) floodFill() {
	owner := p.res.KingdomOf
	kingdoms := p.res.Kingdoms
	n := len(owner)

	queues := make([]*pq.Queue, len(kingdoms))
	for i, k := range kingdoms {
		queues[i] = pq.New(64)
		queues[i].Push(k.Capital, 0)
	}

	limit := 8*n + len(kingdoms)
	steps := 0
	for ; steps < limit; steps++ {
		best, bestCost := None, math.Inf(1)
		for i, q := range queues {
			if c, ok := q.Peek(); ok && c < bestCost {
				best, bestCost = i, c
			}
		}
		if best == None {
			break
		}
		c, cost := queues[best].Pop()
		if owner[c] != None {
			continue
		}
		owner[c] = best
		for _, nb := range p.in.Graph.Neighbors(c) {
			if p.in.Land[nb] && owner[nb] == None {
				queues[best].Push(nb, cost+p.edgeCost(c, nb))
			}
		}
	}
	if steps == limit {
		slog.Warn("kingdom flood fill hit iteration cap", "cap", limit)
	}
}

// annexIslands hands every landmass without its own kingdom to the nearest
// capital on another landmass.
func (p *partitioner) annexIslands() {
	g := p.in.Graph
	for _, lm := range p.res.Landmasses {
		if lm.Kingdoms > 0 {
			continue
		}
		sites := make([]geom.Vec2, len(lm.Cells))
		for i, c := range lm.Cells {
			sites[i] = g.Site(c)
		}
		center := geom.Mean(sites)

		best, bestDist := None, math.Inf(1)
		for _, k := range p.res.Kingdoms {
			if k.Landmass == lm.ID {
				continue
			}
			if d := g.Site(k.Capital).Dist(center); d < bestDist {
				best, bestDist = k.ID, d
			}
		}
		if best == None {
			continue
		}
		for _, c := range lm.Cells {
			p.res.KingdomOf[c] = best
		}
	}
}

// claimLeftovers assigns land cells the flood fill never reached: first by
// the majority of claimed neighbors, then by the nearest claimed cell.
func (p *partitioner) claimLeftovers() {
	g := p.in.Graph
	owner := p.res.KingdomOf
	n := len(owner)

	for pass := 0; pass < n; pass++ {
		changed := false
		for c := 0; c < n; c++ {
			if !p.in.Land[c] || owner[c] != None {
				continue
			}
			if k := p.majority(c, nil); k != None {
				owner[c] = k
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	leftover := 0
	for c := 0; c < n; c++ {
		if !p.in.Land[c] || owner[c] != None {
			continue
		}
		leftover++
		best, bestDist := None, math.Inf(1)
		for o := 0; o < n; o++ {
			if owner[o] == None {
				continue
			}
			if d := g.Site(o).Dist(g.Site(c)); d < bestDist {
				best, bestDist = owner[o], d
			}
		}
		owner[c] = best
	}
	if leftover > 0 {
		slog.Debug("claimed leftover land by distance", "cells", leftover)
	}
}

// majority returns the kingdom owning the most land neighbors of c, ties to
// the lower id. skip excludes a kingdom from the count. None when no
// neighbor is claimed.
func (p *partitioner) majority(c int, skip func(k int) bool) int {
	counts := map[int]int{}
	for _, nb := range p.in.Graph.Neighbors(c) {
		k := p.res.KingdomOf[nb]
		if !p.in.Land[nb] || k == None || (skip != nil && skip(k)) {
			continue
		}
		counts[k]++
	}
	best, bestCount := None, 0
	for k, cnt := range counts {
		if cnt > bestCount || (cnt == bestCount && k < best) {
			best, bestCount = k, cnt
		}
	}
	return best
}
