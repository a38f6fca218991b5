package politics

import (
	"log/slog"
	"math"
)

// smoothBorders reassigns a cell when at least two thirds of its land
// neighbors belong to one other kingdom. Each pass reads the previous pass's
// assignment. Capitals never move.
func (p *partitioner) smoothBorders() {
	g := p.in.Graph
	capital := p.capitalSet()
	for iter := 0; iter < p.cfg.SmoothIterations; iter++ {
		owner := p.res.KingdomOf
		next := append([]int(nil), owner...)
		changed := 0
		for c, k := range owner {
			if k == None || capital[c] {
				continue
			}
			counts := map[int]int{}
			landNbs := 0
			for _, nb := range g.Neighbors(c) {
				if !p.in.Land[nb] || owner[nb] == None {
					continue
				}
				landNbs++
				counts[owner[nb]]++
			}
			for other, cnt := range counts {
				if other != k && 3*cnt >= 2*landNbs {
					next[c] = other
					changed++
					break
				}
			}
		}
		p.res.KingdomOf = next
		if changed == 0 {
			break
		}
	}
}

// removeExclaves moves every same-landmass fragment that is cut off from its
// kingdom's capital to the kingdom it borders most, repeating until nothing
// moves. Annexed islands sit on other landmasses and are left alone.
func (p *partitioner) removeExclaves() {
	g := p.in.Graph
	n := len(p.res.KingdomOf)
	moved := 0
	for round := 0; round < n; round++ {
		owner := p.res.KingdomOf
		main := make([]bool, n)
		for _, k := range p.res.Kingdoms {
			main[k.Capital] = true
			queue := []int{k.Capital}
			for head := 0; head < len(queue); head++ {
				for _, nb := range g.Neighbors(queue[head]) {
					if owner[nb] == k.ID && !main[nb] {
						main[nb] = true
						queue = append(queue, nb)
					}
				}
			}
		}

		seen := make([]bool, n)
		changed := false
		for start := 0; start < n; start++ {
			k := owner[start]
			if k == None || main[start] || seen[start] {
				continue
			}
			if p.landmassOf[start] != p.landmassOf[p.res.Kingdoms[k].Capital] {
				continue
			}
			// Collect the fragment.
			seen[start] = true
			frag := []int{start}
			for head := 0; head < len(frag); head++ {
				for _, nb := range g.Neighbors(frag[head]) {
					if owner[nb] == k && !main[nb] && !seen[nb] {
						seen[nb] = true
						frag = append(frag, nb)
					}
				}
			}

			target := p.dominantNeighbor(frag, k)
			if target == None {
				target = p.nearestForeign(frag[0], k)
			}
			if target == None {
				continue
			}
			for _, c := range frag {
				owner[c] = target
			}
			moved += len(frag)
			changed = true
		}
		if !changed {
			break
		}
	}
	if moved > 0 {
		slog.Debug("exclaves reassigned", "cells", moved)
	}
}

func (p *partitioner) dominantNeighbor(frag []int, own int) int {
	counts := map[int]int{}
	for _, c := range frag {
		for _, nb := range p.in.Graph.Neighbors(c) {
			if k := p.res.KingdomOf[nb]; k != None && k != own {
				counts[k]++
			}
		}
	}
	best, bestCount := None, 0
	for k, cnt := range counts {
		if cnt > bestCount || (cnt == bestCount && k < best) {
			best, bestCount = k, cnt
		}
	}
	return best
}

// nearestForeign returns the owner of the closest cell on the same landmass
// that belongs to a different kingdom.
func (p *partitioner) nearestForeign(c, own int) int {
	g := p.in.Graph
	best, bestDist := None, math.Inf(1)
	for o, k := range p.res.KingdomOf {
		if k == None || k == own || p.landmassOf[o] != p.landmassOf[c] {
			continue
		}
		if d := g.Site(o).Dist(g.Site(c)); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

func (p *partitioner) capitalSet() map[int]bool {
	set := make(map[int]bool, len(p.res.Kingdoms))
	for _, k := range p.res.Kingdoms {
		set[k.Capital] = true
	}
	return set
}
