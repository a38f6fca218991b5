package hydro

import (
	"math"
	"sort"

	"github.com/talgya/realmgen/internal/mesh"
	"github.com/talgya/realmgen/internal/pq"
)

// eliminateInlandSeas turns every ocean cell that is not connected through
// ocean to the domain border into low land. Returns the number of cells changed.
func eliminateInlandSeas(g mesh.Graph, elev []float64, land []bool) int {
	n := g.Len()
	reached := make([]bool, n)
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !land[i] && g.OnBorder(i) {
			reached[i] = true
			queue = append(queue, i)
		}
	}
	for head := 0; head < len(queue); head++ {
		for _, nb := range g.Neighbors(queue[head]) {
			if !land[nb] && !reached[nb] {
				reached[nb] = true
				queue = append(queue, nb)
			}
		}
	}

	changed := 0
	for i := 0; i < n; i++ {
		if !land[i] && !reached[i] {
			land[i] = true
			elev[i] = 0
			changed++
		}
	}
	return changed
}

// fill runs priority-flood depression filling. Every ocean cell seeds the
// queue at its own elevation; a world without ocean drains off the domain
// border instead. Each newly reached cell is raised to at least the popped
// cell's filled elevation plus eps, so no land cell is a local minimum.
func (r *Result) fill(g mesh.Graph, eps float64) {
	n := g.Len()
	visited := make([]bool, n)
	q := pq.New(n)

	seed := func(i int) {
		visited[i] = true
		r.Sink[i] = true
		r.Filled[i] = r.Elevation[i]
		q.Push(i, r.Filled[i])
	}
	for i := 0; i < n; i++ {
		if !r.Land[i] {
			seed(i)
		}
	}
	if q.Len() == 0 {
		for i := 0; i < n; i++ {
			if g.OnBorder(i) {
				seed(i)
			}
		}
	}

	for iter := 0; q.Len() > 0 && iter < 2*n; iter++ {
		c, _ := q.Pop()
		for _, nb := range g.Neighbors(c) {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			r.Filled[nb] = math.Max(r.Elevation[nb], r.Filled[c]+eps)
			q.Push(nb, r.Filled[nb])
		}
	}

	// Cells the flood never reached have no path to an outlet; they drain nowhere.
	for i := 0; i < n; i++ {
		if !visited[i] {
			r.Sink[i] = true
			r.Filled[i] = r.Elevation[i]
		}
	}
}

// assignDrainage points every non-sink cell at its lowest filled neighbor.
func (r *Result) assignDrainage(g mesh.Graph) {
	for i := range r.Drainage {
		r.Drainage[i] = None
		if r.Sink[i] {
			continue
		}
		best, bestF := None, r.Filled[i]
		for _, nb := range g.Neighbors(i) {
			if r.Filled[nb] < bestF {
				best, bestF = nb, r.Filled[nb]
			}
		}
		r.Drainage[i] = best
	}
}

// byFilledDesc returns cell indices ordered by filled elevation, highest first.
func (r *Result) byFilledDesc(keep func(int) bool) []int {
	cells := make([]int, 0, len(r.Filled))
	for i := range r.Filled {
		if keep(i) {
			cells = append(cells, i)
		}
	}
	sort.SliceStable(cells, func(a, b int) bool {
		return r.Filled[cells[a]] > r.Filled[cells[b]]
	})
	return cells
}

// accumulate counts, for every cell, the cells upstream of it including itself.
func (r *Result) accumulate() {
	for i := range r.Flow {
		r.Flow[i] = 1
	}
	for _, i := range r.byFilledDesc(func(int) bool { return true }) {
		if d := r.Drainage[i]; d != None {
			r.Flow[d] += r.Flow[i]
		}
	}
}
