package mesh

import (
	"math"

	"github.com/talgya/realmgen/internal/geom"
)

// bucketIndex answers nearest-site queries with a uniform grid. The nearest
// site to a point is the owner of the Voronoi cell containing it.
type bucketIndex struct {
	sites        []geom.Vec2
	width        float64
	height       float64
	cellSize     float64
	gridW, gridH int
	cells        [][]int
}

func newBucketIndex(sites []geom.Vec2, w, h float64) *bucketIndex {
	size := math.Sqrt(w * h / float64(len(sites)))
	if size <= 0 {
		size = 1
	}
	b := &bucketIndex{
		sites:    sites,
		width:    w,
		height:   h,
		cellSize: size,
		gridW:    int(math.Ceil(w/size)) + 1,
		gridH:    int(math.Ceil(h/size)) + 1,
	}
	b.cells = make([][]int, b.gridW*b.gridH)
	for i, p := range sites {
		gx, gy := b.cell(p)
		b.cells[gy*b.gridW+gx] = append(b.cells[gy*b.gridW+gx], i)
	}
	return b
}

func (b *bucketIndex) cell(p geom.Vec2) (int, int) {
	gx := int(p.X / b.cellSize)
	gy := int(p.Y / b.cellSize)
	gx = max(0, min(gx, b.gridW-1))
	gy = max(0, min(gy, b.gridH-1))
	return gx, gy
}

// nearest returns the closest site, or false when p lies outside the domain.
func (b *bucketIndex) nearest(p geom.Vec2) (int, bool) {
	if p.X < 0 || p.Y < 0 || p.X > b.width || p.Y > b.height || len(b.sites) == 0 {
		return -1, false
	}
	cx, cy := b.cell(p)
	best, bestD := -1, math.Inf(1)
	maxRing := max(b.gridW, b.gridH)
	for r := 0; r <= maxRing; r++ {
		for gy := cy - r; gy <= cy+r; gy++ {
			for gx := cx - r; gx <= cx+r; gx++ {
				if gx < 0 || gy < 0 || gx >= b.gridW || gy >= b.gridH {
					continue
				}
				if r > 0 && gx != cx-r && gx != cx+r && gy != cy-r && gy != cy+r {
					continue
				}
				for _, i := range b.cells[gy*b.gridW+gx] {
					d := b.sites[i].Sub(p).Len2()
					if d < bestD || (d == bestD && i < best) {
						best, bestD = i, d
					}
				}
			}
		}
		if best >= 0 && math.Sqrt(bestD) <= float64(r)*b.cellSize {
			break
		}
	}
	return best, best >= 0
}
