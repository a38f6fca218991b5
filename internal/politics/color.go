package politics

// Palette is the ordered display palette. Colors next to each other in the
// list look alike, so neighboring kingdoms avoid them too.
var Palette = []string{
	"crimson", "vermilion", "amber", "gold", "olive", "forest",
	"teal", "azure", "cobalt", "indigo", "violet", "rose",
}

// colorKingdoms assigns palette colors by greedy coloring of the adjacency
// graph, most constrained kingdom first.
func colorKingdoms(kingdoms []Kingdom, adj [][]int) {
	k := len(kingdoms)
	color := make([]int, k)
	for i := range color {
		color[i] = None
	}

	for done := 0; done < k; done++ {
		pick, pickSat, pickDeg := None, -1, -1
		for i := 0; i < k; i++ {
			if color[i] != None {
				continue
			}
			used := map[int]bool{}
			for _, nb := range adj[i] {
				if color[nb] != None {
					used[color[nb]] = true
				}
			}
			if sat := len(used); sat > pickSat || (sat == pickSat && len(adj[i]) > pickDeg) {
				pick, pickSat, pickDeg = i, sat, len(adj[i])
			}
		}
		color[pick] = chooseColor(pick, adj[pick], color)
	}

	for i := range kingdoms {
		kingdoms[i].Color = Palette[color[i]]
	}
}

func chooseColor(id int, nbs []int, color []int) int {
	m := len(Palette)
	direct := make([]bool, m)
	near := make([]bool, m)
	for _, nb := range nbs {
		c := color[nb]
		if c == None {
			continue
		}
		direct[c] = true
		near[c] = true
		near[(c+1)%m] = true
		near[(c+m-1)%m] = true
	}
	for c := 0; c < m; c++ {
		if !near[c] {
			return c
		}
	}
	for c := 0; c < m; c++ {
		if !direct[c] {
			return c
		}
	}
	return id % m
}
