// Package names produces procedural labels for kingdoms, cities and rivers.
package names

import (
	"fmt"
	"math/rand"
)

// Category selects the syllable tables used for a name.
type Category uint8

const (
	Kingdom Category = iota
	City
	River
)

func (c Category) String() string {
	switch c {
	case Kingdom:
		return "kingdom"
	case City:
		return "city"
	case River:
		return "river"
	default:
		return "unknown"
	}
}

// Generator returns count distinct names for a category.
type Generator interface {
	Names(count int, category Category) []string
}

type tables struct {
	prefixes []string
	suffixes []string
}

var byCategory = map[Category]tables{
	Kingdom: {
		prefixes: []string{
			"Ar", "Bel", "Cor", "Dun", "El", "Fen", "Gal", "Hal", "Ith",
			"Kar", "Lor", "Mor", "Nor", "Or", "Pel", "Rho", "Sar", "Tal",
			"Ul", "Val", "Wes", "Yr", "Zan",
		},
		suffixes: []string{
			"adia", "ania", "avar", "eth", "gard", "heim", "ia", "mark",
			"mere", "oria", "os", "reach", "rend", "thal", "wyn",
		},
	},
	City: {
		prefixes: []string{
			"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
			"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
			"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
			"Storm", "Thorn", "Elm", "Oak", "Pine", "Copper", "River",
		},
		suffixes: []string{
			"haven", "ford", "hollow", "wick", "bridge", "gate", "keep",
			"stead", "wood", "field", "dale", "crest", "vale", "port",
			"town", "bury", "marsh", "well", "brook", "cliff", "moor",
			"ridge", "watch", "fall", "rest", "point", "reach", "helm",
		},
	},
	River: {
		prefixes: []string{
			"Amber", "Blue", "Clear", "Cold", "Dun", "Grey", "Mist",
			"Reed", "Salt", "Swift", "Still", "Willow", "Wild", "Winding",
		},
		suffixes: []string{
			"water", "run", "flow", "beck", "burn", "wash", "rill", "stream",
		},
	},
}

// Syllable builds names from prefix and suffix tables. Names are unique
// across all calls on the same generator.
type Syllable struct {
	rng  *rand.Rand
	used map[string]bool
}

// NewSyllable returns a deterministic generator for seed.
func NewSyllable(seed int64) *Syllable {
	return &Syllable{
		rng:  rand.New(rand.NewSource(seed + 300)),
		used: make(map[string]bool),
	}
}

// Names returns count distinct names. Once random draws stop producing new
// combinations, numbered variants are used.
func (s *Syllable) Names(count int, category Category) []string {
	t, ok := byCategory[category]
	if !ok {
		t = byCategory[City]
	}
	out := make([]string, 0, count)
	combos := len(t.prefixes) * len(t.suffixes)
	misses := 0
	for len(out) < count {
		name := t.prefixes[s.rng.Intn(len(t.prefixes))] + t.suffixes[s.rng.Intn(len(t.suffixes))]
		if misses > combos {
			for k := 2; s.used[name]; k++ {
				name = fmt.Sprintf("%s %d", t.prefixes[0]+t.suffixes[0], k)
			}
		}
		if s.used[name] {
			misses++
			continue
		}
		s.used[name] = true
		out = append(out, name)
	}
	return out
}
