package breeding

import "patternlab/internal/pattern"

const (
	unknownGenre         = "unknown"
	defaultCompatibility = 0.5
)

type genrePair struct {
	a, b  string
	score float64
}

// Each unordered pair is listed once; lookups are symmetric.
var genrePairs = []genrePair{
	{"trap", "drill", 0.9},
	{"trap", "house", 0.6},
	{"trap", "jazz", 0.3},
	{"trap", "ambient", 0.4},
	{"trap", "experimental", 0.7},
	{"drill", "house", 0.5},
	{"drill", "jazz", 0.2},
	{"drill", "ambient", 0.3},
	{"drill", "experimental", 0.6},
	{"house", "jazz", 0.7},
	{"house", "ambient", 0.6},
	{"house", "experimental", 0.8},
	{"house", "classical", 0.5},
	{"jazz", "ambient", 0.8},
	{"jazz", "classical", 0.9},
	{"jazz", "experimental", 0.9},
	{"ambient", "experimental", 0.9},
	{"ambient", "classical", 0.7},
	{"experimental", "classical", 0.8},
}

var compatibility = buildCompatibility(genrePairs)

func buildCompatibility(pairs []genrePair) map[[2]string]float64 {
	m := make(map[[2]string]float64, len(pairs)*2)
	for _, p := range pairs {
		m[[2]string{p.a, p.b}] = p.score
		m[[2]string{p.b, p.a}] = p.score
	}
	return m
}

// knownGenre reports whether g appears in the compatibility table
func knownGenre(g string) bool {
	for _, p := range genrePairs {
		if p.a == g || p.b == g {
			return true
		}
	}
	return false
}

// GenreCompatibility scores how well two genres breed. A known genre is
// fully compatible with itself; anything missing from the table scores 0.5.
func GenreCompatibility(a, b string) float64 {
	if a == b && knownGenre(a) {
		return 1
	}
	if s, ok := compatibility[[2]string{a, b}]; ok {
		return s
	}
	return defaultCompatibility
}

func genreOf(p pattern.Pattern) string {
	if p.Metadata.Genre == "" {
		return unknownGenre
	}
	return p.Metadata.Genre
}

// Compatibility is the mean pairwise genre compatibility of parents, 1 for
// fewer than two
func Compatibility(parents []pattern.Pattern) float64 {
	if len(parents) < 2 {
		return 1
	}
	total, n := 0.0, 0
	for i := range parents {
		for j := i + 1; j < len(parents); j++ {
			total += GenreCompatibility(genreOf(parents[i]), genreOf(parents[j]))
			n++
		}
	}
	return total / float64(n)
}
