package report

import (
	"sort"
	"strings"
)

// Match quality tiers, best first.
const (
	rankExact = iota
	rankPrefix
	rankSubstring
	rankOther
)

// RankNames orders variable names by how closely they match the query.
// Exact matches come first, then prefix matches, then substring matches,
// then everything else, alphabetical within each tier. The input slice
// is not modified.
func RankNames(names []string, query string) []string {
	q := strings.ToLower(query)

	ranked := make([]string, len(names))
	copy(ranked, names)

	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := rankOf(ranked[i], q), rankOf(ranked[j], q)
		if ri != rj {
			return ri < rj
		}
		return ranked[i] < ranked[j]
	})

	return ranked
}

func rankOf(name, query string) int {
	n := strings.ToLower(name)
	switch {
	case n == query:
		return rankExact
	case strings.HasPrefix(n, query):
		return rankPrefix
	case strings.Contains(n, query):
		return rankSubstring
	default:
		return rankOther
	}
}
