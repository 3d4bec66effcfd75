package analysis

import "sort"

// Rank returns a copy of results ordered by score desc, reviewCount desc, sourceName asc.
// The order is total, so the input order never matters.
func Rank(results []SourceResult) []SourceResult {
	ranked := make([]SourceResult, len(results))
	copy(ranked, results)
	sort.Slice(ranked, func(i, j int) bool {
		return rankLess(ranked[i], ranked[j])
	})
	return ranked
}

func rankLess(a, b SourceResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.ReviewCount != b.ReviewCount {
		return a.ReviewCount > b.ReviewCount
	}
	return a.SourceName < b.SourceName
}
