package query

import "math"

// hybrid scoring weights. Lexical and structural always contribute;
// semantic is optional and its weight is redistributed onto
// lexical+structural when
// no semantic score is available, so search quality never degrades for
// repos without an embedding backend wired in.
const (
	weightLexical    = 0.5
	weightStructural = 0.35
	weightSemantic   = 0.15
)

// HybridScore combines lexical similarity, structural importance, and an
// optional semantic score into the single ranking number used by
// search_symbols; no other engine calls it.
//
// lexical: 0..1, FTS/LIKE relevance or fuzzy-string similarity.
// pageRank: the symbol's global PageRank score (not yet normalized).
// maxPageRank: the largest PageRank score in the candidate set, for
// normalization; 0 disables structural scoring (e.g. empty repo).
// inbound, outbound: caller/callee edge counts, log-damped so a handful of
// highly-connected hubs don't saturate every comparison.
// semantic: 0..1, or -1 when no semantic backend is configured.
func HybridScore(lexical float64, pageRank, maxPageRank float64, inbound, outbound int, semantic float64) float64 {
	structural := structuralScore(pageRank, maxPageRank, inbound, outbound)

	if semantic < 0 {
		// Redistribute the semantic weight proportionally.
		total := weightLexical + weightStructural
		return (weightLexical/total)*lexical + (weightStructural/total)*structural
	}
	return weightLexical*lexical + weightStructural*structural + weightSemantic*semantic
}

// structuralScore blends normalized PageRank with log-damped connectivity,
// each contributing half, clamped to [0,1].
func structuralScore(pageRank, maxPageRank float64, inbound, outbound int) float64 {
	rankComponent := 0.0
	if maxPageRank > 0 {
		rankComponent = pageRank / maxPageRank
	}
	connectivity := math.Log1p(float64(inbound + outbound))
	connectivity = connectivity / (connectivity + 4) // asymptotic to 1

	score := 0.5*rankComponent + 0.5*connectivity
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// CompositeContextScore is get_context's step 4 composite score: personalized
// PageRank times global PageRank times the depth-decay proximity bonus.
func CompositeContextScore(ppr, globalPageRank, proximityBonus float64) float64 {
	return ppr * globalPageRank * proximityBonus
}
