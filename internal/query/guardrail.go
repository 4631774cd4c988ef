// Package query implements the seven read-only graph query engines —
// search_symbols, get_references, get_context, get_blast_radius,
// trace_data_flow, change_impact, and get_structure — sharing a guardrail
// module. The response-cache planner and the hybrid scoring function are
// used by search_symbols only.
package query

import "github.com/pgtgrly/bombe-mcp/internal/config"

// Guardrails is a clamp function per request field. Every engine's entry
// point clamps its request through here before doing any work; violations
// are silently clamped, never rejected. The clamped fields
// are recorded on a Clamps set so callers that ask for planner_trace can
// see what was adjusted.
type Clamps struct {
	fields map[string]bool
}

func newClamps() *Clamps { return &Clamps{fields: make(map[string]bool)} }

// Fields returns the names of request fields that were clamped, sorted for
// deterministic output.
func (c *Clamps) Fields() []string {
	if c == nil || len(c.fields) == 0 {
		return nil
	}
	out := make([]string, 0, len(c.fields))
	for f := range c.fields {
		out = append(out, f)
	}
	sortStrings(out)
	return out
}

func (c *Clamps) mark(field string) { c.fields[field] = true }

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// clampInt clamps v into [lo, hi], marking field as clamped when it moves.
func clampInt(c *Clamps, field string, v, lo, hi int) int {
	switch {
	case v < lo:
		c.mark(field)
		return lo
	case v > hi:
		c.mark(field)
		return hi
	default:
		return v
	}
}

// clampLimit clamps a result-count limit into [0, max]; limit=0 is a valid
// request for an empty list, not a violation.
func clampLimit(c *Clamps, field string, v, max int) int {
	if v < 0 {
		c.mark(field)
		return 0
	}
	if v > max {
		c.mark(field)
		return max
	}
	return v
}

// ClampSearchLimit clamps search_symbols' limit.
func ClampSearchLimit(c *Clamps, v int) int {
	return clampLimit(c, "limit", v, config.MaxSearchLimit)
}

// ClampReferenceDepth clamps get_references' depth.
func ClampReferenceDepth(c *Clamps, v int) int {
	return clampInt(c, "depth", v, 0, config.MaxReferenceDepth)
}

// ClampBlastDepth clamps get_blast_radius/change_impact's max depth.
func ClampBlastDepth(c *Clamps, v int) int {
	return clampInt(c, "max_depth", v, 0, config.MaxBlastDepth)
}

// ClampExpansionDepth clamps get_context's expansion depth.
func ClampExpansionDepth(c *Clamps, v int) int {
	return clampInt(c, "expansion_depth", v, 0, config.MaxContextExpansionDepth)
}

// ClampEntryPoints truncates an entry-point symbol name list to the cap.
func ClampEntryPoints(c *Clamps, names []string) []string {
	if len(names) > config.MaxEntryPoints {
		c.mark("entry_points")
		return names[:config.MaxEntryPoints]
	}
	return names
}

// ClampTokenBudget clamps get_context/get_structure's token budget into
// [MIN, MAX].
func ClampTokenBudget(c *Clamps, v int) int {
	return clampInt(c, "token_budget", v, config.MinContextTokenBudget, config.MaxContextTokenBudget)
}

// ClampQuery truncates a free-text query to MAX_QUERY_LENGTH runes.
func ClampQuery(c *Clamps, q string) string {
	r := []rune(q)
	if len(r) > config.MaxQueryLength {
		c.mark("query")
		return string(r[:config.MaxQueryLength])
	}
	return q
}

// GraphVisitedCap is the hard ceiling on BFS visited-set size.
func GraphVisitedCap() int { return config.MaxGraphVisited }

// GraphEdgesCap is the hard ceiling on edges considered per traversal.
func GraphEdgesCap() int { return config.MaxGraphEdges }

// AdaptiveGraphCap computes the visited-set ceiling
// for context expansion scales with repository size but never drops below
// floor, and never exceeds the hard MAX_GRAPH_VISITED ceiling.
func AdaptiveGraphCap(totalSymbols, base, floor int) int {
	limit := base
	if totalSymbols > 0 {
		// One visited slot per 20 symbols in the repo, on top of base.
		limit = base + totalSymbols/20
	}
	if limit < floor {
		limit = floor
	}
	if hard := GraphVisitedCap(); limit > hard {
		limit = hard
	}
	return limit
}

// PlannerTrace is the opt-in diagnostic section every engine response can
// carry: cache outcome, timing, the cache epoch token the response was
// computed against, and which request fields were clamped.
type PlannerTrace struct {
	CacheMode   string   `json:"cache_mode"` // "hit" or "miss"; no engine sets "stale"
	LookupMS    int64    `json:"lookup_ms"`
	ComputeMS   int64    `json:"compute_ms"`
	CacheEpoch  int64    `json:"cache_epoch"`
	ClampedKeys []string `json:"clamped_keys,omitempty"`
}
