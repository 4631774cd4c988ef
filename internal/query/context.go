package query

import (
	"sort"
	"time"

	"github.com/pgtgrly/bombe-mcp/internal/config"
	"github.com/pgtgrly/bombe-mcp/internal/rank"
	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// contextRelationships is the expansion edge set: CALLS forward/reverse,
// IMPORTS_SYMBOL, EXTENDS, IMPLEMENTS, and HAS_METHOD.
var contextRelationships = []store.Relationship{
	store.RelCalls, store.RelImportsSymbol, store.RelExtends, store.RelImplements, store.RelHasMethod,
}

// adaptiveCapBase and adaptiveCapFloor feed AdaptiveGraphCap: a small
// baseline that grows with repo size, never below the floor.
const (
	adaptiveCapBase  = 300
	adaptiveCapFloor = 100
)

// ContextRequest is get_context's input.
type ContextRequest struct {
	Query          string
	EntryPoints    []string
	TokenBudget    int
	SignaturesOnly bool
	ExpansionDepth int
	DeadlineMS     int64
}

// ContextInclusion is one symbol packed into the assembled bundle.
type ContextInclusion struct {
	Symbol        store.Symbol
	FilePath      string
	Score         float64
	Depth         int
	IsSeed        bool
	FullSource    bool // false means only signature+docstring was packed
	Source        string
	RedactedCount int
}

// ContextFileGroup is one file's included symbols, in ascending line order.
type ContextFileGroup struct {
	Path    string
	Symbols []ContextInclusion
}

// ContextEdge is one edge between two included symbols, part of the
// relationship summary preceding the packed source.
type ContextEdge struct {
	SourceID     int64
	TargetID     int64
	Relationship store.Relationship
}

// ContextQuality summarizes how well the bundle matched the request:
// seed hit rate, connectedness, average depth, and token efficiency.
type ContextQuality struct {
	SeedHitRate     float64
	Connectedness   float64
	AvgDepth        float64
	TokenEfficiency float64
}

// ContextResponse is get_context's output.
type ContextResponse struct {
	Files         []ContextFileGroup
	Relationships []ContextEdge
	Quality       ContextQuality
	TokensUsed    int
	TokenBudget   int
	RedactedSpans int
	Truncated     bool
	Trace         *PlannerTrace
}

// GetContext assembles a token-budgeted context bundle: seed
// selection, graph expansion, personalized PageRank, composite scoring,
// token-budget packing, redaction, and file-grouped assembly.
func (e *Engines) GetContext(req ContextRequest) (ContextResponse, error) {
	start := time.Now()
	clamps := newClamps()
	req.Query = ClampQuery(clamps, req.Query)
	req.EntryPoints = ClampEntryPoints(clamps, req.EntryPoints)
	req.TokenBudget = ClampTokenBudget(clamps, req.TokenBudget)
	req.ExpansionDepth = ClampExpansionDepth(clamps, req.ExpansionDepth)

	// Step 1: seed selection.
	seedIDs, err := e.selectContextSeeds(req)
	if err != nil {
		return ContextResponse{}, wrapStoreErr(err)
	}
	computeStart := time.Now()
	if len(seedIDs) == 0 {
		epoch, _ := e.Store.CacheEpoch()
		return ContextResponse{TokenBudget: req.TokenBudget, Trace: trace(clamps, "miss", start, computeStart, epoch)}, nil
	}

	// Step 2: graph expansion.
	adj, err := BuildAdjacency(e.Store, contextRelationships)
	if err != nil {
		return ContextResponse{}, wrapStoreErr(err)
	}
	totalSymbols, err := e.Store.TotalSymbols()
	if err != nil {
		return ContextResponse{}, wrapStoreErr(err)
	}
	visitedCap := AdaptiveGraphCap(totalSymbols, adaptiveCapBase, adaptiveCapFloor)
	deadline := Deadline(req.DeadlineMS)

	callsOnly := relSet(store.RelCalls)
	neighbors := func(node int64) []AdjEdge {
		out := append([]AdjEdge{}, adj.Out[node]...)
		for _, edge := range adj.In[node] {
			if callsOnly[edge.Relationship] {
				out = append(out, edge)
			}
		}
		return out
	}
	hops, truncated := BFS(seedIDs, neighbors, req.ExpansionDepth, visitedCap, deadline)

	depthByNode := make(map[int64]int, len(hops))
	nodeOrder := make([]int64, 0, len(hops))
	for _, h := range hops {
		if _, ok := depthByNode[h.NodeID]; !ok {
			depthByNode[h.NodeID] = h.Depth
			nodeOrder = append(nodeOrder, h.NodeID)
		}
	}

	// Step 3: personalized PageRank over the expanded subgraph.
	edgePairs := make([][2]int64, 0)
	for _, n := range nodeOrder {
		for _, adjEdge := range adj.Out[n] {
			if _, ok := depthByNode[adjEdge.Neighbor]; ok {
				edgePairs = append(edgePairs, [2]int64{n, adjEdge.Neighbor})
			}
		}
	}
	g := rank.NewGraph(nodeOrder, edgePairs)
	ppr := rank.PersonalizedPageRank(g, seedIDs)

	symbols, err := e.Store.SymbolsByIDs(nodeOrder)
	if err != nil {
		return ContextResponse{}, wrapStoreErr(err)
	}

	// Step 4: composite score per node.
	type scored struct {
		id     int64
		score  float64
		depth  int
		isSeed bool
	}
	seedSet := make(map[int64]bool, len(seedIDs))
	for _, s := range seedIDs {
		seedSet[s] = true
	}
	candidates := make([]scored, 0, len(nodeOrder))
	for _, id := range nodeOrder {
		sym, ok := symbols[id]
		if !ok {
			continue
		}
		depth := depthByNode[id]
		score := CompositeContextScore(ppr[id], sym.PageRank, rank.ProximityBonus(depth))
		candidates = append(candidates, scored{id: id, score: score, depth: depth, isSeed: seedSet[id]})
	}

	// Seeds are packed first (full source, unconditionally attempted),
	// then the remaining candidates by descending composite score.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].isSeed != candidates[j].isSeed {
			return candidates[i].isSeed
		}
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})

	// Step 5+6: token-budget packing with redaction on emission.
	var included []ContextInclusion
	tokensUsed := 0
	packingTruncated := false
	redactedTotal := 0
	depthSum := 0

	fileCache := map[int64]string{}
	pathOf := func(fileID int64) string {
		if p, ok := fileCache[fileID]; ok {
			return p
		}
		p := ""
		if f, err := e.Store.FileByID(fileID); err == nil {
			p = f.Path
		}
		fileCache[fileID] = p
		return p
	}

	for _, c := range candidates {
		sym := symbols[c.id]
		path := pathOf(sym.FileID)
		fullSource := e.ReadSource(path, sym.StartLine, sym.EndLine)
		sigDoc := sym.Signature
		if sym.Docstring != "" {
			sigDoc += "\n" + sym.Docstring
		}

		fullCost := e.Tokens.Count(fullSource)
		sigCost := e.Tokens.Count(sigDoc)

		useFull := !req.SignaturesOnly && (c.isSeed || tokensUsed+fullCost <= req.TokenBudget)
		var text string
		var cost int
		if useFull {
			text, cost = fullSource, fullCost
		} else {
			text, cost = sigDoc, sigCost
		}

		if tokensUsed+cost > req.TokenBudget {
			packingTruncated = true
			break
		}

		scrubbed, n := e.Redactor.Scrub(text)
		redactedTotal += n
		tokensUsed += cost
		depthSum += c.depth

		included = append(included, ContextInclusion{
			Symbol: sym, FilePath: path, Score: c.score, Depth: c.depth,
			IsSeed: c.isSeed, FullSource: useFull, Source: scrubbed, RedactedCount: n,
		})
	}

	// Step 7: assembly — group by file, ascending line order.
	groups := groupByFile(included)

	includedIDs := make(map[int64]bool, len(included))
	for _, inc := range included {
		includedIDs[inc.Symbol.ID] = true
	}
	relationships := relationshipSummary(adj, includedIDs)

	hitSeeds := 0
	for _, inc := range included {
		if inc.IsSeed {
			hitSeeds++
		}
	}
	quality := ContextQuality{
		SeedHitRate:     ratio(hitSeeds, len(seedIDs)),
		Connectedness:   ratio(len(relationships), maxInt(1, len(included))),
		AvgDepth:        avgDepth(depthSum, len(included)),
		TokenEfficiency: ratio(tokensUsed, maxInt(1, req.TokenBudget)),
	}

	epoch, _ := e.Store.CacheEpoch()
	return ContextResponse{
		Files: groups, Relationships: relationships, Quality: quality,
		TokensUsed: tokensUsed, TokenBudget: req.TokenBudget,
		RedactedSpans: redactedTotal, Truncated: truncated || packingTruncated,
		Trace: trace(clamps, "miss", start, computeStart, epoch),
	}, nil
}

// selectContextSeeds resolves entry points and FTS hits into a deduplicated
// symbol id set, capped to MAX_CONTEXT_SEEDS.
func (e *Engines) selectContextSeeds(req ContextRequest) ([]int64, error) {
	seen := map[int64]bool{}
	var seeds []int64
	add := func(id int64) {
		if !seen[id] {
			seen[id] = true
			seeds = append(seeds, id)
		}
	}

	for _, name := range req.EntryPoints {
		sym, err := ResolveTarget(e.Store, name)
		if err == nil {
			add(sym.ID)
		} else if err != store.ErrNotFound {
			return nil, err
		}
	}

	if req.Query != "" {
		hits, err := e.Store.SearchFTS(req.Query, config.MaxContextSeeds*2)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			add(h.SymbolID)
		}
	}

	if len(seeds) > config.MaxContextSeeds {
		seeds = seeds[:config.MaxContextSeeds]
	}
	return seeds, nil
}

func groupByFile(included []ContextInclusion) []ContextFileGroup {
	byFile := map[string][]ContextInclusion{}
	var order []string
	for _, inc := range included {
		if _, ok := byFile[inc.FilePath]; !ok {
			order = append(order, inc.FilePath)
		}
		byFile[inc.FilePath] = append(byFile[inc.FilePath], inc)
	}
	sort.Strings(order)
	groups := make([]ContextFileGroup, 0, len(order))
	for _, path := range order {
		syms := byFile[path]
		sort.Slice(syms, func(i, j int) bool { return syms[i].Symbol.StartLine < syms[j].Symbol.StartLine })
		groups = append(groups, ContextFileGroup{Path: path, Symbols: syms})
	}
	return groups
}

func relationshipSummary(adj *Adjacency, included map[int64]bool) []ContextEdge {
	var out []ContextEdge
	seen := map[[3]int64]bool{}
	for id := range included {
		for _, edge := range adj.Out[id] {
			if !included[edge.Neighbor] {
				continue
			}
			key := [3]int64{id, edge.Neighbor, int64(relCode(edge.Relationship))}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, ContextEdge{SourceID: id, TargetID: edge.Neighbor, Relationship: edge.Relationship})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		return out[i].TargetID < out[j].TargetID
	})
	return out
}

func relCode(r store.Relationship) int {
	switch r {
	case store.RelCalls:
		return 1
	case store.RelImports:
		return 2
	case store.RelImportsSymbol:
		return 3
	case store.RelExtends:
		return 4
	case store.RelImplements:
		return 5
	case store.RelDefines:
		return 6
	case store.RelHasMethod:
		return 7
	default:
		return 0
	}
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func avgDepth(depthSum, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(depthSum) / float64(n)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
