package query

import (
	"time"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// ReferenceDirection is the closed set of traversal directions
// get_references accepts.
type ReferenceDirection string

const (
	DirCallers      ReferenceDirection = "callers"
	DirCallees      ReferenceDirection = "callees"
	DirBoth         ReferenceDirection = "both"
	DirImplementors ReferenceDirection = "implementors"
	DirSupers       ReferenceDirection = "supers"
)

// ReferenceRequest is get_references' input.
type ReferenceRequest struct {
	NameOrQualified string
	Direction       ReferenceDirection
	Depth           int
	IncludeSource   bool
	DeadlineMS      int64
	WithTrace       bool
}

// ReferenceHit is one BFS-discovered symbol, tagged with its hop depth and
// (when requested) its source text.
type ReferenceHit struct {
	Symbol   store.Symbol
	FilePath string
	Depth    int
	Source   string `json:",omitempty"`
}

// ReferenceResponse is get_references' output. Target is the zero Symbol
// (ID 0) when resolution failed: a missing target yields an empty
// response, not an error.
type ReferenceResponse struct {
	Target    store.Symbol
	Callers   []ReferenceHit
	Callees   []ReferenceHit
	Supers    []ReferenceHit
	Implementors []ReferenceHit
	Trace     *PlannerTrace
}

// GetReferences resolves the target, then runs BFS
// across the relationship set implied by direction to the requested
// depth, capped by MAX_GRAPH_VISITED.
func (e *Engines) GetReferences(req ReferenceRequest) (ReferenceResponse, error) {
	start := time.Now()
	clamps := newClamps()
	req.Depth = ClampReferenceDepth(clamps, req.Depth)
	if req.Direction == "" {
		req.Direction = DirBoth
	}

	target, err := ResolveTarget(e.Store, req.NameOrQualified)
	if err == store.ErrNotFound {
		return ReferenceResponse{Trace: trace(clamps, "miss", start, start, 0)}, nil
	}
	if err != nil {
		return ReferenceResponse{}, wrapStoreErr(err)
	}

	computeStart := time.Now()
	deadline := Deadline(req.DeadlineMS)
	resp := ReferenceResponse{Target: target}

	callEdges := relSet(store.RelCalls)
	typeEdges := relSet(store.RelExtends, store.RelImplements)

	switch req.Direction {
	case DirCallees:
		adj, err := BuildAdjacency(e.Store, []store.Relationship{store.RelCalls})
		if err != nil {
			return ReferenceResponse{}, wrapStoreErr(err)
		}
		hits, err := e.bfsToHits(adj.Out, callEdges, []int64{target.ID}, req.Depth, deadline, req.IncludeSource)
		if err != nil {
			return ReferenceResponse{}, wrapStoreErr(err)
		}
		resp.Callees = hits
	case DirCallers:
		adj, err := BuildAdjacency(e.Store, []store.Relationship{store.RelCalls})
		if err != nil {
			return ReferenceResponse{}, wrapStoreErr(err)
		}
		hits, err := e.bfsToHits(adj.In, callEdges, []int64{target.ID}, req.Depth, deadline, req.IncludeSource)
		if err != nil {
			return ReferenceResponse{}, wrapStoreErr(err)
		}
		resp.Callers = hits
	case DirBoth:
		adj, err := BuildAdjacency(e.Store, []store.Relationship{store.RelCalls})
		if err != nil {
			return ReferenceResponse{}, wrapStoreErr(err)
		}
		calleeHits, err := e.bfsToHits(adj.Out, callEdges, []int64{target.ID}, req.Depth, deadline, req.IncludeSource)
		if err != nil {
			return ReferenceResponse{}, wrapStoreErr(err)
		}
		callerHits, err := e.bfsToHits(adj.In, callEdges, []int64{target.ID}, req.Depth, deadline, req.IncludeSource)
		if err != nil {
			return ReferenceResponse{}, wrapStoreErr(err)
		}
		resp.Callees = calleeHits
		resp.Callers = callerHits
	case DirSupers:
		adj, err := BuildAdjacency(e.Store, []store.Relationship{store.RelExtends, store.RelImplements})
		if err != nil {
			return ReferenceResponse{}, wrapStoreErr(err)
		}
		hits, err := e.bfsToHits(adj.Out, typeEdges, []int64{target.ID}, req.Depth, deadline, req.IncludeSource)
		if err != nil {
			return ReferenceResponse{}, wrapStoreErr(err)
		}
		resp.Supers = hits
	case DirImplementors:
		adj, err := BuildAdjacency(e.Store, []store.Relationship{store.RelExtends, store.RelImplements})
		if err != nil {
			return ReferenceResponse{}, wrapStoreErr(err)
		}
		hits, err := e.bfsToHits(adj.In, typeEdges, []int64{target.ID}, req.Depth, deadline, req.IncludeSource)
		if err != nil {
			return ReferenceResponse{}, wrapStoreErr(err)
		}
		resp.Implementors = hits
	}

	epoch, _ := e.Store.CacheEpoch()
	resp.Trace = trace(clamps, "miss", start, computeStart, epoch)
	return resp, nil
}

// bfsToHits runs BFS from seeds over byNode filtered to allowed, excludes
// the seed itself from the result list (callers want references *to/from*
// the target, not the target again), and loads source text when
// requested.
func (e *Engines) bfsToHits(byNode map[int64][]AdjEdge, allowed map[store.Relationship]bool, seeds []int64, depth int, deadline time.Time, includeSource bool) ([]ReferenceHit, error) {
	neighbors := filterRelationship(byNode, allowed)
	hops, _ := BFS(seeds, neighbors, depth, GraphVisitedCap(), deadline)

	seedSet := make(map[int64]bool, len(seeds))
	for _, s := range seeds {
		seedSet[s] = true
	}

	var ids []int64
	for _, h := range hops {
		if !seedSet[h.NodeID] {
			ids = append(ids, h.NodeID)
		}
	}
	symbols, err := e.Store.SymbolsByIDs(ids)
	if err != nil {
		return nil, err
	}

	out := make([]ReferenceHit, 0, len(ids))
	fileCache := map[int64]string{}
	for _, h := range hops {
		if seedSet[h.NodeID] {
			continue
		}
		sym, ok := symbols[h.NodeID]
		if !ok {
			continue
		}
		path, cached := fileCache[sym.FileID]
		if !cached {
			if f, err := e.Store.FileByID(sym.FileID); err == nil {
				path = f.Path
			}
			fileCache[sym.FileID] = path
		}
		hit := ReferenceHit{Symbol: sym, FilePath: path, Depth: h.Depth}
		if includeSource {
			hit.Source = e.ReadSource(path, sym.StartLine, sym.EndLine)
		}
		out = append(out, hit)
	}
	return out, nil
}
