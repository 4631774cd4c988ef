package query

import (
	"time"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// maxDataFlowPaths bounds simple-path enumeration so a highly connected
// fan-out node can't make trace_data_flow enumerate an exponential number
// of paths; derived from MAX_GRAPH_EDGES so the cap scales with the same
// guardrail the rest of the query engines share.
func maxDataFlowPaths() int {
	limit := GraphEdgesCap() / 500
	if limit < 50 {
		limit = 50
	}
	return limit
}

// DataFlowRequest is trace_data_flow's input.
type DataFlowRequest struct {
	NameOrQualified string
	MaxDepth        int
	DeadlineMS      int64
}

// DataFlowNode is one symbol reachable from the target over CALLS, in
// either direction.
type DataFlowNode struct {
	Symbol    store.Symbol
	FilePath  string
	Depth     int
	Direction string // "forward" or "reverse"
}

// DataFlowPath is one simple (no repeated node) path within depth, tagged
// with the direction it was discovered in.
type DataFlowPath struct {
	Direction string
	SymbolIDs []int64
}

// DataFlowResponse is trace_data_flow's output.
type DataFlowResponse struct {
	Target    store.Symbol
	Nodes     []DataFlowNode
	Paths     []DataFlowPath
	Truncated bool
	Trace     *PlannerTrace
}

// TraceDataFlow runs a bidirectional BFS over CALLS
// only, returning the reachable node set plus the simple paths within
// depth, each tagged with the direction (forward = callees, reverse =
// callers) it was found in.
func (e *Engines) TraceDataFlow(req DataFlowRequest) (DataFlowResponse, error) {
	start := time.Now()
	clamps := newClamps()
	req.MaxDepth = ClampBlastDepth(clamps, req.MaxDepth)

	target, err := ResolveTarget(e.Store, req.NameOrQualified)
	if err == store.ErrNotFound {
		return DataFlowResponse{Trace: trace(clamps, "miss", start, start, 0)}, nil
	}
	if err != nil {
		return DataFlowResponse{}, wrapStoreErr(err)
	}

	computeStart := time.Now()
	adj, err := BuildAdjacency(e.Store, []store.Relationship{store.RelCalls})
	if err != nil {
		return DataFlowResponse{}, wrapStoreErr(err)
	}
	deadline := Deadline(req.DeadlineMS)

	fwdNeighbors := filterRelationship(adj.Out, nil)
	revNeighbors := filterRelationship(adj.In, nil)

	fwdHops, fwdTrunc := BFS([]int64{target.ID}, fwdNeighbors, req.MaxDepth, GraphVisitedCap(), deadline)
	revHops, revTrunc := BFS([]int64{target.ID}, revNeighbors, req.MaxDepth, GraphVisitedCap(), deadline)

	var paths []DataFlowPath
	var pathsTruncated bool
	paths, pathsTruncated = appendSimplePaths(paths, "forward", target.ID, fwdNeighbors, req.MaxDepth, deadline)
	var more bool
	paths, more = appendSimplePaths(paths, "reverse", target.ID, revNeighbors, req.MaxDepth, deadline)
	pathsTruncated = pathsTruncated || more

	nodes, err := e.buildDataFlowNodes(fwdHops, revHops, target.ID)
	if err != nil {
		return DataFlowResponse{}, wrapStoreErr(err)
	}

	epoch, _ := e.Store.CacheEpoch()
	return DataFlowResponse{
		Target: target, Nodes: nodes, Paths: paths,
		Truncated: fwdTrunc || revTrunc || pathsTruncated,
		Trace:     trace(clamps, "miss", start, computeStart, epoch),
	}, nil
}

func (e *Engines) buildDataFlowNodes(fwdHops, revHops []BFSHop, targetID int64) ([]DataFlowNode, error) {
	var ids []int64
	seen := map[int64]bool{}
	collect := func(hops []BFSHop) {
		for _, h := range hops {
			if !seen[h.NodeID] {
				seen[h.NodeID] = true
				ids = append(ids, h.NodeID)
			}
		}
	}
	collect(fwdHops)
	collect(revHops)

	symbols, err := e.Store.SymbolsByIDs(ids)
	if err != nil {
		return nil, err
	}
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

	var out []DataFlowNode
	for _, h := range fwdHops {
		sym, ok := symbols[h.NodeID]
		if !ok {
			continue
		}
		out = append(out, DataFlowNode{Symbol: sym, FilePath: pathOf(sym.FileID), Depth: h.Depth, Direction: "forward"})
	}
	for _, h := range revHops {
		if h.NodeID == targetID {
			continue // already emitted once as the forward-direction seed
		}
		sym, ok := symbols[h.NodeID]
		if !ok {
			continue
		}
		out = append(out, DataFlowNode{Symbol: sym, FilePath: pathOf(sym.FileID), Depth: h.Depth, Direction: "reverse"})
	}
	return out, nil
}

// appendSimplePaths performs a depth-bounded DFS from start, appending
// every simple (non-repeating) path found to paths, stopping once
// maxDataFlowPaths total paths have been collected or the deadline
// passes.
func appendSimplePaths(paths []DataFlowPath, direction string, start int64, neighbors func(int64) []AdjEdge, maxDepth int, deadline time.Time) ([]DataFlowPath, bool) {
	limit := maxDataFlowPaths()
	truncated := false
	visiting := map[int64]bool{start: true}
	stack := []int64{start}

	var walk func(node int64, depth int)
	walk = func(node int64, depth int) {
		if len(paths) >= limit || (!deadline.IsZero() && time.Now().After(deadline)) {
			truncated = true
			return
		}
		if depth >= maxDepth {
			return
		}
		for _, edge := range neighbors(node) {
			if visiting[edge.Neighbor] {
				continue
			}
			stack = append(stack, edge.Neighbor)
			visiting[edge.Neighbor] = true

			pathCopy := make([]int64, len(stack))
			copy(pathCopy, stack)
			paths = append(paths, DataFlowPath{Direction: direction, SymbolIDs: pathCopy})

			walk(edge.Neighbor, depth+1)

			visiting[edge.Neighbor] = false
			stack = stack[:len(stack)-1]

			if len(paths) >= limit {
				truncated = true
				return
			}
		}
	}
	walk(start, 0)
	return paths, truncated
}
