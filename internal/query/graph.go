package query

import (
	"time"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// AdjEdge is one traversable hop, carrying enough of the source edge row
// for engines that need to report it (file, line, confidence).
type AdjEdge struct {
	Neighbor     int64
	Relationship store.Relationship
	FileID       int64
	Line         int
	Confidence   float64
}

// Adjacency is a pair of symbol-to-symbol adjacency maps built once per
// request from the store's edge table: Out for forward traversal (callers
// of get_references direction=callees, etc.), In for reverse traversal.
// Only symbol<->symbol edges are included; file-level edges (IMPORTS
// between files) are filtered out since every BFS engine in §4.5 walks
// the symbol graph.
type Adjacency struct {
	Out map[int64][]AdjEdge
	In  map[int64][]AdjEdge
}

// BuildAdjacency loads all edges of the given relationships and indexes
// them by source and target symbol id. Loading once per request (rather
// than per-hop queries) is what keeps BFS engines within their latency
// guardrails at repository scale.
func BuildAdjacency(s *store.Store, rels []store.Relationship) (*Adjacency, error) {
	edges, err := s.EdgesByRelationships(rels)
	if err != nil {
		return nil, err
	}
	return adjacencyFromEdges(edges), nil
}

// BuildFullAdjacency loads every edge in the store, across all
// relationship kinds. No query engine calls it; get_context's
// multi-relationship expansion uses BuildAdjacency with its own list.
func BuildFullAdjacency(s *store.Store) (*Adjacency, error) {
	edges, err := s.AllEdges()
	if err != nil {
		return nil, err
	}
	return adjacencyFromEdges(edges), nil
}

func adjacencyFromEdges(edges []store.Edge) *Adjacency {
	adj := &Adjacency{Out: make(map[int64][]AdjEdge), In: make(map[int64][]AdjEdge)}
	for _, e := range edges {
		if e.SourceType != store.EndpointSymbol || e.TargetType != store.EndpointSymbol {
			continue
		}
		adj.Out[e.SourceID] = append(adj.Out[e.SourceID], AdjEdge{Neighbor: e.TargetID, Relationship: e.Relationship, FileID: e.FileID, Line: e.Line, Confidence: e.Confidence})
		adj.In[e.TargetID] = append(adj.In[e.TargetID], AdjEdge{Neighbor: e.SourceID, Relationship: e.Relationship, FileID: e.FileID, Line: e.Line, Confidence: e.Confidence})
	}
	return adj
}

// BFSHop is one visited node with its hop distance from the nearest seed
// and the edge that reached it (zero Relationship for seeds themselves).
type BFSHop struct {
	NodeID int64
	Depth  int
	Via    AdjEdge
}

// BFS walks neighbors(node) breadth-first from seeds up to maxDepth hops,
// stopping early if the visited set would exceed maxVisited or the
// deadline passes. It returns the visited hops in discovery order (seeds
// first, depth 0) and whether the walk was truncated by a cap or the
// deadline: BFS loops check the deadline between hops and return the
// best-effort partial result with a truncation flag.
func BFS(seeds []int64, neighbors func(node int64) []AdjEdge, maxDepth, maxVisited int, deadline time.Time) ([]BFSHop, bool) {
	visited := make(map[int64]bool, maxVisited)
	var hops []BFSHop
	type frontierNode struct {
		id    int64
		depth int
	}
	var frontier []frontierNode

	for _, s := range seeds {
		if visited[s] {
			continue
		}
		visited[s] = true
		hops = append(hops, BFSHop{NodeID: s, Depth: 0})
		frontier = append(frontier, frontierNode{id: s, depth: 0})
		if len(visited) >= maxVisited {
			return hops, true
		}
	}

	truncated := false
	for len(frontier) > 0 {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return hops, true
		}
		var next []frontierNode
		for _, cur := range frontier {
			if cur.depth >= maxDepth {
				continue
			}
			for _, edge := range neighbors(cur.id) {
				if visited[edge.Neighbor] {
					continue
				}
				visited[edge.Neighbor] = true
				hop := BFSHop{NodeID: edge.Neighbor, Depth: cur.depth + 1, Via: edge}
				hops = append(hops, hop)
				next = append(next, frontierNode{id: edge.Neighbor, depth: cur.depth + 1})
				if len(visited) >= maxVisited {
					truncated = true
					return hops, truncated
				}
			}
		}
		frontier = next
	}
	return hops, truncated
}

// filterRelationship returns a neighbors function over adj restricted to
// edges whose relationship is in the allowed set (nil/empty allows all).
func filterRelationship(byNode map[int64][]AdjEdge, allowed map[store.Relationship]bool) func(int64) []AdjEdge {
	return func(node int64) []AdjEdge {
		all := byNode[node]
		if len(allowed) == 0 {
			return all
		}
		out := make([]AdjEdge, 0, len(all))
		for _, e := range all {
			if allowed[e.Relationship] {
				out = append(out, e)
			}
		}
		return out
	}
}

func relSet(rels ...store.Relationship) map[store.Relationship]bool {
	m := make(map[store.Relationship]bool, len(rels))
	for _, r := range rels {
		m[r] = true
	}
	return m
}
