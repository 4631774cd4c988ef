package pipeline

import (
	"github.com/pgtgrly/bombe-mcp/internal/rank"
	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// rankedRelationships is the edge subset fed into PageRank: call and type
// relationships between symbols. IMPORTS edges are file-to-file and
// excluded, since the rank score lives on symbols.
var rankedRelationships = []store.Relationship{
	store.RelCalls, store.RelImportsSymbol, store.RelExtends, store.RelImplements,
}

// refreshRank recomputes global PageRank over the current symbol graph and
// writes scores back to every symbol, including zero-degree ones (a fresh
// symbol with no incoming or outgoing ranked edges still gets the uniform
// baseline score). It runs after every full or incremental indexing run
// since any edge change shifts the whole graph's distribution, not just the
// touched files' neighborhood.
func (p *Pipeline) refreshRank() error {
	edges, err := p.Store.EdgesByRelationships(rankedRelationships)
	if err != nil {
		return err
	}

	nodeSet := make(map[int64]struct{})
	var pairs [][2]int64
	for _, e := range edges {
		if e.SourceType != store.EndpointSymbol || e.TargetType != store.EndpointSymbol {
			continue
		}
		nodeSet[e.SourceID] = struct{}{}
		nodeSet[e.TargetID] = struct{}{}
		pairs = append(pairs, [2]int64{e.SourceID, e.TargetID})
	}

	allFiles, err := p.Store.AllFiles()
	if err != nil {
		return err
	}
	for _, f := range allFiles {
		symbols, err := p.Store.SymbolsByFile(f.ID)
		if err != nil {
			return err
		}
		for _, s := range symbols {
			nodeSet[s.ID] = struct{}{}
		}
	}

	nodes := make([]int64, 0, len(nodeSet))
	for id := range nodeSet {
		nodes = append(nodes, id)
	}
	if len(nodes) == 0 {
		return nil
	}

	scores := rank.PageRank(rank.NewGraph(nodes, pairs))
	return p.Store.UpdatePageRank(scores)
}
