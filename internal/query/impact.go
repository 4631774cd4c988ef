package query

import (
	"time"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// ChangeImpactRequest is change_impact's input.
type ChangeImpactRequest struct {
	NameOrQualified string
	ChangeKind      ChangeKind
	MaxDepth        int
	DeadlineMS      int64
}

// ChangeImpactResponse is change_impact's output: the same blast-radius
// shape, plus a dedicated TypeDependents list surfacing EXTENDS/IMPLEMENTS
// dependents of any affected class at depth 1.
type ChangeImpactResponse struct {
	Target         store.Symbol
	Direct         []BlastDependent
	Transitive     []BlastDependent
	TypeDependents []BlastDependent
	Risk           RiskBucket
	Truncated      bool
	Trace          *PlannerTrace
}

// ChangeImpact runs the blast_radius BFS, plus a
// second pass that walks EXTENDS/IMPLEMENTS one hop out from every class
// or interface symbol found in the blast set, so a change to a base class
// surfaces its direct subclasses/implementors explicitly rather than only
// as whatever CALLS edges happen to touch them.
func (e *Engines) ChangeImpact(req ChangeImpactRequest) (ChangeImpactResponse, error) {
	start := time.Now()
	blast, err := e.GetBlastRadius(BlastRequest{
		NameOrQualified: req.NameOrQualified,
		ChangeKind:      req.ChangeKind,
		MaxDepth:        req.MaxDepth,
		DeadlineMS:      req.DeadlineMS,
	})
	if err != nil {
		return ChangeImpactResponse{}, err
	}
	if blast.Target.ID == 0 {
		return ChangeImpactResponse{Trace: blast.Trace}, nil
	}

	computeStart := time.Now()
	typeAdj, err := BuildAdjacency(e.Store, []store.Relationship{store.RelExtends, store.RelImplements})
	if err != nil {
		return ChangeImpactResponse{}, wrapStoreErr(err)
	}

	affected := []store.Symbol{blast.Target}
	for _, d := range blast.Direct {
		affected = append(affected, d.Symbol)
	}
	for _, d := range blast.Transitive {
		affected = append(affected, d.Symbol)
	}

	var typeDeps []BlastDependent
	seen := map[int64]bool{}
	for _, sym := range affected {
		if sym.Kind != store.KindClass && sym.Kind != store.KindInterface {
			continue
		}
		for _, edge := range typeAdj.In[sym.ID] {
			if seen[edge.Neighbor] {
				continue
			}
			seen[edge.Neighbor] = true
			other, err := e.Store.SymbolByID(edge.Neighbor)
			if err != nil {
				continue
			}
			path := ""
			if f, err := e.Store.FileByID(other.FileID); err == nil {
				path = f.Path
			}
			typeDeps = append(typeDeps, BlastDependent{Symbol: other, FilePath: path, Depth: 1, IsTest: looksLikeTestPath(path)})
		}
	}

	epoch, _ := e.Store.CacheEpoch()
	return ChangeImpactResponse{
		Target: blast.Target, Direct: blast.Direct, Transitive: blast.Transitive,
		TypeDependents: typeDeps, Risk: blast.Risk, Truncated: blast.Truncated,
		Trace: trace(newClamps(), "miss", start, computeStart, epoch),
	}, nil
}
