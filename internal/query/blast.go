package query

import (
	"strings"
	"time"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// ChangeKind is the closed set of hypothetical changes get_blast_radius
// and change_impact reason about.
type ChangeKind string

const (
	ChangeSignature ChangeKind = "signature"
	ChangeBehavior  ChangeKind = "behavior"
	ChangeDelete    ChangeKind = "delete"
)

// RiskBucket is the closed set of blast-radius risk levels.
type RiskBucket string

const (
	RiskLow      RiskBucket = "low"
	RiskMedium   RiskBucket = "medium"
	RiskHigh     RiskBucket = "high"
	RiskCritical RiskBucket = "critical"
)

// BlastRequest is get_blast_radius' input.
type BlastRequest struct {
	NameOrQualified string
	ChangeKind      ChangeKind
	MaxDepth        int
	DeadlineMS      int64
}

// BlastDependent is one symbol transitively affected by a hypothetical
// change, tagged with depth and whether its file looks like a test.
type BlastDependent struct {
	Symbol   store.Symbol
	FilePath string
	Depth    int
	IsTest   bool
}

// BlastResponse is get_blast_radius' output.
type BlastResponse struct {
	Target        store.Symbol
	Direct        []BlastDependent
	Transitive    []BlastDependent
	Risk          RiskBucket
	Truncated     bool
	Trace         *PlannerTrace
}

var blastRelationships = relSet(store.RelCalls, store.RelImplements, store.RelExtends)

// GetBlastRadius runs a reverse-edge BFS over
// CALLS ∪ IMPLEMENTS ∪ EXTENDS from the target, bucketing risk by
// direct/transitive dependent counts and whether any dependent lives in a
// test file.
func (e *Engines) GetBlastRadius(req BlastRequest) (BlastResponse, error) {
	start := time.Now()
	clamps := newClamps()
	req.MaxDepth = ClampBlastDepth(clamps, req.MaxDepth)
	if req.ChangeKind == "" {
		req.ChangeKind = ChangeBehavior
	}

	target, err := ResolveTarget(e.Store, req.NameOrQualified)
	if err == store.ErrNotFound {
		return BlastResponse{Trace: trace(clamps, "miss", start, start, 0)}, nil
	}
	if err != nil {
		return BlastResponse{}, wrapStoreErr(err)
	}

	computeStart := time.Now()
	adj, err := BuildAdjacency(e.Store, []store.Relationship{store.RelCalls, store.RelImplements, store.RelExtends})
	if err != nil {
		return BlastResponse{}, wrapStoreErr(err)
	}
	neighbors := filterRelationship(adj.In, blastRelationships)
	hops, truncated := BFS([]int64{target.ID}, neighbors, req.MaxDepth, GraphVisitedCap(), Deadline(req.DeadlineMS))

	dependents, err := e.hopsToDependents(hops, target.ID)
	if err != nil {
		return BlastResponse{}, wrapStoreErr(err)
	}

	var direct, transitive []BlastDependent
	testTouched := false
	for _, d := range dependents {
		if d.Depth == 1 {
			direct = append(direct, d)
		} else {
			transitive = append(transitive, d)
		}
		testTouched = testTouched || d.IsTest
	}

	epoch, _ := e.Store.CacheEpoch()
	return BlastResponse{
		Target: target, Direct: direct, Transitive: transitive,
		Risk:      bucketRisk(len(direct), len(transitive), testTouched, req.ChangeKind),
		Truncated: truncated,
		Trace:     trace(clamps, "miss", start, computeStart, epoch),
	}, nil
}

func (e *Engines) hopsToDependents(hops []BFSHop, targetID int64) ([]BlastDependent, error) {
	var ids []int64
	for _, h := range hops {
		if h.NodeID != targetID {
			ids = append(ids, h.NodeID)
		}
	}
	symbols, err := e.Store.SymbolsByIDs(ids)
	if err != nil {
		return nil, err
	}
	fileCache := map[int64]string{}
	out := make([]BlastDependent, 0, len(ids))
	for _, h := range hops {
		if h.NodeID == targetID {
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
		out = append(out, BlastDependent{Symbol: sym, FilePath: path, Depth: h.Depth, IsTest: looksLikeTestPath(path)})
	}
	return out, nil
}

// looksLikeTestPath is the path heuristic for detecting test-file
// dependents.
func looksLikeTestPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "_test.") ||
		strings.Contains(lower, "/test/") ||
		strings.Contains(lower, "/tests/") ||
		strings.HasPrefix(lower, "test_") ||
		strings.Contains(lower, "/test_") ||
		strings.Contains(lower, ".test.") ||
		strings.Contains(lower, ".spec.")
}

// bucketRisk derives a risk level from direct/transitive dependent counts,
// whether any dependent is test-covered, and the kind of change proposed.
// Deletion is riskier than a signature change at the same fan-out; test
// coverage lowers risk one notch since a break would be caught quickly.
func bucketRisk(direct, transitive int, testTouched bool, kind ChangeKind) RiskBucket {
	total := direct + transitive
	bucket := RiskLow
	switch {
	case total == 0:
		bucket = RiskLow
	case total <= 3:
		bucket = RiskMedium
	case total <= 15:
		bucket = RiskHigh
	default:
		bucket = RiskCritical
	}
	if kind == ChangeDelete {
		bucket = escalate(bucket)
	}
	if testTouched {
		bucket = deescalate(bucket)
	}
	return bucket
}

func escalate(b RiskBucket) RiskBucket {
	switch b {
	case RiskLow:
		return RiskMedium
	case RiskMedium:
		return RiskHigh
	case RiskHigh:
		return RiskCritical
	default:
		return b
	}
}

func deescalate(b RiskBucket) RiskBucket {
	switch b {
	case RiskCritical:
		return RiskHigh
	case RiskHigh:
		return RiskMedium
	case RiskMedium:
		return RiskLow
	default:
		return b
	}
}
