// Package bombe provides a structure-aware code graph index and retrieval
// engine for AI coding agents. It bridges filesystem scanning, tree-sitter
// parsing, and a SQLite-backed symbol/edge graph with seven query tools
// tuned for token-budgeted context assembly.
//
// # Pipeline
//
// Bombe operates in three phases:
//
//  1. Scan: walk the repo root respecting .gitignore and sensitive-path
//     exclusions, hashing file contents to detect changes.
//  2. Extract: parse each changed file with tree-sitter, pull symbols,
//     edges, and external dependencies, and merge them into the store in a
//     deterministic path-sorted order.
//  3. Rank: refresh global PageRank over the full graph after every run.
//
// # Usage
//
// Create an Engine, index a repository, and query it:
//
//	e, err := bombe.New(cfg)
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	runID, err := e.FullIndex(ctx)
//
//	resp, err := e.SearchSymbols(bombe.SearchRequest{Query: "parseConfig"})
//
// # Query API
//
// Seven operations share a common guardrail-clamping layer; only
// [Engine.SearchSymbols] also caches its responses:
//
//   - [Engine.SearchSymbols] — hybrid lexical/FTS/fuzzy/structural symbol
//     search.
//   - [Engine.GetReferences] — callers, callees, and implementors of a
//     symbol.
//   - [Engine.GetBlastRadius] — direct and transitive dependents of a
//     proposed change, with a risk bucket.
//   - [Engine.TraceDataFlow] — forward and reverse call-graph traversal
//     from a symbol.
//   - [Engine.ChangeImpact] — type dependents and call-graph impact of a
//     signature, behavior, or delete change.
//   - [Engine.GetStructure] — a repository's file/symbol outline, grouped
//     and budget-capped.
//   - [Engine.GetContext] — the composite tool: seed resolution, graph
//     expansion, personalized PageRank, and token-budget packing into a
//     ready-to-paste context bundle.
//
// # Hybrid sync
//
// The internal/hybrid package builds, signs, verifies, and applies
// promotable artifacts and incremental deltas for repositories that mix
// local indexing with a shared remote index. See [Engine.BuildArtifact]
// and [Engine.BuildDelta].
package bombe
