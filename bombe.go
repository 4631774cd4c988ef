package bombe

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pgtgrly/bombe-mcp/internal/hybrid"
	"github.com/pgtgrly/bombe-mcp/internal/pipeline"
	"github.com/pgtgrly/bombe-mcp/internal/query"
	"github.com/pgtgrly/bombe-mcp/internal/scanner"
	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// Engine orchestrates the full Bombe pipeline: repository scanning, change
// detection, parallel extraction, graph storage, rank refresh, and the
// seven query tools.
type Engine struct {
	cfg      Config
	store    *store.Store
	pipeline *pipeline.Pipeline
	engines  *query.Engines
	policy   *scanner.IgnorePolicy
}

// New opens (creating if absent) the store at cfg.DBPath, migrates it to
// the current schema, and wires the indexing pipeline and query engines
// around it.
func New(cfg Config, opts ...Option) (*Engine, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DBPath == "" && cfg.RepoRoot != "" {
		cfg.DBPath = filepath.Join(cfg.RepoRoot, ".bombe", "bombe.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Code: ErrStore, Msg: err.Error(), Cause: err}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, &Error{Code: ErrIO, Msg: err.Error(), Cause: err}
	}
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, wrapErr(err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, wrapErr(err)
	}

	policy, err := scanner.NewIgnorePolicy(cfg.RepoRoot, cfg.Include, cfg.Exclude, cfg.SensitiveExclusionEnabled)
	if err != nil {
		s.Close()
		return nil, &Error{Code: ErrIO, Msg: err.Error(), Cause: err}
	}

	p := pipeline.New(s, cfg.Workers)
	if cfg.SemanticHintsPath != "" {
		hints, err := pipeline.LoadSemanticHints(cfg.SemanticHintsPath)
		if err != nil {
			s.Close()
			return nil, &Error{Code: ErrIO, Msg: err.Error(), Cause: err}
		}
		p.Hints = hints
	}

	return &Engine{
		cfg:      cfg,
		store:    s,
		pipeline: p,
		engines:  query.New(s, cfg.RepoRoot, nil),
		policy:   policy,
	}, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access by callers that
// need operational controls (quarantine, circuit breaker, diagnostics) not
// exposed through the query surface.
func (e *Engine) Store() *Store {
	return e.store
}

// FullIndex scans cfg.RepoRoot and indexes every file the ignore policy
// admits, replacing any existing graph data for changed files. Returns the
// run id diagnostics and sync records are keyed by.
func (e *Engine) FullIndex(ctx context.Context) (string, error) {
	runID, err := e.pipeline.FullIndex(ctx, e.cfg.RepoRoot, e.policy, scanner.MaxFileBytes)
	if err != nil {
		return runID, wrapErr(err)
	}
	return runID, nil
}

// Change is a single filesystem event an incremental index run applies.
type Change = pipeline.Change

const (
	ChangeAdded    = pipeline.ChangeAdded
	ChangeModified = pipeline.ChangeModified
	ChangeDeleted  = pipeline.ChangeDeleted
	ChangeRenamed  = pipeline.ChangeRenamed
)

// IncrementalIndex applies a caller-supplied changeset (typically sourced
// from Watch's fsnotify loop) without rescanning the whole tree.
func (e *Engine) IncrementalIndex(ctx context.Context, changes []Change) (string, error) {
	runID, err := e.pipeline.IncrementalIndex(ctx, e.cfg.RepoRoot, changes)
	if err != nil {
		return runID, wrapErr(err)
	}
	return runID, nil
}

// Watch starts an fsnotify watch loop over cfg.RepoRoot that folds
// filesystem events into incremental reindex runs, coalescing bursts of
// events within debounce into a single run. It blocks until ctx is
// cancelled or the watcher errors.
func (e *Engine) Watch(ctx context.Context, debounce time.Duration) error {
	return wrapErr(e.pipeline.Watch(ctx, e.cfg.RepoRoot, e.policy, debounce))
}

// Progress returns the most recent indexing run's progress snapshot.
func (e *Engine) Progress() Progress {
	return e.pipeline.Progress()
}

// recordMetric appends a tool-metric row for one query invocation.
// Metric logging is best-effort; a failed insert never fails the query.
func (e *Engine) recordMetric(tool string, start time.Time, trace *query.PlannerTrace) {
	mode := ""
	if trace != nil {
		mode = trace.CacheMode
	}
	_ = e.store.RecordToolMetric(tool, time.Since(start).Milliseconds(), mode)
}

// SearchSymbols ranks symbols by a blend of lexical, fuzzy, structural, and
// PageRank signal against a free-text query.
func (e *Engine) SearchSymbols(req SearchRequest) (SearchResponse, error) {
	start := time.Now()
	resp, err := e.engines.SearchSymbols(req)
	e.recordMetric("search_symbols", start, resp.Trace)
	return resp, wrapErr(err)
}

// GetReferences finds a symbol's callers, callees, or implementors.
func (e *Engine) GetReferences(req ReferenceRequest) (ReferenceResponse, error) {
	start := time.Now()
	resp, err := e.engines.GetReferences(req)
	e.recordMetric("get_references", start, resp.Trace)
	return resp, wrapErr(err)
}

// GetBlastRadius reports the direct and transitive dependents of a
// hypothetical change to a symbol, bucketed by risk.
func (e *Engine) GetBlastRadius(req BlastRequest) (BlastResponse, error) {
	start := time.Now()
	resp, err := e.engines.GetBlastRadius(req)
	e.recordMetric("get_blast_radius", start, resp.Trace)
	return resp, wrapErr(err)
}

// TraceDataFlow walks the call graph forward and reverse from a symbol.
func (e *Engine) TraceDataFlow(req DataFlowRequest) (DataFlowResponse, error) {
	start := time.Now()
	resp, err := e.engines.TraceDataFlow(req)
	e.recordMetric("trace_data_flow", start, resp.Trace)
	return resp, wrapErr(err)
}

// ChangeImpact surfaces type dependents and call-graph impact of a
// proposed signature, behavior, or delete change.
func (e *Engine) ChangeImpact(req ChangeImpactRequest) (ChangeImpactResponse, error) {
	start := time.Now()
	resp, err := e.engines.ChangeImpact(req)
	e.recordMetric("change_impact", start, resp.Trace)
	return resp, wrapErr(err)
}

// GetStructure returns a token-budget-capped outline of the repository's
// files and symbols.
func (e *Engine) GetStructure(req StructureRequest) (StructureResponse, error) {
	start := time.Now()
	resp, err := e.engines.GetStructure(req)
	e.recordMetric("get_structure", start, resp.Trace)
	return resp, wrapErr(err)
}

// GetContext assembles a ready-to-paste context bundle: seed resolution,
// graph expansion, personalized PageRank scoring, and token-budget packing
// with secret redaction.
func (e *Engine) GetContext(req ContextRequest) (ContextResponse, error) {
	start := time.Now()
	resp, err := e.engines.GetContext(req)
	e.recordMetric("get_context", start, resp.Trace)
	return resp, wrapErr(err)
}

// SymbolAt resolves the narrowest symbol whose range contains (path,
// line), with its parameters. Positions outside any symbol return an
// empty response with Found=false.
func (e *Engine) SymbolAt(path string, line int) (SymbolAtResponse, error) {
	resp, err := e.engines.SymbolAt(path, line)
	return resp, wrapErr(err)
}

// ScopeAt returns the chain of symbols enclosing (path, line), innermost
// first.
func (e *Engine) ScopeAt(path string, line int) (ScopeAtResponse, error) {
	resp, err := e.engines.ScopeAt(path, line)
	return resp, wrapErr(err)
}

// BuildArtifact snapshots the full graph into a promotable artifact for the
// hybrid sync plane, per cfg.Signing.
func (e *Engine) BuildArtifact(snapshot string) (Artifact, error) {
	a, err := hybrid.BuildArtifact(e.store, e.cfg.RepoRoot, snapshot)
	if err != nil {
		return Artifact{}, wrapErr(err)
	}
	if err := hybrid.SignArtifact(&a, e.cfg.Signing); err != nil {
		return Artifact{}, wrapErr(err)
	}
	return a, nil
}

// ApplyArtifact verifies and, on success, pins a remote artifact as
// authoritative for its (repo, snapshot). Quarantined or tampered artifacts
// are rejected and never retried.
func (e *Engine) ApplyArtifact(a Artifact) error {
	return wrapErr(hybrid.ApplyArtifact(e.store, a))
}

// BuildDelta packages an incremental changeset discovered during indexing
// into a signable delta for the hybrid sync plane.
func (e *Engine) BuildDelta(baseSnapshot, targetSnapshot string, touchedFiles []string,
	addedSymbols []ArtifactSymbol, removedSymbols []string, addedEdges, removedEdges []ArtifactEdge) (Delta, error) {
	d, err := hybrid.BuildDelta(e.cfg.RepoRoot, baseSnapshot, targetSnapshot, touchedFiles, addedSymbols, removedSymbols, addedEdges, removedEdges)
	if err != nil {
		return Delta{}, wrapErr(err)
	}
	if err := hybrid.SignDelta(&d, e.cfg.Signing); err != nil {
		return Delta{}, wrapErr(err)
	}
	return d, nil
}

// ShouldAttemptRemote reports whether the circuit breaker for originID
// currently allows a remote sync attempt.
func (e *Engine) ShouldAttemptRemote(originID string) (bool, error) {
	ok, err := hybrid.ShouldAttemptRemote(e.store, originID)
	return ok, wrapErr(err)
}

// RecordRemoteFailure records a failed remote sync attempt against
// originID's circuit breaker.
func (e *Engine) RecordRemoteFailure(originID string) error {
	return wrapErr(hybrid.RecordRemoteFailure(e.store, originID))
}

// RecordRemoteSuccess resets originID's circuit breaker to closed.
func (e *Engine) RecordRemoteSuccess(originID string) error {
	return wrapErr(hybrid.RecordRemoteSuccess(e.store, originID))
}
