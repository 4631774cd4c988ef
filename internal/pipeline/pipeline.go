// Package pipeline orchestrates full and incremental indexing runs: scan,
// parallel extraction, deterministic merge into the store, cascading edge
// resolution, and rank refresh.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pgtgrly/bombe-mcp/internal/extract"
	"github.com/pgtgrly/bombe-mcp/internal/scanner"
	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// Progress is a monotonic snapshot pollers can read during a run.
type Progress struct {
	RunID       string
	FilesSeen   int64
	FilesIndexed int64
	ElapsedMs   int64
	Done        bool
}

// Pipeline drives indexing runs against a single store.
type Pipeline struct {
	Store   *store.Store
	Workers int
	Hints   SemanticHints // optional receiver-type hints, nil when unconfigured

	mu       sync.Mutex
	progress Progress
}

// New creates a Pipeline. workers <= 0 defaults to max(1, NumCPU-1), a
// safer default for heterogeneous-core environments; callers that want
// NumCPU itself pass it explicitly.
func New(s *store.Store, workers int) *Pipeline {
	if workers <= 0 {
		workers = defaultWorkers()
	}
	return &Pipeline{Store: s, Workers: workers}
}

// Progress returns the most recent snapshot.
func (p *Pipeline) Progress() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

func (p *Pipeline) setProgress(fn func(*Progress)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.progress)
}

// workItem is one file queued for parallel extraction.
type workItem struct {
	candidate scanner.Candidate
	hash      string
}

// extracted pairs a work item with its extractor output, produced by a
// worker and consumed serially by the merge stage.
type extracted struct {
	item      workItem
	result    extract.Result
	sizeBytes int64
}

// FullIndex processes every file Enumerate finds under root. It is the
// entry point for the initial index and for --force-style full reindexes.
func (p *Pipeline) FullIndex(ctx context.Context, root string, policy *scanner.IgnorePolicy, maxFileBytes int64) (string, error) {
	runID := uuid.NewString()
	start := time.Now()
	p.setProgress(func(pr *Progress) { *pr = Progress{RunID: runID} })

	candidates, skipped, err := scanner.Enumerate(root, policy, maxFileBytes)
	if err != nil {
		return runID, fmt.Errorf("scanning %s: %w", root, err)
	}
	for _, sk := range skipped {
		p.Store.RecordDiagnostic(store.Diagnostic{
			RunID: runID, Stage: "scan", Category: "io", Severity: store.SeverityWarning,
			File: sk.RelPath, Message: sk.Reason,
		})
	}
	p.setProgress(func(pr *Progress) { pr.FilesSeen = int64(len(candidates)) })

	// Files previously indexed but no longer enumerated have been deleted
	// (or newly ignored) on disk; a full run purges their graphs so the
	// store converges on exactly what the tree holds.
	onDisk := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		onDisk[c.RelPath] = true
	}
	stored, err := p.Store.AllFiles()
	if err != nil {
		return runID, fmt.Errorf("listing indexed files: %w", err)
	}
	changedPaths := make(map[string]bool)
	var oldSymbolIDs, oldFileIDs []int64
	noteOld := func(f store.File) {
		changedPaths[f.Path] = true
		oldFileIDs = append(oldFileIDs, f.ID)
		if syms, err := p.Store.SymbolsByFile(f.ID); err == nil {
			for _, s := range syms {
				oldSymbolIDs = append(oldSymbolIDs, s.ID)
			}
		}
	}
	var purge []string
	for _, f := range stored {
		if !onDisk[f.Path] {
			noteOld(f)
			purge = append(purge, f.Path)
		}
	}

	var toProcess []workItem
	for _, c := range candidates {
		hash, err := scanner.ContentHash(c.AbsPath)
		if err != nil {
			p.Store.RecordDiagnostic(store.Diagnostic{
				RunID: runID, Stage: "scan", Category: "io", Severity: store.SeverityError,
				File: c.RelPath, Message: err.Error(),
			})
			continue
		}
		existing, err := p.Store.FileByPath(c.RelPath)
		if err == nil && existing.ContentHash == hash {
			continue // unchanged: skip parse entirely
		}
		if err == nil {
			noteOld(existing)
		} else {
			changedPaths[c.RelPath] = true
		}
		toProcess = append(toProcess, workItem{candidate: c, hash: hash})
	}

	// Reverse dependents are collected while the old edges still exist;
	// both the purge and the whole-file replaces clean them.
	refFileIDs, err := p.referencingFiles(oldSymbolIDs, oldFileIDs)
	if err != nil {
		return runID, fmt.Errorf("collecting reverse dependents: %w", err)
	}
	for _, path := range purge {
		if err := p.Store.DeleteFileGraph(path); err != nil {
			return runID, fmt.Errorf("purging %s: %w", path, err)
		}
	}

	if _, err := p.extractMergeResolve(ctx, runID, toProcess); err != nil {
		return runID, err
	}

	if err := p.reResolveReferencing(runID, root, refFileIDs, changedPaths); err != nil {
		return runID, fmt.Errorf("re-resolving dependents: %w", err)
	}

	if err := p.refreshRank(); err != nil {
		return runID, fmt.Errorf("refreshing rank: %w", err)
	}

	p.setProgress(func(pr *Progress) {
		pr.FilesIndexed = int64(len(toProcess))
		pr.ElapsedMs = time.Since(start).Milliseconds()
		pr.Done = true
	})
	return runID, nil
}

// Change describes one entry in an incremental changeset.
type Change struct {
	Kind    ChangeKind
	Path    string // for Added/Modified/Deleted
	OldPath string // for Renamed
	NewPath string // for Renamed
}

type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeModified
	ChangeDeleted
	ChangeRenamed
)

// IncrementalIndex applies a supplied changeset. Deletes and renames are
// applied directly against the store; added/modified files go through the
// same extract/merge path as a full run, scoped to just those files.
func (p *Pipeline) IncrementalIndex(ctx context.Context, root string, changes []Change) (string, error) {
	runID := uuid.NewString()
	start := time.Now()
	p.setProgress(func(pr *Progress) { *pr = Progress{RunID: runID} })

	// Files holding edges into the changed set are collected before any
	// mutation: replacing or deleting a file cleans the reverse edges that
	// point at its old symbols, and those referencing files must then be
	// re-resolved against the new symbol set.
	changedPaths := make(map[string]bool, len(changes))
	var oldSymbolIDs, oldFileIDs []int64
	for _, ch := range changes {
		switch ch.Kind {
		case ChangeDeleted, ChangeModified:
			changedPaths[ch.Path] = true
			f, err := p.Store.FileByPath(ch.Path)
			if err != nil {
				continue
			}
			oldFileIDs = append(oldFileIDs, f.ID)
			syms, err := p.Store.SymbolsByFile(f.ID)
			if err != nil {
				continue
			}
			for _, s := range syms {
				oldSymbolIDs = append(oldSymbolIDs, s.ID)
			}
		case ChangeAdded:
			changedPaths[ch.Path] = true
		case ChangeRenamed:
			changedPaths[ch.OldPath] = true
			changedPaths[ch.NewPath] = true
		}
	}
	refFileIDs, err := p.referencingFiles(oldSymbolIDs, oldFileIDs)
	if err != nil {
		return runID, fmt.Errorf("collecting reverse dependents: %w", err)
	}

	var toProcess []workItem

	for _, ch := range changes {
		switch ch.Kind {
		case ChangeDeleted:
			if err := p.Store.DeleteFileGraph(ch.Path); err != nil {
				return runID, fmt.Errorf("deleting %s: %w", ch.Path, err)
			}
		case ChangeRenamed:
			if err := p.Store.RenameFile(ch.OldPath, ch.NewPath); err != nil {
				return runID, fmt.Errorf("renaming %s -> %s: %w", ch.OldPath, ch.NewPath, err)
			}
		case ChangeAdded, ChangeModified:
			absPath := joinRoot(root, ch.Path)
			hash, err := scanner.ContentHash(absPath)
			if err != nil {
				p.Store.RecordDiagnostic(store.Diagnostic{
					RunID: runID, Stage: "scan", Category: "io", Severity: store.SeverityError,
					File: ch.Path, Message: err.Error(),
				})
				continue
			}
			lang := scanner.DetectLanguage(ch.Path)
			toProcess = append(toProcess, workItem{candidate: scanner.Candidate{AbsPath: absPath, RelPath: ch.Path, Language: lang}, hash: hash})
		}
	}

	if _, err := p.extractMergeResolve(ctx, runID, toProcess); err != nil {
		return runID, err
	}

	if err := p.reResolveReferencing(runID, root, refFileIDs, changedPaths); err != nil {
		return runID, fmt.Errorf("re-resolving dependents: %w", err)
	}

	if err := p.refreshRank(); err != nil {
		return runID, fmt.Errorf("refreshing rank: %w", err)
	}

	p.setProgress(func(pr *Progress) {
		pr.FilesIndexed = int64(len(toProcess))
		pr.ElapsedMs = time.Since(start).Milliseconds()
		pr.Done = true
	})
	return runID, nil
}

// referencingFiles unions the reverse-dependent sets for a changeset's old
// symbols and old file rows, deduplicated.
func (p *Pipeline) referencingFiles(symbolIDs, fileIDs []int64) ([]int64, error) {
	bySymbol, err := p.Store.FilesReferencingSymbols(symbolIDs)
	if err != nil {
		return nil, err
	}
	byFile, err := p.Store.FilesReferencingFiles(fileIDs)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(bySymbol)+len(byFile))
	var out []int64
	for _, id := range append(bySymbol, byFile...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// reResolveReferencing re-extracts (purely, with no graph replacement) the
// files whose edges pointed into a changed file's old symbol set and runs
// edge resolution for them again, so cross-file CALLS/IMPORTS edges into
// the replacement symbols are restored without disturbing the referencing
// files' own symbol ids.
func (p *Pipeline) reResolveReferencing(runID, root string, refFileIDs []int64, changedPaths map[string]bool) error {
	if len(refFileIDs) == 0 {
		return nil
	}
	resultsByFile := make(map[string]extract.Result, len(refFileIDs))
	var staleIDs []int64
	for _, id := range refFileIDs {
		f, err := p.Store.FileByID(id)
		if err != nil {
			continue // the referencing file itself was deleted this run
		}
		if changedPaths[f.Path] {
			continue // already fully reprocessed by the merge stage
		}
		data, err := scanner.ReadFile(joinRoot(root, f.Path))
		if err != nil {
			p.Store.RecordDiagnostic(store.Diagnostic{
				RunID: runID, Stage: "resolve", Category: "io", Severity: store.SeverityWarning,
				File: f.Path, Message: err.Error(),
			})
			continue
		}
		res := extract.Extract(data, f.Language)
		p.Hints.apply(f.Path, res.CallSites)
		resultsByFile[f.Path] = res
		staleIDs = append(staleIDs, id)
	}
	if len(resultsByFile) == 0 {
		return nil
	}
	if err := p.Store.DeleteResolvedEdgesForFiles(staleIDs); err != nil {
		return err
	}
	return p.resolveEdges(runID, resultsByFile)
}

func joinRoot(root, rel string) string {
	if root == "" {
		return rel
	}
	return root + "/" + rel
}

func defaultWorkers() int {
	n := numCPU()
	if n <= 1 {
		return 1
	}
	return n - 1
}

// extractMergeResolve runs parallel extraction across a bounded worker
// pool, a deterministic path-sorted merge into the store, and cascading
// edge resolution. It returns the file ids touched so callers can scope
// incremental rank or diagnostics work if needed.
func (p *Pipeline) extractMergeResolve(ctx context.Context, runID string, items []workItem) ([]int64, error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := make([]extracted, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			data, err := scanner.ReadFile(item.candidate.AbsPath)
			if err != nil {
				p.Store.RecordDiagnostic(store.Diagnostic{
					RunID: runID, Stage: "extract", Category: "io", Severity: store.SeverityError,
					File: item.candidate.RelPath, Message: err.Error(),
				})
				results[i] = extracted{item: item, result: extract.Result{}}
				return nil
			}
			res := extract.Extract(data, item.candidate.Language)
			results[i] = extracted{item: item, result: res, sizeBytes: int64(len(data))}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parallel extraction: %w", err)
	}

	// Deterministic merge: sort by file path before applying, independent
	// of worker completion order.
	sort.Slice(results, func(i, j int) bool {
		return results[i].item.candidate.RelPath < results[j].item.candidate.RelPath
	})

	var touchedFileIDs []int64
	resultsByFile := make(map[string]extract.Result, len(results))
	for _, r := range results {
		// Cancellation is honored between files; each file's merge is a
		// single transaction, so stopping here never leaves a torn graph.
		select {
		case <-ctx.Done():
			return touchedFileIDs, ctx.Err()
		default:
		}
		for _, d := range r.result.Diagnostics {
			p.Store.RecordDiagnostic(store.Diagnostic{
				RunID: runID, Stage: d.Stage, Category: "extract", Severity: store.DiagnosticSeverity(d.Severity),
				File: r.item.candidate.RelPath, Message: d.Message, Remediation: d.Remediation,
			})
		}

		batch := buildBatch(r.item.candidate.RelPath, r.result)
		f := store.File{
			Path:        r.item.candidate.RelPath,
			Language:    r.item.candidate.Language,
			ContentHash: r.item.hash,
			SizeBytes:   r.sizeBytes,
			LastIndexed: time.Now().UTC(),
		}
		fileID, err := p.Store.ReplaceFileGraph(f, batch)
		if err != nil {
			p.Store.RecordDiagnostic(store.Diagnostic{
				RunID: runID, Stage: "merge", Category: "store", Severity: store.SeverityError,
				File: r.item.candidate.RelPath, Message: err.Error(),
			})
			continue
		}
		touchedFileIDs = append(touchedFileIDs, fileID)
		p.Hints.apply(r.item.candidate.RelPath, r.result.CallSites)
		resultsByFile[r.item.candidate.RelPath] = r.result

		var deps []store.ExternalDependency
		for _, imp := range r.result.Imports {
			// Unresolved imports become external deps by default; the
			// resolve stage promotes in-repo ones to IMPORTS edges.
			deps = append(deps, store.ExternalDependency{RawImport: imp.RawText, ModuleName: imp.Target, Line: imp.Line})
		}
		if len(deps) > 0 {
			p.Store.ReplaceExternalDeps(r.item.candidate.RelPath, deps)
		}
	}

	if err := p.resolveEdges(runID, resultsByFile); err != nil {
		return touchedFileIDs, fmt.Errorf("resolving edges: %w", err)
	}
	return touchedFileIDs, nil
}

func buildBatch(path string, res extract.Result) *store.Batch {
	b := store.NewBatch(path)
	nameToFake := make(map[string]int64, len(res.Symbols))
	for _, sym := range res.Symbols {
		s := store.Symbol{
			Name: sym.Name, QualifiedName: sym.QualifiedName, Kind: sym.Kind,
			StartLine: sym.StartLine, EndLine: sym.EndLine, Signature: sym.Signature,
			ReturnType: sym.ReturnType, Visibility: sym.Visibility, Async: sym.Async,
			Static: sym.Static, Docstring: sym.Docstring,
		}
		s.SignatureHash = store.ComputeSignatureHash(sym.Name, sym.Kind, sym.Visibility, sym.ReturnType, toStoreParams(sym.Parameters))
		fakeID := b.AddSymbol(s)
		nameToFake[sym.QualifiedName] = fakeID
		for pos, param := range sym.Parameters {
			b.AddParameter(fakeID, store.Parameter{
				Position: pos, Name: param.Name, Type: param.Type,
				HasDefault: param.HasDefault, Default: param.Default,
			})
		}
	}
	// Link parent symbols (methods -> owning class) where both are in the
	// same file's batch, and record the ownership as a HAS_METHOD edge.
	for i, sym := range res.Symbols {
		if sym.ParentName == "" {
			continue
		}
		if parentFake, ok := nameToFake[sym.ParentName]; ok {
			b.Symbols[i].ParentSymbolID = &parentFake
			b.AddEdge(store.Edge{
				SourceID: parentFake, SourceType: store.EndpointSymbol,
				TargetID: b.Symbols[i].ID, TargetType: store.EndpointSymbol,
				Relationship: store.RelHasMethod, Line: sym.StartLine, Confidence: 1,
			})
		}
	}
	// Every symbol is DEFINES-linked to its file; the zero file endpoint
	// resolves to the batch's own file at commit.
	for i := range b.Symbols {
		b.AddEdge(store.Edge{
			SourceID: 0, SourceType: store.EndpointFile,
			TargetID: b.Symbols[i].ID, TargetType: store.EndpointSymbol,
			Relationship: store.RelDefines, Line: b.Symbols[i].StartLine, Confidence: 1,
		})
	}
	return b
}

func toStoreParams(params []extract.Parameter) []store.Parameter {
	out := make([]store.Parameter, len(params))
	for i, p := range params {
		out[i] = store.Parameter{Position: i, Name: p.Name, Type: p.Type, HasDefault: p.HasDefault, Default: p.Default}
	}
	return out
}
