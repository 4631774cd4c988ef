package pipeline

import (
	"sort"
	"strings"

	"github.com/pgtgrly/bombe-mcp/internal/extract"
	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// resolveEdges cross-references extraction output into graph edges once
// all of a run's symbols exist: call sites become CALLS edges through a
// cascading lookup (same-file, class-scoped receiver hint, alias/import
// scope, qualified-name suffix, global ambiguous match — the first tier
// that yields a candidate wins, with ties broken by descending PageRank
// then ascending symbol id, the order SymbolsByName already returns);
// extends/implements clauses become EXTENDS/IMPLEMENTS edges; and import
// statements become IMPORTS edges against the file table plus
// IMPORTS_SYMBOL edges for the specific names a from-import binds.
func (p *Pipeline) resolveEdges(runID string, resultsByFile map[string]extract.Result) error {
	if len(resultsByFile) == 0 {
		return nil
	}

	allFiles, err := p.Store.AllFiles()
	if err != nil {
		return err
	}
	fileIDByPath := make(map[string]int64, len(allFiles))
	for _, f := range allFiles {
		fileIDByPath[f.Path] = f.ID
	}

	var resolved []store.Edge
	var ambiguousCount int

	paths := make([]string, 0, len(resultsByFile))
	for path := range resultsByFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		res := resultsByFile[path]
		fileID, ok := fileIDByPath[path]
		if !ok {
			continue
		}
		fileSymbols, err := p.Store.SymbolsByFile(fileID)
		if err != nil {
			return err
		}
		sameFile := make(map[string]store.Symbol, len(fileSymbols))
		for _, s := range fileSymbols {
			sameFile[s.Name] = s
		}

		for _, site := range res.CallSites {
			callerID, ok := symbolIDByName(fileSymbols, site.CallerName)
			if !ok {
				continue
			}

			target, confidence, found := p.resolveCallee(site, sameFile, fileIDByPath)
			if !found {
				ambiguousCount++
				continue
			}
			resolved = append(resolved, store.Edge{
				SourceID: callerID, SourceType: store.EndpointSymbol,
				TargetID: target.ID, TargetType: store.EndpointSymbol,
				Relationship: store.RelCalls, FileID: fileID, Line: site.Line, Confidence: confidence,
			})
		}

		resolved = append(resolved, p.resolveHierarchy(res.Symbols, sameFile, fileID)...)

		deps, err := p.Store.ExternalDepsByFile(fileID)
		if err != nil {
			return err
		}
		namesByImport := importNamesByLine(res.Imports)
		for _, dep := range deps {
			targetFileID, ok := resolveImportTarget(dep.ModuleName, fileIDByPath)
			if !ok {
				continue
			}
			resolved = append(resolved, store.Edge{
				SourceID: fileID, SourceType: store.EndpointFile,
				TargetID: targetFileID, TargetType: store.EndpointFile,
				Relationship: store.RelImports, FileID: fileID, Line: dep.Line, Confidence: 1.0,
			})
			targetSymbols, err := p.Store.SymbolsByFile(targetFileID)
			if err != nil {
				return err
			}
			for _, name := range namesByImport[dep.Line] {
				if sym, ok := symbolByShortName(targetSymbols, name); ok {
					resolved = append(resolved, store.Edge{
						SourceID: fileID, SourceType: store.EndpointFile,
						TargetID: sym.ID, TargetType: store.EndpointSymbol,
						Relationship: store.RelImportsSymbol, FileID: fileID, Line: dep.Line, Confidence: 1.0,
					})
				}
			}
		}
	}

	if err := p.Store.InsertResolvedEdges(resolved); err != nil {
		return err
	}
	if ambiguousCount > 0 {
		p.Store.RecordDiagnostic(store.Diagnostic{
			RunID: runID, Stage: "resolve", Category: "ambiguity", Severity: store.SeverityInfo,
			Message: "unresolved call sites dropped (no matching candidate in any tier)",
		})
	}
	return nil
}

// resolveHierarchy turns a file's extends/implements clauses into
// EXTENDS/IMPLEMENTS edges. A base named in an extends clause that
// resolves to an interface still becomes IMPLEMENTS (Python spells both
// with the same superclass syntax); an explicit implements clause is
// always IMPLEMENTS.
func (p *Pipeline) resolveHierarchy(symbols []extract.Symbol, sameFile map[string]store.Symbol, fileID int64) []store.Edge {
	var edges []store.Edge
	for _, sym := range symbols {
		source, ok := sameFile[sym.Name]
		if !ok || len(sym.Extends)+len(sym.Implements) == 0 {
			continue
		}
		for _, base := range sym.Extends {
			target, confidence, found := p.resolveTypeName(base, sameFile)
			if !found {
				continue
			}
			rel := store.RelExtends
			if target.Kind == store.KindInterface {
				rel = store.RelImplements
			}
			edges = append(edges, store.Edge{
				SourceID: source.ID, SourceType: store.EndpointSymbol,
				TargetID: target.ID, TargetType: store.EndpointSymbol,
				Relationship: rel, FileID: fileID, Line: source.StartLine, Confidence: confidence,
			})
		}
		for _, iface := range sym.Implements {
			target, confidence, found := p.resolveTypeName(iface, sameFile)
			if !found {
				continue
			}
			edges = append(edges, store.Edge{
				SourceID: source.ID, SourceType: store.EndpointSymbol,
				TargetID: target.ID, TargetType: store.EndpointSymbol,
				Relationship: store.RelImplements, FileID: fileID, Line: source.StartLine, Confidence: confidence,
			})
		}
	}
	return edges
}

// resolveTypeName finds the class/interface a heritage clause names:
// same-file first, then the global name index restricted to type kinds.
func (p *Pipeline) resolveTypeName(name string, sameFile map[string]store.Symbol) (store.Symbol, float64, bool) {
	if sym, ok := sameFile[name]; ok && (sym.Kind == store.KindClass || sym.Kind == store.KindInterface) {
		return sym, 1.0, true
	}
	candidates, err := p.Store.SymbolsByName(name)
	if err != nil {
		return store.Symbol{}, 0, false
	}
	for _, c := range candidates {
		if c.Kind == store.KindClass || c.Kind == store.KindInterface {
			return c, 0.8, true
		}
	}
	return store.Symbol{}, 0, false
}

func symbolIDByName(symbols []store.Symbol, name string) (int64, bool) {
	if name == "" {
		return 0, false
	}
	for _, s := range symbols {
		if s.Name == name {
			return s.ID, true
		}
	}
	return 0, false
}

func symbolByShortName(symbols []store.Symbol, name string) (store.Symbol, bool) {
	for _, s := range symbols {
		if s.Name == name {
			return s, true
		}
	}
	return store.Symbol{}, false
}

// importNamesByLine indexes each import's bound names by line so external
// dep rows (which carry the line but not the name list) can be joined back
// to their extraction record.
func importNamesByLine(imports []extract.Import) map[int][]string {
	if len(imports) == 0 {
		return nil
	}
	out := make(map[int][]string, len(imports))
	for _, imp := range imports {
		if len(imp.Names) > 0 {
			out[imp.Line] = append(out[imp.Line], imp.Names...)
		}
	}
	return out
}

// resolveCallee runs the cascading tiers for a single call site: (a)
// same-file, (b) class-scoped via receiver hint, (c) alias/import-scoped,
// (d) qualified-name suffix, (e) global ambiguous match.
func (p *Pipeline) resolveCallee(site extract.CallSite, sameFile map[string]store.Symbol, fileIDByPath map[string]int64) (store.Symbol, float64, bool) {
	// Tier (a): same-file symbols.
	if sym, ok := sameFile[site.Callee]; ok {
		return sym, 1.0, true
	}

	// Tier (b): class-scoped candidate via receiver hint — the receiver
	// names a type, so symbols whose qualified name is "<hint>.<callee>"
	// are owning-class methods.
	if site.ReceiverHint != "" {
		qualified := site.ReceiverHint + "." + site.Callee
		if sym, err := p.Store.SymbolByQualifiedName(qualified); err == nil {
			return sym, 0.95, true
		}
	}

	// Tier (c): alias/import-scoped candidate — the receiver names a
	// file-local import alias rather than a class, so the callee is looked
	// up only among the symbols defined in the file that import resolves
	// to, never globally.
	if site.ImportAlias != "" {
		if targetFileID, ok := resolveImportTarget(site.ImportAlias, fileIDByPath); ok {
			if syms, err := p.Store.SymbolsByFile(targetFileID); err == nil {
				for _, s := range syms {
					if s.Name == site.Callee {
						return s, 0.9, true
					}
				}
			}
		}
	}

	// Tier (d): qualified-name suffix match.
	candidates, err := p.Store.SymbolsByName(site.Callee)
	if err == nil {
		for _, c := range candidates {
			if strings.HasSuffix(c.QualifiedName, "."+site.Callee) {
				return c, 0.8, true
			}
		}
	}

	// Tier (e): global name match — unvalidated and context-free, so it
	// never carries full confidence even with a single candidate;
	// SymbolsByName already orders by descending PageRank then ascending
	// id, so the first entry is the tie-break winner when more than one
	// candidate ties for the name.
	if len(candidates) > 0 {
		confidence := 0.6
		if len(candidates) > 1 {
			confidence = 0.5
		}
		return candidates[0], confidence, true
	}

	return store.Symbol{}, 0, false
}

// resolveImportTarget maps an import's module name onto an in-repo file id
// by exact path or path-suffix match.
func resolveImportTarget(moduleName string, fileIDByPath map[string]int64) (int64, bool) {
	if moduleName == "" {
		return 0, false
	}
	if id, ok := fileIDByPath[moduleName]; ok {
		return id, true
	}
	// Dotted module paths (python "pkg.mod") become slashed candidates.
	// When several files suffix-match, the lexicographically smallest path
	// wins so resolution stays run-independent.
	slashed := strings.ReplaceAll(moduleName, ".", "/")
	bestPath := ""
	bestID := int64(0)
	for path, id := range fileIDByPath {
		trimmed := strings.TrimSuffix(path, filepathExt(path))
		for _, candidate := range []string{moduleName, slashed} {
			if trimmed == candidate || strings.HasSuffix(trimmed, "/"+candidate) {
				if bestPath == "" || path < bestPath {
					bestPath, bestID = path, id
				}
				break
			}
		}
	}
	return bestID, bestPath != ""
}

func filepathExt(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 && !strings.ContainsRune(path[i:], '/') {
		return path[i:]
	}
	return ""
}
