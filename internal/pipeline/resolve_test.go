package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pgtgrly/bombe-mcp/internal/extract"
	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// TestResolveCalleeAliasScopedTier exercises the alias-scoped resolution
// tier: a call site whose receiver text names a file-local import alias
// resolves against that aliased file's own symbols, never globally.
func TestResolveCalleeAliasScopedTier(t *testing.T) {
	p, _ := newTestPipeline(t)

	utilBatch := store.NewBatch("util.py")
	utilBatch.AddSymbol(store.Symbol{Name: "helper", QualifiedName: "helper", Kind: store.KindFunction, StartLine: 1, EndLine: 2})
	_, err := p.Store.ReplaceFileGraph(store.File{Path: "util.py", Language: store.LangPython, ContentHash: "h1", LastIndexed: time.Now()}, utilBatch)
	require.NoError(t, err)

	utilFile, err := p.Store.FileByPath("util.py")
	require.NoError(t, err)
	fileIDByPath := map[string]int64{"util.py": utilFile.ID}

	site := extract.CallSite{Callee: "helper", ReceiverHint: "u", ImportAlias: "util.py"}
	sym, confidence, found := p.resolveCallee(site, map[string]store.Symbol{}, fileIDByPath)
	require.True(t, found)
	require.Equal(t, "helper", sym.Name)
	require.InDelta(t, 0.9, confidence, 1e-9)
}

// TestResolveCalleeClassScopedTierWinsOverAlias confirms tier (b) (a
// qualified "<hint>.<callee>" symbol) wins over tier (c) when both would
// otherwise match, since the receiver-hint class-scoped tier runs first.
func TestResolveCalleeClassScopedTierWinsOverAlias(t *testing.T) {
	p, _ := newTestPipeline(t)

	batch := store.NewBatch("shapes.py")
	batch.AddSymbol(store.Symbol{Name: "Dog", QualifiedName: "Dog", Kind: store.KindClass, StartLine: 1, EndLine: 1})
	batch.AddSymbol(store.Symbol{Name: "Bark", QualifiedName: "Dog.Bark", Kind: store.KindMethod, StartLine: 2, EndLine: 3})
	_, err := p.Store.ReplaceFileGraph(store.File{Path: "shapes.py", Language: store.LangPython, ContentHash: "h1", LastIndexed: time.Now()}, batch)
	require.NoError(t, err)

	shapesFile, err := p.Store.FileByPath("shapes.py")
	require.NoError(t, err)

	site := extract.CallSite{Callee: "Bark", ReceiverHint: "Dog", ImportAlias: "shapes.py"}
	sym, confidence, found := p.resolveCallee(site, map[string]store.Symbol{}, map[string]int64{"shapes.py": shapesFile.ID})
	require.True(t, found)
	require.Equal(t, "Dog.Bark", sym.QualifiedName)
	require.InDelta(t, 0.95, confidence, 1e-9)
}

// TestResolveCalleeGlobalTierConfidenceBelowOne confirms a global name
// match stays below full confidence even when exactly one candidate
// exists, since an unscoped match is never fully validated.
func TestResolveCalleeGlobalTierConfidenceBelowOne(t *testing.T) {
	p, _ := newTestPipeline(t)

	batch := store.NewBatch("util.py")
	batch.AddSymbol(store.Symbol{Name: "helper", QualifiedName: "helper", Kind: store.KindFunction, StartLine: 1, EndLine: 2})
	_, err := p.Store.ReplaceFileGraph(store.File{Path: "util.py", Language: store.LangPython, ContentHash: "h1", LastIndexed: time.Now()}, batch)
	require.NoError(t, err)

	site := extract.CallSite{Callee: "helper"}
	sym, confidence, found := p.resolveCallee(site, map[string]store.Symbol{}, map[string]int64{})
	require.True(t, found)
	require.Equal(t, "helper", sym.Name)
	require.Less(t, confidence, 1.0)
}
