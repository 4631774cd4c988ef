package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// addNestedFile commits a class with a nested method so position and scope
// lookups have a parent chain to walk.
func addNestedFile(t *testing.T, s *store.Store) {
	t.Helper()
	batch := store.NewBatch("geo.py")
	boxID := batch.AddSymbol(store.Symbol{
		Name: "Box", QualifiedName: "geo.Box", Kind: store.KindClass, StartLine: 1, EndLine: 5,
	})
	batch.AddSymbol(store.Symbol{
		Name: "area", QualifiedName: "geo.Box.area", Kind: store.KindMethod,
		StartLine: 2, EndLine: 4, ParentSymbolID: &boxID,
	})
	_, err := s.ReplaceFileGraph(store.File{
		Path: "geo.py", Language: store.LangPython, ContentHash: "h5", LastIndexed: time.Now(),
	}, batch)
	require.NoError(t, err)
}

func TestSymbolAtReturnsNarrowestContainingSymbol(t *testing.T) {
	f := buildFixture(t)
	addNestedFile(t, f.store)
	e := f.engines(t)

	resp, err := e.SymbolAt("geo.py", 3)
	require.NoError(t, err)
	require.True(t, resp.Found)
	require.Equal(t, "area", resp.Symbol.Name)

	// Line 1 is inside Box but outside area.
	resp, err = e.SymbolAt("geo.py", 1)
	require.NoError(t, err)
	require.True(t, resp.Found)
	require.Equal(t, "Box", resp.Symbol.Name)
}

func TestSymbolAtOutsideAnySymbolIsEmpty(t *testing.T) {
	f := buildFixture(t)
	addNestedFile(t, f.store)
	e := f.engines(t)

	resp, err := e.SymbolAt("geo.py", 42)
	require.NoError(t, err)
	require.False(t, resp.Found)

	resp, err = e.SymbolAt("missing.py", 1)
	require.NoError(t, err)
	require.False(t, resp.Found)
}

func TestScopeAtWalksParentChainInnermostFirst(t *testing.T) {
	f := buildFixture(t)
	addNestedFile(t, f.store)
	e := f.engines(t)

	resp, err := e.ScopeAt("geo.py", 3)
	require.NoError(t, err)
	require.Len(t, resp.Chain, 2)
	require.Equal(t, "area", resp.Chain[0].Name)
	require.Equal(t, "Box", resp.Chain[1].Name)
}

func TestScopeAtUnindexedFileIsEmpty(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.ScopeAt("missing.py", 1)
	require.NoError(t, err)
	require.Empty(t, resp.Chain)
}
