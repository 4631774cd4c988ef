package query

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "bombe.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// fixture is a small call graph plus a type hierarchy shared by every
// engine test: main calls helper calls util, and Circle implements Shape.
type fixture struct {
	store  *store.Store
	repo   string
	byName map[string]store.Symbol
}

func buildFixture(t *testing.T) fixture {
	t.Helper()
	repo := t.TempDir()
	s := newTestStore(t)

	write := func(path, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(repo, path), []byte(content), 0o644))
	}
	write("util.py", "def util():\n    return 1\n")
	write("lib.py", "def helper():\n    return util()\n")
	write("main.py", "def main():\n    return helper()\n")
	write("shapes.py", "class Shape:\n    pass\n\nclass Circle(Shape):\n    pass\n")

	addFile := func(path, hash string, syms ...store.Symbol) int64 {
		batch := store.NewBatch(path)
		for _, sym := range syms {
			batch.AddSymbol(sym)
		}
		fileID, err := s.ReplaceFileGraph(store.File{Path: path, Language: store.LangPython, ContentHash: hash, LastIndexed: time.Now()}, batch)
		require.NoError(t, err)
		return fileID
	}

	addFile("util.py", "h1", store.Symbol{Name: "util", QualifiedName: "util.util", Kind: store.KindFunction, StartLine: 1, EndLine: 2})
	libFileID := addFile("lib.py", "h2", store.Symbol{Name: "helper", QualifiedName: "lib.helper", Kind: store.KindFunction, StartLine: 1, EndLine: 2})
	mainFileID := addFile("main.py", "h3", store.Symbol{Name: "main", QualifiedName: "main.main", Kind: store.KindFunction, StartLine: 1, EndLine: 2})
	shapesFileID := addFile("shapes.py", "h4",
		store.Symbol{Name: "Shape", QualifiedName: "shapes.Shape", Kind: store.KindInterface, StartLine: 1, EndLine: 2},
		store.Symbol{Name: "Circle", QualifiedName: "shapes.Circle", Kind: store.KindClass, StartLine: 4, EndLine: 5},
	)

	byName := map[string]store.Symbol{}
	for _, name := range []string{"util.util", "lib.helper", "main.main", "shapes.Shape", "shapes.Circle"} {
		sym, err := s.SymbolByQualifiedName(name)
		require.NoError(t, err)
		byName[sym.Name] = sym
	}

	require.NoError(t, s.InsertResolvedEdges([]store.Edge{
		{SourceID: byName["helper"].ID, SourceType: store.EndpointSymbol, TargetID: byName["util"].ID, TargetType: store.EndpointSymbol, Relationship: store.RelCalls, FileID: libFileID, Line: 2, Confidence: 1},
		{SourceID: byName["main"].ID, SourceType: store.EndpointSymbol, TargetID: byName["helper"].ID, TargetType: store.EndpointSymbol, Relationship: store.RelCalls, FileID: mainFileID, Line: 2, Confidence: 1},
		{SourceID: byName["Circle"].ID, SourceType: store.EndpointSymbol, TargetID: byName["Shape"].ID, TargetType: store.EndpointSymbol, Relationship: store.RelImplements, FileID: shapesFileID, Line: 4, Confidence: 1},
	}))

	return fixture{store: s, repo: repo, byName: byName}
}

func (f fixture) engines(t *testing.T) *Engines {
	t.Helper()
	return New(f.store, f.repo, nil)
}
