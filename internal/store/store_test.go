package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "bombe.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate())

	epoch, err := s.CacheEpoch()
	require.NoError(t, err)
	require.Equal(t, int64(0), epoch)
}

func TestReplaceFileGraphInsertsAndRemaps(t *testing.T) {
	s := newTestStore(t)

	batch := NewBatch("a.py")
	callerID := batch.AddSymbol(Symbol{Name: "f", QualifiedName: "a.f", Kind: KindFunction, StartLine: 1, EndLine: 2})
	batch.AddParameter(callerID, Parameter{Position: 0, Name: "x", Type: "int"})
	batch.AddEdge(Edge{SourceID: callerID, SourceType: EndpointSymbol, TargetID: 999, TargetType: EndpointSymbol, Relationship: RelCalls, Line: 2, Confidence: 1})

	fileID, err := s.ReplaceFileGraph(File{Path: "a.py", Language: LangPython, ContentHash: "deadbeef", SizeBytes: 10, LastIndexed: time.Now()}, batch)
	require.NoError(t, err)
	require.NotZero(t, fileID)

	symbols, err := s.SymbolsByFile(fileID)
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	require.Equal(t, "f", symbols[0].Name)
	require.Positive(t, symbols[0].ID)

	params, err := s.ParametersBySymbol(symbols[0].ID)
	require.NoError(t, err)
	require.Len(t, params, 1)
	require.Equal(t, "x", params[0].Name)

	epoch, err := s.CacheEpoch()
	require.NoError(t, err)
	require.Equal(t, int64(1), epoch)
}

func TestReplaceFileGraphIsIdempotentOnRerun(t *testing.T) {
	s := newTestStore(t)
	f := File{Path: "a.py", Language: LangPython, ContentHash: "h1", SizeBytes: 1, LastIndexed: time.Now()}

	batch1 := NewBatch("a.py")
	batch1.AddSymbol(Symbol{Name: "f", QualifiedName: "a.f", Kind: KindFunction, StartLine: 1, EndLine: 2})
	fileID, err := s.ReplaceFileGraph(f, batch1)
	require.NoError(t, err)

	before, err := s.SymbolsByFile(fileID)
	require.NoError(t, err)

	batch2 := NewBatch("a.py")
	batch2.AddSymbol(Symbol{Name: "f", QualifiedName: "a.f", Kind: KindFunction, StartLine: 1, EndLine: 2})
	_, err = s.ReplaceFileGraph(f, batch2)
	require.NoError(t, err)

	after, err := s.SymbolsByFile(fileID)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	require.Equal(t, before[0].QualifiedName, after[0].QualifiedName)
}

func TestDeleteFileGraphRemovesReverseEdges(t *testing.T) {
	s := newTestStore(t)

	bBatch := NewBatch("b.py")
	gID := bBatch.AddSymbol(Symbol{Name: "g", QualifiedName: "b.g", Kind: KindFunction, StartLine: 1, EndLine: 1})
	bFileID, err := s.ReplaceFileGraph(File{Path: "b.py", Language: LangPython, ContentHash: "h", LastIndexed: time.Now()}, bBatch)
	require.NoError(t, err)
	gSymbols, err := s.SymbolsByFile(bFileID)
	require.NoError(t, err)
	_ = gID

	aBatch := NewBatch("a.py")
	fID := aBatch.AddSymbol(Symbol{Name: "f", QualifiedName: "a.f", Kind: KindFunction, StartLine: 1, EndLine: 2})
	aBatch.Edges = append(aBatch.Edges, pendingEdge{SourceID: fID, SourceType: EndpointSymbol, TargetID: gSymbols[0].ID, TargetType: EndpointSymbol, Relationship: RelCalls, Line: 2, Confidence: 1})
	_, err = s.ReplaceFileGraph(File{Path: "a.py", Language: LangPython, ContentHash: "h", LastIndexed: time.Now()}, aBatch)
	require.NoError(t, err)

	edges, err := s.AllEdges()
	require.NoError(t, err)
	require.Len(t, edges, 1)

	require.NoError(t, s.DeleteFileGraph("b.py"))

	edges, err = s.AllEdges()
	require.NoError(t, err)
	require.Empty(t, edges)

	_, err = s.FileByPath("b.py")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRenameFileRoundTrip(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ReplaceFileGraph(File{Path: "a.py", Language: LangPython, ContentHash: "h", LastIndexed: time.Now()}, NewBatch("a.py"))
	require.NoError(t, err)

	require.NoError(t, s.RenameFile("a.py", "b.py"))
	_, err = s.FileByPath("a.py")
	require.ErrorIs(t, err, ErrNotFound)
	f, err := s.FileByPath("b.py")
	require.NoError(t, err)

	require.NoError(t, s.RenameFile("b.py", "a.py"))
	back, err := s.FileByPath("a.py")
	require.NoError(t, err)
	require.Equal(t, f.ContentHash, back.ContentHash)
}

func TestSearchFTSFallsBackToLike(t *testing.T) {
	s := newTestStore(t)
	batch := NewBatch("a.py")
	batch.AddSymbol(Symbol{Name: "authenticate", QualifiedName: "a.authenticate", Kind: KindFunction, StartLine: 1, EndLine: 1, Docstring: "verifies credentials"})
	_, err := s.ReplaceFileGraph(File{Path: "a.py", Language: LangPython, ContentHash: "h", LastIndexed: time.Now()}, batch)
	require.NoError(t, err)

	hits, err := s.SearchFTS("authenticate", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	likeHits, err := s.SearchLike("nonexistent-term-xyz", 10)
	require.NoError(t, err)
	require.Empty(t, likeHits)
}

// TestSearchFTSStemsAcrossWordForms confirms the Porter-stemmed symbol_fts
// content matches a query in a different inflection of the same word
// ("indexing" docstring found by a query for "indexed").
func TestSearchFTSStemsAcrossWordForms(t *testing.T) {
	s := newTestStore(t)
	batch := NewBatch("a.py")
	batch.AddSymbol(Symbol{Name: "run_pass", QualifiedName: "a.run_pass", Kind: KindFunction, StartLine: 1, EndLine: 1, Docstring: "runs the indexing pass over a repository"})
	_, err := s.ReplaceFileGraph(File{Path: "a.py", Language: LangPython, ContentHash: "h", LastIndexed: time.Now()}, batch)
	require.NoError(t, err)

	hits, err := s.SearchFTS("indexed", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestBackupRestorePreservesGraph(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "bombe.db")
	s, err := Open(srcPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())

	batch := NewBatch("a.py")
	batch.AddSymbol(Symbol{Name: "f", QualifiedName: "a.f", Kind: KindFunction, StartLine: 1, EndLine: 2})
	_, err = s.ReplaceFileGraph(File{Path: "a.py", Language: LangPython, ContentHash: "h", LastIndexed: time.Now()}, batch)
	require.NoError(t, err)

	backupPath := filepath.Join(dir, "backup.db")
	require.NoError(t, s.BackupTo(backupPath))
	// Refuses to overwrite an existing backup.
	require.Error(t, s.BackupTo(backupPath))
	require.NoError(t, s.Close())

	restoredPath := filepath.Join(dir, "restored.db")
	require.NoError(t, RestoreFrom(backupPath, restoredPath))

	restored, err := Open(restoredPath)
	require.NoError(t, err)
	defer restored.Close()
	sym, err := restored.SymbolByQualifiedName("a.f")
	require.NoError(t, err)
	require.Equal(t, "f", sym.Name)
}

func TestQuarantineArtifact(t *testing.T) {
	s := newTestStore(t)
	quarantined, err := s.IsQuarantined("artifact-1")
	require.NoError(t, err)
	require.False(t, quarantined)

	require.NoError(t, s.QuarantineArtifact("artifact-1", "signature mismatch"))
	quarantined, err = s.IsQuarantined("artifact-1")
	require.NoError(t, err)
	require.True(t, quarantined)

	require.NoError(t, s.RemoveQuarantine("artifact-1"))
	quarantined, err = s.IsQuarantined("artifact-1")
	require.NoError(t, err)
	require.False(t, quarantined)
}

func TestCircuitBreakerDefaultsClosed(t *testing.T) {
	s := newTestStore(t)
	state, failures, err := s.CircuitBreaker("origin-1")
	require.NoError(t, err)
	require.Equal(t, CircuitClosed, state)
	require.Zero(t, failures)

	require.NoError(t, s.SetCircuitBreaker("origin-1", CircuitOpen, 5))
	state, failures, err = s.CircuitBreaker("origin-1")
	require.NoError(t, err)
	require.Equal(t, CircuitOpen, state)
	require.Equal(t, 5, failures)
}
