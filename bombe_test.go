package bombe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeSourceFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newTestEngine(t *testing.T, root string) *Engine {
	t.Helper()
	cfg, err := LoadConfig("", WithRepoRoot(root), WithDBPath(filepath.Join(t.TempDir(), "bombe.db")))
	require.NoError(t, err)
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestEngineFullIndexThenSearchAndContext(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	root := t.TempDir()
	writeSourceFile(t, root, "b.py", "def helper():\n    return 1\n")
	writeSourceFile(t, root, "a.py", "from b import helper\n\ndef main():\n    return helper()\n")

	e := newTestEngine(t, root)
	runID, err := e.FullIndex(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	search, err := e.SearchSymbols(SearchRequest{Query: "helper", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, search.Results.Items)

	ctxResp, err := e.GetContext(ContextRequest{EntryPoints: []string{"main"}, TokenBudget: 4000, ExpansionDepth: 2})
	require.NoError(t, err)
	require.NotEmpty(t, ctxResp.Files)
}

func TestEngineReferencesCalleesAcrossFiles(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	root := t.TempDir()
	writeSourceFile(t, root, "b.py", "def g():\n    return 1\n")
	writeSourceFile(t, root, "a.py", "from b import g\n\ndef f():\n    return g()\n")

	e := newTestEngine(t, root)
	_, err := e.FullIndex(context.Background())
	require.NoError(t, err)

	resp, err := e.GetReferences(ReferenceRequest{NameOrQualified: "f", Direction: "callees", Depth: 1})
	require.NoError(t, err)
	require.Len(t, resp.Callees, 1)
	require.Equal(t, "g", resp.Callees[0].Symbol.Name)
	require.Equal(t, "b.py", resp.Callees[0].FilePath)
}

func TestEngineChangeImpactIncludesSubclasses(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	root := t.TempDir()
	writeSourceFile(t, root, "animals.py",
		"class Animal:\n    pass\n\nclass Dog(Animal):\n    pass\n\nclass Cat(Animal):\n    pass\n")

	e := newTestEngine(t, root)
	_, err := e.FullIndex(context.Background())
	require.NoError(t, err)

	resp, err := e.ChangeImpact(ChangeImpactRequest{NameOrQualified: "Animal", ChangeKind: ChangeSignature, MaxDepth: 3})
	require.NoError(t, err)

	names := map[string]int{}
	for _, d := range append(append([]BlastDependent{}, resp.Direct...), resp.TypeDependents...) {
		names[d.Symbol.Name] = d.Depth
	}
	require.Contains(t, names, "Dog")
	require.Contains(t, names, "Cat")
	require.Equal(t, 1, names["Dog"])
	require.Equal(t, 1, names["Cat"])
}

func TestEngineBlastRadiusDepthWindowOnCallChain(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	root := t.TempDir()

	var sb strings.Builder
	for i := 0; i < 100; i++ {
		if i < 99 {
			fmt.Fprintf(&sb, "def f%d():\n    return f%d()\n\n", i, i+1)
		} else {
			fmt.Fprintf(&sb, "def f%d():\n    return 0\n", i)
		}
	}
	writeSourceFile(t, root, "chain.py", sb.String())

	e := newTestEngine(t, root)
	_, err := e.FullIndex(context.Background())
	require.NoError(t, err)

	resp, err := e.GetBlastRadius(BlastRequest{NameOrQualified: "f50", MaxDepth: 3})
	require.NoError(t, err)

	got := map[string]bool{}
	for _, d := range append(append([]BlastDependent{}, resp.Direct...), resp.Transitive...) {
		got[d.Symbol.Name] = true
	}
	require.Equal(t, map[string]bool{"f47": true, "f48": true, "f49": true}, got)
}

func TestEngineContextBundlesAuthenticateFlow(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	root := t.TempDir()
	writeSourceFile(t, root, "auth.py",
		"def verify_password(hash, pw):\n    \"\"\"Check a password hash.\"\"\"\n    return hash == pw\n\n"+
			"def authenticate(user, pw):\n    \"\"\"Authenticate a user.\"\"\"\n    return verify_password(user, pw)\n\n"+
			"def login(user, pw):\n    \"\"\"Login flow entry point.\"\"\"\n    return authenticate(user, pw)\n")

	e := newTestEngine(t, root)
	_, err := e.FullIndex(context.Background())
	require.NoError(t, err)

	resp, err := e.GetContext(ContextRequest{Query: "authenticate flow", EntryPoints: []string{"login"}, TokenBudget: 4000, ExpansionDepth: 3})
	require.NoError(t, err)
	require.LessOrEqual(t, resp.TokensUsed, resp.TokenBudget)

	byID := map[int64]string{}
	for _, g := range resp.Files {
		for _, inc := range g.Symbols {
			byID[inc.Symbol.ID] = inc.Symbol.Name
		}
	}
	calls := map[string]bool{}
	for _, edge := range resp.Relationships {
		calls[byID[edge.SourceID]+"->"+byID[edge.TargetID]] = true
	}
	require.True(t, calls["login->authenticate"])
	require.True(t, calls["authenticate->verify_password"])
}

func TestEngineContextRedactsCredentialLiterals(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	root := t.TempDir()
	writeSourceFile(t, root, "keys.py",
		"def rotate():\n    \"\"\"Rotates AKIA0000000000000000 out of service.\"\"\"\n    return None\n")

	e := newTestEngine(t, root)
	_, err := e.FullIndex(context.Background())
	require.NoError(t, err)

	// The symbol is indexed and findable.
	search, err := e.SearchSymbols(SearchRequest{Query: "rotate", Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, search.Results.Items)

	resp, err := e.GetContext(ContextRequest{EntryPoints: []string{"rotate"}, TokenBudget: 4000})
	require.NoError(t, err)
	require.Positive(t, resp.RedactedSpans)
	for _, g := range resp.Files {
		for _, inc := range g.Symbols {
			require.NotContains(t, inc.Source, "AKIA0000000000000000")
		}
	}
}

func TestEngineBuildAndApplyArtifactRoundTrips(t *testing.T) {
	root := t.TempDir()
	writeSourceFile(t, root, "a.py", "def f():\n    return 1\n")

	e := newTestEngine(t, root)
	_, err := e.FullIndex(context.Background())
	require.NoError(t, err)

	a, err := e.BuildArtifact("snap-1")
	require.NoError(t, err)
	require.NotEmpty(t, a.Symbols)

	require.NoError(t, e.ApplyArtifact(a))
}

func TestEngineRejectsMissingRepoRoot(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestEngineCircuitBreakerRoundTrip(t *testing.T) {
	root := t.TempDir()
	e := newTestEngine(t, root)

	ok, err := e.ShouldAttemptRemote("origin")
	require.NoError(t, err)
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		require.NoError(t, e.RecordRemoteFailure("origin"))
	}
	ok, err = e.ShouldAttemptRemote("origin")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, e.RecordRemoteSuccess("origin"))
	ok, err = e.ShouldAttemptRemote("origin")
	require.NoError(t, err)
	require.True(t, ok)
}
