package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestEnumerateHonorsIgnorePolicy(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def f(): pass")
	writeFile(t, root, "vendor/b.py", "def g(): pass")
	writeFile(t, root, "node_modules/c.ts", "export const x = 1")
	writeFile(t, root, "README.md", "not indexed")

	policy, err := NewIgnorePolicy(root, nil, nil, true)
	require.NoError(t, err)

	candidates, _, err := Enumerate(root, policy, 0)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "a.py", candidates[0].RelPath)
	require.Equal(t, store.LangPython, candidates[0].Language)
}

func TestEnumerateIsStablyOrdered(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "z.py", "pass")
	writeFile(t, root, "a.py", "pass")
	writeFile(t, root, "m.py", "pass")

	policy, err := NewIgnorePolicy(root, nil, nil, true)
	require.NoError(t, err)
	candidates, _, err := Enumerate(root, policy, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"a.py", "m.py", "z.py"}, []string{candidates[0].RelPath, candidates[1].RelPath, candidates[2].RelPath})
}

func TestEnumerateSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.py", "x = 1\n")

	policy, err := NewIgnorePolicy(root, nil, nil, true)
	require.NoError(t, err)
	_, skipped, err := Enumerate(root, policy, 1)
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	require.Equal(t, "exceeds max file size", skipped[0].Reason)
}

func TestSensitivePathExclusionDefaultOn(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "config.java", "class Config {}")
	writeFile(t, root, "credentials.java", "class Credentials {}")

	policy, err := NewIgnorePolicy(root, nil, nil, true)
	require.NoError(t, err)
	candidates, _, err := Enumerate(root, policy, 0)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "config.java", candidates[0].RelPath)
}

func TestContentHashIsStableSHA256(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1\n")
	h1, err := ContentHash(filepath.Join(root, "a.py"))
	require.NoError(t, err)
	require.Len(t, h1, 64)
	h2, err := ContentHash(filepath.Join(root, "a.py"))
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}
