package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndRepoRootRequired(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadFromTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bombe.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
repo_root = "/repo"
workers = 4
sensitive_exclusion_enabled = false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/repo", cfg.RepoRoot)
	require.Equal(t, 4, cfg.Workers)
	require.False(t, cfg.SensitiveExclusionEnabled)
	require.Equal(t, filepath.Join("/repo", ".bombe", "bombe.db"), cfg.DBPath)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bombe.toml")
	require.NoError(t, os.WriteFile(path, []byte(`repo_root = "/file-repo"`), 0o644))

	t.Setenv("BOMBE_REPO_ROOT", "/env-repo")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/env-repo", cfg.RepoRoot)
}

func TestOptionOverridesEnvAndFile(t *testing.T) {
	t.Setenv("BOMBE_REPO_ROOT", "/env-repo")
	cfg, err := Load("", WithRepoRoot("/opt-repo"))
	require.NoError(t, err)
	require.Equal(t, "/opt-repo", cfg.RepoRoot)
}

func TestLoadWorkspaceMissingFileDefaultsToRepoRoot(t *testing.T) {
	dir := t.TempDir()
	w, err := LoadWorkspace(dir)
	require.NoError(t, err)
	require.Equal(t, []string{dir}, w.Roots)
}

func TestLoadWorkspaceResolvesRelativeRoots(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".bombe"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".bombe", "workspace.json"),
		[]byte(`{"roots": ["services/api", "/abs/lib"]}`), 0o644))

	w, err := LoadWorkspace(dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "services/api"), "/abs/lib"}, w.Roots)
}

func TestStrictProfileRejectsUnsupportedLanguage(t *testing.T) {
	cfg := Default()
	cfg.RepoRoot = "/repo"
	cfg.RuntimeProfile = ProfileStrict
	cfg.RequiredLanguages = []string{"rust"}
	require.Error(t, cfg.Validate())
}

func TestStrictProfileAcceptsWiredLanguages(t *testing.T) {
	cfg := Default()
	cfg.RepoRoot = "/repo"
	cfg.RuntimeProfile = ProfileStrict
	cfg.RequiredLanguages = []string{"go", "python"}
	require.NoError(t, cfg.Validate())
}
