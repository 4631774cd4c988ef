package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is the optional multi-root configuration persisted at
// <repo>/.bombe/workspace.json. Each root is indexed into the same store;
// paths may be absolute or relative to the file's repo.
type Workspace struct {
	Roots []string `json:"roots"`
}

// LoadWorkspace reads the workspace file under repoRoot. A missing file
// is not an error: the workspace degrades to the single repo root.
func LoadWorkspace(repoRoot string) (Workspace, error) {
	path := filepath.Join(repoRoot, ".bombe", "workspace.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Workspace{Roots: []string{repoRoot}}, nil
	}
	if err != nil {
		return Workspace{}, fmt.Errorf("reading workspace %s: %w", path, err)
	}
	var w Workspace
	if err := json.Unmarshal(data, &w); err != nil {
		return Workspace{}, fmt.Errorf("parsing workspace %s: %w", path, err)
	}
	if len(w.Roots) == 0 {
		w.Roots = []string{repoRoot}
	}
	for i, root := range w.Roots {
		if !filepath.IsAbs(root) {
			w.Roots[i] = filepath.Join(repoRoot, root)
		}
	}
	return w, nil
}
