// Package scanner enumerates candidate files under a root, applies the
// layered ignore policy, detects language, and hashes file content.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// languageByExtension is the closed extension -> language map language
// detection matches against.
var languageByExtension = map[string]store.Language{
	".py":  store.LangPython,
	".ts":  store.LangTypeScript,
	".tsx": store.LangTypeScript,
	".java": store.LangJava,
	".go":  store.LangGo,
}

// MaxFileBytes is the default per-file size ceiling; files larger than this
// are skipped with a diagnostic rather than parsed.
const MaxFileBytes = 4 << 20 // 4 MiB

// Candidate is one file the scanner decided to index.
type Candidate struct {
	AbsPath  string
	RelPath  string
	Language store.Language
}

// Skipped is a file the scanner chose not to index, with the reason.
type Skipped struct {
	RelPath string
	Reason  string
}

// Enumerate walks root and returns candidates in stable, deterministic
// (lexicographic path) order, honoring policy and the max-file-bytes
// ceiling. It never reads file content beyond a Stat call.
func Enumerate(root string, policy *IgnorePolicy, maxFileBytes int64) ([]Candidate, []Skipped, error) {
	if maxFileBytes <= 0 {
		maxFileBytes = MaxFileBytes
	}
	var candidates []Candidate
	var skipped []Skipped

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if policy.Excluded(rel) {
			return nil
		}
		lang, ok := languageByExtension[filepath.Ext(path)]
		if !ok {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			skipped = append(skipped, Skipped{RelPath: rel, Reason: "stat failed: " + statErr.Error()})
			return nil
		}
		if info.Size() > maxFileBytes {
			skipped = append(skipped, Skipped{RelPath: rel, Reason: "exceeds max file size"})
			return nil
		}
		candidates = append(candidates, Candidate{AbsPath: path, RelPath: rel, Language: lang})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].RelPath < candidates[j].RelPath })
	return candidates, skipped, nil
}

// DetectLanguage maps a path's extension to a language tag, returning ""
// for extensions outside the closed set.
func DetectLanguage(path string) store.Language {
	return languageByExtension[filepath.Ext(path)]
}

// ContentHash reads path and returns its hex SHA-256, or an IO error.
func ContentHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return store.ContentHash(data), nil
}

// ReadFile reads a candidate's content, used by the pipeline immediately
// before handing bytes to the extractor.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
