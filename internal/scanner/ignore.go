package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// builtinIgnores are always skipped regardless of any ignore file: VCS
// metadata and common vendor/build directories.
var builtinIgnores = []string{
	".git", ".hg", ".svn",
	"node_modules", "vendor", "__pycache__", ".venv", "dist", "build",
}

// sensitivePathPatterns are excluded by default unless sensitive exclusion
// is explicitly disabled.
var sensitivePathPatterns = []string{
	"*.pem", "*.key", "*.pfx", "*.p12",
	"*credentials*", "*.env", ".env.*",
}

// ignorePattern is one line from a .gitignore-style file, reduced to the
// small subset of gitignore semantics the scanner needs: exact/prefix
// matching, "**" directory wildcards via doublestar, and leading "!"
// negation.
type ignorePattern struct {
	raw     string
	negate  bool
	pattern string
}

// IgnorePolicy layers built-in ignores, .gitignore-style patterns loaded
// from disk, the project-local ignore file (.bombeignore), default
// sensitive-path patterns, and caller-supplied include/exclude globs.
type IgnorePolicy struct {
	patterns           []ignorePattern
	sensitiveExcluded  bool
	include, exclude   []string
}

// NewIgnorePolicy loads .gitignore and .bombeignore from root (either may
// be absent) and layers in caller-supplied include/exclude globs.
func NewIgnorePolicy(root string, include, exclude []string, sensitiveExclusionEnabled bool) (*IgnorePolicy, error) {
	p := &IgnorePolicy{
		sensitiveExcluded: sensitiveExclusionEnabled,
		include:           include,
		exclude:           exclude,
	}
	for _, name := range []string{".gitignore", ".bombeignore"} {
		if err := p.loadFile(filepath.Join(root, name)); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *IgnorePolicy) loadFile(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scan := bufio.NewScanner(f)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pat := ignorePattern{raw: line}
		if strings.HasPrefix(line, "!") {
			pat.negate = true
			line = line[1:]
		}
		pat.pattern = normalizeGitignoreGlob(line)
		p.patterns = append(p.patterns, pat)
	}
	return scan.Err()
}

// normalizeGitignoreGlob turns a bare gitignore entry into a doublestar
// pattern: a pattern with no slash matches at any depth.
func normalizeGitignoreGlob(pattern string) string {
	pattern = strings.TrimSuffix(pattern, "/")
	if !strings.Contains(pattern, "/") {
		return "**/" + pattern
	}
	return strings.TrimPrefix(pattern, "/")
}

// Excluded reports whether relPath (slash-separated, relative to the scan
// root) should be skipped.
func (p *IgnorePolicy) Excluded(relPath string) bool {
	for _, dir := range builtinIgnores {
		if pathHasComponent(relPath, dir) {
			return true
		}
	}

	excluded := false
	for _, pat := range p.patterns {
		if matched, _ := doublestar.Match(pat.pattern, relPath); matched {
			excluded = !pat.negate
		}
	}
	if excluded {
		return true
	}

	if p.sensitiveExcluded {
		for _, pat := range sensitivePathPatterns {
			if matched, _ := doublestar.Match("**/"+pat, relPath); matched {
				return true
			}
		}
	}

	if len(p.exclude) > 0 {
		for _, pat := range p.exclude {
			if matched, _ := doublestar.Match(pat, relPath); matched {
				return true
			}
		}
	}
	if len(p.include) > 0 {
		included := false
		for _, pat := range p.include {
			if matched, _ := doublestar.Match(pat, relPath); matched {
				included = true
				break
			}
		}
		if !included {
			return true
		}
	}
	return false
}

func pathHasComponent(path, component string) bool {
	for _, part := range strings.Split(path, "/") {
		if part == component {
			return true
		}
	}
	return false
}
