package query

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pgtgrly/bombe-mcp/internal/redact"
	"github.com/pgtgrly/bombe-mcp/internal/store"
	"github.com/pgtgrly/bombe-mcp/internal/tokenest"
)

// Engines holds everything the seven query engines share: the store (read
// borrow only — no engine ever mutates it), the repo root for reading
// source fragments off disk, the response-cache planner, and the token
// estimator get_context/get_structure pack against.
type Engines struct {
	Store     *store.Store
	RepoRoot  string
	Cache     *ResponseCache
	Tokens    *tokenest.Estimator
	Redactor  *redact.Redactor
}

// New builds an Engines set over an already-open, already-migrated store.
func New(s *store.Store, repoRoot string, tokenizer tokenest.Tokenizer) *Engines {
	return &Engines{
		Store:    s,
		RepoRoot: repoRoot,
		Cache:    NewResponseCache(0, 0),
		Tokens:   tokenest.NewEstimator(tokenizer),
		Redactor: redact.New(),
	}
}

// Deadline computes a wall-clock deadline budgetMS milliseconds from now,
// or the zero Time (no deadline) when budgetMS <= 0.
func Deadline(budgetMS int64) time.Time {
	if budgetMS <= 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(budgetMS) * time.Millisecond)
}

// ResolveTarget implements the resolution rule shared by get_references,
// get_blast_radius, trace_data_flow, and change_impact: "resolve the
// target symbol (exact qualified match wins; otherwise highest-PageRank
// symbol whose short name matches)". Returns store.ErrNotFound, mapped by
// every caller into an empty well-formed response rather than an error.
func ResolveTarget(s *store.Store, nameOrQualified string) (store.Symbol, error) {
	if sym, err := s.SymbolByQualifiedName(nameOrQualified); err == nil {
		return sym, nil
	}
	candidates, err := s.SymbolsByName(nameOrQualified)
	if err != nil {
		return store.Symbol{}, err
	}
	if len(candidates) == 0 {
		return store.Symbol{}, store.ErrNotFound
	}
	// SymbolsByName already orders by descending PageRank then ascending
	// id, so the first entry is the resolution winner.
	return candidates[0], nil
}

// ReadSource reads a symbol's source span from disk, relative to RepoRoot,
// returning "" if the file is missing or the range is out of bounds —
// source inclusion is best-effort, never a hard failure for a query
// engine.
func (e *Engines) ReadSource(filePath string, startLine, endLine int) string {
	if e.RepoRoot == "" {
		return ""
	}
	f, err := os.Open(filepath.Join(e.RepoRoot, filePath))
	if err != nil {
		return ""
	}
	defer f.Close()

	var lines []string
	scan := bufio.NewScanner(f)
	scan.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 1
	for scan.Scan() {
		if line >= startLine && line <= endLine {
			lines = append(lines, scan.Text())
		}
		if line > endLine {
			break
		}
		line++
	}
	return strings.Join(lines, "\n")
}

// FileIDs bulk-resolves a set of file ids to paths, used by engines that
// need to group results by file.
func FileIDs(s *store.Store, ids map[int64]bool) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	for id := range ids {
		f, err := s.FileByID(id)
		if err != nil {
			continue
		}
		out[id] = f.Path
	}
	return out, nil
}
