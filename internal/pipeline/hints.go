package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pgtgrly/bombe-mcp/internal/extract"
)

// SemanticHints supplies receiver-type hints the extractor could not infer
// statically, keyed by repo-relative file path then line number. Each hint
// entry is the set of type names the receiver at that position may have;
// an external source (an LSP bridge, a type checker run) produces the
// file.
type SemanticHints map[string]map[int][]string

// LoadSemanticHints parses a hints file: a JSON object whose keys are
// "path:line" and whose values are arrays of type names.
func LoadSemanticHints(path string) (SemanticHints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading semantic hints %s: %w", path, err)
	}
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing semantic hints %s: %w", path, err)
	}
	hints := make(SemanticHints)
	for key, types := range raw {
		idx := strings.LastIndexByte(key, ':')
		if idx < 0 {
			continue
		}
		line, err := strconv.Atoi(key[idx+1:])
		if err != nil {
			continue
		}
		file := key[:idx]
		if hints[file] == nil {
			hints[file] = make(map[int][]string)
		}
		hints[file][line] = append(hints[file][line], types...)
	}
	return hints, nil
}

// apply fills in receiver hints on call sites that lack one, so the
// class-scoped resolution tier can use externally supplied type knowledge.
// A site that already carries a statically inferred hint keeps it.
func (h SemanticHints) apply(path string, sites []extract.CallSite) {
	if len(h) == 0 {
		return
	}
	byLine := h[path]
	if len(byLine) == 0 {
		return
	}
	for i, site := range sites {
		if site.ReceiverHint != "" {
			continue
		}
		if types := byLine[site.Line]; len(types) > 0 {
			sites[i].ReceiverHint = types[0]
		}
	}
}
