package extract

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// parseTree parses source with the given tree-sitter language, returning
// the root node. Parsing never blocks on IO; ParseCtx's context is only a
// cancellation hook, satisfied here with context.Background since a single
// file's parse is expected to complete promptly.
func parseTree(source []byte, lang *sitter.Language) (*sitter.Node, error) {
	tree, err := sitter.ParseCtx(context.Background(), source, lang)
	if err != nil {
		return nil, fmt.Errorf("parsing source: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parser returned no tree")
	}
	return tree, nil
}

// capture is one named capture from a single query match.
type capture struct {
	Name string
	Node *sitter.Node
}

// match is the set of captures belonging to one query match, indexed by
// capture name for convenience; a capture name used more than once in a
// single pattern keeps only the first occurrence seen.
type match struct {
	captures map[string]*sitter.Node
}

func (m match) node(name string) *sitter.Node {
	return m.captures[name]
}

func (m match) text(name string, source []byte) string {
	n := m.captures[name]
	if n == nil {
		return ""
	}
	return n.Content(source)
}

func (m match) line(name string) int {
	n := m.captures[name]
	if n == nil {
		return 0
	}
	return int(n.StartPoint().Row) + 1
}

// runQuery compiles pattern against lang and returns every match found in
// root, each reduced to a name -> node map.
func runQuery(pattern string, lang *sitter.Language, root *sitter.Node, source []byte) ([]match, error) {
	q, err := sitter.NewQuery([]byte(pattern), lang)
	if err != nil {
		return nil, fmt.Errorf("compiling query: %w", err)
	}
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	var matches []match
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		captures := make(map[string]*sitter.Node, len(m.Captures))
		for _, c := range m.Captures {
			name := q.CaptureNameForId(c.Index)
			if _, exists := captures[name]; !exists {
				captures[name] = c.Node
			}
		}
		matches = append(matches, match{captures: captures})
	}
	return matches, nil
}

// enclosingName walks up from node to find the nearest ancestor that
// matches one of the given tree-sitter node types and returns the text of
// its child captured by nameField, or "" if none is found.
func enclosingName(node *sitter.Node, source []byte, nodeTypes []string, nameField string) string {
	for p := node.Parent(); p != nil; p = p.Parent() {
		for _, t := range nodeTypes {
			if p.Type() == t {
				if n := p.ChildByFieldName(nameField); n != nil {
					return n.Content(source)
				}
			}
		}
	}
	return ""
}
