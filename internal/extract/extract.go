// Package extract turns source bytes into symbol, import, and call-site
// records using tree-sitter. Every exported Extract function is pure: it
// takes bytes and a language tag and returns records plus diagnostics, with
// no IO and no store access, so the indexing pipeline can run it across a
// worker pool without synchronization.
package extract

import (
	"strings"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// Symbol is a definition found in a file. StartLine and EndLine are
// 1-based: each extractor adds one to tree-sitter's 0-based row.
type Symbol struct {
	Name           string
	QualifiedName  string
	Kind           store.SymbolKind
	StartLine      int
	EndLine        int
	Signature      string
	ReturnType     string
	Visibility     store.Visibility
	Async          bool
	Static         bool
	Docstring      string
	Parameters     []Parameter
	ParentName     string   // short name of the enclosing class/interface, if any
	Extends        []string // base classes this symbol extends, as written in source
	Implements     []string // interfaces this symbol declares it implements
}

// Parameter is a single formal parameter in ordinal order.
type Parameter struct {
	Name       string
	Type       string
	HasDefault bool
	Default    string
}

// Import is a raw import/require statement as written in source.
type Import struct {
	RawText string
	Target  string   // module/package the import names
	Alias   string   // explicit local binding ("import x as y", Go "import y \"x\""), if the source declares one
	Names   []string // specific symbols the statement imports ("from x import a, b", TS named imports), if any
	Line    int
}

// CallSite is a textual invocation found inside a function body.
type CallSite struct {
	CallerName   string // qualified name of the enclosing symbol, if any
	Callee       string // textual callee, possibly dotted (obj.method)
	ReceiverHint string // statically inferable receiver type, if any
	ImportAlias  string // import target this call site's receiver resolves to, when ReceiverHint names a file-local import alias rather than a class instance
	Line         int
}

// Severity mirrors store.DiagnosticSeverity without importing the store's
// operational concerns into a pure package.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a file-local, non-fatal extraction problem.
type Diagnostic struct {
	Stage       string
	Severity    Severity
	Message     string
	Remediation string
}

// Result is everything a single file's extraction produces.
type Result struct {
	Symbols     []Symbol
	Imports     []Import
	CallSites   []CallSite
	Diagnostics []Diagnostic
}

// Extractor is implemented once per supported language.
type Extractor interface {
	Extract(source []byte) (Result, error)
}

// Extract dispatches to the language-specific extractor. An unsupported
// language or a parse failure is file-local and non-fatal: it returns an
// empty symbol set plus a diagnostic, never an error the pipeline must
// abort on.
func Extract(source []byte, lang store.Language) Result {
	ext, ok := byLanguage[lang]
	if !ok {
		return Result{Diagnostics: []Diagnostic{{
			Stage:    "parse",
			Severity: SeverityError,
			Message:  "unsupported language: " + string(lang),
		}}}
	}
	result, err := ext.Extract(source)
	if err != nil {
		return Result{Diagnostics: []Diagnostic{{
			Stage:       "parse",
			Severity:    SeverityError,
			Message:     err.Error(),
			Remediation: "check the file for syntax errors",
		}}}
	}
	linkImportAliases(&result)
	return result
}

// linkImportAliases cross-references each call site's receiver hint against
// the file's own imports so the pipeline's cascading edge resolver can tell
// an alias/import-scoped call (pkg.Helper()) apart from a class-scoped one
// (obj.Helper()) in its own tier of the cascading resolution order.
// An import's local binding is its explicit alias if the source declared
// one, otherwise the last path/dotted segment of its target.
func linkImportAliases(res *Result) {
	if len(res.Imports) == 0 || len(res.CallSites) == 0 {
		return
	}
	aliasToTarget := make(map[string]string, len(res.Imports))
	for _, imp := range res.Imports {
		alias := imp.Alias
		if alias == "" {
			alias = deriveAlias(imp.Target)
		}
		if alias != "" {
			aliasToTarget[alias] = imp.Target
		}
	}
	for i, site := range res.CallSites {
		if site.ReceiverHint == "" {
			continue
		}
		if target, ok := aliasToTarget[site.ReceiverHint]; ok {
			res.CallSites[i].ImportAlias = target
		}
	}
}

// deriveAlias guesses the local identifier a source file uses for an
// import when nothing declared an explicit alias: the last path segment,
// then the last dotted segment, of the raw target.
func deriveAlias(target string) string {
	target = strings.Trim(target, `"'`)
	if i := strings.LastIndexByte(target, '/'); i >= 0 {
		target = target[i+1:]
	}
	if i := strings.LastIndexByte(target, '.'); i >= 0 {
		target = target[i+1:]
	}
	return target
}

var byLanguage = map[store.Language]Extractor{
	store.LangGo:         goExtractor{},
	store.LangPython:     pythonExtractor{},
	store.LangTypeScript: typescriptExtractor{},
	store.LangJava:       javaExtractor{},
}
