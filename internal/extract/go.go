package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

type goExtractor struct{}

const goFuncQuery = `
(function_declaration
	name: (identifier) @name
	parameters: (parameter_list) @params
	result: (_)? @ret
	body: (block) @body) @def

(method_declaration
	receiver: (parameter_list (parameter_declaration type: (_) @recv))
	name: (field_identifier) @name
	parameters: (parameter_list) @params
	result: (_)? @ret
	body: (block) @body) @def

(type_declaration
	(type_spec
		name: (type_identifier) @name
		type: (struct_type) @structbody)) @typedef

(type_declaration
	(type_spec
		name: (type_identifier) @name
		type: (interface_type) @ifacebody)) @typedef
`

const goImportQuery = `
(import_spec name: (package_identifier)? @alias path: (interpreted_string_literal) @path) @imp
`

const goCallQuery = `
(call_expression function: (identifier) @callee) @call
(call_expression function: (selector_expression
	operand: (identifier) @recv
	field: (field_identifier) @callee)) @call
`

func (goExtractor) Extract(source []byte) (Result, error) {
	lang := golang.GetLanguage()
	root, err := parseTree(source, lang)
	if err != nil {
		return Result{}, err
	}

	var res Result

	defs, err := runQuery(goFuncQuery, lang, root, source)
	if err != nil {
		return Result{}, err
	}
	for _, m := range defs {
		def := m.node("def")
		typedef := m.node("typedef")
		name := m.text("name", source)
		if name == "" {
			continue
		}
		switch {
		case def != nil:
			kind := store.KindFunction
			var parentName string
			if m.node("recv") != nil {
				kind = store.KindMethod
				parentName = strings.TrimPrefix(strings.TrimPrefix(m.text("recv", source), "*"), "")
			}
			sym := Symbol{
				Name:          name,
				QualifiedName: qualify(parentName, name),
				Kind:          kind,
				StartLine:     int(def.StartPoint().Row) + 1,
				EndLine:       int(def.EndPoint().Row) + 1,
				Signature:     firstLine(def.Content(source)),
				ReturnType:    m.text("ret", source),
				Visibility:    goVisibility(name),
				ParentName:    parentName,
				Parameters:    goParams(m.node("params"), source),
			}
			res.Symbols = append(res.Symbols, sym)
		case typedef != nil:
			kind := store.KindClass
			body := m.node("structbody")
			if m.node("ifacebody") != nil {
				kind = store.KindInterface
				body = m.node("ifacebody")
			}
			sym := Symbol{
				Name:          name,
				QualifiedName: name,
				Kind:          kind,
				StartLine:     int(typedef.StartPoint().Row) + 1,
				EndLine:       int(typedef.EndPoint().Row) + 1,
				Signature:     firstLine(typedef.Content(source)),
				Visibility:    goVisibility(name),
				Extends:       goEmbedded(body, source),
			}
			res.Symbols = append(res.Symbols, sym)
		}
	}

	imports, err := runQuery(goImportQuery, lang, root, source)
	if err != nil {
		return Result{}, err
	}
	for _, m := range imports {
		raw := m.text("path", source)
		target := strings.Trim(raw, `"`)
		res.Imports = append(res.Imports, Import{
			RawText: raw,
			Target:  target,
			Alias:   m.text("alias", source),
			Line:    m.line("path"),
		})
	}

	calls, err := runQuery(goCallQuery, lang, root, source)
	if err != nil {
		return Result{}, err
	}
	for _, m := range calls {
		callNode := m.node("call")
		caller := enclosingName(callNode, source, []string{"function_declaration", "method_declaration"}, "name")
		res.CallSites = append(res.CallSites, CallSite{
			CallerName:   caller,
			Callee:       m.text("callee", source),
			ReceiverHint: m.text("recv", source),
			Line:         int(callNode.StartPoint().Row) + 1,
		})
	}

	return res, nil
}

// goEmbedded collects embedded type names from a struct or interface body
// — Go's closest analogue to an extends clause. Qualified embeds
// (pkg.Base) keep only the final segment.
func goEmbedded(body *sitter.Node, source []byte) []string {
	if body == nil {
		return nil
	}
	var names []string
	add := func(text string) {
		if idx := strings.LastIndexByte(text, '.'); idx >= 0 {
			text = text[idx+1:]
		}
		if text != "" {
			names = append(names, text)
		}
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "field_declaration":
			// An embedded field has a type but no name.
			if n.ChildByFieldName("name") == nil {
				if t := n.ChildByFieldName("type"); t != nil {
					add(t.Content(source))
				}
			}
			return
		case "type_identifier", "qualified_type":
			add(n.Content(source))
			return
		case "method_spec", "method_elem":
			return // interface methods are not embeds
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(body)
	return names
}

func goVisibility(name string) store.Visibility {
	if name == "" {
		return store.VisPrivate
	}
	r := rune(name[0])
	if r >= 'A' && r <= 'Z' {
		return store.VisPublic
	}
	return store.VisPrivate
}

func qualify(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

func goParams(paramList *sitter.Node, source []byte) []Parameter {
	if paramList == nil {
		return nil
	}
	var params []Parameter
	pos := 0
	for i := 0; i < int(paramList.NamedChildCount()); i++ {
		decl := paramList.NamedChild(i)
		if decl.Type() != "parameter_declaration" {
			continue
		}
		typeNode := decl.ChildByFieldName("type")
		typ := ""
		if typeNode != nil {
			typ = typeNode.Content(source)
		}
		named := false
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			child := decl.NamedChild(j)
			if child.Type() == "identifier" {
				params = append(params, Parameter{Name: child.Content(source), Type: typ})
				pos++
				named = true
			}
		}
		if !named {
			params = append(params, Parameter{Name: "", Type: typ})
			pos++
		}
	}
	return params
}
