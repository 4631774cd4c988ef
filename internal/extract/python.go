package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

type pythonExtractor struct{}

const pyDefQuery = `
(function_definition
	name: (identifier) @name
	parameters: (parameters) @params
	body: (block) @body) @def

(class_definition
	name: (identifier) @name
	body: (block) @body) @classdef
`

const pyImportQuery = `
(import_statement name: (dotted_name) @target) @imp
(import_statement name: (aliased_import name: (dotted_name) @target alias: (identifier) @alias)) @imp
(import_from_statement module_name: (dotted_name) @target) @imp
`

const pyCallQuery = `
(call function: (identifier) @callee) @call
(call function: (attribute object: (identifier) @recv attribute: (identifier) @callee)) @call
`

func (pythonExtractor) Extract(source []byte) (Result, error) {
	lang := python.GetLanguage()
	root, err := parseTree(source, lang)
	if err != nil {
		return Result{}, err
	}

	var res Result

	defs, err := runQuery(pyDefQuery, lang, root, source)
	if err != nil {
		return Result{}, err
	}
	for _, m := range defs {
		name := m.text("name", source)
		if name == "" {
			continue
		}
		if def := m.node("def"); def != nil {
			parent := enclosingName(def, source, []string{"class_definition"}, "name")
			kind := store.KindFunction
			if parent != "" {
				kind = store.KindMethod
			}
			res.Symbols = append(res.Symbols, Symbol{
				Name:          name,
				QualifiedName: qualify(parent, name),
				Kind:          kind,
				StartLine:     int(def.StartPoint().Row) + 1,
				EndLine:       int(def.EndPoint().Row) + 1,
				Signature:     firstLine(def.Content(source)),
				Visibility:    pyVisibility(name),
				Async:         strings.HasPrefix(strings.TrimSpace(def.Content(source)), "async"),
				ParentName:    parent,
				Docstring:     pyDocstring(m.node("body"), source),
				Parameters:    pyParams(m.node("params"), source),
			})
		} else if classdef := m.node("classdef"); classdef != nil {
			res.Symbols = append(res.Symbols, Symbol{
				Name:          name,
				QualifiedName: name,
				Kind:          store.KindClass,
				StartLine:     int(classdef.StartPoint().Row) + 1,
				EndLine:       int(classdef.EndPoint().Row) + 1,
				Signature:     firstLine(classdef.Content(source)),
				Visibility:    pyVisibility(name),
				Docstring:     pyDocstring(m.node("body"), source),
				Extends:       pySuperclasses(classdef, source),
			})
		}
	}

	imports, err := runQuery(pyImportQuery, lang, root, source)
	if err != nil {
		return Result{}, err
	}
	for _, m := range imports {
		target := m.text("target", source)
		imp := m.node("imp")
		res.Imports = append(res.Imports, Import{
			RawText: imp.Content(source),
			Target:  target,
			Alias:   m.text("alias", source),
			Names:   pyImportedNames(imp, source),
			Line:    m.line("target"),
		})
	}

	calls, err := runQuery(pyCallQuery, lang, root, source)
	if err != nil {
		return Result{}, err
	}
	for _, m := range calls {
		callNode := m.node("call")
		caller := enclosingName(callNode, source, []string{"function_definition"}, "name")
		res.CallSites = append(res.CallSites, CallSite{
			CallerName:   caller,
			Callee:       m.text("callee", source),
			ReceiverHint: m.text("recv", source),
			Line:         int(callNode.StartPoint().Row) + 1,
		})
	}

	return res, nil
}

// pySuperclasses reads a class_definition's superclasses argument list.
// Dotted bases (module.Base) keep only the final segment, matching how the
// resolver looks bases up by short name.
func pySuperclasses(classdef *sitter.Node, source []byte) []string {
	args := classdef.ChildByFieldName("superclasses")
	if args == nil {
		return nil
	}
	var supers []string
	for i := 0; i < int(args.NamedChildCount()); i++ {
		c := args.NamedChild(i)
		switch c.Type() {
		case "identifier":
			supers = append(supers, c.Content(source))
		case "attribute":
			if attr := c.ChildByFieldName("attribute"); attr != nil {
				supers = append(supers, attr.Content(source))
			}
		}
	}
	return supers
}

// pyImportedNames collects the names a from-import statement binds. The
// module itself (field module_name) is excluded; plain "import x" binds a
// module, not symbols, and yields nothing here.
func pyImportedNames(imp *sitter.Node, source []byte) []string {
	if imp == nil || imp.Type() != "import_from_statement" {
		return nil
	}
	module := imp.ChildByFieldName("module_name")
	var names []string
	for i := 0; i < int(imp.NamedChildCount()); i++ {
		c := imp.NamedChild(i)
		if module != nil && c.StartByte() == module.StartByte() && c.EndByte() == module.EndByte() {
			continue
		}
		switch c.Type() {
		case "dotted_name", "identifier":
			names = append(names, c.Content(source))
		case "aliased_import":
			if n := c.ChildByFieldName("name"); n != nil {
				names = append(names, n.Content(source))
			}
		}
	}
	return names
}

func pyVisibility(name string) store.Visibility {
	if strings.HasPrefix(name, "__") && !strings.HasSuffix(name, "__") {
		return store.VisPrivate
	}
	if strings.HasPrefix(name, "_") {
		return store.VisProtected
	}
	return store.VisPublic
}

func pyDocstring(body *sitter.Node, source []byte) string {
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return strings.Trim(str.Content(source), "\"' \n\t")
}

func pyParams(paramList *sitter.Node, source []byte) []Parameter {
	if paramList == nil {
		return nil
	}
	var params []Parameter
	for i := 0; i < int(paramList.NamedChildCount()); i++ {
		p := paramList.NamedChild(i)
		switch p.Type() {
		case "identifier":
			params = append(params, Parameter{Name: p.Content(source)})
		case "typed_parameter":
			name := ""
			if c := p.NamedChild(0); c != nil {
				name = c.Content(source)
			}
			typ := ""
			if t := p.ChildByFieldName("type"); t != nil {
				typ = t.Content(source)
			}
			params = append(params, Parameter{Name: name, Type: typ})
		case "default_parameter":
			name := ""
			if n := p.ChildByFieldName("name"); n != nil {
				name = n.Content(source)
			}
			def := ""
			if v := p.ChildByFieldName("value"); v != nil {
				def = v.Content(source)
			}
			params = append(params, Parameter{Name: name, HasDefault: true, Default: def})
		}
	}
	return params
}
