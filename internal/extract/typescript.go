package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

type typescriptExtractor struct{}

const tsDefQuery = `
(function_declaration name: (identifier) @name parameters: (formal_parameters) @params) @def
(class_declaration name: (type_identifier) @name body: (class_body) @body) @classdef
(interface_declaration name: (type_identifier) @name) @ifacedef
(method_definition name: (property_identifier) @name parameters: (formal_parameters) @params) @methoddef
`

const tsImportQuery = `
(import_statement source: (string) @target) @imp
`

const tsCallQuery = `
(call_expression function: (identifier) @callee) @call
(call_expression function: (member_expression object: (identifier) @recv property: (property_identifier) @callee)) @call
`

func (typescriptExtractor) Extract(source []byte) (Result, error) {
	lang := typescript.GetLanguage()
	root, err := parseTree(source, lang)
	if err != nil {
		return Result{}, err
	}

	var res Result
	defs, err := runQuery(tsDefQuery, lang, root, source)
	if err != nil {
		return Result{}, err
	}
	for _, m := range defs {
		name := m.text("name", source)
		if name == "" {
			continue
		}
		switch {
		case m.node("def") != nil:
			def := m.node("def")
			res.Symbols = append(res.Symbols, Symbol{
				Name: name, QualifiedName: name, Kind: store.KindFunction,
				StartLine: int(def.StartPoint().Row) + 1, EndLine: int(def.EndPoint().Row) + 1,
				Signature: firstLine(def.Content(source)), Visibility: store.VisPublic,
				Async:      strings.HasPrefix(strings.TrimSpace(def.Content(source)), "async"),
				Parameters: tsParams(m.node("params"), source),
			})
		case m.node("classdef") != nil:
			def := m.node("classdef")
			extends, implements := tsHeritage(def, source)
			res.Symbols = append(res.Symbols, Symbol{
				Name: name, QualifiedName: name, Kind: store.KindClass,
				StartLine: int(def.StartPoint().Row) + 1, EndLine: int(def.EndPoint().Row) + 1,
				Signature: firstLine(def.Content(source)), Visibility: store.VisPublic,
				Extends: extends, Implements: implements,
			})
		case m.node("ifacedef") != nil:
			def := m.node("ifacedef")
			res.Symbols = append(res.Symbols, Symbol{
				Name: name, QualifiedName: name, Kind: store.KindInterface,
				StartLine: int(def.StartPoint().Row) + 1, EndLine: int(def.EndPoint().Row) + 1,
				Signature: firstLine(def.Content(source)), Visibility: store.VisPublic,
			})
		case m.node("methoddef") != nil:
			def := m.node("methoddef")
			parent := enclosingName(def, source, []string{"class_declaration"}, "name")
			res.Symbols = append(res.Symbols, Symbol{
				Name: name, QualifiedName: qualify(parent, name), Kind: store.KindMethod,
				StartLine: int(def.StartPoint().Row) + 1, EndLine: int(def.EndPoint().Row) + 1,
				Signature: firstLine(def.Content(source)), Visibility: tsVisibility(name),
				ParentName: parent, Parameters: tsParams(m.node("params"), source),
			})
		}
	}

	imports, err := runQuery(tsImportQuery, lang, root, source)
	if err != nil {
		return Result{}, err
	}
	for _, m := range imports {
		raw := m.text("target", source)
		res.Imports = append(res.Imports, Import{
			RawText: raw,
			Target:  strings.Trim(raw, `"'`),
			Names:   tsImportedNames(m.node("imp"), source),
			Line:    m.line("target"),
		})
	}

	calls, err := runQuery(tsCallQuery, lang, root, source)
	if err != nil {
		return Result{}, err
	}
	for _, m := range calls {
		callNode := m.node("call")
		caller := enclosingName(callNode, source, []string{"function_declaration", "method_definition"}, "name")
		res.CallSites = append(res.CallSites, CallSite{
			CallerName: caller, Callee: m.text("callee", source),
			ReceiverHint: m.text("recv", source), Line: int(callNode.StartPoint().Row) + 1,
		})
	}

	return res, nil
}

// tsHeritage reads a class_declaration's extends/implements clauses.
// interface_declaration extends compose through the same EXTENDS channel
// at resolution time, so only classes are inspected here.
func tsHeritage(def *sitter.Node, source []byte) (extends, implements []string) {
	for i := 0; i < int(def.NamedChildCount()); i++ {
		c := def.NamedChild(i)
		if c.Type() != "class_heritage" {
			continue
		}
		for j := 0; j < int(c.NamedChildCount()); j++ {
			clause := c.NamedChild(j)
			names := tsTypeNames(clause, source)
			switch clause.Type() {
			case "extends_clause":
				extends = append(extends, names...)
			case "implements_clause":
				implements = append(implements, names...)
			}
		}
	}
	return extends, implements
}

func tsTypeNames(clause *sitter.Node, source []byte) []string {
	var names []string
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		c := clause.NamedChild(i)
		switch c.Type() {
		case "identifier", "type_identifier":
			names = append(names, c.Content(source))
		case "member_expression", "nested_type_identifier":
			// Qualified base (ns.Base): keep the final segment, the short
			// name the resolver matches on.
			text := c.Content(source)
			if idx := strings.LastIndexByte(text, '.'); idx >= 0 {
				text = text[idx+1:]
			}
			names = append(names, text)
		}
	}
	return names
}

// tsImportedNames collects named-import bindings (import {a, b} from "x").
// Default and namespace imports bind a module object, not symbols, and are
// left to the alias channel.
func tsImportedNames(imp *sitter.Node, source []byte) []string {
	if imp == nil {
		return nil
	}
	var names []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "import_specifier" {
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				names = append(names, nameNode.Content(source))
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(imp)
	return names
}

func tsVisibility(name string) store.Visibility {
	if strings.HasPrefix(name, "#") || strings.HasPrefix(name, "_") {
		return store.VisPrivate
	}
	return store.VisPublic
}

func tsParams(paramList *sitter.Node, source []byte) []Parameter {
	if paramList == nil {
		return nil
	}
	var params []Parameter
	for i := 0; i < int(paramList.NamedChildCount()); i++ {
		p := paramList.NamedChild(i)
		switch p.Type() {
		case "identifier":
			params = append(params, Parameter{Name: p.Content(source)})
		case "required_parameter", "optional_parameter":
			name := ""
			if pat := p.ChildByFieldName("pattern"); pat != nil {
				name = pat.Content(source)
			}
			typ := ""
			if t := p.ChildByFieldName("type"); t != nil {
				typ = t.Content(source)
			}
			params = append(params, Parameter{Name: name, Type: typ, HasDefault: p.Type() == "optional_parameter"})
		}
	}
	return params
}
