package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

type javaExtractor struct{}

const javaDefQuery = `
(class_declaration name: (identifier) @name body: (class_body) @body) @classdef
(interface_declaration name: (identifier) @name) @ifacedef
(method_declaration
	(modifiers)? @mods
	type: (_) @ret
	name: (identifier) @name
	parameters: (formal_parameters) @params) @methoddef
`

const javaImportQuery = `
(import_declaration (scoped_identifier) @target) @imp
`

const javaCallQuery = `
(method_invocation name: (identifier) @callee) @call
(method_invocation object: (identifier) @recv name: (identifier) @callee) @call
`

func (javaExtractor) Extract(source []byte) (Result, error) {
	lang := java.GetLanguage()
	root, err := parseTree(source, lang)
	if err != nil {
		return Result{}, err
	}

	var res Result
	defs, err := runQuery(javaDefQuery, lang, root, source)
	if err != nil {
		return Result{}, err
	}
	for _, m := range defs {
		name := m.text("name", source)
		if name == "" {
			continue
		}
		switch {
		case m.node("classdef") != nil:
			def := m.node("classdef")
			res.Symbols = append(res.Symbols, Symbol{
				Name: name, QualifiedName: name, Kind: store.KindClass,
				StartLine: int(def.StartPoint().Row) + 1, EndLine: int(def.EndPoint().Row) + 1,
				Signature: firstLine(def.Content(source)), Visibility: store.VisPublic,
				Extends: javaSuperclass(def, source), Implements: javaInterfaces(def, source),
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
			parent := enclosingName(def, source, []string{"class_declaration", "interface_declaration"}, "name")
			mods := m.text("mods", source)
			res.Symbols = append(res.Symbols, Symbol{
				Name: name, QualifiedName: qualify(parent, name), Kind: store.KindMethod,
				StartLine: int(def.StartPoint().Row) + 1, EndLine: int(def.EndPoint().Row) + 1,
				Signature: firstLine(def.Content(source)), ReturnType: m.text("ret", source),
				Visibility: javaVisibility(mods), Static: strings.Contains(mods, "static"),
				ParentName: parent, Parameters: javaParams(m.node("params"), source),
			})
		}
	}

	imports, err := runQuery(javaImportQuery, lang, root, source)
	if err != nil {
		return Result{}, err
	}
	for _, m := range imports {
		target := m.text("target", source)
		res.Imports = append(res.Imports, Import{
			RawText: m.node("imp").Content(source),
			Target:  target,
			Names:   javaImportedNames(target),
			Line:    m.line("target"),
		})
	}

	calls, err := runQuery(javaCallQuery, lang, root, source)
	if err != nil {
		return Result{}, err
	}
	for _, m := range calls {
		callNode := m.node("call")
		caller := enclosingName(callNode, source, []string{"method_declaration"}, "name")
		res.CallSites = append(res.CallSites, CallSite{
			CallerName: caller, Callee: m.text("callee", source),
			ReceiverHint: m.text("recv", source), Line: int(callNode.StartPoint().Row) + 1,
		})
	}

	return res, nil
}

// javaSuperclass reads the class's extends clause (Java allows one).
func javaSuperclass(def *sitter.Node, source []byte) []string {
	sc := def.ChildByFieldName("superclass")
	if sc == nil {
		return nil
	}
	// The superclass node wraps a single type; take its last named child's
	// text and strip any package qualifier.
	text := sc.Content(source)
	text = strings.TrimSpace(strings.TrimPrefix(text, "extends"))
	if idx := strings.LastIndexByte(text, '.'); idx >= 0 {
		text = text[idx+1:]
	}
	if text == "" {
		return nil
	}
	return []string{text}
}

// javaInterfaces reads the class's implements clause.
func javaInterfaces(def *sitter.Node, source []byte) []string {
	ifaces := def.ChildByFieldName("interfaces")
	if ifaces == nil {
		return nil
	}
	var names []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "type_identifier" {
			names = append(names, n.Content(source))
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(ifaces)
	return names
}

// javaImportedNames treats a single-type import's final segment as the
// imported symbol when it looks like a type name; wildcard and package
// imports bind no specific symbol.
func javaImportedNames(target string) []string {
	if strings.HasSuffix(target, "*") {
		return nil
	}
	last := target
	if idx := strings.LastIndexByte(last, '.'); idx >= 0 {
		last = last[idx+1:]
	}
	if last == "" || last[0] < 'A' || last[0] > 'Z' {
		return nil
	}
	return []string{last}
}

func javaVisibility(mods string) store.Visibility {
	switch {
	case strings.Contains(mods, "private"):
		return store.VisPrivate
	case strings.Contains(mods, "protected"):
		return store.VisProtected
	default:
		return store.VisPublic
	}
}

func javaParams(paramList *sitter.Node, source []byte) []Parameter {
	if paramList == nil {
		return nil
	}
	var params []Parameter
	for i := 0; i < int(paramList.NamedChildCount()); i++ {
		p := paramList.NamedChild(i)
		if p.Type() != "formal_parameter" && p.Type() != "spread_parameter" {
			continue
		}
		name := ""
		if n := p.ChildByFieldName("name"); n != nil {
			name = n.Content(source)
		}
		typ := ""
		if t := p.ChildByFieldName("type"); t != nil {
			typ = t.Content(source)
		}
		params = append(params, Parameter{Name: name, Type: typ})
	}
	return params
}
