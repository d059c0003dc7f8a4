// Package kotlin builds syntax trees from Kotlin source using tree-sitter.
package kotlin

import (
	"fmt"
	"os"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_kotlin "github.com/tree-sitter-grammars/tree-sitter-kotlin/bindings/go"

	"github.com/kobweb-dev/kobgen/pkg/syntax"
)

var (
	languageOnce sync.Once
	language     *tree_sitter.Language
	parserPool   *sync.Pool
)

func initLanguage() {
	languageOnce.Do(func() {
		language = tree_sitter.NewLanguage(tree_sitter_kotlin.Language())
		parserPool = &sync.Pool{
			New: func() any {
				p := tree_sitter.NewParser()
				if err := p.SetLanguage(language); err != nil {
					panic(fmt.Sprintf("set language: %v", err))
				}
				return p
			},
		}
	})
}

// Parser parses Kotlin files. It is safe for concurrent use.
type Parser struct{}

// NewParser returns a Kotlin parser.
func NewParser() *Parser {
	initLanguage()
	return &Parser{}
}

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(path string) (*syntax.File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(path, src)
}

// Parse parses src as the contents of path. Syntax errors inside declarations
// do not fail the parse; tree-sitter recovers and the affected declarations
// are simply missing from the result.
func (p *Parser) Parse(path string, src []byte) (*syntax.File, error) {
	initLanguage()

	tsp, _ := parserPool.Get().(*tree_sitter.Parser)
	if tsp == nil {
		return nil, fmt.Errorf("no kotlin parser available")
	}
	tree := tsp.Parse(src, nil)
	parserPool.Put(tsp)
	if tree == nil {
		return nil, fmt.Errorf("parse %s: no tree produced", path)
	}
	defer tree.Close()

	c := converter{src: src}
	return c.file(path, tree.RootNode()), nil
}

type converter struct {
	src   []byte
	stray []*syntax.Annotation
}

func (c *converter) text(n *tree_sitter.Node) string {
	return n.Utf8Text(c.src)
}

func line(n *tree_sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

func (c *converter) file(path string, root *tree_sitter.Node) *syntax.File {
	f := &syntax.File{Path: path}
	decls := declRun{c: c}
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "package_header":
			f.Package = packageName(c.text(child))
			f.PackageLine = line(child)
		case "import_list":
			for j := uint(0); j < child.NamedChildCount(); j++ {
				if imp := c.importNode(child.NamedChild(j)); imp != nil {
					f.Imports = append(f.Imports, imp)
				}
			}
		case "import_header", "import":
			if imp := c.importNode(child); imp != nil {
				f.Imports = append(f.Imports, imp)
			}
		case "file_annotation":
			f.Annotations = append(f.Annotations, ParseFileAnnotations(c.text(child), line(child))...)
		case "annotation":
			if text := c.text(child); strings.HasPrefix(strings.TrimSpace(text), "@file:") {
				f.Annotations = append(f.Annotations, ParseFileAnnotations(text, line(child))...)
			} else {
				decls.add(child)
			}
		default:
			decls.add(child)
		}
	}
	f.Decls = decls.finish()
	f.Stray = c.stray
	return f
}

func (c *converter) importNode(n *tree_sitter.Node) *syntax.Import {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "import_header", "import":
		return ParseImport(c.text(n), line(n))
	}
	return nil
}

// decl converts a declaration node, returning nil for anything else.
func (c *converter) decl(n *tree_sitter.Node) syntax.Node {
	switch n.Kind() {
	case "function_declaration":
		return c.function(n)
	case "property_declaration":
		return c.property(n)
	case "class_declaration":
		return c.class(n, syntax.ClassPlain)
	case "object_declaration":
		return c.class(n, syntax.ClassObject)
	case "companion_object":
		return c.class(n, syntax.ClassCompanion)
	}
	return nil
}

// collectDecls finds the outermost declarations below n.
func (c *converter) collectDecls(n *tree_sitter.Node) []syntax.Node {
	decls := declRun{c: c}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if child := n.NamedChild(i); child != nil {
			decls.add(child)
		}
	}
	return decls.finish()
}

// declRun converts sibling nodes into declarations. Annotations the grammar
// left outside a declaration are held until the next sibling: a declaration
// takes them, anything else leaves them stray.
type declRun struct {
	c       *converter
	pending []*syntax.Annotation
	out     []syntax.Node
}

func (r *declRun) add(n *tree_sitter.Node) {
	if isComment(n.Kind()) {
		return
	}
	if d := r.c.decl(n); d != nil {
		r.emit(d)
		return
	}

	// "@Page" alone, with "(...)" as the next sibling.
	if n.Kind() == "parenthesized_expression" && len(r.pending) > 0 {
		last := r.pending[len(r.pending)-1]
		if last.Args == nil {
			if anns := ParseAnnotations("@"+last.Name+r.c.text(n), last.Pos); len(anns) == 1 {
				anns[0].Target = last.Target
				r.pending[len(r.pending)-1] = anns[0]
				return
			}
		}
	}

	annotated := false
	if start := n.StartByte(); start < uint(len(r.c.src)) && r.c.src[start] == '@' {
		annotated = true
		if anns, rest := ParseAnnotationRun(r.c.text(n), line(n)); len(anns) > 0 && strings.TrimSpace(rest) == "" {
			r.pending = append(r.pending, anns...)
			return
		}
	}

	// A node led by annotations may wrap the declaration they belong to; its
	// children continue the run. Anything else ends it.
	inner := declRun{c: r.c}
	if annotated {
		inner.pending, r.pending = r.pending, nil
	} else {
		r.flush()
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if child := n.NamedChild(i); child != nil {
			inner.add(child)
		}
	}
	r.out = append(r.out, inner.finish()...)
}

func (r *declRun) emit(d syntax.Node) {
	if len(r.pending) > 0 {
		prependAnnotations(d, r.pending)
		r.pending = nil
	}
	r.out = append(r.out, d)
}

func (r *declRun) flush() {
	r.c.stray = append(r.c.stray, r.pending...)
	r.pending = nil
}

func (r *declRun) finish() []syntax.Node {
	r.flush()
	return r.out
}

func isComment(kind string) bool {
	return kind == "line_comment" || kind == "multiline_comment" || kind == "comment"
}

// prependAnnotations gives d annotations the grammar left outside it. The
// declaration then starts at the first of them, as it would had they parsed
// as modifiers.
func prependAnnotations(d syntax.Node, anns []*syntax.Annotation) {
	first := anns[0].Pos
	switch d := d.(type) {
	case *syntax.Function:
		d.Annotations = append(append([]*syntax.Annotation(nil), anns...), d.Annotations...)
		d.Pos = min(d.Pos, first)
	case *syntax.Property:
		d.Annotations = append(append([]*syntax.Annotation(nil), anns...), d.Annotations...)
		d.Pos = min(d.Pos, first)
	case *syntax.Class:
		d.Annotations = append(append([]*syntax.Annotation(nil), anns...), d.Annotations...)
		d.Pos = min(d.Pos, first)
	}
}

type modifierInfo struct {
	annotations []*syntax.Annotation
	visibility  syntax.Visibility
}

func (c *converter) modifiers(n *tree_sitter.Node) modifierInfo {
	var info modifierInfo
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "modifiers":
			for j := uint(0); j < child.ChildCount(); j++ {
				m := child.Child(j)
				if m == nil {
					continue
				}
				switch m.Kind() {
				case "annotation":
					info.annotations = append(info.annotations, ParseAnnotations(c.text(m), line(m))...)
				case "visibility_modifier":
					info.visibility = syntax.ParseVisibility(c.text(m))
				}
			}
		case "annotation":
			info.annotations = append(info.annotations, ParseAnnotations(c.text(child), line(child))...)
		}
	}
	return info
}

func isIdentifier(kind string) bool {
	switch kind {
	case "simple_identifier", "identifier", "type_identifier":
		return true
	}
	return false
}

func (c *converter) function(n *tree_sitter.Node) *syntax.Function {
	mods := c.modifiers(n)
	fn := &syntax.Function{
		Annotations: mods.annotations,
		Visibility:  mods.visibility,
		Pos:         line(n),
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch kind := child.Kind(); {
		case isIdentifier(kind) && fn.Params == nil:
			// The name is the last identifier before the parameter list;
			// an extension receiver may precede it.
			if fn.Name != "" {
				fn.Receiver = fn.Name
			}
			fn.Name = c.text(child)
		case kind == "user_type" || kind == "receiver_type" || kind == "nullable_type":
			if fn.Name == "" {
				fn.Receiver = c.text(child)
			}
		case kind == "function_value_parameters":
			fn.Params = c.params(child)
		case kind == "function_body":
			fn.Body = c.collectDecls(child)
		}
	}
	return fn
}

func (c *converter) params(n *tree_sitter.Node) []syntax.Param {
	params := []syntax.Param{}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		p := child
		if p.Kind() == "function_value_parameter" {
			for j := uint(0); j < child.NamedChildCount(); j++ {
				if gc := child.NamedChild(j); gc != nil && gc.Kind() == "parameter" {
					p = gc
					break
				}
			}
		}
		if p.Kind() != "parameter" {
			continue
		}
		name, typ, _ := strings.Cut(c.text(p), ":")
		params = append(params, syntax.Param{
			Name: strings.TrimSpace(name),
			Type: strings.TrimSpace(typ),
		})
	}
	return params
}

func (c *converter) property(n *tree_sitter.Node) *syntax.Property {
	mods := c.modifiers(n)
	prop := &syntax.Property{
		Annotations: mods.annotations,
		Visibility:  mods.visibility,
		Pos:         line(n),
	}
	seenAssign := false
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch kind := child.Kind(); {
		case kind == "binding_pattern_kind" || kind == "var" || kind == "val":
			prop.Mutable = strings.TrimSpace(c.text(child)) == "var"
		case kind == "variable_declaration":
			name, typ, _ := strings.Cut(c.text(child), ":")
			prop.Name = strings.TrimSpace(name)
			prop.Type = strings.TrimSpace(typ)
		case kind == "property_delegate":
			text := strings.TrimSpace(c.text(child))
			text = strings.TrimSpace(strings.TrimPrefix(text, "by"))
			prop.Delegate = ParseExpr(text)
		case kind == "=":
			seenAssign = true
		case seenAssign && child.IsNamed() && prop.Initializer == nil:
			prop.Initializer = ParseExpr(c.text(child))
		}
	}
	return prop
}

func (c *converter) class(n *tree_sitter.Node, kind syntax.ClassKind) *syntax.Class {
	mods := c.modifiers(n)
	cls := &syntax.Class{
		ClassKind:   kind,
		Annotations: mods.annotations,
		Visibility:  mods.visibility,
		Pos:         line(n),
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch k := child.Kind(); {
		case k == "interface":
			cls.ClassKind = syntax.ClassInterface
		case isIdentifier(k) && cls.Name == "":
			cls.Name = c.text(child)
		case k == "class_body" || k == "enum_class_body":
			cls.Members = c.collectDecls(child)
		}
	}
	return cls
}
