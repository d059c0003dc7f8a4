package syntax

import "strings"

// Kind identifies the variant of a Node.
type Kind int

const (
	KindFile Kind = iota
	KindImport
	KindAnnotation
	KindFunction
	KindProperty
	KindClass
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindImport:
		return "import"
	case KindAnnotation:
		return "annotation"
	case KindFunction:
		return "function"
	case KindProperty:
		return "property"
	case KindClass:
		return "class"
	}
	return "unknown"
}

// Node is a declaration-level syntax node. The set of implementations is closed;
// consumers switch on the concrete type.
type Node interface {
	Kind() Kind
	Line() int
}

// Visibility is a declaration's visibility modifier.
type Visibility int

const (
	Public Visibility = iota
	Internal
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Internal:
		return "internal"
	case Protected:
		return "protected"
	case Private:
		return "private"
	}
	return "public"
}

// ParseVisibility maps a modifier keyword to a Visibility. Unknown text is Public.
func ParseVisibility(s string) Visibility {
	switch strings.TrimSpace(s) {
	case "internal":
		return Internal
	case "protected":
		return Protected
	case "private":
		return Private
	}
	return Public
}

// File is the root of one parsed source file.
type File struct {
	// Path is the absolute path of the source file.
	Path string

	// Package is the dotted package name, empty for the default package.
	Package string

	// PackageLine is the line of the package directive, 0 if absent.
	PackageLine int

	Imports []*Import

	// Annotations are file-targeted annotations (@file:...).
	Annotations []*Annotation

	// Decls are the top-level declarations in source order.
	Decls []Node

	// Stray are annotations that precede no declaration, at any depth.
	Stray []*Annotation
}

func (f *File) Kind() Kind { return KindFile }
func (f *File) Line() int  { return 1 }

// BaseName returns the file name without directory and extension.
func (f *File) BaseName() string {
	name := f.Path
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}

// Import is an import directive.
type Import struct {
	// Path is the imported dotted path, without a trailing ".*".
	Path string

	// Alias is the local name given with "as", empty if none.
	Alias string

	// Wildcard is set for star imports.
	Wildcard bool

	Pos int
}

func (i *Import) Kind() Kind { return KindImport }
func (i *Import) Line() int  { return i.Pos }

// SimpleName returns the final segment of the imported path.
func (i *Import) SimpleName() string {
	return LastSegment(i.Path)
}

// LocalName returns the name the import binds in the file.
func (i *Import) LocalName() string {
	if i.Alias != "" {
		return i.Alias
	}
	return i.SimpleName()
}

// Argument is one annotation argument.
type Argument struct {
	// Name is set for named arguments (name = value).
	Name string

	// Value is the argument text. For string literals the quotes are removed.
	Value string

	// IsString reports whether Value came from a plain string literal.
	IsString bool
}

// Annotation is a use-site annotation.
type Annotation struct {
	// Name is the annotation type as written: "Page", "MyPage" or "a.b.Page".
	Name string

	// Target is the use-site target ("file" for @file:X), usually empty.
	Target string

	Args []Argument

	Pos int
}

func (a *Annotation) Kind() Kind { return KindAnnotation }
func (a *Annotation) Line() int  { return a.Pos }

// StringArg returns the first positional string argument or the named argument
// called name. ok is false when no such argument exists.
func (a *Annotation) StringArg(name string) (value string, ok bool) {
	for _, arg := range a.Args {
		if arg.Name == name && name != "" {
			return arg.Value, true
		}
	}
	for _, arg := range a.Args {
		if arg.Name == "" {
			return arg.Value, true
		}
	}
	return "", false
}

// StringArgs returns all positional argument values, used by vararg
// annotations such as @Suppress.
func (a *Annotation) StringArgs() []string {
	var out []string
	for _, arg := range a.Args {
		if arg.Name == "" || arg.Name == "names" {
			out = append(out, arg.Value)
		}
	}
	return out
}

// Param is a function value parameter.
type Param struct {
	Name string
	Type string
}

// Function is a function declaration.
type Function struct {
	Name        string
	Annotations []*Annotation
	Visibility  Visibility
	Params      []Param

	// Receiver is the extension receiver type, empty for plain functions.
	Receiver string

	// Body holds local declarations found in the function body.
	Body []Node

	Pos int
}

func (f *Function) Kind() Kind { return KindFunction }
func (f *Function) Line() int  { return f.Pos }

// Expr summarizes an initializer or delegate expression.
type Expr struct {
	// Callee is the dotted name of the called expression, e.g. "CssStyle",
	// "CssStyle.base" or "ButtonStyle.addVariant". Empty if the expression is
	// not a call.
	Callee string

	// Text is the full expression source text.
	Text string
}

// CalleeName returns the final segment of the callee.
func (e *Expr) CalleeName() string {
	if e == nil {
		return ""
	}
	return LastSegment(e.Callee)
}

// CalleeHead returns the first segment of the callee.
func (e *Expr) CalleeHead() string {
	if e == nil {
		return ""
	}
	head, _, _ := strings.Cut(e.Callee, ".")
	return head
}

// Property is a val/var declaration.
type Property struct {
	Name        string
	Annotations []*Annotation
	Visibility  Visibility
	Mutable     bool

	// Type is the declared type text, empty when inferred.
	Type string

	// Initializer is set for "= expr".
	Initializer *Expr

	// Delegate is set for "by expr".
	Delegate *Expr

	Pos int
}

func (p *Property) Kind() Kind { return KindProperty }
func (p *Property) Line() int  { return p.Pos }

// ClassKind distinguishes class-like declarations.
type ClassKind int

const (
	ClassPlain ClassKind = iota
	ClassObject
	ClassInterface
	ClassCompanion
)

// Class is a class, interface or object declaration.
type Class struct {
	Name        string
	ClassKind   ClassKind
	Annotations []*Annotation
	Visibility  Visibility
	Members     []Node

	Pos int
}

func (c *Class) Kind() Kind { return KindClass }
func (c *Class) Line() int  { return c.Pos }

// LastSegment returns the text after the last dot of a dotted name.
func LastSegment(dotted string) string {
	if i := strings.LastIndex(dotted, "."); i >= 0 {
		return dotted[i+1:]
	}
	return dotted
}
