// Package scan discovers pages, API endpoints, init hooks, styles and package
// mappings in parsed source files.
//
// ScanFile visits one file and never fails: structural problems are returned
// as diagnostics alongside whatever candidates were found, so callers can scan
// every file before deciding whether the pass failed.
package scan

import (
	"fmt"
	"strings"

	"github.com/kobweb-dev/kobgen/pkg/diag"
	"github.com/kobweb-dev/kobgen/pkg/syntax"
)

// Target selects which annotations a scan honors.
type Target int

const (
	// TargetAll scans for frontend and backend declarations.
	TargetAll Target = iota

	// TargetFrontend scans for pages, Kobweb and Silk init hooks, and styles.
	TargetFrontend

	// TargetBackend scans for API endpoints, API streams and API init hooks.
	TargetBackend
)

func (t Target) String() string {
	switch t {
	case TargetFrontend:
		return "frontend"
	case TargetBackend:
		return "backend"
	}
	return "all"
}

// ParseTarget parses "frontend", "backend" or "all". The empty string is all.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return TargetAll, nil
	case "frontend":
		return TargetFrontend, nil
	case "backend":
		return TargetBackend, nil
	}
	return TargetAll, fmt.Errorf("unknown target %q (want frontend, backend or all)", s)
}

func (t Target) frontend() bool { return t != TargetBackend }
func (t Target) backend() bool  { return t != TargetFrontend }

// Config configures a Scanner.
type Config struct {
	// PagesPackage is the root package for @Page declarations.
	PagesPackage string

	// APIPackage is the root package for @Api declarations and API streams.
	APIPackage string

	// Annotations defaults to DefaultAnnotations when zero.
	Annotations Annotations

	Target Target
}

// Scanner scans parsed files. It holds no per-file state and is safe for
// concurrent use.
type Scanner struct {
	cfg Config
}

// New returns a Scanner for cfg.
func New(cfg Config) *Scanner {
	if cfg.Annotations == (Annotations{}) {
		cfg.Annotations = DefaultAnnotations()
	}
	return &Scanner{cfg: cfg}
}

// Result is the outcome of scanning one file.
type Result struct {
	Candidates  []Candidate
	Diagnostics diag.List
}

// ScanFile visits f and returns its candidates and diagnostics.
func (s *Scanner) ScanFile(f *syntax.File) Result {
	if f == nil {
		return Result{}
	}
	v := &fileVisitor{
		cfg:     &s.cfg,
		file:    f,
		pkg:     f.Package,
		aliases: NewAliasTable(s.cfg.Annotations, f.Imports),
	}
	syntax.Walk(f, v.visit)
	v.strays()
	v.finish()
	return v.res
}

type fileVisitor struct {
	cfg     *Config
	file    *syntax.File
	pkg     string
	aliases AliasTable

	// mappings are bound to the package once the whole file has been seen.
	mappings []*syntax.Annotation

	res Result
}

func (v *fileVisitor) loc(line int) diag.Location {
	return diag.Location{File: v.file.Path, Line: line}
}

func (v *fileVisitor) errorf(line int, format string, args ...any) {
	v.res.Diagnostics = append(v.res.Diagnostics, diag.Errorf(v.loc(line), format, args...))
}

func (v *fileVisitor) warnf(line int, format string, args ...any) {
	v.res.Diagnostics = append(v.res.Diagnostics, diag.Warnf(v.loc(line), format, args...))
}

func (v *fileVisitor) emit(c Candidate) {
	v.res.Candidates = append(v.res.Candidates, c)
}

func (v *fileVisitor) qualify(name string) string {
	if v.pkg == "" {
		return name
	}
	return v.pkg + "." + name
}

func (v *fileVisitor) visit(n syntax.Node, stack []syntax.Node) bool {
	switch n := n.(type) {
	case *syntax.Annotation:
		if n.Target == "file" && v.aliases.Is(n.Name, v.cfg.Annotations.PackageMapping) {
			v.mappings = append(v.mappings, n)
		}
	case *syntax.Function:
		v.function(n, stack)
	case *syntax.Property:
		v.property(n, stack)
	}
	return true
}

func (v *fileVisitor) function(fn *syntax.Function, stack []syntax.Node) {
	anns := v.cfg.Annotations
	if v.cfg.Target.frontend() {
		if a := v.aliases.Find(fn.Annotations, anns.Page); a != nil {
			v.routeFunction(fn, stack, a, true)
		}
	}
	if v.cfg.Target.backend() {
		if a := v.aliases.Find(fn.Annotations, anns.API); a != nil {
			v.routeFunction(fn, stack, a, false)
		}
	}

	hooks := []struct {
		fqn     string
		kind    InitKind
		enabled bool
	}{
		{anns.InitKobweb, InitKobweb, v.cfg.Target.frontend()},
		{anns.InitSilk, InitSilk, v.cfg.Target.frontend()},
		{anns.InitAPI, InitAPI, v.cfg.Target.backend()},
	}
	for _, h := range hooks {
		if !h.enabled {
			continue
		}
		if a := v.aliases.Find(fn.Annotations, h.fqn); a != nil {
			v.initHook(fn, stack, a, h.kind)
		}
	}
}

func (v *fileVisitor) routeFunction(fn *syntax.Function, stack []syntax.Node, ann *syntax.Annotation, page bool) {
	label := "@" + syntax.LastSegment(ann.Name)
	if !syntax.IsTopLevel(stack) {
		v.errorf(fn.Pos, "%s function %s must be declared at the top level", label, fn.Name)
		return
	}
	if fn.Visibility == syntax.Private {
		v.errorf(fn.Pos, "%s function %s must not be private", label, fn.Name)
		return
	}
	if page && v.aliases.Find(fn.Annotations, v.cfg.Annotations.Composable) == nil {
		v.errorf(fn.Pos, "%s function %s must also be annotated with @Composable", label, fn.Name)
		return
	}

	override, ok := v.routeOverride(fn.Pos, label, ann)
	if !ok {
		return
	}

	root, rootName := v.cfg.PagesPackage, "pages"
	if !page {
		root, rootName = v.cfg.APIPackage, "API"
	}
	if (override == nil || !strings.HasPrefix(*override, "/")) && !underRoot(v.pkg, root) {
		v.errorf(fn.Pos, "%s function %s is declared in package %q, which is not under the %s root package %q; "+
			"move it under %q or give it an absolute route override", label, fn.Name, v.pkg, rootName, root, root)
		return
	}

	rc := RouteCandidate{
		QualifiedName: v.qualify(fn.Name),
		Package:       v.pkg,
		FileBaseName:  v.file.BaseName(),
		RouteOverride: override,
		Location:      v.loc(fn.Pos),
	}
	if page {
		v.emit(PageCandidate{rc})
	} else {
		v.emit(APICandidate{rc})
	}
}

// routeOverride extracts and validates the annotation's route override. It
// returns nil for an absent or empty override, and ok false after reporting an
// invalid one.
func (v *fileVisitor) routeOverride(line int, label string, ann *syntax.Annotation) (*string, bool) {
	arg, found := argument(ann, "routeOverride")
	if !found {
		return nil, true
	}
	if !arg.IsString {
		v.errorf(line, "%s route override must be a string literal, got %s", label, arg.Value)
		return nil, false
	}
	if arg.Value == "" {
		return nil, true
	}
	if err := ValidateOverride(arg.Value); err != nil {
		v.errorf(line, "%s route override %q: %v", label, arg.Value, err)
		return nil, false
	}
	value := arg.Value
	return &value, true
}

// argument returns the argument called name, or else the first positional
// argument.
func argument(a *syntax.Annotation, name string) (syntax.Argument, bool) {
	for _, arg := range a.Args {
		if arg.Name == name {
			return arg, true
		}
	}
	for _, arg := range a.Args {
		if arg.Name == "" {
			return arg, true
		}
	}
	return syntax.Argument{}, false
}

// ValidateOverride checks a route override. The {} placeholder is only allowed
// in the final path segment.
func ValidateOverride(o string) error {
	if strings.Contains(o, `\`) {
		return fmt.Errorf("routes must use '/' as the separator")
	}
	if strings.Contains(o, "//") {
		return fmt.Errorf("route contains an empty path segment")
	}
	for _, seg := range strings.Split(o, "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("route contains a relative segment %q", seg)
		}
	}
	if i := strings.LastIndex(o, "/"); i >= 0 && strings.Contains(o[:i], "{}") {
		return fmt.Errorf("the {} placeholder may only appear in the final path segment")
	}
	return nil
}

func (v *fileVisitor) initHook(fn *syntax.Function, stack []syntax.Node, ann *syntax.Annotation, kind InitKind) {
	label := "@" + syntax.LastSegment(ann.Name)
	switch {
	case !syntax.IsTopLevel(stack):
		v.errorf(fn.Pos, "%s function %s must be declared at the top level", label, fn.Name)
		return
	case fn.Visibility == syntax.Private:
		v.errorf(fn.Pos, "%s function %s must not be private", label, fn.Name)
		return
	case len(fn.Params) > 1:
		v.errorf(fn.Pos, "%s function %s takes %d parameters; init functions take no parameters or a single context parameter",
			label, fn.Name, len(fn.Params))
		return
	}
	v.emit(InitHookCandidate{
		Kind:           kind,
		QualifiedName:  v.qualify(fn.Name),
		AcceptsContext: len(fn.Params) == 1,
		Location:       v.loc(fn.Pos),
	})
}

func (v *fileVisitor) property(p *syntax.Property, stack []syntax.Node) {
	if v.cfg.Target.backend() && p.Initializer.CalleeHead() == "ApiStream" {
		v.apiStream(p, stack)
		return
	}
	if !v.cfg.Target.frontend() {
		return
	}
	if m, ok := matchStyle(p); ok {
		v.style(p, stack, m)
	}
}

func (v *fileVisitor) apiStream(p *syntax.Property, stack []syntax.Node) {
	switch {
	case !syntax.IsTopLevel(stack):
		v.errorf(p.Pos, "ApiStream %s must be declared at the top level", p.Name)
		return
	case p.Visibility == syntax.Private:
		v.errorf(p.Pos, "ApiStream %s must not be private", p.Name)
		return
	case !underRoot(v.pkg, v.cfg.APIPackage):
		v.errorf(p.Pos, "ApiStream %s is declared in package %q, which is not under the API root package %q",
			p.Name, v.pkg, v.cfg.APIPackage)
		return
	}
	v.emit(APIStreamCandidate{RouteCandidate{
		QualifiedName: v.qualify(p.Name),
		Package:       v.pkg,
		FileBaseName:  v.file.BaseName(),
		Location:      v.loc(p.Pos),
	}})
}

func (v *fileVisitor) style(p *syntax.Property, stack []syntax.Node, m styleMatch) {
	if m.provider && p.Delegate == nil {
		v.errorf(p.Pos, "%s returns a provider and must be declared with delegation: val %s by %s { ... }",
			m.factory, p.Name, m.factory)
		return
	}
	if !syntax.IsTopLevel(stack) {
		if !suppressed(v.aliases, SuppressNested, p.Annotations, v.file.Annotations) {
			v.warnf(p.Pos, "%s %s is not declared at the top level and will not be registered; "+
				"move it to the top level or add @Suppress(%q)", m.kind, p.Name, SuppressNested)
		}
		return
	}
	if p.Visibility == syntax.Private {
		if !suppressed(v.aliases, SuppressPrivate, p.Annotations, v.file.Annotations) {
			v.warnf(p.Pos, "%s %s is private and will not be registered; "+
				"make it public or internal, or add @Suppress(%q)", m.kind, p.Name, SuppressPrivate)
		}
		return
	}

	name := DeriveCSSName(p.Name)
	if a := v.aliases.Find(p.Annotations, v.cfg.Annotations.CSSName); a != nil {
		arg, found := argument(a, "name")
		if !found || !arg.IsString || arg.Value == "" {
			v.errorf(p.Pos, "@CssName on %s must have a non-empty string literal argument", p.Name)
			return
		}
		name = arg.Value
	}
	v.emit(StyleCandidate{
		Kind:          m.kind,
		QualifiedName: v.qualify(p.Name),
		CSSName:       name,
		Location:      v.loc(p.Pos),
	})
}

func (v *fileVisitor) finish() {
	for _, a := range v.mappings {
		arg, found := argument(a, "value")
		if !found || !arg.IsString || arg.Value == "" {
			v.errorf(a.Pos, "@PackageMapping must have a non-empty string literal argument")
			continue
		}
		if strings.ContainsAny(arg.Value, `/\`) {
			v.errorf(a.Pos, "@PackageMapping value %q must be a single path segment", arg.Value)
			continue
		}
		if !v.mappingInScope() {
			v.errorf(a.Pos, "@PackageMapping in package %q is not allowed: it must be declared in a package nested under %s",
				v.pkg, v.requiredRoots())
			continue
		}
		v.emit(PackageMappingCandidate{
			Package:    v.pkg,
			Expression: arg.Value,
			Location:   v.loc(a.Pos),
		})
	}
}

// strays reports recognized annotations that are attached to no declaration,
// which would otherwise drop their entry without a trace.
func (v *fileVisitor) strays() {
	anns := v.cfg.Annotations
	checks := []struct {
		fqn     string
		enabled bool
	}{
		{anns.Page, v.cfg.Target.frontend()},
		{anns.API, v.cfg.Target.backend()},
		{anns.InitKobweb, v.cfg.Target.frontend()},
		{anns.InitSilk, v.cfg.Target.frontend()},
		{anns.InitAPI, v.cfg.Target.backend()},
		{anns.CSSName, v.cfg.Target.frontend()},
	}
	for _, a := range v.file.Stray {
		for _, c := range checks {
			if c.enabled && v.aliases.Is(a.Name, c.fqn) {
				v.errorf(a.Pos, "@%s is not attached to a declaration; place it directly above the function or property it annotates",
					syntax.LastSegment(a.Name))
				break
			}
		}
	}
}

func (v *fileVisitor) mappingInScope() bool {
	if v.cfg.Target.frontend() && nestedUnder(v.pkg, v.cfg.PagesPackage) {
		return true
	}
	return v.cfg.Target.backend() && nestedUnder(v.pkg, v.cfg.APIPackage)
}

func (v *fileVisitor) requiredRoots() string {
	pages := fmt.Sprintf("the pages root package %q", v.cfg.PagesPackage)
	api := fmt.Sprintf("the API root package %q", v.cfg.APIPackage)
	switch v.cfg.Target {
	case TargetFrontend:
		return pages
	case TargetBackend:
		return api
	}
	return pages + " or " + api
}

// underRoot reports whether pkg is root or nested under it.
func underRoot(pkg, root string) bool {
	return root == "" || pkg == root || strings.HasPrefix(pkg, root+".")
}

// nestedUnder reports whether pkg is strictly nested under root.
func nestedUnder(pkg, root string) bool {
	if root == "" {
		return pkg != ""
	}
	return strings.HasPrefix(pkg, root+".")
}
