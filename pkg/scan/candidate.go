package scan

import "github.com/kobweb-dev/kobgen/pkg/diag"

// Candidate is an unresolved discovery from one source file. The concrete
// types are PageCandidate, APICandidate, APIStreamCandidate,
// InitHookCandidate, StyleCandidate and PackageMappingCandidate.
type Candidate interface {
	Source() diag.Location
	candidate()
}

// RouteCandidate is the data shared by everything that resolves to a route.
type RouteCandidate struct {
	// QualifiedName is the declaration's fully qualified name.
	QualifiedName string

	// Package is the declaring package.
	Package string

	// FileBaseName is the declaring file's name without extension.
	FileBaseName string

	// RouteOverride is the annotation's override, nil when absent or empty.
	RouteOverride *string

	Location diag.Location
}

func (c RouteCandidate) Source() diag.Location { return c.Location }

// PageCandidate is a @Page function.
type PageCandidate struct{ RouteCandidate }

// APICandidate is an @Api function.
type APICandidate struct{ RouteCandidate }

// APIStreamCandidate is a top-level property initialized with ApiStream { }.
type APIStreamCandidate struct{ RouteCandidate }

func (PageCandidate) candidate()      {}
func (APICandidate) candidate()       {}
func (APIStreamCandidate) candidate() {}

// InitKind identifies the runtime an init hook runs in.
type InitKind int

const (
	InitKobweb InitKind = iota
	InitSilk
	InitAPI
)

func (k InitKind) String() string {
	switch k {
	case InitSilk:
		return "silk"
	case InitAPI:
		return "api"
	}
	return "kobweb"
}

// InitHookCandidate is an @InitKobweb, @InitSilk or @InitApi function.
type InitHookCandidate struct {
	Kind           InitKind
	QualifiedName  string
	AcceptsContext bool
	Location       diag.Location
}

func (c InitHookCandidate) Source() diag.Location { return c.Location }
func (InitHookCandidate) candidate()              {}

// StyleKind identifies a styling declaration.
type StyleKind int

const (
	Style StyleKind = iota
	Variant
	Keyframes
)

func (k StyleKind) String() string {
	switch k {
	case Variant:
		return "variant"
	case Keyframes:
		return "keyframes"
	}
	return "style"
}

// StyleCandidate is a top-level style, variant or keyframes property.
type StyleCandidate struct {
	Kind          StyleKind
	QualifiedName string

	// CSSName is the explicit @CssName value or a name derived from the
	// property.
	CSSName  string
	Location diag.Location
}

func (c StyleCandidate) Source() diag.Location { return c.Location }
func (StyleCandidate) candidate()              {}

// PackageMappingCandidate is a @file:PackageMapping declaration.
type PackageMappingCandidate struct {
	Package    string
	Expression string
	Location   diag.Location
}

func (c PackageMappingCandidate) Source() diag.Location { return c.Location }
func (PackageMappingCandidate) candidate()              {}
