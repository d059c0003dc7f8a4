package scan

import (
	"strings"

	"github.com/kobweb-dev/kobgen/pkg/syntax"
)

// Annotations holds the fully qualified names of the annotations the scanner
// recognizes.
type Annotations struct {
	Page           string `json:"page" yaml:"page"`
	API            string `json:"api" yaml:"api"`
	InitKobweb     string `json:"initKobweb" yaml:"initKobweb"`
	InitSilk       string `json:"initSilk" yaml:"initSilk"`
	InitAPI        string `json:"initApi" yaml:"initApi"`
	PackageMapping string `json:"packageMapping" yaml:"packageMapping"`
	Composable     string `json:"composable" yaml:"composable"`
	CSSName        string `json:"cssName" yaml:"cssName"`
}

// DefaultAnnotations returns the Kobweb annotation names.
func DefaultAnnotations() Annotations {
	return Annotations{
		Page:           "com.varabyte.kobweb.core.Page",
		API:            "com.varabyte.kobweb.api.Api",
		InitKobweb:     "com.varabyte.kobweb.core.init.InitKobweb",
		InitSilk:       "com.varabyte.kobweb.silk.init.InitSilk",
		InitAPI:        "com.varabyte.kobweb.api.init.InitApi",
		PackageMapping: "com.varabyte.kobweb.core.PackageMapping",
		Composable:     "androidx.compose.runtime.Composable",
		CSSName:        "com.varabyte.kobweb.silk.style.CssName",
	}
}

// SuppressAnnotation is Kotlin's @Suppress, which carries the style warning
// markers. Like every kotlin.* type it is in scope without an import.
const SuppressAnnotation = "kotlin.Suppress"

func (a Annotations) all() []string {
	return []string{a.Page, a.API, a.InitKobweb, a.InitSilk, a.InitAPI, a.PackageMapping, a.Composable, a.CSSName, SuppressAnnotation}
}

// AliasTable maps the names a file may use for recognized annotations to their
// fully qualified names. It is built once per file from the file's imports.
//
// Rules:
//   - a recognized annotation matches by its simple name by default
//   - "import x.Page as MyPage" makes MyPage match and Page stop matching
//   - importing an unrelated type with the same simple name shadows the default
//   - a fully qualified use always matches
type AliasTable struct {
	known  map[string]bool
	byName map[string]string
}

// NewAliasTable builds the table for a file with the given imports.
func NewAliasTable(anns Annotations, imports []*syntax.Import) AliasTable {
	t := AliasTable{
		known:  make(map[string]bool),
		byName: make(map[string]string),
	}
	for _, fqn := range anns.all() {
		if fqn == "" {
			continue
		}
		t.known[fqn] = true
		t.byName[syntax.LastSegment(fqn)] = fqn
	}

	bound := make(map[string]string)
	for _, imp := range imports {
		if imp.Wildcard {
			continue
		}
		local := imp.LocalName()
		if t.known[imp.Path] {
			if imp.Alias != "" && imp.Alias != imp.SimpleName() {
				if t.byName[imp.SimpleName()] == imp.Path {
					delete(t.byName, imp.SimpleName())
				}
			}
			bound[local] = imp.Path
			continue
		}
		delete(t.byName, local)
		bound[local] = ""
	}
	// Conflicting imports of one local name do not compile; the last wins.
	for local, fqn := range bound {
		if fqn == "" {
			continue
		}
		t.byName[local] = fqn
	}
	return t
}

// Resolve returns the fully qualified name a written annotation name refers
// to, or "" if it is not a recognized annotation.
func (t AliasTable) Resolve(name string) string {
	if strings.Contains(name, ".") {
		if t.known[name] {
			return name
		}
		return ""
	}
	return t.byName[name]
}

// Is reports whether the written name refers to fqn.
func (t AliasTable) Is(name, fqn string) bool {
	return fqn != "" && t.Resolve(name) == fqn
}

// Find returns the first annotation in anns that refers to fqn.
func (t AliasTable) Find(anns []*syntax.Annotation, fqn string) *syntax.Annotation {
	for _, a := range anns {
		if t.Is(a.Name, fqn) {
			return a
		}
	}
	return nil
}
