package routes

import (
	"strings"

	"github.com/kobweb-dev/kobgen/pkg/diag"
	"github.com/kobweb-dev/kobgen/pkg/registry"
	"github.com/kobweb-dev/kobgen/pkg/scan"
)

// FileSlug is the slug a file contributes when no override names one.
func FileSlug(fileBaseName string) string {
	return strings.ToLower(fileBaseName)
}

// ResolvePage returns the route of a page candidate given its package prefix.
func ResolvePage(c scan.RouteCandidate, prefix string) string {
	return resolve(c, prefix, true)
}

// ResolveAPI returns the route of an API endpoint or stream candidate. Unlike
// pages, an "index" slug is kept.
func ResolveAPI(c scan.RouteCandidate, prefix string) string {
	return resolve(c, prefix, false)
}

// resolve applies the override rules:
//
//  1. An override starting with "/" is absolute; the prefix is ignored and
//     the override up to its last "/" is used instead.
//  2. Otherwise the package prefix is used, and a relative override with
//     directories appends them.
//  3. The slug is the override's final segment with {} replaced by the file
//     slug; with no override, or one ending in "/", it is the file slug.
//  4. For pages an "index" slug becomes empty.
func resolve(c scan.RouteCandidate, prefix string, page bool) string {
	fileSlug := FileSlug(c.FileBaseName)

	slugPrefix, extra, slug := prefix, "", fileSlug
	if c.RouteOverride != nil {
		o := *c.RouteOverride
		last := strings.LastIndex(o, "/")
		switch {
		case strings.HasPrefix(o, "/"):
			slugPrefix = o[:last]
		case last >= 0:
			extra = "/" + o[:last]
		}
		if !strings.HasSuffix(o, "/") {
			slug = strings.ReplaceAll(o[last+1:], Placeholder, fileSlug)
		}
	}
	if page && slug == "index" {
		slug = ""
	}
	return slugPrefix + extra + "/" + slug
}

// Roots are the root packages routes are resolved against.
type Roots struct {
	Pages string
	API   string
}

// Resolved is the registry produced from one module's candidates.
type Resolved struct {
	Registry *registry.Registry

	// Sources maps qualified names to where they were declared.
	Sources map[string]diag.Location
}

// Resolve builds module's registry from scan candidates. Package mappings
// among the candidates are applied to every route candidate regardless of
// order. The returned registry is normalized.
func Resolve(module string, roots Roots, cands []scan.Candidate) (*Resolved, diag.List) {
	var mappings []scan.PackageMappingCandidate
	for _, c := range cands {
		if m, ok := c.(scan.PackageMappingCandidate); ok {
			mappings = append(mappings, m)
		}
	}
	mapper, diags := NewMapper(mappings)

	reg := registry.New(module)
	sources := make(map[string]diag.Location)
	for _, c := range cands {
		switch c := c.(type) {
		case scan.PageCandidate:
			route := ResolvePage(c.RouteCandidate, mapper.Prefix(c.Package, roots.Pages))
			reg.Pages = append(reg.Pages, registry.RouteEntry{QualifiedName: c.QualifiedName, Route: route})
		case scan.APICandidate:
			route := ResolveAPI(c.RouteCandidate, mapper.Prefix(c.Package, roots.API))
			reg.APIs = append(reg.APIs, registry.RouteEntry{QualifiedName: c.QualifiedName, Route: route})
		case scan.APIStreamCandidate:
			route := ResolveAPI(c.RouteCandidate, mapper.Prefix(c.Package, roots.API))
			reg.APIStreams = append(reg.APIStreams, registry.RouteEntry{QualifiedName: c.QualifiedName, Route: route})
		case scan.InitHookCandidate:
			e := registry.InitEntry{QualifiedName: c.QualifiedName, AcceptsContext: c.AcceptsContext}
			switch c.Kind {
			case scan.InitKobweb:
				reg.KobwebInits = append(reg.KobwebInits, e)
			case scan.InitSilk:
				reg.SilkInits = append(reg.SilkInits, e)
			case scan.InitAPI:
				reg.APIInits = append(reg.APIInits, e)
			}
		case scan.StyleCandidate:
			e := registry.StyleEntry{QualifiedName: c.QualifiedName, CSSName: c.CSSName}
			switch c.Kind {
			case scan.Style:
				reg.Styles = append(reg.Styles, e)
			case scan.Variant:
				reg.Variants = append(reg.Variants, e)
			case scan.Keyframes:
				reg.Keyframes = append(reg.Keyframes, e)
			}
		default:
			continue
		}
		sources[qualifiedName(c)] = c.Source()
	}
	reg.Normalize()
	return &Resolved{Registry: reg, Sources: sources}, diags
}

func qualifiedName(c scan.Candidate) string {
	switch c := c.(type) {
	case scan.PageCandidate:
		return c.QualifiedName
	case scan.APICandidate:
		return c.QualifiedName
	case scan.APIStreamCandidate:
		return c.QualifiedName
	case scan.InitHookCandidate:
		return c.QualifiedName
	case scan.StyleCandidate:
		return c.QualifiedName
	}
	return ""
}
