package routes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kobweb-dev/kobgen/pkg/diag"
	"github.com/kobweb-dev/kobgen/pkg/registry"
)

// Validator checks a registry's routes for conflicts.
type Validator struct {
	reg      *registry.Registry
	sources  map[string]diag.Location
	errors   []ValidationError
	warnings diag.List
}

// ValidationError represents a route validation error.
type ValidationError struct {
	// Type is the error category
	Type ValidationErrorType

	// Message is the human-readable error message
	Message string

	// Names are the qualified names of the colliding declarations
	Names []string

	// Files are the source locations involved, when known
	Files []string

	// Path is the conflicting route
	Path string
}

func (e ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if len(e.Files) > 0 {
		msg += fmt.Sprintf(" (declared at %s)", strings.Join(e.Files, ", "))
	}
	return msg
}

// ValidationErrorType categorizes validation errors.
type ValidationErrorType string

const (
	// ErrorDuplicateRoute indicates two pages resolve to the same route.
	// Example: pages/Index.kt and @Page("/") elsewhere both → /
	ErrorDuplicateRoute ValidationErrorType = "DUPLICATE_ROUTE"

	// ErrorDuplicateAPIRoute indicates two API endpoints or streams share a
	// route.
	ErrorDuplicateAPIRoute ValidationErrorType = "DUPLICATE_API_ROUTE"
)

// MultiValidationError wraps multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d route validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// NewValidator creates a validator for reg. sources maps qualified names to
// declaration sites and may be nil, as it is for entries that came from
// dependency artifacts.
func NewValidator(reg *registry.Registry, sources map[string]diag.Location) *Validator {
	return &Validator{reg: reg, sources: sources}
}

// Validate checks for duplicate routes among pages and among APIs (endpoints
// and streams share one route space). It returns nil if none are found, or a
// *MultiValidationError listing all of them. Trailing-slash ambiguities are
// collected as warnings, see Warnings.
func (v *Validator) Validate() error {
	v.errors = nil
	v.warnings = nil
	if v.reg == nil {
		return nil
	}

	apis := append(append([]registry.RouteEntry(nil), v.reg.APIs...), v.reg.APIStreams...)
	v.validateDuplicates(v.reg.Pages, ErrorDuplicateRoute, "page")
	v.validateDuplicates(apis, ErrorDuplicateAPIRoute, "API")
	v.validateTrailingSlashes(v.reg.Pages, "page")
	v.validateTrailingSlashes(apis, "API")

	if len(v.errors) > 0 {
		return &MultiValidationError{Errors: v.errors}
	}
	return nil
}

// Warnings returns the warnings found by the last Validate.
func (v *Validator) Warnings() diag.List {
	return v.warnings
}

// Errors returns the last Validate's errors as diagnostics, each located at
// the first colliding declaration with a known source.
func (v *Validator) Errors() diag.List {
	var out diag.List
	for _, e := range v.errors {
		loc := diag.Location{}
		for _, name := range e.Names {
			if l, ok := v.sources[name]; ok {
				loc = l
				break
			}
		}
		out = append(out, diag.Errorf(loc, "%s", e.Message))
	}
	return out
}

func groupByRoute(entries []registry.RouteEntry) ([]string, map[string][]string) {
	byRoute := make(map[string][]string)
	for _, e := range entries {
		byRoute[e.Route] = append(byRoute[e.Route], e.QualifiedName)
	}
	routes := make([]string, 0, len(byRoute))
	for r := range byRoute {
		routes = append(routes, r)
	}
	sort.Strings(routes)
	return routes, byRoute
}

// validateDuplicates reports routes claimed by more than one declaration.
func (v *Validator) validateDuplicates(entries []registry.RouteEntry, typ ValidationErrorType, kind string) {
	routes, byRoute := groupByRoute(entries)
	for _, route := range routes {
		names := byRoute[route]
		if len(names) <= 1 {
			continue
		}
		names = append([]string(nil), names...)
		sort.Strings(names)

		var files []string
		for _, name := range names {
			if loc, ok := v.sources[name]; ok {
				files = append(files, loc.String())
			}
		}
		v.errors = append(v.errors, ValidationError{
			Type:    typ,
			Message: fmt.Sprintf("%s route %s is declared more than once: %s", kind, route, strings.Join(names, ", ")),
			Names:   names,
			Files:   files,
			Path:    route,
		})
	}
}

// validateTrailingSlashes warns about "X/" registered alongside "X".
func (v *Validator) validateTrailingSlashes(entries []registry.RouteEntry, kind string) {
	routes, byRoute := groupByRoute(entries)
	for _, route := range routes {
		if route == "/" || !strings.HasSuffix(route, "/") {
			continue
		}
		bare := strings.TrimSuffix(route, "/")
		if _, ok := byRoute[bare]; !ok {
			continue
		}
		withSlash, without := byRoute[route][0], byRoute[bare][0]
		v.warnings = append(v.warnings, diag.Warnf(v.sources[withSlash],
			"%s routes %s (%s) and %s (%s) differ only by a trailing slash and probably serve the same content",
			kind, route, withSlash, bare, without))
	}
}

// FormatValidationError formats a validation error for display:
//
//	ERROR: page route /about is declared more than once: a.About, b.About
//	  /src/a/About.kt:5 → /about
//	  /src/b/About.kt:9 → /about
func FormatValidationError(err ValidationError) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("ERROR: %s\n", err.Message))
	for _, file := range err.Files {
		sb.WriteString(fmt.Sprintf("  %s → %s\n", file, err.Path))
	}
	return sb.String()
}
