package routes

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kobweb-dev/kobgen/pkg/registry"
)

// EntryKind names the registry section a matched entry came from.
type EntryKind string

const (
	KindPage      EntryKind = "page"
	KindAPI       EntryKind = "api"
	KindAPIStream EntryKind = "apiStream"
)

// Match is an entry serving a request path.
type Match struct {
	Kind  EntryKind
	Entry registry.RouteEntry

	// Pattern is the chi pattern the route was registered under.
	Pattern string

	// Params holds the values captured by dynamic segments.
	Params map[string]string
}

// Matcher answers which registry entries serve a request path. Pages and APIs
// are matched independently; a path may hit one of each.
type Matcher struct {
	pages   *chi.Mux
	apis    *chi.Mux
	entries map[*chi.Mux]map[string]Match
}

// NewMatcher loads the routes of reg. Dynamic segments use the Kobweb forms
// {name}, {name?} and {...rest}.
func NewMatcher(reg *registry.Registry) (*Matcher, error) {
	m := &Matcher{
		pages:   chi.NewRouter(),
		apis:    chi.NewRouter(),
		entries: make(map[*chi.Mux]map[string]Match),
	}
	if reg == nil {
		return m, nil
	}
	add := func(mux *chi.Mux, kind EntryKind, entries []registry.RouteEntry) error {
		for _, e := range entries {
			if err := m.add(mux, kind, e); err != nil {
				return err
			}
		}
		return nil
	}
	if err := add(m.pages, KindPage, reg.Pages); err != nil {
		return nil, err
	}
	if err := add(m.apis, KindAPI, reg.APIs); err != nil {
		return nil, err
	}
	if err := add(m.apis, KindAPIStream, reg.APIStreams); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Matcher) add(mux *chi.Mux, kind EntryKind, e registry.RouteEntry) (err error) {
	pattern := ChiPattern(e.Route)
	defer func() {
		// chi panics on patterns it cannot represent.
		if r := recover(); r != nil {
			err = fmt.Errorf("route %s of %s: %v", e.Route, e.QualifiedName, r)
		}
	}()
	mux.Handle(pattern, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	if m.entries[mux] == nil {
		m.entries[mux] = make(map[string]Match)
	}
	m.entries[mux][pattern] = Match{Kind: kind, Entry: e, Pattern: pattern}
	return nil
}

// ChiPattern converts a route to a chi pattern. "{...rest}" becomes the
// catch-all "*" and optional "{name?}" becomes "{name}".
func ChiPattern(route string) string {
	segments := strings.Split(route, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := strings.TrimSuffix(seg[1:len(seg)-1], "?")
		if strings.HasPrefix(name, "...") {
			segments[i] = "*"
			continue
		}
		segments[i] = "{" + name + "}"
	}
	return strings.Join(segments, "/")
}

// Match returns the entries serving path, page first.
func (m *Matcher) Match(path string) ([]Match, error) {
	clean, err := CleanPath(path)
	if err != nil {
		return nil, fmt.Errorf("match %q: %w", path, err)
	}
	var out []Match
	for _, mux := range []*chi.Mux{m.pages, m.apis} {
		rctx := chi.NewRouteContext()
		if !mux.Match(rctx, http.MethodGet, clean) || len(rctx.RoutePatterns) == 0 {
			continue
		}
		match, ok := m.entries[mux][rctx.RoutePatterns[len(rctx.RoutePatterns)-1]]
		if !ok {
			continue
		}
		if len(rctx.URLParams.Keys) > 0 {
			match.Params = make(map[string]string, len(rctx.URLParams.Keys))
			for i, k := range rctx.URLParams.Keys {
				match.Params[k] = rctx.URLParams.Values[i]
			}
		}
		out = append(out, match)
	}
	return out, nil
}
