package registry

import "sort"

// Merge combines own with upstream registries. Lists are concatenated, exact
// duplicates (the same artifact reachable twice) are dropped, and every list is
// sorted: route sections by route then qualified name, the others by
// qualified name. The order of upstream does not affect the result. Nil
// registries are ignored. The inputs are not modified.
func Merge(own *Registry, upstream ...*Registry) *Registry {
	out := &Registry{Version: FormatVersion}
	if own != nil {
		out.Module = own.Module
	}
	for _, r := range append([]*Registry{own}, upstream...) {
		if r == nil {
			continue
		}
		out.Pages = append(out.Pages, r.Pages...)
		out.APIs = append(out.APIs, r.APIs...)
		out.APIStreams = append(out.APIStreams, r.APIStreams...)
		out.KobwebInits = append(out.KobwebInits, r.KobwebInits...)
		out.SilkInits = append(out.SilkInits, r.SilkInits...)
		out.APIInits = append(out.APIInits, r.APIInits...)
		out.Styles = append(out.Styles, r.Styles...)
		out.Variants = append(out.Variants, r.Variants...)
		out.Keyframes = append(out.Keyframes, r.Keyframes...)
	}
	out.Normalize()
	return out
}

// Normalize sorts every section and removes exact duplicates in place.
func (r *Registry) Normalize() {
	r.Pages = sortRoutes(r.Pages)
	r.APIs = sortRoutes(r.APIs)
	r.APIStreams = sortRoutes(r.APIStreams)
	r.KobwebInits = sortInits(r.KobwebInits)
	r.SilkInits = sortInits(r.SilkInits)
	r.APIInits = sortInits(r.APIInits)
	r.Styles = sortStyles(r.Styles)
	r.Variants = sortStyles(r.Variants)
	r.Keyframes = sortStyles(r.Keyframes)
}

func sortRoutes(list []RouteEntry) []RouteEntry {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Route != list[j].Route {
			return list[i].Route < list[j].Route
		}
		return list[i].QualifiedName < list[j].QualifiedName
	})
	return dedupe(list)
}

func sortInits(list []InitEntry) []InitEntry {
	sort.Slice(list, func(i, j int) bool {
		if list[i].QualifiedName != list[j].QualifiedName {
			return list[i].QualifiedName < list[j].QualifiedName
		}
		return !list[i].AcceptsContext && list[j].AcceptsContext
	})
	return dedupe(list)
}

func sortStyles(list []StyleEntry) []StyleEntry {
	sort.Slice(list, func(i, j int) bool {
		if list[i].QualifiedName != list[j].QualifiedName {
			return list[i].QualifiedName < list[j].QualifiedName
		}
		return list[i].CSSName < list[j].CSSName
	})
	return dedupe(list)
}

// dedupe drops adjacent equal entries from a sorted list.
func dedupe[T comparable](list []T) []T {
	if len(list) < 2 {
		return list
	}
	out := list[:1]
	for _, e := range list[1:] {
		if e != out[len(out)-1] {
			out = append(out, e)
		}
	}
	return out
}
