package routes

import (
	"sort"
	"strings"

	"github.com/kobweb-dev/kobgen/pkg/diag"
	"github.com/kobweb-dev/kobgen/pkg/scan"
)

// Placeholder in a mapping expression or route override stands for a name
// taken from the source: the package's final segment for mappings, the file
// slug for overrides.
const Placeholder = "{}"

// Mapper resolves packages to URL prefixes using one module's package
// mappings.
type Mapper struct {
	mappings map[string]string
}

// NewMapper builds a Mapper from package-mapping candidates. Conflicting
// mappings for the same package are reported and the first one wins.
func NewMapper(cands []scan.PackageMappingCandidate) (*Mapper, diag.List) {
	m := &Mapper{mappings: make(map[string]string, len(cands))}
	first := make(map[string]scan.PackageMappingCandidate, len(cands))
	var diags diag.List
	for _, c := range cands {
		prev, seen := first[c.Package]
		if !seen {
			first[c.Package] = c
			m.mappings[c.Package] = c.Expression
			continue
		}
		if prev.Expression != c.Expression {
			diags = append(diags, diag.Errorf(c.Location,
				"package %q is mapped to %q here but to %q at %s", c.Package, c.Expression, prev.Expression, prev.Location))
		}
	}
	return m, diags
}

// Mappings returns the package mapping table, sorted by package.
func (m *Mapper) Mappings() [][2]string {
	out := make([][2]string, 0, len(m.mappings))
	for pkg, expr := range m.mappings {
		out = append(out, [2]string{pkg, expr})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Prefix returns the URL prefix for pkg relative to root: "" for the root
// package itself, otherwise "/a/b".
//
// Each segment is emitted as written, minus one leading underscore, unless the
// package accumulated so far has a mapping; then the mapping's expression is
// emitted with {} replaced by that segment. A package outside root keeps all
// of its segments.
func (m *Mapper) Prefix(pkg, root string) string {
	if pkg == "" {
		return ""
	}
	segments := strings.Split(pkg, ".")
	skip := 0
	if root != "" && (pkg == root || strings.HasPrefix(pkg, root+".")) {
		skip = strings.Count(root, ".") + 1
	}

	var b strings.Builder
	for i, seg := range segments {
		if i < skip {
			continue
		}
		b.WriteByte('/')
		if m != nil {
			if expr, ok := m.mappings[strings.Join(segments[:i+1], ".")]; ok {
				b.WriteString(strings.ReplaceAll(expr, Placeholder, seg))
				continue
			}
		}
		b.WriteString(unescapeSegment(seg))
	}
	return b.String()
}

// unescapeSegment strips the single leading underscore used to spell package
// segments that are not valid identifiers, such as "_2024".
func unescapeSegment(seg string) string {
	return strings.TrimPrefix(seg, "_")
}
