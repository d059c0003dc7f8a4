package scan

import (
	"strings"
	"unicode"

	"github.com/kobweb-dev/kobgen/pkg/syntax"
)

// Suppression markers accepted in @Suppress on a style declaration or its
// file.
const (
	SuppressNested  = "NESTED_COMPONENT_STYLE_DECLARATION"
	SuppressPrivate = "PRIVATE_COMPONENT_STYLE_DECLARATION"
)

type styleMatch struct {
	kind StyleKind

	// factory is the callee or type that identified the declaration.
	factory string

	// provider factories return a delegate provider and must be used with "by".
	provider bool
}

// matchStyle classifies a property by its delegate, initializer or declared
// type.
func matchStyle(p *syntax.Property) (styleMatch, bool) {
	expr := p.Initializer
	if p.Delegate != nil {
		expr = p.Delegate
	}
	if m, ok := matchCallee(expr); ok {
		return m, true
	}
	return matchType(p.Type)
}

func matchCallee(e *syntax.Expr) (styleMatch, bool) {
	if e == nil || e.Callee == "" {
		return styleMatch{}, false
	}
	head, name := e.CalleeHead(), e.CalleeName()
	switch {
	case e.Callee == "keyframes":
		return styleMatch{kind: Keyframes, factory: "keyframes", provider: true}, true
	case name == "provide" && head != name:
		if kind, ok := providerKinds[head]; ok {
			return styleMatch{kind: kind, factory: e.Callee, provider: true}, true
		}
	case head == "CssStyle" || head == "ComponentStyle":
		return styleMatch{kind: Style, factory: head}, true
	case head == "Keyframes":
		return styleMatch{kind: Keyframes, factory: head}, true
	case name == "addVariant" || name == "addVariantBase":
		return styleMatch{kind: Variant, factory: name}, true
	}
	return styleMatch{}, false
}

// providerKinds maps the types whose lower-case "provide" factory returns a
// delegate provider to the entry kind they declare.
var providerKinds = map[string]StyleKind{
	"CssStyle":         Style,
	"ComponentStyle":   Style,
	"ComponentVariant": Variant,
	"CssStyleVariant":  Variant,
	"Keyframes":        Keyframes,
}

func matchType(typ string) (styleMatch, bool) {
	typ = strings.TrimSpace(typ)
	if i := strings.IndexAny(typ, "<?"); i >= 0 {
		typ = typ[:i]
	}
	switch name := syntax.LastSegment(strings.TrimSpace(typ)); name {
	case "CssStyle", "ComponentStyle":
		return styleMatch{kind: Style, factory: name}, true
	case "ComponentVariant", "CssStyleVariant":
		return styleMatch{kind: Variant, factory: name}, true
	case "Keyframes":
		return styleMatch{kind: Keyframes, factory: name}, true
	}
	return styleMatch{}, false
}

// suppressed reports whether marker appears in a @Suppress on the declaration
// or in a @file:Suppress. Aliased imports of Suppress count.
func suppressed(aliases AliasTable, marker string, decl, file []*syntax.Annotation) bool {
	for _, anns := range [][]*syntax.Annotation{decl, file} {
		for _, a := range anns {
			if !aliases.Is(a.Name, SuppressAnnotation) {
				continue
			}
			for _, v := range a.StringArgs() {
				if v == marker {
					return true
				}
			}
		}
	}
	return false
}

var styleSuffixes = []string{"Keyframes", "Variant", "Style"}

// DeriveCSSName turns a property name into the CSS name used when no
// @CssName is given: a trailing Style, Variant or Keyframes is dropped and the
// rest is kebab-cased. "OutlineButtonVariant" becomes "outline-button".
func DeriveCSSName(property string) string {
	base := property
	for _, suffix := range styleSuffixes {
		if len(base) > len(suffix) && strings.HasSuffix(base, suffix) {
			base = strings.TrimSuffix(base, suffix)
			break
		}
	}
	return kebabCase(base)
}

func kebabCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if r == '_' {
			b.WriteByte('-')
			continue
		}
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
