package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobweb-dev/kobgen/pkg/diag"
	"github.com/kobweb-dev/kobgen/pkg/syntax"
)

func styles(res Result) []StyleCandidate {
	var out []StyleCandidate
	for _, c := range res.Candidates {
		if s, ok := c.(StyleCandidate); ok {
			out = append(out, s)
		}
	}
	return out
}

func TestScanStyleKinds(t *testing.T) {
	tests := []struct {
		name    string
		prop    *syntax.Property
		kind    StyleKind
		cssName string
	}{
		{
			name:    "css style",
			prop:    &syntax.Property{Name: "ButtonStyle", Initializer: &syntax.Expr{Callee: "CssStyle"}},
			kind:    Style,
			cssName: "button",
		},
		{
			name:    "css style base",
			prop:    &syntax.Property{Name: "CardStyle", Initializer: &syntax.Expr{Callee: "CssStyle.base"}},
			kind:    Style,
			cssName: "card",
		},
		{
			name:    "legacy component style",
			prop:    &syntax.Property{Name: "HeroStyle", Initializer: &syntax.Expr{Callee: "ComponentStyle"}},
			kind:    Style,
			cssName: "hero",
		},
		{
			name:    "variant",
			prop:    &syntax.Property{Name: "OutlineButtonVariant", Initializer: &syntax.Expr{Callee: "ButtonStyle.addVariant"}},
			kind:    Variant,
			cssName: "outline-button",
		},
		{
			name:    "variant base",
			prop:    &syntax.Property{Name: "FlatVariant", Initializer: &syntax.Expr{Callee: "ButtonStyle.addVariantBase"}},
			kind:    Variant,
			cssName: "flat",
		},
		{
			name:    "declared variant type",
			prop:    &syntax.Property{Name: "Tinted", Type: "ComponentVariant", Initializer: &syntax.Expr{Callee: "makeTint"}},
			kind:    Variant,
			cssName: "tinted",
		},
		{
			name:    "keyframes",
			prop:    &syntax.Property{Name: "BounceKeyframes", Initializer: &syntax.Expr{Callee: "Keyframes"}},
			kind:    Keyframes,
			cssName: "bounce",
		},
		{
			name:    "delegated keyframes",
			prop:    &syntax.Property{Name: "SpinKeyframes", Delegate: &syntax.Expr{Callee: "keyframes"}},
			kind:    Keyframes,
			cssName: "spin",
		},
		{
			name: "explicit css name",
			prop: &syntax.Property{
				Name:        "HTMLTextStyle",
				Annotations: []*syntax.Annotation{ann("CssName", str("text"))},
				Initializer: &syntax.Expr{Callee: "CssStyle"},
			},
			kind:    Style,
			cssName: "text",
		},
		{
			name:    "internal is registered",
			prop:    &syntax.Property{Name: "LinkStyle", Visibility: syntax.Internal, Initializer: &syntax.Expr{Callee: "CssStyle"}},
			kind:    Style,
			cssName: "link",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prop.Pos = 3
			res := newScanner(TargetFrontend).ScanFile(file("/src/Styles.kt", "com.example.components", tt.prop))
			require.Empty(t, res.Diagnostics)
			got := styles(res)
			require.Len(t, got, 1)
			assert.Equal(t, StyleCandidate{
				Kind:          tt.kind,
				QualifiedName: "com.example.components." + tt.prop.Name,
				CSSName:       tt.cssName,
				Location:      diag.Location{File: "/src/Styles.kt", Line: 3},
			}, got[0])
		})
	}
}

func TestScanStyleIgnoresOtherProperties(t *testing.T) {
	f := file("/src/Styles.kt", "com.example",
		&syntax.Property{Name: "count", Initializer: &syntax.Expr{Text: "42"}},
		&syntax.Property{Name: "modifier", Initializer: &syntax.Expr{Callee: "Modifier.padding"}},
	)
	res := newScanner(TargetAll).ScanFile(f)
	assert.Empty(t, res.Candidates)
	assert.Empty(t, res.Diagnostics)
}

func TestScanStyleBackendIgnoresStyles(t *testing.T) {
	f := file("/src/Styles.kt", "com.example",
		&syntax.Property{Name: "ButtonStyle", Initializer: &syntax.Expr{Callee: "CssStyle"}})
	res := newScanner(TargetBackend).ScanFile(f)
	assert.Empty(t, res.Candidates)
}

func TestScanKeyframesProviderNeedsDelegation(t *testing.T) {
	f := file("/src/Anim.kt", "com.example",
		&syntax.Property{Name: "Spin", Initializer: &syntax.Expr{Callee: "keyframes"}, Pos: 8})
	res := newScanner(TargetAll).ScanFile(f)
	assert.Empty(t, res.Candidates)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.Error, res.Diagnostics[0].Severity)
	assert.Contains(t, res.Diagnostics[0].Message, "val Spin by keyframes")
}

func TestScanProvideFactories(t *testing.T) {
	tests := []struct {
		callee string
		kind   StyleKind
	}{
		{callee: "CssStyle.provide", kind: Style},
		{callee: "ComponentStyle.provide", kind: Style},
		{callee: "ComponentVariant.provide", kind: Variant},
		{callee: "CssStyleVariant.provide", kind: Variant},
		{callee: "Keyframes.provide", kind: Keyframes},
	}
	for _, tt := range tests {
		t.Run(tt.callee, func(t *testing.T) {
			assigned := &syntax.Property{Name: "FancyStyle", Initializer: &syntax.Expr{Callee: tt.callee}, Pos: 3}
			res := newScanner(TargetAll).ScanFile(file("/src/S.kt", "com.example", assigned))
			assert.Empty(t, res.Candidates)
			require.Len(t, res.Diagnostics, 1)
			assert.Equal(t, diag.Error, res.Diagnostics[0].Severity)
			assert.Contains(t, res.Diagnostics[0].Message, "val FancyStyle by "+tt.callee)

			delegated := &syntax.Property{Name: "FancyStyle", Delegate: &syntax.Expr{Callee: tt.callee}, Pos: 3}
			res = newScanner(TargetAll).ScanFile(file("/src/S.kt", "com.example", delegated))
			require.Empty(t, res.Diagnostics)
			s := styles(res)
			require.Len(t, s, 1)
			assert.Equal(t, tt.kind, s[0].Kind)
			assert.Equal(t, "com.example.FancyStyle", s[0].QualifiedName)
		})
	}

	t.Run("unknown receiver", func(t *testing.T) {
		p := &syntax.Property{Name: "Thing", Initializer: &syntax.Expr{Callee: "Theme.provide"}, Pos: 3}
		res := newScanner(TargetAll).ScanFile(file("/src/S.kt", "com.example", p))
		assert.Empty(t, res.Candidates)
		assert.Empty(t, res.Diagnostics)
	})
}

func TestScanStyleVisibilityWarnings(t *testing.T) {
	private := func() *syntax.Property {
		return &syntax.Property{Name: "HiddenStyle", Visibility: syntax.Private, Initializer: &syntax.Expr{Callee: "CssStyle"}, Pos: 4}
	}
	nested := func() *syntax.Class {
		return &syntax.Class{Name: "Holder", ClassKind: syntax.ClassObject, Pos: 1, Members: []syntax.Node{
			&syntax.Property{Name: "InnerStyle", Initializer: &syntax.Expr{Callee: "CssStyle"}, Pos: 2},
		}}
	}
	suppress := func(marker string) *syntax.Annotation {
		return &syntax.Annotation{Name: "Suppress", Args: []syntax.Argument{str(marker)}}
	}

	t.Run("private warns", func(t *testing.T) {
		res := newScanner(TargetAll).ScanFile(file("/src/S.kt", "com.example", private()))
		assert.Empty(t, res.Candidates)
		require.Len(t, res.Diagnostics, 1)
		assert.Equal(t, diag.Warning, res.Diagnostics[0].Severity)
		assert.Contains(t, res.Diagnostics[0].Message, SuppressPrivate)
	})

	t.Run("private suppressed on declaration", func(t *testing.T) {
		p := private()
		p.Annotations = []*syntax.Annotation{suppress(SuppressPrivate)}
		res := newScanner(TargetAll).ScanFile(file("/src/S.kt", "com.example", p))
		assert.Empty(t, res.Candidates)
		assert.Empty(t, res.Diagnostics)
	})

	t.Run("nested warns", func(t *testing.T) {
		res := newScanner(TargetAll).ScanFile(file("/src/S.kt", "com.example", nested()))
		assert.Empty(t, res.Candidates)
		require.Len(t, res.Diagnostics, 1)
		assert.Equal(t, diag.Warning, res.Diagnostics[0].Severity)
		assert.Contains(t, res.Diagnostics[0].Message, SuppressNested)
		assert.Equal(t, 2, res.Diagnostics[0].Line)
	})

	t.Run("nested suppressed by file", func(t *testing.T) {
		f := file("/src/S.kt", "com.example", nested())
		f.Annotations = []*syntax.Annotation{{Name: "Suppress", Target: "file", Args: []syntax.Argument{str("UNUSED"), str(SuppressNested)}}}
		res := newScanner(TargetAll).ScanFile(f)
		assert.Empty(t, res.Candidates)
		assert.Empty(t, res.Diagnostics)
	})

	t.Run("private suppressed through aliased import", func(t *testing.T) {
		p := private()
		p.Annotations = []*syntax.Annotation{{Name: "S", Args: []syntax.Argument{str(SuppressPrivate)}}}
		f := file("/src/S.kt", "com.example", p)
		f.Imports = []*syntax.Import{{Path: "kotlin.Suppress", Alias: "S"}}
		res := newScanner(TargetAll).ScanFile(f)
		assert.Empty(t, res.Diagnostics)
	})

	t.Run("file suppress through aliased import", func(t *testing.T) {
		f := file("/src/S.kt", "com.example", nested())
		f.Imports = []*syntax.Import{{Path: "kotlin.Suppress", Alias: "Quiet"}}
		f.Annotations = []*syntax.Annotation{{Name: "Quiet", Target: "file", Args: []syntax.Argument{str(SuppressNested)}}}
		res := newScanner(TargetAll).ScanFile(f)
		assert.Empty(t, res.Diagnostics)
	})

	t.Run("shadowed suppress does not count", func(t *testing.T) {
		p := private()
		p.Annotations = []*syntax.Annotation{suppress(SuppressPrivate)}
		f := file("/src/S.kt", "com.example", p)
		f.Imports = []*syntax.Import{{Path: "com.other.Suppress"}}
		res := newScanner(TargetAll).ScanFile(f)
		require.Len(t, res.Diagnostics, 1)
		assert.Contains(t, res.Diagnostics[0].Message, SuppressPrivate)
	})

	t.Run("wrong marker still warns", func(t *testing.T) {
		p := private()
		p.Annotations = []*syntax.Annotation{suppress(SuppressNested)}
		res := newScanner(TargetAll).ScanFile(file("/src/S.kt", "com.example", p))
		assert.Len(t, res.Diagnostics, 1)
	})
}

func TestDeriveCSSName(t *testing.T) {
	tests := map[string]string{
		"ButtonStyle":          "button",
		"OutlineButtonVariant": "outline-button",
		"FadeInKeyframes":      "fade-in",
		"Style":                "style",
		"HTMLTextStyle":        "html-text",
		"Heading2Style":        "heading2",
		"my_thing":             "my-thing",
		"CardStyleVariant":     "card-style",
	}
	for in, want := range tests {
		assert.Equal(t, want, DeriveCSSName(in), in)
	}
}
