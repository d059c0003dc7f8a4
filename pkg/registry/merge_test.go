package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSortsAndConcatenates(t *testing.T) {
	own := &Registry{
		Module: "app",
		Pages: []RouteEntry{
			{QualifiedName: "app.pages.blog.Post", Route: "/blog/post"},
			{QualifiedName: "app.pages.Index", Route: "/"},
		},
		Styles: []StyleEntry{{QualifiedName: "app.ZStyle", CSSName: "z"}},
	}
	dep := &Registry{
		Module: "lib",
		Pages:  []RouteEntry{{QualifiedName: "lib.pages.About", Route: "/about"}},
		Styles: []StyleEntry{{QualifiedName: "lib.AStyle", CSSName: "a"}},
		SilkInits: []InitEntry{
			{QualifiedName: "lib.initSilk", AcceptsContext: true},
		},
	}

	got := Merge(own, dep)
	assert.Equal(t, "app", got.Module)
	assert.Equal(t, FormatVersion, got.Version)
	assert.Equal(t, []RouteEntry{
		{QualifiedName: "app.pages.Index", Route: "/"},
		{QualifiedName: "lib.pages.About", Route: "/about"},
		{QualifiedName: "app.pages.blog.Post", Route: "/blog/post"},
	}, got.Pages)
	assert.Equal(t, []StyleEntry{
		{QualifiedName: "app.ZStyle", CSSName: "z"},
		{QualifiedName: "lib.AStyle", CSSName: "a"},
	}, got.Styles)
	assert.Len(t, got.SilkInits, 1)

	// Inputs are untouched.
	assert.Equal(t, "app.pages.blog.Post", own.Pages[0].QualifiedName)
}

func TestMergeOrderIndependent(t *testing.T) {
	own := &Registry{Module: "app", Pages: []RouteEntry{{QualifiedName: "app.Index", Route: "/"}}}
	dep1 := &Registry{
		Pages:     []RouteEntry{{QualifiedName: "one.Shared", Route: "/shared"}},
		Keyframes: []StyleEntry{{QualifiedName: "one.Spin", CSSName: "spin"}},
		APIInits:  []InitEntry{{QualifiedName: "one.init"}},
	}
	dep2 := &Registry{
		Pages:     []RouteEntry{{QualifiedName: "two.Other", Route: "/shared"}},
		Keyframes: []StyleEntry{{QualifiedName: "one.Spin", CSSName: "spin2"}},
		APIInits:  []InitEntry{{QualifiedName: "one.init", AcceptsContext: true}},
	}

	a, err := Encode(Merge(own, dep1, dep2))
	require.NoError(t, err)
	b, err := Encode(Merge(own, dep2, dep1))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestMergeDropsExactDuplicates(t *testing.T) {
	dep := &Registry{
		Pages:    []RouteEntry{{QualifiedName: "lib.About", Route: "/about"}},
		Variants: []StyleEntry{{QualifiedName: "lib.Flat", CSSName: "flat"}},
	}
	got := Merge(nil, dep, dep)
	assert.Len(t, got.Pages, 1)
	assert.Len(t, got.Variants, 1)
	assert.Equal(t, "", got.Module)

	// Same route from different declarations is kept for the validator.
	other := &Registry{Pages: []RouteEntry{{QualifiedName: "other.About", Route: "/about"}}}
	got = Merge(nil, dep, other)
	assert.Len(t, got.Pages, 2)
}

func TestMergeEmpty(t *testing.T) {
	got := Merge(nil)
	require.NotNil(t, got)
	assert.Equal(t, 0, got.Len())
}
