package kotlin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobweb-dev/kobgen/pkg/syntax"
)

const postSource = `package com.example.pages.blog

import androidx.compose.runtime.Composable
import com.varabyte.kobweb.core.Page

@Page
@Composable
fun Post() {
}

private val helper = 1
`

func findFunction(f *syntax.File, name string) *syntax.Function {
	var found *syntax.Function
	syntax.Walk(f, func(n syntax.Node, _ []syntax.Node) bool {
		if fn, ok := n.(*syntax.Function); ok && fn.Name == name {
			found = fn
		}
		return true
	})
	return found
}

func TestParsePageFile(t *testing.T) {
	p := NewParser()
	f, err := p.Parse("/src/Post.kt", []byte(postSource))
	require.NoError(t, err)
	assert.Equal(t, "/src/Post.kt", f.Path)

	fn := findFunction(f, "Post")
	require.NotNil(t, fn, "function Post not found")

	var names []string
	for _, a := range fn.Annotations {
		names = append(names, a.Name)
	}
	assert.Contains(t, names, "Page")
	assert.Contains(t, names, "Composable")
}

func findProperty(f *syntax.File, name string) *syntax.Property {
	var found *syntax.Property
	syntax.Walk(f, func(n syntax.Node, _ []syntax.Node) bool {
		if prop, ok := n.(*syntax.Property); ok && prop.Name == name {
			found = prop
		}
		return true
	})
	return found
}

func TestParseAnnotationsAboveFunction(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		fn       string
		line     int
		ann      string
		arg      string
		others   []string
		property string
		callee   string
	}{
		{
			name: "route override before a style property",
			src: `package site.pages

import androidx.compose.runtime.Composable
import com.varabyte.kobweb.core.Page
import com.varabyte.kobweb.silk.style.CssStyle

@Composable
@Page("/about-us")
fun About() {}

val AboutStyle = CssStyle { }
`,
			fn:       "About",
			line:     7,
			ann:      "Page",
			arg:      "/about-us",
			others:   []string{"Composable"},
			property: "AboutStyle",
			callee:   "CssStyle",
		},
		{
			name: "api route before a stream property",
			src: `package site.api

import com.varabyte.kobweb.api.Api
import com.varabyte.kobweb.api.ApiContext
import com.varabyte.kobweb.api.stream.ApiStream

@Api("index")
fun idx(ctx: ApiContext) {}

val chat = ApiStream { }
`,
			fn:       "idx",
			line:     7,
			ann:      "Api",
			arg:      "index",
			property: "chat",
			callee:   "ApiStream",
		},
		{
			name: "named override before a keyframes delegate",
			src: `package site.pages

import androidx.compose.runtime.Composable
import com.varabyte.kobweb.core.Page

@Page(routeOverride = "intro")
@Composable
fun Welcome() {
    Text("hi")
}

val Spin by Keyframes { from { } }
`,
			fn:       "Welcome",
			line:     6,
			ann:      "Page",
			arg:      "intro",
			others:   []string{"Composable"},
			property: "Spin",
		},
		{
			name: "comment between annotation and function",
			src: `package site.pages

@Page("/faq")
// Frequently asked.
@Composable
fun Faq() {}

val FaqStyle = CssStyle.base { Modifier }
`,
			fn:       "Faq",
			line:     3,
			ann:      "Page",
			arg:      "/faq",
			others:   []string{"Composable"},
			property: "FaqStyle",
			callee:   "CssStyle.base",
		},
	}
	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := p.Parse("/src/"+tt.fn+".kt", []byte(tt.src))
			require.NoError(t, err)
			assert.Empty(t, f.Stray)

			fn := findFunction(f, tt.fn)
			require.NotNil(t, fn, "function %s not found", tt.fn)
			assert.Equal(t, tt.line, fn.Pos)
			var names []string
			var found *syntax.Annotation
			for _, a := range fn.Annotations {
				names = append(names, a.Name)
				if a.Name == tt.ann {
					found = a
				}
			}
			require.NotNil(t, found, "annotations: %v", names)
			v, ok := found.StringArg("routeOverride")
			require.True(t, ok)
			assert.Equal(t, tt.arg, v)
			for _, other := range tt.others {
				assert.Contains(t, names, other)
			}

			prop := findProperty(f, tt.property)
			require.NotNil(t, prop, "property %s not found", tt.property)
			if tt.callee != "" {
				require.NotNil(t, prop.Initializer)
				assert.Equal(t, tt.callee, prop.Initializer.Callee)
			}
		})
	}
}

func TestParseFileLevelAnnotationsAndAliases(t *testing.T) {
	src := `@file:PackageMapping("posts")

package site.pages.blog

import androidx.compose.runtime.Composable
import com.varabyte.kobweb.core.Page as Route

@Route
@Composable
fun Index() {}
`
	f, err := NewParser().Parse("/src/blog/Index.kt", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "site.pages.blog", f.Package)

	require.Len(t, f.Annotations, 1)
	assert.Equal(t, "PackageMapping", f.Annotations[0].Name)
	assert.Equal(t, "file", f.Annotations[0].Target)
	v, ok := f.Annotations[0].StringArg("value")
	require.True(t, ok)
	assert.Equal(t, "posts", v)

	var alias *syntax.Import
	for _, imp := range f.Imports {
		if imp.Path == "com.varabyte.kobweb.core.Page" {
			alias = imp
		}
	}
	require.NotNil(t, alias)
	assert.Equal(t, "Route", alias.Alias)

	fn := findFunction(f, "Index")
	require.NotNil(t, fn)
	require.NotEmpty(t, fn.Annotations)
	assert.Equal(t, "Route", fn.Annotations[0].Name)
}

func TestParseStrayAnnotation(t *testing.T) {
	src := `package site.pages

@Composable
fun Home() {}

val HomeStyle = CssStyle { }

@Page("/lost")
`
	f, err := NewParser().Parse("/src/Home.kt", []byte(src))
	require.NoError(t, err)

	require.NotNil(t, findFunction(f, "Home"))
	require.Len(t, f.Stray, 1)
	assert.Equal(t, "Page", f.Stray[0].Name)
	assert.Equal(t, 8, f.Stray[0].Pos)
	v, _ := f.Stray[0].StringArg("routeOverride")
	assert.Equal(t, "/lost", v)
}

func TestParseFileMissing(t *testing.T) {
	p := NewParser()
	_, err := p.ParseFile(filepath.Join(t.TempDir(), "missing.kt"))
	assert.True(t, os.IsNotExist(err))
}

func TestParseConcurrent(t *testing.T) {
	p := NewParser()
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := p.Parse("/src/Post.kt", []byte(postSource))
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
