package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobweb-dev/kobgen/pkg/diag"
	"github.com/kobweb-dev/kobgen/pkg/registry"
	"github.com/kobweb-dev/kobgen/pkg/scan"
	"github.com/kobweb-dev/kobgen/pkg/syntax/kotlin"
)

var kotlinSources = map[string]string{
	"/src/com/example/pages/About.kt": `package com.example.pages

import androidx.compose.runtime.Composable
import com.varabyte.kobweb.core.Page
import com.varabyte.kobweb.silk.style.CssStyle

@Composable
@Page("/about-us")
fun About() {}

val AboutStyle = CssStyle { }
`,
	"/src/com/example/pages/blog/Post.kt": `@file:PackageMapping("posts")

package com.example.pages.blog

import androidx.compose.runtime.Composable
import com.varabyte.kobweb.core.Page as Route
import com.varabyte.kobweb.core.PackageMapping

@Route
@Composable
fun Post() {
    Text("post")
}

val Fade by Keyframes { from { } }
`,
	"/src/com/example/api/Service.kt": `package com.example.api

import com.varabyte.kobweb.api.Api
import com.varabyte.kobweb.api.ApiContext
import com.varabyte.kobweb.api.stream.ApiStream

@Api("index")
fun idx(ctx: ApiContext) {}

val chat = ApiStream { }
`,
}

func scanSources(t *testing.T, sources map[string]string) ([]scan.Candidate, diag.List) {
	t.Helper()
	p := kotlin.NewParser()
	s := scan.New(scan.Config{PagesPackage: pagesRoot, APIPackage: "com.example.api", Target: scan.TargetAll})
	var cands []scan.Candidate
	var diags diag.List
	for path, src := range sources {
		f, err := p.Parse(path, []byte(src))
		require.NoError(t, err, path)
		res := s.ScanFile(f)
		cands = append(cands, res.Candidates...)
		diags = append(diags, res.Diagnostics...)
	}
	return cands, diags
}

func TestResolveKotlinSources(t *testing.T) {
	cands, diags := scanSources(t, kotlinSources)
	require.Empty(t, diags)

	res, diags := Resolve("site", Roots{Pages: pagesRoot, API: "com.example.api"}, cands)
	require.Empty(t, diags)
	reg := res.Registry

	assert.ElementsMatch(t, []registry.RouteEntry{
		{QualifiedName: "com.example.pages.About", Route: "/about-us"},
		{QualifiedName: "com.example.pages.blog.Post", Route: "/posts/post"},
	}, reg.Pages)
	assert.Equal(t, []registry.RouteEntry{{QualifiedName: "com.example.api.idx", Route: "/index"}}, reg.APIs)
	assert.Equal(t, []registry.RouteEntry{{QualifiedName: "com.example.api.chat", Route: "/service"}}, reg.APIStreams)

	require.Len(t, reg.Styles, 1)
	assert.Equal(t, "com.example.pages.AboutStyle", reg.Styles[0].QualifiedName)
	require.Len(t, reg.Keyframes, 1)
	assert.Equal(t, "com.example.pages.blog.Fade", reg.Keyframes[0].QualifiedName)

	assert.Equal(t, diag.Location{File: "/src/com/example/pages/About.kt", Line: 7}, res.Sources["com.example.pages.About"])
}

func TestResolveKotlinSourceWithDetachedAnnotation(t *testing.T) {
	cands, diags := scanSources(t, map[string]string{
		"/src/com/example/pages/Home.kt": `package com.example.pages

import androidx.compose.runtime.Composable
import com.varabyte.kobweb.core.Page

@Composable
fun Home() {}

val HomeStyle = CssStyle { }

@Page("/lost")
`,
	})
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Error, diags[0].Severity)
	assert.Equal(t, 11, diags[0].Line)
	assert.Contains(t, diags[0].Message, "@Page is not attached to a declaration")

	res, _ := Resolve("site", Roots{Pages: pagesRoot}, cands)
	assert.Empty(t, res.Registry.Pages)
	assert.Len(t, res.Registry.Styles, 1)
}
