package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobweb-dev/kobgen/pkg/diag"
	"github.com/kobweb-dev/kobgen/pkg/registry"
	"github.com/kobweb-dev/kobgen/pkg/scan"
	"github.com/kobweb-dev/kobgen/pkg/syntax"
)

const pagesRoot = "com.example.pages"

func override(s string) *string { return &s }

func TestResolvePage(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		prefix   string
		override *string
		want     string
	}{
		{name: "file slug", file: "Post", prefix: "/blog", want: "/blog/post"},
		{name: "index collapses", file: "Index", prefix: "/a/b", want: "/a/b/"},
		{name: "root index", file: "Index", prefix: "", want: "/"},
		{name: "absolute override", file: "Post", prefix: "/blog", override: override("/custom/path"), want: "/custom/path"},
		{name: "absolute override ending in slash", file: "Post", prefix: "/blog", override: override("/custom/"), want: "/custom/post"},
		{name: "absolute root", file: "Home", prefix: "/x", override: override("/"), want: "/home"},
		{name: "relative slug", file: "Post", prefix: "/blog", override: override("entry"), want: "/blog/entry"},
		{name: "relative with dirs", file: "Post", prefix: "/blog", override: override("archive/entry"), want: "/blog/archive/entry"},
		{name: "relative dir only", file: "Post", prefix: "/blog", override: override("archive/"), want: "/blog/archive/post"},
		{name: "placeholder", file: "UserProfile", prefix: "", override: override("{}"), want: "/userprofile"},
		{name: "placeholder in last segment", file: "Post", prefix: "/blog", override: override("/a/b/{}"), want: "/a/b/post"},
		{name: "placeholder mixed", file: "Post", prefix: "/blog", override: override("{}-v2"), want: "/blog/post-v2"},
		{name: "override index collapses", file: "Post", prefix: "/blog", override: override("index"), want: "/blog/"},
		{name: "dynamic segment", file: "User", prefix: "/users", override: override("{id}"), want: "/users/{id}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := scan.RouteCandidate{FileBaseName: tt.file, RouteOverride: tt.override}
			assert.Equal(t, tt.want, ResolvePage(c, tt.prefix))
		})
	}
}

func TestResolveAPIKeepsIndex(t *testing.T) {
	c := scan.RouteCandidate{FileBaseName: "Index"}
	assert.Equal(t, "/v1/index", ResolveAPI(c, "/v1"))
	assert.Equal(t, "/v1/", ResolvePage(c, "/v1"))
}

func TestAbsoluteOverrideIgnoresPackage(t *testing.T) {
	m, _ := NewMapper(nil)
	for _, pkg := range []string{"com.example.pages", "com.example.pages.a.b", "org.other"} {
		c := scan.RouteCandidate{Package: pkg, FileBaseName: "X", RouteOverride: override("/custom/path")}
		assert.Equal(t, "/custom/path", ResolvePage(c, m.Prefix(pkg, pagesRoot)), pkg)
	}
}

func pageCandidate(pkg, file, name string, line int) scan.PageCandidate {
	return scan.PageCandidate{RouteCandidate: scan.RouteCandidate{
		QualifiedName: pkg + "." + name,
		Package:       pkg,
		FileBaseName:  file,
		Location:      diag.Location{File: "/src/" + file + ".kt", Line: line},
	}}
}

func TestResolveBlogPostScenario(t *testing.T) {
	roots := Roots{Pages: pagesRoot, API: "com.example.api"}
	post := pageCandidate("com.example.pages.blog", "Post", "Post", 4)

	tests := []struct {
		name     string
		mappings []scan.Candidate
		want     string
	}{
		{name: "no mapping", want: "/blog/post"},
		{
			name:     "placeholder mapping",
			mappings: []scan.Candidate{scan.PackageMappingCandidate{Package: "com.example.pages.blog", Expression: "{}"}},
			want:     "/blog/post",
		},
		{
			name:     "literal mapping",
			mappings: []scan.Candidate{scan.PackageMappingCandidate{Package: "com.example.pages.blog", Expression: "posts"}},
			want:     "/posts/post",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Mappings found in later files still apply.
			cands := append([]scan.Candidate{post}, tt.mappings...)
			res, diags := Resolve("app", roots, cands)
			require.Empty(t, diags)
			require.Len(t, res.Registry.Pages, 1)
			assert.Equal(t, tt.want, res.Registry.Pages[0].Route)
			assert.Equal(t, "com.example.pages.blog.Post", res.Registry.Pages[0].QualifiedName)
		})
	}
}

func TestResolveAllKinds(t *testing.T) {
	roots := Roots{Pages: pagesRoot, API: "com.example.api"}
	cands := []scan.Candidate{
		pageCandidate("com.example.pages", "Index", "HomePage", 3),
		scan.APICandidate{RouteCandidate: scan.RouteCandidate{QualifiedName: "com.example.api.v1.echo", Package: "com.example.api.v1", FileBaseName: "Echo"}},
		scan.APIStreamCandidate{RouteCandidate: scan.RouteCandidate{QualifiedName: "com.example.api.chat", Package: "com.example.api", FileBaseName: "Chat"}},
		scan.InitHookCandidate{Kind: scan.InitKobweb, QualifiedName: "com.example.initApp", AcceptsContext: true},
		scan.InitHookCandidate{Kind: scan.InitSilk, QualifiedName: "com.example.initSilk"},
		scan.InitHookCandidate{Kind: scan.InitAPI, QualifiedName: "com.example.initApi", AcceptsContext: true},
		scan.StyleCandidate{Kind: scan.Style, QualifiedName: "com.example.ButtonStyle", CSSName: "button"},
		scan.StyleCandidate{Kind: scan.Variant, QualifiedName: "com.example.FlatVariant", CSSName: "flat"},
		scan.StyleCandidate{Kind: scan.Keyframes, QualifiedName: "com.example.Spin", CSSName: "spin"},
	}
	res, diags := Resolve("app", roots, cands)
	require.Empty(t, diags)

	want := &registry.Registry{
		Version:     registry.FormatVersion,
		Module:      "app",
		Pages:       []registry.RouteEntry{{QualifiedName: "com.example.pages.HomePage", Route: "/"}},
		APIs:        []registry.RouteEntry{{QualifiedName: "com.example.api.v1.echo", Route: "/v1/echo"}},
		APIStreams:  []registry.RouteEntry{{QualifiedName: "com.example.api.chat", Route: "/chat"}},
		KobwebInits: []registry.InitEntry{{QualifiedName: "com.example.initApp", AcceptsContext: true}},
		SilkInits:   []registry.InitEntry{{QualifiedName: "com.example.initSilk"}},
		APIInits:    []registry.InitEntry{{QualifiedName: "com.example.initApi", AcceptsContext: true}},
		Styles:      []registry.StyleEntry{{QualifiedName: "com.example.ButtonStyle", CSSName: "button"}},
		Variants:    []registry.StyleEntry{{QualifiedName: "com.example.FlatVariant", CSSName: "flat"}},
		Keyframes:   []registry.StyleEntry{{QualifiedName: "com.example.Spin", CSSName: "spin"}},
	}
	assert.Equal(t, want, res.Registry)
	assert.Equal(t, diag.Location{File: "/src/Index.kt", Line: 3}, res.Sources["com.example.pages.HomePage"])
}

// The full path from a parsed file to a route, through the scanner.
func TestScanThenResolve(t *testing.T) {
	s := scan.New(scan.Config{PagesPackage: pagesRoot, APIPackage: "com.example.api"})
	mappingFile := &syntax.File{
		Path:    "/src/com/example/pages/blog/Mapping.kt",
		Package: "com.example.pages.blog",
		Annotations: []*syntax.Annotation{{
			Name: "PackageMapping", Target: "file", Pos: 1,
			Args: []syntax.Argument{{Value: "posts", IsString: true}},
		}},
	}
	postFile := &syntax.File{
		Path:    "/src/com/example/pages/blog/Post.kt",
		Package: "com.example.pages.blog",
		Decls: []syntax.Node{&syntax.Function{
			Name:        "Post",
			Annotations: []*syntax.Annotation{{Name: "Page"}, {Name: "Composable"}},
			Pos:         6,
		}},
	}

	var cands []scan.Candidate
	for _, f := range []*syntax.File{postFile, mappingFile} {
		res := s.ScanFile(f)
		require.Empty(t, res.Diagnostics)
		cands = append(cands, res.Candidates...)
	}
	res, diags := Resolve("app", Roots{Pages: pagesRoot}, cands)
	require.Empty(t, diags)
	require.Len(t, res.Registry.Pages, 1)
	assert.Equal(t, "/posts/post", res.Registry.Pages[0].Route)
}
