package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobweb-dev/kobgen/pkg/registry"
)

func TestChiPattern(t *testing.T) {
	tests := map[string]string{
		"/":                  "/",
		"/blog/post":         "/blog/post",
		"/users/{id}":        "/users/{id}",
		"/users/{id?}":       "/users/{id}",
		"/docs/{...rest}":    "/docs/*",
		"/docs/{...rest?}":   "/docs/*",
		"/blog/":             "/blog/",
		"/a/{x}-{y}/literal": "/a/{x}-{y}/literal",
	}
	for in, want := range tests {
		assert.Equal(t, want, ChiPattern(in), in)
	}
}

func TestMatcher(t *testing.T) {
	reg := &registry.Registry{
		Pages: []registry.RouteEntry{
			{QualifiedName: "app.Index", Route: "/"},
			{QualifiedName: "app.blog.Index", Route: "/blog/"},
			{QualifiedName: "app.blog.Post", Route: "/blog/post"},
			{QualifiedName: "app.users.User", Route: "/users/{id}"},
			{QualifiedName: "app.docs.Docs", Route: "/docs/{...rest}"},
		},
		APIs:       []registry.RouteEntry{{QualifiedName: "app.api.echo", Route: "/echo"}},
		APIStreams: []registry.RouteEntry{{QualifiedName: "app.api.chat", Route: "/chat"}},
	}
	m, err := NewMatcher(reg)
	require.NoError(t, err)

	tests := []struct {
		path   string
		kind   EntryKind
		name   string
		params map[string]string
	}{
		{path: "/", kind: KindPage, name: "app.Index"},
		{path: "/blog/", kind: KindPage, name: "app.blog.Index"},
		{path: "/blog//post", kind: KindPage, name: "app.blog.Post"},
		{path: "/blog/./post?draft=1", kind: KindPage, name: "app.blog.Post"},
		{path: "/users/42", kind: KindPage, name: "app.users.User", params: map[string]string{"id": "42"}},
		{path: "/docs/a/b", kind: KindPage, name: "app.docs.Docs", params: map[string]string{"*": "a/b"}},
		{path: "/echo", kind: KindAPI, name: "app.api.echo"},
		{path: "/chat", kind: KindAPIStream, name: "app.api.chat"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := m.Match(tt.path)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.kind, got[0].Kind)
			assert.Equal(t, tt.name, got[0].Entry.QualifiedName)
			assert.Equal(t, tt.params, got[0].Params)
		})
	}

	none, err := m.Match("/blog")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = m.Match(`/a\b`)
	assert.ErrorIs(t, err, ErrBackslashInPath)
}

func TestMatcherPageAndAPIOnSamePath(t *testing.T) {
	reg := &registry.Registry{
		Pages: []registry.RouteEntry{{QualifiedName: "app.Echo", Route: "/echo"}},
		APIs:  []registry.RouteEntry{{QualifiedName: "app.api.echo", Route: "/echo"}},
	}
	m, err := NewMatcher(reg)
	require.NoError(t, err)
	got, err := m.Match("/echo")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, KindPage, got[0].Kind)
	assert.Equal(t, KindAPI, got[1].Kind)
}

func TestMatcherRejectsInvalidPattern(t *testing.T) {
	reg := &registry.Registry{Pages: []registry.RouteEntry{{QualifiedName: "app.Bad", Route: "/a/{...rest}/b"}}}
	_, err := NewMatcher(reg)
	assert.Error(t, err)
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in, want string
		err      error
	}{
		{in: "", want: "/"},
		{in: "/", want: "/"},
		{in: "/a//b/", want: "/a/b/"},
		{in: "a/b", want: "/a/b"},
		{in: "/a/../b", want: "/b"},
		{in: "/a/./b?x=1", want: "/a/b"},
		{in: "/../x", err: ErrPathEscapesRoot},
		{in: "/a%2", err: ErrInvalidPercentEscape},
		{in: "/a%00", err: ErrNullByteInPath},
		{in: `/a\b`, err: ErrBackslashInPath},
	}
	for _, tt := range tests {
		got, err := CleanPath(tt.in)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
