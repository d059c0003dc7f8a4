// Package routes turns scan candidates into routes and checks the result.
//
// Route derivation has two steps. A Mapper converts a declaring package into
// a URL prefix, honoring @PackageMapping overrides:
//
//	com.example.pages.blog          → /blog
//	com.example.pages.blog (posts)  → /posts
//	com.example.pages._2024         → /2024
//
// Resolve then appends the slug, taken from the file name or the annotation's
// route override:
//
//	Post.kt                → /blog/post
//	Index.kt               → /blog/
//	@Page("/custom/path")  → /custom/path
//	@Page("{}")            → /blog/<file name, lower-cased>
//
// A Validator reports duplicate routes as errors and "X" alongside "X/" as a
// warning. A Matcher answers which registered entry serves a request path.
package routes
