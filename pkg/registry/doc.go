// Package registry defines the resolved registration set of a module and the
// JSON blob it is shipped in.
//
// Every library built with kobgen embeds its own registry at BlobPath:
//
//	{
//	  "version": 1,
//	  "module": "com.example:widgets",
//	  "pages": [{"fqn": "com.example.pages.Index", "route": "/"}],
//	  "styles": [{"fqn": "com.example.ButtonStyle", "cssName": "button"}]
//	}
//
// An application merges the registries of its dependencies with its own
// using Merge, which produces the same output for any dependency order.
package registry
