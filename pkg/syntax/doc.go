// Package syntax defines the declaration tree that the source scanner walks.
//
// The tree is shallow. It keeps only what annotation discovery
// needs (package, imports, file annotations, and function, property and class
// declarations with their annotations and modifiers). Expressions are reduced
// to a callee name plus source text.
//
// Nodes form a closed set of variants. Consumers match on the concrete type:
//
//	syntax.Walk(file, func(n syntax.Node, stack []syntax.Node) bool {
//	    switch n := n.(type) {
//	    case *syntax.Function:
//	        // ...
//	    case *syntax.Property:
//	        // ...
//	    }
//	    return true
//	})
//
// Trees are produced by a front-end such as package kotlin, or built directly
// in tests.
package syntax
