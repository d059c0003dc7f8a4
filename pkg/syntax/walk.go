package syntax

// Visitor is called for every node during Walk. stack holds the enclosing
// declarations from outermost to innermost; it is empty for top-level
// declarations and must not be retained. Returning false skips the node's
// children.
type Visitor func(n Node, stack []Node) bool

// Walk traverses the declarations of f depth-first in source order. Imports
// and file annotations are visited before declarations.
func Walk(f *File, fn Visitor) {
	if f == nil {
		return
	}
	for _, imp := range f.Imports {
		fn(imp, nil)
	}
	for _, ann := range f.Annotations {
		fn(ann, nil)
	}
	stack := make([]Node, 0, 8)
	for _, d := range f.Decls {
		walk(d, stack, fn)
	}
}

func walk(n Node, stack []Node, fn Visitor) {
	if n == nil {
		return
	}
	if !fn(n, stack) {
		return
	}
	switch n := n.(type) {
	case *Function:
		stack = append(stack, n)
		for _, c := range n.Body {
			walk(c, stack, fn)
		}
	case *Class:
		stack = append(stack, n)
		for _, c := range n.Members {
			walk(c, stack, fn)
		}
	}
}

// IsTopLevel reports whether a node visited with stack is a top-level
// declaration.
func IsTopLevel(stack []Node) bool {
	return len(stack) == 0
}
