package layout

import "lazyload/pkg/html"

// Result is the box tree produced by one layout pass.
type Result struct {
	Root   *Box
	boxes  map[*html.Node]*Box
	height float64
}

// Box returns the box generated for node, or nil when the node is not
// rendered (display:none, hidden, detached or inserted after layout).
func (r *Result) Box(node *html.Node) *Box {
	return r.boxes[node]
}

// OffsetTop is the distance from the top of the document to the top of
// node's box. Unrendered nodes report 0.
func (r *Result) OffsetTop(node *html.Node) float64 {
	if b := r.boxes[node]; b != nil {
		return b.Y
	}
	return 0
}

// Height is the total document height.
func (r *Result) Height() float64 {
	return r.height
}

// Walk visits boxes depth-first in paint order.
func (r *Result) Walk(fn func(*Box)) {
	var visit func(*Box)
	visit = func(b *Box) {
		fn(b)
		for _, c := range b.Children {
			visit(c)
		}
	}
	if r.Root != nil {
		visit(r.Root)
	}
}
